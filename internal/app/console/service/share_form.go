package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/strrl/pulsectl/pkg/notify"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

// Resource types that can be shared with another organization.
var ResourceTypes = []string{"vm", "container", "host", "storage", "pbs", "pmg"}

// Access roles a share can grant.
var AccessRoles = []string{"viewer", "editor", "admin"}

// Share form fields.
const (
	FieldResourceType = "resourceType"
	FieldResourceID   = "resourceId"
	FieldTargetOrg    = "targetOrgId"
	FieldAccessRole   = "accessRole"
)

var (
	msgInvalidResourceType = "Invalid resource type. Valid types: " + strings.Join(ResourceTypes, ", ")
	msgInvalidAccessRole   = "Invalid access role. Valid roles: " + strings.Join(AccessRoles, ", ")
)

const (
	msgResourceIDRequired = "Resource ID is required"
	msgTargetOrgRequired  = "Select a target organization"
	msgTargetOrgSame      = "Cannot share with the current organization"
)

// ShareCreator creates organization shares.
type ShareCreator interface {
	CreateShare(ctx context.Context, orgID string, req pulseapi.CreateShareRequest) (*pulseapi.Share, error)
}

// ShareOption is a known resource offered as a quick pick.
type ShareOption struct {
	Type string
	ID   string
	Name string
}

// Key identifies the option as "type::id".
func (o ShareOption) Key() string {
	return o.Type + "::" + o.ID
}

// ShareOptionsFromState lists the live resources that can be quick-picked.
func ShareOptionsFromState(state pulseapi.State) []ShareOption {
	var options []ShareOption
	for _, vm := range state.VMs {
		options = append(options, ShareOption{Type: "vm", ID: vm.ID, Name: guestLabel(vm)})
	}
	for _, ct := range state.Containers {
		options = append(options, ShareOption{Type: "container", ID: ct.ID, Name: guestLabel(ct)})
	}
	for _, h := range state.Hosts {
		options = append(options, ShareOption{Type: "host", ID: h.ID, Name: h.Name()})
	}
	for _, st := range state.Storage {
		options = append(options, ShareOption{Type: "storage", ID: st.ID, Name: st.Name})
	}
	return options
}

func guestLabel(g pulseapi.Guest) string {
	if g.Name == "" {
		return strconv.Itoa(g.VMID)
	}
	return fmt.Sprintf("%s (%d)", g.Name, g.VMID)
}

// ShareForm holds the state of the "share a resource" form. Every setter
// validates its own field immediately, so an error disappears as soon as the
// field becomes valid.
type ShareForm struct {
	api      ShareCreator
	notifier notify.Notifier
	orgID    string
	options  []ShareOption

	mu             sync.Mutex
	resourceType   string
	resourceID     string
	resourceName   string
	targetOrgID    string
	accessRole     string
	selectedOption string
	manualExpanded bool
	errors         FieldErrors
}

// NewShareForm creates a form for sharing resources owned by orgID.
func NewShareForm(api ShareCreator, notifier notify.Notifier, orgID string, options []ShareOption) *ShareForm {
	return &ShareForm{
		api:            api,
		notifier:       notifier,
		orgID:          orgID,
		options:        options,
		accessRole:     "viewer",
		manualExpanded: len(options) == 0,
		errors:         FieldErrors{},
	}
}

// Options returns the quick pick options.
func (f *ShareForm) Options() []ShareOption {
	return f.options
}

// ManualExpanded reports whether the manual entry fields are shown. They are
// always shown when there is nothing to quick-pick.
func (f *ShareForm) ManualExpanded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.manualExpanded || len(f.options) == 0
}

// ExpandManual shows or hides the manual entry fields.
func (f *ShareForm) ExpandManual(expanded bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manualExpanded = expanded
}

// SelectOption fills the manual fields from the quick pick with the given
// "type::id" key. The filled fields are validated like typed input.
func (f *ShareForm) SelectOption(key string) error {
	for _, opt := range f.options {
		if opt.Key() != key {
			continue
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.selectedOption = key
		f.resourceType = opt.Type
		f.resourceID = opt.ID
		f.resourceName = opt.Name
		f.validateLocked(FieldResourceType)
		f.validateLocked(FieldResourceID)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownOption, key)
}

// SelectedOption returns the key of the picked option, or "".
func (f *ShareForm) SelectedOption() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selectedOption
}

// SetResourceType sets and validates the resource type.
func (f *ShareForm) SetResourceType(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resourceType = strings.ToLower(strings.TrimSpace(v))
	f.selectedOption = ""
	f.validateLocked(FieldResourceType)
}

// SetResourceID sets and validates the resource id.
func (f *ShareForm) SetResourceID(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resourceID = strings.TrimSpace(v)
	f.selectedOption = ""
	f.validateLocked(FieldResourceID)
}

// SetResourceName sets the optional display name.
func (f *ShareForm) SetResourceName(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resourceName = strings.TrimSpace(v)
}

// SetTargetOrg sets and validates the target organization.
func (f *ShareForm) SetTargetOrg(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targetOrgID = strings.TrimSpace(v)
	f.validateLocked(FieldTargetOrg)
}

// SetAccessRole sets and validates the access role.
func (f *ShareForm) SetAccessRole(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessRole = strings.ToLower(strings.TrimSpace(v))
	f.validateLocked(FieldAccessRole)
}

// Error returns the validation message of field, or "".
func (f *ShareForm) Error(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors[field]
}

func (f *ShareForm) validateLocked(field string) {
	var msg string
	switch field {
	case FieldResourceType:
		if !slices.Contains(ResourceTypes, f.resourceType) {
			msg = msgInvalidResourceType
		}
	case FieldResourceID:
		if f.resourceID == "" {
			msg = msgResourceIDRequired
		}
	case FieldTargetOrg:
		switch {
		case f.targetOrgID == "":
			msg = msgTargetOrgRequired
		case f.targetOrgID == f.orgID:
			msg = msgTargetOrgSame
		}
	case FieldAccessRole:
		if !slices.Contains(AccessRoles, f.accessRole) {
			msg = msgInvalidAccessRole
		}
	}
	if msg == "" {
		delete(f.errors, field)
		return
	}
	f.errors[field] = msg
}

// Validate checks every field, whether it came from a quick pick or manual
// entry, and returns the errors found.
func (f *ShareForm) Validate() FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, field := range []string{FieldResourceType, FieldResourceID, FieldTargetOrg, FieldAccessRole} {
		f.validateLocked(field)
	}
	if len(f.errors) == 0 {
		return nil
	}
	out := make(FieldErrors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Submit validates the form and creates the share. Nothing is sent when
// validation fails.
func (f *ShareForm) Submit(ctx context.Context) (*pulseapi.Share, error) {
	if errs := f.Validate(); errs != nil {
		return nil, errs
	}

	f.mu.Lock()
	req := pulseapi.CreateShareRequest{
		TargetOrgID:  f.targetOrgID,
		ResourceType: f.resourceType,
		ResourceID:   f.resourceID,
		ResourceName: f.resourceName,
		AccessRole:   f.accessRole,
	}
	f.mu.Unlock()

	share, err := f.api.CreateShare(ctx, f.orgID, req)
	if err != nil {
		slog.Error("failed to create share", "org", f.orgID, "target", req.TargetOrgID, "error", err)
		f.notifier.Error(pulseapi.ErrorMessage(err, "Failed to create share"))
		return nil, notified(fmt.Errorf("create share: %w", err))
	}

	f.notifier.Success("Share created")
	f.Reset()
	return share, nil
}

// Reset clears the form back to its defaults.
func (f *ShareForm) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resourceType = ""
	f.resourceID = ""
	f.resourceName = ""
	f.targetOrgID = ""
	f.accessRole = "viewer"
	f.selectedOption = ""
	f.errors = FieldErrors{}
}
