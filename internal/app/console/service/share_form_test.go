package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/pulsectl/pkg/notify"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

const createShareRoute = "POST /api/orgs/{orgID}/shares"

func newShareBackend(status int) *fakeBackend {
	b := newFakeBackend()
	b.Post("/api/orgs/{orgID}/shares", func(w http.ResponseWriter, r *http.Request) {
		var req pulseapi.CreateShareRequest
		_ = decodeBody(r, &req)
		if status != http.StatusCreated {
			writeJSON(w, status, map[string]string{"message": "target organization does not exist"})
			return
		}
		writeJSON(w, status, pulseapi.Share{
			ID:           "s1",
			SourceOrgID:  "acme",
			TargetOrgID:  req.TargetOrgID,
			ResourceType: req.ResourceType,
			ResourceID:   req.ResourceID,
			AccessRole:   req.AccessRole,
		})
	})
	return b
}

func TestShareForm_InvalidResourceTypeMessage(t *testing.T) {
	backend := newShareBackend(http.StatusCreated)
	form := NewShareForm(backend.client(t), &notify.Recorder{}, "acme", nil)

	form.SetResourceType("vms")
	assert.Equal(t, "Invalid resource type. Valid types: vm, container, host, storage, pbs, pmg", form.Error(FieldResourceType))

	form.SetResourceType("vm")
	assert.Empty(t, form.Error(FieldResourceType), "message clears as soon as the field is valid")
}

func TestShareForm_RejectsCurrentOrgWithoutNetworkCall(t *testing.T) {
	backend := newShareBackend(http.StatusCreated)
	form := NewShareForm(backend.client(t), &notify.Recorder{}, "acme", nil)

	form.SetResourceType("vm")
	form.SetResourceID("pve1:100")
	form.SetTargetOrg("acme")
	assert.NotEmpty(t, form.Error(FieldTargetOrg))

	_, err := form.Submit(context.Background())
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, FieldTargetOrg)
	assert.Zero(t, backend.total(), "no request may be sent")
}

func TestShareForm_ValidatesAllFieldsOnSubmit(t *testing.T) {
	backend := newShareBackend(http.StatusCreated)
	form := NewShareForm(backend.client(t), &notify.Recorder{}, "acme", nil)

	_, err := form.Submit(context.Background())
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, FieldErrors{
		FieldResourceType: msgInvalidResourceType,
		FieldResourceID:   msgResourceIDRequired,
		FieldTargetOrg:    msgTargetOrgRequired,
	}, fieldErrs)
	assert.Zero(t, backend.total())
}

func TestShareForm_QuickPick(t *testing.T) {
	backend := newShareBackend(http.StatusCreated)
	options := ShareOptionsFromState(pulseapi.State{
		VMs:        []pulseapi.Guest{{ID: "pve1:100", VMID: 100, Name: "web"}},
		Containers: []pulseapi.Guest{{ID: "pve1:200", VMID: 200}},
		Hosts:      []pulseapi.Host{{ID: "h1", Hostname: "web-01"}},
	})
	require.Len(t, options, 3)
	assert.Equal(t, "vm::pve1:100", options[0].Key())
	assert.Equal(t, "web (100)", options[0].Name)
	assert.Equal(t, "200", options[1].Name)

	rec := &notify.Recorder{}
	form := NewShareForm(backend.client(t), rec, "acme", options)
	assert.False(t, form.ManualExpanded())

	assert.ErrorIs(t, form.SelectOption("vm::missing"), ErrUnknownOption)

	require.NoError(t, form.SelectOption("host::h1"))
	assert.Equal(t, "host::h1", form.SelectedOption())
	form.SetTargetOrg("globex")
	form.SetAccessRole("Editor")

	share, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "host", share.ResourceType)
	assert.Equal(t, "h1", share.ResourceID)
	assert.Equal(t, "globex", share.TargetOrgID)
	assert.Equal(t, "editor", share.AccessRole)
	assert.Equal(t, 1, backend.count(createShareRoute))

	last, _ := rec.Last()
	assert.Equal(t, notify.Toast{Level: notify.LevelSuccess, Message: "Share created"}, last)
	assert.Empty(t, form.SelectedOption(), "form resets after a successful submit")
}

func TestShareForm_QuickPickStillValidated(t *testing.T) {
	backend := newShareBackend(http.StatusCreated)
	form := NewShareForm(backend.client(t), &notify.Recorder{}, "acme",
		[]ShareOption{{Type: "dashboard", ID: "d1"}})

	require.NoError(t, form.SelectOption("dashboard::d1"))
	assert.Equal(t, msgInvalidResourceType, form.Error(FieldResourceType))

	form.SetTargetOrg("globex")
	_, err := form.Submit(context.Background())
	require.Error(t, err)
	assert.Zero(t, backend.total())
}

func TestShareForm_ManualExpandedWithoutOptions(t *testing.T) {
	form := NewShareForm(nil, &notify.Recorder{}, "acme", nil)
	assert.True(t, form.ManualExpanded())
	form.ExpandManual(false)
	assert.True(t, form.ManualExpanded(), "nothing to quick-pick keeps manual entry open")

	withOptions := NewShareForm(nil, &notify.Recorder{}, "acme", []ShareOption{{Type: "vm", ID: "1"}})
	assert.False(t, withOptions.ManualExpanded())
	withOptions.ExpandManual(true)
	assert.True(t, withOptions.ManualExpanded())
}

func TestShareForm_InvalidRole(t *testing.T) {
	form := NewShareForm(nil, &notify.Recorder{}, "acme", nil)
	form.SetAccessRole("owner")
	assert.Equal(t, "Invalid access role. Valid roles: viewer, editor, admin", form.Error(FieldAccessRole))
	form.SetAccessRole("admin")
	assert.Empty(t, form.Error(FieldAccessRole))
}

func TestShareForm_SubmitFailure(t *testing.T) {
	backend := newShareBackend(http.StatusBadRequest)
	rec := &notify.Recorder{}
	form := NewShareForm(backend.client(t), rec, "acme", nil)
	form.SetResourceType("storage")
	form.SetResourceID("local-zfs")
	form.SetTargetOrg("nowhere")

	_, err := form.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, Notified(err))
	last, _ := rec.Last()
	assert.Equal(t, notify.Toast{Level: notify.LevelError, Message: "target organization does not exist"}, last)
}
