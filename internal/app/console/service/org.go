package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/strrl/pulsectl/pkg/pulseapi"
	"golang.org/x/sync/errgroup"
)

// MemberRoles are the roles a member can be given.
var MemberRoles = []string{"owner", "admin", "editor", "viewer"}

// OrgAPI is the subset of the API used for organization settings.
type OrgAPI interface {
	ListOrganizations(ctx context.Context) ([]pulseapi.Organization, error)
	GetOrganization(ctx context.Context, orgID string) (*pulseapi.Organization, error)
	UpdateOrganization(ctx context.Context, orgID, displayName string) (*pulseapi.Organization, error)
	ListMembers(ctx context.Context, orgID string) ([]pulseapi.Member, error)
	AddMember(ctx context.Context, orgID, userID, role string) (*pulseapi.Member, error)
	BillingStatus(ctx context.Context, orgID string) (*pulseapi.BillingStatus, error)
	ListShares(ctx context.Context, orgID string) ([]pulseapi.Share, error)
	ListIncomingShares(ctx context.Context, orgID string) ([]pulseapi.Share, error)
	CreateShare(ctx context.Context, orgID string, req pulseapi.CreateShareRequest) (*pulseapi.Share, error)
	DeleteShare(ctx context.Context, orgID, shareID string) error
}

// OrgOverview is everything the organization panel shows at once.
type OrgOverview struct {
	Organization *pulseapi.Organization
	Members      []pulseapi.Member
	Billing      *pulseapi.BillingStatus
}

// OrgService handles organization settings.
type OrgService struct {
	api OrgAPI
}

// NewOrgService creates a new OrgService.
func NewOrgService(api OrgAPI) *OrgService {
	return &OrgService{api: api}
}

// List returns the organizations visible to the caller.
func (s *OrgService) List(ctx context.Context) ([]pulseapi.Organization, error) {
	return s.api.ListOrganizations(ctx)
}

// Overview loads the organization, its members and its billing status
// together. The first failure cancels the others and is returned.
func (s *OrgService) Overview(ctx context.Context, orgID string) (*OrgOverview, error) {
	var overview OrgOverview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		org, err := s.api.GetOrganization(ctx, orgID)
		if err != nil {
			return fmt.Errorf("get organization: %w", err)
		}
		overview.Organization = org
		return nil
	})
	g.Go(func() error {
		members, err := s.api.ListMembers(ctx, orgID)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}
		overview.Members = members
		return nil
	})
	g.Go(func() error {
		billing, err := s.api.BillingStatus(ctx, orgID)
		if err != nil {
			return fmt.Errorf("get billing status: %w", err)
		}
		overview.Billing = billing
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}

// Rename changes the organization's display name.
func (s *OrgService) Rename(ctx context.Context, orgID, displayName string) (*pulseapi.Organization, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrNameRequired
	}
	return s.api.UpdateOrganization(ctx, orgID, displayName)
}

// AddMember adds userID to the organization with role.
func (s *OrgService) AddMember(ctx context.Context, orgID, userID, role string) (*pulseapi.Member, error) {
	userID = strings.TrimSpace(userID)
	role = strings.ToLower(strings.TrimSpace(role))
	errs := FieldErrors{}
	if userID == "" {
		errs["userId"] = "User ID is required"
	}
	if !slices.Contains(MemberRoles, role) {
		errs["role"] = "Invalid role. Valid roles: " + strings.Join(MemberRoles, ", ")
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return s.api.AddMember(ctx, orgID, userID, role)
}

// Shares returns the shares orgID grants to other organizations.
func (s *OrgService) Shares(ctx context.Context, orgID string) ([]pulseapi.Share, error) {
	return s.api.ListShares(ctx, orgID)
}

// IncomingShares returns the shares other organizations grant to orgID.
func (s *OrgService) IncomingShares(ctx context.Context, orgID string) ([]pulseapi.Share, error) {
	return s.api.ListIncomingShares(ctx, orgID)
}

// DeleteShare revokes an outgoing share.
func (s *OrgService) DeleteShare(ctx context.Context, orgID, shareID string) error {
	return s.api.DeleteShare(ctx, orgID, shareID)
}
