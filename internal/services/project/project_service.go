package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	ErrNameRequired = errors.New("project name is required")
	ErrInvalidRole  = errors.New("invalid role")
	ErrNotAllowed   = errors.New("caller may not invite members to this project")
)

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, name, ownerID string) (*Project, error)
	GetByID(ctx context.Context, id int64) (*Project, error)
	ListForUser(ctx context.Context, userID string) ([]*Project, error)
	GetMember(ctx context.Context, projectID int64, userID string) (*Member, error)
	UpsertMember(ctx context.Context, projectID int64, userID string, role Role) (*Member, error)
	CreateInvitation(ctx context.Context, projectID int64, email string, role Role) (*Invitation, error)
	ListInvitationsByEmail(ctx context.Context, email string) ([]*Invitation, error)
	DeleteInvitation(ctx context.Context, id int64) error
}

// ProjectService contains business logic for projects and memberships
type ProjectService struct {
	store Store
}

// NewProjectService constructs a new ProjectService
func NewProjectService(store Store) *ProjectService {
	return &ProjectService{store: store}
}

// Create registers a new project with the caller as owner. The redundant
// ADMIN membership row is best effort: the owner's rights derive from
// owner_id equality, so a failure here is logged and swallowed.
func (s *ProjectService) Create(ctx context.Context, ownerID string, req *CreateProjectRequest) (*Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	p, err := s.store.Create(ctx, name, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	if _, err := s.store.UpsertMember(ctx, p.ID, ownerID, RoleAdmin); err != nil {
		slog.WarnContext(ctx, "Unable to create owner membership row", slog.Int64("project_id", p.ID), slog.Any("error", err))
	}

	return p, nil
}

// List returns projects the user owns or has been added to
func (s *ProjectService) List(ctx context.Context, userID string) ([]*Project, error) {
	projects, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

// IsMember reports whether userID may access resources scoped to projectID.
// It fails closed: an absent project is treated as "not a member". The owner
// is always a member; otherwise a membership row must exist. Role is not
// checked at this level.
func (s *ProjectService) IsMember(ctx context.Context, userID string, projectID int64) (bool, error) {
	p, err := s.store.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return false, nil
		}
		return false, err
	}

	if p.OwnerID == userID {
		return true, nil
	}

	if _, err := s.store.GetMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// AddMember grants (or upgrades) a membership for an existing user. The
// caller must hold invite privileges on the project.
func (s *ProjectService) AddMember(ctx context.Context, callerID string, projectID int64, userID string, role Role) (*Member, error) {
	if err := s.authorizeInvite(ctx, callerID, projectID); err != nil {
		return nil, err
	}

	m, err := s.store.UpsertMember(ctx, projectID, userID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return m, nil
}

// CreateInvitation records a pending grant for an email with no account.
// The caller must hold invite privileges on the project.
func (s *ProjectService) CreateInvitation(ctx context.Context, callerID string, projectID int64, email string, role Role) (*Invitation, error) {
	if err := s.authorizeInvite(ctx, callerID, projectID); err != nil {
		return nil, err
	}

	inv, err := s.store.CreateInvitation(ctx, projectID, email, role)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	return inv, nil
}

// ClaimInvitations materializes pending invitations for email into
// memberships for userID, removing each invitation afterwards. Returns the
// number of memberships granted.
func (s *ProjectService) ClaimInvitations(ctx context.Context, userID, email string) (int, error) {
	invitations, err := s.store.ListInvitationsByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	claimed := 0
	for _, inv := range invitations {
		if _, err := s.store.UpsertMember(ctx, inv.ProjectID, userID, inv.Role); err != nil {
			slog.WarnContext(ctx, "Unable to claim invitation", slog.Int64("invitation_id", inv.ID), slog.Any("error", err))
			continue
		}

		if err := s.store.DeleteInvitation(ctx, inv.ID); err != nil {
			slog.WarnContext(ctx, "Unable to delete claimed invitation", slog.Int64("invitation_id", inv.ID), slog.Any("error", err))
		}
		claimed++
	}

	return claimed, nil
}

// authorizeInvite checks the elevated privilege rule: owner, or a member
// whose role is above MEMBER. The project must exist.
func (s *ProjectService) authorizeInvite(ctx context.Context, callerID string, projectID int64) error {
	p, err := s.store.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	member, err := s.store.GetMember(ctx, projectID, callerID)
	if err != nil && !errors.Is(err, ErrMemberNotFound) {
		return err
	}

	if canInvite(p.OwnerID, callerID, member) {
		return nil
	}

	return ErrNotAllowed
}

func canInvite(ownerID, callerID string, member *Member) bool {
	if ownerID == callerID {
		return true
	}

	return member != nil && member.Role != RoleMember
}
