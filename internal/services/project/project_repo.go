package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrMemberNotFound  = errors.New("member not found")
)

// ProjectRepo handles database operations for projects, members and invitations
type ProjectRepo struct {
	db *sqlx.DB
}

// NewProjectRepo creates a new project repository
func NewProjectRepo(db *sqlx.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// Create creates a new project owned by ownerID
func (r *ProjectRepo) Create(ctx context.Context, name, ownerID string) (*Project, error) {
	query := `
        INSERT INTO projects (name, owner_id)
        VALUES ($1, $2)
        RETURNING id, name, owner_id, created_at
    `

	var p Project
	err := r.db.GetContext(ctx, &p, query, name, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return &p, nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepo) GetByID(ctx context.Context, id int64) (*Project, error) {
	query := `
        SELECT id, name, owner_id, created_at
        FROM projects
        WHERE id = $1
    `

	var p Project
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &p, nil
}

// ListForUser retrieves projects the user owns or is a member of, newest first
func (r *ProjectRepo) ListForUser(ctx context.Context, userID string) ([]*Project, error) {
	query := `
        SELECT p.id, p.name, p.owner_id, p.created_at
        FROM projects p
        WHERE p.owner_id = $1
           OR EXISTS (
               SELECT 1 FROM project_members m
               WHERE m.project_id = p.id AND m.user_id = $1
           )
        ORDER BY p.created_at DESC
    `

	var projects []*Project
	err := r.db.SelectContext(ctx, &projects, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

// GetMember retrieves the membership row for a (project, user) pair
func (r *ProjectRepo) GetMember(ctx context.Context, projectID int64, userID string) (*Member, error) {
	query := `
        SELECT project_id, user_id, role, created_at
        FROM project_members
        WHERE project_id = $1 AND user_id = $2
    `

	var m Member
	err := r.db.GetContext(ctx, &m, query, projectID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return &m, nil
}

// UpsertMember inserts a membership row, updating the role when the
// (project, user) pair already exists.
func (r *ProjectRepo) UpsertMember(ctx context.Context, projectID int64, userID string, role Role) (*Member, error) {
	query := `
        INSERT INTO project_members (project_id, user_id, role)
        VALUES ($1, $2, $3)
        ON CONFLICT (project_id, user_id) DO UPDATE SET role = EXCLUDED.role
        RETURNING project_id, user_id, role, created_at
    `

	var m Member
	err := r.db.GetContext(ctx, &m, query, projectID, userID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert member: %w", err)
	}

	return &m, nil
}

// CreateInvitation records a pending grant for an email with no account yet.
// Re-inviting the same email refreshes the role instead of tripping the
// (project_id, email) unique constraint.
func (r *ProjectRepo) CreateInvitation(ctx context.Context, projectID int64, email string, role Role) (*Invitation, error) {
	query := `
        INSERT INTO invitations (project_id, email, role)
        VALUES ($1, $2, $3)
        ON CONFLICT (project_id, email) DO UPDATE SET role = EXCLUDED.role
        RETURNING id, project_id, email, role, created_at
    `

	var inv Invitation
	err := r.db.GetContext(ctx, &inv, query, projectID, email, role)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	return &inv, nil
}

// ListInvitationsByEmail retrieves pending invitations for an email address
func (r *ProjectRepo) ListInvitationsByEmail(ctx context.Context, email string) ([]*Invitation, error) {
	query := `
        SELECT id, project_id, email, role, created_at
        FROM invitations
        WHERE email = $1
        ORDER BY created_at ASC
    `

	var invitations []*Invitation
	err := r.db.SelectContext(ctx, &invitations, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	return invitations, nil
}

// DeleteInvitation removes an invitation once it has been materialized
func (r *ProjectRepo) DeleteInvitation(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}

	return nil
}
