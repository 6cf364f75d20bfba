package task

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store is the persistence surface the service needs.
type Store interface {
	List(ctx context.Context, userID string, q ListQuery) ([]*Task, int, error)
	Create(ctx context.Context, t *Task) (*Task, error)
	GetOwned(ctx context.Context, id int64, userID string) (*Task, error)
	UpdateOwned(ctx context.Context, id int64, userID string, p *Patch) (*Task, error)
	DeleteOwned(ctx context.Context, id int64, userID string) error
	ReplaceTags(ctx context.Context, taskID int64, names []string) error
	ListSubtasks(ctx context.Context, parentID int64) ([]*Subtask, error)
	CreateSubtask(ctx context.Context, parentID int64, title string, status Status) (*Subtask, error)
	GetSubtask(ctx context.Context, id int64) (*Subtask, error)
	UpdateSubtask(ctx context.Context, id int64, p *SubtaskPatch) (*Subtask, error)
	DeleteSubtask(ctx context.Context, id int64) error
	Stats(ctx context.Context, userID string) (*Stats, error)
}

// MembershipChecker answers whether a user may touch project-scoped
// resources. Implemented by the project service.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID string, projectID int64) (bool, error)
}

// TaskService contains business logic for tasks and subtasks
type TaskService struct {
	store      Store
	membership MembershipChecker
}

// NewTaskService constructs a new TaskService
func NewTaskService(store Store, membership MembershipChecker) *TaskService {
	return &TaskService{store: store, membership: membership}
}

// List returns one page of the caller's tasks. When the query is scoped to
// a project, the caller must be a member; the user_id filter applies either
// way, so a shared project never exposes someone else's tasks.
func (s *TaskService) List(ctx context.Context, userID string, q ListQuery) ([]*Task, PageMeta, error) {
	if q.ProjectID != nil {
		if err := s.checkMembership(ctx, userID, *q.ProjectID); err != nil {
			return nil, PageMeta{}, err
		}
	}

	tasks, total, err := s.store.List(ctx, userID, q)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, NewPageMeta(q, total), nil
}

// Create validates and stores a new task owned by userID
func (s *TaskService) Create(ctx context.Context, userID string, req *CreateTaskRequest) (*Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	date := time.Now()
	if req.Date != nil {
		parsed, err := parseDate(*req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
		}
		date = parsed
	}

	if req.ProjectID != nil {
		if err := s.checkMembership(ctx, userID, *req.ProjectID); err != nil {
			return nil, err
		}
	}

	t := &Task{
		Title:     title,
		Notes:     trimNotes(req.Notes),
		Status:    coerceStatus(req.Status),
		Priority:  coercePriority(req.Priority),
		Date:      date,
		UserID:    userID,
		ProjectID: req.ProjectID,
	}

	created, err := s.store.Create(ctx, t)
	if err != nil {
		return nil, err
	}

	if names := normalizeTags(req.Tags); len(names) > 0 {
		if err := s.store.ReplaceTags(ctx, created.ID, names); err != nil {
			return nil, err
		}
	}

	return created, nil
}

// Update validates the present fields of a partial update and merges them
// into an owner-scoped task. Tags, when present, fully replace the existing
// links.
func (s *TaskService) Update(ctx context.Context, userID string, id int64, req *UpdateTaskRequest) (*Task, error) {
	if _, err := s.store.GetOwned(ctx, id, userID); err != nil {
		return nil, err
	}

	patch := &Patch{}

	if req.Title.Set {
		if req.Title.Value == nil || strings.TrimSpace(*req.Title.Value) == "" {
			return nil, fmt.Errorf("%w: invalid title", ErrInvalidInput)
		}
		title := strings.TrimSpace(*req.Title.Value)
		patch.Title = &title
	}

	if req.Notes.Set {
		patch.Notes = Optional[*string]{Set: true, Value: trimNotes(req.Notes.Value)}
	}

	if req.Status.Set {
		if req.Status.Value == nil || !ValidStatus(*req.Status.Value) {
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		status := Status(*req.Status.Value)
		patch.Status = &status
	}

	if req.Priority.Set {
		if req.Priority.Value == nil || !ValidPriority(*req.Priority.Value) {
			return nil, fmt.Errorf("%w: invalid priority", ErrInvalidInput)
		}
		priority := Priority(*req.Priority.Value)
		patch.Priority = &priority
	}

	if req.Date.Set {
		if req.Date.Value == nil {
			return nil, fmt.Errorf("%w: invalid date", ErrInvalidInput)
		}
		parsed, err := parseDate(*req.Date.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
		}
		patch.Date = &parsed
	}

	updated, err := s.store.UpdateOwned(ctx, id, userID, patch)
	if err != nil {
		return nil, err
	}

	if req.Tags.Set {
		if err := s.store.ReplaceTags(ctx, id, normalizeTags(req.Tags.Value)); err != nil {
			return nil, err
		}
	}

	return updated, nil
}

// Delete hard-deletes an owner-scoped task
func (s *TaskService) Delete(ctx context.Context, userID string, id int64) error {
	return s.store.DeleteOwned(ctx, id, userID)
}

// Stats aggregates the caller's tasks for the dashboard
func (s *TaskService) Stats(ctx context.Context, userID string) (*Stats, error) {
	return s.store.Stats(ctx, userID)
}

// ListSubtasks returns the subtasks of a task the caller owns
func (s *TaskService) ListSubtasks(ctx context.Context, userID string, parentID int64) ([]*Subtask, error) {
	if _, err := s.store.GetOwned(ctx, parentID, userID); err != nil {
		return nil, err
	}

	return s.store.ListSubtasks(ctx, parentID)
}

// CreateSubtask adds a subtask under a task the caller owns
func (s *TaskService) CreateSubtask(ctx context.Context, userID string, parentID int64, req *CreateSubtaskRequest) (*Subtask, error) {
	if _, err := s.store.GetOwned(ctx, parentID, userID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	return s.store.CreateSubtask(ctx, parentID, title, coerceStatus(req.Status))
}

// UpdateSubtask resolves the subtask first, then re-verifies that its parent
// belongs to the caller before applying the patch.
func (s *TaskService) UpdateSubtask(ctx context.Context, userID string, id int64, req *UpdateSubtaskRequest) (*Subtask, error) {
	existing, err := s.store.GetSubtask(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetOwned(ctx, existing.ParentID, userID); err != nil {
		return nil, err
	}

	patch := &SubtaskPatch{}

	if req.Title.Set {
		if req.Title.Value == nil || strings.TrimSpace(*req.Title.Value) == "" {
			return nil, fmt.Errorf("%w: invalid title", ErrInvalidInput)
		}
		title := strings.TrimSpace(*req.Title.Value)
		patch.Title = &title
	}

	if req.Status.Set {
		if req.Status.Value == nil || !ValidStatus(*req.Status.Value) {
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		status := Status(*req.Status.Value)
		patch.Status = &status
	}

	return s.store.UpdateSubtask(ctx, id, patch)
}

// DeleteSubtask resolves the subtask, re-verifies parent ownership, then
// deletes it.
func (s *TaskService) DeleteSubtask(ctx context.Context, userID string, id int64) error {
	existing, err := s.store.GetSubtask(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.store.GetOwned(ctx, existing.ParentID, userID); err != nil {
		return err
	}

	return s.store.DeleteSubtask(ctx, id)
}

func (s *TaskService) checkMembership(ctx context.Context, userID string, projectID int64) error {
	ok, err := s.membership.IsMember(ctx, userID, projectID)
	if err != nil {
		return fmt.Errorf("failed to check project membership: %w", err)
	}
	if !ok {
		return ErrProjectForbidden
	}

	return nil
}

func coerceStatus(s *string) Status {
	if s != nil && Status(*s) == StatusDone {
		return StatusDone
	}
	return StatusPending
}

func coercePriority(s *string) Priority {
	if s != nil && ValidPriority(*s) {
		return Priority(*s)
	}
	return PriorityNormal
}

func trimNotes(notes *string) *string {
	if notes == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeTags(names []string) []string {
	var out []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
