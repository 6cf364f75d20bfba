package task

import (
	"errors"
	"time"

	json "github.com/bytedance/sonic"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusDone    Status = "DONE"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrSubtaskNotFound = errors.New("subtask not found")
	ErrInvalidInput    = errors.New("invalid input")
	// ErrProjectForbidden is returned when a project-scoped call fails the
	// membership check.
	ErrProjectForbidden = errors.New("not a member of the project")
)

// ValidStatus reports whether s is an exact status value.
func ValidStatus(s string) bool {
	return Status(s) == StatusPending || Status(s) == StatusDone
}

// ValidPriority reports whether s is an exact priority value.
func ValidPriority(s string) bool {
	switch Priority(s) {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// Task is owned exclusively by its creating user; project membership never
// grants visibility into another user's tasks.
type Task struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Notes     *string   `json:"notes" db:"notes"`
	Status    Status    `json:"status" db:"status"`
	Priority  Priority  `json:"priority" db:"priority"`
	Date      time.Time `json:"date" db:"date"`
	UserID    string    `json:"user_id" db:"user_id"`
	ProjectID *int64    `json:"project_id" db:"project_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Subtask lives and dies with its parent task; access control is transitive
// through the parent's owner.
type Subtask struct {
	ID        int64     `json:"id" db:"id"`
	ParentID  int64     `json:"parent_id" db:"parent_id"`
	Title     string    `json:"title" db:"title"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Optional wraps a patch field so that "absent" and "present but null" can
// be told apart after JSON decoding.
type Optional[T any] struct {
	Set   bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

// CreateTaskRequest captures payload for creating a task
type CreateTaskRequest struct {
	Title     string   `json:"title"`
	Notes     *string  `json:"notes"`
	Date      *string  `json:"date"`
	Status    *string  `json:"status"`
	Priority  *string  `json:"priority"`
	ProjectID *int64   `json:"project_id"`
	Tags      []string `json:"tags"`
}

// UpdateTaskRequest captures a partial update; only fields present in the
// request body are validated and applied.
type UpdateTaskRequest struct {
	Title    Optional[*string]  `json:"title"`
	Notes    Optional[*string]  `json:"notes"`
	Date     Optional[*string]  `json:"date"`
	Status   Optional[*string]  `json:"status"`
	Priority Optional[*string]  `json:"priority"`
	Tags     Optional[[]string] `json:"tags"`
}

// CreateSubtaskRequest captures payload for creating a subtask
type CreateSubtaskRequest struct {
	Title  string  `json:"title"`
	Status *string `json:"status"`
}

// UpdateSubtaskRequest captures a partial subtask update
type UpdateSubtaskRequest struct {
	Title  Optional[*string] `json:"title"`
	Status Optional[*string] `json:"status"`
}

// Patch holds validated fields ready to be merged into a task row.
type Patch struct {
	Title    *string
	Notes    Optional[*string]
	Status   *Status
	Priority *Priority
	Date     *time.Time
}

// SubtaskPatch holds validated fields ready to be merged into a subtask row.
type SubtaskPatch struct {
	Title  *string
	Status *Status
}

// Stats summarizes a user's tasks for the dashboard analytics view.
type Stats struct {
	Total      int64 `json:"total" db:"total"`
	Pending    int64 `json:"pending" db:"pending"`
	Done       int64 `json:"done" db:"done"`
	Overdue    int64 `json:"overdue" db:"overdue"`
	ByPriority struct {
		Low    int64 `json:"LOW"`
		Normal int64 `json:"NORMAL"`
		High   int64 `json:"HIGH"`
	} `json:"byPriority" db:"-"`
}

// parseDate accepts the timestamp formats clients send: RFC3339, a local
// datetime, or a bare date.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, errors.New("invalid date: " + s)
}
