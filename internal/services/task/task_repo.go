package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// TaskRepo handles database operations for tasks, subtasks and tags.
// Mutating queries fold the owner check into the WHERE clause, so a row
// owned by someone else behaves exactly like a missing row.
type TaskRepo struct {
	db *sqlx.DB
}

// NewTaskRepo creates a new task repository
func NewTaskRepo(db *sqlx.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

const taskColumns = "t.id, t.title, t.notes, t.status, t.priority, t.date, t.user_id, t.project_id, t.created_at, t.updated_at"

// buildListWhere translates a ListQuery into a WHERE clause with positional
// args. The user_id predicate always comes first and is never relaxed.
func buildListWhere(userID string, q ListQuery) (string, []any) {
	conds := []string{"t.user_id = $1"}
	args := []any{userID}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.Status != "" {
		add("t.status = $%d", q.Status)
	}
	if q.Priority != "" {
		add("t.priority = $%d", q.Priority)
	}
	if q.ProjectID != nil {
		add("t.project_id = $%d", *q.ProjectID)
	}
	if q.DateFrom != nil {
		add("t.date >= $%d", *q.DateFrom)
	}
	if q.DateTo != nil {
		add("t.date <= $%d", *q.DateTo)
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		conds = append(conds, fmt.Sprintf("(t.title ILIKE $%d OR t.notes ILIKE $%d)", len(args), len(args)))
	}
	if len(q.Tags) > 0 {
		add(`EXISTS (
            SELECT 1 FROM task_tags tt
            JOIN tags tg ON tg.id = tt.tag_id
            WHERE tt.task_id = t.id AND tg.name = ANY($%d)
        )`, pq.Array(q.Tags))
	}

	return strings.Join(conds, " AND "), args
}

// List returns one page of the user's tasks plus the unpaged total.
func (r *TaskRepo) List(ctx context.Context, userID string, q ListQuery) ([]*Task, int, error) {
	where, args := buildListWhere(userID, q)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tasks t WHERE %s`, where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	order := q.SortColumn()
	dir := "DESC"
	if q.SortOrder == "asc" {
		dir = "ASC"
	}

	args = append(args, q.PageSize, q.Skip())
	listQuery := fmt.Sprintf(`
        SELECT %s
        FROM tasks t
        WHERE %s
        ORDER BY t.%s %s
        LIMIT $%d OFFSET $%d
    `, taskColumns, where, order, dir, len(args)-1, len(args))

	tasks := []*Task{}
	if err := r.db.SelectContext(ctx, &tasks, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// Create inserts a new task
func (r *TaskRepo) Create(ctx context.Context, t *Task) (*Task, error) {
	query := fmt.Sprintf(`
        INSERT INTO tasks AS t (title, notes, status, priority, date, user_id, project_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING %s
    `, taskColumns)

	var created Task
	err := r.db.GetContext(ctx, &created, query, t.Title, t.Notes, t.Status, t.Priority, t.Date, t.UserID, t.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return &created, nil
}

// GetOwned retrieves a task by (id, owner). A mismatch on either is
// ErrTaskNotFound by design.
func (r *TaskRepo) GetOwned(ctx context.Context, id int64, userID string) (*Task, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM tasks t
        WHERE t.id = $1 AND t.user_id = $2
    `, taskColumns)

	var t Task
	err := r.db.GetContext(ctx, &t, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &t, nil
}

// UpdateOwned merges a validated patch into an owner-scoped task row
func (r *TaskRepo) UpdateOwned(ctx context.Context, id int64, userID string, p *Patch) (*Task, error) {
	setParts := []string{}
	args := []any{}

	set := func(column string, arg any) {
		args = append(args, arg)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Notes.Set {
		set("notes", p.Notes.Value)
	}
	if p.Status != nil {
		set("status", *p.Status)
	}
	if p.Priority != nil {
		set("priority", *p.Priority)
	}
	if p.Date != nil {
		set("date", *p.Date)
	}

	if len(setParts) == 0 {
		return r.GetOwned(ctx, id, userID)
	}

	setParts = append(setParts, "updated_at = NOW()")
	args = append(args, id, userID)

	query := fmt.Sprintf(`
        UPDATE tasks AS t
        SET %s
        WHERE t.id = $%d AND t.user_id = $%d
        RETURNING %s
    `, strings.Join(setParts, ", "), len(args)-1, len(args), taskColumns)

	var t Task
	err := r.db.GetContext(ctx, &t, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return &t, nil
}

// DeleteOwned hard-deletes an owner-scoped task row
func (r *TaskRepo) DeleteOwned(ctx context.Context, id int64, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// ReplaceTags removes all tag links for a task and relinks the given names,
// creating missing tags on demand. The two steps do not share a transaction;
// a crash in between leaves the task untagged (accepted inconsistency
// window, see the update contract).
func (r *TaskRepo) ReplaceTags(ctx context.Context, taskID int64, names []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("failed to unlink tags: %w", err)
	}

	for _, name := range names {
		tagID, err := r.getOrCreateTag(ctx, name)
		if err != nil {
			return err
		}

		_, err = r.db.ExecContext(ctx, `
            INSERT INTO task_tags (task_id, tag_id)
            VALUES ($1, $2)
            ON CONFLICT (task_id, tag_id) DO NOTHING
        `, taskID, tagID)
		if err != nil {
			return fmt.Errorf("failed to link tag: %w", err)
		}
	}

	return nil
}

// getOrCreateTag is an atomic insert-or-return-existing on the tag name
// unique constraint. The no-op DO UPDATE makes RETURNING yield the existing
// row when the insert loses a race.
func (r *TaskRepo) getOrCreateTag(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `
        INSERT INTO tags (name)
        VALUES ($1)
        ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
        RETURNING id
    `, name)
	if err != nil {
		return 0, fmt.Errorf("failed to get or create tag: %w", err)
	}

	return id, nil
}

// ListSubtasks returns a task's subtasks, oldest first
func (r *TaskRepo) ListSubtasks(ctx context.Context, parentID int64) ([]*Subtask, error) {
	query := `
        SELECT id, parent_id, title, status, created_at
        FROM subtasks
        WHERE parent_id = $1
        ORDER BY created_at ASC
    `

	subtasks := []*Subtask{}
	if err := r.db.SelectContext(ctx, &subtasks, query, parentID); err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}

	return subtasks, nil
}

// CreateSubtask inserts a new subtask under a parent task
func (r *TaskRepo) CreateSubtask(ctx context.Context, parentID int64, title string, status Status) (*Subtask, error) {
	query := `
        INSERT INTO subtasks (parent_id, title, status)
        VALUES ($1, $2, $3)
        RETURNING id, parent_id, title, status, created_at
    `

	var s Subtask
	err := r.db.GetContext(ctx, &s, query, parentID, title, status)
	if err != nil {
		return nil, fmt.Errorf("failed to create subtask: %w", err)
	}

	return &s, nil
}

// GetSubtask retrieves a subtask by its own id; ownership is verified by the
// caller through the parent task.
func (r *TaskRepo) GetSubtask(ctx context.Context, id int64) (*Subtask, error) {
	query := `
        SELECT id, parent_id, title, status, created_at
        FROM subtasks
        WHERE id = $1
    `

	var s Subtask
	err := r.db.GetContext(ctx, &s, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubtaskNotFound
		}
		return nil, fmt.Errorf("failed to get subtask: %w", err)
	}

	return &s, nil
}

// UpdateSubtask merges a validated patch into a subtask row
func (r *TaskRepo) UpdateSubtask(ctx context.Context, id int64, p *SubtaskPatch) (*Subtask, error) {
	setParts := []string{}
	args := []any{}

	if p.Title != nil {
		args = append(args, *p.Title)
		setParts = append(setParts, fmt.Sprintf("title = $%d", len(args)))
	}
	if p.Status != nil {
		args = append(args, *p.Status)
		setParts = append(setParts, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(setParts) == 0 {
		return r.GetSubtask(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
        UPDATE subtasks
        SET %s
        WHERE id = $%d
        RETURNING id, parent_id, title, status, created_at
    `, strings.Join(setParts, ", "), len(args))

	var s Subtask
	err := r.db.GetContext(ctx, &s, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubtaskNotFound
		}
		return nil, fmt.Errorf("failed to update subtask: %w", err)
	}

	return &s, nil
}

// DeleteSubtask removes a subtask by id
func (r *TaskRepo) DeleteSubtask(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subtasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subtask: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSubtaskNotFound
	}

	return nil
}

// Stats aggregates the user's tasks for the dashboard
func (r *TaskRepo) Stats(ctx context.Context, userID string) (*Stats, error) {
	var row struct {
		Total    int64 `db:"total"`
		Pending  int64 `db:"pending"`
		Done     int64 `db:"done"`
		Overdue  int64 `db:"overdue"`
		Low      int64 `db:"low"`
		Normal   int64 `db:"normal"`
		High     int64 `db:"high"`
	}

	query := `
        SELECT
            COUNT(*) AS total,
            COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
            COUNT(*) FILTER (WHERE status = 'DONE') AS done,
            COUNT(*) FILTER (WHERE status = 'PENDING' AND date < NOW()) AS overdue,
            COUNT(*) FILTER (WHERE priority = 'LOW') AS low,
            COUNT(*) FILTER (WHERE priority = 'NORMAL') AS normal,
            COUNT(*) FILTER (WHERE priority = 'HIGH') AS high
        FROM tasks
        WHERE user_id = $1
    `

	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		return nil, fmt.Errorf("failed to aggregate task stats: %w", err)
	}

	stats := &Stats{
		Total:   row.Total,
		Pending: row.Pending,
		Done:    row.Done,
		Overdue: row.Overdue,
	}
	stats.ByPriority.Low = row.Low
	stats.ByPriority.Normal = row.Normal
	stats.ByPriority.High = row.High

	return stats, nil
}
