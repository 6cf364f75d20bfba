package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	tasks    map[int64]*Task
	subtasks map[int64]*Subtask
	nextID   int64

	lastPatch    *Patch
	replacedTags map[int64][]string
	listQuery    ListQuery
	listTotal    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:        map[int64]*Task{},
		subtasks:     map[int64]*Subtask{},
		replacedTags: map[int64][]string{},
	}
}

func (f *fakeStore) List(_ context.Context, userID string, q ListQuery) ([]*Task, int, error) {
	f.listQuery = q

	out := []*Task{}
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, f.listTotal, nil
}

func (f *fakeStore) Create(_ context.Context, t *Task) (*Task, error) {
	f.nextID++
	created := *t
	created.ID = f.nextID
	f.tasks[created.ID] = &created
	return &created, nil
}

func (f *fakeStore) GetOwned(_ context.Context, id int64, userID string) (*Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return nil, ErrTaskNotFound
	}
	return t, nil
}

func (f *fakeStore) UpdateOwned(_ context.Context, id int64, userID string, p *Patch) (*Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return nil, ErrTaskNotFound
	}

	f.lastPatch = p
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Notes.Set {
		t.Notes = p.Notes.Value
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	return t, nil
}

func (f *fakeStore) DeleteOwned(_ context.Context, id int64, userID string) error {
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeStore) ReplaceTags(_ context.Context, taskID int64, names []string) error {
	f.replacedTags[taskID] = names
	return nil
}

func (f *fakeStore) ListSubtasks(_ context.Context, parentID int64) ([]*Subtask, error) {
	out := []*Subtask{}
	for _, s := range f.subtasks {
		if s.ParentID == parentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateSubtask(_ context.Context, parentID int64, title string, status Status) (*Subtask, error) {
	f.nextID++
	s := &Subtask{ID: f.nextID, ParentID: parentID, Title: title, Status: status}
	f.subtasks[s.ID] = s
	return s, nil
}

func (f *fakeStore) GetSubtask(_ context.Context, id int64) (*Subtask, error) {
	s, ok := f.subtasks[id]
	if !ok {
		return nil, ErrSubtaskNotFound
	}
	return s, nil
}

func (f *fakeStore) UpdateSubtask(_ context.Context, id int64, p *SubtaskPatch) (*Subtask, error) {
	s, ok := f.subtasks[id]
	if !ok {
		return nil, ErrSubtaskNotFound
	}
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	return s, nil
}

func (f *fakeStore) DeleteSubtask(_ context.Context, id int64) error {
	if _, ok := f.subtasks[id]; !ok {
		return ErrSubtaskNotFound
	}
	delete(f.subtasks, id)
	return nil
}

func (f *fakeStore) Stats(_ context.Context, _ string) (*Stats, error) {
	return &Stats{}, nil
}

type fakeMembership struct {
	allowed bool
	err     error
	checked []int64
}

func (f *fakeMembership) IsMember(_ context.Context, _ string, projectID int64) (bool, error) {
	f.checked = append(f.checked, projectID)
	return f.allowed, f.err
}

func strPtr(s string) *string { return &s }

func TestCreateRequiresTitle(t *testing.T) {
	svc := NewTaskService(newFakeStore(), &fakeMembership{allowed: true})

	_, err := svc.Create(context.Background(), "u1", &CreateTaskRequest{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateRejectsBadDate(t *testing.T) {
	svc := NewTaskService(newFakeStore(), &fakeMembership{allowed: true})

	_, err := svc.Create(context.Background(), "u1", &CreateTaskRequest{
		Title: "Buy milk",
		Date:  strPtr("not-a-date"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateCoercesStatusAndPriority(t *testing.T) {
	tests := []struct {
		name         string
		status       *string
		priority     *string
		wantStatus   Status
		wantPriority Priority
	}{
		{"defaults", nil, nil, StatusPending, PriorityNormal},
		{"exact done", strPtr("DONE"), strPtr("HIGH"), StatusDone, PriorityHigh},
		{"lowercase done falls back", strPtr("done"), nil, StatusPending, PriorityNormal},
		{"unknown priority falls back", nil, strPtr("URGENT"), StatusPending, PriorityNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewTaskService(newFakeStore(), &fakeMembership{allowed: true})

			created, err := svc.Create(context.Background(), "u1", &CreateTaskRequest{
				Title:    "Buy milk",
				Status:   tt.status,
				Priority: tt.priority,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, created.Status)
			assert.Equal(t, tt.wantPriority, created.Priority)
		})
	}
}

func TestCreateTrimsNotes(t *testing.T) {
	store := newFakeStore()
	svc := NewTaskService(store, &fakeMembership{allowed: true})

	created, err := svc.Create(context.Background(), "u1", &CreateTaskRequest{
		Title: "Buy milk",
		Notes: strPtr("   "),
	})
	require.NoError(t, err)
	assert.Nil(t, created.Notes)

	created, err = svc.Create(context.Background(), "u1", &CreateTaskRequest{
		Title: "Buy milk",
		Notes: strPtr("  remember the oat one  "),
	})
	require.NoError(t, err)
	require.NotNil(t, created.Notes)
	assert.Equal(t, "remember the oat one", *created.Notes)
}

func TestCreateChecksProjectMembership(t *testing.T) {
	membership := &fakeMembership{allowed: false}
	svc := NewTaskService(newFakeStore(), membership)

	projectID := int64(7)
	_, err := svc.Create(context.Background(), "u1", &CreateTaskRequest{
		Title:     "Buy milk",
		ProjectID: &projectID,
	})
	assert.ErrorIs(t, err, ErrProjectForbidden)
	assert.Equal(t, []int64{7}, membership.checked)
}

func TestCreateNormalizesTags(t *testing.T) {
	store := newFakeStore()
	svc := NewTaskService(store, &fakeMembership{allowed: true})

	created, err := svc.Create(context.Background(), "u1", &CreateTaskRequest{
		Title: "Buy milk",
		Tags:  []string{" home ", "", "errands"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "errands"}, store.replacedTags[created.ID])
}

func TestListChecksProjectMembership(t *testing.T) {
	membership := &fakeMembership{allowed: false}
	svc := NewTaskService(newFakeStore(), membership)

	projectID := int64(3)
	_, _, err := svc.List(context.Background(), "u1", ListQuery{Page: 1, PageSize: 10, ProjectID: &projectID})
	assert.ErrorIs(t, err, ErrProjectForbidden)
}

func TestListChecksMembershipForAnyProjectID(t *testing.T) {
	membership := &fakeMembership{allowed: false}
	svc := NewTaskService(newFakeStore(), membership)

	q := ParseListQuery(map[string]string{"projectId": "-5"})
	_, _, err := svc.List(context.Background(), "u1", q)
	assert.ErrorIs(t, err, ErrProjectForbidden)
	assert.Equal(t, []int64{-5}, membership.checked)
}

func TestListReturnsPageMeta(t *testing.T) {
	store := newFakeStore()
	store.listTotal = 25
	svc := NewTaskService(store, &fakeMembership{allowed: true})

	_, meta, err := svc.List(context.Background(), "u1", ListQuery{Page: 2, PageSize: 10, SortBy: "date", SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, 25, meta.Total)
	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 3, meta.TotalPages)
}

func TestUpdateUnknownTask(t *testing.T) {
	svc := NewTaskService(newFakeStore(), &fakeMembership{allowed: true})

	_, err := svc.Update(context.Background(), "u1", 99, &UpdateTaskRequest{})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestUpdateOtherUsersTask(t *testing.T) {
	store := newFakeStore()
	store.tasks[1] = &Task{ID: 1, Title: "theirs", UserID: "u2"}
	svc := NewTaskService(store, &fakeMembership{allowed: true})

	_, err := svc.Update(context.Background(), "u1", 1, &UpdateTaskRequest{})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestUpdateValidatesPresentFields(t *testing.T) {
	tests := []struct {
		name string
		req  UpdateTaskRequest
	}{
		{"null title", UpdateTaskRequest{Title: Optional[*string]{Set: true, Value: nil}}},
		{"blank title", UpdateTaskRequest{Title: Optional[*string]{Set: true, Value: strPtr("  ")}}},
		{"bad status", UpdateTaskRequest{Status: Optional[*string]{Set: true, Value: strPtr("WIP")}}},
		{"null status", UpdateTaskRequest{Status: Optional[*string]{Set: true, Value: nil}}},
		{"bad priority", UpdateTaskRequest{Priority: Optional[*string]{Set: true, Value: strPtr("URGENT")}}},
		{"null date", UpdateTaskRequest{Date: Optional[*string]{Set: true, Value: nil}}},
		{"bad date", UpdateTaskRequest{Date: Optional[*string]{Set: true, Value: strPtr("tomorrow")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.tasks[1] = &Task{ID: 1, Title: "mine", UserID: "u1"}
			svc := NewTaskService(store, &fakeMembership{allowed: true})

			_, err := svc.Update(context.Background(), "u1", 1, &tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestUpdateAppliesOnlyPresentFields(t *testing.T) {
	store := newFakeStore()
	store.tasks[1] = &Task{ID: 1, Title: "mine", Status: StatusPending, UserID: "u1"}
	svc := NewTaskService(store, &fakeMembership{allowed: true})

	updated, err := svc.Update(context.Background(), "u1", 1, &UpdateTaskRequest{
		Status: Optional[*string]{Set: true, Value: strPtr("DONE")},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDone, updated.Status)
	assert.Equal(t, "mine", updated.Title)

	require.NotNil(t, store.lastPatch)
	assert.Nil(t, store.lastPatch.Title)
	assert.False(t, store.lastPatch.Notes.Set)
	assert.Nil(t, store.lastPatch.Date)
}

func TestUpdateClearsNotesWithNull(t *testing.T) {
	store := newFakeStore()
	notes := "old"
	store.tasks[1] = &Task{ID: 1, Title: "mine", Notes: &notes, UserID: "u1"}
	svc := NewTaskService(store, &fakeMembership{allowed: true})

	updated, err := svc.Update(context.Background(), "u1", 1, &UpdateTaskRequest{
		Notes: Optional[*string]{Set: true, Value: nil},
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Notes)
	assert.True(t, store.lastPatch.Notes.Set)
}

func TestUpdateReplacesTags(t *testing.T) {
	store := newFakeStore()
	store.tasks[1] = &Task{ID: 1, Title: "mine", UserID: "u1"}
	svc := NewTaskService(store, &fakeMembership{allowed: true})

	_, err := svc.Update(context.Background(), "u1", 1, &UpdateTaskRequest{
		Tags: Optional[[]string]{Set: true, Value: []string{" a ", "b"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, store.replacedTags[1])
}

func TestDeleteUnknownTask(t *testing.T) {
	svc := NewTaskService(newFakeStore(), &fakeMembership{allowed: true})

	err := svc.Delete(context.Background(), "u1", 42)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSubtaskOwnershipIsTransitive(t *testing.T) {
	store := newFakeStore()
	store.tasks[1] = &Task{ID: 1, Title: "theirs", UserID: "u2"}
	store.subtasks[10] = &Subtask{ID: 10, ParentID: 1, Title: "step"}
	svc := NewTaskService(store, &fakeMembership{allowed: true})

	_, err := svc.ListSubtasks(context.Background(), "u1", 1)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = svc.CreateSubtask(context.Background(), "u1", 1, &CreateSubtaskRequest{Title: "step"})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = svc.UpdateSubtask(context.Background(), "u1", 10, &UpdateSubtaskRequest{})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	err = svc.DeleteSubtask(context.Background(), "u1", 10)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSubtaskLifecycle(t *testing.T) {
	store := newFakeStore()
	store.tasks[1] = &Task{ID: 1, Title: "mine", UserID: "u1"}
	svc := NewTaskService(store, &fakeMembership{allowed: true})

	created, err := svc.CreateSubtask(context.Background(), "u1", 1, &CreateSubtaskRequest{Title: " step one "})
	require.NoError(t, err)
	assert.Equal(t, "step one", created.Title)
	assert.Equal(t, StatusPending, created.Status)

	updated, err := svc.UpdateSubtask(context.Background(), "u1", created.ID, &UpdateSubtaskRequest{
		Status: Optional[*string]{Set: true, Value: strPtr("DONE")},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDone, updated.Status)

	require.NoError(t, svc.DeleteSubtask(context.Background(), "u1", created.ID))
	err = svc.DeleteSubtask(context.Background(), "u1", created.ID)
	assert.ErrorIs(t, err, ErrSubtaskNotFound)
}

func TestMembershipCheckFailurePropagates(t *testing.T) {
	membership := &fakeMembership{err: errors.New("db down")}
	svc := NewTaskService(newFakeStore(), membership)

	projectID := int64(1)
	_, err := svc.Create(context.Background(), "u1", &CreateTaskRequest{
		Title:     "Buy milk",
		ProjectID: &projectID,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProjectForbidden)
}

func TestCreateParsesDateFormats(t *testing.T) {
	store := newFakeStore()
	svc := NewTaskService(store, &fakeMembership{allowed: true})

	created, err := svc.Create(context.Background(), "u1", &CreateTaskRequest{
		Title: "Buy milk",
		Date:  strPtr("2026-08-29"),
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), created.Date)
}
