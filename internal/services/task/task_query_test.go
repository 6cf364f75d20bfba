package task

import (
	"testing"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListQueryDefaults(t *testing.T) {
	q := ParseListQuery(map[string]string{})

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.PageSize)
	assert.Equal(t, "date", q.SortBy)
	assert.Equal(t, "desc", q.SortOrder)
	assert.Empty(t, q.Status)
	assert.Empty(t, q.Priority)
	assert.Nil(t, q.ProjectID)
	assert.Nil(t, q.DateFrom)
	assert.Nil(t, q.DateTo)
	assert.Empty(t, q.Tags)
}

func TestParseListQueryClampsPaging(t *testing.T) {
	tests := []struct {
		name     string
		params   map[string]string
		wantPage int
		wantSize int
	}{
		{"negative page", map[string]string{"page": "-5"}, 1, 10},
		{"zero page", map[string]string{"page": "0"}, 1, 10},
		{"garbage page", map[string]string{"page": "abc"}, 1, 10},
		{"oversized pageSize", map[string]string{"pageSize": "500"}, 1, 100},
		{"zero pageSize", map[string]string{"pageSize": "0"}, 1, 1},
		{"negative pageSize", map[string]string{"pageSize": "-1"}, 1, 1},
		{"valid", map[string]string{"page": "3", "pageSize": "25"}, 3, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseListQuery(tt.params)
			assert.Equal(t, tt.wantPage, q.Page)
			assert.Equal(t, tt.wantSize, q.PageSize)
		})
	}
}

func TestParseListQuerySorting(t *testing.T) {
	q := ParseListQuery(map[string]string{"sortBy": "createdAt", "sortOrder": "ASC"})
	assert.Equal(t, "createdAt", q.SortBy)
	assert.Equal(t, "asc", q.SortOrder)
	assert.Equal(t, "created_at", q.SortColumn())

	q = ParseListQuery(map[string]string{"sortBy": "user_id; DROP TABLE tasks", "sortOrder": "sideways"})
	assert.Equal(t, "date", q.SortBy)
	assert.Equal(t, "desc", q.SortOrder)
	assert.Equal(t, "date", q.SortColumn())
}

func TestParseListQueryEnumFilters(t *testing.T) {
	q := ParseListQuery(map[string]string{"status": "DONE", "priority": "HIGH"})
	assert.Equal(t, "DONE", q.Status)
	assert.Equal(t, "HIGH", q.Priority)

	// Unknown values are dropped, not errored
	q = ParseListQuery(map[string]string{"status": "done", "priority": "urgent"})
	assert.Empty(t, q.Status)
	assert.Empty(t, q.Priority)
}

func TestParseListQueryDates(t *testing.T) {
	q := ParseListQuery(map[string]string{"dateFrom": "2026-01-01", "dateTo": "junk"})
	require.NotNil(t, q.DateFrom)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *q.DateFrom)
	assert.Nil(t, q.DateTo)
}

func TestParseListQuerySearchAndTags(t *testing.T) {
	q := ParseListQuery(map[string]string{"q": "  milk  ", "tags": " home ,,errands, "})
	assert.Equal(t, "milk", q.Search)
	assert.Equal(t, []string{"home", "errands"}, q.Tags)
}

func TestParseListQueryProjectID(t *testing.T) {
	q := ParseListQuery(map[string]string{"projectId": "12"})
	require.NotNil(t, q.ProjectID)
	assert.Equal(t, int64(12), *q.ProjectID)

	q = ParseListQuery(map[string]string{"projectId": "0"})
	assert.Nil(t, q.ProjectID)

	q = ParseListQuery(map[string]string{"projectId": "twelve"})
	assert.Nil(t, q.ProjectID)

	// Negative ids survive parsing; the membership check rejects them later
	q = ParseListQuery(map[string]string{"projectId": "-5"})
	require.NotNil(t, q.ProjectID)
	assert.Equal(t, int64(-5), *q.ProjectID)
}

func TestSkip(t *testing.T) {
	assert.Equal(t, 0, ListQuery{Page: 1, PageSize: 10}.Skip())
	assert.Equal(t, 40, ListQuery{Page: 5, PageSize: 10}.Skip())
}

func TestNewPageMeta(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		pageSize  int
		wantPages int
	}{
		{"empty still one page", 0, 10, 1},
		{"exact fit", 20, 10, 2},
		{"partial last page", 21, 10, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := NewPageMeta(ListQuery{Page: 1, PageSize: tt.pageSize, SortBy: "date", SortOrder: "desc"}, tt.total)
			assert.Equal(t, tt.wantPages, meta.TotalPages)
			assert.Equal(t, tt.total, meta.Total)
		})
	}
}

func TestOptionalUnmarshal(t *testing.T) {
	var req UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"notes": null, "title": "x"}`), &req))

	assert.True(t, req.Title.Set)
	require.NotNil(t, req.Title.Value)
	assert.Equal(t, "x", *req.Title.Value)

	// Present-but-null is distinguishable from absent
	assert.True(t, req.Notes.Set)
	assert.Nil(t, req.Notes.Value)
	assert.False(t, req.Status.Set)
}
