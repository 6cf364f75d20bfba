package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListWhereAlwaysScopesToUser(t *testing.T) {
	where, args := buildListWhere("u1", ListQuery{})

	assert.Equal(t, "t.user_id = $1", where)
	assert.Equal(t, []any{"u1"}, args)
}

func TestBuildListWhereFilters(t *testing.T) {
	projectID := int64(4)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	where, args := buildListWhere("u1", ListQuery{
		Status:    "PENDING",
		Priority:  "HIGH",
		ProjectID: &projectID,
		DateFrom:  &from,
		DateTo:    &to,
	})

	assert.Contains(t, where, "t.user_id = $1")
	assert.Contains(t, where, "t.status = $2")
	assert.Contains(t, where, "t.priority = $3")
	assert.Contains(t, where, "t.project_id = $4")
	assert.Contains(t, where, "t.date >= $5")
	assert.Contains(t, where, "t.date <= $6")
	require.Len(t, args, 6)
	assert.Equal(t, "u1", args[0])
	assert.Equal(t, "PENDING", args[1])
	assert.Equal(t, int64(4), args[3])
}

func TestBuildListWhereSearch(t *testing.T) {
	where, args := buildListWhere("u1", ListQuery{Search: "milk"})

	assert.Contains(t, where, "(t.title ILIKE $2 OR t.notes ILIKE $2)")
	require.Len(t, args, 2)
	assert.Equal(t, "%milk%", args[1])
}

func TestBuildListWhereTags(t *testing.T) {
	where, args := buildListWhere("u1", ListQuery{Tags: []string{"home", "errands"}})

	assert.Contains(t, where, "tg.name = ANY($2)")
	require.Len(t, args, 2)
}
