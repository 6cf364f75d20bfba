package task

import (
	"strconv"
	"strings"
	"time"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

// sortColumns is the allow-list of sortable fields, mapped to their columns.
// Anything else falls back to "date".
var sortColumns = map[string]string{
	"date":      "date",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"status":    "status",
	"title":     "title",
}

// ListQuery is a validated, bounded query specification built from untrusted
// request parameters. The caller's user id is applied unconditionally by the
// store and is not part of this struct.
type ListQuery struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
	Status    string
	Priority  string
	ProjectID *int64
	DateFrom  *time.Time
	DateTo    *time.Time
	Search    string
	Tags      []string
}

// Skip returns the row offset for the requested page.
func (q ListQuery) Skip() int {
	return (q.Page - 1) * q.PageSize
}

// SortColumn returns the column to order by.
func (q ListQuery) SortColumn() string {
	return sortColumns[q.SortBy]
}

// PageMeta describes the page of results returned alongside the data. Field
// names mirror the query parameters.
type PageMeta struct {
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
	SortBy     string `json:"sortBy"`
	SortOrder  string `json:"sortOrder"`
}

// NewPageMeta computes pagination metadata. An empty result set still
// reports one page.
func NewPageMeta(q ListQuery, total int) PageMeta {
	totalPages := (total + q.PageSize - 1) / q.PageSize
	if totalPages == 0 {
		totalPages = 1
	}

	return PageMeta{
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
		SortBy:     q.SortBy,
		SortOrder:  q.SortOrder,
	}
}

// ParseListQuery turns free-form query parameters into a safe, bounded
// ListQuery. Out-of-range numbers are clamped, unknown sort fields and enum
// values fall back to their defaults, and unparseable dates are dropped
// silently. It never fails.
func ParseListQuery(params map[string]string) ListQuery {
	q := ListQuery{
		Page:      defaultPage,
		PageSize:  defaultPageSize,
		SortBy:    "date",
		SortOrder: "desc",
	}

	if page, err := strconv.Atoi(params["page"]); err == nil && page > 1 {
		q.Page = page
	}

	if size, err := strconv.Atoi(params["pageSize"]); err == nil {
		q.PageSize = min(max(size, 1), maxPageSize)
	}

	if _, ok := sortColumns[params["sortBy"]]; ok {
		q.SortBy = params["sortBy"]
	}

	if strings.EqualFold(params["sortOrder"], "asc") {
		q.SortOrder = "asc"
	}

	if ValidStatus(params["status"]) {
		q.Status = params["status"]
	}

	if ValidPriority(params["priority"]) {
		q.Priority = params["priority"]
	}

	// Zero is dropped like an absent parameter; any other numeric id is kept
	// so the membership check still runs (and denies) for bogus projects.
	if id, err := strconv.ParseInt(params["projectId"], 10, 64); err == nil && id != 0 {
		q.ProjectID = &id
	}

	if t, err := parseDate(params["dateFrom"]); err == nil {
		q.DateFrom = &t
	}
	if t, err := parseDate(params["dateTo"]); err == nil {
		q.DateTo = &t
	}

	q.Search = strings.TrimSpace(params["q"])

	if params["tags"] != "" {
		for _, tag := range strings.Split(params["tags"], ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				q.Tags = append(q.Tags, tag)
			}
		}
	}

	return q
}
