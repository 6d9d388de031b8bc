package user

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"user-directory/pkg/security"
)

const (
	DefaultPage  int64 = 1
	DefaultLimit int64 = 10
	MaxLimit     int64 = 100
)

// Column is a searchable and sortable record field.
type Column string

const (
	ColumnFirstName Column = "first_name"
	ColumnLastName  Column = "last_name"
	ColumnEmail     Column = "email"
	ColumnGender    Column = "gender"
	ColumnStatus    Column = "status"
	// ColumnAll selects every column for search and the default ordering for sort.
	ColumnAll Column = "all"
)

// Columns is the allow-list of field names accepted from callers.
var Columns = []Column{ColumnFirstName, ColumnLastName, ColumnEmail, ColumnGender, ColumnStatus, ColumnAll}

// ExactMatch reports whether searches on c compare whole values instead of substrings.
func (c Column) ExactMatch() bool {
	return c == ColumnGender || c == ColumnStatus
}

// ParseColumn maps a caller supplied name onto the allow-list.
func ParseColumn(name string) (Column, bool) {
	for _, c := range Columns {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// SortOrder is the direction of the list ordering.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// SearchMode tells the storage layer which filter to build.
type SearchMode int

const (
	SearchNone SearchMode = iota
	// SearchGlobal matches the term against every column.
	SearchGlobal
	// SearchColumn matches the term against a single column.
	SearchColumn
)

// ListParams holds the raw query string values of a list request.
type ListParams struct {
	Search      string
	SearchKey   string
	SearchValue string
	SortField   string
	SortOrder   string
	Page        string
	Limit       string
}

// ListQuery is a validated list request. Every identifier in it comes from the
// allow-lists above; Term is the only caller supplied value.
type ListQuery struct {
	Mode         SearchMode
	SearchColumn Column
	Term         string
	SortColumn   Column
	SortOrder    SortOrder
	Page         int64
	Limit        int64
}

// Offset returns the zero-based row offset of the requested page.
func (q ListQuery) Offset() int64 {
	return (q.Page - 1) * q.Limit
}

// Page describes where a list result sits among all matching records.
type Page struct {
	TotalRecords int64
	TotalPages   int64
	CurrentPage  int64
	Limit        int64
}

// PageOf returns the page metadata of q given the total number of matches.
// An empty result still reports zero pages.
func (q ListQuery) PageOf(total int64) Page {
	var pages int64
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return Page{TotalRecords: total, TotalPages: pages, CurrentPage: q.Page, Limit: q.Limit}
}

// InvalidListParamError reports a list parameter the service refuses to run.
type InvalidListParamError struct {
	Param   string
	Message string
	Allowed []string
}

func (e *InvalidListParamError) Error() string {
	return e.Message
}

// ParseListParams validates p and resolves defaults.
func ParseListParams(p ListParams) (ListQuery, error) {
	q := ListQuery{
		Mode:       SearchNone,
		SortColumn: ColumnAll,
		SortOrder:  SortAsc,
		Page:       parsePositive(p.Page, DefaultPage),
		Limit:      parsePositive(p.Limit, DefaultLimit),
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	// The row offset (page-1)*limit must fit in an int.
	if q.Page-1 > int64(math.MaxInt)/q.Limit {
		return ListQuery{}, &InvalidListParamError{
			Param:   "page",
			Message: fmt.Sprintf("Invalid page '%s'. The page number is too large for a limit of %d.", strings.TrimSpace(p.Page), q.Limit),
		}
	}

	key := strings.TrimSpace(p.SearchKey)
	value := strings.TrimSpace(p.SearchValue)
	if (key == "") != (value == "") {
		return ListQuery{}, &InvalidListParamError{
			Param:   "searchKey",
			Message: "Both 'searchKey' and 'searchValue' must be provided together.",
			Allowed: columnNames(),
		}
	}

	switch {
	case key != "":
		col, ok := ParseColumn(key)
		if !ok {
			return ListQuery{}, invalidColumn("searchKey", key)
		}
		term, err := parseTerm("searchValue", value)
		if err != nil {
			return ListQuery{}, err
		}
		q.Term = term
		if col == ColumnAll {
			q.Mode = SearchGlobal
		} else {
			q.Mode = SearchColumn
			q.SearchColumn = col
		}
	case strings.TrimSpace(p.Search) != "":
		term, err := parseTerm("search", p.Search)
		if err != nil {
			return ListQuery{}, err
		}
		q.Term = term
		q.Mode = SearchGlobal
	}

	if field := strings.TrimSpace(p.SortField); field != "" {
		col, ok := ParseColumn(field)
		if !ok {
			return ListQuery{}, invalidColumn("sortField", field)
		}
		q.SortColumn = col
	}

	if order := strings.TrimSpace(p.SortOrder); order != "" {
		switch SortOrder(strings.ToUpper(order)) {
		case SortAsc:
			q.SortOrder = SortAsc
		case SortDesc:
			q.SortOrder = SortDesc
		default:
			return ListQuery{}, &InvalidListParamError{
				Param:   "sortOrder",
				Message: fmt.Sprintf("Invalid sortOrder '%s'. Use ASC or DESC.", order),
				Allowed: []string{string(SortAsc), string(SortDesc)},
			}
		}
	}

	return q, nil
}

func parseTerm(param, raw string) (string, error) {
	term, err := security.ValidateSearchQuery(raw)
	if err != nil {
		return "", &InvalidListParamError{
			Param:   param,
			Message: fmt.Sprintf("Invalid %s: %v", param, err),
		}
	}
	return term, nil
}

func invalidColumn(param, value string) error {
	allowed := columnNames()
	return &InvalidListParamError{
		Param:   param,
		Message: fmt.Sprintf("Invalid %s '%s'. You can only use: %s", param, value, strings.Join(allowed, ", ")),
		Allowed: allowed,
	}
}

func columnNames() []string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = string(c)
	}
	return names
}

func parsePositive(raw string, def int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 1 {
		return def
	}
	return n
}
