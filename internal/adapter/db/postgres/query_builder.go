package postgres

import (
	"strings"

	"user-directory/internal/domain/user"
	"user-directory/pkg/security"
)

// Every SQL identifier used by List comes from these maps. Caller input only
// ever selects a key and never reaches the statement text.
var (
	columnSQL = map[user.Column]string{
		user.ColumnFirstName: "first_name",
		user.ColumnLastName:  "last_name",
		user.ColumnEmail:     "email",
		user.ColumnGender:    "gender",
		user.ColumnStatus:    "status",
	}

	orderSQL = map[user.SortOrder]string{
		user.SortAsc:  "ASC",
		user.SortDesc: "DESC",
	}

	globalSearchColumns = []user.Column{
		user.ColumnFirstName,
		user.ColumnLastName,
		user.ColumnEmail,
		user.ColumnGender,
		user.ColumnStatus,
	}
)

const defaultSortColumn = "first_name"

// buildFilter returns the WHERE fragment and its bound arguments for q.
// An empty clause means no filter.
func buildFilter(q user.ListQuery) (string, []any) {
	switch q.Mode {
	case user.SearchColumn:
		col, ok := columnSQL[q.SearchColumn]
		if !ok {
			return "", nil
		}
		clause, arg := match(q.SearchColumn, col, q.Term)
		return clause, []any{arg}
	case user.SearchGlobal:
		clauses := make([]string, 0, len(globalSearchColumns))
		args := make([]any, 0, len(globalSearchColumns))
		for _, c := range globalSearchColumns {
			clause, arg := match(c, columnSQL[c], q.Term)
			clauses = append(clauses, clause)
			args = append(args, arg)
		}
		return "(" + strings.Join(clauses, " OR ") + ")", args
	default:
		return "", nil
	}
}

func match(c user.Column, col, term string) (string, any) {
	term = strings.ToLower(term)
	if c.ExactMatch() {
		return "LOWER(" + col + ") = ?", term
	}
	return "LOWER(" + col + ") LIKE ? ESCAPE '\\'", "%" + security.EscapeLike(term) + "%"
}

// buildOrder returns the ORDER BY fragment for q. The id tie-breaker keeps
// pages stable when the sort column has repeated values.
func buildOrder(q user.ListQuery) string {
	col, ok := columnSQL[q.SortColumn]
	if !ok {
		col = defaultSortColumn
	}
	dir, ok := orderSQL[q.SortOrder]
	if !ok {
		dir = "ASC"
	}
	return col + " " + dir + ", id ASC"
}
