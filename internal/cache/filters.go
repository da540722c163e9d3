package cache

import "strings"

// Filter selects cached entries. Zero-valued predicates are inactive;
// string predicates are case-insensitive substring matches. Search is a
// free-text match across the raw payload, action, category, actor and
// environment.
type Filter struct {
	Start    string
	End      string
	Category string
	Action   string
	Actor    string
	Outcome  string
	Source   string
	IP       string
	Search   string
	Limit    int
	Offset   int
}

// HasPredicates reports whether any filter predicate is active.
func (f Filter) HasPredicates() bool {
	return f.Start != "" || f.End != "" || f.Category != "" || f.Action != "" ||
		f.Actor != "" || f.Outcome != "" || f.Source != "" || f.IP != "" ||
		f.Search != ""
}

// whereClause builds the WHERE clause and parameters for QueryEntries.
func (f Filter) whereClause() (string, []any) {
	var conditions []string
	var params []any

	like := func(column, value string) {
		conditions = append(conditions, column+" LIKE ?")
		params = append(params, "%"+value+"%")
	}

	if f.Start != "" {
		conditions = append(conditions, "timestamp >= ?")
		params = append(params, f.Start)
	}
	if f.End != "" {
		conditions = append(conditions, "timestamp <= ?")
		params = append(params, f.End)
	}
	if f.Category != "" {
		like("category", f.Category)
	}
	if f.Action != "" {
		like("action", f.Action)
	}
	if f.Actor != "" {
		like("actor_id", f.Actor)
	}
	if f.Outcome != "" {
		like("outcome_type", f.Outcome)
	}
	if f.Source != "" {
		like("source", f.Source)
	}
	if f.IP != "" {
		like("client_ip", f.IP)
	}
	if f.Search != "" {
		conditions = append(conditions,
			"(raw_json LIKE ? OR action LIKE ? OR category LIKE ? OR actor_id LIKE ? OR environment LIKE ?)")
		term := "%" + f.Search + "%"
		params = append(params, term, term, term, term, term)
	}

	if len(conditions) == 0 {
		return "", params
	}
	return "WHERE " + strings.Join(conditions, " AND "), params
}

// countWhereClause builds the WHERE clause for CountEntries, which uses
// the countable subset of predicates (no source/IP/search, no paging).
func (f Filter) countWhereClause() (string, []any) {
	counted := Filter{
		Start:    f.Start,
		End:      f.End,
		Category: f.Category,
		Action:   f.Action,
		Actor:    f.Actor,
		Outcome:  f.Outcome,
	}
	return counted.whereClause()
}
