package cache

import (
	"strings"
	"testing"
)

func TestHasPredicates(t *testing.T) {
	if (Filter{}).HasPredicates() {
		t.Error("zero filter must have no predicates")
	}
	if (Filter{Limit: 10, Offset: 5}).HasPredicates() {
		t.Error("paging alone is not a predicate")
	}
	if !(Filter{Category: "user-access"}).HasPredicates() {
		t.Error("category must count as a predicate")
	}
	if !(Filter{Start: "2025-01-01T00:00:00.000Z"}).HasPredicates() {
		t.Error("time bound must count as a predicate")
	}
}

func TestWhereClause(t *testing.T) {
	where, params := Filter{}.whereClause()
	if where != "" || len(params) != 0 {
		t.Errorf("zero filter must build no clause, got %q with %d params", where, len(params))
	}

	where, params = Filter{Category: "user", Actor: "alice"}.whereClause()
	if !strings.HasPrefix(where, "WHERE ") {
		t.Errorf("expected WHERE prefix, got %q", where)
	}
	if !strings.Contains(where, "category LIKE ?") || !strings.Contains(where, "actor_id LIKE ?") {
		t.Errorf("missing predicate columns in %q", where)
	}
	if len(params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(params))
	}
	if params[0] != "%user%" {
		t.Errorf("expected wrapped LIKE term, got %v", params[0])
	}

	where, params = Filter{Search: "term"}.whereClause()
	if strings.Count(where, "LIKE ?") != 5 {
		t.Errorf("search must fan out over 5 columns, got %q", where)
	}
	if len(params) != 5 {
		t.Errorf("expected 5 params for search, got %d", len(params))
	}
}

func TestCountWhereClauseDropsUncountedPredicates(t *testing.T) {
	f := Filter{Category: "user", Source: "api", IP: "1.2.3.4", Search: "x"}
	where, params := f.countWhereClause()
	if strings.Contains(where, "source") || strings.Contains(where, "client_ip") || strings.Contains(where, "raw_json") {
		t.Errorf("count clause must only use the countable subset, got %q", where)
	}
	if len(params) != 1 {
		t.Errorf("expected 1 param, got %d", len(params))
	}
}
