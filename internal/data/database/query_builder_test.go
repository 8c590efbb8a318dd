package database

import (
	"strings"
	"testing"
)

func TestBuildListQuery_BasicSelect(t *testing.T) {
	opts := NewListQueryOptions("projects")
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "projects"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}
}

func TestBuildListQuery_WithColumns(t *testing.T) {
	opts := NewListQueryOptions("skills",
		WithColumns("id", "name", "level"),
	)
	query, _ := BuildListQuery(opts)

	expected := `SELECT "id", "name", "level" FROM "skills"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
}

func TestBuildListQuery_WithConditionAndPagination(t *testing.T) {
	opts := NewListQueryOptions("projects",
		WithCondition(WhereCond("published", Equal, true)),
		WithOrderBy("created_at", "desc"),
		WithLimit(20),
		WithOffset(40),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "projects" WHERE "published" = $1 ORDER BY "created_at" DESC LIMIT $2 OFFSET $3`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 3 {
		t.Fatalf("Expected 3 args, got %d", len(args))
	}
	if args[0] != true || args[1] != 20 || args[2] != 40 {
		t.Errorf("Unexpected args: %v", args)
	}
}

func TestBuildListQuery_ILike(t *testing.T) {
	opts := NewListQueryOptions("projects",
		WithCondition(WhereCond("title", ILike, "%api%")),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "projects" WHERE "title" ILIKE $1`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 1 || args[0] != "%api%" {
		t.Errorf("Unexpected args: %v", args)
	}
}

func TestBuildListQuery_AnyCondition(t *testing.T) {
	opts := NewListQueryOptions("skills",
		WithCondition(WhereCond("id", Any, []int{1, 2, 3})),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "skills" WHERE "id" = ANY (ARRAY[$1, $2, $3])`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 3 {
		t.Errorf("Expected 3 args, got %d", len(args))
	}
}

func TestBuildListQuery_EmptyAnySliceSkipsCondition(t *testing.T) {
	opts := NewListQueryOptions("skills",
		WithCondition(WhereCond("id", Any, []int{})),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "skills"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}
}

func TestBuildListQuery_SanitizesIdentifiers(t *testing.T) {
	opts := NewListQueryOptions(`projects"; DROP TABLE projects; --`)
	query, _ := BuildListQuery(opts)

	// Quoted identifiers double any embedded quote, so the closing quote
	// from the malicious table name cannot terminate the identifier.
	if !strings.Contains(query, `""`) {
		t.Errorf("identifier not sanitized in %q", query)
	}
}
