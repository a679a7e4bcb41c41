package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpCarriesPgxDiagnostics(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_wishlist_items_user_product", TableName: "wishlist_items", Detail: "Key exists."}
	err := Wrap(CodeConflict, fmt.Errorf("insert: %w", pgErr), "already saved")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", d.Code)
	}
	if d.PGCode != "23505" || d.PGConstraint != "uq_wishlist_items_user_product" || d.PGTable != "wishlist_items" {
		t.Fatalf("missing pg fields: %+v", d)
	}
	if len(d.Chain) < 3 {
		t.Fatalf("expected full unwrap chain, got %v", d.Chain)
	}
	if d.Retryable {
		t.Fatal("conflicts are not retryable")
	}
}

func TestDumpCarriesPqDiagnostics(t *testing.T) {
	err := Wrap(CodeDependency, &pq.Error{Code: "57P01", Message: "terminating connection"}, "list cart")

	d := Dump(err)
	if d.PGCode != "57P01" || d.PGMessage != "terminating connection" {
		t.Fatalf("missing pq fields: %+v", d)
	}
	if !d.Retryable {
		t.Fatal("dependency errors are retryable")
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || d.Chain != nil {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
