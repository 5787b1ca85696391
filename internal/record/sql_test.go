// internal/record/sql_test.go
//
// Unit-tests for the SQL adapter using sqlmock.
//
// Run: go test ./internal/record -v

package record

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func TestSQLAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	fields := Fields{"email": "a@b.com", TimestampField: "2025-03-14T03:56:53.589Z"}

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO records (id, path, payload, submitted_at) VALUES (?, ?, ?, ?)`,
	)).
		WithArgs(sqlmock.AnyArg(), "newsletterSubscriptions",
			`{"email":"a@b.com","timestamp":"2025-03-14T03:56:53.589Z"}`,
			"2025-03-14T03:56:53.589Z").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewSQL(sqlx.NewDb(db, "mysql"))
	id, err := s.Append(context.Background(), "newsletterSubscriptions", fields)
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if len(id) != 36 {
		t.Fatalf("id %q is not a UUID", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLAppend_ErrorSurfacesThroughClient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO records`)).
		WillReturnError(errTest("Error 1213: Deadlock found"))

	c := newTestClient(NewSQL(sqlx.NewDb(db, "mysql")))
	_, err = c.Append(context.Background(), "contactMessages", Fields{"name": "A"})
	we, ok := err.(*WriteError)
	if !ok {
		t.Fatalf("want *WriteError, got %T (%v)", err, err)
	}
	if we.Message != "Error 1213: Deadlock found" {
		t.Fatalf("message = %q", we.Message)
	}
}

func TestSQLList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, payload FROM records WHERE path = ? ORDER BY id`)).
		WithArgs("contactMessages").
		WillReturnRows(sqlmock.NewRows([]string{"id", "payload"}).
			AddRow("0195e0b2-0000-7000-8000-000000000001", `{"name":"A"}`).
			AddRow("0195e0b2-0000-7000-8000-000000000002", `{"name":"B"}`))

	got, err := NewSQL(sqlx.NewDb(db, "mysql")).List(context.Background(), "contactMessages")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[0].Fields["name"] != "A" || got[1].Fields["name"] != "B" {
		t.Fatalf("unexpected result: %#v", got)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
