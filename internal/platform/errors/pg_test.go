package errors

import (
	stderrs "errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgErr(code string) error {
	return &pgconn.PgError{Code: code, Message: "pg says no"}
}

func TestExtractPgError(t *testing.T) {
	t.Parallel()

	wrapped := Wrap(pgErr(pgErrUniqueViolation), ErrorCodeDB, "insert quote")
	got, ok := ExtractPgError(wrapped)
	if !ok {
		t.Fatal("pg error not extracted through the wrap")
	}
	if got.Code != pgErrUniqueViolation {
		t.Fatalf("code = %q", got.Code)
	}

	if _, ok := ExtractPgError(stderrs.New("plain")); ok {
		t.Fatal("plain error extracted as pg error")
	}
	if _, ok := ExtractPgError(nil); ok {
		t.Fatal("nil extracted as pg error")
	}
}

func TestPredicates(t *testing.T) {
	t.Parallel()

	if !IsDuplicateKey(pgErr(pgErrUniqueViolation)) {
		t.Fatal("unique violation not detected")
	}
	if IsDuplicateKey(pgErr(pgErrCheckViolation)) {
		t.Fatal("check violation misread as duplicate key")
	}
	if !IsSerializationFailure(pgErr(pgErrSerializationFailure)) {
		t.Fatal("serialization failure not detected")
	}
	if !IsDeadlock(pgErr(pgErrDeadlockDetected)) {
		t.Fatal("deadlock not detected")
	}
	if !IsSQLState(Wrap(pgErr(pgErrCannotConnectNow), ErrorCodeDB, "ping"), pgErrCannotConnectNow) {
		t.Fatal("sqlstate not matched through wrap")
	}
}

func TestDBErrorCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		state string
		want  ErrorCode
	}{
		{"unique", pgErrUniqueViolation, ErrorCodeDuplicateKey},
		{"fk", pgErrForeignKeyViolation, ErrorCodeInvalidArgument},
		{"bad text", pgErrInvalidTextRepresentation, ErrorCodeInvalidArgument},
		{"not null", pgErrNotNullViolation, ErrorCodeValidation},
		{"check", pgErrCheckViolation, ErrorCodeValidation},
		{"serialization", pgErrSerializationFailure, ErrorCodeDB},
		{"deadlock", pgErrDeadlockDetected, ErrorCodeDB},
		{"starting up", pgErrCannotConnectNow, ErrorCodeUnavailable},
		{"anything else", "42P01", ErrorCodeDB},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DBErrorCode(pgErr(tc.state))
			if !ok {
				t.Fatal("pg error not recognized")
			}
			if got != tc.want {
				t.Fatalf("code = %v, want %v", got, tc.want)
			}
		})
	}

	if _, ok := DBErrorCode(stderrs.New("plain")); ok {
		t.Fatal("plain error recognized as pg error")
	}
}

func TestFromPostgres(t *testing.T) {
	t.Parallel()

	if FromPostgres(nil, "noop") != nil {
		t.Fatal("nil should pass through")
	}

	err := FromPostgres(pgErr(pgErrUniqueViolation), "insert quote")
	if !IsCode(err, ErrorCodeDuplicateKey) {
		t.Fatalf("code = %v", CodeOf(err))
	}
	if !IsDuplicateKey(err) {
		t.Fatal("pg cause lost during wrap")
	}

	err = FromPostgresf(stderrs.New("broken pipe"), "scan %s", "active_quotes")
	if !IsCode(err, ErrorCodeDB) {
		t.Fatalf("fallback code = %v", CodeOf(err))
	}
	if err.Error() != "scan active_quotes: broken pipe" {
		t.Fatalf("message = %q", err.Error())
	}
}
