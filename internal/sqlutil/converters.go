package sqlutil

import (
	"database/sql"
	"encoding/json"

	"github.com/sqlc-dev/pqtype"
)

// Helper functions for converting between Go types and sql.Null* types

// ToSqlString converts a Go string to sql.NullString, treating "" as NULL.
func ToSqlString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: val, Valid: true}
}

// FromSqlString converts sql.NullString to Go string with default.
func FromSqlString(val sql.NullString, defaultVal string) string {
	if !val.Valid {
		return defaultVal
	}
	return val.String
}

// ToJSONB marshals a value into a JSONB column, NULL for empty slices.
func ToJSONB(val any) (pqtype.NullRawMessage, error) {
	data, err := json.Marshal(val)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	if string(data) == "null" || string(data) == "[]" {
		return pqtype.NullRawMessage{Valid: false}, nil
	}
	return pqtype.NullRawMessage{RawMessage: data, Valid: true}, nil
}

// FromJSONB unmarshals a JSONB column into out; NULL leaves out untouched.
func FromJSONB(val pqtype.NullRawMessage, out any) error {
	if !val.Valid {
		return nil
	}
	return json.Unmarshal(val.RawMessage, out)
}
