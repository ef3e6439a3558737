package repositories

import "database/sql"

type scanner interface {
	Scan(dest ...interface{}) error
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	val := ns.String
	return &val
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
