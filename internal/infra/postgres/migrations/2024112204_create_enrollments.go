package migrations

import (
	_ "embed"
)

//go:embed sql/0004_create_enrollments.sql
var createEnrollmentsSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createEnrollmentsSQL),
		execSQL(`DROP TABLE IF EXISTS enrollments`),
	)
}
