package migrations

import (
	_ "embed"
)

//go:embed sql/0003_create_quiz_attempts.sql
var createQuizAttemptsSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createQuizAttemptsSQL),
		execSQL(`DROP TABLE IF EXISTS quiz_attempts`),
	)
}
