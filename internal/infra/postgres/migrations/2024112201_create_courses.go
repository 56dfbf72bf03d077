package migrations

import (
	_ "embed"
)

//go:embed sql/0001_create_courses.sql
var createCoursesSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createCoursesSQL),
		execSQL(`DROP TABLE IF EXISTS courses`),
	)
}
