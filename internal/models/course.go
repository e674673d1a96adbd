package models

import "time"

// Course is a monthly-priced offering taught by a teacher at a level.
type Course struct {
	ID          string     `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description,omitempty"`
	LevelID     string     `db:"level_id" json:"level_id"`
	TeacherID   *string    `db:"teacher_id" json:"teacher_id,omitempty"`
	Capacity    int        `db:"capacity" json:"capacity"`
	StartDate   *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
	Price       float64    `db:"price" json:"price"`
	Active      bool       `db:"is_active" json:"is_active"`
}

// CourseDetail enriches Course with level and teacher display names.
type CourseDetail struct {
	Course
	LevelName   string  `db:"level_name" json:"level_name"`
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
	Enrolled    int     `db:"enrolled" json:"enrolled"`
}

// CourseFilter provides filters for listing courses.
type CourseFilter struct {
	LevelID   string
	TeacherID string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
