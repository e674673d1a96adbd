package models

// Level groups courses by difficulty and carries the score required to
// advance to the next one.
type Level struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Description  string `db:"description" json:"description,omitempty"`
	SortOrder    int    `db:"sort_order" json:"sort_order"`
	PassingScore int    `db:"passing_score" json:"passing_score"`
}

// LevelFilter provides filters for listing levels.
type LevelFilter struct {
	Search   string
	Page     int
	PageSize int
}
