package person

import "database/sql"

// Accessor is the DB layer entrypoint for people and their slots.
type Accessor struct {
	db *sql.DB
}

func NewAccessor(db *sql.DB) *Accessor {
	return &Accessor{db: db}
}
