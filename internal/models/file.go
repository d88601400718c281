package models

import "time"

// FileMeta describes one stored text file, as returned by storage listings.
type FileMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
