package bloodbank

import "time"

var validGroups = map[string]bool{
	"A+": true, "A-": true,
	"B+": true, "B-": true,
	"AB+": true, "AB-": true,
	"O+": true, "O-": true,
}

// GroupStock is the current unit count for one blood group.
type GroupStock struct {
	Group     string    `json:"group"`
	Units     int       `json:"units"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Movement records one donation or issue against a group, kept as the
// bank's audit trail.
type Movement struct {
	Group string    `json:"group"`
	Units int       `json:"units"`
	Kind  string    `json:"kind"` // donation or issue
	Party string    `json:"party"`
	At    time.Time `json:"at"`
}
