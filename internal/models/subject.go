package models

// Subject is a tracked course with its attendance counters. The JSON layout is
// the persisted format and must not change.
type Subject struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Attended int    `json:"attended"`
	Total    int    `json:"total"`
}

// AttendanceColor classifies a subject against the attendance threshold.
type AttendanceColor string

const (
	AttendanceColorOK  AttendanceColor = "ok"
	AttendanceColorLow AttendanceColor = "low"
)

// Valid returns true when the color is a supported value.
func (c AttendanceColor) Valid() bool {
	switch c {
	case AttendanceColorOK, AttendanceColorLow:
		return true
	default:
		return false
	}
}

// SubjectView is a subject with its derived display fields.
type SubjectView struct {
	Subject
	Index      int             `json:"index"`
	Percentage float64         `json:"percentage"`
	Status     string          `json:"status"`
	Color      AttendanceColor `json:"color"`
}
