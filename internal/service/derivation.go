package service

import (
	"fmt"
	"math"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

// AttendanceThreshold is the minimum percentage considered safe.
const AttendanceThreshold = 75.0

// Percentage returns attended/total as a percentage, or 0 when no class was held.
func Percentage(attended, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(attended) / float64(total) * 100
}

// Status renders the bunk/attend recommendation. Counts are not clamped, so
// degenerate inputs may yield zero or negative numbers.
func Status(attended, total int) string {
	a := float64(attended)
	t := float64(total)
	if Percentage(attended, total) >= AttendanceThreshold {
		bunkable := int(math.Floor(a/3 - (t - a)))
		return fmt.Sprintf("You can bunk %d %s", bunkable, classNoun(bunkable))
	}
	needed := int(math.Floor((t-a)*3 - a))
	return fmt.Sprintf("Attend %d more %s to reach 75%%", needed, classNoun(needed))
}

// ColorClass reports ok at or above the threshold and low otherwise.
func ColorClass(attended, total int) models.AttendanceColor {
	if Percentage(attended, total) >= AttendanceThreshold {
		return models.AttendanceColorOK
	}
	return models.AttendanceColorLow
}

// Describe attaches derived fields to a subject at the given position.
func Describe(index int, subject models.Subject) models.SubjectView {
	return models.SubjectView{
		Subject:    subject,
		Index:      index,
		Percentage: Percentage(subject.Attended, subject.Total),
		Status:     Status(subject.Attended, subject.Total),
		Color:      ColorClass(subject.Attended, subject.Total),
	}
}

func classNoun(n int) string {
	if n == 1 {
		return "class"
	}
	return "classes"
}
