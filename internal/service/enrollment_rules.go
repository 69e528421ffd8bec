package service

import (
	"strconv"
	"strings"

	"github.com/unidesk/registrar-api/internal/models"
)

// clockMinutes converts an "HH:MM" string to minutes since midnight.
// Malformed values return ok=false and are treated as non-overlapping
// by the conflict check.
func clockMinutes(clock string) (int, bool) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// clockHour extracts the hour component of an "HH:MM" string.
func clockHour(clock string) (int, bool) {
	minutes, ok := clockMinutes(clock)
	if !ok {
		return 0, false
	}
	return minutes / 60, true
}

// spansOverlap applies the closed-interval overlap rule: two spans
// conflict when candStart <= occEnd && candEnd >= occStart, so a
// course ending exactly when another begins still counts as a
// conflict. The dashboard UI depends on this boundary behaviour.
func spansOverlap(candStart, candEnd, occStart, occEnd string) bool {
	cs, ok := clockMinutes(candStart)
	if !ok {
		return false
	}
	ce, ok := clockMinutes(candEnd)
	if !ok {
		return false
	}
	os, ok := clockMinutes(occStart)
	if !ok {
		return false
	}
	oe, ok := clockMinutes(occEnd)
	if !ok {
		return false
	}
	return cs <= oe && ce >= os
}

// HasScheduleConflict reports whether any meeting of a candidate
// course overlaps an occupied slot on the same day of the student's
// schedule. Pure; O(meetings x slots-per-day).
func HasScheduleConflict(meetings []models.MeetingSlot, schedule models.WeekSchedule) bool {
	for _, meeting := range meetings {
		for _, slot := range schedule[meeting.Day] {
			if spansOverlap(meeting.TimeStart, meeting.TimeEnd, slot.TimeStart, slot.TimeEnd) {
				return true
			}
		}
	}
	return false
}

// MissingPrerequisites returns the prerequisite codes absent from the
// student's completed-course history. An empty result means the gate
// is satisfied. Pure, read-only.
func MissingPrerequisites(course *models.Course, student *models.Student) []string {
	if len(course.Prerequisites) == 0 {
		return nil
	}

	completed := make(map[string]struct{})
	for _, code := range student.CompletedCourses() {
		completed[code] = struct{}{}
	}

	var missing []string
	for _, prereq := range course.Prerequisites {
		if _, ok := completed[prereq]; !ok {
			missing = append(missing, prereq)
		}
	}
	return missing
}
