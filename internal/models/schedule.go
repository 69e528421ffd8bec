package models

// Weekdays lists the days a course may convene, in display order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// MeetingSlot is one weekly convening span of a course. Times are
// "HH:MM" 24-hour strings with TimeStart < TimeEnd. Immutable once
// attached to a course.
type MeetingSlot struct {
	Day       string `json:"day"`
	TimeStart string `json:"time_start"`
	TimeEnd   string `json:"time_end"`
	Location  string `json:"location"`
}

// ScheduleSlot is an occupied span in a student's weekly timetable.
type ScheduleSlot struct {
	CourseID   string `json:"course_id"`
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	TimeStart  string `json:"time_start"`
	TimeEnd    string `json:"time_end"`
	Location   string `json:"location"`
	Color      string `json:"color"`
}

// WeekSchedule maps a weekday to the ordered slots occupying it.
// Invariant: no two slots on the same day overlap in time.
type WeekSchedule map[string][]ScheduleSlot

// Clone returns a deep copy so drafts can be mutated safely.
func (w WeekSchedule) Clone() WeekSchedule {
	if w == nil {
		return WeekSchedule{}
	}
	out := make(WeekSchedule, len(w))
	for day, slots := range w {
		copied := make([]ScheduleSlot, len(slots))
		copy(copied, slots)
		out[day] = copied
	}
	return out
}
