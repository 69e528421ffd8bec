package dto

import "fmt"

// GridCell is one occupied cell of the weekly timetable grid.
type GridCell struct {
	CourseID   string `json:"course_id"`
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	TimeStart  string `json:"time_start"`
	TimeEnd    string `json:"time_end"`
	Location   string `json:"location"`
	Color      string `json:"color"`
}

// GridRow is one hour row across the week; absent days are free.
type GridRow struct {
	Hour  int                  `json:"hour"`
	Label string               `json:"label"`
	Cells map[string]*GridCell `json:"cells"`
}

// ScheduleGridResponse is the hour-by-day projection of a student's
// occupied slots.
type ScheduleGridResponse struct {
	StudentID string    `json:"student_id"`
	Days      []string  `json:"days"`
	StartHour int       `json:"start_hour"`
	EndHour   int       `json:"end_hour"`
	Rows      []GridRow `json:"rows"`
}

// HourLabel formats an hour for the grid's time column.
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}
