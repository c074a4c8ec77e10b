// Package dashboard composes read models for the student and teacher
// landing pages. It adds no rules of its own: every figure comes from
// the owning service.
package dashboard

import (
	"context"

	"campus/internal/attendance"
	"campus/internal/enrollment"
	"campus/internal/grading"
	"campus/internal/model"
)

// Enrollments is the slice of the enrollment service the facade reads.
type Enrollments interface {
	ListEnrollments(ctx context.Context, studentID string, f enrollment.Filter) ([]model.Enrollment, error)
	Roster(ctx context.Context, offeringID int64) ([]model.Registration, error)
}

// Attendance is the slice of the attendance service the facade reads.
type Attendance interface {
	AggregateFor(ctx context.Context, studentID string) (attendance.Aggregate, error)
	Percentage(ctx context.Context, studentID string, offeringID int64) (attendance.Ratio, error)
}

// Grades is the slice of the grading service the facade reads.
type Grades interface {
	CumulativeGPA(ctx context.Context, studentID string) (grading.GPA, error)
	CTSummaryFor(ctx context.Context, offeringID int64, studentID string) (grading.CTSummary, error)
}

// Notifications is the slice of the notification service the facade reads.
type Notifications interface {
	CountUnread(ctx context.Context, userID string) (int, error)
}

// Service assembles dashboard views.
type Service struct {
	enrollments   Enrollments
	attendance    Attendance
	grades        Grades
	notifications Notifications
}

// NewService creates the facade over the four domain services.
func NewService(e Enrollments, a Attendance, g Grades, n Notifications) *Service {
	return &Service{enrollments: e, attendance: a, grades: g, notifications: n}
}

// CourseRow is one active enrollment with its derived figures. Nil
// percentages mean no underlying rows exist yet, which is distinct
// from a recorded zero.
type CourseRow struct {
	OfferingID    int64    `json:"offering_id"`
	CourseID      string   `json:"course_id"`
	CourseName    string   `json:"course_name"`
	Credits       int      `json:"credits"`
	TermName      string   `json:"term_name"`
	AttendancePct *float64 `json:"attendance_pct"`
	CTPct         *float64 `json:"ct_pct"`
}

// StudentSummary is the student landing view.
type StudentSummary struct {
	StudentID     string      `json:"student_id"`
	ActiveCourses int         `json:"active_courses"`
	Courses       []CourseRow `json:"courses"`
	AttendancePct *float64    `json:"attendance_pct"`
	GPA           *float64    `json:"gpa"`
	UnreadCount   int         `json:"unread_count"`
}

// StudentSummary builds the student view: active enrollments with
// per-course attendance and CT figures, the weighted overall attendance,
// cumulative GPA and the unread notification count.
func (s *Service) StudentSummary(ctx context.Context, studentID string) (StudentSummary, error) {
	enrolled, err := s.enrollments.ListEnrollments(ctx, studentID, enrollment.Filter{Status: model.RegStatusActive})
	if err != nil {
		return StudentSummary{}, err
	}
	agg, err := s.attendance.AggregateFor(ctx, studentID)
	if err != nil {
		return StudentSummary{}, err
	}
	byOffering := make(map[int64]attendance.Ratio, len(agg.Courses))
	for _, c := range agg.Courses {
		byOffering[c.OfferingID] = c.Ratio
	}

	out := StudentSummary{StudentID: studentID, ActiveCourses: len(enrolled)}
	for _, e := range enrolled {
		row := CourseRow{
			OfferingID: e.OfferingID,
			CourseID:   e.CourseID,
			CourseName: e.CourseName,
			Credits:    e.Credits,
			TermName:   e.TermName,
		}
		if ratio, ok := byOffering[e.OfferingID]; ok && ratio.Defined() {
			row.AttendancePct = ptr(ratio.Percent())
		}
		ct, err := s.grades.CTSummaryFor(ctx, e.OfferingID, studentID)
		if err != nil {
			return StudentSummary{}, err
		}
		if ct.Defined() {
			row.CTPct = ptr(ct.Percent())
		}
		out.Courses = append(out.Courses, row)
	}

	if agg.Overall.Defined() {
		out.AttendancePct = ptr(agg.Overall.Percent())
	}
	gpa, err := s.grades.CumulativeGPA(ctx, studentID)
	if err != nil {
		return StudentSummary{}, err
	}
	if gpa.Defined() {
		out.GPA = ptr(gpa.Value())
	}
	out.UnreadCount, err = s.notifications.CountUnread(ctx, studentID)
	if err != nil {
		return StudentSummary{}, err
	}
	return out, nil
}

// RosterRow is one enrolled student in a teacher's offering view.
type RosterRow struct {
	StudentID     string   `json:"student_id"`
	AttendancePct *float64 `json:"attendance_pct"`
	CTObtained    float64  `json:"ct_obtained"`
	CTPossible    float64  `json:"ct_possible"`
}

// TeacherRoster lists the active registrations for an offering with each
// student's attendance percentage and CT totals.
func (s *Service) TeacherRoster(ctx context.Context, offeringID int64) ([]RosterRow, error) {
	regs, err := s.enrollments.Roster(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	rows := make([]RosterRow, 0, len(regs))
	for _, reg := range regs {
		row := RosterRow{StudentID: reg.StudentID}
		ratio, err := s.attendance.Percentage(ctx, reg.StudentID, offeringID)
		if err != nil {
			return nil, err
		}
		if ratio.Defined() {
			row.AttendancePct = ptr(ratio.Percent())
		}
		ct, err := s.grades.CTSummaryFor(ctx, offeringID, reg.StudentID)
		if err != nil {
			return nil, err
		}
		row.CTObtained = ct.TotalObtained
		row.CTPossible = ct.TotalPossible
		rows = append(rows, row)
	}
	return rows, nil
}

func ptr(f float64) *float64 { return &f }
