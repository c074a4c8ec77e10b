// Package model holds the entities of the academic record store.
package model

import "time"

// User types.
const (
	UserTypeStudent = "student"
	UserTypeTeacher = "teacher"
)

// Registration statuses.
const (
	RegStatusActive    = "active"
	RegStatusCompleted = "completed"
	RegStatusDropped   = "dropped"
)

// Attendance statuses.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
)

// Semester result statuses.
const (
	ResultPassed  = "passed"
	ResultFailed  = "failed"
	ResultPending = "pending"
)

// Notification types.
const (
	NotifGrade        = "grade"
	NotifExam         = "exam"
	NotifAnnouncement = "announcement"
	NotifAttendance   = "attendance"
	NotifBroadcast    = "broadcast"
)

// User is the identity row; students and teachers extend it 1:1.
type User struct {
	UserID         string    `json:"user_id"`
	UserType       string    `json:"user_type"`
	CredentialHash string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Student extends a User of type student.
type Student struct {
	StudentID       string    `json:"student_id"`
	Department      string    `json:"department"`
	Session         string    `json:"session"` // enrollment cohort, e.g. "2024-25"
	CurrentSemester int       `json:"current_semester"`
	EnrollmentDate  time.Time `json:"enrollment_date"`
}

// Teacher extends a User of type teacher.
type Teacher struct {
	TeacherID   string `json:"teacher_id"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
}

// PersonalInfo holds contact details for any user.
type PersonalInfo struct {
	UserID      string     `json:"user_id"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Address     string     `json:"address,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

// Course is a static catalog entry.
type Course struct {
	CourseID    string `json:"course_id"` // unique code, e.g. CSE101
	CourseName  string `json:"course_name"`
	Credits     int    `json:"credits"`
	Description string `json:"description,omitempty"`
}

// Session is an academic year containing terms.
type Session struct {
	SessionID   int64     `json:"session_id"`
	SessionName string    `json:"session_name"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

// Term is a sub-period of a session; its dates lie inside the session's.
type Term struct {
	TermID     int64     `json:"term_id"`
	SessionID  int64     `json:"session_id"`
	TermName   string    `json:"term_name"`
	TermNumber int       `json:"term_number"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
}

// Offering is one taught section of a course in one term.
type Offering struct {
	OfferingID  int64  `json:"offering_id"`
	CourseID    string `json:"course_id"`
	TeacherID   string `json:"teacher_id"`
	TermID      int64  `json:"term_id"`
	MaxCapacity int    `json:"max_capacity"`
}

// Registration ties a student to an offering.
type Registration struct {
	RegistrationID   int64     `json:"registration_id"`
	StudentID        string    `json:"student_id"`
	OfferingID       int64     `json:"offering_id"`
	Status           string    `json:"status"`
	RegistrationDate time.Time `json:"registration_date"`
}

// Enrollment is a registration joined with its course and offering,
// as returned by enrollment listings.
type Enrollment struct {
	Registration
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	Credits    int    `json:"credits"`
	TermID     int64  `json:"term_id"`
	TermName   string `json:"term_name"`
	TermNumber int    `json:"term_number"`
}

// AttendanceRecord is one student's status for one class date.
// At most one row exists per (offering, student, class_date).
type AttendanceRecord struct {
	AttendanceID int64     `json:"attendance_id"`
	OfferingID   int64     `json:"offering_id"`
	StudentID    string    `json:"student_id"`
	ClassDate    time.Time `json:"class_date"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// CTResult is one continuous-assessment score.
type CTResult struct {
	CTID          int64   `json:"ct_id"`
	OfferingID    int64   `json:"offering_id"`
	StudentID     string  `json:"student_id"`
	CTNumber      int     `json:"ct_number"`
	MarksObtained float64 `json:"marks_obtained"`
	TotalMarks    float64 `json:"total_marks"`
}

// SemesterResult is the derived final grade for one offering.
type SemesterResult struct {
	ResultID   int64     `json:"result_id"`
	OfferingID int64     `json:"offering_id"`
	StudentID  string    `json:"student_id"`
	Grade      string    `json:"grade"`
	GradePoint float64   `json:"grade_point"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Broadcast is a write-once trigger that fans out into notifications.
type Broadcast struct {
	BroadcastID int64     `json:"broadcast_id"`
	TeacherID   string    `json:"teacher_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Department  string    `json:"department,omitempty"`
	Session     string    `json:"session,omitempty"`
	Term        string    `json:"term,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Notification is one per-recipient delivery record. Created only by the
// fan-out service, mutated only by mark-read.
type Notification struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	Sender     string    `json:"sender"`
	Department string    `json:"department,omitempty"` // filter echo, audit only
	Session    string    `json:"session,omitempty"`
	Term       string    `json:"term,omitempty"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}
