// Package catalog manages the static side of the record store: courses,
// sessions, terms and course offerings. Everything downstream (enrollment,
// attendance, grading) registers against rows created here.
package catalog

import (
	"context"

	"campus/internal/apperr"
	"campus/internal/model"
)

// OfferingSummary is an offering joined with its course and term for
// listings.
type OfferingSummary struct {
	model.Offering
	CourseName string `json:"course_name"`
	Credits    int    `json:"credits"`
	TermName   string `json:"term_name"`
}

// Store is the persistence surface the service needs.
type Store interface {
	InsertCourse(ctx context.Context, c model.Course) (model.Course, error)
	ListCourses(ctx context.Context) ([]model.Course, error)
	InsertSession(ctx context.Context, s model.Session) (model.Session, error)
	GetSession(ctx context.Context, sessionID int64) (model.Session, error)
	InsertTerm(ctx context.Context, t model.Term) (model.Term, error)
	InsertOffering(ctx context.Context, o model.Offering) (model.Offering, error)
	ListOfferings(ctx context.Context, termID int64) ([]OfferingSummary, error)
}

// Service validates and writes catalog entries.
type Service struct {
	store Store
}

// NewService creates a catalog service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateCourse adds a catalog entry. Course codes are caller-chosen and
// unique.
func (s *Service) CreateCourse(ctx context.Context, c model.Course) (model.Course, error) {
	if c.CourseID == "" {
		return model.Course{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "course_id", "course code required")
	}
	if c.CourseName == "" {
		return model.Course{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "course_name", "course name required")
	}
	if c.Credits <= 0 {
		return model.Course{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "credits", "credits must be positive")
	}
	return s.store.InsertCourse(ctx, c)
}

// ListCourses returns the catalog.
func (s *Service) ListCourses(ctx context.Context) ([]model.Course, error) {
	return s.store.ListCourses(ctx)
}

// CreateSession adds an academic year.
func (s *Service) CreateSession(ctx context.Context, sess model.Session) (model.Session, error) {
	if sess.SessionName == "" {
		return model.Session{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "session_name", "session name required")
	}
	if sess.EndDate.Before(sess.StartDate) {
		return model.Session{}, apperr.E(apperr.Validation, apperr.CodeInvalidDate, "end_date", "end date before start date")
	}
	return s.store.InsertSession(ctx, sess)
}

// CreateTerm adds a term under a session. The term's date range must lie
// inside its session's range.
func (s *Service) CreateTerm(ctx context.Context, t model.Term) (model.Term, error) {
	if t.TermName == "" {
		return model.Term{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "term_name", "term name required")
	}
	if t.TermNumber < 1 {
		return model.Term{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "term_number", "term number must be >= 1")
	}
	if t.EndDate.Before(t.StartDate) {
		return model.Term{}, apperr.E(apperr.Validation, apperr.CodeInvalidDate, "end_date", "end date before start date")
	}
	sess, err := s.store.GetSession(ctx, t.SessionID)
	if err != nil {
		return model.Term{}, err
	}
	if t.StartDate.Before(sess.StartDate) || t.EndDate.After(sess.EndDate) {
		return model.Term{}, apperr.E(apperr.Validation, apperr.CodeInvalidDate, "start_date",
			"term dates must lie within the session")
	}
	return s.store.InsertTerm(ctx, t)
}

// CreateOffering adds one taught section of a course in a term.
func (s *Service) CreateOffering(ctx context.Context, o model.Offering) (model.Offering, error) {
	if o.CourseID == "" {
		return model.Offering{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "course_id", "course id required")
	}
	if o.TeacherID == "" {
		return model.Offering{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "teacher_id", "teacher id required")
	}
	if o.TermID == 0 {
		return model.Offering{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "term_id", "term id required")
	}
	if o.MaxCapacity <= 0 {
		return model.Offering{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "max_capacity", "capacity must be positive")
	}
	return s.store.InsertOffering(ctx, o)
}

// ListOfferings returns offerings with course and term names; termID 0
// spans all terms.
func (s *Service) ListOfferings(ctx context.Context, termID int64) ([]OfferingSummary, error) {
	return s.store.ListOfferings(ctx, termID)
}
