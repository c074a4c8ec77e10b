// Package grading records continuous-assessment marks and semester
// results, and derives letter grades, term GPA and cumulative GPA.
package grading

import (
	"context"
	"fmt"
	"strconv"

	"campus/internal/apperr"
	"campus/internal/metrics"
	"campus/internal/model"
)

// CTSummary totals a student's CT rows for one offering.
type CTSummary struct {
	Results       []model.CTResult `json:"results"`
	TotalObtained float64          `json:"total_obtained"`
	TotalPossible float64          `json:"total_possible"`
}

// Defined reports whether any CT rows exist.
func (s CTSummary) Defined() bool { return s.TotalPossible > 0 }

// Percent is 100 * obtained / possible. Only meaningful when Defined.
func (s CTSummary) Percent() float64 {
	if s.TotalPossible == 0 {
		return 0
	}
	return 100 * s.TotalObtained / s.TotalPossible
}

// GPA is a grade-point sum over a credit sum. A zero credit sum means the
// GPA is undefined, never zero.
type GPA struct {
	Points  float64 `json:"points"`
	Credits float64 `json:"credits"`
}

// Defined reports whether any graded credits exist.
func (g GPA) Defined() bool { return g.Credits > 0 }

// Value is Σ(grade_point·credits)/Σcredits. Only meaningful when Defined.
func (g GPA) Value() float64 {
	if g.Credits == 0 {
		return 0
	}
	return g.Points / g.Credits
}

// FinalizeInput carries either raw marks or an explicit override grade.
type FinalizeInput struct {
	Marks         *float64
	OverrideGrade *string
}

// Store is the persistence surface the service needs.
type Store interface {
	UpsertCT(ctx context.Context, ct model.CTResult) (model.CTResult, error)
	ListCT(ctx context.Context, offeringID int64, studentID string) ([]model.CTResult, error)
	GetResult(ctx context.Context, offeringID int64, studentID string) (model.SemesterResult, bool, error)
	UpsertResult(ctx context.Context, res model.SemesterResult) (model.SemesterResult, error)
	GPAParts(ctx context.Context, studentID string, termID int64) (points, credits float64, err error)
}

// Notifier posts grade notifications; nil disables them. prevGrade is
// empty when no result existed before.
type Notifier interface {
	NotifyGrade(ctx context.Context, studentID string, offeringID int64, prevGrade, grade string) error
}

// Service is the grading engine.
type Service struct {
	store    Store
	scale    Scale
	notifier Notifier
}

// NewService creates a grading service with the given scale.
func NewService(store Store, scale Scale, notifier Notifier) *Service {
	return &Service{store: store, scale: scale, notifier: notifier}
}

// RecordCT upserts one CT score. Fails with out_of_range when marks fall
// outside [0, total].
func (s *Service) RecordCT(ctx context.Context, ct model.CTResult) (model.CTResult, error) {
	if ct.CTNumber < 1 {
		return model.CTResult{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "ct_number", "ct number must be >= 1")
	}
	if ct.TotalMarks <= 0 {
		return model.CTResult{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "total_marks", "total marks must be positive")
	}
	if ct.MarksObtained < 0 || ct.MarksObtained > ct.TotalMarks {
		return model.CTResult{}, apperr.E(apperr.Validation, apperr.CodeOutOfRange, "marks_obtained",
			fmt.Sprintf("marks must be in [0, %g]", ct.TotalMarks))
	}
	return s.store.UpsertCT(ctx, ct)
}

// CTSummaryFor returns per-CT marks plus totals and percentage.
func (s *Service) CTSummaryFor(ctx context.Context, offeringID int64, studentID string) (CTSummary, error) {
	results, err := s.store.ListCT(ctx, offeringID, studentID)
	if err != nil {
		return CTSummary{}, err
	}
	sum := CTSummary{Results: results}
	for _, ct := range results {
		sum.TotalObtained += ct.MarksObtained
		sum.TotalPossible += ct.TotalMarks
	}
	return sum, nil
}

// LetterGrade maps marks to a (grade, grade_point) pair using the
// configured scale.
func (s *Service) LetterGrade(marks float64) (string, float64, error) {
	grade, points, ok := s.scale.Grade(marks)
	if !ok {
		return "", 0, apperr.E(apperr.Validation, apperr.CodeOutOfRange, "marks", "marks must be in [0, 100]")
	}
	return grade, points, nil
}

// Finalize computes and stores the semester result. The grade comes from
// the scale unless an override grade is supplied. Recomputation is
// idempotent: the row is overwritten in place and the student is notified
// only when the stored grade actually changed.
func (s *Service) Finalize(ctx context.Context, offeringID int64, studentID string, in FinalizeInput) (model.SemesterResult, error) {
	if studentID == "" {
		return model.SemesterResult{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "student_id", "student id required")
	}

	var grade string
	var points float64
	switch {
	case in.OverrideGrade != nil:
		var ok bool
		grade = *in.OverrideGrade
		points, ok = s.scale.Lookup(grade)
		if !ok {
			return model.SemesterResult{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "grade",
				"unknown grade "+grade)
		}
	case in.Marks != nil:
		var err error
		grade, points, err = s.LetterGrade(*in.Marks)
		if err != nil {
			return model.SemesterResult{}, err
		}
	default:
		return model.SemesterResult{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "marks",
			"marks or override grade required")
	}

	status := model.ResultPassed
	if grade == s.scale.FailingGrade() {
		status = model.ResultFailed
	}

	prev, existed, err := s.store.GetResult(ctx, offeringID, studentID)
	if err != nil {
		return model.SemesterResult{}, err
	}

	res, err := s.store.UpsertResult(ctx, model.SemesterResult{
		OfferingID: offeringID,
		StudentID:  studentID,
		Grade:      grade,
		GradePoint: points,
		Status:     status,
	})
	if err != nil {
		return model.SemesterResult{}, err
	}
	metrics.ResultsFinalizedTotal.Inc()

	if s.notifier != nil && (!existed || prev.Grade != grade) {
		if err := s.notifier.NotifyGrade(ctx, studentID, offeringID, prev.Grade, grade); err != nil {
			return model.SemesterResult{}, apperr.Wrap(apperr.Consistency, apperr.CodePartialFanout,
				strconv.FormatInt(offeringID, 10), "result stored but notification failed", err)
		}
	}
	return res, nil
}

// TermGPA scopes the grade-point average to one term's offerings.
func (s *Service) TermGPA(ctx context.Context, studentID string, termID int64) (GPA, error) {
	points, credits, err := s.store.GPAParts(ctx, studentID, termID)
	if err != nil {
		return GPA{}, err
	}
	return GPA{Points: points, Credits: credits}, nil
}

// CumulativeGPA spans all terms to date.
func (s *Service) CumulativeGPA(ctx context.Context, studentID string) (GPA, error) {
	return s.TermGPA(ctx, studentID, 0)
}
