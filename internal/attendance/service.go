// Package attendance appends per-class attendance events and derives
// percentage-present per offering and in aggregate.
package attendance

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"campus/internal/apperr"
	"campus/internal/metrics"
	"campus/internal/model"
	"campus/internal/queue"
)

// Ratio is a present/total pair. A zero total means the percentage is
// undefined, which callers must never collapse to 0%.
type Ratio struct {
	Present int `json:"present"`
	Total   int `json:"total"`
}

// Defined reports whether any attendance rows exist.
func (r Ratio) Defined() bool { return r.Total > 0 }

// Percent returns 100*present/total. Only meaningful when Defined.
func (r Ratio) Percent() float64 {
	if r.Total == 0 {
		return 0
	}
	return 100 * float64(r.Present) / float64(r.Total)
}

// OfferingAttendance is a per-course slice of a student's attendance.
type OfferingAttendance struct {
	OfferingID int64  `json:"offering_id"`
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	Ratio
}

// Aggregate is the per-course breakdown plus the weighted overall figure.
// Overall weights by class count, not by averaging course percentages, so
// a course with two classes cannot skew the total.
type Aggregate struct {
	Courses []OfferingAttendance `json:"courses"`
	Overall Ratio                `json:"overall"`
}

// ThresholdEvent is published when a student's percentage lands below the
// configured floor after an update. The worker applies the suppression
// window before notifying.
type ThresholdEvent struct {
	StudentID  string  `json:"student_id"`
	OfferingID int64   `json:"offering_id"`
	Percent    float64 `json:"percent"`
}

// Store is the persistence surface the service needs.
type Store interface {
	GetOfferingTerm(ctx context.Context, offeringID int64) (model.Offering, model.Term, error)
	UpsertBatch(ctx context.Context, offeringID int64, classDate time.Time, entries map[string]string) (int, error)
	Counts(ctx context.Context, studentID string, offeringID int64) (Ratio, error)
	CountsByStudent(ctx context.Context, studentID string) ([]OfferingAttendance, error)
}

// Publisher emits threshold events; a nil publisher disables them.
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

// Service is the attendance ledger.
type Service struct {
	store    Store
	events   Publisher
	floorPct float64
}

// NewService creates an attendance service. floorPct is the percentage
// below which threshold events fire (75 in the default policy).
func NewService(store Store, events Publisher, floorPct float64) *Service {
	return &Service{store: store, events: events, floorPct: floorPct}
}

// Mark upserts one record per entry for the class date and returns the
// number of rows written. Re-submitting the same date overwrites prior
// statuses rather than duplicating. Fails with invalid_date when the date
// is outside the offering's term.
func (s *Service) Mark(ctx context.Context, offeringID int64, classDate time.Time, entries map[string]string) (int, error) {
	if len(entries) == 0 {
		return 0, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "entries", "no entries")
	}
	for studentID, status := range entries {
		if status != model.AttendancePresent && status != model.AttendanceAbsent {
			return 0, apperr.E(apperr.Validation, apperr.CodeInvalidInput, studentID, "status must be present or absent")
		}
	}

	_, term, err := s.store.GetOfferingTerm(ctx, offeringID)
	if err != nil {
		return 0, err
	}
	day := classDate.Truncate(24 * time.Hour)
	if day.Before(term.StartDate) || day.After(term.EndDate) {
		return 0, apperr.E(apperr.Validation, apperr.CodeInvalidDate,
			classDate.Format("2006-01-02"), "class date outside term range")
	}

	count, err := s.store.UpsertBatch(ctx, offeringID, day, entries)
	if err != nil {
		return 0, err
	}
	metrics.AttendanceMarksTotal.Add(float64(count))

	s.emitThresholdEvents(ctx, offeringID, entries)
	return count, nil
}

// emitThresholdEvents checks every touched student against the floor and
// publishes an event per breach. Failures are logged, never surfaced: the
// attendance write already committed.
func (s *Service) emitThresholdEvents(ctx context.Context, offeringID int64, entries map[string]string) {
	if s.events == nil {
		return
	}
	for studentID := range entries {
		ratio, err := s.store.Counts(ctx, studentID, offeringID)
		if err != nil {
			log.Printf("attendance: counts for %s/%d failed: %v", studentID, offeringID, err)
			continue
		}
		if !ratio.Defined() || ratio.Percent() >= s.floorPct {
			continue
		}
		body, _ := json.Marshal(ThresholdEvent{
			StudentID:  studentID,
			OfferingID: offeringID,
			Percent:    ratio.Percent(),
		})
		if err := s.events.Publish(ctx, queue.Message{Type: queue.TypeAttendanceThreshold, Body: body}); err != nil {
			log.Printf("attendance: threshold event publish failed: %v", err)
		}
	}
}

// Percentage returns the present/total ratio for one (student, offering).
// The caller distinguishes "no records" via Ratio.Defined.
func (s *Service) Percentage(ctx context.Context, studentID string, offeringID int64) (Ratio, error) {
	if studentID == "" {
		return Ratio{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "student_id", "student id required")
	}
	return s.store.Counts(ctx, studentID, offeringID)
}

// AggregateFor returns per-offering percentages plus the overall figure
// weighted by class count.
func (s *Service) AggregateFor(ctx context.Context, studentID string) (Aggregate, error) {
	courses, err := s.store.CountsByStudent(ctx, studentID)
	if err != nil {
		return Aggregate{}, err
	}
	var agg Aggregate
	agg.Courses = courses
	for _, c := range courses {
		agg.Overall.Present += c.Present
		agg.Overall.Total += c.Total
	}
	return agg, nil
}

// Floor returns the configured threshold percentage.
func (s *Service) Floor() float64 { return s.floorPct }
