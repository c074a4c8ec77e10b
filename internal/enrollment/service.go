// Package enrollment validates and records course registrations against
// offering capacity and term windows.
package enrollment

import (
	"context"
	"strconv"
	"time"

	"campus/internal/apperr"
	"campus/internal/metrics"
	"campus/internal/model"
)

// Filter narrows an enrollment listing. Zero values match all.
type Filter struct {
	Session string
	TermID  int64
	Status  string
}

// Store is the persistence surface the service needs.
type Store interface {
	GetOfferingTerm(ctx context.Context, offeringID int64) (model.Offering, model.Term, error)
	CountActive(ctx context.Context, offeringID int64) (int, error)
	HasLive(ctx context.Context, studentID string, offeringID int64) (bool, error)
	Insert(ctx context.Context, reg model.Registration) (model.Registration, error)
	GetRegistration(ctx context.Context, registrationID int64) (model.Registration, error)
	ResultStatus(ctx context.Context, offeringID int64, studentID string) (string, bool, error)
	UpdateStatus(ctx context.Context, registrationID int64, status string) error
	List(ctx context.Context, studentID string, f Filter) ([]model.Enrollment, error)
	ListByOffering(ctx context.Context, offeringID int64) ([]model.Registration, error)
}

// Service enforces the registration rules.
type Service struct {
	store Store
	lead  time.Duration // window opens this long before term start
	grace time.Duration // and closes this long after
	now   func() time.Time
}

// NewService creates an enrollment service. A nil clock means time.Now.
func NewService(store Store, lead, grace time.Duration, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, lead: lead, grace: grace, now: clock}
}

// Register creates an active registration for the student on the offering.
// Fails with term_closed outside the registration window, with
// duplicate_registration when a non-dropped registration already exists,
// and with capacity_exceeded when the offering is full.
func (s *Service) Register(ctx context.Context, studentID string, offeringID int64) (model.Registration, error) {
	if studentID == "" {
		return model.Registration{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "student_id", "student id required")
	}
	offering, term, err := s.store.GetOfferingTerm(ctx, offeringID)
	if err != nil {
		return model.Registration{}, err
	}

	now := s.now().UTC()
	opens := term.StartDate.Add(-s.lead)
	closes := term.StartDate.Add(s.grace)
	if now.Before(opens) || now.After(closes) {
		return model.Registration{}, apperr.E(apperr.Conflict, apperr.CodeTermClosed,
			strconv.FormatInt(term.TermID, 10), "registration window is closed for this term")
	}

	dup, err := s.store.HasLive(ctx, studentID, offeringID)
	if err != nil {
		return model.Registration{}, err
	}
	if dup {
		return model.Registration{}, apperr.E(apperr.Conflict, apperr.CodeDuplicateRegistration,
			studentID, "already registered for this offering")
	}

	active, err := s.store.CountActive(ctx, offeringID)
	if err != nil {
		return model.Registration{}, err
	}
	if active >= offering.MaxCapacity {
		return model.Registration{}, apperr.E(apperr.Conflict, apperr.CodeCapacityExceeded,
			strconv.FormatInt(offeringID, 10), "offering is full")
	}

	reg, err := s.store.Insert(ctx, model.Registration{
		StudentID:        studentID,
		OfferingID:       offeringID,
		Status:           model.RegStatusActive,
		RegistrationDate: now,
	})
	if err != nil {
		return model.Registration{}, err
	}
	metrics.RegistrationsTotal.Inc()
	return reg, nil
}

// Drop marks a registration dropped. The row is kept for audit. Fails with
// already_finalized once a non-pending semester result exists for the pair.
func (s *Service) Drop(ctx context.Context, registrationID int64) error {
	reg, err := s.store.GetRegistration(ctx, registrationID)
	if err != nil {
		return err
	}
	status, finalized, err := s.store.ResultStatus(ctx, reg.OfferingID, reg.StudentID)
	if err != nil {
		return err
	}
	if finalized && status != model.ResultPending {
		return apperr.E(apperr.Conflict, apperr.CodeAlreadyFinalized,
			strconv.FormatInt(registrationID, 10), "semester result already finalized")
	}
	return s.store.UpdateStatus(ctx, registrationID, model.RegStatusDropped)
}

// ListEnrollments returns the student's registrations joined with course
// and term data, ordered by term number then course code.
func (s *Service) ListEnrollments(ctx context.Context, studentID string, f Filter) ([]model.Enrollment, error) {
	return s.store.List(ctx, studentID, f)
}

// Roster returns the active registrations for one offering.
func (s *Service) Roster(ctx context.Context, offeringID int64) ([]model.Registration, error) {
	return s.store.ListByOffering(ctx, offeringID)
}
