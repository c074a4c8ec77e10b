package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"campus/internal/apperr"
	"campus/internal/model"
)

// Repository persists course registrations in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetOfferingTerm loads an offering together with its term.
func (r *Repository) GetOfferingTerm(ctx context.Context, offeringID int64) (model.Offering, model.Term, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT o.offering_id, o.course_id, o.teacher_id, o.term_id, o.max_capacity,
		       t.term_id, t.session_id, t.term_name, t.term_number, t.start_date, t.end_date
		FROM course_offerings o
		JOIN terms t ON t.term_id = o.term_id
		WHERE o.offering_id = $1
	`, offeringID)
	var o model.Offering
	var t model.Term
	err := row.Scan(&o.OfferingID, &o.CourseID, &o.TeacherID, &o.TermID, &o.MaxCapacity,
		&t.TermID, &t.SessionID, &t.TermName, &t.TermNumber, &t.StartDate, &t.EndDate)
	if errors.Is(err, sql.ErrNoRows) {
		return o, t, apperr.E(apperr.NotFound, apperr.CodeNotFound, strconv.FormatInt(offeringID, 10), "offering not found")
	}
	return o, t, err
}

// CountActive counts active registrations for an offering.
func (r *Repository) CountActive(ctx context.Context, offeringID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM course_registrations
		WHERE offering_id = $1 AND status = 'active'
	`, offeringID).Scan(&n)
	return n, err
}

// HasLive reports whether a non-dropped registration exists for the pair.
func (r *Repository) HasLive(ctx context.Context, studentID string, offeringID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM course_registrations
			WHERE student_id = $1 AND offering_id = $2 AND status <> 'dropped'
		)
	`, studentID, offeringID).Scan(&exists)
	return exists, err
}

// Insert writes an active registration, re-checking capacity under a row
// lock so concurrent registrations cannot oversubscribe the offering.
func (r *Repository) Insert(ctx context.Context, reg model.Registration) (model.Registration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Registration{}, err
	}
	defer tx.Rollback()

	var maxCapacity int
	if err := tx.QueryRowContext(ctx, `
		SELECT max_capacity FROM course_offerings WHERE offering_id = $1 FOR UPDATE
	`, reg.OfferingID).Scan(&maxCapacity); err != nil {
		return model.Registration{}, err
	}
	var active int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM course_registrations
		WHERE offering_id = $1 AND status = 'active'
	`, reg.OfferingID).Scan(&active); err != nil {
		return model.Registration{}, err
	}
	if active >= maxCapacity {
		return model.Registration{}, apperr.E(apperr.Conflict, apperr.CodeCapacityExceeded,
			strconv.FormatInt(reg.OfferingID, 10), "offering is full")
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO course_registrations (student_id, offering_id, status, registration_date)
		VALUES ($1, $2, $3, $4)
		RETURNING registration_id
	`, reg.StudentID, reg.OfferingID, reg.Status, reg.RegistrationDate)
	if err := row.Scan(&reg.RegistrationID); err != nil {
		if strings.Contains(err.Error(), "uq_registration_live") {
			return model.Registration{}, apperr.E(apperr.Conflict, apperr.CodeDuplicateRegistration,
				reg.StudentID, "already registered for this offering")
		}
		return model.Registration{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Registration{}, err
	}
	return reg, nil
}

// GetRegistration returns one registration by id.
func (r *Repository) GetRegistration(ctx context.Context, registrationID int64) (model.Registration, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT registration_id, student_id, offering_id, status, registration_date
		FROM course_registrations WHERE registration_id = $1
	`, registrationID)
	var reg model.Registration
	err := row.Scan(&reg.RegistrationID, &reg.StudentID, &reg.OfferingID, &reg.Status, &reg.RegistrationDate)
	if errors.Is(err, sql.ErrNoRows) {
		return reg, apperr.E(apperr.NotFound, apperr.CodeNotFound, strconv.FormatInt(registrationID, 10), "registration not found")
	}
	return reg, err
}

// ResultStatus returns the semester result status for the pair, if any.
func (r *Repository) ResultStatus(ctx context.Context, offeringID int64, studentID string) (string, bool, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `
		SELECT status FROM semester_results
		WHERE offering_id = $1 AND student_id = $2
	`, offeringID, studentID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}

// UpdateStatus flips a registration's status; rows are never deleted.
func (r *Repository) UpdateStatus(ctx context.Context, registrationID int64, status string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE course_registrations SET status = $2 WHERE registration_id = $1
	`, registrationID, status)
	return err
}

// ListByOffering returns the active registrations for one offering,
// ordered by student id.
func (r *Repository) ListByOffering(ctx context.Context, offeringID int64) ([]model.Registration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT registration_id, student_id, offering_id, status, registration_date
		FROM course_registrations
		WHERE offering_id = $1 AND status = 'active'
		ORDER BY student_id
	`, offeringID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.RegistrationID, &reg.StudentID, &reg.OfferingID, &reg.Status, &reg.RegistrationDate); err != nil {
			return nil, err
		}
		res = append(res, reg)
	}
	return res, rows.Err()
}

// List returns a student's registrations joined with course and term,
// ordered by term number then course code.
func (r *Repository) List(ctx context.Context, studentID string, f Filter) ([]model.Enrollment, error) {
	query := `
		SELECT r.registration_id, r.student_id, r.offering_id, r.status, r.registration_date,
		       c.course_id, c.course_name, c.credits,
		       t.term_id, t.term_name, t.term_number
		FROM course_registrations r
		JOIN course_offerings o ON o.offering_id = r.offering_id
		JOIN courses c ON c.course_id = o.course_id
		JOIN terms t ON t.term_id = o.term_id
		JOIN sessions sn ON sn.session_id = t.session_id
		WHERE r.student_id = $1`
	args := []any{studentID}
	if f.Session != "" {
		args = append(args, f.Session)
		query += " AND sn.session_name = $" + strconv.Itoa(len(args))
	}
	if f.TermID != 0 {
		args = append(args, f.TermID)
		query += " AND t.term_id = $" + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += " AND r.status = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY t.term_number ASC, c.course_id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.RegistrationID, &e.StudentID, &e.OfferingID, &e.Status, &e.RegistrationDate,
			&e.CourseID, &e.CourseName, &e.Credits,
			&e.TermID, &e.TermName, &e.TermNumber); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
