package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"campus/internal/apperr"
	"campus/internal/model"
)

// Repository persists attendance records in Postgres.
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

// UpsertBatch writes one row per entry keyed by (offering, student, date)
// in a single transaction. Re-marking a date overwrites the status in
// place; the row count never grows for a repeated date.
func (r *Repository) UpsertBatch(ctx context.Context, offeringID int64, classDate time.Time, entries map[string]string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO attendance (offering_id, student_id, class_date, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (offering_id, student_id, class_date)
		DO UPDATE SET status = EXCLUDED.status
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for studentID, status := range entries {
		if _, err := stmt.ExecContext(ctx, offeringID, studentID, classDate, status); err != nil {
			return 0, err
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// Counts returns present/total counts for one (student, offering).
func (r *Repository) Counts(ctx context.Context, studentID string, offeringID int64) (Ratio, error) {
	var ratio Ratio
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'present'), COUNT(*)
		FROM attendance
		WHERE student_id = $1 AND offering_id = $2
	`, studentID, offeringID).Scan(&ratio.Present, &ratio.Total)
	return ratio, err
}

// CountsByStudent returns per-offering counts across all of a student's
// attendance rows, joined with the course for display.
func (r *Repository) CountsByStudent(ctx context.Context, studentID string) ([]OfferingAttendance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.offering_id, c.course_id, c.course_name,
		       COUNT(*) FILTER (WHERE a.status = 'present'), COUNT(*)
		FROM attendance a
		JOIN course_offerings o ON o.offering_id = a.offering_id
		JOIN courses c ON c.course_id = o.course_id
		WHERE a.student_id = $1
		GROUP BY a.offering_id, c.course_id, c.course_name
		ORDER BY c.course_id
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []OfferingAttendance
	for rows.Next() {
		var oa OfferingAttendance
		if err := rows.Scan(&oa.OfferingID, &oa.CourseID, &oa.CourseName, &oa.Present, &oa.Total); err != nil {
			return nil, err
		}
		res = append(res, oa)
	}
	return res, rows.Err()
}
