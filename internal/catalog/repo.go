package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"campus/internal/apperr"
	"campus/internal/model"
)

// Repository persists the course catalog in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertCourse writes a catalog entry; duplicate codes conflict.
func (r *Repository) InsertCourse(ctx context.Context, c model.Course) (model.Course, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO courses (course_id, course_name, credits, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (course_id) DO NOTHING
	`, c.CourseID, c.CourseName, c.Credits, c.Description)
	if err != nil {
		return model.Course{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Course{}, apperr.E(apperr.Conflict, apperr.CodeDuplicateCourse, c.CourseID, "course code already exists")
	}
	return c, nil
}

// ListCourses returns the full catalog ordered by code.
func (r *Repository) ListCourses(ctx context.Context) ([]model.Course, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT course_id, course_name, credits, description
		FROM courses ORDER BY course_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.CourseID, &c.CourseName, &c.Credits, &c.Description); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// InsertSession writes an academic-year row; names are unique.
func (r *Repository) InsertSession(ctx context.Context, s model.Session) (model.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO sessions (session_name, start_date, end_date)
		VALUES ($1, $2, $3)
		RETURNING session_id
	`, s.SessionName, s.StartDate, s.EndDate)
	if err := row.Scan(&s.SessionID); err != nil {
		if strings.Contains(err.Error(), "sessions_session_name_key") {
			return model.Session{}, apperr.E(apperr.Conflict, apperr.CodeDuplicateSession, s.SessionName, "session name already exists")
		}
		return model.Session{}, err
	}
	return s, nil
}

// GetSession returns one session by id.
func (r *Repository) GetSession(ctx context.Context, sessionID int64) (model.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT session_id, session_name, start_date, end_date
		FROM sessions WHERE session_id = $1
	`, sessionID)
	var s model.Session
	err := row.Scan(&s.SessionID, &s.SessionName, &s.StartDate, &s.EndDate)
	if errors.Is(err, sql.ErrNoRows) {
		return s, apperr.E(apperr.NotFound, apperr.CodeNotFound, strconv.FormatInt(sessionID, 10), "session not found")
	}
	return s, err
}

// InsertTerm writes a term under its session.
func (r *Repository) InsertTerm(ctx context.Context, t model.Term) (model.Term, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO terms (session_id, term_name, term_number, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING term_id
	`, t.SessionID, t.TermName, t.TermNumber, t.StartDate, t.EndDate)
	if err := row.Scan(&t.TermID); err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return model.Term{}, apperr.E(apperr.NotFound, apperr.CodeNotFound, strconv.FormatInt(t.SessionID, 10), "session not found")
		}
		return model.Term{}, err
	}
	return t, nil
}

// InsertOffering writes one taught section of a course.
func (r *Repository) InsertOffering(ctx context.Context, o model.Offering) (model.Offering, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO course_offerings (course_id, teacher_id, term_id, max_capacity)
		VALUES ($1, $2, $3, $4)
		RETURNING offering_id
	`, o.CourseID, o.TeacherID, o.TermID, o.MaxCapacity)
	if err := row.Scan(&o.OfferingID); err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return model.Offering{}, apperr.E(apperr.NotFound, apperr.CodeNotFound, o.CourseID, "course, teacher or term not found")
		}
		return model.Offering{}, err
	}
	return o, nil
}

// ListOfferings returns offerings joined with course and term names,
// optionally narrowed to one term.
func (r *Repository) ListOfferings(ctx context.Context, termID int64) ([]OfferingSummary, error) {
	query := `
		SELECT o.offering_id, o.course_id, o.teacher_id, o.term_id, o.max_capacity,
		       c.course_name, c.credits, t.term_name
		FROM course_offerings o
		JOIN courses c ON c.course_id = o.course_id
		JOIN terms t ON t.term_id = o.term_id`
	args := []any{}
	if termID != 0 {
		query += " WHERE o.term_id = $1"
		args = append(args, termID)
	}
	query += " ORDER BY o.course_id, o.offering_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []OfferingSummary
	for rows.Next() {
		var o OfferingSummary
		if err := rows.Scan(&o.OfferingID, &o.CourseID, &o.TeacherID, &o.TermID, &o.MaxCapacity,
			&o.CourseName, &o.Credits, &o.TermName); err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}
