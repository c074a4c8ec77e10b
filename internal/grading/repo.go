package grading

import (
	"context"
	"database/sql"
	"errors"

	"campus/internal/model"
)

// Repository persists CT marks and semester results in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// UpsertCT writes a CT score keyed by (offering, student, ct_number).
func (r *Repository) UpsertCT(ctx context.Context, ct model.CTResult) (model.CTResult, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO ct_results (offering_id, student_id, ct_number, marks_obtained, total_marks)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (offering_id, student_id, ct_number)
		DO UPDATE SET marks_obtained = EXCLUDED.marks_obtained, total_marks = EXCLUDED.total_marks
		RETURNING ct_id
	`, ct.OfferingID, ct.StudentID, ct.CTNumber, ct.MarksObtained, ct.TotalMarks)
	if err := row.Scan(&ct.CTID); err != nil {
		return model.CTResult{}, err
	}
	return ct, nil
}

// ListCT returns a student's CT rows for one offering, by ct_number.
func (r *Repository) ListCT(ctx context.Context, offeringID int64, studentID string) ([]model.CTResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ct_id, offering_id, student_id, ct_number, marks_obtained, total_marks
		FROM ct_results
		WHERE offering_id = $1 AND student_id = $2
		ORDER BY ct_number
	`, offeringID, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.CTResult
	for rows.Next() {
		var ct model.CTResult
		if err := rows.Scan(&ct.CTID, &ct.OfferingID, &ct.StudentID, &ct.CTNumber, &ct.MarksObtained, &ct.TotalMarks); err != nil {
			return nil, err
		}
		res = append(res, ct)
	}
	return res, rows.Err()
}

// GetResult returns the semester result for the pair, if one exists.
func (r *Repository) GetResult(ctx context.Context, offeringID int64, studentID string) (model.SemesterResult, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT result_id, offering_id, student_id, grade, grade_point, status, created_at
		FROM semester_results
		WHERE offering_id = $1 AND student_id = $2
	`, offeringID, studentID)
	var res model.SemesterResult
	err := row.Scan(&res.ResultID, &res.OfferingID, &res.StudentID, &res.Grade, &res.GradePoint, &res.Status, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SemesterResult{}, false, nil
	}
	if err != nil {
		return model.SemesterResult{}, false, err
	}
	return res, true, nil
}

// UpsertResult writes or overwrites the semester result for the pair.
// Finalizing twice with the same inputs leaves a single row.
func (r *Repository) UpsertResult(ctx context.Context, res model.SemesterResult) (model.SemesterResult, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO semester_results (offering_id, student_id, grade, grade_point, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (offering_id, student_id)
		DO UPDATE SET grade = EXCLUDED.grade, grade_point = EXCLUDED.grade_point, status = EXCLUDED.status
		RETURNING result_id, created_at
	`, res.OfferingID, res.StudentID, res.Grade, res.GradePoint, res.Status)
	if err := row.Scan(&res.ResultID, &res.CreatedAt); err != nil {
		return model.SemesterResult{}, err
	}
	return res, nil
}

// GPAParts sums grade_point*credits and credits over non-pending results.
// termID 0 spans all terms to date.
func (r *Repository) GPAParts(ctx context.Context, studentID string, termID int64) (points, credits float64, err error) {
	query := `
		SELECT COALESCE(SUM(sr.grade_point * c.credits), 0), COALESCE(SUM(c.credits), 0)
		FROM semester_results sr
		JOIN course_offerings o ON o.offering_id = sr.offering_id
		JOIN courses c ON c.course_id = o.course_id
		WHERE sr.student_id = $1 AND sr.status IN ('passed','failed')`
	args := []any{studentID}
	if termID != 0 {
		query += " AND o.term_id = $2"
		args = append(args, termID)
	}
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&points, &credits)
	return points, credits, err
}
