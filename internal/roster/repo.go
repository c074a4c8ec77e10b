package roster

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"campus/internal/apperr"
	"campus/internal/model"
)

// Repository persists users, students and teachers in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateStudent inserts the user, student and personal_info rows in one
// transaction. Duplicate user ids surface as a conflict.
func (r *Repository) CreateStudent(ctx context.Context, u model.User, s model.Student, p model.PersonalInfo) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertUser(ctx, tx, u); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO students (student_id, department, session, current_semester, enrollment_date)
		VALUES ($1, $2, $3, $4, $5)
	`, s.StudentID, s.Department, s.Session, s.CurrentSemester, s.EnrollmentDate); err != nil {
		return err
	}
	if err := insertPersonalInfo(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateTeacher inserts the user, teacher and personal_info rows in one
// transaction.
func (r *Repository) CreateTeacher(ctx context.Context, u model.User, t model.Teacher, p model.PersonalInfo) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertUser(ctx, tx, u); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO teachers (teacher_id, department, designation)
		VALUES ($1, $2, $3)
	`, t.TeacherID, t.Department, t.Designation); err != nil {
		return err
	}
	if err := insertPersonalInfo(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

func insertUser(ctx context.Context, tx *sql.Tx, u model.User) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO users (user_id, user_type, credential_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, u.UserID, u.UserType, u.CredentialHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.E(apperr.Conflict, apperr.CodeDuplicateUser, u.UserID, "user already exists")
	}
	return nil
}

func insertPersonalInfo(ctx context.Context, tx *sql.Tx, p model.PersonalInfo) error {
	if p.FullName == "" {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO personal_info (user_id, full_name, email, phone, address, date_of_birth)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), $6)
	`, p.UserID, p.FullName, p.Email, p.Phone, p.Address, p.DateOfBirth)
	return err
}

// GetUser returns a user by id.
func (r *Repository) GetUser(ctx context.Context, userID string) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, user_type, credential_hash, created_at
		FROM users WHERE user_id = $1
	`, userID)
	var u model.User
	if err := row.Scan(&u.UserID, &u.UserType, &u.CredentialHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, apperr.E(apperr.NotFound, apperr.CodeNotFound, userID, "user not found")
		}
		return model.User{}, err
	}
	return u, nil
}

// GetStudent returns a student by id.
func (r *Repository) GetStudent(ctx context.Context, studentID string) (model.Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT student_id, department, session, current_semester, enrollment_date
		FROM students WHERE student_id = $1
	`, studentID)
	var s model.Student
	if err := row.Scan(&s.StudentID, &s.Department, &s.Session, &s.CurrentSemester, &s.EnrollmentDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Student{}, apperr.E(apperr.NotFound, apperr.CodeNotFound, studentID, "student not found")
		}
		return model.Student{}, err
	}
	return s, nil
}

// UpdateStudent updates the mutable student fields.
func (r *Repository) UpdateStudent(ctx context.Context, s model.Student) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET department = $2, session = $3, current_semester = $4
		WHERE student_id = $1
	`, s.StudentID, s.Department, s.Session, s.CurrentSemester)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.E(apperr.NotFound, apperr.CodeNotFound, s.StudentID, "student not found")
	}
	return nil
}

// SearchStudents returns students matching the optional filters. Empty
// filters match all; a name filter matches against personal_info.
func (r *Repository) SearchStudents(ctx context.Context, department, session, name string) ([]model.Student, error) {
	query := `
		SELECT s.student_id, s.department, s.session, s.current_semester, s.enrollment_date
		FROM students s
		LEFT JOIN personal_info p ON p.user_id = s.student_id`
	args := []any{}
	clauses := []string{}
	if department != "" {
		args = append(args, department)
		clauses = append(clauses, "s.department = $"+itoa(len(args)))
	}
	if session != "" {
		args = append(args, session)
		clauses = append(clauses, "s.session = $"+itoa(len(args)))
	}
	if name != "" {
		args = append(args, "%"+name+"%")
		clauses = append(clauses, "p.full_name ILIKE $"+itoa(len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY s.student_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.StudentID, &s.Department, &s.Session, &s.CurrentSemester, &s.EnrollmentDate); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func itoa(i int) string { return strconv.Itoa(i) }
