package notification

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"campus/internal/apperr"
	"campus/internal/model"
)

// Repository persists broadcasts and notifications in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListStudentsSnapshot resolves the recipient set in one statement, so the
// set comes from a single consistent snapshot of the students table. An
// empty filter matches all students, never none.
func (r *Repository) ListStudentsSnapshot(ctx context.Context, department, session string) ([]model.Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT student_id, department, session, current_semester, enrollment_date
		FROM students
		WHERE (NULLIF($1, '') IS NULL OR department = $1)
		  AND (NULLIF($2, '') IS NULL OR session = $2)
		ORDER BY student_id
	`, department, session)
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

// InsertBroadcast writes the write-once trigger record.
func (r *Repository) InsertBroadcast(ctx context.Context, b model.Broadcast) (model.Broadcast, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO broadcasts (teacher_id, title, message, department, session, term)
		VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), NULLIF($6,''))
		RETURNING broadcast_id, created_at
	`, b.TeacherID, b.Title, b.Message, b.Department, b.Session, b.Term)
	if err := row.Scan(&b.BroadcastID, &b.CreatedAt); err != nil {
		return model.Broadcast{}, err
	}
	return b, nil
}

// GetBroadcast returns one broadcast by id.
func (r *Repository) GetBroadcast(ctx context.Context, broadcastID int64) (model.Broadcast, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT broadcast_id, teacher_id, title, message,
		       COALESCE(department,''), COALESCE(session,''), COALESCE(term,''), created_at
		FROM broadcasts WHERE broadcast_id = $1
	`, broadcastID)
	var b model.Broadcast
	err := row.Scan(&b.BroadcastID, &b.TeacherID, &b.Title, &b.Message, &b.Department, &b.Session, &b.Term, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return b, apperr.E(apperr.NotFound, apperr.CodeNotFound, strconv.FormatInt(broadcastID, 10), "broadcast not found")
	}
	return b, err
}

// BulkInsert writes the pre-computed notification set in one transaction,
// idempotent on (user_id, event_key): rows already delivered by an earlier
// attempt are skipped, so a failed fan-out can be re-submitted safely.
// Returns the number of rows actually inserted.
func (r *Repository) BulkInsert(ctx context.Context, notifs []model.Notification, eventKey string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO notifications (user_id, title, message, type, sender, department, session, term, event_key)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), NULLIF($7,''), NULLIF($8,''), NULLIF($9,''))
		ON CONFLICT (user_id, event_key) WHERE event_key IS NOT NULL DO NOTHING
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, n := range notifs {
		res, err := stmt.ExecContext(ctx, n.UserID, n.Title, n.Message, n.Type, n.Sender,
			n.Department, n.Session, n.Term, eventKey)
		if err != nil {
			return 0, err
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// InsertOne writes a single notification; the optional eventKey dedupes
// repeats of the same event. Reports whether a row was actually written.
func (r *Repository) InsertOne(ctx context.Context, n model.Notification, eventKey string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, title, message, type, sender, department, session, term, event_key)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), NULLIF($7,''), NULLIF($8,''), NULLIF($9,''))
		ON CONFLICT (user_id, event_key) WHERE event_key IS NOT NULL DO NOTHING
	`, n.UserID, n.Title, n.Message, n.Type, n.Sender, n.Department, n.Session, n.Term, eventKey)
	if err != nil {
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// MarkRead flips is_read on one notification. Re-marking is a no-op, not
// an error.
func (r *Repository) MarkRead(ctx context.Context, notificationID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE id = $1
	`, notificationID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.E(apperr.NotFound, apperr.CodeNotFound, strconv.FormatInt(notificationID, 10), "notification not found")
	}
	return nil
}

// MarkAllRead flips every unread notification for the user and returns the
// count.
func (r *Repository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE
	`, userID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// List returns a user's notifications, newest first.
func (r *Repository) List(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	query := `
		SELECT id, user_id, title, message, type, sender,
		       COALESCE(department,''), COALESCE(session,''), COALESCE(term,''), is_read, created_at
		FROM notifications
		WHERE user_id = $1`
	if unreadOnly {
		query += " AND is_read = FALSE"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Sender,
			&n.Department, &n.Session, &n.Term, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

// CountUnread returns the user's unread notification count.
func (r *Repository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE
	`, userID).Scan(&n)
	return n, err
}
