package store

import "database/sql"

// migrate creates the schema if missing. All natural-key uniqueness the
// services rely on (attendance per class date, one CT per number, one
// result per offering, fan-out idempotency) lives here as constraints.
func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		user_id         TEXT PRIMARY KEY,
		user_type       TEXT NOT NULL CHECK (user_type IN ('student','teacher')),
		credential_hash TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS personal_info (
		user_id       TEXT PRIMARY KEY REFERENCES users(user_id),
		full_name     TEXT NOT NULL,
		email         TEXT,
		phone         TEXT,
		address       TEXT,
		date_of_birth DATE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS students (
		student_id       TEXT PRIMARY KEY REFERENCES users(user_id),
		department       TEXT NOT NULL DEFAULT '',
		session          TEXT NOT NULL DEFAULT '',
		current_semester INT  NOT NULL DEFAULT 1,
		enrollment_date  DATE NOT NULL DEFAULT CURRENT_DATE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS teachers (
		teacher_id  TEXT PRIMARY KEY REFERENCES users(user_id),
		department  TEXT NOT NULL DEFAULT '',
		designation TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS courses (
		course_id   TEXT PRIMARY KEY,
		course_name TEXT NOT NULL,
		credits     INT  NOT NULL CHECK (credits > 0),
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS sessions (
		session_id   BIGSERIAL PRIMARY KEY,
		session_name TEXT NOT NULL UNIQUE,
		start_date   DATE NOT NULL,
		end_date     DATE NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (start_date <= end_date)
	);

	CREATE TABLE IF NOT EXISTS terms (
		term_id     BIGSERIAL PRIMARY KEY,
		session_id  BIGINT NOT NULL REFERENCES sessions(session_id),
		term_name   TEXT NOT NULL,
		term_number INT  NOT NULL,
		start_date  DATE NOT NULL,
		end_date    DATE NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (start_date <= end_date)
	);

	CREATE TABLE IF NOT EXISTS course_offerings (
		offering_id  BIGSERIAL PRIMARY KEY,
		course_id    TEXT   NOT NULL REFERENCES courses(course_id),
		teacher_id   TEXT   NOT NULL REFERENCES teachers(teacher_id),
		term_id      BIGINT NOT NULL REFERENCES terms(term_id),
		max_capacity INT    NOT NULL CHECK (max_capacity > 0),
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS course_registrations (
		registration_id   BIGSERIAL PRIMARY KEY,
		student_id        TEXT   NOT NULL REFERENCES students(student_id),
		offering_id       BIGINT NOT NULL REFERENCES course_offerings(offering_id),
		status            TEXT   NOT NULL DEFAULT 'active'
			CHECK (status IN ('active','completed','dropped')),
		registration_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS uq_registration_live
		ON course_registrations(student_id, offering_id)
		WHERE status <> 'dropped';

	CREATE TABLE IF NOT EXISTS attendance (
		attendance_id BIGSERIAL PRIMARY KEY,
		offering_id   BIGINT NOT NULL REFERENCES course_offerings(offering_id),
		student_id    TEXT   NOT NULL REFERENCES students(student_id),
		class_date    DATE   NOT NULL,
		status        TEXT   NOT NULL CHECK (status IN ('present','absent')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (offering_id, student_id, class_date)
	);

	CREATE TABLE IF NOT EXISTS ct_results (
		ct_id          BIGSERIAL PRIMARY KEY,
		offering_id    BIGINT NOT NULL REFERENCES course_offerings(offering_id),
		student_id     TEXT   NOT NULL REFERENCES students(student_id),
		ct_number      INT    NOT NULL CHECK (ct_number >= 1),
		marks_obtained DOUBLE PRECISION NOT NULL,
		total_marks    DOUBLE PRECISION NOT NULL CHECK (total_marks > 0),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (offering_id, student_id, ct_number),
		CHECK (marks_obtained >= 0 AND marks_obtained <= total_marks)
	);

	CREATE TABLE IF NOT EXISTS semester_results (
		result_id   BIGSERIAL PRIMARY KEY,
		offering_id BIGINT NOT NULL REFERENCES course_offerings(offering_id),
		student_id  TEXT   NOT NULL REFERENCES students(student_id),
		grade       TEXT   NOT NULL,
		grade_point DOUBLE PRECISION NOT NULL,
		status      TEXT   NOT NULL DEFAULT 'pending'
			CHECK (status IN ('passed','failed','pending')),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (offering_id, student_id)
	);

	CREATE TABLE IF NOT EXISTS broadcasts (
		broadcast_id BIGSERIAL PRIMARY KEY,
		teacher_id   TEXT NOT NULL REFERENCES teachers(teacher_id),
		title        TEXT NOT NULL,
		message      TEXT NOT NULL,
		department   TEXT,
		session      TEXT,
		term         TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id         BIGSERIAL PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(user_id),
		title      TEXT NOT NULL,
		message    TEXT NOT NULL,
		type       TEXT NOT NULL
			CHECK (type IN ('grade','exam','announcement','attendance','broadcast')),
		sender     TEXT NOT NULL,
		department TEXT,
		session    TEXT,
		term       TEXT,
		event_key  TEXT,
		is_read    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS uq_notification_event
		ON notifications(user_id, event_key)
		WHERE event_key IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_notifications_user
		ON notifications(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_attendance_student
		ON attendance(student_id, offering_id);
	CREATE INDEX IF NOT EXISTS idx_registrations_offering
		ON course_registrations(offering_id);
	`
	_, err := db.Exec(schema)
	return err
}
