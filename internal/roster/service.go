// Package roster manages the user, student and teacher records behind
// enrollment, grading and notification fan-out.
package roster

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"campus/internal/apperr"
	"campus/internal/model"
)

// Store is the persistence surface the service needs.
type Store interface {
	CreateStudent(ctx context.Context, u model.User, s model.Student, p model.PersonalInfo) error
	CreateTeacher(ctx context.Context, u model.User, t model.Teacher, p model.PersonalInfo) error
	GetUser(ctx context.Context, userID string) (model.User, error)
	GetStudent(ctx context.Context, studentID string) (model.Student, error)
	UpdateStudent(ctx context.Context, s model.Student) error
	SearchStudents(ctx context.Context, department, session, name string) ([]model.Student, error)
}

// Service creates and queries roster records. User ids are caller-supplied
// (institutional ids) or store-generated uuids, never client-side random
// numbers.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a roster service. A nil clock means time.Now.
func NewService(store Store, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, now: clock}
}

// NewStudentInput is the payload for creating a student.
type NewStudentInput struct {
	UserID          string // optional, generated when empty
	Password        string
	FullName        string
	Email           string
	Department      string
	Session         string
	CurrentSemester int
}

// CreateStudent registers a student account with its user row.
func (s *Service) CreateStudent(ctx context.Context, in NewStudentInput) (model.Student, error) {
	if in.Password == "" {
		return model.Student{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "password", "password required")
	}
	if in.CurrentSemester <= 0 {
		in.CurrentSemester = 1
	}
	id := in.UserID
	if id == "" {
		id = uuid.NewString()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.Student{}, err
	}

	now := s.now().UTC()
	stu := model.Student{
		StudentID:       id,
		Department:      in.Department,
		Session:         in.Session,
		CurrentSemester: in.CurrentSemester,
		EnrollmentDate:  now,
	}
	err = s.store.CreateStudent(ctx,
		model.User{UserID: id, UserType: model.UserTypeStudent, CredentialHash: string(hash), CreatedAt: now},
		stu,
		model.PersonalInfo{UserID: id, FullName: in.FullName, Email: in.Email},
	)
	if err != nil {
		return model.Student{}, err
	}
	return stu, nil
}

// NewTeacherInput is the payload for creating a teacher.
type NewTeacherInput struct {
	UserID      string
	Password    string
	FullName    string
	Email       string
	Department  string
	Designation string
}

// CreateTeacher registers a teacher account with its user row.
func (s *Service) CreateTeacher(ctx context.Context, in NewTeacherInput) (model.Teacher, error) {
	if in.Password == "" {
		return model.Teacher{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "password", "password required")
	}
	id := in.UserID
	if id == "" {
		id = uuid.NewString()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.Teacher{}, err
	}

	tch := model.Teacher{TeacherID: id, Department: in.Department, Designation: in.Designation}
	err = s.store.CreateTeacher(ctx,
		model.User{UserID: id, UserType: model.UserTypeTeacher, CredentialHash: string(hash), CreatedAt: s.now().UTC()},
		tch,
		model.PersonalInfo{UserID: id, FullName: in.FullName, Email: in.Email},
	)
	if err != nil {
		return model.Teacher{}, err
	}
	return tch, nil
}

// Authenticate verifies credentials and returns the (user_id, user_type)
// pair consumed by token issuance.
func (s *Service) Authenticate(ctx context.Context, userID, password string) (model.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return model.User{}, apperr.E(apperr.Validation, apperr.CodeBadCredentials, "user_id", "bad credentials")
		}
		return model.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.CredentialHash), []byte(password)) != nil {
		return model.User{}, apperr.E(apperr.Validation, apperr.CodeBadCredentials, "password", "bad credentials")
	}
	return u, nil
}

// GetStudent fetches a single student.
func (s *Service) GetStudent(ctx context.Context, studentID string) (model.Student, error) {
	return s.store.GetStudent(ctx, studentID)
}

// UpdateStudent applies edits to department, session or semester.
func (s *Service) UpdateStudent(ctx context.Context, stu model.Student) error {
	if stu.CurrentSemester < 1 {
		return apperr.E(apperr.Validation, apperr.CodeInvalidInput, "current_semester", "must be >= 1")
	}
	return s.store.UpdateStudent(ctx, stu)
}

// SearchStudents lists students matching the optional filters.
func (s *Service) SearchStudents(ctx context.Context, department, session, name string) ([]model.Student, error) {
	return s.store.SearchStudents(ctx, department, session, name)
}
