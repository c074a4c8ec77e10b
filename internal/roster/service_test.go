package roster

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"campus/internal/apperr"
	"campus/internal/model"
)

type fakeStore struct {
	users    map[string]model.User
	students map[string]model.Student
	teachers map[string]model.Teacher
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]model.User{},
		students: map[string]model.Student{},
		teachers: map[string]model.Teacher{},
	}
}

func (f *fakeStore) CreateStudent(_ context.Context, u model.User, s model.Student, _ model.PersonalInfo) error {
	if _, ok := f.users[u.UserID]; ok {
		return apperr.E(apperr.Conflict, apperr.CodeDuplicateUser, u.UserID, "user already exists")
	}
	f.users[u.UserID] = u
	f.students[s.StudentID] = s
	return nil
}

func (f *fakeStore) CreateTeacher(_ context.Context, u model.User, t model.Teacher, _ model.PersonalInfo) error {
	if _, ok := f.users[u.UserID]; ok {
		return apperr.E(apperr.Conflict, apperr.CodeDuplicateUser, u.UserID, "user already exists")
	}
	f.users[u.UserID] = u
	f.teachers[t.TeacherID] = t
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, userID string) (model.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return model.User{}, apperr.E(apperr.NotFound, apperr.CodeNotFound, userID, "user not found")
	}
	return u, nil
}

func (f *fakeStore) GetStudent(_ context.Context, studentID string) (model.Student, error) {
	s, ok := f.students[studentID]
	if !ok {
		return model.Student{}, apperr.E(apperr.NotFound, apperr.CodeNotFound, studentID, "student not found")
	}
	return s, nil
}

func (f *fakeStore) UpdateStudent(_ context.Context, s model.Student) error {
	if _, ok := f.students[s.StudentID]; !ok {
		return apperr.E(apperr.NotFound, apperr.CodeNotFound, s.StudentID, "student not found")
	}
	f.students[s.StudentID] = s
	return nil
}

func (f *fakeStore) SearchStudents(_ context.Context, department, session, _ string) ([]model.Student, error) {
	var out []model.Student
	for _, s := range f.students {
		if department != "" && s.Department != department {
			continue
		}
		if session != "" && s.Session != session {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func TestCreateStudentDefaults(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) })

	stu, err := svc.CreateStudent(context.Background(), NewStudentInput{
		Password:   "correct-horse",
		FullName:   "Ada Example",
		Department: "CS",
		Session:    "2024-25",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, stu.StudentID) // generated
	assert.Equal(t, 1, stu.CurrentSemester)

	u := store.users[stu.StudentID]
	assert.Equal(t, model.UserTypeStudent, u.UserType)
	assert.NotEqual(t, "correct-horse", u.CredentialHash)
}

func TestCreateStudentRequiresPassword(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	_, err := svc.CreateStudent(context.Background(), NewStudentInput{FullName: "No Password"})
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestCreateDuplicateUser(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	ctx := context.Background()

	_, err := svc.CreateStudent(ctx, NewStudentInput{UserID: "2024-cs-001", Password: "pw-pw-pw-1"})
	assert.NoError(t, err)

	_, err = svc.CreateTeacher(ctx, NewTeacherInput{UserID: "2024-cs-001", Password: "pw-pw-pw-2"})
	assert.Equal(t, apperr.CodeDuplicateUser, apperr.CodeOf(err))
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	ctx := context.Background()

	_, err := svc.CreateTeacher(ctx, NewTeacherInput{UserID: "teacher-1", Password: "secret-pass"})
	assert.NoError(t, err)

	u, err := svc.Authenticate(ctx, "teacher-1", "secret-pass")
	assert.NoError(t, err)
	assert.Equal(t, model.UserTypeTeacher, u.UserType)

	_, err = svc.Authenticate(ctx, "teacher-1", "wrong")
	assert.Equal(t, apperr.CodeBadCredentials, apperr.CodeOf(err))

	// Unknown users get the same error as a bad password.
	_, err = svc.Authenticate(ctx, "nobody", "whatever")
	assert.Equal(t, apperr.CodeBadCredentials, apperr.CodeOf(err))
}

func TestGetStudent(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	ctx := context.Background()

	stu, err := svc.CreateStudent(ctx, NewStudentInput{UserID: "s-1", Password: "pw-pw-pw-1", Department: "CS"})
	assert.NoError(t, err)

	got, err := svc.GetStudent(ctx, stu.StudentID)
	assert.NoError(t, err)
	assert.Equal(t, "CS", got.Department)

	_, err = svc.GetStudent(ctx, "nobody")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestUpdateStudent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	stu, err := svc.CreateStudent(ctx, NewStudentInput{UserID: "s-1", Password: "pw-pw-pw-1", Session: "2024-25"})
	assert.NoError(t, err)

	stu.CurrentSemester = 0
	err = svc.UpdateStudent(ctx, stu)
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	stu.CurrentSemester = 3
	stu.Department = "EE"
	assert.NoError(t, svc.UpdateStudent(ctx, stu))
	assert.Equal(t, "EE", store.students["s-1"].Department)
}
