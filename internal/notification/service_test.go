package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"campus/internal/apperr"
	"campus/internal/model"
)

type fakeStore struct {
	students   []model.Student
	broadcasts []model.Broadcast
	notifs     []model.Notification
	eventKeys  map[string]bool // "<user>|<key>"
	nextID     int64
	failAfter  int // BulkInsert fails after this many inserts; 0 = never
}

func newFakeStore(students ...model.Student) *fakeStore {
	return &fakeStore{students: students, eventKeys: map[string]bool{}}
}

func (f *fakeStore) ListStudentsSnapshot(_ context.Context, department, session string) ([]model.Student, error) {
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

func (f *fakeStore) InsertBroadcast(_ context.Context, b model.Broadcast) (model.Broadcast, error) {
	f.nextID++
	b.BroadcastID = f.nextID
	b.CreatedAt = time.Now().UTC()
	f.broadcasts = append(f.broadcasts, b)
	return b, nil
}

func (f *fakeStore) GetBroadcast(_ context.Context, broadcastID int64) (model.Broadcast, error) {
	for _, b := range f.broadcasts {
		if b.BroadcastID == broadcastID {
			return b, nil
		}
	}
	return model.Broadcast{}, apperr.E(apperr.NotFound, apperr.CodeNotFound, "", "broadcast not found")
}

func (f *fakeStore) insert(n model.Notification, eventKey string) bool {
	if eventKey != "" {
		dedupe := n.UserID + "|" + eventKey
		if f.eventKeys[dedupe] {
			return false
		}
		f.eventKeys[dedupe] = true
	}
	f.nextID++
	n.ID = f.nextID
	n.CreatedAt = time.Now().UTC()
	f.notifs = append(f.notifs, n)
	return true
}

func (f *fakeStore) BulkInsert(_ context.Context, notifs []model.Notification, eventKey string) (int, error) {
	inserted := 0
	for i, n := range notifs {
		if f.failAfter > 0 && i >= f.failAfter {
			return inserted, errors.New("connection reset")
		}
		if f.insert(n, eventKey) {
			inserted++
		}
	}
	return inserted, nil
}

func (f *fakeStore) InsertOne(_ context.Context, n model.Notification, eventKey string) (bool, error) {
	return f.insert(n, eventKey), nil
}

func (f *fakeStore) MarkRead(_ context.Context, notificationID int64) error {
	for i, n := range f.notifs {
		if n.ID == notificationID {
			f.notifs[i].IsRead = true
			return nil
		}
	}
	return apperr.E(apperr.NotFound, apperr.CodeNotFound, "", "notification not found")
}

func (f *fakeStore) MarkAllRead(_ context.Context, userID string) (int, error) {
	count := 0
	for i, n := range f.notifs {
		if n.UserID == userID && !n.IsRead {
			f.notifs[i].IsRead = true
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) List(_ context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	var out []model.Notification
	for i := len(f.notifs) - 1; i >= 0; i-- {
		n := f.notifs[i]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeStore) CountUnread(_ context.Context, userID string) (int, error) {
	n := 0
	for _, notif := range f.notifs {
		if notif.UserID == userID && !notif.IsRead {
			n++
		}
	}
	return n, nil
}

func tenStudents() []model.Student {
	var students []model.Student
	for i := 1; i <= 4; i++ {
		students = append(students, model.Student{
			StudentID: fmt.Sprintf("cs-%d", i), Department: "CS", Session: "2024-25",
		})
	}
	for i := 1; i <= 3; i++ {
		students = append(students, model.Student{
			StudentID: fmt.Sprintf("ee-%d", i), Department: "EE", Session: "2024-25",
		})
	}
	for i := 1; i <= 3; i++ {
		students = append(students, model.Student{
			StudentID: fmt.Sprintf("cs-old-%d", i), Department: "CS", Session: "2023-24",
		})
	}
	return students
}

func TestBroadcastFanOutFiltered(t *testing.T) {
	store := newFakeStore(tenStudents()...)
	svc := NewService(store, nil)

	res, err := svc.Broadcast(context.Background(), BroadcastInput{
		TeacherID:  "teacher-1",
		Title:      "Exam Schedule",
		Message:    "Finals start January 20",
		Department: "CS",
		Session:    "2024-25",
	})
	assert.NoError(t, err)
	assert.Equal(t, 4, res.Recipients)
	assert.Equal(t, 4, res.NotifiedCount)
	assert.Len(t, store.notifs, 4)
	for _, n := range store.notifs {
		assert.Equal(t, model.NotifBroadcast, n.Type)
		assert.Equal(t, BroadcastTitlePrefix+"Exam Schedule", n.Title)
		assert.Equal(t, "Finals start January 20", n.Message)
		assert.Equal(t, "teacher-1", n.Sender)
	}
}

func TestBroadcastUnfilteredMatchesAll(t *testing.T) {
	store := newFakeStore(tenStudents()...)
	svc := NewService(store, nil)

	res, err := svc.Broadcast(context.Background(), BroadcastInput{
		TeacherID: "teacher-1", Title: "Holiday", Message: "Campus closed Monday",
	})
	assert.NoError(t, err)
	assert.Equal(t, 10, res.NotifiedCount)
}

func TestBroadcastTermIsAuditOnly(t *testing.T) {
	store := newFakeStore(tenStudents()...)
	svc := NewService(store, nil)

	// A term filter narrows nothing: students carry no term attribute.
	res, err := svc.Broadcast(context.Background(), BroadcastInput{
		TeacherID: "teacher-1", Title: "T", Message: "M", Term: "Spring 2025",
	})
	assert.NoError(t, err)
	assert.Equal(t, 10, res.NotifiedCount)
	assert.Equal(t, "Spring 2025", store.notifs[0].Term)
}

func TestBroadcastValidation(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	_, err := svc.Broadcast(context.Background(), BroadcastInput{TeacherID: "t", Message: "m"})
	assert.True(t, apperr.IsKind(err, apperr.Validation))
	_, err = svc.Broadcast(context.Background(), BroadcastInput{TeacherID: "t", Title: "t"})
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestBroadcastPartialFailureRetry(t *testing.T) {
	store := newFakeStore(tenStudents()...)
	store.failAfter = 6
	svc := NewService(store, nil)

	res, err := svc.Broadcast(context.Background(), BroadcastInput{
		TeacherID: "teacher-1", Title: "T", Message: "M",
	})
	assert.Equal(t, apperr.CodePartialFanout, apperr.CodeOf(err))
	assert.True(t, apperr.IsKind(err, apperr.Consistency))
	assert.NotZero(t, res.Broadcast.BroadcastID)
	assert.Len(t, store.notifs, 6)

	// Retry skips the six already written and fills in the rest.
	store.failAfter = 0
	retry, err := svc.Resend(context.Background(), res.Broadcast.BroadcastID)
	assert.NoError(t, err)
	assert.Equal(t, 10, retry.Recipients)
	assert.Equal(t, 4, retry.NotifiedCount)
	assert.Len(t, store.notifs, 10)
}

func TestResolveRecipients(t *testing.T) {
	svc := NewService(newFakeStore(tenStudents()...), nil)

	ids, err := svc.ResolveBroadcastRecipients(context.Background(), "CS", "")
	assert.NoError(t, err)
	assert.Len(t, ids, 7)

	ids, err = svc.ResolveBroadcastRecipients(context.Background(), "", "")
	assert.NoError(t, err)
	assert.Len(t, ids, 10)
}

func TestNotifyGradeDedupe(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	assert.NoError(t, svc.NotifyGrade(ctx, "student-s", 1, "", "A-"))
	assert.NoError(t, svc.NotifyGrade(ctx, "student-s", 1, "", "A-")) // retry of the same publication, silent
	assert.Len(t, store.notifs, 1)

	assert.NoError(t, svc.NotifyGrade(ctx, "student-s", 1, "A-", "B+")) // changed grade
	assert.Len(t, store.notifs, 2)
}

func TestNotifyGradeFlipBackNotifies(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	assert.NoError(t, svc.NotifyGrade(ctx, "student-s", 1, "", "A"))
	assert.NoError(t, svc.NotifyGrade(ctx, "student-s", 1, "A", "B"))
	// Back to A: a real change, not a repeat of the first publication.
	assert.NoError(t, svc.NotifyGrade(ctx, "student-s", 1, "B", "A"))
	assert.Len(t, store.notifs, 3)
}

func TestMarkReadIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	assert.NoError(t, svc.NotifyAttendanceThreshold(ctx, "student-s", 1, 60))
	id := store.notifs[0].ID

	assert.NoError(t, svc.MarkRead(ctx, id))
	assert.NoError(t, svc.MarkRead(ctx, id)) // no-op, not an error

	err := svc.MarkRead(ctx, 9999)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestMarkAllReadAndList(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	_ = svc.NotifyAttendanceThreshold(ctx, "student-s", 1, 60)
	_ = svc.NotifyAttendanceThreshold(ctx, "student-s", 2, 70)
	_ = svc.NotifyAttendanceThreshold(ctx, "other", 1, 50)

	count, err := svc.MarkAllRead(ctx, "student-s")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	unread, err := svc.List(ctx, "student-s", true)
	assert.NoError(t, err)
	assert.Empty(t, unread)

	all, err := svc.List(ctx, "student-s", false)
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	n, err := svc.CountUnread(ctx, "other")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}
