// Package notification resolves recipient sets for triggering events and
// fans them out as per-recipient notification rows.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"campus/internal/apperr"
	"campus/internal/metrics"
	"campus/internal/model"
)

// BroadcastTitlePrefix marks broadcast notifications for channel
// identification in the UI.
const BroadcastTitlePrefix = "[Broadcast] "

// Store is the persistence surface the service needs.
type Store interface {
	ListStudentsSnapshot(ctx context.Context, department, session string) ([]model.Student, error)
	InsertBroadcast(ctx context.Context, b model.Broadcast) (model.Broadcast, error)
	GetBroadcast(ctx context.Context, broadcastID int64) (model.Broadcast, error)
	BulkInsert(ctx context.Context, notifs []model.Notification, eventKey string) (int, error)
	InsertOne(ctx context.Context, n model.Notification, eventKey string) (bool, error)
	MarkRead(ctx context.Context, notificationID int64) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	List(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

// Realtime pushes inserted rows to subscribers; nil disables pushes.
// Delivery is best effort: the row in the store is the source of truth and
// pollers will observe it regardless.
type Realtime interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Service is the fan-out engine.
type Service struct {
	store    Store
	realtime Realtime
}

// NewService creates a notification service.
func NewService(store Store, realtime Realtime) *Service {
	return &Service{store: store, realtime: realtime}
}

// BroadcastInput is a teacher-issued announcement with optional filters.
// Department and session narrow the recipient set; term is recorded for
// audit only (students carry no term attribute).
type BroadcastInput struct {
	TeacherID  string
	Title      string
	Message    string
	Department string
	Session    string
	Term       string
}

// BroadcastResult reports what a fan-out did.
type BroadcastResult struct {
	Broadcast     model.Broadcast `json:"broadcast"`
	Recipients    int             `json:"recipients"`
	NotifiedCount int             `json:"notified_count"`
}

// ResolveBroadcastRecipients returns the student ids a broadcast with the
// given filters would reach. An empty filter matches all students.
func (s *Service) ResolveBroadcastRecipients(ctx context.Context, department, session string) ([]string, error) {
	students, err := s.store.ListStudentsSnapshot(ctx, department, session)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.StudentID)
	}
	return ids, nil
}

// Broadcast persists the trigger record, resolves recipients from a single
// snapshot, and bulk-inserts one notification per recipient. The insert is
// idempotent on (broadcast, recipient): a failed call can be retried with
// Resend without duplicating already-written rows.
func (s *Service) Broadcast(ctx context.Context, in BroadcastInput) (BroadcastResult, error) {
	if in.Title == "" {
		return BroadcastResult{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "title", "title required")
	}
	if in.Message == "" {
		return BroadcastResult{}, apperr.E(apperr.Validation, apperr.CodeInvalidInput, "message", "message required")
	}

	b, err := s.store.InsertBroadcast(ctx, model.Broadcast{
		TeacherID:  in.TeacherID,
		Title:      in.Title,
		Message:    in.Message,
		Department: in.Department,
		Session:    in.Session,
		Term:       in.Term,
	})
	if err != nil {
		return BroadcastResult{}, err
	}

	result, err := s.fanOut(ctx, b)
	if err != nil {
		// The broadcast row exists but some notifications may not; the
		// caller retries via Resend, which skips rows already written.
		return BroadcastResult{Broadcast: b}, apperr.Wrap(apperr.Consistency, apperr.CodePartialFanout,
			strconv.FormatInt(b.BroadcastID, 10), "broadcast stored but fan-out incomplete, resend to retry", err)
	}
	metrics.BroadcastsTotal.Inc()
	return result, nil
}

// Resend re-runs fan-out for an existing broadcast. Recipients already
// notified are skipped, so this is the retry path after a partial failure.
func (s *Service) Resend(ctx context.Context, broadcastID int64) (BroadcastResult, error) {
	b, err := s.store.GetBroadcast(ctx, broadcastID)
	if err != nil {
		return BroadcastResult{}, err
	}
	result, err := s.fanOut(ctx, b)
	if err != nil {
		return BroadcastResult{Broadcast: b}, apperr.Wrap(apperr.Consistency, apperr.CodePartialFanout,
			strconv.FormatInt(b.BroadcastID, 10), "fan-out incomplete, resend to retry", err)
	}
	return result, nil
}

func (s *Service) fanOut(ctx context.Context, b model.Broadcast) (BroadcastResult, error) {
	students, err := s.store.ListStudentsSnapshot(ctx, b.Department, b.Session)
	if err != nil {
		return BroadcastResult{}, err
	}

	// Compute the full set first, then write; no re-querying mid-write.
	notifs := make([]model.Notification, 0, len(students))
	for _, st := range students {
		notifs = append(notifs, model.Notification{
			UserID:     st.StudentID,
			Title:      BroadcastTitlePrefix + b.Title,
			Message:    b.Message,
			Type:       model.NotifBroadcast,
			Sender:     b.TeacherID,
			Department: b.Department,
			Session:    b.Session,
			Term:       b.Term,
		})
	}

	eventKey := fmt.Sprintf("broadcast:%d", b.BroadcastID)
	inserted, err := s.store.BulkInsert(ctx, notifs, eventKey)
	if err != nil {
		return BroadcastResult{}, err
	}
	metrics.NotificationsTotal.WithLabelValues(model.NotifBroadcast).Add(float64(inserted))

	for _, n := range notifs {
		s.push(ctx, n)
	}
	return BroadcastResult{Broadcast: b, Recipients: len(students), NotifiedCount: inserted}, nil
}

// NotifyGrade posts a grade notification to one student. The event key
// encodes the grade transition, so a retry of the same finalize dedupes
// while a later change back to an earlier grade still notifies.
// prevGrade is empty on first publication.
func (s *Service) NotifyGrade(ctx context.Context, studentID string, offeringID int64, prevGrade, grade string) error {
	n := model.Notification{
		UserID:  studentID,
		Title:   "Result Published",
		Message: fmt.Sprintf("Your semester result for offering %d has been published: %s", offeringID, grade),
		Type:    model.NotifGrade,
		Sender:  "registrar",
	}
	eventKey := fmt.Sprintf("grade:%d:%s->%s", offeringID, prevGrade, grade)
	inserted, err := s.store.InsertOne(ctx, n, eventKey)
	if err != nil {
		return err
	}
	if inserted {
		metrics.NotificationsTotal.WithLabelValues(model.NotifGrade).Inc()
		s.push(ctx, n)
	}
	return nil
}

// NotifyAttendanceThreshold warns one student about low attendance. The
// caller (worker) is responsible for the suppression window.
func (s *Service) NotifyAttendanceThreshold(ctx context.Context, studentID string, offeringID int64, percent float64) error {
	n := model.Notification{
		UserID:  studentID,
		Title:   "Low Attendance Warning",
		Message: fmt.Sprintf("Your attendance for offering %d has fallen to %.1f%%", offeringID, percent),
		Type:    model.NotifAttendance,
		Sender:  "registrar",
	}
	inserted, err := s.store.InsertOne(ctx, n, "")
	if err != nil {
		return err
	}
	if inserted {
		metrics.NotificationsTotal.WithLabelValues(model.NotifAttendance).Inc()
		s.push(ctx, n)
	}
	return nil
}

// MarkRead marks one notification read; idempotent.
func (s *Service) MarkRead(ctx context.Context, notificationID int64) error {
	return s.store.MarkRead(ctx, notificationID)
}

// MarkAllRead marks all of a user's notifications read and returns the
// number flipped.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.store.MarkAllRead(ctx, userID)
}

// List returns a user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	return s.store.List(ctx, userID, unreadOnly)
}

// CountUnread returns the unread count for dashboards.
func (s *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *Service) push(ctx context.Context, n model.Notification) {
	if s.realtime == nil {
		return
	}
	payload, _ := json.Marshal(n)
	if err := s.realtime.Publish(ctx, "notifications:"+n.UserID, payload); err != nil {
		log.Printf("notification: realtime push to %s failed: %v", n.UserID, err)
	}
}
