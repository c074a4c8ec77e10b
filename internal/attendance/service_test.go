package attendance

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"campus/internal/apperr"
	"campus/internal/model"
	"campus/internal/queue"
)

type rowKey struct {
	offeringID int64
	studentID  string
	date       string
}

type fakeStore struct {
	term model.Term
	rows map[rowKey]string
}

func newFakeStore() *fakeStore {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	return &fakeStore{
		term: model.Term{TermID: 7, StartDate: start, EndDate: start.AddDate(0, 4, 0)},
		rows: map[rowKey]string{},
	}
}

func (f *fakeStore) GetOfferingTerm(_ context.Context, offeringID int64) (model.Offering, model.Term, error) {
	return model.Offering{OfferingID: offeringID, CourseID: "CSE101", TermID: f.term.TermID}, f.term, nil
}

func (f *fakeStore) UpsertBatch(_ context.Context, offeringID int64, classDate time.Time, entries map[string]string) (int, error) {
	for studentID, status := range entries {
		f.rows[rowKey{offeringID, studentID, classDate.Format("2006-01-02")}] = status
	}
	return len(entries), nil
}

func (f *fakeStore) Counts(_ context.Context, studentID string, offeringID int64) (Ratio, error) {
	var r Ratio
	for k, status := range f.rows {
		if k.studentID == studentID && k.offeringID == offeringID {
			r.Total++
			if status == model.AttendancePresent {
				r.Present++
			}
		}
	}
	return r, nil
}

func (f *fakeStore) CountsByStudent(_ context.Context, studentID string) ([]OfferingAttendance, error) {
	byOffering := map[int64]*OfferingAttendance{}
	for k, status := range f.rows {
		if k.studentID != studentID {
			continue
		}
		oa, ok := byOffering[k.offeringID]
		if !ok {
			oa = &OfferingAttendance{OfferingID: k.offeringID}
			byOffering[k.offeringID] = oa
		}
		oa.Total++
		if status == model.AttendancePresent {
			oa.Present++
		}
	}
	var out []OfferingAttendance
	for _, oa := range byOffering {
		out = append(out, *oa)
	}
	return out, nil
}

type fakeQueue struct {
	msgs []queue.Message
}

func (f *fakeQueue) Publish(_ context.Context, msg queue.Message) error {
	f.msgs = append(f.msgs, msg)
	return nil
}

func day(d int) time.Time {
	return time.Date(2025, 2, d, 0, 0, 0, 0, time.UTC)
}

func TestMarkAndPercentage(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, 75)
	ctx := context.Background()

	for i, status := range []string{model.AttendancePresent, model.AttendancePresent, model.AttendanceAbsent} {
		n, err := svc.Mark(ctx, 1, day(i+1), map[string]string{"student-s": status})
		assert.NoError(t, err)
		assert.Equal(t, 1, n)
	}

	ratio, err := svc.Percentage(ctx, "student-s", 1)
	assert.NoError(t, err)
	assert.True(t, ratio.Defined())
	assert.InDelta(t, 66.666, ratio.Percent(), 0.001)
	assert.Equal(t, 3, ratio.Total)

	// Re-marking the absent date flips the status in place.
	_, err = svc.Mark(ctx, 1, day(3), map[string]string{"student-s": model.AttendancePresent})
	assert.NoError(t, err)

	ratio, err = svc.Percentage(ctx, "student-s", 1)
	assert.NoError(t, err)
	assert.Equal(t, 3, ratio.Total) // row count unchanged
	assert.Equal(t, 100.0, ratio.Percent())
}

func TestPercentageNoRecords(t *testing.T) {
	svc := NewService(newFakeStore(), nil, 75)
	ratio, err := svc.Percentage(context.Background(), "student-x", 1)
	assert.NoError(t, err)
	assert.False(t, ratio.Defined())
}

func TestMarkOutsideTerm(t *testing.T) {
	svc := NewService(newFakeStore(), nil, 75)
	_, err := svc.Mark(context.Background(), 1,
		time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		map[string]string{"student-s": model.AttendancePresent})
	assert.Equal(t, apperr.CodeInvalidDate, apperr.CodeOf(err))
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestMarkRejectsBadStatus(t *testing.T) {
	svc := NewService(newFakeStore(), nil, 75)
	_, err := svc.Mark(context.Background(), 1, day(1), map[string]string{"student-s": "late"})
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestAggregateWeightsByClassCount(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, 75)
	ctx := context.Background()

	// Offering 1: 1 of 2 present. Offering 2: 8 of 8 present.
	_, _ = svc.Mark(ctx, 1, day(1), map[string]string{"student-s": model.AttendancePresent})
	_, _ = svc.Mark(ctx, 1, day(2), map[string]string{"student-s": model.AttendanceAbsent})
	for i := 1; i <= 8; i++ {
		_, _ = svc.Mark(ctx, 2, day(i), map[string]string{"student-s": model.AttendancePresent})
	}

	agg, err := svc.AggregateFor(ctx, "student-s")
	assert.NoError(t, err)
	assert.Len(t, agg.Courses, 2)
	// Weighted: 9/10 = 90%, not the 75% a course average would give.
	assert.Equal(t, 10, agg.Overall.Total)
	assert.InDelta(t, 90.0, agg.Overall.Percent(), 1e-9)
}

func TestThresholdEventEmitted(t *testing.T) {
	store := newFakeStore()
	q := &fakeQueue{}
	svc := NewService(store, q, 75)
	ctx := context.Background()

	// 1 present, 2 absent = 33% -> below the floor.
	_, _ = svc.Mark(ctx, 1, day(1), map[string]string{"student-s": model.AttendancePresent})
	_, _ = svc.Mark(ctx, 1, day(2), map[string]string{"student-s": model.AttendanceAbsent})
	q.msgs = nil // only the final mark matters here
	_, err := svc.Mark(ctx, 1, day(3), map[string]string{"student-s": model.AttendanceAbsent})
	assert.NoError(t, err)

	assert.Len(t, q.msgs, 1)
	assert.Equal(t, queue.TypeAttendanceThreshold, q.msgs[0].Type)
	var evt ThresholdEvent
	assert.NoError(t, json.Unmarshal(q.msgs[0].Body, &evt))
	assert.Equal(t, "student-s", evt.StudentID)
	assert.Equal(t, int64(1), evt.OfferingID)
	assert.InDelta(t, 33.333, evt.Percent, 0.001)
}

func TestNoThresholdEventAboveFloor(t *testing.T) {
	store := newFakeStore()
	q := &fakeQueue{}
	svc := NewService(store, q, 75)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		_, _ = svc.Mark(ctx, 1, day(i), map[string]string{"student-s": model.AttendancePresent})
	}
	assert.Empty(t, q.msgs)
}
