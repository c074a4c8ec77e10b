package grading

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"campus/internal/apperr"
	"campus/internal/model"
)

type fakeStore struct {
	cts     map[string]model.CTResult     // "<offering>|<student>|<ct>"
	results map[string]model.SemesterResult
	credits map[int64]float64 // offering -> course credits
	terms   map[int64]int64   // offering -> term
	nextID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cts:     map[string]model.CTResult{},
		results: map[string]model.SemesterResult{},
		credits: map[int64]float64{},
		terms:   map[int64]int64{},
	}
}

func ctKey(offeringID int64, studentID string, ctNumber int) string {
	return fmt.Sprintf("%d|%s|%d", offeringID, studentID, ctNumber)
}

func resKey(offeringID int64, studentID string) string {
	return fmt.Sprintf("%d|%s", offeringID, studentID)
}

func (f *fakeStore) UpsertCT(_ context.Context, ct model.CTResult) (model.CTResult, error) {
	key := ctKey(ct.OfferingID, ct.StudentID, ct.CTNumber)
	if prev, ok := f.cts[key]; ok {
		ct.CTID = prev.CTID
	} else {
		f.nextID++
		ct.CTID = f.nextID
	}
	f.cts[key] = ct
	return ct, nil
}

func (f *fakeStore) ListCT(_ context.Context, offeringID int64, studentID string) ([]model.CTResult, error) {
	var out []model.CTResult
	for n := 1; n <= 20; n++ {
		if ct, ok := f.cts[ctKey(offeringID, studentID, n)]; ok {
			out = append(out, ct)
		}
	}
	return out, nil
}

func (f *fakeStore) GetResult(_ context.Context, offeringID int64, studentID string) (model.SemesterResult, bool, error) {
	res, ok := f.results[resKey(offeringID, studentID)]
	return res, ok, nil
}

func (f *fakeStore) UpsertResult(_ context.Context, res model.SemesterResult) (model.SemesterResult, error) {
	key := resKey(res.OfferingID, res.StudentID)
	if prev, ok := f.results[key]; ok {
		res.ResultID = prev.ResultID
	} else {
		f.nextID++
		res.ResultID = f.nextID
	}
	f.results[key] = res
	return res, nil
}

func (f *fakeStore) GPAParts(_ context.Context, studentID string, termID int64) (float64, float64, error) {
	var points, credits float64
	for _, res := range f.results {
		if res.StudentID != studentID || res.Status == model.ResultPending {
			continue
		}
		if termID != 0 && f.terms[res.OfferingID] != termID {
			continue
		}
		cr := f.credits[res.OfferingID]
		points += res.GradePoint * cr
		credits += cr
	}
	return points, credits, nil
}

type fakeNotifier struct {
	grades []string // "<student>|<offering>|<prev>-><grade>"
}

func (f *fakeNotifier) NotifyGrade(_ context.Context, studentID string, offeringID int64, prevGrade, grade string) error {
	f.grades = append(f.grades, fmt.Sprintf("%s|%d|%s->%s", studentID, offeringID, prevGrade, grade))
	return nil
}

func fptr(v float64) *float64 { return &v }
func sptr(v string) *string   { return &v }

func TestRecordCTValidation(t *testing.T) {
	svc := NewService(newFakeStore(), DefaultScale(), nil)
	ctx := context.Background()

	_, err := svc.RecordCT(ctx, model.CTResult{OfferingID: 1, StudentID: "s", CTNumber: 1, MarksObtained: 25, TotalMarks: 20})
	assert.Equal(t, apperr.CodeOutOfRange, apperr.CodeOf(err))

	_, err = svc.RecordCT(ctx, model.CTResult{OfferingID: 1, StudentID: "s", CTNumber: 1, MarksObtained: -1, TotalMarks: 20})
	assert.Equal(t, apperr.CodeOutOfRange, apperr.CodeOf(err))

	_, err = svc.RecordCT(ctx, model.CTResult{OfferingID: 1, StudentID: "s", CTNumber: 0, MarksObtained: 5, TotalMarks: 20})
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestRecordCTUpsertsByNumber(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, DefaultScale(), nil)
	ctx := context.Background()

	first, err := svc.RecordCT(ctx, model.CTResult{OfferingID: 1, StudentID: "s", CTNumber: 1, MarksObtained: 10, TotalMarks: 20})
	assert.NoError(t, err)
	second, err := svc.RecordCT(ctx, model.CTResult{OfferingID: 1, StudentID: "s", CTNumber: 1, MarksObtained: 15, TotalMarks: 20})
	assert.NoError(t, err)
	assert.Equal(t, first.CTID, second.CTID)
	assert.Len(t, store.cts, 1)
}

func TestCTSummary(t *testing.T) {
	svc := NewService(newFakeStore(), DefaultScale(), nil)
	ctx := context.Background()

	for i, marks := range []float64{18, 19, 17} {
		_, err := svc.RecordCT(ctx, model.CTResult{OfferingID: 1, StudentID: "s", CTNumber: i + 1, MarksObtained: marks, TotalMarks: 20})
		assert.NoError(t, err)
	}

	sum, err := svc.CTSummaryFor(ctx, 1, "s")
	assert.NoError(t, err)
	assert.Len(t, sum.Results, 3)
	assert.Equal(t, 54.0, sum.TotalObtained)
	assert.Equal(t, 60.0, sum.TotalPossible)
	assert.InDelta(t, 90.0, sum.Percent(), 1e-9)
}

func TestCTSummaryEmptyUndefined(t *testing.T) {
	svc := NewService(newFakeStore(), DefaultScale(), nil)
	sum, err := svc.CTSummaryFor(context.Background(), 1, "s")
	assert.NoError(t, err)
	assert.False(t, sum.Defined())
}

func TestFinalizeIdempotent(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := NewService(store, DefaultScale(), notifier)
	ctx := context.Background()

	res1, err := svc.Finalize(ctx, 1, "s", FinalizeInput{Marks: fptr(92)})
	assert.NoError(t, err)
	assert.Equal(t, "A-", res1.Grade)
	assert.Equal(t, 3.7, res1.GradePoint)
	assert.Equal(t, model.ResultPassed, res1.Status)

	// Same inputs again: same stored row, no second notification.
	res2, err := svc.Finalize(ctx, 1, "s", FinalizeInput{Marks: fptr(92)})
	assert.NoError(t, err)
	assert.Equal(t, res1.ResultID, res2.ResultID)
	assert.Len(t, store.results, 1)
	assert.Len(t, notifier.grades, 1)

	// Changed grade: row overwritten, one more notification.
	res3, err := svc.Finalize(ctx, 1, "s", FinalizeInput{Marks: fptr(55)})
	assert.NoError(t, err)
	assert.Equal(t, res1.ResultID, res3.ResultID)
	assert.Equal(t, "F", res3.Grade)
	assert.Equal(t, model.ResultFailed, res3.Status)
	assert.Len(t, notifier.grades, 2)

	// Changing back to an earlier grade is still a change and carries the
	// transition it came from.
	res4, err := svc.Finalize(ctx, 1, "s", FinalizeInput{Marks: fptr(92)})
	assert.NoError(t, err)
	assert.Equal(t, "A-", res4.Grade)
	assert.Len(t, notifier.grades, 3)
	assert.Equal(t, "s|1|F->A-", notifier.grades[2])
}

func TestFinalizeOverride(t *testing.T) {
	svc := NewService(newFakeStore(), DefaultScale(), nil)
	res, err := svc.Finalize(context.Background(), 1, "s", FinalizeInput{OverrideGrade: sptr("B+")})
	assert.NoError(t, err)
	assert.Equal(t, "B+", res.Grade)
	assert.Equal(t, 3.3, res.GradePoint)

	_, err = svc.Finalize(context.Background(), 1, "s", FinalizeInput{OverrideGrade: sptr("Z")})
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestFinalizeRequiresInput(t *testing.T) {
	svc := NewService(newFakeStore(), DefaultScale(), nil)
	_, err := svc.Finalize(context.Background(), 1, "s", FinalizeInput{})
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestTermGPARoundTrip(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, DefaultScale(), nil)
	ctx := context.Background()

	// Offerings 1..3 in term 7, offering 4 in term 8.
	store.credits[1], store.terms[1] = 3, 7
	store.credits[2], store.terms[2] = 3, 7
	store.credits[3], store.terms[3] = 2, 7
	store.credits[4], store.terms[4] = 3, 8

	_, _ = svc.Finalize(ctx, 1, "s", FinalizeInput{Marks: fptr(93)}) // A  4.0
	_, _ = svc.Finalize(ctx, 2, "s", FinalizeInput{Marks: fptr(87)}) // B+ 3.3
	_, _ = svc.Finalize(ctx, 3, "s", FinalizeInput{Marks: fptr(95)}) // A  4.0
	_, _ = svc.Finalize(ctx, 4, "s", FinalizeInput{Marks: fptr(70)}) // C- 1.7

	gpa, err := svc.TermGPA(ctx, "s", 7)
	assert.NoError(t, err)
	assert.True(t, gpa.Defined())
	want := (4.0*3 + 3.3*3 + 4.0*2) / 8.0
	assert.InDelta(t, want, gpa.Value(), 1e-9)

	cum, err := svc.CumulativeGPA(ctx, "s")
	assert.NoError(t, err)
	wantCum := (4.0*3 + 3.3*3 + 4.0*2 + 1.7*3) / 11.0
	assert.InDelta(t, wantCum, cum.Value(), 1e-9)
}

func TestGPAUndefinedWithoutCredits(t *testing.T) {
	svc := NewService(newFakeStore(), DefaultScale(), nil)
	gpa, err := svc.TermGPA(context.Background(), "s", 7)
	assert.NoError(t, err)
	assert.False(t, gpa.Defined())
}

func TestGPAExcludesPending(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, DefaultScale(), nil)
	ctx := context.Background()

	store.credits[1], store.terms[1] = 3, 7
	store.credits[2], store.terms[2] = 3, 7

	_, _ = svc.Finalize(ctx, 1, "s", FinalizeInput{Marks: fptr(93)})
	store.results[resKey(2, "s")] = model.SemesterResult{
		OfferingID: 2, StudentID: "s", Status: model.ResultPending,
	}

	gpa, err := svc.TermGPA(ctx, "s", 7)
	assert.NoError(t, err)
	assert.Equal(t, 3.0, gpa.Credits)
	assert.InDelta(t, 4.0, gpa.Value(), 1e-9)
}
