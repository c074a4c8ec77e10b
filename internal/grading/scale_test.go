package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultScaleCutPoints(t *testing.T) {
	scale := DefaultScale()
	tests := []struct {
		marks      float64
		wantGrade  string
		wantPoints float64
	}{
		{100, "A+", 4.0},
		{97, "A+", 4.0},
		{96.9, "A", 4.0},
		{93, "A", 4.0},
		{90, "A-", 3.7},
		{87, "B+", 3.3},
		{83, "B", 3.0},
		{80, "B-", 2.7},
		{77, "C+", 2.3},
		{73, "C", 2.0},
		{70, "C-", 1.7},
		{67, "D+", 1.3},
		{65, "D", 1.0},
		{64.9, "F", 0.0},
		{0, "F", 0.0},
	}
	for _, tt := range tests {
		grade, points, ok := scale.Grade(tt.marks)
		assert.True(t, ok, "marks %g", tt.marks)
		assert.Equal(t, tt.wantGrade, grade, "marks %g", tt.marks)
		assert.Equal(t, tt.wantPoints, points, "marks %g", tt.marks)
	}
}

func TestScaleMonotonic(t *testing.T) {
	scale := DefaultScale()
	prev := -1.0
	for marks := 0.0; marks <= 100; marks += 0.5 {
		_, points, ok := scale.Grade(marks)
		assert.True(t, ok)
		assert.GreaterOrEqual(t, points, prev, "grade points regressed at %g", marks)
		prev = points
	}
}

func TestScaleRejectsOutOfRange(t *testing.T) {
	scale := DefaultScale()
	for _, marks := range []float64{-0.1, 100.1, 200} {
		_, _, ok := scale.Grade(marks)
		assert.False(t, ok, "marks %g", marks)
	}
}

func TestParseScale(t *testing.T) {
	scale, err := ParseScale("80:A:4.0,60:B:3.0,0:F:0")
	assert.NoError(t, err)

	grade, points, ok := scale.Grade(85)
	assert.True(t, ok)
	assert.Equal(t, "A", grade)
	assert.Equal(t, 4.0, points)

	grade, _, _ = scale.Grade(60)
	assert.Equal(t, "B", grade)
	grade, _, _ = scale.Grade(59.9)
	assert.Equal(t, "F", grade)
	assert.Equal(t, "F", scale.FailingGrade())
}

func TestParseScaleEmptyGivesDefault(t *testing.T) {
	scale, err := ParseScale("")
	assert.NoError(t, err)
	grade, _, _ := scale.Grade(97)
	assert.Equal(t, "A+", grade)
}

func TestParseScaleErrors(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{name: "bad entry", spec: "80:A"},
		{name: "bad cut", spec: "x:A:4,0:F:0"},
		{name: "bad points", spec: "80:A:x,0:F:0"},
		{name: "missing zero cut", spec: "80:A:4,60:B:3"},
		{name: "not monotonic", spec: "80:A:2,60:B:3,0:F:0"},
		{name: "duplicate cut", spec: "80:A:4,80:B:3,0:F:0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScale(tt.spec)
			assert.Error(t, err)
		})
	}
}
