package grading

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Band is one row of the marks-to-grade table: marks >= Cut map to Grade.
type Band struct {
	Cut    float64
	Grade  string
	Points float64
}

// Scale is a monotonic marks-to-grade mapping, total over [0,100].
// Cut points are institutional configuration, not business logic.
type Scale struct {
	bands []Band // sorted by Cut descending, last band has Cut 0
}

// DefaultScale is the stock table: 97 and up is A+, down to D at 65,
// anything below is F.
func DefaultScale() Scale {
	return Scale{bands: []Band{
		{97, "A+", 4.0},
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
		{0, "F", 0.0},
	}}
}

// ParseScale builds a scale from "cut:grade:points,..." entries, any
// order. The table must cover 0 (so the mapping is total) and grade
// points must not increase as cuts decrease (so it is monotonic).
func ParseScale(spec string) (Scale, error) {
	if strings.TrimSpace(spec) == "" {
		return DefaultScale(), nil
	}
	var bands []Band
	for _, part := range strings.Split(spec, ",") {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) != 3 {
			return Scale{}, fmt.Errorf("grade scale: bad entry %q", part)
		}
		cut, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return Scale{}, fmt.Errorf("grade scale: bad cut in %q", part)
		}
		points, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Scale{}, fmt.Errorf("grade scale: bad points in %q", part)
		}
		if fields[1] == "" {
			return Scale{}, fmt.Errorf("grade scale: empty grade in %q", part)
		}
		bands = append(bands, Band{Cut: cut, Grade: fields[1], Points: points})
	}
	sort.Slice(bands, func(i, j int) bool { return bands[i].Cut > bands[j].Cut })
	if bands[len(bands)-1].Cut != 0 {
		return Scale{}, fmt.Errorf("grade scale: lowest cut must be 0, got %g", bands[len(bands)-1].Cut)
	}
	for i := 1; i < len(bands); i++ {
		if bands[i].Points > bands[i-1].Points {
			return Scale{}, fmt.Errorf("grade scale: not monotonic at %s", bands[i].Grade)
		}
		if bands[i].Cut == bands[i-1].Cut {
			return Scale{}, fmt.Errorf("grade scale: duplicate cut %g", bands[i].Cut)
		}
	}
	return Scale{bands: bands}, nil
}

// Grade maps marks in [0,100] to a (grade, points) pair.
func (s Scale) Grade(marks float64) (string, float64, bool) {
	if marks < 0 || marks > 100 {
		return "", 0, false
	}
	for _, b := range s.bands {
		if marks >= b.Cut {
			return b.Grade, b.Points, true
		}
	}
	return "", 0, false
}

// Lookup returns the grade points for a named grade, used for overrides.
func (s Scale) Lookup(grade string) (float64, bool) {
	for _, b := range s.bands {
		if b.Grade == grade {
			return b.Points, true
		}
	}
	return 0, false
}

// FailingGrade is the grade of the lowest band.
func (s Scale) FailingGrade() string {
	return s.bands[len(s.bands)-1].Grade
}
