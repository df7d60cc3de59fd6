package sampledata

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/apexmaths/radar/internal/roster"
)

func TestWriteDeterministic(t *testing.T) {
	opts := Options{Students: 5, Seed: 42}

	var a, b bytes.Buffer
	if _, err := Write(&a, opts); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := Write(&b, opts); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("same seed should produce identical output")
	}

	var c bytes.Buffer
	if _, err := Write(&c, Options{Students: 5, Seed: 43}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if bytes.Equal(a.Bytes(), c.Bytes()) {
		t.Error("different seeds should produce different output")
	}
}

func TestWriteShape(t *testing.T) {
	var buf bytes.Buffer
	rows, err := Write(&buf, Options{Students: 2, Seed: 1})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != rows+1 {
		t.Fatalf("expected %d lines (header plus rows), got %d", rows+1, len(lines))
	}
	if lines[0] != "student_id,student_name,student_grade_level,question_id,grade_tag,competency_tag,type_tag,is_correct,timestamp" {
		t.Errorf("unexpected header: %q", lines[0])
	}

	// The first question is always grade 4's first competency,
	// type 1, sequence 1, whatever the seed.
	first := strings.Split(lines[1], ",")
	if first[0] != "STU001" {
		t.Errorf("expected STU001, got %q", first[0])
	}
	if first[3] != "G4_NUM-MultiDigit_T1_01" {
		t.Errorf("unexpected first question id: %q", first[3])
	}
	if first[4] != "Grade-4" || first[6] != "Type-1" {
		t.Errorf("unexpected tags: %v", first)
	}
	if first[7] != "0" && first[7] != "1" {
		t.Errorf("is_correct should be 0 or 1, got %q", first[7])
	}
	if _, err := time.Parse("2006-01-02T15:04:05", first[8]); err != nil {
		t.Errorf("unparseable timestamp %q: %v", first[8], err)
	}
}

func TestWriteRoundTripsThroughRoster(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Write(&buf, Options{Students: 3, Seed: 7}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	snap := roster.New("generated.csv", buf.Bytes())

	students := snap.Students()
	if len(students) != 3 {
		t.Fatalf("expected 3 students, got %d", len(students))
	}
	for _, st := range students {
		if st.Name == "" {
			t.Errorf("student %s has no name", st.ID)
		}
		if st.GradeLevel < 4 || st.GradeLevel > 12 {
			t.Errorf("student %s has grade %d outside 4..12", st.ID, st.GradeLevel)
		}
		// The time limit cannot bite before grade 9 is finished:
		// grades 4 through 9 are six competency blocks of 24
		// questions each.
		if len(st.Responses) < 144 {
			t.Errorf("student %s has only %d responses", st.ID, len(st.Responses))
		}
		if len(st.Responses) > 216 {
			t.Errorf("student %s has %d responses, more than the full assessment", st.ID, len(st.Responses))
		}

		seen := make(map[int]bool)
		last := time.Time{}
		for _, r := range st.Responses {
			seen[r.Grade] = true
			if r.Answered.Before(last) {
				t.Errorf("student %s timestamps go backwards at %s", st.ID, r.QuestionID)
				break
			}
			last = r.Answered
		}
		for g := 4; g <= 9; g++ {
			if !seen[g] {
				t.Errorf("student %s missing grade %d responses", st.ID, g)
			}
		}
	}

	st, ok := snap.Student("STU002")
	if !ok {
		t.Fatal("expected STU002 in snapshot")
	}
	if st.ID != "STU002" {
		t.Errorf("unexpected student: %+v", st)
	}
}

func TestCorrectProbability(t *testing.T) {
	tests := []struct {
		name      string
		gradeDiff int
		skill     float64
		qType     int
		want      float64
	}{
		{"well below level", -3, 0.6, 1, 0.95},
		{"at level", 0, 0.6, 1, 0.7},
		{"one above", 1, 0.6, 1, 0.55},
		{"two above", 2, 0.6, 1, 0.45},
		{"far above floors at quarter", 8, 0.5, 1, 0.25},
		{"type three penalty", 0, 0.6, 3, 0.65},
		{"clamped high", 0, 0.9, 1, 0.98},
		{"type three on floor", 8, 0.5, 3, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := correctProbability(tt.gradeDiff, tt.skill, tt.qType)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("correctProbability(%d, %v, %d) = %v, want %v", tt.gradeDiff, tt.skill, tt.qType, got, tt.want)
			}
		})
	}
}
