// Package roster loads quiz-response data into an immutable in-memory
// snapshot. A load parses the whole file, aggregates rows by student
// in a single pass, and returns the finished table; nothing is
// published until the table is complete, and a published snapshot is
// never modified again.
package roster

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apexmaths/radar/internal/model"
	"github.com/apexmaths/radar/internal/tabular"
)

// Snapshot is the immutable result of one data load. Accessors return
// internal state directly; callers must treat it as read-only.
type Snapshot struct {
	ID           string
	SourcePath   string
	SourceSHA256 string
	LoadedAt     time.Time
	Rows         int

	students []model.Student
	byID     map[string]int
}

// Load reads the file at path and builds a snapshot from it. A read
// failure is the only error: data-shape irregularities inside the file
// are absorbed during aggregation, never reported.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quiz data %s: %w", path, err)
	}
	return New(path, data), nil
}

// New builds a snapshot by parsing and aggregating raw quiz-response
// data. source names where the data came from and is carried through
// for diagnostics. Rows group by student_id in one pass; the first row
// seen for an id fixes the student's name and enrolled grade level,
// and responses keep input order. Rows without a usable student_id
// group under the empty key rather than being dropped, matching the
// pass-through tolerance of the rest of the pipeline.
func New(source string, data []byte) *Snapshot {
	snap := &Snapshot{
		ID:           uuid.NewString(),
		SourcePath:   source,
		SourceSHA256: sha256hex(data),
		LoadedAt:     time.Now(),
		byID:         make(map[string]int),
	}

	rows := tabular.Parse(string(data))
	snap.Rows = len(rows)

	for _, row := range rows {
		id, _ := row.Field("student_id")
		idx, ok := snap.byID[id]
		if !ok {
			idx = len(snap.students)
			snap.byID[id] = idx

			st := model.Student{ID: id}
			st.Name, _ = row.Field("student_name")
			if lvl, ok := row.Field("student_grade_level"); ok {
				if n, err := strconv.Atoi(lvl); err == nil {
					st.GradeLevel = n
				}
			}
			snap.students = append(snap.students, st)
		}
		snap.students[idx].Responses = append(snap.students[idx].Responses, record(id, row))
	}

	return snap
}

// Students returns all students in first-sighting order.
func (s *Snapshot) Students() []model.Student {
	return s.students
}

// Student returns the student with the given id.
func (s *Snapshot) Student(id string) (model.Student, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return model.Student{}, false
	}
	return s.students[idx], true
}

// Grades returns the distinct enrolled grade levels in ascending order.
func (s *Snapshot) Grades() []int {
	seen := make(map[int]bool)
	for _, st := range s.students {
		seen[st.GradeLevel] = true
	}
	grades := make([]int, 0, len(seen))
	for g := range seen {
		grades = append(grades, g)
	}
	sort.Ints(grades)
	return grades
}

// CohortSize returns the number of students enrolled at grade.
func (s *Snapshot) CohortSize(grade int) int {
	n := 0
	for _, st := range s.students {
		if st.GradeLevel == grade {
			n++
		}
	}
	return n
}

func record(studentID string, row tabular.Row) model.ResponseRecord {
	r := model.ResponseRecord{StudentID: studentID}
	r.QuestionID, _ = row.Field("question_id")
	r.Competency, _ = row.Field("competency_tag")
	r.TypeTag, _ = row.Field("type_tag")
	if tag, ok := row.Field("grade_tag"); ok {
		r.Grade = gradeFromTag(tag)
	}
	if v, ok := row.Field("is_correct"); ok {
		r.Correct = v == "1"
	}
	if ts, ok := row.Field("timestamp"); ok {
		r.Answered = parseTimestamp(ts)
	}
	return r
}

// gradeFromTag extracts the integer after the last '-' of a grade tag
// like "Grade-7". Unparseable tags yield grade 0.
func gradeFromTag(tag string) int {
	i := strings.LastIndex(tag, "-")
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(tag[i+1:])
	if err != nil {
		return 0
	}
	return n
}

var timestampLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func sha256hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
