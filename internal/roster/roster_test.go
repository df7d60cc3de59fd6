package roster

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const sampleCSV = `student_id,student_name,student_grade_level,question_id,grade_tag,competency_tag,type_tag,is_correct,timestamp
STU001,Thabo Nkosi,5,G4_NUM-MultiDigit_T1_01,Grade-4,NUM-MultiDigit,Type-1,1,2026-02-01T09:00:20
STU001,Thabo Nkosi,5,G5_NUM-FracDec_T1_01,Grade-5,NUM-FracDec,Type-1,0,2026-02-01T09:00:41
STU002,Lerato Dlamini,7,G7_ALG-PreAlg_T2_01,Grade-7,ALG-PreAlg,Type-2,1,2026-02-01T09:00:19
STU001,Thabo Nkosi,5,G5_NUM-FracDec_T3_01,Grade-5,NUM-FracDec,Type-3,1,2026-02-01T09:01:02
`

func writeDataFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quiz.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write data file: %v", err)
	}
	return path
}

func TestNewGroupsByStudent(t *testing.T) {
	snap := New("test", []byte(sampleCSV))

	if snap.Rows != 4 {
		t.Errorf("rows = %d, want 4", snap.Rows)
	}
	students := snap.Students()
	if len(students) != 2 {
		t.Fatalf("expected 2 students, got %d", len(students))
	}

	// First-sighting order.
	if students[0].ID != "STU001" || students[1].ID != "STU002" {
		t.Errorf("student order = [%s %s], want [STU001 STU002]", students[0].ID, students[1].ID)
	}

	st, ok := snap.Student("STU001")
	if !ok {
		t.Fatal("expected STU001 to exist")
	}
	if st.Name != "Thabo Nkosi" || st.GradeLevel != 5 {
		t.Errorf("STU001 identity = %q grade %d, want 'Thabo Nkosi' grade 5", st.Name, st.GradeLevel)
	}
	if len(st.Responses) != 3 {
		t.Fatalf("STU001 responses = %d, want 3", len(st.Responses))
	}

	// Responses keep input order.
	r := st.Responses[0]
	if r.QuestionID != "G4_NUM-MultiDigit_T1_01" || r.Grade != 4 || !r.Correct {
		t.Errorf("first response = %+v, want G4 question, correct", r)
	}
	if r.TypeTag != "Type-1" || r.Competency != "NUM-MultiDigit" {
		t.Errorf("first response tags = %q %q", r.TypeTag, r.Competency)
	}
	want := time.Date(2026, 2, 1, 9, 0, 20, 0, time.UTC)
	if !r.Answered.Equal(want) {
		t.Errorf("first response answered = %v, want %v", r.Answered, want)
	}
	if st.Responses[1].Correct {
		t.Error("second response should be incorrect")
	}

	if _, ok := snap.Student("STU999"); ok {
		t.Error("expected STU999 to be absent")
	}
}

func TestNewFirstRowWinsIdentity(t *testing.T) {
	csv := `student_id,student_name,student_grade_level,grade_tag,competency_tag,is_correct
S1,Original Name,5,Grade-5,A,1
S1,Changed Name,9,Grade-5,A,0
`
	snap := New("test", []byte(csv))
	st, _ := snap.Student("S1")
	if st.Name != "Original Name" || st.GradeLevel != 5 {
		t.Errorf("identity = %q grade %d, want first row's 'Original Name' grade 5", st.Name, st.GradeLevel)
	}
	if len(st.Responses) != 2 {
		t.Errorf("responses = %d, want 2", len(st.Responses))
	}
}

func TestNewEmptyStudentIDKept(t *testing.T) {
	csv := `student_id,student_name,student_grade_level,grade_tag,competency_tag,is_correct
,,0,Grade-4,X,1
S1,Name,5,Grade-5,A,1
`
	snap := New("test", []byte(csv))
	if len(snap.Students()) != 2 {
		t.Fatalf("expected 2 students (one under the empty key), got %d", len(snap.Students()))
	}
	st, ok := snap.Student("")
	if !ok {
		t.Fatal("expected the empty-key student to exist")
	}
	if len(st.Responses) != 1 {
		t.Errorf("empty-key responses = %d, want 1", len(st.Responses))
	}
}

func TestNewGradeTagParsing(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want int
	}{
		{"standard", "Grade-7", 7},
		{"two digits", "Grade-12", 12},
		{"no dash", "Grade7", 0},
		{"trailing junk", "Grade-x", 0},
		{"empty", "", 0},
		{"extra dashes", "Pre-Grade-6", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gradeFromTag(tt.tag); got != tt.want {
				t.Errorf("gradeFromTag(%q) = %d, want %d", tt.tag, got, tt.want)
			}
		})
	}
}

func TestNewCorrectFlag(t *testing.T) {
	csv := `student_id,is_correct
S1,1
S1,0
S1,true
S1,
`
	snap := New("test", []byte(csv))
	st, _ := snap.Student("S1")
	if len(st.Responses) != 4 {
		t.Fatalf("responses = %d, want 4", len(st.Responses))
	}
	// Only the literal "1" counts as correct.
	want := []bool{true, false, false, false}
	for i, r := range st.Responses {
		if r.Correct != want[i] {
			t.Errorf("response %d correct = %v, want %v", i, r.Correct, want[i])
		}
	}
}

func TestNewShortRowsTolerated(t *testing.T) {
	csv := `student_id,student_name,student_grade_level,grade_tag,competency_tag,type_tag,is_correct
S1,Name
`
	snap := New("test", []byte(csv))
	st, ok := snap.Student("S1")
	if !ok {
		t.Fatal("expected S1 despite short row")
	}
	r := st.Responses[0]
	if r.Grade != 0 || r.Correct || r.Competency != "" {
		t.Errorf("short-row response = %+v, want zero-valued fields", r)
	}
	if !r.Answered.IsZero() {
		t.Errorf("short-row answered = %v, want zero time", r.Answered)
	}
}

func TestSnapshotGradesAndCohorts(t *testing.T) {
	csv := `student_id,student_name,student_grade_level,grade_tag,competency_tag,is_correct
S1,A,7,Grade-7,X,1
S2,B,5,Grade-5,X,1
S3,C,7,Grade-7,X,0
`
	snap := New("test", []byte(csv))

	grades := snap.Grades()
	if len(grades) != 2 || grades[0] != 5 || grades[1] != 7 {
		t.Errorf("grades = %v, want [5 7]", grades)
	}
	if n := snap.CohortSize(7); n != 2 {
		t.Errorf("CohortSize(7) = %d, want 2", n)
	}
	if n := snap.CohortSize(9); n != 0 {
		t.Errorf("CohortSize(9) = %d, want 0", n)
	}
}

func TestLoad(t *testing.T) {
	path := writeDataFile(t, sampleCSV)

	snap, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.SourcePath != path {
		t.Errorf("source path = %q, want %q", snap.SourcePath, path)
	}
	if snap.ID == "" {
		t.Error("expected a snapshot ID")
	}
	if snap.SourceSHA256 == "" {
		t.Error("expected a source hash")
	}
	if snap.LoadedAt.IsZero() {
		t.Error("expected LoadedAt to be set")
	}
	if len(snap.Students()) != 2 {
		t.Errorf("students = %d, want 2", len(snap.Students()))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestHolderReplace(t *testing.T) {
	first := New("a", []byte(sampleCSV))
	h := NewHolder(first)

	if h.Current() != first {
		t.Fatal("expected holder to publish the initial snapshot")
	}

	second := New("b", []byte(sampleCSV))
	h.Replace(second)
	if h.Current() != second {
		t.Fatal("expected holder to publish the replacement")
	}
}

func TestHolderReloadUnchanged(t *testing.T) {
	path := writeDataFile(t, sampleCSV)
	first, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	h := NewHolder(first)

	snap, changed, err := h.Reload(path)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if changed {
		t.Error("expected no swap for unchanged content")
	}
	if snap != first || h.Current() != first {
		t.Error("expected the original snapshot to stay published")
	}
}

func TestHolderReloadChanged(t *testing.T) {
	path := writeDataFile(t, sampleCSV)
	first, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	h := NewHolder(first)

	updated := sampleCSV + "STU003,Naledi Pillay,6,G6_NUM-Theory_T1_01,Grade-6,NUM-Theory,Type-1,1,2026-02-01T09:02:00\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewrite data file: %v", err)
	}

	snap, changed, err := h.Reload(path)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if !changed {
		t.Error("expected a swap for changed content")
	}
	if snap == first {
		t.Error("expected a new snapshot")
	}
	if snap.ID == first.ID {
		t.Error("expected a fresh snapshot ID")
	}
	if len(snap.Students()) != 3 {
		t.Errorf("students after reload = %d, want 3", len(snap.Students()))
	}
	if h.Current() != snap {
		t.Error("expected the new snapshot to be published")
	}
}

func TestHolderReloadFailureKeepsCurrent(t *testing.T) {
	path := writeDataFile(t, sampleCSV)
	first, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	h := NewHolder(first)

	_, _, err = h.Reload(filepath.Join(t.TempDir(), "gone.csv"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if h.Current() != first {
		t.Error("expected the pre-reload snapshot to stay published after a failure")
	}
}

func TestHolderConcurrentReads(t *testing.T) {
	h := NewHolder(New("a", []byte(sampleCSV)))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := h.Current()
				// Every observed snapshot is complete.
				if snap == nil || len(snap.Students()) != 2 {
					t.Error("observed an incomplete snapshot")
					return
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		h.Replace(New("b", []byte(sampleCSV)))
	}
	close(stop)
	wg.Wait()
}
