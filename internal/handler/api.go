package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/apexmaths/radar/internal/chart"
	"github.com/apexmaths/radar/internal/model"
	"github.com/apexmaths/radar/internal/report"
	"github.com/apexmaths/radar/internal/roster"
	"github.com/apexmaths/radar/internal/stats"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// snapshot returns the current snapshot, replying 503 when no data has
// been loaded yet.
func (h *Handler) snapshot(w http.ResponseWriter) (*roster.Snapshot, bool) {
	snap := h.roster.Current()
	if snap == nil {
		http.Error(w, "quiz data not loaded", http.StatusServiceUnavailable)
		return nil, false
	}
	return snap, true
}

type healthResponse struct {
	Status     string    `json:"status"`
	SnapshotID string    `json:"snapshot_id"`
	Source     string    `json:"source"`
	LoadedAt   time.Time `json:"loaded_at"`
	Rows       int       `json:"rows"`
	Students   int       `json:"students"`
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snap := h.roster.Current()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		SnapshotID: snap.ID,
		Source:     snap.SourcePath,
		LoadedAt:   snap.LoadedAt,
		Rows:       snap.Rows,
		Students:   len(snap.Students()),
	})
}

type studentListEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	GradeLevel int    `json:"grade_level"`
	Responses  int    `json:"responses"`
}

func (h *Handler) handleAPIStudents(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	students := snap.Students()
	out := make([]studentListEntry, 0, len(students))
	for _, st := range students {
		out = append(out, studentListEntry{
			ID:         st.ID,
			Name:       st.Name,
			GradeLevel: st.GradeLevel,
			Responses:  len(st.Responses),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type studentSummaryResponse struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	GradeLevel int                  `json:"grade_level"`
	Summary    model.StudentSummary `json:"summary"`
}

func (h *Handler) handleAPIStudentSummary(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	st, ok := snap.Student(chi.URLParam(r, "studentID"))
	if !ok {
		http.Error(w, "student not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, studentSummaryResponse{
		ID:         st.ID,
		Name:       st.Name,
		GradeLevel: st.GradeLevel,
		Summary:    stats.Summarize(st),
	})
}

type radarResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	GradeLevel     int             `json:"grade_level"`
	Radar          chart.RadarData `json:"radar"`
	CohortGrade    int             `json:"cohort_grade,omitempty"`
	CohortStudents int             `json:"cohort_students,omitempty"`
}

// handleAPIStudentRadar projects one student onto radar axes. The
// optional cohort query parameter overlays a grade cohort; a grade
// with no enrolled students simply drops the overlay.
func (h *Handler) handleAPIStudentRadar(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	st, ok := snap.Student(chi.URLParam(r, "studentID"))
	if !ok {
		http.Error(w, "student not found", http.StatusNotFound)
		return
	}

	resp := radarResponse{ID: st.ID, Name: st.Name, GradeLevel: st.GradeLevel}

	var cohort *model.CohortStats
	if raw := r.URL.Query().Get("cohort"); raw != "" {
		grade, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid cohort grade", http.StatusBadRequest)
			return
		}
		if c, ok := stats.SummarizeCohort(snap.Students(), grade); ok {
			cohort = &c
			resp.CohortGrade = c.Grade
			resp.CohortStudents = c.Students
		}
	}

	resp.Radar = chart.Project(stats.Summarize(st), cohort, h.catalog)
	writeJSON(w, http.StatusOK, resp)
}

type cohortResponse struct {
	Grade        int                    `json:"grade"`
	Students     int                    `json:"students"`
	Competencies []model.CompetencyStat `json:"competencies"`
}

func (h *Handler) handleAPICohort(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	grade, err := strconv.Atoi(chi.URLParam(r, "grade"))
	if err != nil {
		http.Error(w, "invalid grade", http.StatusBadRequest)
		return
	}
	cohort, ok := stats.SummarizeCohort(snap.Students(), grade)
	if !ok {
		http.Error(w, "no students enrolled at this grade", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cohortResponse{
		Grade:        cohort.Grade,
		Students:     cohort.Students,
		Competencies: stats.Ordered(cohort.ByCompetency),
	})
}

type gradeListEntry struct {
	Grade    int    `json:"grade"`
	Color    string `json:"color,omitempty"`
	Students int    `json:"students"`
}

func (h *Handler) handleAPIGrades(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	grades := snap.Grades()
	out := make([]gradeListEntry, 0, len(grades))
	for _, g := range grades {
		color, _ := h.catalog.GradeColor(g)
		out = append(out, gradeListEntry{Grade: g, Color: color, Students: snap.CohortSize(g)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleAPIInsight(w http.ResponseWriter, r *http.Request) {
	if h.llm == nil {
		http.Error(w, "insight is not configured", http.StatusServiceUnavailable)
		return
	}
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	st, ok := snap.Student(chi.URLParam(r, "studentID"))
	if !ok {
		http.Error(w, "student not found", http.StatusNotFound)
		return
	}

	insight, err := h.llm.StudentInsight(r.Context(), st, stats.Summarize(st), h.catalog)
	if err != nil {
		slog.Error("LLM insight failed", "student", st.ID, "error", err)
		http.Error(w, "LLM insight failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, insight)
}

func (h *Handler) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	rep := report.Build(snap, h.catalog, true)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="quiz-report.json"`)
	if err := report.WriteJSON(w, rep); err != nil {
		slog.Error("write JSON export", "error", err)
	}
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	rep := report.Build(snap, h.catalog, true)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="quiz-report.xlsx"`)
	if err := report.WriteXLSX(w, rep); err != nil {
		slog.Error("write XLSX export", "error", err)
	}
}
