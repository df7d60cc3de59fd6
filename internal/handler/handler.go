// Package handler serves the teacher dashboard and the JSON API over
// the currently loaded quiz-data snapshot.
package handler

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/apexmaths/radar/internal/catalog"
	"github.com/apexmaths/radar/internal/i18n"
	"github.com/apexmaths/radar/internal/llm"
	"github.com/apexmaths/radar/internal/model"
	"github.com/apexmaths/radar/internal/roster"
	"github.com/apexmaths/radar/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	roster  *roster.Holder
	catalog *catalog.Table
	llm     *llm.Client
	config  model.ServerConfig
	tmpl    *template.Template
}

// New creates a new Handler. llmClient may be nil, which disables the
// insight endpoint.
func New(s *store.Store, holder *roster.Holder, cat *catalog.Table, llmClient *llm.Client, cfg model.ServerConfig) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Handler{
		store:   s,
		roster:  holder,
		catalog: cat,
		llm:     llmClient,
		config:  cfg,
		tmpl:    tmpl,
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealthz)

	r.Group(func(r chi.Router) {
		r.Use(h.csrfMiddleware)

		r.Get("/login", h.handleLoginPage)
		r.Post("/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Get("/", h.handleDashboard)
			r.Post("/logout", h.handleLogout)

			r.Get("/api/students", h.handleAPIStudents)
			r.Get("/api/students/{studentID}/summary", h.handleAPIStudentSummary)
			r.Get("/api/students/{studentID}/radar", h.handleAPIStudentRadar)
			r.Post("/api/students/{studentID}/insight", h.handleAPIInsight)
			r.Get("/api/cohorts/{grade}", h.handleAPICohort)
			r.Get("/api/grades", h.handleAPIGrades)

			r.Get("/export/report.json", h.handleExportJSON)
			r.Get("/export/report.xlsx", h.handleExportXLSX)

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireRole(model.UserRoleAdmin))
				r.Get("/users", h.handleAdminUsersPage)
				r.Post("/users", h.handleCreateUser)
				r.Post("/users/{userID}/toggle", h.handleToggleUserActive)
				r.Post("/reload", h.handleReloadData)
			})
		})
	})
}

type studentEntry struct {
	ID         string
	Name       string
	GradeLevel int
}

type gradeEntry struct {
	Grade    int
	Color    string
	Students int
}

type snapshotEntry struct {
	Rows     int
	Students int
	Source   string
	LoadedAt time.Time
}

// pageData carries everything the HTML templates need. The request
// context rides along so templates can translate through T.
type pageData struct {
	ctx context.Context

	User      *model.User
	IsAdmin   bool
	CSRFToken string

	LoginError     string
	Users          []model.User
	Students       []studentEntry
	Grades         []gradeEntry
	Loaded         snapshotEntry
	InsightEnabled bool
	Welcome        string
	LoadedNote     string
}

// T translates a message ID in the request's language.
func (p pageData) T(id string) string { return i18n.T(p.ctx, id) }

func (h *Handler) newPageData(r *http.Request) pageData {
	ctx := r.Context()
	user := model.UserFromContext(ctx)
	return pageData{
		ctx:       ctx,
		User:      user,
		IsAdmin:   user != nil && user.Role == model.UserRoleAdmin,
		CSRFToken: model.CSRFTokenFromContext(ctx),
	}
}

func (h *Handler) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("render error", "template", name, "error", err)
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := h.newPageData(r)
	data.InsightEnabled = h.llm != nil

	if data.User != nil {
		data.Welcome = i18n.Td(r.Context(), "WelcomeUser", map[string]any{"Name": data.User.DisplayName})
	}

	if snap := h.roster.Current(); snap != nil {
		students := snap.Students()
		for _, st := range students {
			data.Students = append(data.Students, studentEntry{ID: st.ID, Name: st.Name, GradeLevel: st.GradeLevel})
		}
		for _, g := range snap.Grades() {
			color, _ := h.catalog.GradeColor(g)
			data.Grades = append(data.Grades, gradeEntry{Grade: g, Color: color, Students: snap.CohortSize(g)})
		}
		data.Loaded = snapshotEntry{
			Rows:     snap.Rows,
			Students: len(students),
			Source:   snap.SourcePath,
			LoadedAt: snap.LoadedAt,
		}
		data.LoadedNote = i18n.Tp(r.Context(), "StudentsLoaded", len(students))
	}

	h.render(w, "dashboard.html", data)
}
