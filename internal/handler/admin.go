package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-chi/chi/v5"

	"github.com/apexmaths/radar/internal/model"
)

func (h *Handler) handleAdminUsersPage(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data := h.newPageData(r)
	data.Users = users
	h.render(w, "users.html", data)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	displayName := r.FormValue("display_name")
	password := r.FormValue("password")
	role := r.FormValue("role")

	if username == "" || password == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if displayName == "" {
		displayName = username
	}

	_, err = h.store.CreateUser(model.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         model.UserRole(role),
		Active:       true,
	})
	if err != nil {
		slog.Error("failed to create user", "error", err)
		http.Error(w, "failed to create user: "+err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "userID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.store.ToggleUserActive(id); err != nil {
		slog.Error("failed to toggle user active", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// handleReloadData re-reads the quiz data file and swaps the snapshot
// in if the file changed. The running snapshot stays untouched when
// the reload fails.
func (h *Handler) handleReloadData(w http.ResponseWriter, r *http.Request) {
	snap, changed, err := h.roster.Reload(h.config.DataPath)
	if err != nil {
		slog.Error("data reload failed", "path", h.config.DataPath, "error", err)
		http.Error(w, "reload failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if changed {
		slog.Info("quiz data reloaded",
			"snapshot_id", snap.ID,
			"rows", snap.Rows,
			"students", len(snap.Students()))
	} else {
		slog.Info("quiz data unchanged, keeping current snapshot", "snapshot_id", snap.ID)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
