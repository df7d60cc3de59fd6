package model

import (
	"context"
	"time"
)

// UserRole represents a dashboard user's access level.
type UserRole string

const (
	// UserRoleTeacher is a teaching-staff user role.
	UserRoleTeacher UserRole = "teacher"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a dashboard user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

// ResponseRecord is one answered quiz question. Grade is the curriculum
// grade the question belongs to (parsed from the grade tag), distinct
// from the student's enrolled grade level.
type ResponseRecord struct {
	StudentID  string    `json:"student_id"`
	QuestionID string    `json:"question_id"`
	Grade      int       `json:"grade"`
	Competency string    `json:"competency"`
	TypeTag    string    `json:"type_tag"`
	Correct    bool      `json:"correct"`
	Answered   time.Time `json:"answered"`
}

// Student is one distinct student observed in the quiz data, with every
// response row attributed to them in input order.
type Student struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	GradeLevel int              `json:"grade_level"`
	Responses  []ResponseRecord `json:"responses"`
}

// CompetencyStat holds accuracy figures for one (grade, competency) pair.
type CompetencyStat struct {
	Key        string  `json:"key"`
	Grade      int     `json:"grade"`
	Competency string  `json:"competency"`
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// TypeStat holds accuracy figures for one question type.
type TypeStat struct {
	TypeTag    string  `json:"type_tag"`
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// StudentSummary is the derived per-student statistics view. It is a
// value snapshot: recomputed on request, never updated in place.
type StudentSummary struct {
	ByCompetency      map[string]CompetencyStat `json:"by_competency"`
	ByType            map[string]TypeStat       `json:"by_type,omitempty"`
	TotalCorrect      int                       `json:"total_correct"`
	TotalAnswered     int                       `json:"total_answered"`
	OverallPercentage float64                   `json:"overall_percentage"`
	MaxGradeReached   int                       `json:"max_grade_reached"`
}

// CohortStats aggregates competency accuracy across every student
// enrolled at one grade level.
type CohortStats struct {
	Grade        int                       `json:"grade"`
	Students     int                       `json:"students"`
	ByCompetency map[string]CompetencyStat `json:"by_competency"`
}

// ServerConfig holds runtime server parameters set via CLI flags.
type ServerConfig struct {
	DataPath      string // CSV file backing the snapshot (also the reload source)
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
}
