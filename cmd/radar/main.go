package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/apexmaths/radar/internal/catalog"
	"github.com/apexmaths/radar/internal/handler"
	appI18n "github.com/apexmaths/radar/internal/i18n"
	"github.com/apexmaths/radar/internal/llm"
	"github.com/apexmaths/radar/internal/model"
	"github.com/apexmaths/radar/internal/report"
	"github.com/apexmaths/radar/internal/roster"
	"github.com/apexmaths/radar/internal/sampledata"
	"github.com/apexmaths/radar/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "radar",
		Short: "Quiz statistics dashboard with competency radar charts",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), generateCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `radar --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP dashboard server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "radar.db", "SQLite database path")
	f.StringP("data", "d", "data/sample_quiz_results.csv", "Quiz responses CSV path")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty disables insights)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.StringP("lang", "l", "en", "UI language (en, af)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set RADAR_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export student statistics as JSON or XLSX",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.StringP("data", "d", "data/sample_quiz_results.csv", "Quiz responses CSV path")
	f.StringP("format", "f", "json", "Output format (json, xlsx)")
	f.Bool("cohorts", true, "Include per-grade cohort statistics")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic quiz responses CSV",
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	f.IntP("students", "n", 30, "Number of students to simulate")
	f.Int64("seed", 42, "Random seed (same seed, same output)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("RADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("radar")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/radar")
	v.AddConfigPath("/etc/radar")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	// Open database.
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Seed default admin user if no users exist.
	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	// Expired sessions are otherwise deleted only when their own token
	// is next presented.
	go func() {
		for range time.Tick(time.Hour) {
			if err := db.CleanupExpiredSessions(); err != nil {
				slog.Warn("session cleanup failed", "error", err)
			}
		}
	}()

	// Load quiz responses. A broken file is fatal at startup; once the
	// server is up, reloads keep the last good snapshot instead.
	dataPath := v.GetString("data")
	snap, err := roster.Load(dataPath)
	if err != nil {
		return fmt.Errorf("load quiz data: %w", err)
	}
	holder := roster.NewHolder(snap)
	slog.Info("loaded quiz data",
		"path", dataPath,
		"snapshot_id", snap.ID,
		"rows", snap.Rows,
		"students", len(snap.Students()))

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load competency catalog: %w", err)
	}

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// The LLM client is optional; without it the insight endpoint reports
	// itself unavailable and the rest of the dashboard works as usual.
	var llmClient *llm.Client
	if llmURL := v.GetString("llm-url"); llmURL != "" {
		llmClient = llm.New(llmURL, v.GetString("llm-key"), v.GetString("llm-model"))
		if err := llmClient.Ping(context.Background()); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", llmURL, "model", v.GetString("llm-model"))
	}

	cfg := model.ServerConfig{
		DataPath:      dataPath,
		SecureCookies: v.GetBool("secure-cookies"),
	}

	h, err := handler.New(db, holder, cat, llmClient, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"data", dataPath,
		"lang", lang,
		"secure_cookies", cfg.SecureCookies,
		"insight", llmClient != nil,
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	snap, err := roster.Load(v.GetString("data"))
	if err != nil {
		return fmt.Errorf("load quiz data: %w", err)
	}
	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load competency catalog: %w", err)
	}

	rep := report.Build(snap, cat, v.GetBool("cohorts"))

	// Resolve the writer before touching the output path so a bad format
	// does not leave an empty file behind.
	outPath := v.GetString("output")
	write := report.WriteJSON
	switch format := strings.ToLower(v.GetString("format")); format {
	case "json":
	case "xlsx":
		if outPath == "" || outPath == "-" {
			return fmt.Errorf("xlsx format requires --output (refusing to write a workbook to stdout)")
		}
		write = report.WriteXLSX
	default:
		return fmt.Errorf("unknown format %q (expected json or xlsx)", format)
	}

	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := write(w, rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	rows, err := sampledata.Write(w, sampledata.Options{
		Students: v.GetInt("students"),
		Seed:     v.GetInt64("seed"),
	})
	if err != nil {
		return fmt.Errorf("generate sample data: %w", err)
	}

	slog.Info("generated sample data",
		"students", v.GetInt("students"),
		"seed", v.GetInt64("seed"),
		"rows", rows,
		"output", outPath)
	return nil
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or RADAR_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
