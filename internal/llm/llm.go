package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/apexmaths/radar/internal/model"
	"github.com/apexmaths/radar/internal/stats"

	openai "github.com/sashabaranov/go-openai"
)

// Insight holds the LLM's narrative reading of a student's results.
type Insight struct {
	Note       string   `json:"note"`
	Strengths  []string `json:"strengths"`
	FocusAreas []string `json:"focus_areas"`
}

// Namer resolves a competency code to a human-readable name.
type Namer interface {
	DisplayName(code string) (string, bool)
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the API endpoint is reachable and the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM ping: %w", err)
	}
	return nil
}

// StudentInsight asks the LLM for a short teacher-facing note about one
// student's accuracy profile. names may be nil, in which case raw
// competency codes are used in the prompt.
func (c *Client) StudentInsight(ctx context.Context, student model.Student, sum model.StudentSummary, names Namer) (*Insight, error) {
	systemPrompt := buildInsightPrompt(student, sum, names)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Write the note for this student."},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	var result Insight
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}

	return &result, nil
}

func buildInsightPrompt(student model.Student, sum model.StudentSummary, names Namer) string {
	var sb strings.Builder
	sb.WriteString("You are an experienced mathematics teacher reviewing one student's quiz results.\n\n")
	sb.WriteString(fmt.Sprintf("STUDENT: %s (enrolled in grade %d)\n", student.Name, student.GradeLevel))
	sb.WriteString(fmt.Sprintf("OVERALL: %d of %d answers correct (%.0f%%), highest grade-level material attempted: grade %d\n\n",
		sum.TotalCorrect, sum.TotalAnswered, sum.OverallPercentage, sum.MaxGradeReached))

	sb.WriteString("ACCURACY BY COMPETENCY:\n")
	for _, cs := range stats.Ordered(sum.ByCompetency) {
		sb.WriteString(fmt.Sprintf("- Grade %d, %s: %.0f%% (%d of %d)\n",
			cs.Grade, competencyName(names, cs.Competency), cs.Percentage, cs.Correct, cs.Total))
	}

	if len(sum.ByType) > 0 {
		sb.WriteString("\nACCURACY BY QUESTION TYPE:\n")
		for _, ts := range stats.OrderedTypes(sum.ByType) {
			sb.WriteString(fmt.Sprintf("- %s: %.0f%% (%d of %d)\n",
				ts.TypeTag, ts.Percentage, ts.Correct, ts.Total))
		}
	}

	sb.WriteString("\nINSTRUCTIONS:\n")
	sb.WriteString("- Write 2-3 sentences in plain language a teacher could read aloud to a parent.\n")
	sb.WriteString("- Name the student's strongest areas and the areas that need attention.\n")
	sb.WriteString("- Treat low-volume competencies (fewer than 3 answers) with caution rather than as firm evidence.\n")
	sb.WriteString("- Do not use markdown or bullet points inside the note.\n")
	sb.WriteString("\nRespond ONLY with a JSON object with these fields:\n")
	sb.WriteString(`{"note": "<2-3 sentence summary>", "strengths": ["<competency name>", ...], "focus_areas": ["<competency name>", ...]}`)
	sb.WriteString("\n")

	return sb.String()
}

func competencyName(names Namer, code string) string {
	if names != nil {
		if name, ok := names.DisplayName(code); ok {
			return name
		}
	}
	return code
}
