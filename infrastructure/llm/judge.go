package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tribunal/internal/domain"
	"github.com/ahrav/go-tribunal/internal/ports"
)

// PromptConfig holds the judge prompt templates loaded from the prompt YAML
// file. Both fields are Go text/template sources rendered against promptData.
type PromptConfig struct {
	// SystemPrompt frames the judge role. Sent as the provider's system
	// message.
	SystemPrompt string `yaml:"system_prompt" validate:"required"`

	// UserPrompt carries the criterion and transcript. Rendered per request.
	UserPrompt string `yaml:"user_prompt" validate:"required"`
}

// LoadPrompts reads and validates the prompt template file.
func LoadPrompts(path string) (PromptConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PromptConfig{}, fmt.Errorf("read prompt file: %w", err)
	}

	var config PromptConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return PromptConfig{}, fmt.Errorf("parse prompt file %s: %w", path, err)
	}
	if err := validator.New().Struct(&config); err != nil {
		return PromptConfig{}, fmt.Errorf("validate prompt file %s: %w", path, err)
	}
	return config, nil
}

// JudgeConfig tunes the ranking judge.
type JudgeConfig struct {
	// Temperature passed to the provider on every request.
	Temperature float64

	// MaxTokens caps the response length. Zero leaves the provider default.
	MaxTokens int
}

// promptData is the template context for both prompt templates.
type promptData struct {
	CriterionName        string
	CriterionDescription string
	RankingType          string
	Transcript           string
	CharacterInfo        string
}

// rankingPayload is the expected JSON shape of a judge response.
type rankingPayload struct {
	Rankings []rankingEntryJSON `json:"rankings" validate:"required,min=1,dive"`
}

type rankingEntryJSON struct {
	PlayerName string `json:"player_name" validate:"required"`
	Ranking    int    `json:"ranking" validate:"required,min=1"`
	Reasoning  string `json:"reasoning"`
}

// RankingJudge implements ports.Judge: it renders the prompt templates for
// one criterion, asks the model, and parses the JSON rankings out of the
// response. Structural and roster validation of the parsed entries belongs
// to the caller.
type RankingJudge struct {
	client     ports.LLMClient
	systemTmpl *template.Template
	userTmpl   *template.Template
	config     JudgeConfig
	validator  *validator.Validate
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewRankingJudge compiles the prompt templates and constructs the judge.
func NewRankingJudge(
	client ports.LLMClient,
	prompts PromptConfig,
	config JudgeConfig,
	tracer trace.Tracer,
	logger *slog.Logger,
) (*RankingJudge, error) {
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	systemTmpl, err := template.New("system").Parse(prompts.SystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("parse system prompt template: %w", err)
	}
	userTmpl, err := template.New("user").Parse(prompts.UserPrompt)
	if err != nil {
		return nil, fmt.Errorf("parse user prompt template: %w", err)
	}

	return &RankingJudge{
		client:     client,
		systemTmpl: systemTmpl,
		userTmpl:   userTmpl,
		config:     config,
		validator:  validator.New(),
		tracer:     tracer,
		logger:     logger,
	}, nil
}

// RankPlayers implements ports.Judge.
func (j *RankingJudge) RankPlayers(
	ctx context.Context,
	criterion domain.Criterion,
	transcript string,
	characterInfo string,
) ([]domain.RankingEntry, error) {
	if j.tracer != nil {
		var span trace.Span
		ctx, span = j.tracer.Start(ctx, "judge.rank_players",
			trace.WithAttributes(
				attribute.String("criterion", criterion.Name),
				attribute.String("model", j.client.GetModel()),
			))
		defer span.End()
	}

	data := promptData{
		CriterionName:        criterion.Name,
		CriterionDescription: criterion.Description,
		RankingType:          string(criterion.RankingType),
		Transcript:           transcript,
		CharacterInfo:        characterInfo,
	}

	system, err := renderTemplate(j.systemTmpl, data)
	if err != nil {
		return nil, fmt.Errorf("render system prompt: %w", err)
	}
	prompt, err := renderTemplate(j.userTmpl, data)
	if err != nil {
		return nil, fmt.Errorf("render user prompt: %w", err)
	}

	options := map[string]any{
		OptionSystem:      system,
		OptionTemperature: j.config.Temperature,
	}
	if j.config.MaxTokens > 0 {
		options[OptionMaxTokens] = j.config.MaxTokens
	}

	response, err := j.client.Complete(ctx, prompt, options)
	if err != nil {
		return nil, fmt.Errorf("criterion %s: %w", criterion.Name, err)
	}

	entries, err := j.parseResponse(response)
	if err != nil {
		j.logger.Warn("unparseable judge response",
			"criterion", criterion.Name, "response_length", len(response), "error", err)
		return nil, fmt.Errorf("criterion %s: %w", criterion.Name, err)
	}
	return entries, nil
}

// parseResponse extracts and validates the JSON rankings from a raw model
// response.
func (j *RankingJudge) parseResponse(response string) ([]domain.RankingEntry, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var payload rankingPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("parse rankings JSON: %w", err)
	}
	if err := j.validator.Struct(&payload); err != nil {
		return nil, fmt.Errorf("invalid rankings structure: %w", err)
	}

	entries := make([]domain.RankingEntry, 0, len(payload.Rankings))
	for _, r := range payload.Rankings {
		entries = append(entries, domain.RankingEntry{
			PlayerName: r.PlayerName,
			Rank:       r.Ranking,
			Reasoning:  r.Reasoning,
		})
	}
	return entries, nil
}

func renderTemplate(tmpl *template.Template, data promptData) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractJSON pulls a JSON object out of a response that may wrap it in
// markdown fences or surrounding prose. It returns the first balanced
// top-level object, or "" when none exists.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		rest := response[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}
	if idx := strings.Index(response, "```"); idx != -1 {
		rest := response[idx+3:]
		if nl := strings.Index(rest, "\n"); nl != -1 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end != -1 {
			if candidate := strings.TrimSpace(rest[:end]); strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return ""
}
