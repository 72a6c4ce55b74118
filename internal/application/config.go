// Package application wires the evaluation pipeline together: configuration,
// the per-game evaluator, the retry policy, and the batch orchestrator.
package application

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"runtime"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tribunal/internal/domain"
)

// Defaults for optional processing settings. Required settings never default;
// a missing required field fails validation instead.
const (
	// DefaultEvaluationWorkers bounds concurrent LLM calls within one game.
	DefaultEvaluationWorkers = 8

	// DefaultMaxRetries is the number of additional attempts after a failed
	// judge call, giving DefaultMaxRetries+1 total attempts per criterion.
	DefaultMaxRetries = 3
)

// Config is the application configuration loaded from the settings YAML
// file. Field presence is enforced with validator tags; optional fields are
// defaulted by LoadConfig with a logged warning.
type Config struct {
	Path       PathConfig       `yaml:"path" validate:"required"`
	LLM        LLMConfig        `yaml:"llm" validate:"required"`
	Game       GameConfig       `yaml:"game" validate:"required"`
	Processing ProcessingConfig `yaml:"processing"`
}

// PathConfig names the filesystem locations the pipeline reads and writes.
type PathConfig struct {
	// Env is the optional dotenv file holding provider API keys.
	Env string `yaml:"env"`

	// EvaluationCriteria is the criteria definition YAML file.
	EvaluationCriteria string `yaml:"evaluation_criteria" validate:"required"`

	// InputDir is the root holding log/ and json/ input subdirectories.
	InputDir string `yaml:"input_dir" validate:"required"`

	// OutputDir receives per-game and aggregate artifacts.
	OutputDir string `yaml:"output_dir" validate:"required"`
}

// LLMConfig selects and tunes the judge model.
type LLMConfig struct {
	// Provider selects the backing LLM service.
	Provider string `yaml:"provider" validate:"required,oneof=openai anthropic google"`

	// Model is the provider-specific model identifier.
	Model string `yaml:"model" validate:"required"`

	// PromptFile is the YAML file holding the developer and user prompt
	// templates.
	PromptFile string `yaml:"prompt_file" validate:"required"`

	// Temperature controls sampling randomness; zero keeps rankings stable.
	Temperature float64 `yaml:"temperature" validate:"min=0,max=2"`

	// MaxTokens caps the judge's response length. Zero lets the provider
	// default apply.
	MaxTokens int `yaml:"max_tokens" validate:"min=0"`

	// RequestsPerSecond rate-limits calls to the provider. Zero disables
	// the limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"min=0"`
}

// GameConfig describes the match format being evaluated in this run.
type GameConfig struct {
	Format      string `yaml:"format" validate:"required"`
	PlayerCount int    `yaml:"player_count" validate:"required,min=1"`
}

// ProcessingConfig tunes the two concurrency domains and retry budget.
// All fields are optional and fall back to defaults with a warning.
type ProcessingConfig struct {
	// MaxWorkers bounds concurrently processed games. Defaults to the host
	// core count.
	MaxWorkers int `yaml:"max_workers"`

	// EvaluationWorkers bounds concurrent criterion evaluations within one
	// game. Defaults to DefaultEvaluationWorkers.
	EvaluationWorkers int `yaml:"evaluation_workers"`

	// MaxRetries is the per-criterion retry budget. Defaults to
	// DefaultMaxRetries. Note 0 is a valid explicit value (no retries), so
	// the default applies only when the field is absent or negative.
	MaxRetries *int `yaml:"max_retries"`

	// Encoding is the transcript file encoding; informational, transcripts
	// are read as UTF-8.
	Encoding string `yaml:"encoding"`
}

// LoadConfig reads, parses, and validates the settings file, then applies
// defaults for the optional processing fields. Invalid optional values are
// replaced by their defaults with a logged warning; invalid required values
// fail.
func LoadConfig(path string, logger *slog.Logger) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", path, err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate settings file %s: %w", path, err)
	}

	if _, err := domain.ParseGameFormat(cfg.Game.Format); err != nil {
		return nil, fmt.Errorf("validate settings file %s: %w", path, err)
	}

	cfg.applyProcessingDefaults(logger)
	return &cfg, nil
}

// applyProcessingDefaults fills the optional processing fields, warning when
// a configured value was unusable.
func (c *Config) applyProcessingDefaults(logger *slog.Logger) {
	if c.Processing.MaxWorkers < 1 {
		if c.Processing.MaxWorkers != 0 {
			logger.Warn("invalid max_workers, using host core count",
				"configured", c.Processing.MaxWorkers, "default", runtime.NumCPU())
		}
		c.Processing.MaxWorkers = runtime.NumCPU()
	}

	if c.Processing.EvaluationWorkers < 1 {
		if c.Processing.EvaluationWorkers != 0 {
			logger.Warn("invalid evaluation_workers, using default",
				"configured", c.Processing.EvaluationWorkers, "default", DefaultEvaluationWorkers)
		}
		c.Processing.EvaluationWorkers = DefaultEvaluationWorkers
	}

	if c.Processing.MaxRetries == nil || *c.Processing.MaxRetries < 0 {
		if c.Processing.MaxRetries != nil {
			logger.Warn("invalid max_retries, using default",
				"configured", *c.Processing.MaxRetries, "default", DefaultMaxRetries)
		}
		retries := DefaultMaxRetries
		c.Processing.MaxRetries = &retries
	}
}

// GameInfo builds the run's GameInfo for the given game identifier from the
// configured format and player count.
func (c *Config) GameInfo(gameID string) domain.GameInfo {
	format, _ := domain.ParseGameFormat(c.Game.Format)
	return domain.GameInfo{
		GameID:      gameID,
		Format:      format,
		PlayerCount: c.Game.PlayerCount,
	}
}

// criteriaFile mirrors the criteria YAML layout: a list of common criteria
// plus game-specific criteria keyed by player-count strings.
type criteriaFile struct {
	CommonCriteria       []criterionYAML            `yaml:"common_criteria"`
	GameSpecificCriteria map[string][]criterionYAML `yaml:"game_specific_criteria"`
}

type criterionYAML struct {
	Name            string `yaml:"name"`
	Description     string `yaml:"description"`
	RankingType     string `yaml:"ranking_type"`
	Order           *int   `yaml:"order"`
	ApplicableGames []int  `yaml:"applicable_games"`
}

// defaultApplicableCounts applies to common criteria that do not name their
// player counts explicitly.
var defaultApplicableCounts = []int{5, 13}

// playerCountPattern extracts the leading player count from keys like
// "13_player", "13-player", or plain "13".
var playerCountPattern = regexp.MustCompile(`(\d+)`)

// LoadCriteria reads and validates the criteria definition file, returning
// the combined set of common and game-specific criteria in file order.
func LoadCriteria(path string) (domain.CriteriaSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read criteria file: %w", err)
	}

	var file criteriaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse criteria file %s: %w", path, err)
	}

	var set domain.CriteriaSet
	for _, raw := range file.CommonCriteria {
		counts := raw.ApplicableGames
		if len(counts) == 0 {
			counts = defaultApplicableCounts
		}
		c, err := buildCriterion(raw, counts, domain.CategoryCommon)
		if err != nil {
			return nil, err
		}
		set = append(set, c)
	}

	// Map iteration order is random; keep the set deterministic.
	keys := make([]string, 0, len(file.GameSpecificCriteria))
	for key := range file.GameSpecificCriteria {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		list := file.GameSpecificCriteria[key]
		match := playerCountPattern.FindString(key)
		if match == "" {
			return nil, fmt.Errorf("%w: no player count in key %q",
				domain.ErrInvalidCriterion, key)
		}
		count, err := strconv.Atoi(match)
		if err != nil {
			return nil, fmt.Errorf("%w: player count %q: %v",
				domain.ErrInvalidCriterion, key, err)
		}
		for _, raw := range list {
			c, err := buildCriterion(raw, []int{count}, domain.CategoryGameSpecific)
			if err != nil {
				return nil, err
			}
			set = append(set, c)
		}
	}

	return set, nil
}

// buildCriterion validates one raw criterion entry.
func buildCriterion(
	raw criterionYAML,
	counts []int,
	category domain.CriterionCategory,
) (domain.Criterion, error) {
	if raw.Name == "" || raw.Description == "" {
		return domain.Criterion{}, fmt.Errorf("%w: name and description are required",
			domain.ErrInvalidCriterion)
	}

	rankingType, err := domain.ParseRankingType(raw.RankingType)
	if err != nil {
		return domain.Criterion{}, fmt.Errorf("criterion %q: %w", raw.Name, err)
	}

	order := domain.DefaultCriterionOrder
	if raw.Order != nil {
		order = *raw.Order
	}

	return domain.Criterion{
		Name:             raw.Name,
		Description:      raw.Description,
		RankingType:      rankingType,
		ApplicableCounts: counts,
		Order:            order,
		Category:         category,
	}, nil
}
