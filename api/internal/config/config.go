package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Rubric dimensions accepted in PASS_THRESHOLDS.
var dimensions = []string{"age_appropriateness", "correctness", "clarity", "coverage"}

type Config struct {
	Port string

	LLMProvider   string
	ModelName     string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiModel   string
	DeepSeekKey   string
	DeepSeekModel string

	Pipeline Pipeline

	StoragePath       string
	DatabaseURL       string
	ArtifactCacheSize int

	RunTimeout time.Duration
	LogLevel   string
	LogFormat  string

	TelegramBotToken string
	WebhookURL       string
}

// Pipeline is the part of the config the orchestrator and agents consume.
// Values from the YAML file named by PIPELINE_CONFIG sit between defaults and env.
type Pipeline struct {
	MaxGenerationRetries  int
	MaxRefinementAttempts int
	PassThresholds        map[string]int
	MinAverageScore       float64
	Temperature           float64
	LLMCallTimeout        time.Duration
	RepairJSON            bool
}

func DefaultPipeline() Pipeline {
	return Pipeline{
		MaxGenerationRetries:  1,
		MaxRefinementAttempts: 2,
		PassThresholds: map[string]int{
			"age_appropriateness": 4,
			"correctness":         5,
			"clarity":             4,
			"coverage":            3,
		},
		MinAverageScore: 4.0,
		Temperature:     0.7,
		LLMCallTimeout:  60 * time.Second,
	}
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// Load reads the environment, applies PIPELINE_CONFIG if set, then validates.
func Load() (*Config, error) {
	var errs []error
	intEnv := func(k string, def int) int {
		v, err := strconv.Atoi(getEnv(k, strconv.Itoa(def)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
			return def
		}
		return v
	}
	durEnv := func(k string, def time.Duration) time.Duration {
		v, err := time.ParseDuration(getEnv(k, def.String()))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
			return def
		}
		return v
	}

	p := DefaultPipeline()
	if path := getEnv("PIPELINE_CONFIG", ""); path != "" {
		if err := p.mergeFile(path); err != nil {
			return nil, err
		}
	}
	p.MaxGenerationRetries = intEnv("MAX_GENERATION_RETRIES", p.MaxGenerationRetries)
	p.MaxRefinementAttempts = intEnv("MAX_REFINEMENT_ATTEMPTS", p.MaxRefinementAttempts)
	p.LLMCallTimeout = durEnv("LLM_CALL_TIMEOUT", p.LLMCallTimeout)
	if v := getEnv("PASS_THRESHOLDS", ""); v != "" {
		th, err := ParseThresholds(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PASS_THRESHOLDS: %w", err))
		} else {
			for k, n := range th {
				p.PassThresholds[k] = n
			}
		}
	}
	if v := getEnv("MIN_AVERAGE_SCORE", ""); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MIN_AVERAGE_SCORE: %w", err))
		} else {
			p.MinAverageScore = f
		}
	}
	if v := getEnv("LLM_REPAIR_JSON", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LLM_REPAIR_JSON: %w", err))
		} else {
			p.RepairJSON = b
		}
	}

	cfg := &Config{
		Port: getEnv("PORT", "8000"),

		LLMProvider:   strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		ModelName:     getEnv("MODEL_NAME", ""),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		DeepSeekKey:   getEnv("DEEPSEEK_API_KEY", ""),
		DeepSeekModel: getEnv("DEEPSEEK_MODEL", "deepseek-chat"),

		Pipeline: p,

		StoragePath:       getEnv("STORAGE_PATH", "./data/artifacts.json"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		ArtifactCacheSize: intEnv("ARTIFACT_CACHE_SIZE", 256),

		RunTimeout: durEnv("RUN_TIMEOUT", 10*time.Minute),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "text"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}
	if cfg.ModelName != "" {
		switch cfg.LLMProvider {
		case "gemini":
			cfg.GeminiModel = cfg.ModelName
		case "deepseek":
			cfg.DeepSeekModel = cfg.ModelName
		default:
			cfg.OpenAIModel = cfg.ModelName
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Model returns the model identifier of the selected provider.
func (c *Config) Model() string {
	switch c.LLMProvider {
	case "gemini":
		return c.GeminiModel
	case "deepseek":
		return c.DeepSeekModel
	}
	return c.OpenAIModel
}

func (c *Config) Validate() error {
	var errs []error
	switch c.LLMProvider {
	case "openai", "gpt":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("missing required env OPENAI_API_KEY"))
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("missing required env GEMINI_API_KEY"))
		}
	case "deepseek":
		if c.DeepSeekKey == "" {
			errs = append(errs, errors.New("missing required env DEEPSEEK_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q: use openai, gemini or deepseek", c.LLMProvider))
	}
	if err := c.Pipeline.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.ArtifactCacheSize < 0 {
		errs = append(errs, errors.New("ARTIFACT_CACHE_SIZE must be >= 0"))
	}
	return errors.Join(errs...)
}

func (p Pipeline) Validate() error {
	var errs []error
	if p.MaxGenerationRetries < 0 {
		errs = append(errs, errors.New("max_generation_retries must be >= 0"))
	}
	if p.MaxRefinementAttempts < 0 {
		errs = append(errs, errors.New("max_refinement_attempts must be >= 0"))
	}
	for _, d := range dimensions {
		v, ok := p.PassThresholds[d]
		if !ok {
			errs = append(errs, fmt.Errorf("pass threshold for %s is missing", d))
			continue
		}
		if v < 1 || v > 5 {
			errs = append(errs, fmt.Errorf("pass threshold for %s must be 1..5, got %d", d, v))
		}
	}
	for k := range p.PassThresholds {
		if !isDimension(k) {
			errs = append(errs, fmt.Errorf("unknown rubric dimension %q", k))
		}
	}
	if p.MinAverageScore < 1 || p.MinAverageScore > 5 {
		errs = append(errs, fmt.Errorf("min_average_score must be 1..5, got %v", p.MinAverageScore))
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be 0..2, got %v", p.Temperature))
	}
	if p.LLMCallTimeout < 0 {
		errs = append(errs, errors.New("llm_call_timeout must be >= 0"))
	}
	return errors.Join(errs...)
}

// ParseThresholds parses "age_appropriateness=4,correctness=5".
func ParseThresholds(s string) (map[string]int, error) {
	out := map[string]int{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("bad entry %q, want name=score", part)
		}
		k = strings.TrimSpace(k)
		if !isDimension(k) {
			return nil, fmt.Errorf("unknown rubric dimension %q", k)
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

func isDimension(k string) bool {
	for _, d := range dimensions {
		if d == k {
			return true
		}
	}
	return false
}

// pipelineFile mirrors Pipeline with optional fields so absent keys keep defaults.
type pipelineFile struct {
	MaxGenerationRetries  *int           `yaml:"max_generation_retries"`
	MaxRefinementAttempts *int           `yaml:"max_refinement_attempts"`
	PassThresholds        map[string]int `yaml:"pass_thresholds"`
	MinAverageScore       *float64       `yaml:"min_average_score"`
	Temperature           *float64       `yaml:"temperature"`
	LLMCallTimeout        string         `yaml:"llm_call_timeout"`
	RepairJSON            *bool          `yaml:"repair_json"`
}

func (p *Pipeline) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read pipeline config: %w", err)
	}
	var f pipelineFile
	dec := yaml.NewDecoder(strings.NewReader(string(b)))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return fmt.Errorf("parse pipeline config %s: %w", path, err)
	}
	if f.MaxGenerationRetries != nil {
		p.MaxGenerationRetries = *f.MaxGenerationRetries
	}
	if f.MaxRefinementAttempts != nil {
		p.MaxRefinementAttempts = *f.MaxRefinementAttempts
	}
	for k, v := range f.PassThresholds {
		p.PassThresholds[k] = v
	}
	if f.MinAverageScore != nil {
		p.MinAverageScore = *f.MinAverageScore
	}
	if f.Temperature != nil {
		p.Temperature = *f.Temperature
	}
	if f.LLMCallTimeout != "" {
		d, err := time.ParseDuration(f.LLMCallTimeout)
		if err != nil {
			return fmt.Errorf("parse pipeline config %s: llm_call_timeout: %w", path, err)
		}
		p.LLMCallTimeout = d
	}
	if f.RepairJSON != nil {
		p.RepairJSON = *f.RepairJSON
	}
	return nil
}
