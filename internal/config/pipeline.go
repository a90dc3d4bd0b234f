package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvPipelineMaxQARetries        = "ADJUSTER_PIPELINE_MAX_QA_RETRIES"
	EnvPipelineConfidenceThreshold = "ADJUSTER_PIPELINE_CONFIDENCE_THRESHOLD"
	EnvPipelineMaxToolRounds       = "ADJUSTER_PIPELINE_MAX_TOOL_ROUNDS"
	EnvPipelineSelfHealAttempts    = "ADJUSTER_PIPELINE_SELF_HEAL_ATTEMPTS"
	EnvPipelineSources             = "ADJUSTER_PIPELINE_SOURCES"
	EnvPipelineMaxSteps            = "ADJUSTER_PIPELINE_MAX_STEPS"
	EnvPipelineModelTimeout        = "ADJUSTER_PIPELINE_MODEL_TIMEOUT"
	EnvPipelineToolTimeout         = "ADJUSTER_PIPELINE_TOOL_TIMEOUT"
	EnvPipelinePublishTimeout      = "ADJUSTER_PIPELINE_PUBLISH_TIMEOUT"
	EnvPipelineNegotiationTable    = "ADJUSTER_PIPELINE_NEGOTIATION_TABLE"
	EnvPipelineReserveURL          = "ADJUSTER_PIPELINE_RESERVE_URL"
)

// PipelineConfig holds the orchestration bounds and collaborator settings for
// claim processing runs.
type PipelineConfig struct {
	MaxQARetries        int    `toml:"max_qa_retries"`
	ConfidenceThreshold int    `toml:"confidence_threshold"`
	MaxToolRounds       int    `toml:"max_tool_rounds"`
	SelfHealAttempts    int    `toml:"self_heal_attempts"`
	Sources             int    `toml:"sources"`
	MaxSteps            int    `toml:"max_steps"`
	ModelTimeout        string `toml:"model_timeout"`
	ToolTimeout         string `toml:"tool_timeout"`
	PublishTimeout      string `toml:"publish_timeout"`
	NegotiationTable    string `toml:"negotiation_table"`
	ReserveURL          string `toml:"reserve_url"`
}

// ModelTimeoutDuration returns ModelTimeout as a time.Duration.
func (c *PipelineConfig) ModelTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ModelTimeout)
	return d
}

// ToolTimeoutDuration returns ToolTimeout as a time.Duration.
func (c *PipelineConfig) ToolTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ToolTimeout)
	return d
}

// PublishTimeoutDuration returns PublishTimeout as a time.Duration.
func (c *PipelineConfig) PublishTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.PublishTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.MaxQARetries != 0 {
		c.MaxQARetries = overlay.MaxQARetries
	}
	if overlay.ConfidenceThreshold != 0 {
		c.ConfidenceThreshold = overlay.ConfidenceThreshold
	}
	if overlay.MaxToolRounds != 0 {
		c.MaxToolRounds = overlay.MaxToolRounds
	}
	if overlay.SelfHealAttempts != 0 {
		c.SelfHealAttempts = overlay.SelfHealAttempts
	}
	if overlay.Sources != 0 {
		c.Sources = overlay.Sources
	}
	if overlay.MaxSteps != 0 {
		c.MaxSteps = overlay.MaxSteps
	}
	if overlay.ModelTimeout != "" {
		c.ModelTimeout = overlay.ModelTimeout
	}
	if overlay.ToolTimeout != "" {
		c.ToolTimeout = overlay.ToolTimeout
	}
	if overlay.PublishTimeout != "" {
		c.PublishTimeout = overlay.PublishTimeout
	}
	if overlay.NegotiationTable != "" {
		c.NegotiationTable = overlay.NegotiationTable
	}
	if overlay.ReserveURL != "" {
		c.ReserveURL = overlay.ReserveURL
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.MaxQARetries == 0 {
		c.MaxQARetries = 2
	}
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = 3
	}
	if c.MaxToolRounds == 0 {
		c.MaxToolRounds = 3
	}
	if c.SelfHealAttempts == 0 {
		c.SelfHealAttempts = 1
	}
	if c.Sources == 0 {
		c.Sources = 3
	}
	if c.MaxSteps == 0 {
		c.MaxSteps = 50
	}
	if c.ModelTimeout == "" {
		c.ModelTimeout = "2m"
	}
	if c.ToolTimeout == "" {
		c.ToolTimeout = "30s"
	}
	if c.PublishTimeout == "" {
		c.PublishTimeout = "10s"
	}
	if c.NegotiationTable == "" {
		c.NegotiationTable = "sample_data/negotiation_stats.csv"
	}
	if c.ReserveURL == "" {
		c.ReserveURL = "http://localhost:8001/predict"
	}
}

func (c *PipelineConfig) loadEnv() {
	setInt := func(envVar string, target *int) {
		if v := os.Getenv(envVar); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*target = n
			}
		}
	}
	setString := func(envVar string, target *string) {
		if v := os.Getenv(envVar); v != "" {
			*target = v
		}
	}

	setInt(EnvPipelineMaxQARetries, &c.MaxQARetries)
	setInt(EnvPipelineConfidenceThreshold, &c.ConfidenceThreshold)
	setInt(EnvPipelineMaxToolRounds, &c.MaxToolRounds)
	setInt(EnvPipelineSelfHealAttempts, &c.SelfHealAttempts)
	setInt(EnvPipelineSources, &c.Sources)
	setInt(EnvPipelineMaxSteps, &c.MaxSteps)
	setString(EnvPipelineModelTimeout, &c.ModelTimeout)
	setString(EnvPipelineToolTimeout, &c.ToolTimeout)
	setString(EnvPipelinePublishTimeout, &c.PublishTimeout)
	setString(EnvPipelineNegotiationTable, &c.NegotiationTable)
	setString(EnvPipelineReserveURL, &c.ReserveURL)
}

func (c *PipelineConfig) validate() error {
	if c.MaxQARetries < 0 {
		return fmt.Errorf("max_qa_retries cannot be negative")
	}
	if c.ConfidenceThreshold < 1 || c.ConfidenceThreshold > 5 {
		return fmt.Errorf("confidence_threshold must be in [1, 5]: %d", c.ConfidenceThreshold)
	}
	if c.MaxToolRounds < 1 {
		return fmt.Errorf("max_tool_rounds must be positive")
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("max_steps must be positive")
	}
	if _, err := time.ParseDuration(c.ModelTimeout); err != nil {
		return fmt.Errorf("invalid model_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.ToolTimeout); err != nil {
		return fmt.Errorf("invalid tool_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.PublishTimeout); err != nil {
		return fmt.Errorf("invalid publish_timeout: %w", err)
	}
	return nil
}
