// Package llm samples text from a served fine-tuned model using langchaingo.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/raphaelgruber/jaketune/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Sampling settings used for every generation.
const (
	Temperature       = 0.7
	TopP              = 0.9
	RepetitionPenalty = 1.1
	MaxLength         = 1000
)

// Model wraps langchaingo LLM for text generation.
type Model struct {
	llm       llms.Model
	modelName string
}

// NewModel creates an LLM model based on configuration.
func NewModel(ctx context.Context, cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, cfgErr := awsconfig.LoadDefaultConfig(ctx)
		if cfgErr != nil {
			return nil, fmt.Errorf("load aws config: %w", cfgErr)
		}
		model, err = bedrock.New(
			bedrock.WithClient(bedrockruntime.NewFromConfig(awsCfg)),
			bedrock.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
	}, nil
}

// SamplingOptions returns the fixed sampling call options.
func SamplingOptions() []llms.CallOption {
	return []llms.CallOption{
		llms.WithTemperature(Temperature),
		llms.WithTopP(TopP),
		llms.WithRepetitionPenalty(RepetitionPenalty),
		// Providers differ in which of the two limits they honor.
		llms.WithMaxLength(MaxLength),
		llms.WithMaxTokens(MaxLength),
	}
}

// Generate sends a fully rendered prompt and returns the completion.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	slog.Debug("generating sample", "model", m.modelName, "prompt_len", len(prompt))

	start := time.Now()
	response, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt, SamplingOptions()...)
	if err != nil {
		slog.Warn("generation failed", "model", m.modelName, "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return "", fmt.Errorf("generate: %w", err)
	}

	slog.Debug("generation complete", "model", m.modelName, "duration_ms", time.Since(start).Milliseconds())
	return response, nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}
