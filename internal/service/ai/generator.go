package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"go.uber.org/zap"

	"github.com/jobadwizard/backend/internal/config"
)

var (
	ErrCredentialMissing = errors.New("generation credential missing")
	ErrEmptyResponse     = errors.New("generation returned empty content")
	ErrUnavailable       = errors.New("generation temporarily unavailable")
)

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// unavailable fails every call with the error captured at startup, so a
// missing credential surfaces on the first generation rather than at boot.
type unavailable struct {
	err error
}

func (u unavailable) Generate(context.Context, string) (string, error) {
	return "", u.err
}

// NewGenerator builds the configured provider wrapped in a circuit breaker.
func NewGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) *BreakerGenerator {
	var base Generator

	switch cfg.Generation.Provider {
	case config.ProviderArk:
		base = newModelGenerator(ctx, "ark", cfg.Ark.Enabled(),
			"set ARK_API_KEY (or ARK_ACCESS_KEY/ARK_SECRET_KEY) and ARK_MODEL",
			func(ctx context.Context) (model.BaseChatModel, error) { return cfg.Ark.NewChatModel(ctx) },
			logger)
	default:
		base = newModelGenerator(ctx, "openai", cfg.OpenAI.Enabled(),
			"set OPENAI_API_KEY",
			cfg.OpenAI.NewChatModel,
			logger)
	}

	logger.Info("generation provider ready",
		zap.String("provider", cfg.Generation.Provider),
		zap.Uint32("breaker_failures", cfg.Generation.BreakerFailures),
		zap.Duration("breaker_cooldown", cfg.Generation.BreakerCooldown),
	)

	return NewBreakerGenerator(base, BreakerConfig{
		Name:                cfg.Generation.Provider,
		ConsecutiveFailures: cfg.Generation.BreakerFailures,
		Cooldown:            cfg.Generation.BreakerCooldown,
	}, logger)
}

// newModelGenerator runs the provider's chat model through the generation
// chain. Missing credentials and construction errors are reported on the
// first Generate call.
func newModelGenerator(
	ctx context.Context,
	name string,
	enabled bool,
	hint string,
	build func(context.Context) (model.BaseChatModel, error),
	logger *zap.Logger,
) Generator {
	if !enabled {
		logger.Warn(name + " credentials not set, generation will fail until they are configured")
		return unavailable{err: fmt.Errorf("%w: %s", ErrCredentialMissing, hint)}
	}

	chatModel, err := build(ctx)
	if err != nil {
		logger.Warn("failed to create chat model", zap.String("provider", name), zap.Error(err))
		return unavailable{err: fmt.Errorf("create %s chat model: %w", name, err)}
	}

	gen, err := NewChainGenerator(ctx, chatModel)
	if err != nil {
		logger.Warn("failed to compile generation chain", zap.String("provider", name), zap.Error(err))
		return unavailable{err: err}
	}
	return gen
}
