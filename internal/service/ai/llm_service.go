package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ChainGenerator runs the prompt through an eino chain ending in a chat model.
type ChainGenerator struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewChainGenerator compiles a template -> chat model chain.
func NewChainGenerator(ctx context.Context, chatModel model.BaseChatModel) (*ChainGenerator, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile generation chain: %w", err)
	}

	return &ChainGenerator{chain: runnable}, nil
}

// Generate implements Generator.
func (g *ChainGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := g.chain.Invoke(ctx, map[string]any{"prompt": prompt})
	if err != nil {
		return "", fmt.Errorf("failed to run generation chain: %w", err)
	}
	if msg == nil {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
