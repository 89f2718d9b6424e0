package ai

import (
	"context"

	"fitgauge/internal/types"
)

// NarrativeRequest is the fully constrained prompt pair handed to the
// provider. The constraint layer upstream owns prompt construction; the
// provider only executes it against the fixed response schema.
type NarrativeRequest struct {
	SystemPrompt string
	UserPrompt   string
}

// NarrativeProvider is the capability interface over the external
// generative-text service. All methods return token usage information;
// callers can ignore it if not needed.
type NarrativeProvider interface {
	GenerateNarrative(ctx context.Context, req NarrativeRequest) (types.Narrative, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
