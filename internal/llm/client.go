package llm

import (
	"context"
)

// LLMClient is the single pluggable generation capability the pipeline
// depends on. One call, no streaming; a failure propagates as an error so
// the caller can fall through to its next stage.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
