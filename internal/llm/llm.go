package llm

import (
	"context"
	"errors"
	"fmt"
)

// SystemInstruction is sent with every question.
const SystemInstruction = "Answer only from the supplied context. If the answer is not present in the context, say so explicitly."

// ErrGateway wraps every failure to obtain an answer from the provider.
var ErrGateway = errors.New("llm gateway failure")

// Gateway answers a question against a block of context text.
// Implementations make exactly one upstream request per call.
type Gateway interface {
	Ask(ctx context.Context, systemInstruction, contextText, question string) (string, error)
}

// PlaceholderGateway is used when no provider is configured.
type PlaceholderGateway struct{}

// Ask always fails with ErrGateway.
func (PlaceholderGateway) Ask(_ context.Context, _, _, _ string) (string, error) {
	return "", fmt.Errorf("%w: no LLM provider configured", ErrGateway)
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, systemInstruction, contextText, question string) (string, error)

func (f GatewayFunc) Ask(ctx context.Context, systemInstruction, contextText, question string) (string, error) {
	return f(ctx, systemInstruction, contextText, question)
}
