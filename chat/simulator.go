package chat

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"golang.org/x/time/rate"
)

// Responder produces a model's reply to a prompt, passing it to emit in
// chunks as it is generated.
type Responder interface {
	Respond(ctx context.Context, model, prompt string, emit func(chunk string) error) error
}

// Simulator is a Responder that fabricates replies locally. Output is a pure
// function of model and prompt, paced by a token-rate limiter.
type Simulator struct {
	limiter *rate.Limiter
}

// NewSimulator emits at most tokensPerSecond words per second across all
// streams. A non-positive rate disables pacing.
func NewSimulator(tokensPerSecond float64, burst int) *Simulator {
	limit := rate.Limit(tokensPerSecond)
	if tokensPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Simulator{limiter: rate.NewLimiter(limit, burst)}
}

var openers = []string{
	"Here is my take.",
	"Good question.",
	"Let me think about that.",
	"Short answer first.",
}

// Reply is the full text Respond streams for model and prompt.
func Reply(model, prompt string) string {
	provider, name, ok := strings.Cut(model, ":")
	if !ok {
		provider, name = "unknown", model
	}
	h := fnv.New32a()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	opener := openers[h.Sum32()%uint32(len(openers))]

	summary := strings.Join(strings.Fields(prompt), " ")
	if r := []rune(summary); len(r) > 80 {
		summary = string(r[:80]) + "..."
	}
	return fmt.Sprintf("%s This is a simulated reply from %s (%s) to: %q", opener, name, provider, summary)
}

func (s *Simulator) Respond(ctx context.Context, model, prompt string, emit func(string) error) error {
	words := strings.Fields(Reply(model, prompt))
	for i, w := range words {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if i < len(words)-1 {
			w += " "
		}
		if err := emit(w); err != nil {
			return err
		}
	}
	return nil
}
