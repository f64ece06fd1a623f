// Package generator turns free-form LLM output into validated four-choice questions.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"

	"trivia-quiz-service/internal/domain"
)

const (
	DefaultAttempts   = 3
	DefaultBaseDelay  = time.Second
	DefaultMultiplier = 1.5
	DefaultModel      = "gemini-2.5-flash"
)

// TextGenerator is the external text generation capability.
type TextGenerator interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

// Options tunes the retry budget; zero values fall back to the defaults.
type Options struct {
	Model      string
	Attempts   int
	BaseDelay  time.Duration
	Multiplier float64
	Logger     *slog.Logger
}

// Generator asks a TextGenerator for one question at a time.
type Generator struct {
	client     TextGenerator
	model      string
	attempts   int
	baseDelay  time.Duration
	multiplier float64
	validate   *validator.Validate
	logger     *slog.Logger
}

func New(client TextGenerator, opts Options) *Generator {
	g := &Generator{
		client:     client,
		model:      opts.Model,
		attempts:   opts.Attempts,
		baseDelay:  opts.BaseDelay,
		multiplier: opts.Multiplier,
		validate:   validator.New(),
		logger:     opts.Logger,
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.attempts <= 0 {
		g.attempts = DefaultAttempts
	}
	if g.baseDelay <= 0 {
		g.baseDelay = DefaultBaseDelay
	}
	if g.multiplier < 1 {
		g.multiplier = DefaultMultiplier
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// payload is the object the model is asked to return.
type payload struct {
	Text       string   `json:"text" validate:"required"`
	Choices    []string `json:"choices" validate:"len=4,dive,required"`
	Correct    string   `json:"correct" validate:"required,oneof=A B C D"`
	Difficulty int      `json:"difficulty" validate:"omitempty,min=1,max=5"`
}

// Generate produces one validated question, retrying transport and parse
// failures with exponential backoff until the attempt budget is spent.
func (g *Generator) Generate(ctx context.Context, topic string) (domain.GeneratedQuestion, error) {
	prompt := BuildPrompt(topic)

	var (
		result  domain.GeneratedQuestion
		attempt int
		lastErr error
	)
	op := func() error {
		attempt++
		q, err := g.attemptOnce(ctx, prompt)
		if err != nil {
			lastErr = err
			g.logger.Warn("question generation attempt failed", "attempt", attempt, "of", g.attempts, "err", err)
			return err
		}
		g.logger.Info("question generation attempt succeeded", "attempt", attempt)
		result = q
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(g.newBackOff(), ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(lastErr, ctxErr) {
			lastErr = fmt.Errorf("%w (last failure: %v)", ctxErr, lastErr)
		}
		return domain.GeneratedQuestion{}, &GenerationError{Attempts: attempt, Err: lastErr}
	}
	return result, nil
}

// newBackOff yields base, base*m, base*m^2... with no jitter, limited to attempts-1 retries.
func (g *Generator) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.baseDelay
	b.Multiplier = g.multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = time.Hour
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, uint64(g.attempts-1))
}

func (g *Generator) attemptOnce(ctx context.Context, prompt string) (domain.GeneratedQuestion, error) {
	raw, err := g.client.GenerateText(ctx, g.model, prompt)
	if err != nil {
		return domain.GeneratedQuestion{}, &TransportError{Err: err}
	}
	return g.Parse(raw)
}

// Parse extracts, normalises and validates a question from raw model output.
func (g *Generator) Parse(raw string) (domain.GeneratedQuestion, error) {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return domain.GeneratedQuestion{}, &ParseError{Reason: "no JSON object in response"}
	}

	var p payload
	if err := json.Unmarshal(obj, &p); err != nil {
		return domain.GeneratedQuestion{}, &ParseError{Reason: "decode question object", Err: err}
	}

	p.Text = strings.TrimSpace(p.Text)
	p.Correct = strings.ToUpper(strings.TrimSpace(p.Correct))
	for i := range p.Choices {
		p.Choices[i] = strings.TrimSpace(p.Choices[i])
	}
	if err := g.validate.Struct(p); err != nil {
		return domain.GeneratedQuestion{}, &ParseError{Reason: "invalid question fields", Err: err}
	}

	q := domain.GeneratedQuestion{
		Text:       p.Text,
		Correct:    domain.Label(p.Correct),
		Difficulty: p.Difficulty,
	}
	copy(q.Choices[:], p.Choices)
	return q, nil
}

// BuildPrompt renders the instruction sent to the model.
func BuildPrompt(topic string) string {
	var b strings.Builder
	b.WriteString("You will respond with ONLY a valid JSON object, no markdown, no explanation.\n\n")
	b.WriteString("Generate one family-friendly multiple-choice trivia question")
	if t := strings.TrimSpace(topic); t != "" {
		b.WriteString(" about ")
		b.WriteString(t)
	}
	b.WriteString(".\n\n")
	b.WriteString(`The object must have exactly these fields:
{
  "text": "the question",
  "choices": ["choice A", "choice B", "choice C", "choice D"],
  "correct": "one of A, B, C, D",
  "difficulty": 1
}

Rules:
- "choices" has exactly 4 distinct strings in A, B, C, D order
- "correct" is the label of the single correct choice
- "difficulty" is an integer from 1 (easy) to 5 (hard)`)
	return b.String()
}
