package cracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/fieldworks/formfill"
)

// The model answers with this token when the message does not answer the
// question.
const noAnswer = "NONE"

// Verdicts are kept per message ID so that the Matches/Extract pair costs
// one model call. The memo resets wholesale at this size; a split pair
// then costs one extra call, nothing worse.
const memoLimit = 1024

const llmPromptFormat = `You extract form answers from chat messages.

The user was asked:
%s

The user's message:
%s

Reply with only the answer value, nothing around it.%s
If the message does not answer the question, reply with exactly %s.`

// LLM is a cracker that reads the answer out of free-form chat with a
// language model. Where the default TextCracker needs the message to be
// the bare value, an LLM cracker accepts "I turned 25 last week" as an
// answer to "How old are you?" and extracts "25" for conversion.
//
// One model call per message decides both relevance and the extracted
// raw value: the model either returns the value or a no-answer token.
// A failed model call claims the message and surfaces the failure from
// Extract, so outages land in the field's converting budget instead of
// looping as unrelated messages.
//
// An LLM is safe for concurrent use by fills sharing the Form it is
// bound to.
type LLM struct {
	model    llms.Model
	question string
	hint     string
	timeout  time.Duration

	mu   sync.Mutex
	memo map[string]llmVerdict
}

type llmVerdict struct {
	raw     string
	answers bool
	err     error
}

// LLMOption configures an LLM cracker.
type LLMOption func(*LLM)

// WithHint describes the expected answer shape, e.g. "a whole number of
// years" or "a date". The hint is embedded in the extraction prompt.
func WithHint(hint string) LLMOption {
	return func(c *LLM) { c.hint = hint }
}

// WithTimeout bounds each model call. Zero leaves calls bounded only by
// the fill's context.
func WithTimeout(d time.Duration) LLMOption {
	return func(c *LLM) { c.timeout = d }
}

// NewLLM returns an LLM cracker for one field. The question is the
// prompt the user was asked; the model reads the user's message against
// it.
func NewLLM(model llms.Model, question string, opts ...LLMOption) *LLM {
	c := &LLM{
		model:    model,
		question: question,
		memo:     make(map[string]llmVerdict),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Matches reports whether the model read an answer out of the message.
func (c *LLM) Matches(ctx context.Context, msg *formfill.Message) bool {
	return c.verdict(ctx, msg).answers
}

// Extract returns the raw answer the model read out of the message.
func (c *LLM) Extract(ctx context.Context, msg *formfill.Message) (any, error) {
	v := c.verdict(ctx, msg)
	if v.err != nil {
		return nil, v.err
	}
	if !v.answers {
		return nil, fmt.Errorf("cracker: message %s does not answer the question", msg.ID)
	}
	return v.raw, nil
}

func (c *LLM) verdict(ctx context.Context, msg *formfill.Message) llmVerdict {
	c.mu.Lock()
	if v, ok := c.memo[msg.ID]; ok {
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	v := c.ask(ctx, msg)

	c.mu.Lock()
	if len(c.memo) >= memoLimit {
		c.memo = make(map[string]llmVerdict, memoLimit)
	}
	c.memo[msg.ID] = v
	c.mu.Unlock()
	return v
}

func (c *LLM) ask(ctx context.Context, msg *formfill.Message) llmVerdict {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, c.prompt(msg), llms.WithTemperature(0))
	if err != nil {
		return llmVerdict{answers: true, err: fmt.Errorf("cracker: model call: %w", err)}
	}

	raw := strings.TrimSpace(out)
	if strings.EqualFold(raw, noAnswer) {
		return llmVerdict{answers: false}
	}
	return llmVerdict{raw: raw, answers: true}
}

func (c *LLM) prompt(msg *formfill.Message) string {
	hint := ""
	if c.hint != "" {
		hint = fmt.Sprintf(" The answer should be %s.", c.hint)
	}
	return fmt.Sprintf(llmPromptFormat, c.question, msg.Text, hint, noAnswer)
}
