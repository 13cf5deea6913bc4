// Package cracker provides message crackers beyond the default text one.
//
// A cracker decides whether a chat message answers the field being
// filled and pulls a raw value out of it. The zoo:
//
//   - Regexp matches a pattern and extracts its first capture group.
//   - New builds a cracker from two closures.
//   - LLM asks a language model to read the answer out of free-form
//     chat, so "I turned 25 last week" can fill an integer field.
//
// Bind a cracker to a field directly or through Builder.BindCracker:
//
//	form, err := formfill.NewBuilder[Registration]("registration", convert.Defaults()).
//	    Add(...).
//	    BindCracker("age", cracker.NewLLM(model, "How old are you?",
//	        cracker.WithHint("a whole number of years"))).
//	    Build()
package cracker

import (
	"context"
	"fmt"
	"regexp"

	"github.com/fieldworks/formfill"
)

// New assembles a cracker from two closures. A nil match claims every
// message; extract must be non-nil.
func New(
	match func(ctx context.Context, msg *formfill.Message) bool,
	extract func(ctx context.Context, msg *formfill.Message) (any, error),
) formfill.Cracker {
	return &funcCracker{match: match, extract: extract}
}

type funcCracker struct {
	match   func(ctx context.Context, msg *formfill.Message) bool
	extract func(ctx context.Context, msg *formfill.Message) (any, error)
}

func (c *funcCracker) Matches(ctx context.Context, msg *formfill.Message) bool {
	if c.match == nil {
		return true
	}
	return c.match(ctx, msg)
}

func (c *funcCracker) Extract(ctx context.Context, msg *formfill.Message) (any, error) {
	return c.extract(ctx, msg)
}

// Regexp returns a cracker that treats a message as relevant when the
// pattern matches its text. Extract returns the first capture group, or
// the whole match for patterns without groups.
func Regexp(pattern string) (formfill.Cracker, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("cracker: compile pattern: %w", err)
	}
	return &regexpCracker{re: re}, nil
}

// MustRegexp is like Regexp but panics on a bad pattern.
// Use this for crackers defined at init time.
func MustRegexp(pattern string) formfill.Cracker {
	c, err := Regexp(pattern)
	if err != nil {
		panic(err)
	}
	return c
}

type regexpCracker struct {
	re *regexp.Regexp
}

func (c *regexpCracker) Matches(_ context.Context, msg *formfill.Message) bool {
	return c.re.MatchString(msg.Text)
}

func (c *regexpCracker) Extract(_ context.Context, msg *formfill.Message) (any, error) {
	m := c.re.FindStringSubmatch(msg.Text)
	if m == nil {
		return nil, fmt.Errorf("cracker: pattern %q did not match message %s", c.re.String(), msg.ID)
	}
	if len(m) > 1 {
		return m[1], nil
	}
	return m[0], nil
}
