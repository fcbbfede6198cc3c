// Package tools exposes the agent's callable tools as static records.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloo-solutions/grootai/internal/domain"
	"github.com/cloo-solutions/grootai/internal/telemetry"
	openai "github.com/sashabaranov/go-openai"
)

// ConversationHandle gives a tool read access to the conversation it runs in.
type ConversationHandle interface {
	Turns(ctx context.Context) ([]domain.Turn, error)
}

// Call carries the inputs of one invocation.
type Call struct {
	Arguments    json.RawMessage
	Conversation ConversationHandle
}

// Handler computes a tool's value. Returned errors become failed outcomes.
type Handler func(ctx context.Context, call Call) (any, error)

// Tool is a declarative tool record.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	// Guidance tells the orchestrating model when and how to use the tool.
	Guidance string
	Handler  Handler
}

// Directory is an ordered, immutable set of tools.
type Directory struct {
	tools []Tool
	index map[string]int
}

func NewDirectory(tools ...Tool) (*Directory, error) {
	d := &Directory{index: make(map[string]int, len(tools))}
	for _, t := range tools {
		if t.Name == "" || t.Handler == nil {
			return nil, fmt.Errorf("tool %q needs a name and a handler", t.Name)
		}
		if _, dup := d.index[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", t.Name)
		}
		if len(t.InputSchema) == 0 {
			t.InputSchema = json.RawMessage(`{"type":"object","properties":{}}`)
		}
		d.index[t.Name] = len(d.tools)
		d.tools = append(d.tools, t)
	}
	return d, nil
}

// Tools returns the records in registration order.
func (d *Directory) Tools() []Tool {
	out := make([]Tool, len(d.tools))
	copy(out, d.tools)
	return out
}

func (d *Directory) Get(name string) (Tool, bool) {
	i, ok := d.index[name]
	if !ok {
		return Tool{}, false
	}
	return d.tools[i], true
}

func (d *Directory) Names() []string {
	names := make([]string, len(d.tools))
	for i, t := range d.tools {
		names[i] = t.Name
	}
	return names
}

// Definitions renders the directory as chat-completions function tools.
func (d *Directory) Definitions() []openai.Tool {
	defs := make([]openai.Tool, 0, len(d.tools))
	for _, t := range d.tools {
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return defs
}

// Guidance returns the usage notes of every tool as one prompt block.
func (d *Directory) Guidance() string {
	var sb strings.Builder
	for _, t := range d.tools {
		if t.Guidance == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(t.Name)
		sb.WriteString(":\n")
		sb.WriteString(strings.TrimSpace(t.Guidance))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Invoke runs the named tool. It never panics on bad input and always
// returns exactly one of a value or a failure.
func (d *Directory) Invoke(ctx context.Context, name string, call Call) domain.Outcome {
	t, ok := d.Get(name)
	if !ok {
		return domain.Fail(domain.Wrap(domain.ErrToolNotFound, fmt.Errorf("%q (available: %s)", name, strings.Join(d.Names(), ", "))))
	}

	attrs := telemetry.SpanAttributes{Tool: name}
	if identified, ok := call.Conversation.(interface{ ID() string }); ok {
		attrs.ConversationID = identified.ID()
	}
	ctx, span := telemetry.StartSpan(ctx, "tool."+name, attrs)
	defer span.End()

	value, err := t.Handler(ctx, call)
	if err != nil {
		span.SetError(err)
		outcome := domain.Fail(err)
		log.Printf("[tools] %s failed: %s", name, outcome.Failure.Detail)
		if outcome.Failure.Kind == domain.ErrCodeInternalError {
			telemetry.CaptureError(ctx, err)
		}
		return outcome
	}
	return domain.Success(value)
}

// DecodeArguments strictly decodes raw into v. Empty arguments decode as {}.
func DecodeArguments(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage(`{}`)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.Wrap(domain.ErrInvalidArguments, err)
	}
	return nil
}
