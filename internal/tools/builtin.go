package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cloo-solutions/grootai/internal/domain"
)

const (
	HistoryName   = "history"
	WebSearchName = "web_search_tool"
	WeatherName   = "weather_tool"
	VisualName    = "visual_tool"
)

// WebSearcher answers a query with the most relevant web page chunks.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// WeatherReporter returns current conditions for an area.
type WeatherReporter interface {
	Report(ctx context.Context, area string) (*domain.WeatherReport, error)
}

// ImageDescriber answers a prompt about the image at a URL.
type ImageDescriber interface {
	Describe(ctx context.Context, prompt, imageURL string) (string, error)
}

// Services are the collaborators behind the built-in tools. A nil service
// leaves its tool listed but failing with PROVIDER_ERROR.
type Services struct {
	WebSearch WebSearcher
	Weather   WeatherReporter
	Visual    ImageDescriber
}

// Builtins returns the standard directory: history, web search, weather
// and visual, in that order.
func Builtins(svc Services) (*Directory, error) {
	return NewDirectory(
		HistoryTool(),
		WebSearchTool(svc.WebSearch),
		WeatherTool(svc.Weather),
		VisualTool(svc.Visual),
	)
}

func HistoryTool() Tool {
	return Tool{
		Name:        HistoryName,
		Description: "All the conversation details between user and AI",
		InputSchema: json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`),
		Guidance:    historyGuidance,
		Handler: func(ctx context.Context, call Call) (any, error) {
			var args struct{}
			if err := DecodeArguments(call.Arguments, &args); err != nil {
				return nil, err
			}
			if call.Conversation == nil {
				return []domain.Turn{}, nil
			}
			turns, err := call.Conversation.Turns(ctx)
			if err != nil {
				return nil, err
			}
			if turns == nil {
				turns = []domain.Turn{}
			}
			return turns, nil
		},
	}
}

func WebSearchTool(searcher WebSearcher) Tool {
	return Tool{
		Name:        WebSearchName,
		Description: "Retrieve relevant info from web.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"query for searching on web"}},"required":["query"],"additionalProperties":false}`),
		Guidance:    webSearchGuidance,
		Handler: func(ctx context.Context, call Call) (any, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := DecodeArguments(call.Arguments, &args); err != nil {
				return nil, err
			}
			if searcher == nil {
				return nil, notConfigured("web search")
			}
			chunks, err := searcher.Search(ctx, args.Query)
			if err != nil {
				return nil, err
			}
			if chunks == nil {
				chunks = []string{}
			}
			return chunks, nil
		},
	}
}

func WeatherTool(reporter WeatherReporter) Tool {
	return Tool{
		Name:        WeatherName,
		Description: "Get weather report with other details of the given area",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"area":{"type":"string","description":"area name"}},"required":["area"],"additionalProperties":false}`),
		Guidance:    weatherGuidance,
		Handler: func(ctx context.Context, call Call) (any, error) {
			var args struct {
				Area string `json:"area"`
			}
			if err := DecodeArguments(call.Arguments, &args); err != nil {
				return nil, err
			}
			if reporter == nil {
				return nil, notConfigured("weather")
			}
			return reporter.Report(ctx, args.Area)
		},
	}
}

func VisualTool(describer ImageDescriber) Tool {
	return Tool{
		Name:        VisualName,
		Description: "Get image details on given prompt",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"prompt":{"type":"string","description":"prompt for image"},"image_url":{"type":"string","description":"url for image"}},"required":["prompt","image_url"],"additionalProperties":false}`),
		Guidance:    visualGuidance,
		Handler: func(ctx context.Context, call Call) (any, error) {
			var args struct {
				Prompt   string `json:"prompt"`
				ImageURL string `json:"image_url"`
			}
			if err := DecodeArguments(call.Arguments, &args); err != nil {
				return nil, err
			}
			if describer == nil {
				return nil, notConfigured("vision")
			}
			return describer.Describe(ctx, args.Prompt, args.ImageURL)
		},
	}
}

func notConfigured(provider string) error {
	return domain.Wrap(domain.ErrProviderNotConfigured, errors.New(provider+" provider not configured"))
}
