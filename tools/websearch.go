package tools

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/adder-cli/adder/config"
	"github.com/adder-cli/adder/errors"
)

const defaultSearchResults = 5

// WebSearchTool queries the Google Custom Search API.
type WebSearchTool struct {
	cfg config.WebSearch
}

func NewWebSearchTool(cfg config.WebSearch) *WebSearchTool {
	return &WebSearchTool{cfg: cfg}
}

func (t *WebSearchTool) Spec() Spec {
	return Spec{
		ToolName:    "WEB_SEARCH",
		Description: "Search the web via Google Custom Search.",
		Methods: []MethodSpec{
			{
				Name:        "search",
				Description: "Run a web search and return titles, links and snippets.",
				Parameters: map[string]ParameterSpec{
					"query":       {Type: "string", Description: "The search query", Required: true},
					"num_results": {Type: "number", Description: "Result count, up to 10"},
				},
			},
		},
	}
}

func (t *WebSearchTool) Execute(ctx context.Context, method string, args map[string]interface{}) (string, error) {
	if method != "search" {
		return "", errors.New("unknown method '%s'", method)
	}
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}

	num := int64(defaultSearchResults)
	if n, ok := args["num_results"].(float64); ok && n >= 1 && n <= 10 {
		num = int64(n)
	}

	svc, err := customsearch.NewService(ctx, option.WithAPIKey(t.cfg.APIKey))
	if err != nil {
		return "", errors.Wrapf(err, "failed to create search service")
	}

	resp, err := svc.Cse.List().Cx(t.cfg.SearchEngineID).Q(query).Num(num).Context(ctx).Do()
	if err != nil {
		return "", errors.Wrapf(err, "search for '%s' failed", query)
	}

	if len(resp.Items) == 0 {
		return "No results found.", nil
	}
	var b strings.Builder
	for i, item := range resp.Items {
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", i+1, item.Title, item.Link, item.Snippet)
	}
	return b.String(), nil
}
