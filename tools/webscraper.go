package tools

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/adder-cli/adder/errors"
)

const (
	scraperTimeout   = 30 * time.Second
	scraperBodyLimit = 2 << 20 // cap page size so a huge page cannot flood the context
)

// WebScraperTool fetches a page and converts it to markdown so the
// model gets readable text instead of raw HTML.
type WebScraperTool struct {
	client *http.Client
}

func NewWebScraperTool() *WebScraperTool {
	return &WebScraperTool{client: &http.Client{Timeout: scraperTimeout}}
}

func (t *WebScraperTool) Spec() Spec {
	return Spec{
		ToolName:    "WEB_SCRAPER",
		Description: "Fetch a web page and return its content as markdown.",
		Methods: []MethodSpec{
			{
				Name:        "fetch",
				Description: "Fetch a URL over HTTP GET.",
				Parameters: map[string]ParameterSpec{
					"url": {Type: "string", Description: "The URL to fetch", Required: true},
				},
			},
		},
	}
}

func (t *WebScraperTool) Execute(ctx context.Context, method string, args map[string]interface{}) (string, error) {
	if method != "fetch" {
		return "", errors.New("unknown method '%s'", method)
	}
	url, err := stringArg(args, "url")
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", errors.New("unsupported URL scheme in '%s'", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrapf(err, "invalid URL '%s'", url)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "failed to fetch '%s'", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New("fetching '%s' returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, scraperBodyLimit))
	if err != nil {
		return "", errors.Wrapf(err, "failed to read response from '%s'", url)
	}

	markdown, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		// Conversion failures still leave usable raw text.
		return string(body), nil
	}
	return markdown, nil
}
