package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const fetchTimeout = 10 * time.Second

// WebFetch fetches content from URLs.
type WebFetch struct {
	client *resty.Client
}

// NewWebFetch creates a new web fetch tool.
func NewWebFetch() *WebFetch {
	client := resty.New().
		SetTimeout(fetchTimeout).
		SetHeader("User-Agent", "nanobot/1.0").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	return &WebFetch{client: client}
}

func (t *WebFetch) Name() string {
	return "web_fetch"
}

func (t *WebFetch) Description() string {
	return `Fetch content from a URL with a GET request. Follows redirects.
Returns the response body truncated to 3000 characters.`
}

func (t *WebFetch) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {
				"type": "string",
				"description": "The URL to fetch (must include scheme and host)"
			}
		},
		"required": ["url"]
	}`)
}

type webFetchParams struct {
	URL string `json:"url"`
}

func (t *WebFetch) Execute(ctx context.Context, params json.RawMessage) *Result {
	var p webFetchParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &Result{Content: fmt.Sprintf("invalid params: %v", err), IsError: true}
	}

	raw := strings.TrimSpace(p.URL)
	if raw == "" {
		return &Result{Content: "url is required", IsError: true}
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return &Result{Content: fmt.Sprintf("invalid url: %s", raw), IsError: true}
	}

	resp, err := t.client.R().SetContext(ctx).Get(raw)
	if err != nil {
		return &Result{Content: fmt.Sprintf("failed to fetch %s: %v", raw, err), IsError: true}
	}

	if resp.IsError() {
		return &Result{Content: fmt.Sprintf("HTTP %d fetching %s", resp.StatusCode(), raw), IsError: true}
	}

	return &Result{Content: truncate(resp.String(), fetchOutputLimit)}
}
