package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const defaultSearchResults = 5

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

type searchResult struct {
	Title   string
	URL     string
	Snippet string
}

func webSearchTool(cfg HTTPConfig) *Tool {
	return &Tool{
		Name:        "web_search",
		Description: "Search the web for current information and return a short answer with sources.",
		Parameters: objectSchema(map[string]any{
			"query":       stringParam("What to search for"),
			"max_results": map[string]any{"type": "integer", "description": "Maximum results to return (default 5)"},
		}, "query"),
		Handler: func(ctx context.Context, inv Invocation) (string, error) {
			query, err := requiredString(inv.Args, "query")
			if err != nil {
				return "", err
			}
			limit := intArg(inv.Args, "max_results", defaultSearchResults)
			if limit <= 0 || limit > 10 {
				limit = defaultSearchResults
			}
			if cfg.TavilyAPIKey != "" {
				return searchTavily(ctx, cfg, query, limit)
			}
			return searchDuckDuckGo(ctx, cfg, query, limit)
		},
	}
}

func searchTavily(ctx context.Context, cfg HTTPConfig, query string, limit int) (string, error) {
	body, err := json.Marshal(tavilyRequest{
		APIKey:        cfg.TavilyAPIKey,
		Query:         query,
		SearchDepth:   "advanced",
		IncludeAnswer: true,
		MaxResults:    limit,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(cfg.TavilyURL, "/")+"/search", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cfg.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tavily: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("tavily returned %s: %s", resp.Status, msg)
	}

	var out tavilyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("tavily: decode: %w", err)
	}

	results := make([]searchResult, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, searchResult{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return formatSearch(out.Answer, results), nil
}

// searchDuckDuckGo scrapes the HTML endpoint, which needs no key.
func searchDuckDuckGo(ctx context.Context, cfg HTTPConfig, query string, limit int) (string, error) {
	endpoint := strings.TrimRight(cfg.DuckDuckGoURL, "/") + "/html/?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := cfg.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("duckduckgo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("duckduckgo returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("duckduckgo: parse: %w", err)
	}

	var results []searchResult
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return true
		}
		href, _ := link.Attr("href")
		results = append(results, searchResult{
			Title:   title,
			URL:     resolveDuckDuckGoLink(href),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").Text()),
		})
		return len(results) < limit
	})
	return formatSearch("", results), nil
}

// resolveDuckDuckGoLink unwraps redirect links of the form /l/?uddg=<target>.
func resolveDuckDuckGoLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

func formatSearch(answer string, results []searchResult) string {
	var b strings.Builder
	if answer != "" {
		b.WriteString(answer)
		b.WriteString("\n\n")
	}
	if len(results) == 0 {
		if answer == "" {
			return "No results found."
		}
		return strings.TrimSpace(b.String())
	}
	b.WriteString("Sources:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
	}
	return strings.TrimSpace(b.String())
}
