package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// WolframAPIKeyEnv names the environment variable holding the Wolfram|Alpha app id
const WolframAPIKeyEnv = "WOLFRAM_API_KEY"

var referencePattern = regexp.MustCompile(`\[\d+\]`)

// RemoveReferences strips numeric citation markers such as "[12]"
func RemoveReferences(text string) string {
	return referencePattern.ReplaceAllString(text, "")
}

// WolframQueryURL builds a Wolfram|Alpha API query URL
func WolframQueryURL(query, appID string) string {
	v := url.Values{}
	v.Set("input", query)
	v.Set("appid", appID)
	return "http://api.wolframalpha.com/v2/query?" + v.Encode()
}

// Wikipedia fetches article summaries
type Wikipedia struct {
	BaseURL string
	Client  *http.Client
}

// NewWikipedia creates a client for English Wikipedia
func NewWikipedia() *Wikipedia {
	return &Wikipedia{
		BaseURL: "https://en.wikipedia.org",
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Summary searches for query and returns the top article's title and lead summary
func (w *Wikipedia) Summary(ctx context.Context, query string) (string, string, error) {
	var search struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	v := url.Values{}
	v.Set("action", "query")
	v.Set("list", "search")
	v.Set("srsearch", query)
	v.Set("format", "json")
	if err := w.getJSON(ctx, w.BaseURL+"/w/api.php?"+v.Encode(), &search); err != nil {
		return "", "", fmt.Errorf("wikipedia search failed: %w", err)
	}
	if len(search.Query.Search) == 0 {
		return "", "", fmt.Errorf("no wikipedia results for %q", query)
	}
	title := search.Query.Search[0].Title

	var page struct {
		Title   string `json:"title"`
		Extract string `json:"extract"`
	}
	path := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	if err := w.getJSON(ctx, w.BaseURL+"/api/rest_v1/page/summary/"+path, &page); err != nil {
		return "", "", fmt.Errorf("wikipedia summary for %q failed: %w", title, err)
	}
	return title, RemoveReferences(page.Extract), nil
}

func (w *Wikipedia) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "agentroom")
	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Default returns the registry of built-in tools
func Default(wiki *Wikipedia) *Registry {
	r := NewRegistry()
	r.MustRegister(Tool{
		Name:        "remove_references",
		Description: "Remove citation markers like [1] from text.",
		Params:      []Param{{Name: "text", Description: "The text to clean."}},
		Fn: func(ctx context.Context, args []string) (string, error) {
			return RemoveReferences(args[0]), nil
		},
	})
	r.MustRegister(Tool{
		Name:        "word_count",
		Description: "Count the words in text.",
		Params:      []Param{{Name: "text", Description: "The text to count."}},
		Fn: func(ctx context.Context, args []string) (string, error) {
			return strconv.Itoa(len(strings.Fields(args[0]))), nil
		},
	})
	r.MustRegister(Tool{
		Name:        "wolfram_query_url",
		Description: "Build a Wolfram|Alpha API query URL using " + WolframAPIKeyEnv + ".",
		Params:      []Param{{Name: "query", Description: "The question to ask."}},
		Fn: func(ctx context.Context, args []string) (string, error) {
			key := os.Getenv(WolframAPIKeyEnv)
			if key == "" {
				return "", fmt.Errorf("%s is not set", WolframAPIKeyEnv)
			}
			return WolframQueryURL(args[0], key), nil
		},
	})
	r.MustRegister(Tool{
		Name:        "wikipedia_summary",
		Description: "Search Wikipedia and return the top article's summary.",
		Params:      []Param{{Name: "query", Description: "What to search for."}},
		Fn: func(ctx context.Context, args []string) (string, error) {
			title, summary, err := wiki.Summary(ctx, args[0])
			if err != nil {
				return "", err
			}
			return title + "\n\n" + summary, nil
		},
	})
	return r
}
