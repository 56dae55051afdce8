package story

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hnstar/hnstar/internal/story/entity"
)

const (
	defaultBaseURL        = "https://hacker-news.firebaseio.com/v0"
	defaultRequestTimeout = 15 * time.Second
)

// Client fetches stories from the Hacker News Firebase API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client against baseURL, or the public API when
// baseURL is empty.
func NewClient(baseURL string) *Client {
	url := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if url == "" {
		url = defaultBaseURL
	}
	return &Client{
		baseURL: url,
		http:    &http.Client{Timeout: defaultRequestTimeout},
	}
}

// TopStories returns the current top story IDs, best first.
func (c *Client) TopStories(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := c.getJSON(ctx, c.baseURL+"/topstories.json", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Item fetches one item by ID. The API answers a bare "null" body for
// unknown IDs, which decodes to a nil item.
func (c *Client) Item(ctx context.Context, id int64) (*entity.Item, error) {
	var item *entity.Item
	if err := c.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", c.baseURL, id), &item); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
