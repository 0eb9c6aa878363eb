// Package weightclient is the billing service's read-only client for the
// weighing service HTTP API.
package weightclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("weight service: not found")
	ErrUnavailable = errors.New("weight service unavailable")
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// billing must not hang on a stuck weighing service
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

// Session mirrors the weighing service's session summary. Neto is either a
// number or the string "na".
type Session struct {
	ID         uint     `json:"id"`
	Direction  string   `json:"direction"`
	Bruto      int      `json:"bruto"`
	Neto       any      `json:"neto"`
	Produce    string   `json:"produce"`
	Containers []string `json:"containers"`
}

// NetoKg returns the net weight when available.
func (s Session) NetoKg() (int, bool) {
	if n, ok := s.Neto.(float64); ok {
		return int(n), true
	}
	return 0, false
}

type Item struct {
	ID       string `json:"id"`
	Tara     any    `json:"tara"`
	Sessions []uint `json:"sessions"`
}

// ListSessions fetches GET /weight over [from, to] filtered to the given
// directions (14-digit stamps; empty strings keep the service defaults).
func (c *Client) ListSessions(from, to, filter string) ([]Session, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	if filter != "" {
		q.Set("filter", filter)
	}

	var sessions []Session
	if err := c.getJSON("/weight?"+q.Encode(), &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetItem fetches GET /item/{id}; ErrNotFound when the id is neither a known
// truck nor a registered container.
func (c *Client) GetItem(id, from, to string) (*Item, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}

	var item Item
	if err := c.getJSON("/item/"+url.PathEscape(id)+"?"+q.Encode(), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) getJSON(path string, out any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("weight service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("weight service sent an unreadable response: %w", err)
	}
	return nil
}
