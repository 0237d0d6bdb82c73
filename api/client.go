package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	DefaultBaseURL   = "http://localhost:8000/api"
	DefaultTimeout   = 15 * time.Second
	defaultUserAgent = "roombook-cli/1.0"
)

type Client struct {
	HTTP        *http.Client
	BaseURL     string
	UserAgent   string
	AccessToken string
	// Timeout bounds each request on top of the caller's context.
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewClient() *Client {
	return &Client{
		HTTP:      &http.Client{},
		BaseURL:   DefaultBaseURL,
		UserAgent: defaultUserAgent,
		Timeout:   DefaultTimeout,
	}
}

func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	req, err := c.newAuthedRequest(ctx, http.MethodGet, "/rooms", nil, nil)
	if err != nil {
		return nil, err
	}

	var rooms []Room
	if err := c.doJSON(req, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *Client) GetRoomAvailability(ctx context.Context, roomID int64, date time.Time) (RoomAvailability, error) {
	q := url.Values{}
	q.Set("date", date.Format("2006-01-02"))
	path := fmt.Sprintf("/rooms/%d/availability", roomID)
	req, err := c.newAuthedRequest(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return RoomAvailability{}, err
	}

	var availability RoomAvailability
	if err := c.doJSON(req, &availability); err != nil {
		return RoomAvailability{}, err
	}
	if availability.RoomID == 0 {
		availability.RoomID = roomID
	}
	if availability.Date == "" {
		availability.Date = date.Format("2006-01-02")
	}
	return availability, nil
}

func (c *Client) newAuthedRequest(ctx context.Context, method, path string, query url.Values, payload any) (*http.Request, error) {
	if c.AccessToken == "" {
		return nil, ErrNotLoggedIn
	}
	return c.newRequest(ctx, method, path, query, payload)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, payload any) (*http.Request, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	path = strings.TrimPrefix(path, "/")
	base.Path = strings.TrimSuffix(base.Path, "/") + "/" + path
	if query != nil {
		base.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, base.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}
	return req, nil
}

func (c *Client) doJSON(req *http.Request, dest any) error {
	if c.Timeout > 0 {
		ctx, cancel := context.WithTimeout(req.Context(), c.Timeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	started := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.logger().Debug("request failed",
			"method", req.Method, "path", req.URL.Path,
			"request_id", req.Header.Get("X-Request-ID"), "error", err)
		return err
	}
	defer resp.Body.Close()

	c.logger().Debug("request",
		"method", req.Method, "path", req.URL.Path, "status", resp.StatusCode,
		"duration", time.Since(started), "request_id", req.Header.Get("X-Request-ID"))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &Error{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    errorMessage(body),
		}
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) doStatus(req *http.Request) error {
	return c.doJSON(req, nil)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// errorMessage pulls a human readable message out of an error body, which
// the backend spells as detail, message or error depending on the endpoint.
func errorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var payload struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Detail.(string); ok && s != "" {
			return s
		}
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return trimmed
}
