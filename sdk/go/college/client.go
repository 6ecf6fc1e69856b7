// Package college is a small standard-library client for the Collège en
// ligne JSON endpoints, plus the lesson unlock countdown engine that ticks
// a listing down to its access state.
package college

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Client talks to a Collège en ligne server. The cookie jar carries both
// the CSRF session cookie and, after Login, the session cookie.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a client for the given base URL, e.g. "https://college.example".
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

// LoginResult is the server's answer to a successful login.
type LoginResult struct {
	Role    string `json:"role"`
	ClassID *int64 `json:"classId,omitempty"`
}

// Lesson is one lesson of the day listing.
type Lesson struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DayLesson is one entry of the day listing with its unlock state.
type DayLesson struct {
	Lesson    Lesson `json:"lesson"`
	WeekDay   string `json:"week_day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	RemainingSeconds int64  `json:"remaining_seconds"`
	Remaining        string `json:"remaining"`
	Accessible       bool   `json:"accessible"`
}

// DayListing is the collegian's lessons for the current weekday.
type DayListing struct {
	WeekDay string      `json:"weekDay"`
	Lessons []DayLesson `json:"lessons"`
}

// csrfToken fetches the caller's CSRF token, establishing the session
// cookie as a side effect.
func (c *Client) csrfToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/csrf-token", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching CSRF token: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding CSRF token: %w", err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("server returned an empty CSRF token")
	}
	return body.Token, nil
}

// Login authenticates and stores the session cookie on the client. The
// returned error carries the server's French message on failure.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	token, err := c.csrfToken(ctx)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)
	form.Set("csrf-token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/check-login",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Success bool   `json:"success"`
		Role    string `json:"role"`
		ClassID *int64 `json:"classId"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}
	if !body.Success {
		if body.Error == "" {
			body.Error = fmt.Sprintf("connexion refusée (HTTP %d)", resp.StatusCode)
		}
		return nil, fmt.Errorf("%s", body.Error)
	}
	return &LoginResult{Role: body.Role, ClassID: body.ClassID}, nil
}

// LessonsToday fetches the logged-in collegian's day listing.
func (c *Client) LessonsToday(ctx context.Context) (*DayListing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/lessons/today", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching day listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Error != "" {
			return nil, fmt.Errorf("%s", body.Error)
		}
		return nil, fmt.Errorf("fetching day listing: HTTP %d", resp.StatusCode)
	}

	var listing DayListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decoding day listing: %w", err)
	}
	return &listing, nil
}
