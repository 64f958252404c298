package random

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTimeout         = errors.New("request to random.org timed out")
	ErrRequestFailed   = errors.New("request to random.org failed")
	ErrInvalidResponse = errors.New("invalid response from random.org")
)

const (
	defaultBaseURL = "https://www.random.org"
	defaultTimeout = 5 * time.Second
)

// Config controls how the client reaches random.org
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// httpDoer lets tests substitute the transport
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches decimal fractions from the random.org plain-text API
type Client struct {
	baseURL    string
	httpClient httpDoer
	timeout    time.Duration
}

// NewClient constructs a random.org client with the provided configuration
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var httpClient httpDoer = cfg.HTTPClient
	if cfg.HTTPClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		timeout:    timeout,
	}
}

// Fraction requests one decimal fraction in [0,1] with two digits of
// precision. Timeouts, transport or status failures, and malformed
// responses surface as three distinct errors.
func (c *Client) Fraction(ctx context.Context) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(ctx)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return 0, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("%w: unexpected status %d: %s",
			ErrRequestFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	text := strings.TrimSpace(string(body))
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidResponse, text)
	}

	return value, nil
}

func (c *Client) buildRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/decimal-fractions/", nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Set("num", "1")
	q.Set("dec", "2")
	q.Set("col", "1")
	q.Set("format", "plain")
	q.Set("rnd", "new")
	req.URL.RawQuery = q.Encode()

	return req, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
