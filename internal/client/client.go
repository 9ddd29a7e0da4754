// Package client is a typed HTTP client for the vote endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emilythestrangee/qna-forum/backend/internal/models"
	"github.com/emilythestrangee/qna-forum/backend/internal/votes"
)

// APIError is a non-2xx response. It unwraps to the matching votes error
// so callers can use errors.Is on either side of the wire.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return votes.ErrNotAuthenticated
	case http.StatusBadRequest:
		return votes.ErrInvalidVote
	case http.StatusNotFound:
		return votes.ErrTargetNotFound
	case http.StatusConflict:
		return votes.ErrVoteConflict
	}
	return nil
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New returns a client for the API at baseURL. token is sent as a bearer
// token when non-empty.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type voteResponse struct {
	Data   votes.Counts       `json:"data"`
	MyVote *models.VoteStatus `json:"myVote"`
}

// SubmitVote posts a vote and returns the server's counts for the target.
func (c *Client) SubmitVote(ctx context.Context, voterID string, target votes.Target, direction models.VoteStatus) (votes.Counts, error) {
	body := models.VoteRequest{
		Type:       target.Type,
		TypeID:     target.ID,
		VoteStatus: direction,
		VotedByID:  voterID,
	}
	var resp voteResponse
	if err := c.do(ctx, http.MethodPost, "/api/vote", body, &resp); err != nil {
		return votes.Counts{}, err
	}
	return resp.Data, nil
}

// FetchVotes returns the target's counts and the caller's own vote.
func (c *Client) FetchVotes(ctx context.Context, target votes.Target) (votes.Counts, models.VoteStatus, error) {
	path := fmt.Sprintf("/api/votes/%s/%s", url.PathEscape(string(target.Type)), url.PathEscape(target.ID))
	var resp voteResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return votes.Counts{}, models.VoteNone, err
	}
	mine := models.VoteNone
	if resp.MyVote != nil {
		mine = *resp.MyVote
	}
	return resp.Data, mine, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		payload.Error = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
}
