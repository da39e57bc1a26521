// Package splunk implements a client for the Splunk REST API on the
// management port. Searches run as async jobs: create, poll until done,
// fetch results, delete.
package splunk

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"splunk-mcp/internal/constants"
	"splunk-mcp/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Event is a single search result record as returned by Splunk.
type Event = map[string]any

// Client talks to one Splunk instance. It is safe for concurrent use.
type Client struct {
	cfg     models.Config
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger

	// jobPollInterval is how often a pending search job is re-checked.
	// Overridden in tests.
	jobPollInterval time.Duration
}

// NewClient creates a Splunk client from the server configuration.
func NewClient(cfg models.Config, log zerolog.Logger) *Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.VerifySSL},
	}

	limit := rate.Limit(cfg.RequestRateLimit)
	if cfg.RequestRateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RequestRateBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		cfg:             cfg,
		http:            &http.Client{Transport: transport},
		limiter:         rate.NewLimiter(limit, burst),
		log:             log.With().Str("component", "splunk").Logger(),
		jobPollInterval: 500 * time.Millisecond,
	}
}

// ExecuteSearch runs one bounded search over an absolute time window and
// returns its events. It satisfies the monitor package's SearchExecutor
// interface; cancellation of ctx aborts the job wait and result fetch.
func (c *Client) ExecuteSearch(ctx context.Context, query string, earliest, latest time.Time, maxResults int) ([]Event, error) {
	return c.Search(ctx, query, earliest.Format(time.RFC3339), latest.Format(time.RFC3339), maxResults)
}

// Search runs one search with Splunk time modifiers (absolute ISO times or
// relative expressions such as "-24h" and "now").
func (c *Client) Search(ctx context.Context, query, earliest, latest string, maxResults int) ([]Event, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	sid, err := c.createJob(ctx, query, earliest, latest, maxResults)
	if err != nil {
		return nil, err
	}
	// Jobs are dispatched server-side; always clean up, even when the
	// caller's context is already cancelled.
	defer c.deleteJob(sid)

	if err := c.waitForJob(ctx, sid); err != nil {
		return nil, err
	}

	events, err := c.jobResults(ctx, sid, maxResults)
	if err != nil {
		return nil, err
	}

	c.log.Debug().Str("sid", sid).Int("events", len(events)).Msg("search completed")
	return events, nil
}

// NormalizeQuery ensures a raw SPL expression is a valid search command.
// Expressions that do not start with "search " or a generating pipe get
// the "search " prefix, matching splunklib behavior.
func NormalizeQuery(query string) string {
	q := strings.TrimSpace(query)
	lower := strings.ToLower(q)
	if strings.HasPrefix(lower, "search ") || strings.HasPrefix(q, "|") {
		return q
	}
	return "search " + q
}

func (c *Client) createJob(ctx context.Context, query, earliest, latest string, maxResults int) (string, error) {
	form := url.Values{}
	form.Set("search", NormalizeQuery(query))
	form.Set("earliest_time", earliest)
	form.Set("latest_time", latest)
	form.Set("max_count", strconv.Itoa(maxResults))
	form.Set("exec_mode", "normal")
	form.Set("output_mode", "json")

	body, err := c.postForm(ctx, constants.EndpointSearchJobs, form)
	if err != nil {
		return "", fmt.Errorf("%w: create search job: %w", ErrSearchFailed, err)
	}

	var created struct {
		Sid string `json:"sid"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: decode job creation response: %w", ErrSearchFailed, err)
	}
	if created.Sid == "" {
		return "", fmt.Errorf("%w: no sid in job creation response", ErrSearchFailed)
	}

	c.log.Debug().Str("sid", created.Sid).Msg("search job created")
	return created.Sid, nil
}

// jobStatus is the subset of search job state the client inspects.
type jobStatus struct {
	IsDone        bool
	IsFailed      bool
	DispatchState string
	Messages      []string
}

func (c *Client) waitForJob(ctx context.Context, sid string) error {
	for {
		status, err := c.getJobStatus(ctx, sid)
		if err != nil {
			return err
		}
		if status.IsFailed || status.DispatchState == "FAILED" {
			return fmt.Errorf("%w: search job %s failed: %s", ErrSearchFailed, sid, strings.Join(status.Messages, "; "))
		}
		if status.IsDone {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.jobPollInterval):
		}
	}
}

func (c *Client) getJobStatus(ctx context.Context, sid string) (*jobStatus, error) {
	q := url.Values{"output_mode": {"json"}}
	body, err := c.get(ctx, fmt.Sprintf(constants.EndpointSearchJob, sid), q)
	if err != nil {
		return nil, fmt.Errorf("%w: get job status: %w", ErrSearchFailed, err)
	}

	var parsed struct {
		Entry []struct {
			Content struct {
				IsDone        bool   `json:"isDone"`
				IsFailed      bool   `json:"isFailed"`
				DispatchState string `json:"dispatchState"`
				Messages      []struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"messages"`
			} `json:"content"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode job status: %w", ErrSearchFailed, err)
	}
	if len(parsed.Entry) == 0 {
		return nil, fmt.Errorf("%w: job %s not found", ErrSearchFailed, sid)
	}

	content := parsed.Entry[0].Content
	status := &jobStatus{
		IsDone:        content.IsDone,
		IsFailed:      content.IsFailed,
		DispatchState: content.DispatchState,
	}
	for _, m := range content.Messages {
		if m.Type == "FATAL" || m.Type == "ERROR" {
			status.Messages = append(status.Messages, m.Text)
		}
	}
	return status, nil
}

func (c *Client) jobResults(ctx context.Context, sid string, maxResults int) ([]Event, error) {
	q := url.Values{
		"output_mode": {"json"},
		"count":       {strconv.Itoa(maxResults)},
	}
	body, err := c.get(ctx, fmt.Sprintf(constants.EndpointSearchJobResults, sid), q)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch results: %w", ErrSearchFailed, err)
	}

	var parsed struct {
		Results []Event `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode results: %w", ErrSearchFailed, err)
	}
	return parsed.Results, nil
}

func (c *Client) deleteJob(sid string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodDelete, fmt.Sprintf(constants.EndpointSearchJob, sid), nil, nil)
	if err != nil {
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("sid", sid).Msg("failed to delete search job")
		return
	}
	resp.Body.Close()
}

// IndexInfo describes one Splunk index.
type IndexInfo struct {
	Name            string `json:"name"`
	TotalEventCount int64  `json:"total_event_count"`
	CurrentDBSizeMB int64  `json:"current_db_size_mb"`
	EarliestTime    string `json:"earliest_time,omitempty"`
	LatestTime      string `json:"latest_time,omitempty"`
	Disabled        bool   `json:"disabled"`
}

// ListIndexes returns the indexes visible to the configured credentials,
// optionally filtered by a case-insensitive substring match on the name.
func (c *Client) ListIndexes(ctx context.Context, filter string) ([]IndexInfo, error) {
	q := url.Values{
		"output_mode": {"json"},
		"count":       {"0"},
	}
	body, err := c.get(ctx, constants.EndpointIndexes, q)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}

	var parsed struct {
		Entry []struct {
			Name    string `json:"name"`
			Content struct {
				TotalEventCount int64  `json:"totalEventCount"`
				CurrentDBSizeMB int64  `json:"currentDBSizeMB"`
				MinTime         string `json:"minTime"`
				MaxTime         string `json:"maxTime"`
				Disabled        bool   `json:"disabled"`
			} `json:"content"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode indexes response: %w", err)
	}

	indexes := make([]IndexInfo, 0, len(parsed.Entry))
	for _, e := range parsed.Entry {
		if filter != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(filter)) {
			continue
		}
		indexes = append(indexes, IndexInfo{
			Name:            e.Name,
			TotalEventCount: e.Content.TotalEventCount,
			CurrentDBSizeMB: e.Content.CurrentDBSizeMB,
			EarliestTime:    e.Content.MinTime,
			LatestTime:      e.Content.MaxTime,
			Disabled:        e.Content.Disabled,
		})
	}
	return indexes, nil
}

// ServerInfo describes the connected Splunk server.
type ServerInfo struct {
	Version      string `json:"version"`
	Build        string `json:"build"`
	ServerName   string `json:"server_name"`
	LicenseState string `json:"license_state,omitempty"`
}

// GetServerInfo fetches server metadata; used by the health endpoint as a
// connectivity probe.
func (c *Client) GetServerInfo(ctx context.Context) (*ServerInfo, error) {
	q := url.Values{"output_mode": {"json"}}
	body, err := c.get(ctx, constants.EndpointServerInfo, q)
	if err != nil {
		return nil, fmt.Errorf("get server info: %w", err)
	}

	var parsed struct {
		Entry []struct {
			Content struct {
				Version      string `json:"version"`
				Build        string `json:"build"`
				ServerName   string `json:"serverName"`
				LicenseState string `json:"licenseState"`
			} `json:"content"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode server info: %w", err)
	}
	if len(parsed.Entry) == 0 {
		return nil, errors.New("empty server info response")
	}

	content := parsed.Entry[0].Content
	return &ServerInfo{
		Version:      content.Version,
		Build:        content.Build,
		ServerName:   content.ServerName,
		LicenseState: content.LicenseState,
	}, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, nil, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set(constants.HeaderContentType, constants.HeaderContentTypeForm)
	return c.do(req)
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body io.Reader) (*http.Request, error) {
	u, err := url.Parse(c.cfg.BaseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set(constants.HeaderAccept, constants.HeaderAcceptJSON)
	req.Header.Set(constants.HeaderUserAgent, constants.UserAgentSplunkMCP)
	if c.cfg.AuthToken != "" {
		req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+c.cfg.AuthToken)
	} else {
		creds := base64.StdEncoding.EncodeToString([]byte(c.cfg.Username + ":" + c.cfg.Password))
		req.Header.Set(constants.HeaderAuthorization, "Basic "+creds)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrConnection, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
