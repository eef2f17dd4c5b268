package buildbot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/buildwatch/buildwatch/internal/metrics"
)

const defaultCallTimeout = 30 * time.Second

// ErrEnvelope is returned when a response does not contain exactly one result
// set besides "meta". It marks a broken upstream contract, not a transient
// failure.
var ErrEnvelope = errors.New("buildbot: malformed response envelope")

// Order is one ordering term of a query: field name plus direction.
type Order struct {
	Field string
	Desc  bool
}

// Filter restricts a query to records where Field <Op> one of Values,
// encoded upstream-style as field__op=value query parameters.
type Filter struct {
	Field  string
	Op     string
	Values []string
}

// Client talks to one upstream data API endpoint. It is safe for concurrent
// use; the per-call timeout bounds every request issued through it.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
}

// New creates a Client for the given base URL, e.g.
// "https://buildbot.example.org". timeout bounds each individual call;
// zero selects the 30s default.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("buildbot: parse base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("buildbot: base url %q must be absolute", baseURL)
	}
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Client{
		base:    u,
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
	}, nil
}

// Get issues one query against the data API and returns the single unwrapped
// result set as raw JSON. segments are joined under /api/v2/; limit <= 0 means
// no limit parameter.
func (c *Client) Get(ctx context.Context, segments []string, limit int, order []Order, filters []Filter) (json.RawMessage, error) {
	u := *c.base
	u.Path = "/api/v2/" + strings.Join(segments, "/")

	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	for _, o := range order {
		field := o.Field
		if o.Desc {
			field = "-" + field
		}
		q.Add("order", field)
	}
	for _, f := range filters {
		for _, v := range f.Values {
			q.Add(f.Field+"__"+f.Op, v)
		}
	}
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("buildbot: build request: %w", err)
	}

	metrics.UpstreamRequests.WithLabelValues(segments[0]).Inc()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("buildbot: get %s: %w", u.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("buildbot: get %s: unexpected status %d", u.Path, resp.StatusCode)
	}

	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("buildbot: decode %s: %w", u.Path, err)
	}
	return unwrap(envelope, u.Path)
}

// unwrap strips the meta key and requires exactly one remaining result set.
func unwrap(envelope map[string]json.RawMessage, path string) (json.RawMessage, error) {
	delete(envelope, "meta")
	if len(envelope) != 1 {
		keys := make([]string, 0, len(envelope))
		for k := range envelope {
			keys = append(keys, k)
		}
		return nil, fmt.Errorf("%w: %s returned %d result sets %v, want 1",
			ErrEnvelope, path, len(envelope), keys)
	}
	for _, v := range envelope {
		return v, nil
	}
	return nil, ErrEnvelope // unreachable
}

// Workers lists all workers with their connection and configuration state.
func (c *Client) Workers(ctx context.Context) ([]Worker, error) {
	raw, err := c.Get(ctx, []string{"workers"}, 0, nil, nil)
	if err != nil {
		return nil, err
	}
	var workers []Worker
	if err := json.Unmarshal(raw, &workers); err != nil {
		return nil, fmt.Errorf("buildbot: decode workers: %w", err)
	}
	for i, w := range workers {
		if w.WorkerID == 0 || w.Name == "" {
			return nil, fmt.Errorf("buildbot: worker %d missing workerid or name", i)
		}
	}
	return workers, nil
}

// Builders lists all builder definitions.
func (c *Client) Builders(ctx context.Context) ([]Builder, error) {
	raw, err := c.Get(ctx, []string{"builders"}, 0, nil, nil)
	if err != nil {
		return nil, err
	}
	var builders []Builder
	if err := json.Unmarshal(raw, &builders); err != nil {
		return nil, fmt.Errorf("buildbot: decode builders: %w", err)
	}
	for i, b := range builders {
		if b.BuilderID == 0 || b.Name == "" {
			return nil, fmt.Errorf("buildbot: builder %d missing builderid or name", i)
		}
	}
	return builders, nil
}

// RecentBuilds lists a builder's completed builds, most recent first,
// limited to the given window.
func (c *Client) RecentBuilds(ctx context.Context, builderID int64, limit int) ([]Build, error) {
	segments := []string{"builders", strconv.FormatInt(builderID, 10), "builds"}
	raw, err := c.Get(ctx, segments, limit,
		[]Order{{Field: "complete_at", Desc: true}},
		[]Filter{{Field: "complete", Op: "eq", Values: []string{"true"}}},
	)
	if err != nil {
		return nil, err
	}
	var builds []Build
	if err := json.Unmarshal(raw, &builds); err != nil {
		return nil, fmt.Errorf("buildbot: decode builds for builder %d: %w", builderID, err)
	}
	for i, b := range builds {
		if b.BuildID == 0 || b.BuilderID == 0 {
			return nil, fmt.Errorf("buildbot: build %d of builder %d missing buildid or builderid", i, builderID)
		}
	}
	return builds, nil
}

// Changes lists the blamelist of one build.
func (c *Client) Changes(ctx context.Context, buildID int64) ([]Change, error) {
	segments := []string{"builds", strconv.FormatInt(buildID, 10), "changes"}
	raw, err := c.Get(ctx, segments, 0, nil, nil)
	if err != nil {
		return nil, err
	}
	var changes []Change
	if err := json.Unmarshal(raw, &changes); err != nil {
		return nil, fmt.Errorf("buildbot: decode changes for build %d: %w", buildID, err)
	}
	return changes, nil
}
