package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 10 * time.Second
	// maxBodyBytes bounds JSON envelopes; binaries are streamed without limit.
	maxBodyBytes = 16 << 20
)

var tracer = otel.Tracer("conatel.gouv.ht/web/internal/cms")

// Record is one raw CMS object, flat or wrapped in `attributes`.
type Record map[string]any

// Query carries the optional request parameters understood by the content API.
type Query struct {
	Populate []string
	Sort     []string
	Limit    int
	PageSize int
	Page     int
}

// Client talks to the headless content API. It is safe for concurrent use and
// never mutated after construction.
type Client struct {
	baseURL  *url.URL
	mediaURL *url.URL
	http     *http.Client
	timeout  time.Duration
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMediaBaseURL sets the host used to resolve relative upload paths.
// Invalid values are ignored and the API base is used instead.
func WithMediaBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := parseBase(raw); err == nil {
			c.mediaURL = u
		}
	}
}

// NewClient validates baseURL and returns a ready client. A missing or
// malformed base yields a FetchFailure of kind FailureConfig.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBase(baseURL)
	if err != nil {
		return nil, configFailure("", err)
	}
	c := &Client{
		baseURL:  base,
		mediaURL: base,
		http:     &http.Client{},
		timeout:  defaultTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func parseBase(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("base url is empty")
	}
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute http(s)", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// BaseURL returns the API base as configured.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// FetchCollection returns the records of a collection resource.
func (c *Client) FetchCollection(ctx context.Context, resource, locale string, q Query) ([]Record, error) {
	raw, err := c.fetch(ctx, resource, locale, q)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, &FetchFailure{Kind: FailureParse, Resource: resource, Err: errors.New("data is null")}
	}
	var out []Record
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &FetchFailure{Kind: FailureParse, Resource: resource, Err: fmt.Errorf("data is not an array: %w", err)}
	}
	for i := range out {
		if out[i] == nil {
			out[i] = Record{}
		}
	}
	return out, nil
}

// FetchSingle returns the record of a single-type resource such as a page header.
func (c *Client) FetchSingle(ctx context.Context, resource, locale string, q Query) (Record, error) {
	raw, err := c.fetch(ctx, resource, locale, q)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, &FetchFailure{Kind: FailureParse, Resource: resource, Err: errors.New("data is null")}
	}
	var out Record
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &FetchFailure{Kind: FailureParse, Resource: resource, Err: fmt.Errorf("data is not an object: %w", err)}
	}
	return out, nil
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta json.RawMessage `json:"meta"`
}

func (c *Client) fetch(ctx context.Context, resource, locale string, q Query) (json.RawMessage, error) {
	endpoint, err := c.Endpoint(resource, locale, q)
	if err != nil {
		return nil, configFailure(resource, err)
	}

	ctx, span := tracer.Start(ctx, "cms.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("cms.resource", resource),
		attribute.String("cms.locale", locale),
	)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, configFailure(resource, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "network")
		c.logger.Warn("cms request failed",
			zap.String("resource", resource),
			zap.String("locale", locale),
			zap.Error(err),
		)
		return nil, &FetchFailure{Kind: FailureNetwork, Resource: resource, Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	c.logger.Debug("cms request",
		zap.String("resource", resource),
		zap.String("locale", locale),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		span.SetStatus(codes.Error, resp.Status)
		return nil, &FetchFailure{Kind: FailureServer, Resource: resource, Status: resp.StatusCode}
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&env); err != nil {
		if ctx.Err() != nil {
			return nil, &FetchFailure{Kind: FailureNetwork, Resource: resource, Err: ctx.Err()}
		}
		span.SetStatus(codes.Error, "parse")
		c.logger.Error("cms response malformed",
			zap.String("resource", resource),
			zap.String("kind", FailureParse.String()),
			zap.Error(err),
		)
		return nil, &FetchFailure{Kind: FailureParse, Resource: resource, Status: resp.StatusCode, Err: err}
	}
	if len(env.Data) == 0 {
		c.logger.Error("cms response without data",
			zap.String("resource", resource),
			zap.String("kind", FailureParse.String()),
		)
		return nil, &FetchFailure{Kind: FailureParse, Resource: resource, Status: resp.StatusCode, Err: errors.New("missing data field")}
	}
	return env.Data, nil
}

// Endpoint builds the request URL for resource. Parameters are emitted in a
// fixed order with literal brackets, e.g.
// `/api/decisions?locale=fr&populate[0]=localizations&populate[1]=pdf`.
func (c *Client) Endpoint(resource, locale string, q Query) (string, error) {
	resource = strings.Trim(strings.TrimSpace(resource), "/")
	if resource == "" {
		return "", errors.New("resource is empty")
	}
	u := *c.baseURL
	u.Path = path.Join("/", u.Path, "api", resource)
	u.RawPath = ""
	u.RawQuery = encodeQuery(locale, q)
	return u.String(), nil
}

func encodeQuery(locale string, q Query) string {
	var params []string
	add := func(key, value string) {
		params = append(params, key+"="+escapeValue(value))
	}
	if locale != "" {
		add("locale", locale)
	}
	switch {
	case len(q.Populate) == 1 && q.Populate[0] == "*":
		params = append(params, "populate=*")
	default:
		for i, field := range q.Populate {
			add("populate["+strconv.Itoa(i)+"]", field)
		}
	}
	for i, field := range q.Sort {
		add("sort["+strconv.Itoa(i)+"]", field)
	}
	if q.Limit > 0 {
		add("pagination[limit]", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		add("pagination[page]", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		add("pagination[pageSize]", strconv.Itoa(q.PageSize))
	}
	return strings.Join(params, "&")
}

// escapeValue query-escapes v but keeps the separators the API reads in sort
// and populate values readable (`date:desc`, `image,file`).
func escapeValue(v string) string {
	return valueUnescaper.Replace(url.QueryEscape(v))
}

var valueUnescaper = strings.NewReplacer("%3A", ":", "%2C", ",")

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// ResolveURL turns an upload reference into an absolute URL. Absolute
// references and the empty string are returned unchanged.
func (c *Client) ResolveURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() {
		return ref
	}
	return c.mediaURL.ResolveReference(u).String()
}

// Binary is an attachment body being streamed from the media host.
// Callers must Close it.
type Binary struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	URL           string
}

func (b *Binary) Close() error {
	if b == nil || b.Body == nil {
		return nil
	}
	return b.Body.Close()
}

// FetchBinary opens the attachment referenced by ref. The request honours ctx
// but not the JSON timeout, since large files may take longer to stream.
func (c *Client) FetchBinary(ctx context.Context, ref string) (*Binary, error) {
	target := c.ResolveURL(ref)
	if target == "" {
		return nil, configFailure("", errors.New("empty attachment reference"))
	}

	ctx, span := tracer.Start(ctx, "cms.fetch_binary")
	defer span.End()
	span.SetAttributes(attribute.String("cms.url", target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, configFailure("", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, &FetchFailure{Kind: FailureNetwork, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		span.SetStatus(codes.Error, resp.Status)
		return nil, &FetchFailure{Kind: FailureServer, Status: resp.StatusCode}
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &Binary{
		Body:          resp.Body,
		ContentType:   ct,
		ContentLength: resp.ContentLength,
		URL:           target,
	}, nil
}
