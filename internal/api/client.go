package api

import (
	domainerrors "codeinspector/internal/core/errors"
	"codeinspector/internal/core/ports"
	"codeinspector/internal/engine/compare"
	"codeinspector/internal/engine/security"
	"codeinspector/internal/engine/smells"
	"codeinspector/internal/engine/structure"
	"codeinspector/internal/engine/syntax"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultClientTimeout = 30 * time.Second
	defaultRetryCount    = 2
)

// Client calls a remote codeinspector server.
type Client struct {
	http *resty.Client
}

type ClientOptions struct {
	Timeout    time.Duration
	RetryCount int
	Logger     *slog.Logger
}

func NewClient(baseURL string, opts ClientOptions) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("remote url is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultClientTimeout
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = 0
	} else if opts.RetryCount == 0 {
		opts.RetryCount = defaultRetryCount
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	rc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetLogger(&slogAdapter{logger: opts.Logger})
	// Only retry transport failures and throttling; analysis errors are final.
	rc.AddRetryCondition(func(resp *resty.Response, err error) bool {
		return err != nil || (resp != nil && resp.StatusCode() == 429)
	})
	return &Client{http: rc}, nil
}

func (c *Client) AnalyzeMetrics(ctx context.Context, code string) (map[string]string, error) {
	var out map[string]string
	err := c.post(ctx, "/api/code/metrics", codeRequest{Code: code}, &out)
	return out, err
}

func (c *Client) AnalyzeStructure(ctx context.Context, code string) (structure.Result, error) {
	var out structure.Result
	err := c.post(ctx, "/api/code/graph", codeRequest{Code: code}, &out)
	return out, err
}

func (c *Client) Compare(ctx context.Context, code1, code2 string) (compare.Result, error) {
	var out compare.Result
	err := c.post(ctx, "/api/code/compare", compareRequest{Code1: code1, Code2: code2}, &out)
	return out, err
}

func (c *Client) AnalyzeSmells(ctx context.Context, code string) (smells.Result, error) {
	var out smells.Result
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetBody(code).
		SetResult(&out).
		SetError(&apiErr).
		Post("/api/code-analysis/analyze")
	return out, checkResponse(resp, err, apiErr)
}

func (c *Client) AnalyzeSecurity(ctx context.Context, code string) (security.Result, error) {
	var out security.Result
	err := c.post(ctx, "/api/security/analyze", securityRequest{SourceCode: code}, &out)
	return out, err
}

func (c *Client) ParseSyntax(ctx context.Context, language, code string) (syntax.Tree, error) {
	var out syntax.Tree
	err := c.post(ctx, "/api/tree-sitter", syntaxRequest{Code: code, Language: language}, &out)
	return out, err
}

func (c *Client) AnalyzeAll(ctx context.Context, path, code string, engines ports.EngineSet) (ports.FileReport, error) {
	var out ports.FileReport
	req := analyzeRequest{Path: path, Code: code, Engines: strings.Join(engines.Names(), ",")}
	err := c.post(ctx, "/api/analyze", req, &out)
	return out, err
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(out).
		SetError(&apiErr).
		Post(path)
	return checkResponse(resp, err, apiErr)
}

// checkResponse turns a remote error body back into a domain error so
// callers can branch on the same codes as with a local service.
func checkResponse(resp *resty.Response, err error, apiErr errorResponse) error {
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "remote request failed")
	}
	if !resp.IsError() {
		return nil
	}
	code := apiErr.Code
	if code == "" {
		code = domainerrors.CodeInternal
	}
	msg := apiErr.Error
	if msg == "" {
		msg = fmt.Sprintf("remote returned %s", resp.Status())
	}
	return domainerrors.New(code, msg)
}

type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

func (a *slogAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(fmt.Sprintf(format, v...))
}

func (a *slogAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, v...))
}
