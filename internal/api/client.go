package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog/log"
)

// Credentials is the session as seen by the transport: it supplies the
// bearer token for every request and is revoked when a request that carried
// it comes back 401/403.
type Credentials interface {
	AccessToken() string
	HandleUnauthorized()
}

// Client talks to the assistant API. It reuses the openai-go request
// machinery (base URL, per-request timeout, middleware) for a non-OpenAI API.
type Client struct {
	oc    openai.Client
	creds Credentials
}

// New builds a client rooted at baseURL (e.g. http://host/api/v1/).
// Retries are disabled: a retry is always an explicit new call.
func New(baseURL string, timeout time.Duration, creds Credentials, opts ...option.RequestOption) *Client {
	c := &Client{creds: creds}
	base := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
		option.WithHeader("Accept", "application/json"),
		option.WithMiddleware(c.middleware),
	}
	c.oc = openai.NewClient(append(base, opts...)...)
	return c
}

func (c *Client) middleware(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	req.Header.Del("Authorization")
	var token string
	if c.creds != nil && !isAuthPath(req.URL.Path) {
		token = c.creds.AccessToken()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	res, err := next(req)
	if err != nil {
		log.Debug().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("request failed")
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", res.StatusCode).
		Dur("took", time.Since(start)).
		Msg("request")
	if res.StatusCode < http.StatusBadRequest {
		return res, nil
	}

	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	_ = res.Body.Close()
	apiErr := errorFromBody(res.StatusCode, body)
	if apiErr.Kind == KindAuth {
		if token == "" {
			// No session went out with the request, so there is nothing to
			// revoke: the credentials in the body were rejected.
			apiErr.Kind = KindServer
			return nil, apiErr
		}
		log.Warn().Int("status", res.StatusCode).Str("path", req.URL.Path).Msg("authorization denied, revoking session")
		c.creds.HandleUnauthorized()
	}
	return nil, apiErr
}

// isAuthPath reports whether path is a sign-in or sign-up endpoint. Those
// never carry the bearer token.
func isAuthPath(path string) bool {
	return strings.Contains(path, "/auth/")
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	var opts []option.RequestOption
	if body != nil {
		opts = append(opts, option.WithRequestBody(contentType, body))
	}
	var raw []byte
	if err := c.oc.Execute(ctx, method, path, nil, &raw, opts...); err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}
	return c.do(ctx, method, path, "application/json", body, out)
}

func (c *Client) doForm(ctx context.Context, path string, f *form, out any) error {
	body, contentType, err := f.encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, contentType, body, out)
}
