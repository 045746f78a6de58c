package registry_go

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"registry-console/pkg/registry-go/model"
)

const (
	apiPrefix = "/api/v1/"
	loginPath = "users/login"
)

type Config struct {
	ServerUrl string
	CertPath  string
	Insecure  bool
	Username  string
	Password  string
	Timeout   time.Duration
}

// TokenSource yields the stored access token. An empty token means the user
// is not logged in.
type TokenSource interface {
	Token() (string, error)
}

// UnauthorizedHandler is called whenever the client decides the user has to
// log in again. path is the API path of the request that triggered it.
type UnauthorizedHandler func(path string)

type RestClient struct {
	client *client
}

type Option func(*client)

func WithTokenSource(ts TokenSource) Option {
	return func(c *client) {
		c.tokens = ts
	}
}

func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *client) {
		c.onUnauthorized = h
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.client = hc
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *client) {
		c.logger = l
	}
}

func NewRestClient(config *Config, opts ...Option) (*RestClient, error) {
	// Get the SystemCertPool, continue with an empty pool on error
	rootCAs, _ := x509.SystemCertPool()
	if rootCAs == nil {
		rootCAs = x509.NewCertPool()
	}

	if !config.Insecure && len(config.CertPath) > 0 {
		certs, err := os.ReadFile(config.CertPath)
		if err != nil {
			return nil, errors.Wrapf(err, "read ca cert %q", config.CertPath)
		}
		if ok := rootCAs.AppendCertsFromPEM(certs); !ok {
			return nil, errors.Errorf("no certs found in %q", config.CertPath)
		}
	}

	u, err := normalizeServerUrl(config.ServerUrl)
	if err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			RootCAs:            rootCAs,
			InsecureSkipVerify: config.Insecure,
		},
	}
	c := &client{
		url:      u,
		user:     config.Username,
		password: config.Password,
		client:   &http.Client{Transport: transport, Timeout: timeout},
		tokens:   noTokens{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return &RestClient{client: c}, nil
}

// HTTPClient exposes the configured transport so other components reach the
// same server with the same TLS settings.
func (c *RestClient) HTTPClient() *http.Client {
	return c.client.client
}

func normalizeServerUrl(raw string) (string, error) {
	u := strings.TrimSuffix(strings.TrimSpace(raw), "/")
	if !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
		return "", NewRegistryError(ErrorInvalid, "server url must start with http:// or https://")
	}
	if _, err := url.Parse(u); err != nil {
		return "", NewRegistryError(ErrorInvalid, err.Error())
	}
	return u, nil
}

type RequestForm struct {
	Method  string
	Path    string
	Params  url.Values
	Headers map[string]string
	Payload interface{}
}

type client struct {
	url            string
	user           string
	password       string
	client         *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
	logger         *zap.Logger
}

type noTokens struct{}

func (noTokens) Token() (string, error) { return "", nil }

func isLoginPath(path string) bool {
	return strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/") == loginPath
}

// Submit sends the form to the API. Requests without credentials are rejected
// before they reach the network unless they target the login endpoint. A 401
// or any 5xx response is turned into an error; every other response is handed
// back to the caller with its body still open.
func (c *client) Submit(ctx context.Context, form RequestForm) (*http.Response, error) {
	u := c.url + apiPrefix + strings.TrimPrefix(form.Path, "/")
	if len(form.Params) > 0 {
		u += "?" + form.Params.Encode()
	}

	var body io.Reader
	if form.Payload != nil {
		payload, err := json.Marshal(form.Payload)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, form.Method, u, body)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range form.Headers {
		req.Header.Set(k, v)
	}

	if err := c.authorize(req, form.Path); err != nil {
		return nil, err
	}

	c.logger.Debug("request", zap.String("method", form.Method), zap.String("url", u))
	res, err := c.client.Do(req)
	if err != nil {
		return nil, NewRegistryError(ErrorUnknown, err.Error())
	}
	return c.inspect(res, form.Path)
}

// authorize is the request phase: keep a caller-supplied Authorization header,
// otherwise attach the stored bearer token.
func (c *client) authorize(req *http.Request, path string) error {
	if req.Header.Get("Authorization") != "" {
		return nil
	}
	token, err := c.tokens.Token()
	if err != nil {
		return errors.Wrap(err, "read token")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
	if isLoginPath(path) {
		return nil
	}
	c.logger.Info("no token stored, login required", zap.String("path", path))
	c.unauthorized(path)
	return NewRegistryError(ErrorUnauthorized, "not logged in")
}

// inspect is the response phase.
func (c *client) inspect(res *http.Response, path string) (*http.Response, error) {
	switch {
	case res.StatusCode == http.StatusUnauthorized:
		payload := readErrorPayload(res)
		// a rejected login is a bad credential, not an expired session
		if !isLoginPath(path) {
			c.logger.Info("unauthorized response, login required", zap.String("path", path))
			c.unauthorized(path)
		}
		return nil, newServerError(ErrorUnauthorized, res.StatusCode, payload.Title, payload.Description)
	case res.StatusCode >= http.StatusInternalServerError:
		payload := readErrorPayload(res)
		c.logger.Error("server error", zap.String("path", path), zap.Int("status", res.StatusCode),
			zap.String("title", payload.Title))
		return nil, newServerError(ErrorInternal, res.StatusCode, payload.Title, payload.Description)
	}
	return res, nil
}

func (c *client) unauthorized(path string) {
	if c.onUnauthorized != nil {
		c.onUnauthorized(path)
	}
}

// readErrorPayload consumes and closes the body.
func readErrorPayload(res *http.Response) model.ErrorPayload {
	defer res.Body.Close()
	p := model.ErrorPayload{}
	dat, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil || len(dat) == 0 {
		return p
	}
	_ = json.Unmarshal(dat, &p)
	return p
}

// decode reads a JSON body into v when the status is one of want, and maps
// any other status to a RegistryError. The body is always closed.
func decode(res *http.Response, v interface{}, want ...int) error {
	for _, w := range want {
		if res.StatusCode == w {
			defer res.Body.Close()
			if v == nil {
				_, _ = io.Copy(io.Discard, res.Body)
				return nil
			}
			if err := json.NewDecoder(res.Body).Decode(v); err != nil {
				return NewRegistryError(ErrorUnknown, "decode response: "+err.Error())
			}
			return nil
		}
	}
	payload := readErrorPayload(res)
	return newServerError(codeForStatus(res.StatusCode), res.StatusCode, payload.Title, payload.Description)
}
