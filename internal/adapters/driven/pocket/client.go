package pocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
	"github.com/custodia-labs/pocketbot/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.PocketClient = (*Client)(nil)

// DefaultBaseURL is the public Pocket endpoint.
const DefaultBaseURL = "https://getpocket.com"

// maxErrorBody limits how much of an error response is kept in a Failure.
const maxErrorBody = 1024

// Config holds configuration for the Pocket client.
type Config struct {
	ConsumerKey string
	BaseURL     string
	// RedirectBase is prefixed to the user ID to form the redirect URI,
	// e.g. "https://t.me/<bot>?start=authorizationFinished_".
	RedirectBase string
	// Timeout is the HTTP client timeout. Zero means no timeout.
	Timeout time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client calls the Pocket v3 API. Calls are never retried.
type Client struct {
	consumerKey  string
	baseURL      string
	redirectBase string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient creates a new Pocket API client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		consumerKey:  cfg.ConsumerKey,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		redirectBase: cfg.RedirectBase,
		httpClient:   httpClient,
		logger:       logger,
	}
}

type codeRequest struct {
	ConsumerKey string `url:"consumer_key"`
	RedirectURI string `url:"redirect_uri"`
}

type codeResponse struct {
	Code string `json:"code"`
}

type authorizeRequest struct {
	ConsumerKey string `url:"consumer_key"`
	Code        string `url:"code"`
}

type authorizeResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

// retrieveRequest carries the optional filters of /v3/get. Unset filters are
// left out of the form.
type retrieveRequest struct {
	ConsumerKey string `url:"consumer_key"`
	AccessToken string `url:"access_token"`
	State       string `url:"state,omitempty"`
	Favorite    *int   `url:"favorite,omitempty"`
	Tag         string `url:"tag,omitempty"`
	ContentType string `url:"contentType,omitempty"`
	Sort        string `url:"sort,omitempty"`
	DetailType  string `url:"detailType,omitempty"`
	Search      string `url:"search,omitempty"`
	Domain      string `url:"domain,omitempty"`
	Since       *int64 `url:"since,omitempty"`
	Count       int    `url:"count,omitempty"`
	Offset      int    `url:"offset,omitempty"`
}

type retrieveResponse struct {
	Status int `json:"status"`
	// List is an object keyed by item ID, or an empty array when there are
	// no items.
	List json.RawMessage `json:"list"`
}

// RequestCode obtains a request token whose redirect points back at the user.
func (c *Client) RequestCode(ctx context.Context, id domain.UserID) domain.Result[string] {
	form := codeRequest{
		ConsumerKey: c.consumerKey,
		RedirectURI: c.redirectURI(id),
	}

	var resp codeResponse
	if failure := c.post(ctx, "request_code", "/v3/oauth/request", form, &resp); failure != nil {
		return domain.Result[string]{Failure: failure}
	}
	if resp.Code == "" {
		return failed[string](c, "request_code", http.StatusOK, "response has no code")
	}
	c.succeeded("request_code")
	return domain.Succeeded(resp.Code)
}

// AuthURL builds the Pocket page where the user approves the request token.
func (c *Client) AuthURL(id domain.UserID, code string) string {
	params := url.Values{
		"request_token": {code},
		"redirect_uri":  {c.redirectURI(id)},
	}
	return c.baseURL + "/auth/authorize?" + params.Encode()
}

// ExchangeCode trades an approved request token for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) domain.Result[domain.Token] {
	form := authorizeRequest{
		ConsumerKey: c.consumerKey,
		Code:        code,
	}

	var resp authorizeResponse
	if failure := c.post(ctx, "exchange_code", "/v3/oauth/authorize", form, &resp); failure != nil {
		return domain.Result[domain.Token]{Failure: failure}
	}
	if resp.AccessToken == "" || resp.Username == "" {
		return failed[domain.Token](c, "exchange_code", http.StatusOK, "response lacks access_token or username")
	}
	c.succeeded("exchange_code")
	return domain.Succeeded(domain.Token{AccessToken: resp.AccessToken, Username: resp.Username})
}

// Retrieve fetches saved items. Items come back in the server's sort order.
func (c *Client) Retrieve(ctx context.Context, accessToken string, q domain.ListQuery) domain.Result[domain.ListPage] {
	form := retrieveRequest{
		ConsumerKey: c.consumerKey,
		AccessToken: accessToken,
		State:       q.State,
		Tag:         q.Tag,
		ContentType: q.ContentType,
		Sort:        q.Sort,
		DetailType:  q.DetailType,
		Search:      q.Search,
		Domain:      q.Domain,
		Count:       q.Count,
		Offset:      q.Offset,
	}
	if q.Favorite != nil {
		fav := 0
		if *q.Favorite {
			fav = 1
		}
		form.Favorite = &fav
	}
	if q.Since != nil {
		since := q.Since.Unix()
		form.Since = &since
	}

	var resp retrieveResponse
	if failure := c.post(ctx, "retrieve", "/v3/get", form, &resp); failure != nil {
		return domain.Result[domain.ListPage]{Failure: failure}
	}

	items, err := decodeItems(resp.List)
	if err != nil {
		return failed[domain.ListPage](c, "retrieve", http.StatusOK, err.Error())
	}
	c.succeeded("retrieve")
	return domain.Succeeded(domain.ListPage{Items: items, Offset: q.Offset, Count: q.Count})
}

func decodeItems(raw json.RawMessage) ([]domain.Item, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		// null or []
		return nil, nil
	}
	var byID map[string]domain.Item
	if err := json.Unmarshal(raw, &byID); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	items := make([]domain.Item, 0, len(byID))
	for _, item := range byID {
		items = append(items, item)
	}
	domain.SortItems(items)
	return items, nil
}

// post sends a form-encoded request and decodes a JSON response into out.
// It returns a Failure for transport errors, non-2xx responses and
// undecodable bodies.
func (c *Client) post(ctx context.Context, op, path string, form any, out any) *domain.Failure {
	start := time.Now()
	defer func() {
		pocketRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	vals, err := query.Values(form)
	if err != nil {
		return c.failure(op, 0, fmt.Sprintf("encode form: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(vals.Encode()))
	if err != nil {
		return c.failure(op, 0, fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.failure(op, 0, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.failure(op, resp.StatusCode, fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(body)
		// Pocket puts the reason in X-Error rather than the body.
		if xerr := resp.Header.Get("X-Error"); xerr != "" {
			msg = xerr
		}
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return c.failure(op, resp.StatusCode, msg)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return c.failure(op, resp.StatusCode, fmt.Sprintf("decode response: %v", err))
	}
	return nil
}

func (c *Client) succeeded(op string) {
	pocketRequests.WithLabelValues(op, "ok").Inc()
}

func failed[T any](c *Client, op string, statusCode int, msg string) domain.Result[T] {
	return domain.Result[T]{Failure: c.failure(op, statusCode, msg)}
}

func (c *Client) failure(op string, statusCode int, msg string) *domain.Failure {
	status := "transport"
	if statusCode != 0 {
		status = strconv.Itoa(statusCode)
	}
	pocketRequests.WithLabelValues(op, status).Inc()
	c.logger.Warn("pocket request failed", "operation", op, "status_code", statusCode, "message", msg)
	return &domain.Failure{StatusCode: statusCode, Message: msg}
}

func (c *Client) redirectURI(id domain.UserID) string {
	return c.redirectBase + id.String()
}
