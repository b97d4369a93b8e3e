package mocks

import (
	"context"
	"net/url"
	"sync"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
)

// MockPocketClient is a scriptable PocketClient for testing.
// Each call is recorded; responses come from the Fn hooks or the defaults.
type MockPocketClient struct {
	mu sync.Mutex

	RedirectBase string

	RequestCodeFn  func(id domain.UserID) domain.Result[string]
	ExchangeCodeFn func(code string) domain.Result[domain.Token]
	RetrieveFn     func(accessToken string, query domain.ListQuery) domain.Result[domain.ListPage]

	RequestCodeCalls  []domain.UserID
	ExchangeCodeCalls []string
	RetrieveCalls     []domain.ListQuery
}

// NewMockPocketClient creates a client that succeeds with fixed values.
func NewMockPocketClient() *MockPocketClient {
	return &MockPocketClient{
		RedirectBase: "https://t.me/pocket_bot?start=authorizationFinished_",
	}
}

func (m *MockPocketClient) RequestCode(ctx context.Context, id domain.UserID) domain.Result[string] {
	m.mu.Lock()
	m.RequestCodeCalls = append(m.RequestCodeCalls, id)
	fn := m.RequestCodeFn
	m.mu.Unlock()
	if fn != nil {
		return fn(id)
	}
	return domain.Succeeded("code-" + id.String())
}

func (m *MockPocketClient) AuthURL(id domain.UserID, code string) string {
	params := url.Values{
		"request_token": {code},
		"redirect_uri":  {m.RedirectBase + id.String()},
	}
	return "https://getpocket.com/auth/authorize?" + params.Encode()
}

func (m *MockPocketClient) ExchangeCode(ctx context.Context, code string) domain.Result[domain.Token] {
	m.mu.Lock()
	m.ExchangeCodeCalls = append(m.ExchangeCodeCalls, code)
	fn := m.ExchangeCodeFn
	m.mu.Unlock()
	if fn != nil {
		return fn(code)
	}
	return domain.Succeeded(domain.Token{AccessToken: "token-" + code, Username: "user"})
}

func (m *MockPocketClient) Retrieve(ctx context.Context, accessToken string, query domain.ListQuery) domain.Result[domain.ListPage] {
	m.mu.Lock()
	m.RetrieveCalls = append(m.RetrieveCalls, query)
	fn := m.RetrieveFn
	m.mu.Unlock()
	if fn != nil {
		return fn(accessToken, query)
	}
	return domain.Succeeded(domain.ListPage{Offset: query.Offset})
}

// ExchangeCount returns how many times ExchangeCode was called.
func (m *MockPocketClient) ExchangeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ExchangeCodeCalls)
}

// RequestCount returns how many times RequestCode was called.
func (m *MockPocketClient) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RequestCodeCalls)
}
