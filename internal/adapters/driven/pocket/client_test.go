package pocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
)

const testRedirect = "https://t.me/pocket_bot?start=authorizationFinished_"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		ConsumerKey:  "consumer",
		BaseURL:      srv.URL + "/",
		RedirectBase: testRedirect,
		Timeout:      5 * time.Second,
	})
}

func TestClient_RequestCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/oauth/request", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("X-Accept"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "consumer", r.PostForm.Get("consumer_key"))
		assert.Equal(t, testRedirect+"42", r.PostForm.Get("redirect_uri"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"abc","state":null}`))
	})

	result := client.RequestCode(context.Background(), 42)
	code, ok := result.Get()
	require.True(t, ok)
	assert.Equal(t, "abc", code)
	assert.Nil(t, result.Failure)
}

func TestClient_RequestCode_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		xError     string
		wantStatus int
		wantMsg    string
	}{
		{name: "forbidden", status: http.StatusForbidden, body: "", xError: "Invalid consumer key.", wantStatus: 403, wantMsg: "Invalid consumer key."},
		{name: "server error", status: http.StatusInternalServerError, body: "oops", wantStatus: 500, wantMsg: "oops"},
		{name: "missing code", status: http.StatusOK, body: `{}`, wantStatus: 200},
		{name: "malformed body", status: http.StatusOK, body: `not json`, wantStatus: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.xError != "" {
					w.Header().Set("X-Error", tt.xError)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			result := client.RequestCode(context.Background(), 42)
			assert.False(t, result.OK)
			require.NotNil(t, result.Failure)
			assert.Equal(t, tt.wantStatus, result.Failure.StatusCode)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, result.Failure.Message)
			}
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(Config{ConsumerKey: "consumer", BaseURL: srv.URL, RedirectBase: testRedirect})

	result := client.ExchangeCode(context.Background(), "abc")
	assert.False(t, result.OK)
	require.NotNil(t, result.Failure)
	assert.Equal(t, 0, result.Failure.StatusCode)
	assert.Contains(t, result.Failure.String(), "transport: ")
}

func TestClient_AuthURL(t *testing.T) {
	client := NewClient(Config{BaseURL: "https://getpocket.com", RedirectBase: testRedirect})

	raw := client.AuthURL(42, "abc")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "getpocket.com", u.Host)
	assert.Equal(t, "/auth/authorize", u.Path)
	assert.Equal(t, "abc", u.Query().Get("request_token"))
	assert.Equal(t, testRedirect+"42", u.Query().Get("redirect_uri"))
}

func TestClient_ExchangeCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/oauth/authorize", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "consumer", r.PostForm.Get("consumer_key"))
		assert.Equal(t, "abc", r.PostForm.Get("code"))
		_, _ = w.Write([]byte(`{"access_token":"tok","username":"alice"}`))
	})

	token, ok := client.ExchangeCode(context.Background(), "abc").Get()
	require.True(t, ok)
	assert.Equal(t, domain.Token{AccessToken: "tok", Username: "alice"}, token)
}

func TestClient_ExchangeCode_MissingFields(t *testing.T) {
	for _, body := range []string{`{"access_token":"tok"}`, `{"username":"alice"}`, `{}`} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})

		result := client.ExchangeCode(context.Background(), "abc")
		assert.False(t, result.OK, body)
		require.NotNil(t, result.Failure, body)
	}
}

func TestClient_Retrieve(t *testing.T) {
	since := time.Unix(1700000000, 0)
	fav := true

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/get", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		f := r.PostForm
		assert.Equal(t, "consumer", f.Get("consumer_key"))
		assert.Equal(t, "tok", f.Get("access_token"))
		assert.Equal(t, "unread", f.Get("state"))
		assert.Equal(t, "1", f.Get("favorite"))
		assert.Equal(t, "newest", f.Get("sort"))
		assert.Equal(t, "simple", f.Get("detailType"))
		assert.Equal(t, "1700000000", f.Get("since"))
		assert.Equal(t, "2", f.Get("count"))
		assert.Equal(t, "4", f.Get("offset"))
		for _, unset := range []string{"tag", "contentType", "search", "domain"} {
			_, present := f[unset]
			assert.False(t, present, unset)
		}

		_, _ = w.Write([]byte(`{"status":1,"complete":1,"list":{
			"222":{"item_id":"222","resolved_title":"Second","resolved_url":"https://b.example","sort_id":1},
			"111":{"item_id":"111","given_title":"First","given_url":"https://a.example","sort_id":0}
		}}`))
	})

	page, ok := client.Retrieve(context.Background(), "tok", domain.ListQuery{
		State:      domain.ItemStateUnread,
		Favorite:   &fav,
		Sort:       domain.SortNewest,
		DetailType: domain.DetailSimple,
		Since:      &since,
		Count:      2,
		Offset:     4,
	}).Get()
	require.True(t, ok)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "111", page.Items[0].ItemID)
	assert.Equal(t, "First", page.Items[0].Title())
	assert.Equal(t, "https://b.example", page.Items[1].URL())
	assert.Equal(t, 4, page.Offset)
}

func TestClient_Retrieve_EmptyList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		_, present := r.PostForm["favorite"]
		assert.False(t, present)
		_, _ = w.Write([]byte(`{"status":2,"complete":1,"list":[]}`))
	})

	page, ok := client.Retrieve(context.Background(), "tok", domain.ListQuery{}).Get()
	require.True(t, ok)
	assert.Empty(t, page.Items)
}

func TestClient_Retrieve_Unauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Error", "Invalid access token.")
		w.WriteHeader(http.StatusUnauthorized)
	})

	result := client.Retrieve(context.Background(), "bad", domain.ListQuery{})
	assert.False(t, result.OK)
	assert.Equal(t, 401, result.Failure.StatusCode)
	assert.Equal(t, "Invalid access token.", result.Failure.Message)
}
