package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*UserRecordStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewUserRecordStore(New(db))
	store.now = func() time.Time { return fixedNow }
	return store, mock
}

var recordColumns = []string{
	"authenticated", "created_at", "updated_at",
	"pending_message_ref", "pending_code", "pending_auth_url",
	"access_token", "username", "updated_at",
}

func TestUserRecordStore_Get(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT u.authenticated.*FROM bot_users u.*JOIN bot_authorizations a").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow(true, fixedNow, fixedNow, "42:10", "abc", "https://getpocket.com/auth/authorize", "tok", "alice", fixedNow))

	rec, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID(42), rec.Status.UserID)
	assert.True(t, rec.Status.Authenticated)
	assert.Equal(t, "42:10", *rec.Authorization.PendingMessageRef)
	assert.Equal(t, "abc", *rec.Authorization.PendingCode)
	assert.Equal(t, "tok", *rec.Authorization.AccessToken)
	assert.Equal(t, "alice", *rec.Authorization.Username)
	assert.Equal(t, domain.AuthStateAuthenticated, rec.State())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRecordStore_Get_Defaults(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT u.authenticated").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow(false, fixedNow, fixedNow, nil, nil, nil, nil, nil, fixedNow))

	rec, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, rec.Status.Authenticated)
	assert.Nil(t, rec.Authorization.PendingMessageRef)
	assert.Nil(t, rec.Authorization.PendingCode)
	assert.Nil(t, rec.Authorization.PendingAuthURL)
	assert.Nil(t, rec.Authorization.AccessToken)
	assert.Nil(t, rec.Authorization.Username)
	assert.Equal(t, domain.AuthStateUnauthenticated, rec.State())
}

func TestUserRecordStore_Get_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT u.authenticated").WithArgs(int64(42)).WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRecordStore_Get_Error(t *testing.T) {
	store, mock := newMockStore(t)
	outage := errors.New("connection refused")
	mock.ExpectQuery("SELECT u.authenticated").WithArgs(int64(42)).WillReturnError(outage)

	_, err := store.Get(context.Background(), 42)
	assert.ErrorIs(t, err, outage)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRecordStore_Ensure(t *testing.T) {
	tests := []struct {
		name        string
		rows        int64
		wantCreated bool
	}{
		{name: "new user", rows: 1, wantCreated: true},
		{name: "existing user", rows: 0, wantCreated: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)

			mock.ExpectBegin()
			mock.ExpectExec("INSERT INTO bot_users .* ON CONFLICT \\(user_id\\) DO NOTHING").
				WithArgs(int64(42), fixedNow).
				WillReturnResult(sqlmock.NewResult(0, tt.rows))
			mock.ExpectExec("INSERT INTO bot_authorizations .* ON CONFLICT \\(user_id\\) DO NOTHING").
				WithArgs(int64(42), fixedNow).
				WillReturnResult(sqlmock.NewResult(0, tt.rows))
			mock.ExpectCommit()

			created, err := store.Ensure(context.Background(), 42)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, created)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRecordStore_Ensure_RollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bot_users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bot_authorizations").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := store.Ensure(context.Background(), 42)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRecordStore_SetFields(t *testing.T) {
	store, mock := newMockStore(t)

	update := domain.PendingAttempt("abc", "https://getpocket.com/auth/authorize?request_token=abc", domain.MessageRef{ChatID: 42, MessageID: 10})
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE bot_authorizations SET pending_message_ref = $2, pending_code = $3, pending_auth_url = $4, updated_at = $5 WHERE user_id = $1")).
		WithArgs(int64(42), "42:10", "abc", "https://getpocket.com/auth/authorize?request_token=abc", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SetFields(context.Background(), 42, update))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRecordStore_SetFields_Token(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE bot_authorizations SET access_token = $2, username = $3, updated_at = $4 WHERE user_id = $1")).
		WithArgs(int64(42), "tok", "alice", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SetFields(context.Background(), 42, domain.GrantedToken("tok", "alice")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRecordStore_SetFields_Invalid(t *testing.T) {
	store, mock := newMockStore(t)

	for _, update := range []domain.FieldUpdate{
		{},
		{"nickname": "x"},
		{domain.FieldAccessToken: "tok"},
	} {
		err := store.SetFields(context.Background(), 42, update)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRecordStore_SetFields_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("UPDATE bot_authorizations").WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SetFields(context.Background(), 42, domain.FieldUpdate{domain.FieldPendingCode: "abc"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRecordStore_SetAuthenticated(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bot_users SET authenticated = $2, updated_at = $3 WHERE user_id = $1")).
		WithArgs(int64(42), true, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bot_users").
		WithArgs(int64(43), true, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.SetAuthenticated(context.Background(), 42, true))
	assert.ErrorIs(t, store.SetAuthenticated(context.Background(), 43, true), domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{
			name: "no override",
			cfg:  Config{URL: "postgres://bot:pw@db:5432/app?sslmode=disable"},
			want: "postgres://bot:pw@db:5432/app?sslmode=disable",
		},
		{
			name: "override",
			cfg:  Config{URL: "postgres://bot:pw@db:5432/app?sslmode=disable", DatabaseName: "pocketbot"},
			want: "postgres://bot:pw@db:5432/pocketbot?sslmode=disable",
		},
		{
			name: "override without path",
			cfg:  Config{URL: "postgresql://db", DatabaseName: "pocketbot"},
			want: "postgresql://db/pocketbot",
		},
		{
			name:    "keyword dsn cannot be overridden",
			cfg:     Config{URL: "host=db user=bot", DatabaseName: "pocketbot"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.DSN()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
