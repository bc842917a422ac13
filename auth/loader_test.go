package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/config"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

// MockDirectory is a mock implementation of Directory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) FindUser(ctx context.Context, subject string) (*UserRecord, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UserRecord), args.Error(1)
}

func testCredentials() config.CredentialsConfig {
	return config.CredentialsConfig{
		Secret:             []byte("loader-test-secret"),
		TTL:                time.Hour,
		HeaderName:         "Authorization",
		SchemePrefix:       "Bearer ",
		SchemePrefixLength: 7,
	}
}

type loaderFixture struct {
	cfg       config.CredentialsConfig
	codec     *token.Codec
	directory *MockDirectory
	loader    *Loader
}

func newLoaderFixture(t *testing.T, cfg config.CredentialsConfig, opts ...LoaderOption) *loaderFixture {
	t.Helper()
	codec := token.NewCodec(cfg)
	directory := new(MockDirectory)
	verifier := token.NewVerifier(codec, zap.NewNop())
	return &loaderFixture{
		cfg:       cfg,
		codec:     codec,
		directory: directory,
		loader:    NewLoader(cfg, codec, verifier, directory, zap.NewNop(), opts...),
	}
}

func (f *loaderFixture) header(t *testing.T, subject, role string) http.Header {
	t.Helper()
	signed, err := f.codec.Issue(subject, role)
	require.NoError(t, err)
	h := http.Header{}
	h.Set(f.cfg.HeaderName, f.cfg.SchemePrefix+signed)
	return h
}

func TestLoader_Load(t *testing.T) {
	t.Run("valid token for known subject yields identity", func(t *testing.T) {
		f := newLoaderFixture(t, testCredentials())
		f.directory.On("FindUser", mock.Anything, "alice").
			Return(&UserRecord{Subject: "alice", Roles: []string{RoleUser}}, nil)

		result := f.loader.Load(context.Background(), f.header(t, "alice", RoleUser))

		require.True(t, result.Authenticated())
		assert.NoError(t, result.Err)
		assert.Equal(t, "alice", result.Identity.Subject)
		assert.Equal(t, []string{RoleUser}, result.Identity.Roles)
		assert.NotEmpty(t, result.Token)
		f.directory.AssertExpectations(t)
	})

	t.Run("no header is anonymous without lookup", func(t *testing.T) {
		f := newLoaderFixture(t, testCredentials())

		result := f.loader.Load(context.Background(), http.Header{})

		assert.False(t, result.Authenticated())
		assert.ErrorIs(t, result.Err, ErrMissingCredential)
		f.directory.AssertNotCalled(t, "FindUser", mock.Anything, mock.Anything)
	})

	t.Run("empty header value counts as missing", func(t *testing.T) {
		f := newLoaderFixture(t, testCredentials())
		h := http.Header{}
		h.Set("Authorization", "")

		result := f.loader.Load(context.Background(), h)

		assert.ErrorIs(t, result.Err, ErrMissingCredential)
	})

	t.Run("wrong scheme is rejected", func(t *testing.T) {
		f := newLoaderFixture(t, testCredentials())
		for _, value := range []string{"Basic YWxpY2U6c2VjcmV0", "bearer abc", "Bearer", "Token abc"} {
			h := http.Header{}
			h.Set("Authorization", value)

			result := f.loader.Load(context.Background(), h)

			assert.False(t, result.Authenticated())
			assert.ErrorIs(t, result.Err, ErrWrongScheme, value)
		}
		f.directory.AssertNotCalled(t, "FindUser", mock.Anything, mock.Anything)
	})

	t.Run("undecodable token skips lookup", func(t *testing.T) {
		f := newLoaderFixture(t, testCredentials())
		h := http.Header{}
		h.Set("Authorization", "Bearer not-a-token")

		result := f.loader.Load(context.Background(), h)

		assert.False(t, result.Authenticated())
		assert.ErrorIs(t, result.Err, token.ErrMalformed)
		assert.Equal(t, "not-a-token", result.Token)
		f.directory.AssertNotCalled(t, "FindUser", mock.Anything, mock.Anything)
	})

	t.Run("subject missing from directory is unauthenticated", func(t *testing.T) {
		f := newLoaderFixture(t, testCredentials())
		f.directory.On("FindUser", mock.Anything, "ghost").Return(nil, ErrSubjectNotFound)

		result := f.loader.Load(context.Background(), f.header(t, "ghost", RoleUser))

		assert.False(t, result.Authenticated())
		assert.Nil(t, result.Identity)
		assert.ErrorIs(t, result.Err, ErrSubjectNotFound)
	})

	t.Run("directory failure collapses to not found", func(t *testing.T) {
		f := newLoaderFixture(t, testCredentials())
		f.directory.On("FindUser", mock.Anything, "alice").Return(nil, errors.New("connection refused"))

		result := f.loader.Load(context.Background(), f.header(t, "alice", RoleUser))

		assert.False(t, result.Authenticated())
		assert.ErrorIs(t, result.Err, ErrSubjectNotFound)
	})

	t.Run("forged signature is rejected after lookup", func(t *testing.T) {
		f := newLoaderFixture(t, testCredentials())
		f.directory.On("FindUser", mock.Anything, "alice").
			Return(&UserRecord{Subject: "alice", Roles: []string{RoleUser}}, nil)

		other := testCredentials()
		other.Secret = []byte("attacker-secret")
		forged, err := token.NewCodec(other).Issue("alice", RoleAdmin)
		require.NoError(t, err)
		h := http.Header{}
		h.Set("Authorization", "Bearer "+forged)

		result := f.loader.Load(context.Background(), h)

		assert.False(t, result.Authenticated())
		assert.ErrorIs(t, result.Err, token.ErrInvalidSignature)
	})

	t.Run("directory record with different subject fails binding", func(t *testing.T) {
		f := newLoaderFixture(t, testCredentials())
		f.directory.On("FindUser", mock.Anything, "alice").
			Return(&UserRecord{Subject: "Alice", Roles: []string{RoleUser}}, nil)

		result := f.loader.Load(context.Background(), f.header(t, "alice", RoleUser))

		assert.False(t, result.Authenticated())
		assert.ErrorIs(t, result.Err, token.ErrSubjectMismatch)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		cfg := testCredentials()
		cfg.TTL = time.Millisecond
		f := newLoaderFixture(t, cfg)
		f.directory.On("FindUser", mock.Anything, "alice").
			Return(&UserRecord{Subject: "alice", Roles: []string{RoleUser}}, nil)

		h := f.header(t, "alice", RoleUser)
		time.Sleep(5 * time.Millisecond)

		result := f.loader.Load(context.Background(), h)

		assert.False(t, result.Authenticated())
		assert.ErrorIs(t, result.Err, token.ErrExpired)
	})

	t.Run("custom header and scheme", func(t *testing.T) {
		cfg := testCredentials()
		cfg.HeaderName = "X-Board-Token"
		cfg.SchemePrefix = "Token "
		cfg.SchemePrefixLength = 6
		f := newLoaderFixture(t, cfg)
		f.directory.On("FindUser", mock.Anything, "alice").
			Return(&UserRecord{Subject: "alice", Roles: []string{RoleUser}}, nil)

		result := f.loader.Load(context.Background(), f.header(t, "alice", RoleUser))

		require.True(t, result.Authenticated())
		assert.Equal(t, "alice", result.Identity.Subject)
	})
}

func TestLoader_RoleSource(t *testing.T) {
	t.Run("roles come from the directory by default", func(t *testing.T) {
		f := newLoaderFixture(t, testCredentials())
		f.directory.On("FindUser", mock.Anything, "alice").
			Return(&UserRecord{Subject: "alice", Roles: []string{RoleUser}}, nil)

		// token minted while alice was still an admin
		result := f.loader.Load(context.Background(), f.header(t, "alice", RoleAdmin))

		require.True(t, result.Authenticated())
		assert.Equal(t, []string{RoleUser}, result.Identity.Roles)
	})

	t.Run("roles come from the token when trusted", func(t *testing.T) {
		cfg := testCredentials()
		cfg.TrustTokenRoles = true
		f := newLoaderFixture(t, cfg)
		f.directory.On("FindUser", mock.Anything, "alice").
			Return(&UserRecord{Subject: "alice", Roles: []string{RoleUser}}, nil)

		result := f.loader.Load(context.Background(), f.header(t, "alice", RoleAdmin))

		require.True(t, result.Authenticated())
		assert.Equal(t, []string{RoleAdmin}, result.Identity.Roles)
	})

	t.Run("identity roles are a copy of the record", func(t *testing.T) {
		f := newLoaderFixture(t, testCredentials())
		record := &UserRecord{Subject: "alice", Roles: []string{RoleUser}}
		f.directory.On("FindUser", mock.Anything, "alice").Return(record, nil)

		result := f.loader.Load(context.Background(), f.header(t, "alice", RoleUser))
		require.True(t, result.Authenticated())

		result.Identity.Roles[0] = RoleAdmin
		assert.Equal(t, []string{RoleUser}, record.Roles)
	})
}

func TestLoader_Cancellation(t *testing.T) {
	t.Run("cancelled before lookup", func(t *testing.T) {
		f := newLoaderFixture(t, testCredentials())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result := f.loader.Load(ctx, f.header(t, "alice", RoleUser))

		assert.False(t, result.Authenticated())
		assert.ErrorIs(t, result.Err, context.Canceled)
		f.directory.AssertNotCalled(t, "FindUser", mock.Anything, mock.Anything)
	})

	t.Run("cancelled during lookup returns no identity", func(t *testing.T) {
		f := newLoaderFixture(t, testCredentials())
		ctx, cancel := context.WithCancel(context.Background())
		f.directory.On("FindUser", mock.Anything, "alice").
			Run(func(args mock.Arguments) { cancel() }).
			Return(&UserRecord{Subject: "alice", Roles: []string{RoleUser}}, nil)

		result := f.loader.Load(ctx, f.header(t, "alice", RoleUser))

		assert.False(t, result.Authenticated())
		assert.Nil(t, result.Identity)
		assert.ErrorIs(t, result.Err, context.Canceled)
		assert.Equal(t, "canceled", Reason(result.Err))
	})
}

func TestLoader_Tracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	f := newLoaderFixture(t, testCredentials(), WithTracer(provider.Tracer("auth-test")))
	f.directory.On("FindUser", mock.Anything, "ghost").Return(nil, ErrSubjectNotFound)

	f.loader.Load(context.Background(), f.header(t, "ghost", RoleUser))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "auth.load", spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "false", attrs["auth.authenticated"])
	assert.Equal(t, "subject_not_found", attrs["auth.reason"])
}

func TestBearerToken(t *testing.T) {
	cfg := testCredentials()

	tests := []struct {
		name    string
		value   string
		want    string
		wantErr error
	}{
		{"bearer token", "Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"absent", "", "", ErrMissingCredential},
		{"lowercase scheme", "bearer abc", "", ErrWrongScheme},
		{"prefix only", "Bearer ", "", nil},
		{"no separator", "Bearerabc", "", ErrWrongScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Authorization", tt.value)
			}
			got, err := BearerToken(h, cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReason(t *testing.T) {
	assert.Equal(t, "ok", Reason(nil))
	assert.Equal(t, "missing_credential", Reason(ErrMissingCredential))
	assert.Equal(t, "wrong_scheme", Reason(ErrWrongScheme))
	assert.Equal(t, "subject_not_found", Reason(ErrSubjectNotFound))
	assert.Equal(t, "expired", Reason(token.ErrExpired))
	assert.Equal(t, "invalid_signature", Reason(token.ErrInvalidSignature))
	assert.Equal(t, "unknown", Reason(errors.New("boom")))
}
