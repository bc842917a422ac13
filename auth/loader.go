package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/config"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/token"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Directory resolves a subject to its current user record.
//
// FindUser returns ErrSubjectNotFound (possibly wrapped) when the subject is
// unknown. Implementations own their lookup timeout and must honor ctx.
type Directory interface {
	FindUser(ctx context.Context, subject string) (*UserRecord, error)
}

// Result is the outcome of Load. Exactly one of Identity and Err is set.
type Result struct {
	// Identity is the resolved principal; nil means unauthenticated.
	Identity *Identity

	// Token is the raw bearer token, set once the scheme check passed.
	Token string

	// Err is the diagnostic cause of an unauthenticated result.
	Err error
}

// Authenticated reports whether the request carries a usable identity
func (r Result) Authenticated() bool {
	return r.Identity != nil
}

func unauthenticated(tokenString string, err error) Result {
	return Result{Token: tokenString, Err: err}
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithTracer sets the tracer used for per-request spans
func WithTracer(tracer trace.Tracer) LoaderOption {
	return func(l *Loader) {
		l.tracer = tracer
	}
}

// Loader turns the credential header of a request into an Identity. It keeps
// no per-request state and is safe for concurrent use.
type Loader struct {
	cfg       config.CredentialsConfig
	codec     *token.Codec
	verifier  *token.Verifier
	directory Directory
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewLoader creates a new Loader
func NewLoader(
	cfg config.CredentialsConfig,
	codec *token.Codec,
	verifier *token.Verifier,
	directory Directory,
	logger *zap.Logger,
	opts ...LoaderOption,
) *Loader {
	l := &Loader{
		cfg:       cfg,
		codec:     codec,
		verifier:  verifier,
		directory: directory,
		tracer:    tracenoop.NewTracerProvider().Tracer("noop"),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// BearerToken reads the configured header and strips the scheme prefix.
// It returns ErrMissingCredential when the header is absent or empty and
// ErrWrongScheme when the value does not start with the scheme prefix.
func BearerToken(header http.Header, cfg config.CredentialsConfig) (string, error) {
	value := header.Get(cfg.HeaderName)
	if value == "" {
		return "", ErrMissingCredential
	}
	if !strings.HasPrefix(value, cfg.SchemePrefix) || len(value) < cfg.SchemePrefixLength {
		return "", ErrWrongScheme
	}
	return value[cfg.SchemePrefixLength:], nil
}

// Load runs the authentication steps for one request in order: header,
// scheme, subject, directory lookup, verification. Any failing step ends in
// an unauthenticated Result; no partial identity is ever returned.
func (l *Loader) Load(ctx context.Context, header http.Header) Result {
	ctx, span := l.tracer.Start(ctx, "auth.load",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	result := l.load(ctx, header)

	span.SetAttributes(
		attribute.Bool("auth.authenticated", result.Authenticated()),
		attribute.String("auth.reason", Reason(result.Err)),
	)
	if result.Authenticated() {
		span.SetAttributes(attribute.String("auth.subject", result.Identity.Subject))
		span.SetStatus(codes.Ok, "")
	}
	return result
}

func (l *Loader) load(ctx context.Context, header http.Header) Result {
	tokenString, err := BearerToken(header, l.cfg)
	if err != nil {
		return unauthenticated("", err)
	}

	subject := l.codec.ExtractSubject(tokenString)
	if subject == "" {
		return unauthenticated(tokenString, fmt.Errorf("%w: no decodable subject", token.ErrMalformed))
	}

	if err := ctx.Err(); err != nil {
		return unauthenticated(tokenString, fmt.Errorf("authentication abandoned: %w", err))
	}

	record, err := l.directory.FindUser(ctx, subject)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return unauthenticated(tokenString, fmt.Errorf("authentication abandoned: %w", ctxErr))
	}
	if err != nil || record == nil {
		if err != nil && !errors.Is(err, ErrSubjectNotFound) {
			l.logger.Warn("directory lookup failed",
				zap.String("subject", subject),
				zap.Error(err))
			trace.SpanFromContext(ctx).RecordError(err)
		}
		return unauthenticated(tokenString, fmt.Errorf("%w: %q", ErrSubjectNotFound, subject))
	}

	claims, err := l.verifier.Verify(tokenString, record.Subject)
	if err != nil {
		l.logger.Debug("token verification failed",
			zap.String("subject", record.Subject),
			zap.String("reason", Reason(err)),
			zap.Error(err))
		return unauthenticated(tokenString, err)
	}

	roles := record.Roles
	if l.cfg.TrustTokenRoles {
		roles = claims.Roles
	}

	return Result{
		Identity: &Identity{
			Subject: record.Subject,
			Roles:   append([]string(nil), roles...),
		},
		Token: tokenString,
	}
}
