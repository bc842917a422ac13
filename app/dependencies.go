package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/auth"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/config"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/middleware"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/repositories"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/repositories/postgres"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/services"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/services/audit"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/services/ratelimit"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/token"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// defaultAuditDrainTimeout bounds the audit drain when Close has no deadline
const defaultAuditDrainTimeout = 5 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger
	Tracer trace.Tracer

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users     repositories.UserRepository
	Tasks     repositories.TaskRepository
	AuditLogs repositories.AuditRepository
	TxManager repositories.TransactionManager

	// Audit trail. Recorder discards entries when the trail is disabled.
	Audit    *audit.AuditService
	Recorder middleware.AuditRecorder

	// Auth pipeline
	Codec          *token.Codec
	Verifier       *token.Verifier
	Directory      *services.UserDirectory
	Loader         *auth.Loader
	Gate           *auth.Gate
	AuthMiddleware *middleware.AuthMiddleware

	// Services
	LoginLimiter *ratelimit.LoginLimiter // nil when throttling is disabled
	AuthService  *services.AuthService
	UserService  *services.UserService
	TaskService  *services.TaskService
}

// Option customizes dependency construction
type Option func(*Dependencies)

// WithTracer sets the tracer used for auth pipeline spans
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dependencies) {
		d.Tracer = tracer
	}
}

// NewDependencies connects to PostgreSQL, creates the schema and wires up all
// application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Dependencies, error) {
	if err := cfg.Credentials.Validate(); err != nil {
		return nil, fmt.Errorf("invalid credentials config: %w", err)
	}

	factory, err := postgres.NewRepositoryFactory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := factory.InitSchema(ctx); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	deps, err := NewDependenciesWithFactory(cfg, factory, logger, opts...)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewDependenciesWithFactory wires the application around an existing
// repository factory. It does not touch the schema.
func NewDependenciesWithFactory(cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger, opts ...Option) (*Dependencies, error) {
	if err := cfg.Credentials.Validate(); err != nil {
		return nil, fmt.Errorf("invalid credentials config: %w", err)
	}

	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		Tracer:      tracenoop.NewTracerProvider().Tracer("noop"),
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}
	for _, opt := range opts {
		opt(deps)
	}

	deps.initRepositories()
	if err := deps.initAudit(cfg); err != nil {
		return nil, err
	}
	deps.initAuth(cfg)
	deps.initServices(cfg)

	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Tasks = repos.Tasks
	d.AuditLogs = repos.Audit
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initAudit creates the audit service and starts its workers when the trail
// is enabled. The service always serves reads. Non-positive sizes fall back
// to the audit defaults.
func (d *Dependencies) initAudit(cfg *config.Config) error {
	auditCfg := audit.DefaultConfig()
	if cfg.Audit.BufferSize > 0 {
		auditCfg.BufferSize = cfg.Audit.BufferSize
	}
	if cfg.Audit.WorkerCount > 0 {
		auditCfg.WorkerCount = cfg.Audit.WorkerCount
	}
	d.Audit = audit.NewAuditService(d.AuditLogs, d.Logger, auditCfg)
	d.Recorder = middleware.NopAuditRecorder{}

	if !cfg.Audit.Enabled {
		d.Logger.Info("audit trail disabled")
		return nil
	}
	if err := d.Audit.Start(); err != nil {
		return fmt.Errorf("failed to start audit service: %w", err)
	}
	d.Recorder = d.Audit
	return nil
}

// initAuth builds the request authentication pipeline. Codec, verifier and
// loader are stateless and shared by all requests.
func (d *Dependencies) initAuth(cfg *config.Config) {
	d.Codec = token.NewCodec(cfg.Credentials)
	d.Verifier = token.NewVerifier(d.Codec, d.Logger)
	d.Directory = services.NewUserDirectory(d.Users, cfg.Directory.LookupTimeout, d.Logger)
	d.Loader = auth.NewLoader(cfg.Credentials, d.Codec, d.Verifier, d.Directory, d.Logger,
		auth.WithTracer(d.Tracer))
	d.Gate = auth.NewGate(d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Loader, d.Gate, d.Logger,
		middleware.WithAuditRecorder(d.Recorder))

	roleSource := "directory"
	if cfg.Credentials.TrustTokenRoles {
		roleSource = "token"
	}
	d.Logger.Info("auth pipeline initialized",
		zap.String("header", cfg.Credentials.HeaderName),
		zap.Duration("token_ttl", cfg.Credentials.TTL),
		zap.String("role_source", roleSource))
}

// initServices initializes the domain services
func (d *Dependencies) initServices(cfg *config.Config) {
	var authOpts []services.AuthServiceOption
	limits := ratelimit.Limits{
		PerMinute: cfg.Login.MaxAttemptsPerMinute,
		PerHour:   cfg.Login.MaxAttemptsPerHour,
	}
	if limits.Enabled() {
		d.LoginLimiter = ratelimit.NewLoginLimiter(d.DB.DB, limits, d.Logger)
		authOpts = append(authOpts, services.WithLoginThrottle(d.LoginLimiter))
	}

	d.AuthService = services.NewAuthService(d.Users, d.Codec, d.Logger, authOpts...)
	d.UserService = services.NewUserService(d.Users, d.Logger)
	d.TaskService = services.NewTaskService(d.Users, d.Tasks, d.TxManager, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain queued audit entries while the database is still open
	if d.Audit != nil && d.Audit.GetStats().Started {
		timeout := defaultAuditDrainTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Audit.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return errors.Join(errs...)
}
