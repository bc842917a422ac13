package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/models"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/repositories"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/services"
	"go.uber.org/zap"
)

// insertTimeout bounds a single audit insert
const insertTimeout = 5 * time.Second

// AuditService writes the security audit trail from a pool of background workers
type AuditService struct {
	auditRepo   repositories.AuditRepository
	logger      *zap.Logger
	eventChan   chan *models.AuditLog
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	stopped     bool
	mu          sync.Mutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *AuditService {
	ctx, cancel := context.WithCancel(context.Background())

	return &AuditService{
		auditRepo:   auditRepo,
		logger:      logger,
		eventChan:   make(chan *models.AuditLog, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop stops accepting events and waits up to timeout for the queue to drain
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("audit service not running")
	}
	s.stopped = true
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent queues an entry without blocking. It fails when the service is
// not running or the buffer is full.
func (s *AuditService) LogEvent(entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return fmt.Errorf("audit service not running")
	}

	select {
	case s.eventChan <- entry:
		return nil
	default:
		return fmt.Errorf("audit event buffer full")
	}
}

// Record queues entry and logs instead of failing when it cannot be queued
func (s *AuditService) Record(entry *models.AuditLog) {
	if err := s.LogEvent(entry); err != nil {
		s.logger.Warn("audit event dropped",
			zap.String("action", string(entry.Action)),
			zap.String("subject", entry.Subject),
			zap.Error(err))
	}
}

// List returns a page of audit entries, newest first. An empty subject
// lists entries for every subject.
func (s *AuditService) List(ctx context.Context, subject string, limit, offset int) ([]*models.AuditLog, error) {
	limit, offset = services.ClampPage(limit, offset)

	var (
		logs []*models.AuditLog
		err  error
	)
	if subject == "" {
		logs, err = s.auditRepo.List(ctx, limit, offset)
	} else {
		logs, err = s.auditRepo.ListBySubject(ctx, subject, limit, offset)
	}
	if err != nil {
		return nil, services.WrapInternal("failed to list audit logs", err)
	}
	return logs, nil
}

// worker processes events from the channel
func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for entry := range s.eventChan {
		if err := s.processEvent(entry); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(entry.Action)),
				zap.String("subject", entry.Subject))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

// processEvent processes a single audit event
func (s *AuditService) processEvent(entry *models.AuditLog) error {
	ctx, cancel := context.WithTimeout(s.ctx, insertTimeout)
	defer cancel()

	if err := s.auditRepo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started && !s.stopped,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}
