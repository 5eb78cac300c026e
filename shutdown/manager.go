package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"seotools/core"
)

// Manager turns SIGINT/SIGTERM into a cancelled context and then runs the
// registered hooks within a deadline. A second signal exits immediately
// with the conventional 128+signal code.
//
//	m := shutdown.NewManager(logger, shutdown.WithTimeout(cfg.ShutdownTimeout))
//	m.Register("http", shutdown.PriorityServer, srv.Shutdown)
//	m.Start()
//	<-m.Context().Done()
//	err := m.Shutdown()
type Manager struct {
	logger  *zap.Logger
	timeout time.Duration
	exit    func(code int)

	mu      sync.Mutex
	started bool
	done    bool
	signals int

	ctx      context.Context
	cancel   context.CancelFunc
	registry *Registry
	sigChan  chan os.Signal
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout bounds the total time hooks may take. Default 30s.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// withExit replaces os.Exit for the forced path.
func withExit(exit func(int)) Option {
	return func(m *Manager) { m.exit = exit }
}

// NewManager creates a Manager. logger may be nil.
func NewManager(logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		logger:   logger,
		timeout:  30 * time.Second,
		exit:     os.Exit,
		ctx:      ctx,
		cancel:   cancel,
		registry: NewRegistry(),
		sigChan:  make(chan os.Signal, 2),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Context is cancelled when shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup hook.
func (m *Manager) Register(name string, priority int, fn Func) {
	m.registry.Register(name, priority, fn)
	m.logger.Debug("Registered shutdown handler",
		zap.String("name", name),
		zap.Int("priority", priority),
	)
}

// Handlers returns hook names in execution order.
func (m *Manager) Handlers() []string {
	return m.registry.Names()
}

// Start listens for SIGINT and SIGTERM. Calling it twice is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range m.sigChan {
			m.handleSignal(sig)
		}
	}()
}

func (m *Manager) handleSignal(sig os.Signal) {
	m.mu.Lock()
	m.signals++
	count := m.signals
	m.mu.Unlock()

	if count == 1 {
		m.logger.Info("Received shutdown signal, initiating graceful shutdown",
			zap.String("signal", sig.String()),
		)
		m.cancel()
		return
	}
	code := exitCodeFor(sig)
	m.logger.Warn("Received second signal, forcing immediate shutdown",
		zap.String("signal", sig.String()),
		zap.Int("exit_code", code),
		zap.String("exit_reason", core.ExitCodeName(code)),
	)
	m.exit(code)
}

func exitCodeFor(sig os.Signal) int {
	if sig == syscall.SIGTERM {
		return core.ExitCodeSIGTERM
	}
	return core.ExitCodeSIGINT
}

// Trigger begins shutdown without a signal, e.g. when the listener fails.
func (m *Manager) Trigger() {
	m.cancel()
}

// Shutdown runs every hook once and reports their combined error.
// Later calls return nil.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return nil
	}
	m.done = true
	started := m.started
	m.mu.Unlock()

	m.cancel()
	if started {
		signal.Stop(m.sigChan)
	}

	start := time.Now()
	m.logger.Info("Initiating graceful shutdown",
		zap.Duration("timeout", m.timeout),
		zap.Strings("handlers", m.registry.Names()),
	)

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	errs := m.registry.Run(ctx)
	for _, err := range errs {
		m.logger.Error("Cleanup function failed", zap.Error(err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown had %d errors: %w", len(errs), errors.Join(errs...))
	}

	m.logger.Info("Graceful shutdown completed", zap.Duration("duration", time.Since(start)))
	return nil
}
