// Package ivr serves the IVR platform's webhook and the operator endpoints
// around it.
package ivr

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/papercomputeco/ivrdesk/pkg/callflow"
	"github.com/papercomputeco/ivrdesk/pkg/metrics"
	"github.com/papercomputeco/ivrdesk/pkg/notify"
	"github.com/papercomputeco/ivrdesk/pkg/session"
	"github.com/papercomputeco/ivrdesk/pkg/transcript"
)

// Server answers the IVR webhook. Call state lives in process memory; a
// restart drops every in-progress call.
type Server struct {
	config     Config
	store      *session.MemoryStore
	archive    transcript.Storer
	dispatcher *notify.Dispatcher
	controller *callflow.Controller
	logger     *zap.Logger
	server     *fiber.App

	stopSweep chan struct{}
	stopOnce  sync.Once
}

// New creates a Server that generates replies with generator.
func New(config Config, generator callflow.Generator, logger *zap.Logger) (*Server, error) {
	var archive transcript.Storer
	if config.DBPath != "" {
		s, err := transcript.NewSQLiteStorer(config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create transcript storer: %w", err)
		}
		archive = s
		logger.Info("archiving transcripts to SQLite", zap.String("path", config.DBPath))
	} else {
		archive = transcript.NewMemoryStorer()
		logger.Info("archiving transcripts in memory")
	}

	sinks := []notify.Sink{notify.NewLogSink(logger), transcript.NewArchiveSink(archive)}
	switch {
	case config.NotifyEmail == "":
		logger.Warn("NOTIFICATION_EMAIL not set, summaries will not be emailed")
	case config.ResendAPIKey == "":
		logger.Warn("RESEND_API_KEY not set, summaries will not be emailed")
	default:
		sinks = append(sinks, notify.NewResendSink(notify.ResendConfig{
			APIKey:       config.ResendAPIKey,
			To:           config.NotifyEmail,
			From:         config.NotifyFrom,
			Organization: config.Organization,
		}))
	}

	store := session.NewMemoryStore()
	dispatcher := notify.NewDispatcher(logger, notify.DefaultTimeout, sinks...)

	s := &Server{
		config:     config,
		store:      store,
		archive:    archive,
		dispatcher: dispatcher,
		controller: callflow.NewController(callflow.Options{
			Store:     store,
			Generator: generator,
			Notifier:  dispatcher,
			Prompts:   config.Prompts,
			Locale:    config.Locale,
			Logger:    logger,
		}),
		logger:    logger,
		stopSweep: make(chan struct{}),
	}
	s.server = s.newApp()

	return s, nil
}

func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Request values are kept in session state after the handler returns
		Immutable: true,
	})
	app.Use(recover.New())

	// Platform webhook; the platform may use GET or POST
	app.All("/yemot", s.handleCall)

	app.Get("/", s.handleStatus)
	app.Get("/health", s.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Archived transcripts of finished calls
	app.Get("/transcripts", s.handleListTranscripts)
	app.Get("/transcripts/:hash", s.handleGetTranscript)

	return app
}

// SetPrompts swaps the greeting and system prompt without a restart.
func (s *Server) SetPrompts(p callflow.Prompts) {
	s.controller.SetPrompts(p)
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting IVR server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("provider", s.config.Provider),
		zap.String("organization", s.config.Organization),
	)
	s.startSweeper()

	return s.server.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.startSweeper()
	return s.server.Listener(ln)
}

// Shutdown stops accepting requests and stops the sweeper.
func (s *Server) Shutdown() error {
	s.stopOnce.Do(func() { close(s.stopSweep) })
	return s.server.Shutdown()
}

// Close waits for pending notifications and releases the transcript archive.
func (s *Server) Close() error {
	s.dispatcher.Close()
	return s.archive.Close()
}

func (s *Server) startSweeper() {
	if s.config.SessionTTL <= 0 {
		return
	}

	interval := s.config.SessionTTL / 2
	if interval < time.Second {
		interval = time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopSweep:
				return
			case <-ticker.C:
				if n := s.store.Sweep(s.config.SessionTTL); n > 0 {
					metrics.RecordSwept(n)
					s.logger.Info("swept idle sessions", zap.Int("count", n))
				}
			}
		}
	}()
}
