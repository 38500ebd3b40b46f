package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"passive-genius/internal/community"
	"passive-genius/internal/config"
	"passive-genius/internal/database"
	"passive-genius/internal/feedback"
	"passive-genius/internal/llm"
	"passive-genius/internal/metrics"
	"passive-genius/internal/planner"
	"passive-genius/internal/session"
	"passive-genius/internal/storage"
)

// Options tweak how services are assembled.
type Options struct {
	// CachePath, when set, wraps the text generator in a file-backed
	// response cache.
	CachePath string
	// WrapRecorder decorates the metrics recorder handed to the planner.
	WrapRecorder func(planner.Recorder) planner.Recorder
}

// pinger is implemented by store backends that hold a network connection.
type pinger interface {
	Ping(ctx context.Context) error
}

// Services holds the application's dependencies.
type Services struct {
	DB       *database.DB
	Metrics  *metrics.Store
	Planner  *planner.Planner
	Stores   *storage.Stores
	Sessions *session.Manager
	Feedback *feedback.Store
	Hub      *community.Hub

	closers []io.Closer
}

// NewServices connects the database, AI client and stores selected by cfg.
func NewServices(ctx context.Context, cfg *config.Config, opts Options) (*Services, error) {
	s := &Services{}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	s.DB = db
	s.closers = append(s.closers, db)

	client, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize AI client: %w", err)
	}
	var textGen llm.TextGenerator = client
	if opts.CachePath != "" {
		cached, err := llm.NewCachedGenerator(client, opts.CachePath)
		if err != nil {
			client.Close()
			s.Close()
			return nil, fmt.Errorf("failed to initialize response cache: %w", err)
		}
		textGen = cached
		s.closers = append(s.closers, cached)
	} else {
		s.closers = append(s.closers, client)
	}

	kv, err := storage.NewKV(cfg, db.SQL)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize store backend: %w", err)
	}
	if c, ok := kv.(io.Closer); ok {
		s.closers = append(s.closers, c)
	}
	if p, ok := kv.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to reach %s store backend: %w", cfg.StoreBackend, err)
		}
	}

	hub, err := community.NewHub(cfg.CommunityChannelsPath)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to load community channels: %w", err)
	}

	s.Metrics = metrics.NewStore(db.SQL)
	var recorder planner.Recorder = s.Metrics
	if opts.WrapRecorder != nil {
		recorder = opts.WrapRecorder(recorder)
	}
	s.Planner = planner.NewPlanner(textGen, recorder)
	s.Stores = storage.NewStores(kv)
	s.Sessions = session.NewManager(s.Planner, s.Stores, cfg.NotificationTTL, cfg.SessionTTL)
	s.Feedback = feedback.NewStore(db.SQL)
	s.Hub = hub

	log.Printf("Services ready (provider=%s, model=%s, store=%s)", cfg.AIProvider, textGen.Model(), cfg.StoreBackend)
	return s, nil
}

// Close releases resources in reverse order of acquisition.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
