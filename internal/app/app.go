// Package app wires the transport, session store and services into one
// application context shared by the CLI and the gateway.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sicali-client/internal/service"
	"github.com/noah-isme/sicali-client/pkg/config"
	"github.com/noah-isme/sicali-client/pkg/export"
	"github.com/noah-isme/sicali-client/pkg/httpclient"
	"github.com/noah-isme/sicali-client/pkg/metrics"
	"github.com/noah-isme/sicali-client/pkg/session"
	"github.com/noah-isme/sicali-client/pkg/storage"
	"github.com/noah-isme/sicali-client/pkg/validation"
)

const pingTimeout = 5 * time.Second

// App holds every service built once per process.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Store   session.Store
	Client  *httpclient.Client
	Files   *storage.LocalStorage
	Signer  *storage.LinkSigner

	Auth          *service.AuthService
	Cycles        *service.CycleService
	Users         *service.UserService
	Tutors        *service.TutorService
	Groups        *service.GroupService
	Subjects      *service.SubjectService
	GroupSubjects *service.GroupSubjectService
	Enrollments   *service.EnrollmentService
	Attendance    *service.AttendanceService
	Grades        *service.GradeService
	Exports       *service.ExportService

	ready   chan struct{}
	initErr error
	closers []func() error
	once    sync.Once
}

// Option customises construction.
type Option func(*options)

type options struct {
	doer  httpclient.Doer
	store session.Store
}

// WithDoer replaces the HTTP client used by the transport.
func WithDoer(d httpclient.Doer) Option {
	return func(o *options) { o.doer = d }
}

// WithSessionStore bypasses SESSION_BACKEND.
func WithSessionStore(s session.Store) Option {
	return func(o *options) { o.store = s }
}

type pinger interface {
	Ping(ctx context.Context) error
}

// New builds the application. Store connectivity is checked in the background;
// use Ready or Wait before relying on the session.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New(), ready: make(chan struct{})}

	store := o.store
	if store == nil {
		switch cfg.Session.Backend {
		case config.SessionBackendRedis:
			client := session.NewRedisClient(cfg.Redis)
			a.closers = append(a.closers, client.Close)
			store = session.NewRedisStore(client, cfg.Session.Namespace, cfg.Session.TTL)
		default:
			store = session.NewMemoryStore()
		}
	}
	a.Store = store

	clientOpts := []httpclient.Option{
		httpclient.WithSessionStore(store),
		httpclient.WithMetrics(a.Metrics),
		httpclient.WithLogger(logger.Named("transport")),
	}
	if o.doer != nil {
		clientOpts = append(clientOpts, httpclient.WithDoer(o.doer))
	}
	a.Client = httpclient.New(httpclient.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	}, clientOpts...)

	files, err := storage.NewLocalStorage(cfg.Exports.Dir)
	if err != nil {
		return nil, err
	}
	a.Files = files
	a.Signer = storage.NewLinkSigner(cfg.Auth.TokenSecret, cfg.Exports.LinkTTL)

	validate := validation.New()
	concurrency := cfg.Bulk.Concurrency
	svcLogger := logger.Named("service")

	a.Auth = service.NewAuthService(a.Client, store, svcLogger, service.AuthConfig{
		TokenMode: cfg.Auth.TokenMode,
		Secret:    cfg.Auth.TokenSecret,
	})
	a.Cycles = service.NewCycleService(a.Client, validate, svcLogger)
	a.Users = service.NewUserService(a.Client, validate, svcLogger)
	a.Tutors = service.NewTutorService(a.Client, validate, svcLogger)
	a.Groups = service.NewGroupService(a.Client, validate, svcLogger)
	a.Subjects = service.NewSubjectService(a.Client, validate, svcLogger, a.Metrics)
	a.GroupSubjects = service.NewGroupSubjectService(a.Client, validate, svcLogger, a.Metrics, concurrency)
	a.Enrollments = service.NewEnrollmentService(a.Client, validate, svcLogger, a.Metrics, concurrency)
	a.Attendance = service.NewAttendanceService(a.Client, validate, svcLogger, a.Metrics, concurrency)
	a.Grades = service.NewGradeService(a.Client, a.Subjects, validate, svcLogger, a.Metrics, concurrency)
	a.Exports = service.NewExportService(a.Grades, a.Attendance, files, a.Signer,
		service.ExportConfig{BaseURL: cfg.Exports.BaseURL},
		svcLogger, export.NewCSVExporter(), export.NewPDFExporter())

	go a.initialize(store)
	return a, nil
}

func (a *App) initialize(store session.Store) {
	defer close(a.ready)
	p, ok := store.(pinger)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		a.Logger.Error("session store unreachable", zap.Error(err))
		a.initErr = err
		return
	}
	a.Logger.Debug("session store ready")
}

// Ready is closed once initialization finished, successfully or not.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// Wait blocks until initialization finished and returns its error.
func (a *App) Wait(ctx context.Context) error {
	select {
	case <-a.ready:
		return a.initErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	a.once.Do(func() {
		for _, c := range a.closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
