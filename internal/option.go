package internal

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/neuralnotes/internal/noteservice"
	"github.com/starford/neuralnotes/internal/sse"
	"github.com/starford/neuralnotes/internal/store"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	logger *slog.Logger
	out    io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the logger built from the config. The mcp and graph
// commands use it to keep stdout clean.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithOutput sets where command results are written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.out == nil {
		app.out = os.Stdout
	}
	if app.logger == nil {
		app.logger = NewLogger(os.Stdout, app.config.App.LogLevel, app.config.App.LogFormat)
	}
	return app, nil
}

func (a *application) openStore() (*store.DB, error) {
	db, err := store.Open(a.config.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	return db, nil
}

// newService wires the note service from the config. broker may be nil.
func (a *application) newService(db store.NoteStore, broker *sse.Broker) *noteservice.Service {
	cfg := a.config
	opts := []noteservice.Option{
		noteservice.WithLogger(a.logger),
		noteservice.WithAutoResolve(cfg.Links.AutoResolve),
		noteservice.WithGraphDefaults(cfg.Graph.Defaults()),
		noteservice.WithImportOptions(cfg.Import.Options()...),
	}
	if broker != nil {
		opts = append(opts, noteservice.WithEvents(broker))
	}
	return noteservice.NewService(db, opts...)
}
