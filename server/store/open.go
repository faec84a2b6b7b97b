package store

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"ahadchat/server/config"
)

// Variant groups backends by where the document lives. It decides the poll
// interval and whether admin maintenance tools are offered.
type Variant int

const (
	VariantLocal Variant = iota
	VariantRemote
)

func (v Variant) String() string {
	if v == VariantRemote {
		return "remote"
	}
	return "local"
}

// PollInterval is how long a session may sit idle before its view is reloaded.
func (v Variant) PollInterval() time.Duration {
	if v == VariantRemote {
		return 3 * time.Second
	}
	return 5 * time.Second
}

// Selection is the configured backend. Either one Store is shared by every
// session, or each session gets a fresh store from PerSession.
type Selection struct {
	Name       string
	Variant    Variant
	Shared     Store
	PerSession func() Store
	closer     io.Closer
}

// ForSession returns the store a new session should use.
func (s Selection) ForSession() Store {
	if s.Shared != nil {
		return s.Shared
	}
	return s.PerSession()
}

// Close releases backend resources such as database handles.
func (s Selection) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Open builds the backend named in cfg.
func Open(cfg config.StorageConfig, logger *zap.SugaredLogger) (Selection, error) {
	switch cfg.Backend {
	case config.BackendFile:
		logger.Infow("Using local file store", "path", cfg.File.Path)
		return Selection{Name: cfg.Backend, Variant: VariantLocal, Shared: NewFileStore(cfg.File.Path)}, nil

	case config.BackendGist:
		if !cfg.Gist.Configured() {
			logger.Warnw("Gist credentials missing, messages are kept per session and lost on restart")
			return Selection{
				Name:       cfg.Backend,
				Variant:    VariantRemote,
				PerSession: func() Store { return NewMemoryStore() },
			}, nil
		}
		gs := NewGistStore(cfg.Gist.Token, cfg.Gist.ID, cfg.Gist.FileName).
			WithBaseURL(cfg.Gist.APIURL).
			WithTimeout(time.Duration(cfg.Gist.TimeoutSecs) * time.Second).
			WithRateLimit(cfg.Gist.RequestsPerSecond)
		logger.Infow("Using gist store", "gist", cfg.Gist.ID, "file", cfg.Gist.FileName)
		return Selection{Name: cfg.Backend, Variant: VariantRemote, Shared: gs}, nil

	case config.BackendSQLite:
		ss, err := OpenSQLite(cfg.SQLite.Path, cfg.SQLite.Key)
		if err != nil {
			return Selection{}, err
		}
		logger.Infow("Using sqlite store", "path", cfg.SQLite.Path, "key", cfg.SQLite.Key)
		return Selection{Name: cfg.Backend, Variant: VariantLocal, Shared: ss, closer: ss}, nil

	case config.BackendRedis:
		rs := NewRedisStore(NewRedisPool(cfg.Redis.URL, cfg.Redis.MaxIdle), cfg.Redis.Key)
		logger.Infow("Using redis store", "key", cfg.Redis.Key)
		return Selection{Name: cfg.Backend, Variant: VariantRemote, Shared: rs, closer: rs}, nil
	}
	return Selection{}, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
