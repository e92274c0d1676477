package checkpoint

import (
	"context"

	"github.com/rotisserie/eris"
)

// Backend names accepted by Open.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Options selects and configures a checkpoint backend.
type Options struct {
	Backend string
	// Path is the checkpoint file for the file backend.
	Path string
	// DSN is the SQLite path or Postgres connection string.
	DSN string
	// Key identifies the run within a database backend.
	Key string
}

// Open returns the configured store and a function releasing its resources.
// Database backends are migrated before use.
func Open(ctx context.Context, opts Options) (Store, func() error, error) {
	noop := func() error { return nil }

	switch opts.Backend {
	case "", BackendFile:
		if opts.Path == "" {
			return nil, noop, eris.New("checkpoint: file backend requires a path")
		}
		return NewFileStore(opts.Path), noop, nil

	case BackendSQLite:
		if opts.DSN == "" || opts.Key == "" {
			return nil, noop, eris.New("checkpoint: sqlite backend requires a dsn and a run key")
		}
		s, err := OpenSQLite(opts.DSN, opts.Key)
		if err != nil {
			return nil, noop, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close() //nolint:errcheck
			return nil, noop, err
		}
		return s, s.Close, nil

	case BackendPostgres:
		if opts.DSN == "" || opts.Key == "" {
			return nil, noop, eris.New("checkpoint: postgres backend requires a connection string and a run key")
		}
		s, err := NewPostgres(ctx, opts.DSN, opts.Key)
		if err != nil {
			return nil, noop, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close() //nolint:errcheck
			return nil, noop, err
		}
		return s, s.Close, nil
	}
	return nil, noop, eris.Errorf("checkpoint: unknown backend %q", opts.Backend)
}
