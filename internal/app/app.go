package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/five82/tally/internal/backend/badgerstore"
	"github.com/five82/tally/internal/backend/s3store"
	"github.com/five82/tally/internal/board"
	"github.com/five82/tally/internal/config"
	"github.com/five82/tally/internal/ledger"
	"github.com/five82/tally/internal/locate"
	"github.com/five82/tally/internal/logging"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/session"
	"github.com/five82/tally/internal/state"
	"github.com/five82/tally/internal/storage"
	"github.com/five82/tally/internal/tracker"
	"github.com/five82/tally/internal/ui"
	"github.com/five82/tally/internal/user"
)

// Options configure a tally run.
type Options struct {
	ConfigPath    string
	Backend       string // persisted before startup when set
	ResetLaunches bool
	Headless      bool
	ListFiles     bool          // headless only: print stored paths once ready
	Retries       int           // headless only: retries after a fatal failure
	RetryDelay    time.Duration // headless only: first retry delay; zero uses default
	Out           io.Writer     // headless output; nil uses stdout
}

type components struct {
	cfg      config.Config
	logger   *slog.Logger
	local    *prefs.Local
	selector *storage.Selector
	user     *user.Store
	closers  []io.Closer
}

// Run starts tally and blocks until the UI exits, the headless run finishes
// or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	c, err := build(opts)
	if err != nil {
		return err
	}
	defer c.close()

	if opts.Backend != "" {
		kind := c.user.SelectBackend(opts.Backend)
		c.logger.Info("backend selected from command line", "backend", kind.String())
	}
	if opts.ResetLaunches {
		if err := c.user.ResetLaunchCount(); err != nil {
			return fmt.Errorf("reset launch count: %w", err)
		}
	}

	if opts.Headless {
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}
		return runHeadless(ctx, c.user, c.logger, out, opts)
	}

	return ui.Run(ui.Options{
		Context:    ctx,
		Controller: c.user,
		Local:      c.local,
		LogPath:    c.cfg.LogPath(),
	})
}

func build(opts Options) (*components, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load tally config: %w", err)
	}

	logger, logCloser, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Output: cfg.LogPath(),
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	c := &components{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	local, err := prefs.Open(cfg.LocalPath)
	if err != nil {
		c.close()
		return nil, fmt.Errorf("open local cache: %w", err)
	}
	c.local = local

	states := state.NewStore(user.InitialState(local), logger)

	c.selector = storage.New(local, states, storage.Drivers{
		Badger:     badgerstore.Config{Dir: cfg.Badger.Dir},
		SQLitePath: cfg.SQLite.Path,
		S3: s3store.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			Prefix:          cfg.S3.Prefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			CreateBucket:    cfg.S3.CreateBucket,
		},
	}, storage.WithLogger(logger))
	c.closers = append([]io.Closer{c.selector}, c.closers...)

	var locator locate.Locator
	if client, err := locate.NewClient(cfg.Locate.URL, cfg.Locate.Timeout); err != nil {
		logger.Warn("location lookup disabled", "url", cfg.Locate.URL, "error", err)
	} else {
		locator = client
	}

	c.user = user.New(user.Deps{
		State:    states,
		Local:    local,
		Backend:  c.selector,
		Trackers: tracker.NewStore(),
		Boards:   board.NewStore(board.WithLogger(logger)),
		Ledger:   ledger.New(),
		Locator:  locator,
		Session:  session.New(cfg.S3.Username, cfg.S3.Endpoint),
		Logger:   logger,
		MetaPath: cfg.UserMetaPath,
	})
	return c, nil
}

func (c *components) close() {
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && c.logger != nil {
			c.logger.Warn("shutdown", "error", err)
		}
	}
}
