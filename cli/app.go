package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklekv/anchor"
	"github.com/forestrie/go-merklekv/integrity"
	"github.com/forestrie/go-merklekv/leaf"
	"github.com/forestrie/go-merklekv/store"
	"github.com/spf13/cobra"
)

// App is the store, anchor and protocol opened from a configuration.
type App struct {
	Cfg      *Config
	Log      logger.Logger
	Store    *store.LevelDB
	Anchor   *anchor.SignedAnchor
	Protocol *integrity.Protocol

	anchorLog *anchor.LevelDBLog
}

// loadApp reads the configuration named by the --config flag, starts the
// logger and opens the app.
func loadApp(cmd *cobra.Command) (*App, error) {
	file, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := LoadConfig(file)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logger.Level = level
	}
	logger.New(cfg.Logger.Level)
	return OpenApp(cfg, logger.Sugar.WithServiceName("merklekv"))
}

// OpenApp opens the leveldb store and anchor log and loads the signing key.
// The latest commitment snapshot, if any, is adopted so proofs can be served.
func OpenApp(cfg *Config, log logger.Logger) (*App, error) {
	key, err := LoadSigningKey(cfg.ResolvePath(cfg.SigningKeyPath))
	if err != nil {
		return nil, err
	}
	signer, err := anchor.NewES256(key)
	if err != nil {
		return nil, err
	}

	app := &App{Cfg: cfg, Log: log}
	app.Store, err = store.OpenLevelDB(log, cfg.ResolvePath(cfg.StorePath))
	if err != nil {
		return nil, err
	}
	app.anchorLog, err = anchor.OpenLevelDBLog(log, cfg.ResolvePath(cfg.AnchorPath))
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Anchor, err = anchor.NewSignedAnchor(log, app.anchorLog, signer, &key.PublicKey, cfg.Issuer)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Protocol = integrity.NewProtocol(log, app.Store, app.Anchor,
		integrity.WithBuildOptions(cfg.BuildOptions()...))

	c, err := app.LoadCommitment()
	if err != nil && !errors.Is(err, integrity.ErrNoCommitment) {
		app.Close()
		return nil, err
	}
	if c != nil {
		app.Protocol.Adopt(c)
	}

	data, err := os.ReadFile(cfg.ResolvePath(cfg.PendingPath))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		app.Close()
		return nil, err
	default:
		if err := app.Protocol.RestorePending(data, cfg.BuildOptions()...); err != nil {
			app.Close()
			return nil, err
		}
	}
	return app, nil
}

// LoadCommitment reads the commitment snapshot, ErrNoCommitment if nothing
// has been committed yet.
func (app *App) LoadCommitment() (*integrity.Commitment, error) {
	data, err := os.ReadFile(app.Cfg.ResolvePath(app.Cfg.SnapshotPath))
	if errors.Is(err, os.ErrNotExist) {
		return nil, integrity.ErrNoCommitment
	}
	if err != nil {
		return nil, err
	}
	return integrity.UnmarshalCommitment(data, app.Cfg.BuildOptions()...)
}

// SaveCommitment writes the snapshot proofs are served from.
func (app *App) SaveCommitment(c *integrity.Commitment) error {
	data, err := c.MarshalBinary()
	if err != nil {
		return err
	}
	return os.WriteFile(app.Cfg.ResolvePath(app.Cfg.SnapshotPath), data, 0600)
}

// Commit commits records and saves the snapshot once they are anchored. If
// the upload or publish fails the pending commitment is saved for Retry.
func (app *App) Commit(ctx context.Context, records []leaf.Record) (*integrity.Commitment, error) {
	_, err := app.Protocol.Commit(ctx, records)
	return app.finish(err)
}

// Retry completes the pending commitment saved by a failed Commit.
func (app *App) Retry(ctx context.Context) (*integrity.Commitment, error) {
	_, err := app.Protocol.Retry(ctx)
	return app.finish(err)
}

func (app *App) finish(err error) (*integrity.Commitment, error) {
	pendingFile := app.Cfg.ResolvePath(app.Cfg.PendingPath)
	if err != nil {
		if !errors.Is(err, integrity.ErrStoreUnavailable) && !errors.Is(err, integrity.ErrAnchorUnavailable) {
			return nil, err
		}
		data, merr := app.Protocol.MarshalPending()
		if merr != nil || data == nil {
			return nil, err
		}
		if werr := os.WriteFile(pendingFile, data, 0600); werr != nil {
			return nil, fmt.Errorf("%w (pending commitment not saved: %v)", err, werr)
		}
		return nil, fmt.Errorf("commitment pending, run retry: %w", err)
	}

	c := app.Protocol.Latest()
	if err := app.SaveCommitment(c); err != nil {
		return nil, fmt.Errorf("commitment %s anchored but snapshot not saved: %w", c.ID(), err)
	}
	if err := os.Remove(pendingFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return c, nil
}

func (app *App) Close() {
	if app.anchorLog != nil {
		if err := app.anchorLog.Close(); err != nil {
			app.Log.Infof("close anchor log: %v", err)
		}
	}
	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			app.Log.Infof("close store: %v", err)
		}
	}
}
