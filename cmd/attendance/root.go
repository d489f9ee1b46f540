package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/bootstrap"
	"github.com/noah-isme/attendance-tracker/pkg/config"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
	"github.com/noah-isme/attendance-tracker/pkg/logger"
)

// app holds the state shared by every subcommand for one invocation.
type app struct {
	backend  string
	boltPath string

	cfg    *config.Config
	logger *zap.Logger
	store  *bootstrap.Store
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "attendance",
		Short: "Track class attendance per subject",
		Long: `attendance keeps attended and total class counts per subject and tells
you how many classes you can skip, or must attend, to stay at 75%.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.open,
	}

	root.PersistentFlags().StringVar(&a.backend, "backend", "", "storage backend: bolt, redis, postgres or memory")
	root.PersistentFlags().StringVar(&a.boltPath, "bolt-path", "", "path of the bolt database file")

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newAttendCmd(a),
		newMissCmd(a),
		newExportCmd(a),
	)
	return root
}

func (a *app) open(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.backend != "" {
		backend := strings.ToLower(strings.TrimSpace(a.backend))
		if err := config.ValidateBackend(backend); err != nil {
			return err
		}
		cfg.Store.Backend = backend
	}
	if a.boltPath != "" {
		cfg.Bolt.Path = a.boltPath
	}

	logr, err := logger.NewCLI(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := bootstrap.OpenSubjectStore(ctx, cfg, logr, nil)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logr
	a.store = store
	return nil
}

// run wraps a subcommand so the store is closed even when the command fails.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if closeErr := a.close(); closeErr != nil && err == nil {
			err = closeErr
		}
		return err
	}
}

func (a *app) close() error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// errorMessage strips wrapped causes from domain errors so the user sees the
// outcome message only.
func errorMessage(err error) string {
	if e := appErrors.FromError(err); e.Code != appErrors.ErrInternal.Code {
		return e.Message
	}
	return err.Error()
}
