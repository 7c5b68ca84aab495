package main

import (
	"os"

	storageengine "ArenaDB/storage_engine"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	var (
		dir   string
		debug bool
	)

	root := &cobra.Command{
		Use:   "arenadb",
		Short: "Interactive shell over an ArenaDB database",
		Long: `arenadb opens the database under --dir (or an in-memory one when --dir
is empty) and reads commands such as

  insert students 1 'alice' 20 3.5
  select students by_age >= 20 limit 10

Type 'help' at the prompt for the full list.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			se, err := storageengine.Open(storageengine.Config{Dir: dir, Logger: logger})
			if err != nil {
				return err
			}
			defer se.Close()

			sh, err := newShell(se)
			if err != nil {
				return err
			}
			defer sh.Close()
			return sh.Run()
		},
	}
	root.Flags().StringVar(&dir, "dir", "databases/demo", "database directory, empty for in-memory")
	root.Flags().BoolVar(&debug, "debug", false, "log engine activity to stderr")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build logger")
	}
	return logger, nil
}
