package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/seqclass/internal/config"
	logpkg "github.com/kailas-cloud/seqclass/internal/logger"
	"github.com/kailas-cloud/seqclass/internal/version"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	env        string
	logLevel   string

	cfg    config.Config
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "seqclass",
		Short: "Classify sequences against local BLAST databases",
		Long: `seqclass searches query sequences against one or more local BLAST
databases, normalizes bit scores per database and labels every query with
its best hit that passes the e-value and identity thresholds.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (.yaml or .toml); default config/<env>.yaml")
	root.PersistentFlags().StringVar(&a.env, "env", config.GetEnv(), "environment name used to locate the config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override: debug, info, warn, error")

	root.AddCommand(
		newClassifyCmd(a),
		newMakeDBCmd(a),
		newEvaluateCmd(a),
		newRunsCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

// load reads the configuration and creates the logger. loggerEnv selects the
// log format; CLI commands log at warn level to keep their output readable.
func (a *app) load(loggerEnv string) error {
	var (
		cfg config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load(a.env)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := a.logLevel
	if level == "" && loggerEnv != "cli" {
		level = cfg.Logging.Level
	}
	logger, err := logpkg.NewLogger(loggerEnv, level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) sync() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
