package main

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"photo-restoration-studio/internal/config"
	"photo-restoration-studio/internal/history"
	"photo-restoration-studio/internal/job"
	"photo-restoration-studio/internal/logging"
	"photo-restoration-studio/internal/worker"
)

type globalFlags struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "photo-restoration",
		Short:         AppName,
		Long:          "Desktop front-end that runs the restoration pipeline on a photo or a folder of photos and previews the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(cmd.Context(), flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", config.DefaultPath(), "path to the YAML config file")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug mode with verbose logging")

	root.AddCommand(
		newGUICmd(flags),
		newRunCmd(flags),
		newHistoryCmd(flags),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (build %s)\n", AppName, AppVersion, BuildTag)
		},
	}
}

// services is the job pipeline shared by the GUI and headless modes.
type services struct {
	cfg      *config.Config
	logger   *logrus.Logger
	history  *history.Store
	executor *job.Executor
}

// setup loads the configuration and builds the job pipeline. Logs go to
// logOut.
func setup(ctx context.Context, flags *globalFlags, logOut io.Writer) (*services, error) {
	logger := logging.New(flags.debug, logOut)

	cfg, err := config.LoadOrDefault(flags.configPath)
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"version":      AppVersion,
		"build":        BuildTag,
		"debug_mode":   flags.debug,
		"install_root": cfg.InstallRoot,
		"output_root":  cfg.OutputRoot,
	}).Info("Starting " + AppName)

	launcher, err := worker.New(cfg.InstallRoot, cfg.Worker.Command, logger)
	if err != nil {
		return nil, err
	}

	s := &services{cfg: cfg, logger: logger}

	var recorder job.Recorder
	if path := cfg.HistoryPath(); path != "" {
		store, err := history.Open(ctx, path)
		if err != nil {
			logger.WithError(err).Warn("Job history disabled")
		} else {
			s.history = store
			recorder = store
		}
	}

	s.executor = job.NewExecutor(launcher, recorder, logger)
	return s, nil
}

func (s *services) Close() {
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close job history")
		}
	}
}
