package main

import (
	"context"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/spf13/cobra"

	"photo-restoration-studio/internal/config"
	"photo-restoration-studio/internal/gui"
	"photo-restoration-studio/internal/job"
	"photo-restoration-studio/internal/preview"
	"photo-restoration-studio/internal/preview/cvdecode"
)

func newGUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the desktop window (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(cmd.Context(), flags)
		},
	}
}

func runGUI(ctx context.Context, flags *globalFlags) error {
	s, err := setup(ctx, flags, os.Stdout)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var decoder preview.Decoder
	if s.cfg.Preview.Decoder == config.DecoderOpenCV {
		decoder = cvdecode.NewLoader(s.logger)
	}

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.DocumentIcon())

	mainApp := gui.NewApplication(myApp, gui.Options{
		BuildTag:    BuildTag,
		OutputRoot:  s.cfg.OutputRoot,
		Device:      s.cfg.Device,
		WithScratch: s.cfg.WithScratch,
		HighRes:     s.cfg.HighRes,
		Runner:      job.NewRunner(ctx, s.executor.Execute, s.logger),
		Renderer:    preview.NewRenderer(decoder, s.logger),
		Logger:      s.logger,
	})
	mainApp.ShowAndRun(ctx)

	s.logger.Info("Application shutting down gracefully")
	return nil
}
