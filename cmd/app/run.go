package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"photo-restoration-studio/internal/job"
	"photo-restoration-studio/internal/logging"
)

type runOptions struct {
	input       string
	output      string
	gpu         int
	withScratch bool
	highRes     bool
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run --input <file|folder>",
		Short: "Restore a photo or a folder of photos without opening the window",
		Example: `  photo-restoration run --input ~/scans/grandma.jpg
  photo-restoration run --input ~/scans --gpu 0 --hr`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// stdout carries only the result path.
			s, err := setup(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			fs := cmd.Flags()
			if !fs.Changed("output") {
				opts.output = s.cfg.OutputRoot
			}
			if !fs.Changed("gpu") {
				opts.gpu = s.cfg.Device
			}
			if !fs.Changed("with-scratch") {
				opts.withScratch = s.cfg.WithScratch
			}
			if !fs.Changed("hr") {
				opts.highRes = s.cfg.HighRes
			}

			req := job.NewRequest(opts.input, opts.output, opts.gpu, opts.withScratch, opts.highRes)
			runner := job.NewRunner(ctx, s.executor.Execute, s.logger)
			if err := runner.Submit(req); err != nil {
				return err
			}
			logging.WithJob(s.logger, req.ID).WithField("input", req.InputPath).Info("Job submitted")

			res := waitForResult(runner, filepath.Base(req.InputPath))
			if !res.OK() {
				return res.Err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "image file or folder to restore")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output root (default from config)")
	cmd.Flags().IntVar(&opts.gpu, "gpu", -1, "accelerator id, -1 for none (default from config)")
	cmd.Flags().BoolVar(&opts.withScratch, "with-scratch", true, "repair scratches (default from config)")
	cmd.Flags().BoolVar(&opts.highRes, "hr", false, "high-resolution mode (default from config)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// waitForResult blocks until the runner reports. A spinner is drawn on stderr
// when it is a terminal.
func waitForResult(runner *job.Runner, name string) job.Result {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return <-runner.Results()
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Restoring "+name),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case res := <-runner.Results():
			_ = bar.Finish()
			return res
		case <-ticker.C:
			_ = bar.Add(1)
		}
	}
}

