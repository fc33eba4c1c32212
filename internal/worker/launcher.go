// Package worker runs the external restoration pipeline as a child process.
//
// The worker is a black box: it receives an input folder, an output folder, a
// device selector and two optional switches, and reports success only through
// its exit status. Its output streams are logged, never interpreted.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// ErrWorkerUnavailable reports that the worker could not be started at all.
	ErrWorkerUnavailable = errors.New("worker unavailable")
	// ErrWorkerFailed reports a worker that ran and exited non-zero.
	ErrWorkerFailed = errors.New("worker failed")
)

// NoDevice selects CPU execution.
const NoDevice = -1

// ExitError is returned when the worker exits with a non-zero status.
type ExitError struct {
	Code int
	// Tail holds the last lines the worker wrote to stderr.
	Tail []string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", ErrWorkerFailed, e.Code)
	if len(e.Tail) > 0 {
		msg += "\n" + strings.Join(e.Tail, "\n")
	}
	return msg
}

// Is makes errors.Is(err, ErrWorkerFailed) match.
func (e *ExitError) Is(target error) bool {
	return target == ErrWorkerFailed
}

// Invocation holds the per-job worker arguments.
type Invocation struct {
	InputDir    string
	OutputDir   string
	Device      int
	WithScratch bool
	HighRes     bool
}

// Args renders the worker argument list. Optional switches are only present
// when enabled.
func (inv Invocation) Args() []string {
	args := []string{
		"--input_folder", inv.InputDir,
		"--output_folder", inv.OutputDir,
		"--GPU", strconv.Itoa(inv.Device),
	}
	if inv.WithScratch {
		args = append(args, "--with_scratch")
	}
	if inv.HighRes {
		args = append(args, "--HR")
	}
	return args
}

// Launcher starts the worker from a fixed installation root.
type Launcher struct {
	installRoot string
	command     []string
	logger      *logrus.Logger
}

// New creates a launcher. command is the program plus its leading arguments,
// for example ["python3", "run.py"]. The working directory of every run is
// installRoot.
func New(installRoot string, command []string, logger *logrus.Logger) (*Launcher, error) {
	if strings.TrimSpace(installRoot) == "" {
		return nil, fmt.Errorf("install root is empty")
	}
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, fmt.Errorf("worker command is empty")
	}

	root, err := filepath.Abs(installRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve install root: %w", err)
	}

	return &Launcher{
		installRoot: root,
		command:     append([]string(nil), command...),
		logger:      logger,
	}, nil
}

// InstallRoot returns the pinned working directory.
func (l *Launcher) InstallRoot() string {
	return l.installRoot
}

// Command builds the exec.Cmd for inv without starting it.
func (l *Launcher) Command(ctx context.Context, inv Invocation) (*exec.Cmd, error) {
	program, err := l.resolveProgram()
	if err != nil {
		return nil, err
	}
	if err := l.checkScripts(); err != nil {
		return nil, err
	}

	args := append(append([]string(nil), l.command[1:]...), inv.Args()...)
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = l.installRoot
	return cmd, nil
}

// Run starts the worker and blocks until it exits.
func (l *Launcher) Run(ctx context.Context, inv Invocation) error {
	cmd, err := l.Command(ctx, inv)
	if err != nil {
		return err
	}

	entry := l.logger.WithFields(logrus.Fields{
		"program":   cmd.Path,
		"args":      cmd.Args[1:],
		"directory": cmd.Dir,
	})

	stdout := newLineLogger(entry.WithField("stream", "stdout"), 0)
	stderr := newLineLogger(entry.WithField("stream", "stderr"), tailLines)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	entry.Info("Starting worker")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start %s: %w", ErrWorkerUnavailable, cmd.Path, err)
	}

	err = cmd.Wait()
	stdout.Flush()
	stderr.Flush()

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("worker interrupted: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			entry.WithField("exit_code", exitErr.ExitCode()).Warn("Worker exited with non-zero status")
			return &ExitError{Code: exitErr.ExitCode(), Tail: stderr.Tail()}
		}
		return fmt.Errorf("wait for worker: %w", err)
	}

	entry.Info("Worker finished")
	return nil
}

// resolveProgram finds the executable: absolute paths are used as given,
// paths with a separator are relative to the install root, bare names are
// looked up on PATH.
func (l *Launcher) resolveProgram() (string, error) {
	name := l.command[0]

	var program string
	switch {
	case filepath.IsAbs(name):
		program = name
	case strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/'):
		program = filepath.Join(l.installRoot, name)
	default:
		found, err := exec.LookPath(name)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrWorkerUnavailable, err)
		}
		return found, nil
	}

	info, err := os.Stat(program)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWorkerUnavailable, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrWorkerUnavailable, program)
	}
	return program, nil
}

var scriptExtensions = map[string]bool{
	".py": true, ".sh": true, ".pl": true, ".rb": true, ".js": true,
}

// checkScripts stats the script arguments that follow an interpreter, such
// as run.py in ["python3", "run.py"]. Relative scripts are looked up under
// the install root. A missing script is unavailable, not a failed run.
func (l *Launcher) checkScripts() error {
	for _, arg := range l.command[1:] {
		if strings.HasPrefix(arg, "-") || !scriptExtensions[strings.ToLower(filepath.Ext(arg))] {
			continue
		}
		script := arg
		if !filepath.IsAbs(script) {
			script = filepath.Join(l.installRoot, script)
		}
		info, err := os.Stat(script)
		if err != nil {
			return fmt.Errorf("%w: script not found: %w", ErrWorkerUnavailable, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrWorkerUnavailable, script)
		}
	}
	return nil
}
