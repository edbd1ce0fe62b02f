package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
)

// LocalRunner runs code directly on the host. There is no isolation:
// development use only.
type LocalRunner struct {
	logger primary.Logger
}

var _ Runner = (*LocalRunner)(nil)

// NewLocalRunner creates a new LocalRunner
func NewLocalRunner(logger primary.Logger) *LocalRunner {
	return &LocalRunner{logger: logger}
}

// Run executes the code in a temp workdir on the host
func (l *LocalRunner) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	l.logger.Warn("Running code without isolation", "language", req.Language)

	tempDir, err := os.MkdirTemp("", "chartlab-exec-*")
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	workdirPath := filepath.Join(tempDir, "workdir")
	if err := os.MkdirAll(workdirPath, 0o755); err != nil {
		return RunResult{}, fmt.Errorf("failed to create workdir: %w", err)
	}

	codeFileName, err := CodeFileName(req.Language)
	if err != nil {
		return RunResult{}, fmt.Errorf("invalid language: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workdirPath, codeFileName), []byte(req.Code), 0o644); err != nil {
		return RunResult{}, fmt.Errorf("failed to write user code: %w", err)
	}

	runCmd, err := RunCommandFor(req.Language)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to get run command: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(req.TimeoutSec)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", runCmd)
	cmd.Dir = workdirPath

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		return RunResult{
			Stdout:   stdoutBuf.String(),
			Stderr:   strings.TrimSpace(stderrBuf.String() + "\nexecution timed out"),
			ExitCode: 1,
			Duration: duration,
			TimedOut: true,
		}, nil
	}

	exitCode := 0
	if runErr != nil {
		exitError, ok := runErr.(*exec.ExitError)
		if !ok {
			return RunResult{}, fmt.Errorf("failed to execute code: %w", runErr)
		}
		exitCode = exitError.ExitCode()
	}

	artifacts, err := CollectArtifacts(workdirPath)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to collect artifacts: %w", err)
	}

	return RunResult{
		Stdout:       stdoutBuf.String(),
		Stderr:       stderrBuf.String(),
		ExitCode:     exitCode,
		Duration:     duration,
		PeakMemoryMB: peakMemoryMB(cmd),
		Artifacts:    artifacts,
	}, nil
}

// peakMemoryMB reads the child's max RSS from rusage. Maxrss is reported
// in kilobytes on linux and bytes on darwin.
func peakMemoryMB(cmd *exec.Cmd) float64 {
	if cmd.ProcessState == nil {
		return 0
	}
	rusage, ok := cmd.ProcessState.SysUsage().(*syscall.Rusage)
	if !ok || rusage == nil {
		return 0
	}
	if runtime.GOOS == "darwin" {
		return float64(rusage.Maxrss) / (1024 * 1024)
	}
	return float64(rusage.Maxrss) / 1024
}
