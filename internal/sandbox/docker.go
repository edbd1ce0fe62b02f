package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chartlab/chartlab/internal/core/ports/primary"
)

// DockerRunner runs code in Docker containers with resource limits,
// network isolation, and a read-only root filesystem except the workdir
type DockerRunner struct {
	logger      primary.Logger
	imagePrefix string
	network     bool
	cmdRunner   CommandRunner
	statsPoll   time.Duration
}

var _ Runner = (*DockerRunner)(nil)

// DockerRunnerOption defines a functional option for DockerRunner
type DockerRunnerOption func(*DockerRunner)

// WithCommandRunner sets the CommandRunner for DockerRunner
func WithCommandRunner(cmdRunner CommandRunner) DockerRunnerOption {
	return func(d *DockerRunner) {
		d.cmdRunner = cmdRunner
	}
}

// WithStatsPollInterval sets how often the memory sampler polls
func WithStatsPollInterval(interval time.Duration) DockerRunnerOption {
	return func(d *DockerRunner) {
		d.statsPoll = interval
	}
}

// NewDockerRunner creates a new DockerRunner
func NewDockerRunner(logger primary.Logger, imagePrefix string, network bool, opts ...DockerRunnerOption) *DockerRunner {
	runner := &DockerRunner{
		logger:      logger,
		imagePrefix: imagePrefix,
		network:     network,
		cmdRunner:   &RealCommandRunner{},
		statsPoll:   250 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// Run executes the code in a Docker container
func (d *DockerRunner) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	tempDir, err := os.MkdirTemp("", "chartlab-exec-*")
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tempDir); rmErr != nil {
			d.logger.Warn("Failed to remove temp directory", "path", tempDir, "error", rmErr)
		}
	}()

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

	containerName := fmt.Sprintf("chartlab-exec-%d", time.Now().UnixNano())

	cmdArgs := []string{
		"docker", "run",
		"--name", containerName,
		"--rm",
		"-v", fmt.Sprintf("%s:/workdir", workdirPath),
		"--workdir", "/workdir",
		"--memory", fmt.Sprintf("%dm", req.MemoryMB),
		"--cpus", strconv.FormatFloat(req.CPULimit, 'f', -1, 64),
		"--network", d.networkMode(),
		"--security-opt", "no-new-privileges:true",
		"--cap-drop", "ALL",
		"--user", "nobody",
		d.imageFor(req.Language),
	}

	runCmd, err := RunCommandFor(req.Language)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to get run command: %w", err)
	}
	cmdArgs = append(cmdArgs, "sh", "-c", runCmd)

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(req.TimeoutSec)*time.Second)
	defer cancel()

	// Sample memory usage while the container runs
	samplerCtx, stopSampler := context.WithCancel(ctx)
	peakCh := make(chan float64, 1)
	go d.sampleMemory(samplerCtx, containerName, peakCh)

	start := time.Now()
	stdout, stderr, exitCode, err := d.cmdRunner.RunCommand(runCtx, cmdArgs)
	duration := time.Since(start)

	stopSampler()
	peakMB := <-peakCh

	if runCtx.Err() == context.DeadlineExceeded {
		stopCmd := exec.CommandContext(ctx, "docker", "stop", containerName)
		if stopErr := stopCmd.Run(); stopErr != nil {
			d.logger.Warn("Failed to stop container after timeout", "container", containerName, "error", stopErr)
		}

		return RunResult{
			Stdout:       stdout,
			Stderr:       strings.TrimSpace(stderr + "\nexecution timed out"),
			ExitCode:     1,
			Duration:     duration,
			PeakMemoryMB: peakMB,
			TimedOut:     true,
		}, nil
	}

	if err != nil {
		return RunResult{}, fmt.Errorf("failed to execute container: %w", err)
	}

	artifacts, err := CollectArtifacts(workdirPath)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to collect artifacts: %w", err)
	}

	// Exit 137 is SIGKILL, which under a --memory cap means the OOM killer
	oomKilled := exitCode == 137

	return RunResult{
		Stdout:       stdout,
		Stderr:       stderr,
		ExitCode:     exitCode,
		Duration:     duration,
		PeakMemoryMB: peakMB,
		OOMKilled:    oomKilled,
		Artifacts:    artifacts,
	}, nil
}

// sampleMemory polls docker stats until ctx is cancelled and reports the
// peak usage seen. Best effort: a container that exits between polls just
// yields the last sample.
func (d *DockerRunner) sampleMemory(ctx context.Context, containerName string, peakCh chan<- float64) {
	var peak float64
	defer func() { peakCh <- peak }()

	ticker := time.NewTicker(d.statsPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stdout, _, exitCode, err := d.cmdRunner.RunCommand(ctx, []string{
				"docker", "stats", "--no-stream", "--format", "{{.MemUsage}}", containerName,
			})
			if err != nil || exitCode != 0 {
				continue
			}
			if mb, ok := parseMemUsage(stdout); ok && mb > peak {
				peak = mb
			}
		}
	}
}

// parseMemUsage parses the docker stats MemUsage column, e.g. "42.5MiB / 512MiB"
func parseMemUsage(s string) (float64, bool) {
	fields := strings.SplitN(strings.TrimSpace(s), "/", 2)
	if len(fields) == 0 {
		return 0, false
	}
	used := strings.TrimSpace(fields[0])

	for _, unit := range []struct {
		suffix string
		factor float64
	}{
		{"GiB", 1024},
		{"MiB", 1},
		{"KiB", 1.0 / 1024},
		{"B", 1.0 / (1024 * 1024)},
	} {
		if strings.HasSuffix(used, unit.suffix) {
			value, err := strconv.ParseFloat(strings.TrimSuffix(used, unit.suffix), 64)
			if err != nil {
				return 0, false
			}
			return value * unit.factor, true
		}
	}

	return 0, false
}

func (d *DockerRunner) networkMode() string {
	if d.network {
		return "bridge"
	}
	return "none"
}

func (d *DockerRunner) imageFor(language string) string {
	return fmt.Sprintf("%s-%s", d.imagePrefix, language)
}
