// Package sandbox executes user-submitted analysis code in isolated
// environments. Docker is the production backend; the local backend runs
// without isolation and exists for development only.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// RunRequest carries one code execution into the sandbox
type RunRequest struct {
	Code       string
	Language   string
	TimeoutSec int
	MemoryMB   int
	CPULimit   float64
}

// Artifact is one file the submitted code produced in its workdir
type Artifact struct {
	Filename string
	Format   string
	Data     []byte
}

// RunResult is the raw outcome of a sandbox run. A non-zero exit code
// means the submitted code failed; it is not an error from Run itself.
type RunResult struct {
	Stdout       string
	Stderr       string
	ExitCode     int
	Duration     time.Duration
	PeakMemoryMB float64
	TimedOut     bool
	OOMKilled    bool
	Artifacts    []Artifact
}

// Failed reports whether the submitted code did not complete successfully
func (r RunResult) Failed() bool {
	return r.ExitCode != 0 || r.TimedOut || r.OOMKilled
}

// Runner defines the interface for sandbox execution backends
type Runner interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}

// CommandRunner defines an interface for executing system commands,
// injectable for tests
type CommandRunner interface {
	RunCommand(ctx context.Context, args []string) (stdout, stderr string, exitCode int, err error)
}

// RealCommandRunner implements CommandRunner using os/exec
type RealCommandRunner struct{}

// RunCommand executes the given command with arguments
func (RealCommandRunner) RunCommand(ctx context.Context, args []string) (stdout, stderr string, exitCode int, err error) {
	if len(args) < 1 {
		return "", "", 0, fmt.Errorf("no command provided")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()

	exitCode = 0
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
			err = nil
		} else {
			return "", "", 0, err
		}
	}

	return stdoutBuf.String(), stderrBuf.String(), exitCode, nil
}

// SupportedLanguage reports whether a sandbox backend can run the language
func SupportedLanguage(language string) bool {
	_, err := CodeFileName(language)
	return err == nil
}

// CodeFileName returns the file the submitted code is written to
func CodeFileName(language string) (string, error) {
	switch language {
	case "python":
		return "main.py", nil
	case "r":
		return "main.R", nil
	case "javascript":
		return "main.js", nil
	default:
		return "", fmt.Errorf("unsupported language: %s", language)
	}
}

// RunCommandFor returns the shell command that runs the code file
func RunCommandFor(language string) (string, error) {
	switch language {
	case "python":
		return "python main.py", nil
	case "r":
		return "Rscript main.R", nil
	case "javascript":
		return "node main.js", nil
	default:
		return "", fmt.Errorf("unsupported language: %s", language)
	}
}
