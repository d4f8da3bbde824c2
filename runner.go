package hsext

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"strings"
	"unicode"

	"github.com/magefile/mage/sh"
)

// Runner executes an external command to completion.
//
// Run returns an error only when the process could not be started or its
// output could not be collected. A process that ran and exited non-zero is
// reported through Result.ExitStatus, and callers decide what that means.
type Runner interface {
	Run(name string, args ...string) (*Result, error)
}

// Result is the outcome of a finished process.
type Result struct {
	ExitStatus int
	Stdout     string
	Stderr     string
}

// Success reports whether the process exited with status 0.
func (r *Result) Success() bool {
	return r.ExitStatus == 0
}

// Trimmed returns stdout without trailing whitespace or newlines.
func (r *Result) Trimmed() string {
	return strings.TrimRightFunc(r.Stdout, unicode.IsSpace)
}

// ShellRunner runs commands with os/exec and classifies the outcome with
// mage's sh package.
//
// Stdout is always captured. Stderr is captured and, when Stderr is set,
// copied there as well so build progress stays visible without touching
// the directive stream on stdout.
type ShellRunner struct {
	Env    map[string]string
	Stderr io.Writer
}

// NewShellRunner returns a runner that mirrors child stderr to os.Stderr.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{Stderr: os.Stderr}
}

// Run implements Runner.
func (r *ShellRunner) Run(name string, args ...string) (*Result, error) {
	var stdout, stderr bytes.Buffer

	errOut := io.Writer(&stderr)
	if r.Stderr != nil {
		errOut = io.MultiWriter(&stderr, r.Stderr)
	}

	cmd := exec.Command(name, args...)
	cmd.Env = os.Environ()
	for k, v := range r.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdout = &stdout
	cmd.Stderr = errOut

	// Arguments go to the child verbatim; paths may contain '$'.
	err := cmd.Run()
	if !sh.CmdRan(err) {
		return nil, &InvocationError{Command: commandLine(name, args), Err: err}
	}

	return &Result{
		ExitStatus: sh.ExitStatus(err),
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
	}, nil
}

func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
