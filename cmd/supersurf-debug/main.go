// Command supersurf-debug is the debug wrapper of spec §4.8: it forks
// `supersurf` as a child process, proxies stdio between the agent and the
// child, and treats exit code 42 as a hot-reload sentinel — respawning
// the child without ever closing its own stdin/stdout, so the agent's
// connection survives a reload. Any other exit code terminates both.
//
// The respawn loop execs the `supersurf` binary that sits beside this
// wrapper (found through os.Executable()) and pipes stdio through rather
// than proxying an HTTP daemon, since this wrapper has no HTTP transport
// to health-check against.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// childBinaryName is the broker binary the wrapper spawns, looked up in
// the wrapper's own directory.
const childBinaryName = "supersurf"

// hotReloadExitCode is the sentinel the child uses to ask for a respawn
// without the wrapper tearing down the agent's stdio connection.
const hotReloadExitCode = 42

// resolveOwnExecutable and newChildCommand are overridable package vars
// so tests can point runOnce at a harmless stand-in process instead of
// spawning the real broker binary.
var resolveOwnExecutable = os.Executable
var newChildCommand = exec.Command

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"serve"}
	}

	for {
		code, err := runOnce(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[supersurf-debug] child failed to start: %v\n", err)
			os.Exit(1)
		}
		if code == hotReloadExitCode {
			fmt.Fprintln(os.Stderr, "[supersurf-debug] hot reload: respawning")
			continue
		}
		os.Exit(code)
	}
}

// runOnce spawns exactly one child, wires its stdio to the wrapper's own,
// and returns its exit code. stdin/stdout are piped rather than inherited
// directly so a crashing child cannot leave the wrapper's own descriptors
// in a broken state for the next spawn.
func runOnce(args []string) (int, error) {
	exe, err := resolveOwnExecutable()
	if err != nil {
		return 0, fmt.Errorf("resolving own executable: %w", err)
	}

	child := filepath.Join(filepath.Dir(exe), childBinaryName)
	cmd := newChildCommand(child, args...) // #nosec G204 -- child is the broker binary beside our own os.Executable path, with operator-supplied flags
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return 0, fmt.Errorf("wiring child stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("wiring child stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting child: %w", err)
	}

	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(stdin, os.Stdin)
		_ = stdin.Close()
	}()
	go func() {
		_, _ = io.Copy(os.Stdout, stdout)
		close(done)
	}()

	waitErr := cmd.Wait()
	<-done
	return exitCodeFromWaitErr(waitErr)
}

// exitCodeFromWaitErr translates cmd.Wait's error into the child's exit
// code: nil means 0, *exec.ExitError carries the real code, anything else
// (the child never started, was killed by a signal with no code, etc.) is
// a wrapper-level failure the caller should report distinctly.
func exitCodeFromWaitErr(waitErr error) (int, error) {
	if waitErr == nil {
		return 0, nil
	}
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("waiting for child: %w", waitErr)
}
