package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const shellTimeout = 30 * time.Second

// denyList blocks destructive commands before any subprocess is spawned.
// Matching is by substring, like the checks the model is told about.
var denyList = []string{
	"rm -rf",
	"dd if=",
	"mkfs",
	"format ",
	"shutdown",
	"reboot",
	"> /dev/",
}

// Shell executes shell commands inside the workspace.
type Shell struct {
	workDir string
}

// NewShell creates a new shell tool.
func NewShell(workDir string) *Shell {
	return &Shell{workDir: workDir}
}

func (s *Shell) Name() string {
	return "execute_shell"
}

func (s *Shell) Description() string {
	return `Execute a shell command. Use for running commands, package management, builds, etc.
The command runs in the workspace directory with a 30 second timeout.
Returns stdout on success, stderr on failure. Destructive commands are blocked.`
}

func (s *Shell) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {
				"type": "string",
				"description": "The shell command to execute"
			}
		},
		"required": ["command"]
	}`)
}

type shellParams struct {
	Command string `json:"command"`
}

func (s *Shell) Execute(ctx context.Context, params json.RawMessage) *Result {
	var p shellParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &Result{Content: fmt.Sprintf("invalid params: %v", err), IsError: true}
	}

	command := strings.TrimSpace(p.Command)
	if command == "" {
		return &Result{Content: "command is required", IsError: true}
	}

	if blocked, pattern := isDenied(command); blocked {
		return &Result{Content: fmt.Sprintf("command blocked: contains %q", pattern), IsError: true}
	}

	output, timedOut := runCommand(ctx, s.workDir, shellTimeout, "bash", "-c", command)
	if timedOut {
		return &Result{Content: fmt.Sprintf("command timed out after %s", shellTimeout), IsError: true}
	}

	return output
}

func isDenied(command string) (bool, string) {
	for _, pattern := range denyList {
		if strings.Contains(command, pattern) {
			return true, pattern
		}
	}
	return false, ""
}

// runCommand runs a subprocess under the given timeout. The result holds
// stdout on success and stderr otherwise, capped at the shell output limit.
func runCommand(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (*Result, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, true
	}

	if err != nil {
		output := strings.TrimSpace(stderr.String())
		if output == "" {
			output = err.Error()
		}
		return &Result{Content: truncate(output, shellOutputLimit), IsError: true}, false
	}

	output := strings.TrimSpace(stdout.String())
	if output == "" {
		output = "(no output)"
	}
	return &Result{Content: truncate(output, shellOutputLimit)}, false
}
