package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// gitVerbs is the closed set of allowed git subcommands. The first token
// of the operation must match exactly; a substring match would let a
// compound command like "commit; rm -rf" through.
var gitVerbs = map[string]bool{
	"status": true,
	"log":    true,
	"branch": true,
	"diff":   true,
	"show":   true,
	"pull":   true,
	"add":    true,
	"commit": true,
}

const gitMetachars = ";|&$`<>"

// Git runs a restricted set of git subcommands in the workspace repo.
type Git struct {
	workDir string
}

// NewGit creates a new git tool.
func NewGit(workDir string) *Git {
	return &Git{workDir: workDir}
}

func (g *Git) Name() string {
	return "git_operation"
}

func (g *Git) Description() string {
	return `Run a git subcommand in the workspace repository.
Allowed: status, log, branch, diff, show, pull, add, commit.
Example operations: "status", "log --oneline -5", "commit -m 'message'".`
}

func (g *Git) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"operation": {
				"type": "string",
				"description": "The git subcommand and arguments, without the leading 'git'"
			}
		},
		"required": ["operation"]
	}`)
}

type gitParams struct {
	Operation string `json:"operation"`
}

func (g *Git) Execute(ctx context.Context, params json.RawMessage) *Result {
	var p gitParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &Result{Content: fmt.Sprintf("invalid params: %v", err), IsError: true}
	}

	operation := strings.TrimSpace(p.Operation)
	if operation == "" {
		return &Result{Content: "operation is required", IsError: true}
	}

	fields := strings.Fields(operation)
	if !gitVerbs[strings.ToLower(fields[0])] {
		return &Result{Content: fmt.Sprintf("git operation not allowed: %s", fields[0]), IsError: true}
	}
	if strings.ContainsAny(operation, gitMetachars) {
		return &Result{Content: "git operation contains shell metacharacters", IsError: true}
	}

	args := append([]string{}, fields...)
	output, timedOut := runCommand(ctx, g.workDir, shellTimeout, "git", args...)
	if timedOut {
		return &Result{Content: fmt.Sprintf("git command timed out after %s", shellTimeout), IsError: true}
	}

	return output
}
