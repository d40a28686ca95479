package channel

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#22C55E"))

	replyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9FAFB"))

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A855F7"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// terminalUserID identifies the single local user.
const terminalUserID = "local"

// Terminal is an interactive REPL channel on stdin/stdout.
type Terminal struct {
	in  *bufio.Reader
	out *os.File
}

// NewTerminal creates a terminal channel.
func NewTerminal() *Terminal {
	return &Terminal{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}
}

func (t *Terminal) Name() string {
	return "terminal"
}

// Run reads lines from stdin and prints replies until the user exits or
// the context is cancelled.
func (t *Terminal) Run(ctx context.Context, handle Handler) error {
	fmt.Fprintln(t.out, bannerStyle.Render("nanobot"))
	fmt.Fprintln(t.out, mutedStyle.Render("Type /help for commands, /exit to quit."))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprint(t.out, promptStyle.Render("\n> "))
		line, err := t.in.ReadString('\n')
		if err != nil {
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") || line == "exit" || line == "quit" {
			if t.handleCommand(line) {
				return nil
			}
			continue
		}

		reply := handle(ctx, terminalUserID, line)
		fmt.Fprintln(t.out, replyStyle.Render(reply))
	}
}

// handleCommand processes a slash command. It returns true when the REPL
// should exit.
func (t *Terminal) handleCommand(cmd string) bool {
	switch cmd {
	case "/exit", "/quit", "exit", "quit":
		fmt.Fprintln(t.out, mutedStyle.Render("bye"))
		return true
	case "/help":
		fmt.Fprintln(t.out, "\nCommands:")
		fmt.Fprintln(t.out, "  /help    - Show this help")
		fmt.Fprintln(t.out, "  /clear   - Clear screen")
		fmt.Fprintln(t.out, "  /exit    - Quit")
	case "/clear":
		fmt.Fprint(t.out, "\033[H\033[2J")
	default:
		fmt.Fprintf(t.out, "Unknown command: %s (try /help)\n", cmd)
	}
	return false
}
