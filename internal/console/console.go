// Package console is the interactive terminal front end. It prompts for a
// username, replays the resumed conversation, and runs a read-eval loop
// that streams responses as they arrive.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"memorymate/internal/provider"
	"memorymate/internal/session"
)

// Console wires a session controller to an interactive terminal.
type Console struct {
	ctrl   *session.Controller
	logger *slog.Logger
	in     io.Reader
	out    io.Writer
}

// New builds a Console reading os.Stdin and writing os.Stdout.
func New(ctrl *session.Controller, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{
		ctrl:   ctrl,
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// Run drives the login prompt and chat loop until the user quits or the
// context is cancelled.
func (c *Console) Run(ctx context.Context) error {
	for {
		username, err := c.promptLogin()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}

		if err := c.ctrl.Login(ctx, username); err != nil {
			fmt.Fprintf(c.out, "login failed: %v\n", err)
			continue
		}

		c.printGreeting()
		c.printHistory()
		c.printSidebar(ctx)

		quit, err := c.chatLoop(ctx)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
		// Logged out; loop back to the login prompt.
	}
}

// promptLogin asks for a username and rejects blank input.
func (c *Console) promptLogin() (string, error) {
	var username string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Who are you?").
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("username must not be empty")
				}
				return nil
			}).
			Value(&username),
	))
	if err := form.Run(); err != nil {
		return "", err
	}
	return username, nil
}

// chatLoop reads user input line by line. It returns true when the user
// asked to quit, false when they logged out.
func (c *Console) chatLoop(ctx context.Context) (bool, error) {
	scanner := bufio.NewScanner(c.in)

	for {
		fmt.Fprint(c.out, "\n> ")
		if !scanner.Scan() {
			return true, scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		switch cmd, _ := parseCommand(text); cmd {
		case cmdQuit:
			return true, nil

		case cmdLogout:
			c.ctrl.Logout()
			fmt.Fprintln(c.out, "logged out")
			return false, nil

		case cmdClear:
			if err := c.ctrl.Clear(ctx); err != nil {
				fmt.Fprintf(c.out, "clear failed: %v\n", err)
				continue
			}
			fmt.Fprintln(c.out, "chat cleared, new session started")
			c.printSidebar(ctx)

		case cmdHelp:
			c.printHelp()

		case cmdNone:
			c.runTurn(ctx, text)

		default:
			fmt.Fprintf(c.out, "unknown command %q (try /help)\n", text)
		}
	}
}

// runTurn submits one message and streams the response inline.
func (c *Console) runTurn(ctx context.Context, text string) {
	fmt.Fprint(c.out, "\n")

	turn, err := c.ctrl.Submit(ctx, text, func(delta string) {
		fmt.Fprint(c.out, delta)
	})
	fmt.Fprintln(c.out)

	if err != nil {
		c.logger.Warn("chat turn failed", "error", err)
		if turn.Content != "" {
			fmt.Fprintf(c.out, "[response interrupted: %v]\n", err)
		} else {
			fmt.Fprintf(c.out, "[error: %v]\n", err)
		}
		if provider.IsRetryable(err) {
			fmt.Fprintln(c.out, "(temporary failure, try sending again)")
		}
	}

	c.printSidebar(ctx)
}

func (c *Console) printGreeting() {
	fmt.Fprintf(c.out, "\nWelcome, %s. Session %s.\n", c.ctrl.UserID(), c.ctrl.SessionID())
	fmt.Fprintln(c.out, "Type /help for commands.")
}

// printHistory replays the resumed turns.
func (c *Console) printHistory() {
	turns := c.ctrl.Turns()
	if len(turns) == 0 {
		return
	}

	fmt.Fprintln(c.out, "\n--- resumed conversation ---")
	for _, turn := range turns {
		label := "you"
		if turn.Role == provider.RoleAssistant {
			label = "assistant"
		}
		fmt.Fprintf(c.out, "%s: %s\n", label, turn.Content)
	}
	fmt.Fprintln(c.out, "----------------------------")
}

// printSidebar shows the memory and summary panes.
func (c *Console) printSidebar(ctx context.Context) {
	fmt.Fprintln(c.out, "\n[memories]")
	fmt.Fprintln(c.out, session.FormatMemories(c.ctrl.Memories(ctx)))
	fmt.Fprintln(c.out, "\n[summary]")
	fmt.Fprintln(c.out, session.FormatSummary(c.ctrl.Summary(ctx)))
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `commands:
  /clear   start a fresh chat (history stays on disk)
  /logout  switch user
  /quit    exit
  /help    this message`)
}
