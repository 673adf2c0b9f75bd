// Package main implements an interactive terminal client for the checkers
// server API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "checkers-client",
		Usage: "Play checkers against a running checkers server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   "http://localhost:8080",
				Usage:   "Base URL of the checkers API",
				Sources: cli.EnvVars("CHECKERS_API_URL"),
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "Session to attach to on startup",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			colors := palette{}
			if !cmd.Bool("no-color") && term.IsTerminal(int(os.Stdout.Fd())) {
				colors = ansiPalette
			}
			sh := newShell(newAPIClient(cmd.String("url")), os.Stdout, colors)
			if id := cmd.String("session"); id != "" {
				if err := sh.Execute(ctx, "use "+id); err != nil {
					return err
				}
			}
			return runREPL(ctx, sh)
		},
	}
}

func runREPL(ctx context.Context, sh *shell) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          sh.prompt(),
		HistoryFile:     ".checkers_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintf(sh.out, "%sCheckers Client%s\n", sh.colors.Cyan, sh.colors.Reset)
	fmt.Fprintf(sh.out, "%sAPI: %s%s\n", sh.colors.Cyan, sh.api.baseURL, sh.colors.Reset)
	fmt.Fprintf(sh.out, "Type 'help' for commands\n\n")

	for {
		rl.SetPrompt(sh.prompt())

		line, err := rl.Readline()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "quit" {
			return nil
		}
		if err := sh.Execute(ctx, line); errors.Is(err, errExit) {
			return nil
		}
	}
}
