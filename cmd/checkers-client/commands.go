package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wricardo/checkers-game/game/engine"
	"github.com/wricardo/checkers-game/game/savefile"
)

const defaultSaveFile = "game.txt"

// errExit is returned by the exit command to stop the read loop.
var errExit = errors.New("exit")

// palette holds the escape codes used for output. The zero value prints
// plain text.
type palette struct {
	Reset, Red, Green, Yellow, Blue, Cyan string
}

var ansiPalette = palette{
	Reset:  "\033[0m",
	Red:    "\033[31m",
	Green:  "\033[32m",
	Yellow: "\033[33m",
	Blue:   "\033[34m",
	Cyan:   "\033[36m",
}

// command defines a client command with its handler
type command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Handler     func(ctx context.Context, args []string) error
}

type shell struct {
	api      *apiClient
	out      io.Writer
	colors   palette
	session  string
	commands map[string]*command
	order    []*command
}

func newShell(api *apiClient, out io.Writer, colors palette) *shell {
	s := &shell{
		api:      api,
		out:      out,
		colors:   colors,
		commands: make(map[string]*command),
	}

	s.register(&command{"new", "n", "Create a session and switch to it", "new [config]", s.newHandler})
	s.register(&command{"sessions", "ls", "List active sessions", "sessions", s.sessionsHandler})
	s.register(&command{"use", "u", "Switch to an existing session", "use <session-id>", s.useHandler})
	s.register(&command{"state", "s", "Show the board and status", "state", s.stateHandler})
	s.register(&command{"activate", "a", "Activate the cell at row, col", "activate <row> <col>", s.activateHandler})
	s.register(&command{"reset", "r", "Restart the game from its layout", "reset", s.resetHandler})
	s.register(&command{"save", "", "Download the game to a save file", "save [file]", s.saveHandler})
	s.register(&command{"load", "", "Upload a save file into the session", "load [file]", s.loadHandler})
	s.register(&command{"configs", "c", "List starting layouts", "configs", s.configsHandler})
	s.register(&command{"games", "g", "List finished games", "games [limit]", s.gamesHandler})
	s.register(&command{"health", ".", "Check the server", "health", s.healthHandler})
	s.register(&command{"help", "?", "Show available commands", "help [command]", s.helpHandler})
	s.register(&command{"exit", "x", "Exit the client", "exit", func(context.Context, []string) error { return errExit }})

	// "select" reads better than "activate" when picking up a piece
	s.commands["select"] = s.commands["activate"]

	return s
}

func (s *shell) register(cmd *command) {
	s.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		s.commands[cmd.ShortName] = cmd
	}
	s.order = append(s.order, cmd)
}

// Execute runs one input line. It returns errExit when the user asked to
// leave; every other failure is printed.
func (s *shell) Execute(ctx context.Context, input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd, ok := s.commands[strings.ToLower(parts[0])]
	if !ok {
		fmt.Fprintf(s.out, "%sUnknown command: %s%s\n", s.colors.Red, parts[0], s.colors.Reset)
		fmt.Fprintln(s.out, "Type 'help' for available commands")
		return nil
	}

	if err := cmd.Handler(ctx, parts[1:]); err != nil {
		if errors.Is(err, errExit) {
			return err
		}
		fmt.Fprintf(s.out, "%sError: %s%s\n", s.colors.Red, err.Error(), s.colors.Reset)
	}
	return nil
}

func (s *shell) prompt() string {
	base := "checkers"
	if s.session != "" {
		id := s.session
		if len(id) > 8 {
			id = id[:8]
		}
		base += " [" + id + "]"
	}
	return s.colors.Yellow + base + " > " + s.colors.Reset
}

func (s *shell) requireSession() error {
	if s.session == "" {
		return errors.New("no active session, use 'new' or 'use <id>'")
	}
	return nil
}

// parseCoords reads a row and column from args.
func parseCoords(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, errors.New("expected <row> <col>")
	}
	row, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid row %q", args[0])
	}
	col, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid col %q", args[1])
	}
	return row, col, nil
}

func (s *shell) printState(state *engine.GameState) {
	if state == nil {
		return
	}
	s.printBoard(engine.FormatBoard(state))

	color := s.colors.Cyan
	if state.GameOver {
		color = s.colors.Green
	}
	fmt.Fprintf(s.out, "%s%s%s\n", color, engine.StatusLine(state), s.colors.Reset)
	if state.Message != "" {
		fmt.Fprintln(s.out, state.Message)
	}
}

// printBoard colors dark pieces red and light pieces blue.
func (s *shell) printBoard(board string) {
	if s.colors == (palette{}) {
		fmt.Fprint(s.out, board)
		return
	}
	var sb strings.Builder
	for _, ch := range board {
		switch ch {
		case engine.LayoutDarkMan, engine.LayoutDarkKing:
			sb.WriteString(s.colors.Red + string(ch) + s.colors.Reset)
		case engine.LayoutLightMan, engine.LayoutLightKing:
			sb.WriteString(s.colors.Blue + string(ch) + s.colors.Reset)
		case '*':
			sb.WriteString(s.colors.Green + string(ch) + s.colors.Reset)
		default:
			sb.WriteRune(ch)
		}
	}
	fmt.Fprint(s.out, sb.String())
}

func (s *shell) newHandler(ctx context.Context, args []string) error {
	configID := ""
	if len(args) > 0 {
		configID = args[0]
	}
	info, err := s.api.CreateSession(ctx, configID)
	if err != nil {
		return err
	}
	s.session = info.ID
	fmt.Fprintf(s.out, "%sSession %s created (%s)%s\n", s.colors.Green, info.ID, info.ConfigName, s.colors.Reset)
	s.printState(info.GameState)
	return nil
}

func (s *shell) sessionsHandler(ctx context.Context, args []string) error {
	sessions, err := s.api.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(s.out, "No active sessions")
		return nil
	}
	for _, info := range sessions {
		marker := " "
		if info.ID == s.session {
			marker = "*"
		}
		status := ""
		if info.GameState != nil {
			status = engine.StatusLine(info.GameState)
		}
		fmt.Fprintf(s.out, "%s %s  %-16s %s\n", marker, info.ID, info.ConfigName, status)
	}
	return nil
}

func (s *shell) useHandler(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: use <session-id>")
	}
	state, err := s.api.State(ctx, args[0])
	if err != nil {
		return err
	}
	s.session = args[0]
	s.printState(state)
	return nil
}

func (s *shell) stateHandler(ctx context.Context, args []string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	state, err := s.api.State(ctx, s.session)
	if err != nil {
		return err
	}
	s.printState(state)
	return nil
}

func (s *shell) activateHandler(ctx context.Context, args []string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	row, col, err := parseCoords(args)
	if err != nil {
		return err
	}
	result, err := s.api.Activate(ctx, s.session, row, col)
	if err != nil {
		return err
	}

	act := result.Activation
	if act.Outcome == engine.OutcomeRejected {
		fmt.Fprintf(s.out, "%sRejected %s: %s%s\n", s.colors.Red, act.Target, act.Reason, s.colors.Reset)
		return nil
	}
	fmt.Fprintf(s.out, "%s%s %s%s\n", s.colors.Green, act.Outcome, act.Target, s.colors.Reset)
	for _, event := range result.Events {
		fmt.Fprintf(s.out, "  %s\n", event.Message)
	}
	s.printState(result.GameState)
	return nil
}

func (s *shell) resetHandler(ctx context.Context, args []string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	state, err := s.api.Reset(ctx, s.session)
	if err != nil {
		return err
	}
	s.printState(state)
	return nil
}

func (s *shell) saveHandler(ctx context.Context, args []string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	path := defaultSaveFile
	if len(args) > 0 {
		path = args[0]
	}
	snap, err := s.api.ExportSave(ctx, s.session)
	if err != nil {
		return err
	}
	if err := savefile.WriteFile(path, snap); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%sSaved %d pieces to %s%s\n", s.colors.Green, len(snap.Pieces), path, s.colors.Reset)
	return nil
}

func (s *shell) loadHandler(ctx context.Context, args []string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	path := defaultSaveFile
	if len(args) > 0 {
		path = args[0]
	}
	snap, err := savefile.ReadFile(path)
	if err != nil {
		return err
	}
	state, err := s.api.ImportSave(ctx, s.session, snap)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%sLoaded %s%s\n", s.colors.Green, path, s.colors.Reset)
	s.printState(state)
	return nil
}

func (s *shell) configsHandler(ctx context.Context, args []string) error {
	configs, err := s.api.ListConfigs(ctx)
	if err != nil {
		return err
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	for _, cfg := range configs {
		fmt.Fprintf(s.out, "%s%-16s%s %s (dark %d, light %d, %s starts)\n",
			s.colors.Cyan, cfg.ConfigID, s.colors.Reset, cfg.Name, cfg.DarkPieces, cfg.LightPieces, cfg.StartingPlayer)
	}
	return nil
}

func (s *shell) gamesHandler(ctx context.Context, args []string) error {
	limit := 10
	if len(args) > 0 {
		l, err := strconv.Atoi(args[0])
		if err != nil || l < 0 {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		limit = l
	}
	games, err := s.api.ListGames(ctx, limit)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		fmt.Fprintln(s.out, "No finished games")
		return nil
	}
	for _, g := range games {
		fmt.Fprintf(s.out, "%s  %s wins in %d turns (%s, dark %d, light %d)\n",
			g.FinishedAt.Local().Format(time.DateTime), g.Winner, g.Turns, g.ConfigName, g.DarkRemaining, g.LightRemaining)
	}
	return nil
}

func (s *shell) healthHandler(ctx context.Context, args []string) error {
	if err := s.api.Health(ctx); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%sServer at %s is healthy%s\n", s.colors.Green, s.api.baseURL, s.colors.Reset)
	return nil
}

func (s *shell) helpHandler(ctx context.Context, args []string) error {
	if len(args) > 0 {
		cmd, ok := s.commands[args[0]]
		if !ok {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(s.out, "%s%s%s - %s\n", s.colors.Cyan, cmd.Name, s.colors.Reset, cmd.Description)
		if cmd.ShortName != "" {
			fmt.Fprintf(s.out, "Short form: %s\n", cmd.ShortName)
		}
		fmt.Fprintf(s.out, "Usage: %s\n", cmd.Usage)
		return nil
	}

	fmt.Fprintf(s.out, "%sAvailable Commands:%s\n", s.colors.Cyan, s.colors.Reset)
	for _, cmd := range s.order {
		short := ""
		if cmd.ShortName != "" {
			short = "[" + cmd.ShortName + "]"
		}
		fmt.Fprintf(s.out, "  %-5s %-10s %s\n", short, cmd.Name, cmd.Description)
	}
	fmt.Fprintln(s.out, "\nType 'help <command>' for detailed usage")
	return nil
}
