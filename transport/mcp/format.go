package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/checkers-game/game/engine"
	"github.com/wricardo/checkers-game/game/service"
)

func formatSessionInfo(session *service.SessionInfo) string {
	result := fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nLast accessed: %s\n",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.LastAccessedAt.Format("2006-01-02 15:04:05"))
	if session.GameState != nil {
		result += "\n" + formatGameState(session.GameState)
	}
	return result
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var sb strings.Builder
	sb.WriteString(engine.FormatBoard(state))
	sb.WriteByte('\n')

	if state.GameOver {
		fmt.Fprintf(&sb, "GAME OVER: %s wins\n", state.Winner)
	}
	sb.WriteString(engine.StatusLine(state))
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "Kings: dark %d, light %d\n", state.DarkKings, state.LightKings)
	fmt.Fprintf(&sb, "Turn: %d\n", state.TurnCount)

	if state.Selected != nil {
		fmt.Fprintf(&sb, "Selected: %s\n", *state.Selected)
		if len(state.LegalTargets) > 0 {
			targets := make([]string, 0, len(state.LegalTargets))
			for _, t := range state.LegalTargets {
				targets = append(targets, t.String())
			}
			fmt.Fprintf(&sb, "Legal targets: %s\n", strings.Join(targets, " "))
		}
	}

	if state.Message != "" {
		fmt.Fprintf(&sb, "\n%s\n", state.Message)
	}
	return sb.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var sb strings.Builder

	a := result.Activation
	if result.Success {
		fmt.Fprintf(&sb, "✓ %s %s\n", a.Outcome, a.Target)
	} else {
		fmt.Fprintf(&sb, "✗ Rejected %s: %s\n", a.Target, a.Reason)
	}

	for _, ev := range result.Events {
		if ev.Type == service.EventRejected {
			continue
		}
		fmt.Fprintf(&sb, "  [%s] %s\n", ev.Type, ev.Message)
	}

	sb.WriteByte('\n')
	sb.WriteString(formatGameState(result.GameState))
	return sb.String()
}
