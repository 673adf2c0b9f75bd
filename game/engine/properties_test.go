package engine

import (
	"math/rand"
	"testing"
)

// playRandomGame drives the engine through random activations, checking the
// rule invariants after every step.
func playRandomGame(t *testing.T, seed int64, maxSteps int) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	engine := NewEngineWithDefaults()
	kings := map[*Piece]bool{}

	for step := 0; step < maxSteps && !engine.IsGameOver(); step++ {
		// Every few steps throw in a random cell, legal or not.
		if rng.Intn(4) == 0 {
			before := stateJSON(t, engine)
			r := engine.Activate(rng.Intn(10)-1, rng.Intn(10)-1)
			if r.Outcome == OutcomeRejected && stateJSON(t, engine) != before {
				t.Fatalf("seed %d step %d: rejected activation changed state", seed, step)
			}
			checkInvariants(t, engine, kings)
			continue
		}

		if _, ok := engine.SelectedPosition(); !ok {
			movable := movablePieces(engine)
			if len(movable) == 0 {
				t.Fatalf("seed %d step %d: %s has no movable piece but the game is not over", seed, step, engine.CurrentPlayer())
			}
			pick := movable[rng.Intn(len(movable))]
			engine.Activate(pick.Row, pick.Col)
			checkInvariants(t, engine, kings)
			continue
		}

		state := engine.GetState()
		if len(state.LegalTargets) == 0 {
			engine.Activate(state.Selected.Row, state.Selected.Col)
			continue
		}
		target := state.LegalTargets[rng.Intn(len(state.LegalTargets))]
		opponent := engine.CurrentPlayer().Opponent()
		before := engine.Board().Count(opponent)

		r := engine.Activate(target.Row, target.Col)
		switch r.Outcome {
		case OutcomeCaptured:
			if got := engine.Board().Count(opponent); got != before-1 {
				t.Fatalf("seed %d step %d: capture removed %d pieces", seed, step, before-got)
			}
		case OutcomeMoved:
			if state.ForcedCapture {
				t.Fatalf("seed %d step %d: simple move executed while a capture was forced", seed, step)
			}
		default:
			t.Fatalf("seed %d step %d: legal target %v gave %s", seed, step, target, r.Outcome)
		}
		checkInvariants(t, engine, kings)
	}
}

func movablePieces(e *GameEngine) []Position {
	var out []Position
	e.Board().ForEachPiece(func(p *Piece) {
		if p.Owner() == e.CurrentPlayer() && len(LegalTargets(e.Board(), p)) > 0 {
			out = append(out, p.Position())
		}
	})
	return out
}

func checkInvariants(t *testing.T, e *GameEngine, kings map[*Piece]bool) {
	t.Helper()
	selected := 0
	e.Board().ForEachPiece(func(p *Piece) {
		pos := p.Position()
		if occ, _ := e.Board().Occupant(pos.Row, pos.Col); occ != p {
			t.Fatalf("piece at %v not referenced by its cell", pos)
		}
		if p.IsSelected() {
			selected++
		}
		if kings[p] && !p.IsKing() {
			t.Fatalf("king at %v reverted to a man", pos)
		}
		if p.IsKing() {
			kings[p] = true
		}
		if !p.IsKing() && pos.Row == p.Owner().PromotionRow() {
			t.Fatalf("man at %v on its promotion row", pos)
		}
	})
	if selected > 1 {
		t.Fatalf("%d pieces selected", selected)
	}
}

func TestRandomPlayoutsKeepInvariants(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		playRandomGame(t, seed, 600)
	}
}
