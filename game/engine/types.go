package engine

// Phase is the turn controller state
type Phase string

const (
	PhaseAwaitingSelection Phase = "awaiting_selection"
	PhasePieceSelected     Phase = "piece_selected"
	PhaseGameOver          Phase = "game_over"
)

// Outcome describes what a single activation did
type Outcome string

const (
	OutcomeRejected   Outcome = "rejected"
	OutcomeSelected   Outcome = "selected"
	OutcomeDeselected Outcome = "deselected"
	OutcomeMoved      Outcome = "moved"
	OutcomeCaptured   Outcome = "captured"
)

const (
	// PiecesPerSide is the number of men each side starts with in the standard setup
	PiecesPerSide = 12

	// Validation constants
	MaxConfigNameLength = 64
	WebSocketBufferSize = 256
)

// ActivationResult reports the effect of one Activate call
type ActivationResult struct {
	Outcome        Outcome   `json:"outcome"`
	Player         Player    `json:"player"`
	Target         Position  `json:"target"`
	From           *Position `json:"from,omitempty"`
	Captured       *Position `json:"captured,omitempty"`
	Promoted       bool      `json:"promoted,omitempty"`
	ForcedCapture  bool      `json:"forced_capture"`
	ChainContinues bool      `json:"chain_continues,omitempty"`
	TurnEnded      bool      `json:"turn_ended"`
	GameOver       bool      `json:"game_over"`
	Winner         Player    `json:"winner,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	// Message is the layout's rejection text, set only on rejected activations.
	Message string `json:"message,omitempty"`
}

// Changed reports whether the activation altered engine state
func (r ActivationResult) Changed() bool {
	return r.Outcome != OutcomeRejected
}

// PieceRecord is one occupied cell at the persistence boundary
type PieceRecord struct {
	Owner         Player `json:"owner"`
	Row           int    `json:"row"`
	Col           int    `json:"col"`
	Selected      bool   `json:"selected"`
	ForcedCapture bool   `json:"forced_capture"`
	King          bool   `json:"king"`
}

// Snapshot is everything needed to rebuild a board and turn. Turns is not
// part of the save file format and reads back as zero from one.
type Snapshot struct {
	CurrentPlayer Player        `json:"current_player"`
	Pieces        []PieceRecord `json:"pieces"`
	Turns         int           `json:"turns,omitempty"`
}

// GameState represents the complete observable game state
type GameState struct {
	CurrentPlayer Player        `json:"current_player"`
	Phase         Phase         `json:"phase"`
	Selected      *Position     `json:"selected,omitempty"`
	ForcedCapture bool          `json:"forced_capture"`
	LegalTargets  []Position    `json:"legal_targets,omitempty"`
	GameOver      bool          `json:"game_over"`
	Winner        Player        `json:"winner,omitempty"`
	Pieces        []PieceRecord `json:"pieces"`
	DarkCount     int           `json:"dark_count"`
	LightCount    int           `json:"light_count"`
	DarkKings     int           `json:"dark_kings"`
	LightKings    int           `json:"light_kings"`
	TurnCount     int           `json:"turn_count"`
	Message       string        `json:"message"`
	ConfigName    string        `json:"config_name"`
}
