package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Layout characters
const (
	LayoutEmpty     = '.'
	LayoutDarkMan   = 'd'
	LayoutDarkKing  = 'D'
	LayoutLightMan  = 'l'
	LayoutLightKing = 'L'
)

// ConfigExtensions are the layout file formats understood by LoadConfigByName,
// in lookup order.
var ConfigExtensions = []string{".json", ".yaml", ".yml"}

// GameMessages holds the player-facing texts of a layout
type GameMessages struct {
	Welcome         string `json:"welcome" mapstructure:"welcome"`
	Selected        string `json:"selected" mapstructure:"selected"`
	CaptureRequired string `json:"capture_required" mapstructure:"capture_required"`
	Deselected      string `json:"deselected" mapstructure:"deselected"`
	Moved           string `json:"moved" mapstructure:"moved"`
	Captured        string `json:"captured" mapstructure:"captured"`
	ChainContinues  string `json:"chain_continues" mapstructure:"chain_continues"`
	Promoted        string `json:"promoted" mapstructure:"promoted"`
	Rejected        string `json:"rejected" mapstructure:"rejected"`
	GameOver        string `json:"game_over" mapstructure:"game_over"`
}

// GameConfig represents a starting layout loaded from configs/
type GameConfig struct {
	Name           string       `json:"name" mapstructure:"name"`
	Description    string       `json:"description" mapstructure:"description"`
	StartingPlayer Player       `json:"starting_player" mapstructure:"starting_player"`
	Layout         []string     `json:"layout" mapstructure:"layout"`
	Messages       GameMessages `json:"messages" mapstructure:"messages"`
}

// StandardLayout returns the classic opening position.
func StandardLayout() []string {
	return []string{
		".d.d.d.d",
		"d.d.d.d.",
		".d.d.d.d",
		"........",
		"........",
		"l.l.l.l.",
		".l.l.l.l",
		"l.l.l.l.",
	}
}

// DefaultConfig returns the classic game with default messages.
func DefaultConfig() *GameConfig {
	config := &GameConfig{
		Name:           "classic",
		Description:    "Standard checkers opening, twelve men per side",
		StartingPlayer: Dark,
		Layout:         StandardLayout(),
	}
	config.Messages = defaultMessages()
	return config
}

func defaultMessages() GameMessages {
	return GameMessages{
		Welcome:         "Welcome to checkers! Dark moves first.",
		Selected:        "%s piece selected",
		CaptureRequired: "%s must capture with the selected piece",
		Deselected:      "Selection cleared",
		Moved:           "%s moved",
		Captured:        "%s captured a piece",
		ChainContinues:  "%s must keep jumping with the same piece",
		Promoted:        "%s piece crowned king",
		Rejected:        "That activation is not allowed",
		GameOver:        "Game over! %s wins",
	}
}

// applyMessageDefaults fills empty optional messages.
func (c *GameConfig) applyMessageDefaults() {
	d := defaultMessages()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&c.Messages.Selected, d.Selected)
	fill(&c.Messages.CaptureRequired, d.CaptureRequired)
	fill(&c.Messages.Deselected, d.Deselected)
	fill(&c.Messages.Moved, d.Moved)
	fill(&c.Messages.Captured, d.Captured)
	fill(&c.Messages.ChainContinues, d.ChainContinues)
	fill(&c.Messages.Promoted, d.Promoted)
	fill(&c.Messages.Rejected, d.Rejected)
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if len(config.Name) > MaxConfigNameLength {
		return fmt.Errorf("config validation: name must be at most %d characters", MaxConfigNameLength)
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}
	if !config.StartingPlayer.Valid() {
		return fmt.Errorf("config validation: starting_player must be %q or %q, got %q", Dark, Light, config.StartingPlayer)
	}

	// Validate layout
	if len(config.Layout) != BoardSize {
		return fmt.Errorf("config validation: layout must have %d rows, got %d", BoardSize, len(config.Layout))
	}
	counts := map[Player]int{}
	for r, row := range config.Layout {
		if len(row) != BoardSize {
			return fmt.Errorf("config validation: row %d must have %d characters, got %d", r, BoardSize, len(row))
		}
		for c := 0; c < BoardSize; c++ {
			char := row[c]
			if char == LayoutEmpty {
				continue
			}
			owner, king, ok := decodeLayoutChar(char)
			if !ok {
				return fmt.Errorf("config validation: invalid character '%c' at row %d, col %d", char, r, c)
			}
			pos := Position{Row: r, Col: c}
			if !pos.IsDarkSquare() {
				return fmt.Errorf("config validation: piece at row %d, col %d is on a light square", r, c)
			}
			if !king && r == owner.PromotionRow() {
				return fmt.Errorf("config validation: %s man at row %d, col %d must be a king", owner, r, c)
			}
			counts[owner]++
		}
	}
	if counts[Dark] == 0 || counts[Light] == 0 {
		return fmt.Errorf("config validation: layout must contain pieces for both sides (dark=%d, light=%d)", counts[Dark], counts[Light])
	}
	if counts[Dark] > PiecesPerSide || counts[Light] > PiecesPerSide {
		return fmt.Errorf("config validation: at most %d pieces per side (dark=%d, light=%d)", PiecesPerSide, counts[Dark], counts[Light])
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if !strings.Contains(config.Messages.GameOver, "%s") {
		return fmt.Errorf("config validation: messages.game_over must contain %%s for the winner")
	}

	return nil
}

// BuildBoard places the pieces described by a layout on a new board.
func BuildBoard(layout []string) (*Board, error) {
	board := NewBoard()
	for r, row := range layout {
		for c := 0; c < len(row); c++ {
			if row[c] == LayoutEmpty {
				continue
			}
			owner, king, ok := decodeLayoutChar(row[c])
			if !ok {
				return nil, fmt.Errorf("layout: invalid character '%c' at row %d, col %d", row[c], r, c)
			}
			piece := NewPiece(owner)
			if king {
				piece = NewKing(owner)
			}
			if err := board.Place(piece, r, c); err != nil {
				return nil, fmt.Errorf("layout: %w", err)
			}
		}
	}
	return board, nil
}

// EncodeLayout renders a board as layout rows.
func EncodeLayout(board *Board) []string {
	rows := make([]string, BoardSize)
	for r := 0; r < BoardSize; r++ {
		var sb strings.Builder
		for c := 0; c < BoardSize; c++ {
			sb.WriteByte(encodeLayoutChar(board.cells[r][c]))
		}
		rows[r] = sb.String()
	}
	return rows
}

func decodeLayoutChar(char byte) (owner Player, king bool, ok bool) {
	switch char {
	case LayoutDarkMan:
		return Dark, false, true
	case LayoutDarkKing:
		return Dark, true, true
	case LayoutLightMan:
		return Light, false, true
	case LayoutLightKing:
		return Light, true, true
	}
	return "", false, false
}

func encodeLayoutChar(p *Piece) byte {
	switch {
	case p == nil:
		return LayoutEmpty
	case p.owner == Dark && p.king:
		return LayoutDarkKing
	case p.owner == Dark:
		return LayoutDarkMan
	case p.king:
		return LayoutLightKing
	default:
		return LayoutLightMan
	}
}

// resolveConfigPath maps a configs/ relative path onto CONFIG_DIR when set.
func resolveConfigPath(filename string) string {
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			return filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}
	return filename
}

// LoadGameConfig loads a game configuration from a JSON or YAML file
func LoadGameConfig(filename string) (*GameConfig, error) {
	v := viper.New()
	v.SetConfigFile(resolveConfigPath(filename))
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config GameConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.applyMessageDefaults()

	// Validate the loaded configuration
	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigByName loads a game configuration by name from the configs directory
func LoadConfigByName(configName string) (*GameConfig, error) {
	base := strings.TrimSuffix(configName, filepath.Ext(configName))
	for _, ext := range ConfigExtensions {
		configPath := "configs/" + base + ext
		if _, err := os.Stat(resolveConfigPath(configPath)); err != nil {
			continue
		}
		config, err := LoadGameConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config '%s': %v", configName, err)
		}
		return config, nil
	}

	return nil, fmt.Errorf("config file '%s' not found", configName)
}
