package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/checkers-game/game/engine"
	"github.com/wricardo/checkers-game/game/savefile"
	"github.com/wricardo/checkers-game/game/service"
	"github.com/wricardo/checkers-game/game/session"
	"github.com/wricardo/checkers-game/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	ActivateFunc func(ctx context.Context, sessionID string, row, col int) (*service.MoveResult, error)
	ResetFunc    func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameStateFunc func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetBoardFunc     func(ctx context.Context, sessionID string) (string, error)

	// Save files
	ExportSaveFunc func(ctx context.Context, sessionID string) ([]byte, error)
	ImportSaveFunc func(ctx context.Context, sessionID string, data []byte) (*engine.GameState, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error

	// Archive
	ListFinishedGamesFunc func(ctx context.Context, limit int) ([]*service.GameRecord, error)
}

func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "test", ConfigName: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "classic", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Activate(ctx context.Context, sessionID string, row, col int) (*service.MoveResult, error) {
	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, sessionID, row, col)
	}
	return &service.MoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetBoard(ctx context.Context, sessionID string) (string, error) {
	if m.GetBoardFunc != nil {
		return m.GetBoardFunc(ctx, sessionID)
	}
	return "", nil
}

func (m *MockGameService) ExportSave(ctx context.Context, sessionID string) ([]byte, error) {
	if m.ExportSaveFunc != nil {
		return m.ExportSaveFunc(ctx, sessionID)
	}
	return []byte("true\n"), nil
}

func (m *MockGameService) ImportSave(ctx context.Context, sessionID string, data []byte) (*engine.GameState, error) {
	if m.ImportSaveFunc != nil {
		return m.ImportSaveFunc(ctx, sessionID, data)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{Name: configName, Description: "Test config"}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

func (m *MockGameService) ListFinishedGames(ctx context.Context, limit int) ([]*service.GameRecord, error) {
	if m.ListFinishedGamesFunc != nil {
		return m.ListFinishedGamesFunc(ctx, limit)
	}
	return nil, service.ErrArchiveDisabled
}

// Test helpers
func setupTestServer(t *testing.T, mockService *MockGameService) *Server {
	t.Helper()
	hub := websocket.NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)
	return NewServer(mockService, hub, nil)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func notFound(sessionID string) error {
	return fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default config",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "" {
						t.Errorf("Expected empty config name, got %s", configName)
					}
					return &service.SessionInfo{ID: "ab12", ConfigName: "classic", CreatedAt: time.Now()}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "ab12" {
					t.Errorf("Expected session ID ab12, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session with config_id",
			requestBody: map[string]string{"config_id": "multi_capture"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "multi_capture" {
						t.Errorf("Expected config 'multi_capture', got %s", configName)
					}
					return &service.SessionInfo{ID: "cd34", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "Legacy config_name field",
			requestBody: map[string]string{"config_name": "kings_endgame"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "kings_endgame" {
						t.Errorf("Expected config 'kings_endgame', got %s", configName)
					}
					return &service.SessionInfo{ID: "ef56", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Config id too long",
			requestBody:    map[string]string{"config_id": strings.Repeat("x", 65)},
			expectedStatus: http.StatusBadRequest,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if !strings.Contains(resp["error"], "at most 64 characters") {
					t.Errorf("Unexpected error message: %s", resp["error"])
				}
			},
		},
		{
			name:        "Unknown config",
			requestBody: map[string]string{"config_id": "nope"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: 'nope'", service.ErrUnknownConfig)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Handle service error",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["error"] != "service error" {
					t.Errorf("Expected error message 'service error', got %s", resp["error"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old1", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new1", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now},
				{ID: "mid1", CreatedAt: now.Add(-90 * time.Minute), LastAccessedAt: now.Add(-30 * time.Minute)},
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		name      string
		query     string
		wantOrder []string
		wantTotal int
	}{
		{"default sort by accessed desc", "", []string{"new1", "mid1", "old1"}, 3},
		{"sort by created asc", "?sort=created&order=asc", []string{"old1", "mid1", "new1"}, 3},
		{"limit", "?limit=1", []string{"new1"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Total != tt.wantTotal {
				t.Errorf("Expected total %d, got %d", tt.wantTotal, resp.Total)
			}
			if resp.Count != len(tt.wantOrder) {
				t.Fatalf("Expected %d sessions, got %d", len(tt.wantOrder), resp.Count)
			}
			for i, id := range tt.wantOrder {
				if resp.Sessions[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, resp.Sessions[i].ID)
				}
			}
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID == "gone" {
				return nil, notFound(sessionID)
			}
			return &service.SessionInfo{ID: sessionID}, nil
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "gone" {
				return session.ErrSessionNotFound
			}
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/api/sessions/ab12", http.StatusOK},
		{"GET", "/api/sessions/gone", http.StatusNotFound},
		{"DELETE", "/api/sessions/ab12", http.StatusOK},
		{"DELETE", "/api/sessions/gone", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest(tt.method, tt.path, nil))
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}

// Game Operation Tests

func TestActivate(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Select a piece",
			requestBody: map[string]int{"row": 2, "col": 1},
			setupMock: func(m *MockGameService) {
				m.ActivateFunc = func(ctx context.Context, sessionID string, row, col int) (*service.MoveResult, error) {
					if sessionID != "ab12" || row != 2 || col != 1 {
						t.Errorf("Unexpected activation %s (%d,%d)", sessionID, row, col)
					}
					eng := engine.NewEngineWithDefaults()
					activation := eng.Activate(row, col)
					return &service.MoveResult{
						Success:    activation.Changed(),
						Activation: activation,
						GameState:  eng.GetState(),
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				if !resp.Success {
					t.Error("Expected success")
				}
				if resp.Activation.Outcome != engine.OutcomeSelected {
					t.Errorf("Expected outcome selected, got %s", resp.Activation.Outcome)
				}
				if resp.GameState.Phase != engine.PhasePieceSelected {
					t.Errorf("Expected phase piece_selected, got %s", resp.GameState.Phase)
				}
			},
		},
		{
			name:        "Zero coordinates are accepted",
			requestBody: map[string]int{"row": 0, "col": 0},
			setupMock: func(m *MockGameService) {
				m.ActivateFunc = func(ctx context.Context, sessionID string, row, col int) (*service.MoveResult, error) {
					return &service.MoveResult{Success: false, GameState: &engine.GameState{}}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing column",
			requestBody:    map[string]int{"row": 2},
			expectedStatus: http.StatusBadRequest,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if !strings.Contains(resp["error"], "col is required") {
					t.Errorf("Unexpected error: %s", resp["error"])
				}
			},
		},
		{
			name:           "Empty body",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Unknown session",
			requestBody: map[string]int{"row": 2, "col": 1},
			setupMock: func(m *MockGameService) {
				m.ActivateFunc = func(ctx context.Context, sessionID string, row, col int) (*service.MoveResult, error) {
					return nil, notFound(sessionID)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/activate", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestResetAndState(t *testing.T) {
	mockService := &MockGameService{
		ResetFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return engine.NewEngineWithDefaults().GetState(), nil
		},
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID == "gone" {
				return nil, notFound(sessionID)
			}
			return engine.NewEngineWithDefaults().GetState(), nil
		},
		GetBoardFunc: func(ctx context.Context, sessionID string) (string, error) {
			state := engine.NewEngineWithDefaults().GetState()
			return engine.FormatBoard(state), nil
		},
	}
	server := setupTestServer(t, mockService)

	t.Run("reset", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/reset", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var resp struct {
			Message string              `json:"message"`
			State   *engine.GameState   `json:"state"`
			Events  []service.GameEvent `json:"events"`
		}
		parseResponse(t, w, &resp)
		if resp.State == nil || resp.State.DarkCount != engine.PiecesPerSide {
			t.Errorf("Unexpected reset state: %+v", resp.State)
		}
		if len(resp.Events) != 1 || resp.Events[0].Type != service.EventReset || resp.Events[0].Player != engine.Dark {
			t.Errorf("Expected one reset event for dark, got %+v", resp.Events)
		}
	})

	t.Run("state", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/state", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var state engine.GameState
		parseResponse(t, w, &state)
		if state.CurrentPlayer != engine.Dark {
			t.Errorf("Expected dark to move, got %s", state.CurrentPlayer)
		}
	})

	t.Run("state for unknown session", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/sessions/gone/state", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})

	t.Run("board", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/board", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
			t.Errorf("Expected text/plain, got %s", w.Header().Get("Content-Type"))
		}
		if strings.Count(w.Body.String(), "\n") != engine.BoardSize+1 {
			t.Errorf("Unexpected board rendering:\n%s", w.Body.String())
		}
	})
}

func TestSaveEndpoints(t *testing.T) {
	var imported []byte
	mockService := &MockGameService{
		ExportSaveFunc: func(ctx context.Context, sessionID string) ([]byte, error) {
			return savefile.Marshal(engine.NewEngineWithDefaults().Snapshot()), nil
		},
		ImportSaveFunc: func(ctx context.Context, sessionID string, data []byte) (*engine.GameState, error) {
			imported = data
			if _, err := savefile.Unmarshal(data); err != nil {
				return nil, err
			}
			return &engine.GameState{CurrentPlayer: engine.Light}, nil
		},
	}
	server := setupTestServer(t, mockService)

	t.Run("export", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/save", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		if lines[0] != "true" {
			t.Errorf("Expected first line 'true', got %q", lines[0])
		}
		if len(lines) != 1+2*engine.PiecesPerSide {
			t.Errorf("Expected %d lines, got %d", 1+2*engine.PiecesPerSide, len(lines))
		}
	})

	t.Run("import", func(t *testing.T) {
		body := "false\nfalse 5 0 false false false\ntrue 2 1 false false false\n"
		req := httptest.NewRequest("PUT", "/api/sessions/ab12/save", strings.NewReader(body))
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		if string(imported) != body {
			t.Errorf("Save body not forwarded intact: %q", imported)
		}
		var resp struct {
			Events []service.GameEvent `json:"events"`
		}
		parseResponse(t, w, &resp)
		if len(resp.Events) != 1 || resp.Events[0].Type != service.EventRestore {
			t.Errorf("Expected one restore event, got %+v", resp.Events)
		}
	})

	t.Run("import too large", func(t *testing.T) {
		imported = nil
		body := strings.Repeat("true 2 1 false false false\n", maxSaveSize/20)
		req := httptest.NewRequest("PUT", "/api/sessions/ab12/save", strings.NewReader("true\n"+body))
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("Expected status 413, got %d", w.Code)
		}
		if imported != nil {
			t.Error("An oversized save must not reach the service")
		}
	})

	t.Run("import malformed", func(t *testing.T) {
		req := httptest.NewRequest("PUT", "/api/sessions/ab12/save", strings.NewReader("maybe\n"))
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

// Configuration Tests

func TestConfigs(t *testing.T) {
	var saved *engine.GameConfig
	mockService := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "classic", Name: "Classic", DarkPieces: 12, LightPieces: 12}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
			if configName != "classic" {
				return nil, fmt.Errorf("configuration not found: %s", configName)
			}
			return engine.DefaultConfig(), nil
		},
		SaveConfigFunc: func(ctx context.Context, configName string, config *engine.GameConfig) error {
			saved = config
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	t.Run("list", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/configs", nil))
		var configs []*service.ConfigInfo
		parseResponse(t, w, &configs)
		if len(configs) != 1 || configs[0].ConfigID != "classic" {
			t.Errorf("Unexpected configs: %+v", configs)
		}
	})

	for _, path := range []string{"/api/configs/classic", "/api/configs/classic.json", "/api/configs/classic.yaml"} {
		t.Run("get "+path, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", path, nil))
			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}
		})
	}

	t.Run("get missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/configs/missing", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})

	t.Run("create valid", func(t *testing.T) {
		cfg := engine.DefaultConfig()
		cfg.Name = "custom"
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/configs", cfg))
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
		}
		if saved == nil || saved.Name != "custom" {
			t.Errorf("Config not forwarded to service: %+v", saved)
		}
	})

	for _, name := range []string{"../escaped", "a/b", `a\b`, ".."} {
		t.Run("create with unsafe name "+name, func(t *testing.T) {
			saved = nil
			cfg := engine.DefaultConfig()
			cfg.Name = name
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/configs", cfg))
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
			if saved != nil {
				t.Error("Unsafe name must not reach the service")
			}
		})
	}

	t.Run("create invalid layout", func(t *testing.T) {
		cfg := engine.DefaultConfig()
		cfg.Layout = cfg.Layout[:7]
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/configs", cfg))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestListGames(t *testing.T) {
	t.Run("archive disabled", func(t *testing.T) {
		server := setupTestServer(t, &MockGameService{})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/games", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})

	t.Run("archive enabled", func(t *testing.T) {
		var gotLimit int
		server := setupTestServer(t, &MockGameService{
			ListFinishedGamesFunc: func(ctx context.Context, limit int) ([]*service.GameRecord, error) {
				gotLimit = limit
				return []*service.GameRecord{{ID: "g1", Winner: engine.Dark}}, nil
			},
		})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/games?limit=5", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if gotLimit != 5 {
			t.Errorf("Expected limit 5, got %d", gotLimit)
		}
		var resp struct {
			Count int                   `json:"count"`
			Games []*service.GameRecord `json:"games"`
		}
		parseResponse(t, w, &resp)
		if resp.Count != 1 || resp.Games[0].Winner != engine.Dark {
			t.Errorf("Unexpected response: %+v", resp)
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		server := setupTestServer(t, &MockGameService{})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/games?limit=abc", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	archiveOK := true
	server.AddHealthCheck("archive", func() bool { return archiveOK })

	tests := []struct {
		healthy bool
		status  string
	}{
		{true, "healthy"},
		{false, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			archiveOK = tt.healthy
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/health", nil))
			var resp struct {
				Status string          `json:"status"`
				Checks map[string]bool `json:"checks"`
			}
			parseResponse(t, w, &resp)
			if resp.Status != tt.status || resp.Checks["archive"] != tt.healthy {
				t.Errorf("health = %+v, want status %s", resp, tt.status)
			}
		})
	}
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Missing session parameter",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session",
			queryParams: "?session=invalid",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, notFound(sessionID)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, httptest.NewRequest("GET", "/ws"+tt.queryParams, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}
