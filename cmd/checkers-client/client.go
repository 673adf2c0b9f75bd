package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wricardo/checkers-game/game/engine"
	"github.com/wricardo/checkers-game/game/savefile"
	"github.com/wricardo/checkers-game/game/service"
)

// apiClient talks to the checkers REST API.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

func (c *apiClient) do(ctx context.Context, method, path, contentType string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return nil, &apiError{Status: resp.StatusCode, Message: msg}
	}
	return data, nil
}

func (c *apiClient) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return err
		}
	}
	data, err := c.do(ctx, method, path, "application/json", body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *apiClient) CreateSession(ctx context.Context, configID string) (*service.SessionInfo, error) {
	var info service.SessionInfo
	if err := c.doJSON(ctx, http.MethodPost, "/api/sessions", map[string]string{"config_id": configID}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *apiClient) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	var resp struct {
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *apiClient) State(ctx context.Context, sessionID string) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.doJSON(ctx, http.MethodGet, "/api/sessions/"+sessionID+"/state", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *apiClient) Activate(ctx context.Context, sessionID string, row, col int) (*service.MoveResult, error) {
	var resp service.MoveResult
	body := map[string]int{"row": row, "col": col}
	if err := c.doJSON(ctx, http.MethodPost, "/api/sessions/"+sessionID+"/activate", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	var resp struct {
		State *engine.GameState `json:"state"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/sessions/"+sessionID+"/reset", nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

// ExportSave downloads the session's save and checks that it decodes.
func (c *apiClient) ExportSave(ctx context.Context, sessionID string) (engine.Snapshot, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/sessions/"+sessionID+"/save", "", nil)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return savefile.Unmarshal(data)
}

func (c *apiClient) ImportSave(ctx context.Context, sessionID string, snap engine.Snapshot) (*engine.GameState, error) {
	data, err := c.do(ctx, http.MethodPut, "/api/sessions/"+sessionID+"/save", "text/plain", savefile.Marshal(snap))
	if err != nil {
		return nil, err
	}
	var resp struct {
		State *engine.GameState `json:"state"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (c *apiClient) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	var configs []*service.ConfigInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

func (c *apiClient) ListGames(ctx context.Context, limit int) ([]*service.GameRecord, error) {
	var resp struct {
		Games []*service.GameRecord `json:"games"`
	}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/games?limit=%d", limit), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Games, nil
}

func (c *apiClient) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", "", nil)
	return err
}
