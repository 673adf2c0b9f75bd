// Command checkers starts the checkers game server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket updates and an /mcp endpoint
//  2. "stdio-mcp" runs an MCP stdio server backed by an existing API or an internal one
//
// Flags control host/port, layout and session directories, the optional
// SQLite archive of finished games, debug logging and ngrok tunneling. Every
// flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/checkers-game/api"
	"github.com/wricardo/checkers-game/game/config"
	"github.com/wricardo/checkers-game/game/service"
	"github.com/wricardo/checkers-game/game/session"
	"github.com/wricardo/checkers-game/storage"
	"github.com/wricardo/checkers-game/transport/mcp"
	"github.com/wricardo/checkers-game/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Checkers Server"
)

const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = time.Hour
	syncInterval    = 5 * time.Second

	maxMCPRequestSize = 1 << 20
)

// serverOptions holds the resolved command line configuration
type serverOptions struct {
	Host        string
	Port        int
	ConfigDir   string
	DefaultCfg  string
	SessionsDir string
	DBPath      string
	Debug       bool
	Ngrok       bool
	NgrokAuth   string
	NgrokDomain string
	APIURL      string
}

func (o serverOptions) addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

func optionsFromCommand(cmd *cli.Command) serverOptions {
	return serverOptions{
		Host:        cmd.String("host"),
		Port:        cmd.Int("port"),
		ConfigDir:   cmd.String("config-dir"),
		DefaultCfg:  cmd.String("default-config"),
		SessionsDir: cmd.String("sessions-dir"),
		DBPath:      cmd.String("db"),
		Debug:       cmd.Bool("debug"),
		Ngrok:       cmd.Bool("ngrok"),
		NgrokAuth:   cmd.String("ngrok-auth"),
		NgrokDomain: cmd.String("ngrok-domain"),
		APIURL:      cmd.String("api-url"),
	}
}

// newCommand builds the CLI. Flags are shared by every mode.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "checkers",
		Usage:   "Checkers game server with REST, WebSocket and MCP interfaces",
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing starting layouts", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "default-config", Usage: "Layout used when a session names none (classic when empty)", Sources: cli.EnvVars("DEFAULT_CONFIG")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for persisted sessions", Sources: cli.EnvVars("SESSIONS_DIR")},
			&cli.StringFlag{Name: "db", Usage: "SQLite file for the finished games archive (disabled when empty)", Sources: cli.EnvVars("CHECKERS_DB")},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging", Sources: cli.EnvVars("DEBUG")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
			&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "External API probed by stdio-mcp before starting an internal one", Sources: cli.EnvVars("CHECKERS_API_URL")},
		},
		Action: runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServerCommand,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server",
				Action:  runStdioCommand,
			},
		},
	}
}

// loadEnvFile loads a .env file, if present, before the flags are parsed so
// their env sources see it.
func loadEnvFile(w io.Writer, filenames ...string) {
	if err := godotenv.Load(filenames...); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(w, "Warning: error loading .env file: %v\n", err)
	}
}

func main() {
	loadEnvFile(os.Stderr)

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger. Output goes to stderr so stdio-mcp
// keeps stdout for the protocol.
func newLogger(debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Sugar(), nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFromCommand(cmd)
	logger, err := newLogger(opts.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext(ctx)
	defer stop()

	logger.Infow("starting", "app", AppName, "version", Version, "mode", "server")

	svc, err := initializeServices(ctx, opts, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.Close()

	return runHTTPServer(ctx, opts, svc, logger)
}

func runStdioCommand(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFromCommand(cmd)
	logger, err := newLogger(opts.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext(ctx)
	defer stop()

	logger.Infow("starting", "app", AppName, "version", Version, "mode", "stdio-mcp")

	svc, err := initializeServices(ctx, opts, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.Close()

	return runStdioMCPWithInternalServer(ctx, opts, svc.Game, logger)
}

// services bundles everything initializeServices starts
type services struct {
	Game     service.GameService
	Sessions *session.Manager
	Store    *storage.Store
	logger   *zap.SugaredLogger
}

// Close flushes sessions and the archive
func (s *services) Close() {
	if err := s.Sessions.SaveAllSessions(); err != nil {
		s.logger.Warnw("failed to save sessions on shutdown", "error", err)
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			s.logger.Warnw("failed to close game archive", "error", err)
		}
	}
}

// initializeServices wires config and session managers, the optional archive
// and the game service. Background routines stop when ctx is cancelled.
func initializeServices(ctx context.Context, opts serverOptions, logger *zap.SugaredLogger) (*services, error) {
	configManager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	if opts.DefaultCfg != "" {
		if err := configManager.SetDefault(opts.DefaultCfg); err != nil {
			return nil, fmt.Errorf("failed to set default layout: %w", err)
		}
		logger.Infow("default layout set", "config", opts.DefaultCfg)
	}

	store, err := session.NewFileStore(opts.SessionsDir, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	sessionManager := session.NewManager(session.WithStore(store), session.WithLogger(logger))
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		logger.Warnw("failed to load persisted sessions", "error", err)
	}

	svcOpts := []service.Option{service.WithLogger(logger)}

	var archive *storage.Store
	if opts.DBPath != "" {
		archive, err = storage.NewStore(opts.DBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open game archive: %w", err)
		}
		svcOpts = append(svcOpts, service.WithRecorder(archive))
		logger.Infow("game archive enabled", "path", opts.DBPath)
	}

	gameService := service.NewGameService(sessionManager, configManager, svcOpts...)

	go sessionCleanupRoutine(ctx, sessionManager, logger)
	go filesystemSyncRoutine(ctx, sessionManager, configManager, logger)

	return &services{
		Game:     gameService,
		Sessions: sessionManager,
		Store:    archive,
		logger:   logger,
	}, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within sessionMaxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, logger *zap.SugaredLogger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				logger.Infow("cleaned up expired sessions", "count", removed)
			}
		}
	}
}

// filesystemSyncRoutine keeps in-memory sessions in step with the session
// directory, so deleting a file ends its session, and drops cached layouts
// so edited layout files take effect for new sessions.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, configs *config.Manager, logger *zap.SugaredLogger) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := manager.Sync(); err != nil {
				logger.Warnw("filesystem sync failed", "error", err)
			}
			configs.RefreshCache()
		}
	}
}

// mcpHandler serves MCP JSON-RPC messages over plain HTTP POST
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMCPRequestSize))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// newRouter mounts the REST API and the /mcp endpoint. /health reports the
// archive when one is open.
func newRouter(svc *services, hub *websocket.Hub, baseURL string, logger *zap.SugaredLogger) http.Handler {
	apiServer := api.NewServer(svc.Game, hub, logger)
	if svc.Store != nil {
		apiServer.AddHealthCheck("archive", svc.Store.IsHealthy)
	}

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcp.NewClient(baseURL)))
	return mainRouter
}

// runHTTPServer serves until ctx is cancelled. If ngrok is enabled it also
// serves the same router through a public tunnel.
func runHTTPServer(ctx context.Context, opts serverOptions, svc *services, logger *zap.SugaredLogger) error {
	hub := websocket.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	addr := opts.addr()
	router := newRouter(svc, hub, "http://"+addr, logger)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Infow("HTTP server listening",
			"addr", addr,
			"api", "http://"+addr+"/api",
			"websocket", "ws://"+addr+"/ws?session=<session_id>",
			"mcp", "http://"+addr+"/mcp",
		)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if opts.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, opts, router, logger)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("HTTP server shutdown error", "error", err)
	}

	wg.Wait()
	logger.Info("server stopped")
	return runErr
}

// runNgrokTunnel serves handler through ngrok until ctx is cancelled
func runNgrokTunnel(ctx context.Context, opts serverOptions, handler http.Handler, logger *zap.SugaredLogger) {
	if opts.NgrokAuth == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		logger.Infow("using custom ngrok domain", "domain", opts.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		logger.Errorw("failed to start ngrok tunnel", "error", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warnw("failed to close ngrok tunnel", "error", err)
		}
	}()

	ngrokURL := tun.URL()
	logger.Infow("ngrok tunnel established",
		"url", ngrokURL,
		"api", ngrokURL+"/api",
		"websocket", ngrokURL+"/ws?session=<session_id>",
		"mcp", ngrokURL+"/mcp",
	)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Warnw("ngrok server error", "error", err)
	}
	logger.Info("ngrok tunnel closed")
}

// probeAPI reports whether a checkers API answers at baseURL
func probeAPI(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalServer serves the API on a random loopback port and returns its base URL
func startInternalServer(gameService service.GameService, logger *zap.SugaredLogger) (*http.Server, string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, "", fmt.Errorf("failed to get available port: %w", err)
	}
	baseURL := "http://" + listener.Addr().String()

	httpServer := &http.Server{
		Handler: api.NewServer(gameService, nil, logger),
	}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("internal HTTP server error", "error", err)
		}
	}()

	return httpServer, baseURL, nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses the API
// at opts.APIURL when one answers; otherwise it starts an internal API on a
// loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, opts serverOptions, gameService service.GameService, logger *zap.SugaredLogger) error {
	baseURL := opts.APIURL
	if probeAPI(ctx, baseURL) {
		logger.Infow("using external API server for MCP", "url", baseURL)
	} else {
		httpServer, internalURL, err := startInternalServer(gameService, logger)
		if err != nil {
			return err
		}
		defer httpServer.Close()
		baseURL = internalURL
		logger.Infow("started internal API server for MCP", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
