package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/haivivi/voxcortex/pkg/collaborators/echo"
	vconfig "github.com/haivivi/voxcortex/pkg/config"
	"github.com/haivivi/voxcortex/pkg/orchestrator"
	"github.com/haivivi/voxcortex/pkg/wsconn"
)

var (
	flagAddr       string
	flagConfigFile string
	flagPath       string
	flagDebugPath  string
	flagDebug      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept WebSocket connections and run an orchestrator per session",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config file)")
	serveCmd.Flags().StringVar(&flagConfigFile, "config", "voxcortex.yaml", "path to a YAML config file")
	serveCmd.Flags().StringVar(&flagPath, "path", "/ws", "HTTP path to accept WebSocket upgrades on")
	serveCmd.Flags().StringVar(&flagDebugPath, "debug-path", "/debug/sessions", "HTTP path serving a JSON snapshot of active sessions")
	serveCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug-level logging")

	rootCmd.AddCommand(serveCmd)
}

func newLogger(output io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := tint.NewHandler(output, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05.000Z07:00",
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
	return slog.New(handler)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger(os.Stderr, flagDebug)
	slog.SetDefault(logger)

	res, err := vconfig.Load(flagConfigFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	addr := res.ListenAddr
	if flagAddr != "" {
		addr = flagAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	sessions := newSessionRegistry()

	ln, err := wsconn.Listen(wsconn.ListenConfig{
		Addr:         addr,
		Path:         flagPath,
		RateLimit:    wsconn.DefaultConnRateLimitConfig(),
		DebugPath:    flagDebugPath,
		DebugHandler: sessions,
	})
	if err != nil {
		return fmt.Errorf("starting listener: %w", err)
	}
	defer ln.Close()

	logger.Info("listening", "addr", ln.Addr(), "path", flagPath, "debug_path", flagDebugPath)

	sessionNum := 0
	for {
		accepted, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error("accept error", "error", err)
			continue
		}

		sessionNum++
		sessionID := fmt.Sprintf("sess-%d", sessionNum)
		sessionLogger := logger.With("session", sessionID, "remote_addr", accepted.RemoteAddr)

		go func() {
			sessionLogger.Info("session connected")
			defer sessionLogger.Info("session closed")

			orch := orchestrator.New(
				sessionID,
				res.Orchestrator,
				orchestrator.NewLogger(sessionLogger, sessionID+": "),
				accepted.Conn,
				&echo.STT{},
				&echo.LLM{},
				echo.TTS{},
			)
			sessions.add(sessionID, orch)
			defer sessions.remove(sessionID)

			wsconn.Serve(ctx, orch, accepted.Conn)
		}()
	}

	logger.Info("server stopped")
	return nil
}
