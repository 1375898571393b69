package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/platform/tui"
	"github.com/vovakirdan/tui-2048/internal/storage"
	"github.com/vovakirdan/tui-2048/internal/transport/websocket"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagWSAddr      string
	flagIdleTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the 2048 SSH server",
	Long: `Start an SSH server that lets users connect and play 2048.
With --ws, browsers can also play over WebSocket at /ws.

Each connection plays its own game. Results are stored per-server
(all users share the same leaderboard), recorded under the SSH user
name or the ?player= query parameter.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.t2048/host_key

Examples:
  t2048 serve                           # Listen on :23234 with auto-generated key
  t2048 serve --ssh :2222               # Listen on port 2222
  t2048 serve --ws :8080                # Also serve ws://localhost:8080/ws
  t2048 serve --db ./results.db         # Use specific database

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port, overrides config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().StringVar(&flagWSAddr, "ws", "", "WebSocket server address (host:port, overrides config)")
	serveCmd.Flags().DurationVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout before disconnecting (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) {
	if err := serve(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(&cfg)

	logger, closeLog, err := newLogger(cfg, "t2048-server", os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	if flagSeed != 0 {
		logger.Warn("--seed is set; every session will deal the same games", "seed", flagSeed)
	}

	var results tui.ResultStore
	var saver websocket.ResultSaver
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		logger.Warn("could not open results database", "error", err)
		// Continue without storage
	} else {
		defer store.Close()
		results = store
		saver = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sshServer, err := tui.NewSSHServer(tui.SSHServerConfig{
		Address:       cfg.Server.SSHAddress,
		HostKeyPath:   cfg.Server.HostKeyPath,
		IdleTimeout:   cfg.Server.IdleTimeout,
		EngineOptions: engineOptions(cfg),
	}, results, logger.WithPrefix("ssh"))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sshServer.Serve(ctx)
	})

	if cfg.Server.WSAddress != "" {
		wsLogger := logger.WithPrefix("ws")
		mux := http.NewServeMux()
		mux.Handle("/ws", websocket.NewHandler(saver, wsLogger, engineOptions(cfg)...))

		httpServer := &http.Server{
			Addr:              cfg.Server.WSAddress,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			return serveHTTP(ctx, httpServer, wsLogger)
		})
	}

	logger.Info("2048 server ready", "ssh", cfg.Server.SSHAddress, "ws", cfg.Server.WSAddress)
	fmt.Printf("Connect with: ssh localhost -p %s\n", portOf(cfg.Server.SSHAddress))
	fmt.Println("Press Ctrl+C to stop")

	return g.Wait()
}

// applyServeFlags overrides server settings given on the command line.
func applyServeFlags(cfg *config.Config) {
	if flagSSHAddr != "" {
		cfg.Server.SSHAddress = flagSSHAddr
	}
	if flagHostKey != "" {
		cfg.Server.HostKeyPath = flagHostKey
	}
	if flagWSAddr != "" {
		cfg.Server.WSAddress = flagWSAddr
	}
	if flagIdleTimeout > 0 {
		cfg.Server.IdleTimeout = flagIdleTimeout
	}
}

// serveHTTP runs srv until ctx is cancelled, then shuts it down.
func serveHTTP(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting WebSocket server", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("websocket server: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down WebSocket server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// portOf returns the port part of a listen address.
func portOf(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return addr
}
