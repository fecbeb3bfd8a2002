package taskdeck

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck/internal/server"
)

const defaultListenAddr = "127.0.0.1:8080"

var runServeFunc = runServe

func addrFromServerURL(serverURL string) string {
	raw := strings.TrimSpace(serverURL)
	if raw == "" {
		return defaultListenAddr
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return defaultListenAddr
	}

	host := u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr == nil {
		return host
	}

	switch u.Scheme {
	case "https":
		return net.JoinHostPort(host, "443")
	case "http":
		return net.JoinHostPort(host, "80")
	default:
		return defaultListenAddr
	}
}

func newServeCommand(cfg *Config) *cobra.Command {
	addr := addrFromServerURL(cfg.ServerURL)
	sqlitePath := cfg.SQLitePath

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Taskdeck backend API server.",
		Long:  "Runs the backend API server with sqlite storage.",
		Example: strings.TrimSpace(`taskdeck serve
taskdeck serve --addr 127.0.0.1:8090
taskdeck --server-url http://127.0.0.1:9010 serve
taskdeck serve --sqlite-path /tmp/taskdeck/taskdeck.db`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			serveAddr := strings.TrimSpace(addr)
			serveSQLite := strings.TrimSpace(sqlitePath)

			if !cmd.Flags().Changed("addr") {
				serveAddr = addrFromServerURL(cfg.ServerURL)
			}
			if !cmd.Flags().Changed("sqlite-path") {
				serveSQLite = strings.TrimSpace(cfg.SQLitePath)
			}

			if serveAddr == "" {
				return errors.New("--addr cannot be empty")
			}
			if serveSQLite == "" {
				return errors.New("--sqlite-path cannot be empty")
			}

			return runServeFunc(serveAddr, serveSQLite)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", addr, "server listen address")
	cmd.Flags().StringVar(&sqlitePath, "sqlite-path", sqlitePath, "sqlite database path")
	return cmd
}

func runServe(addr, sqlitePath string) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	return runServeWithSignals(addr, sqlitePath, sigCh)
}

func runServeWithSignals(addr, sqlitePath string, sigCh <-chan os.Signal) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o755); err != nil {
		return fmt.Errorf("create sqlite parent dir failed: %w", err)
	}

	app, err := server.New(server.Options{SQLitePath: sqlitePath, Logger: logger})
	if err != nil {
		return fmt.Errorf("init server failed: %w", err)
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			logger.Error("close server failed", "error", closeErr)
		}
	}()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("starting taskdeck backend", "addr", addr, "sqlite_path", sqlitePath)

	serverErrCh := make(chan error, 1)
	go func() {
		if listenErr := httpServer.ListenAndServe(); listenErr != nil && listenErr != http.ErrServerClosed {
			serverErrCh <- listenErr
			return
		}
		serverErrCh <- nil
	}()

	select {
	case listenErr := <-serverErrCh:
		if listenErr != nil {
			return fmt.Errorf("listen failed: %w", listenErr)
		}
		return nil
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	if err := httpServer.Close(); err != nil {
		return fmt.Errorf("http server close failed: %w", err)
	}
	if listenErr := <-serverErrCh; listenErr != nil {
		return fmt.Errorf("listen failed after shutdown: %w", listenErr)
	}
	logger.Info("server stopped")
	return nil
}
