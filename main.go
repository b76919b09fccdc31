package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"multichat/api"
	"multichat/chat"
	"multichat/config"
	"multichat/preset"
	"multichat/store"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "multichat",
		Short:         "Multi-model chat server with quick presets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "TOML config file")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage the stored quick presets",
	}
	presetsCmd.AddCommand(exportCmd(), importCmd())
	rootCmd.AddCommand(serveCmd(), presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// app is everything a command needs, built from the loaded config.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	store   store.Store
	presets *preset.Manager
	closers []io.Closer
}

func setup() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger}
	if a.store, err = a.openStore(); err != nil {
		a.Close()
		return nil, err
	}

	catalog := cfg.Catalog()
	a.presets = preset.NewManager(preset.ManagerConfig{
		Persistence: preset.NewPersistence(preset.PersistenceConfig{
			Store:      a.store,
			PresetsKey: cfg.Store.PresetsKey,
			UsageKey:   cfg.Store.UsageKey,
			Catalog:    catalog,
			Logger:     logger,
		}),
		Catalog:   catalog,
		Templates: preset.NewTemplates(preset.DefaultTemplates()),
		Logger:    logger,
	})
	return a, nil
}

func (a *app) openStore() (store.Store, error) {
	sc := a.cfg.Store
	var (
		sqlite *store.SQLite
		err    error
	)
	if sc.Backend == config.BackendSQLite || sc.MirrorSQLite {
		if sqlite, err = store.OpenSQLite(sc.SQLitePath); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sqlite)
	}

	switch sc.Backend {
	case config.BackendMemory:
		return store.NewMemory(), nil
	case config.BackendSQLite:
		return sqlite, nil
	}

	file, err := store.NewFile(sc.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load presets: %w", err)
	}
	if sqlite != nil {
		return store.NewMirror(file, sqlite), nil
	}
	return file, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("close failed", slog.Any("error", err))
		}
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			chats := chat.NewManager(chat.Config{
				Store:     a.store,
				Key:       a.cfg.Store.ConversationsKey,
				Responder: chat.NewSimulator(a.cfg.Chat.TokensPerSecond, a.cfg.Chat.Burst),
				Logger:    a.logger,
			})
			router := api.RegisterRoutes(a.presets, chats, staticFiles, a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, router)
		},
	}
}

func (a *app) serve(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:    net.JoinHostPort("", a.cfg.Port),
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("graceful shutdown failed", slog.Any("error", err))
		}
	}()

	a.logger.Info("multichat listening", slog.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the preset export document",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.presets.Export()
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), doc)
				return err
			}
			return os.WriteFile(out, []byte(doc+"\n"), 0644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Append the presets of an export document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			imported, err := a.presets.Import(string(data))
			if err != nil {
				return err
			}
			if err := a.presets.Commit(); err != nil {
				return fmt.Errorf("save imported presets: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d presets\n", len(imported))
			return nil
		},
	}
}
