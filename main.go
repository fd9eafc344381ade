package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	"todo/internal/cli"
	"todo/internal/config"
	"todo/internal/handlers"
	"todo/internal/logger"
	"todo/internal/store"
	"todo/internal/tasks"
	"todo/web"
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

func execute(args []string) int {
	v := config.New()
	var configPath string

	root := &cobra.Command{
		Use:           "todo-api",
		Short:         "Todo API server CLI",
		Long:          "Provides the web interface for the todo application.",
		Version:       cli.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (yaml, toml or json)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	flags := serveCmd.Flags()
	flags.String("host", "", "host to bind to (default 127.0.0.1)")
	flags.Int("port", 0, "port to bind to (default 8000)")
	flags.String("db", "", "path to the SQLite database (default ./todo.db)")
	v.BindPFlag("server.host", flags.Lookup("host"))
	v.BindPFlag("server.port", flags.Lookup("port"))
	v.BindPFlag("database.path", flags.Lookup("db"))

	root.AddCommand(serveCmd)
	root.SetArgs(args)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, cfg *config.Config) error {
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	// Initialize store
	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Errorw("failed to close store", "error", err)
		}
	}()

	// Parse templates
	tmpl, err := web.ParseTemplates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	h := handlers.New(tasks.New(st), tmpl, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      h.Router(web.Static()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	log.Infow("server started",
		"addr", "http://"+ln.Addr().String(),
		"driver", cfg.Database.Driver,
	)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				log.Infow("graceful shutdown initiated")
				return srv.Shutdown(ctx)
			},
		},
	)

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case code := <-wait:
		log.Infow("server stopped", "exit_code", code)
		if code != 0 {
			return fmt.Errorf("shutdown finished with exit code %d", code)
		}
		return nil
	}
}
