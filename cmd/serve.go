package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dance-rollcall/handlers"
	"dance-rollcall/web"
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and serve the web client",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().String("mode", "", "development or production")
	cmd.Flags().Bool("seed", false, "fill an empty spreadsheet with sample data")
	_ = v.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("mode", cmd.Flags().Lookup("mode"))
	_ = v.BindPFlag("seed_on_start", cmd.Flags().Lookup("seed"))
	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, cfg, closeAll, err := openService(ctx, v)
	if err != nil {
		return err
	}
	defer closeAll()

	if err := svc.EnsureTables(ctx); err != nil {
		// reads still work against whatever sheets exist
		log.Printf("Warning: could not prepare spreadsheet tables: %v", err)
	}
	if cfg.SeedOnStart {
		if err := svc.SeedIfEmpty(ctx); err != nil {
			log.Printf("Warning: seeding failed: %v", err)
		}
	}

	if !cfg.Dev() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	metrics := handlers.NewMetrics()
	router.Use(metrics.Middleware())
	router.GET("/metrics", metrics.Handler())

	handlers.NewAPIHandler(svc).RegisterRoutes(router)
	web.Mount(router, web.Options{
		Dev:        cfg.Dev(),
		StaticDir:  cfg.StaticDir,
		ClientDir:  cfg.ClientDir,
		BundlerURL: cfg.BundlerURL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s (%s mode)", cfg.Addr, cfg.Mode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
