package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/mapgrid/internal/export"
	"github.com/MeKo-Tech/mapgrid/internal/metrics"
	"github.com/MeKo-Tech/mapgrid/internal/overlay"
	"github.com/MeKo-Tech/mapgrid/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve grid tiles and a live grid overlay over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("kind", "mgrs", "Grid kind (mgrs, utm)")
	serveCmd.Flags().String("tiles-dir", "", "Cache computed tiles in this directory (default: compute in memory)")
	serveCmd.Flags().Int("tile-size", export.DefaultTileSize, "Viewport size in pixels each tile is computed for")
	serveCmd.Flags().Int("max-concurrent", runtime.NumCPU(), "Max concurrent tile computations (default: number of CPUs)")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "Max wait for a tile computation slot")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served tiles")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.kind", "kind")
	mustBind("serve.tiles_dir", "tiles-dir")
	mustBind("serve.tile_size", "tile-size")
	mustBind("serve.max_concurrent", "max-concurrent")
	mustBind("serve.timeout", "timeout")
	mustBind("serve.cache_control", "cache-control")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	tilesDir := viper.GetString("serve.tiles_dir")

	pipeline, styles, err := newPipeline(viper.GetString("serve.kind"))
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exporter, err := export.New(export.Config{
		Renderer:  pipeline,
		Styles:    styles,
		Logger:    logger,
		OutputDir: tilesDir,
		TileSize:  viper.GetInt("serve.tile_size"),
	})
	if err != nil {
		return fmt.Errorf("failed to init exporter: %w", err)
	}
	tiles := server.NewGridTiles(exporter, server.TilesConfig{
		CacheControl:  viper.GetString("serve.cache_control"),
		MaxConcurrent: viper.GetInt("serve.max_concurrent"),
		Timeout:       viper.GetDuration("serve.timeout"),
		Cache:         tilesDir != "",
	}, logger)

	gen := overlay.New(overlay.Config{
		Renderer: pipeline,
		Logger:   logger,
		Metrics:  metrics.New(reg),
	})
	gen.Start()
	defer gen.Shutdown()

	mux := server.NewMux(server.Config{
		Tiles:    tiles,
		Overlay:  server.NewOverlay(gen, styles, logger),
		Gatherer: reg,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("grid server listening",
		"addr", addr,
		"kind", pipeline.Kind,
		"tiles_dir", tilesDir,
		"max_concurrent", viper.GetInt("serve.max_concurrent"),
	)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
