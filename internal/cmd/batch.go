package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/mapgrid/internal/export"
	"github.com/MeKo-Tech/mapgrid/internal/tile"
	"github.com/MeKo-Tech/mapgrid/internal/worker"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Export the grid of web map tiles",
	Long: `Export the grid of every web map tile covering a bounding box across a
zoom range as one GeoJSON file per tile.`,
	Example: `  mapgrid batch --bbox 9.7,52.3,9.9,52.4 --zoom-min 8 --zoom-max 12 --workers 4`,
	RunE:    runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("bbox", "", "Bounding box: west,south,east,north")
	batchCmd.Flags().String("kind", "mgrs", "Grid kind (mgrs, utm)")
	batchCmd.Flags().Int("zoom-min", 0, "Minimum zoom level")
	batchCmd.Flags().Int("zoom-max", 0, "Maximum zoom level")
	batchCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	batchCmd.Flags().Bool("progress", true, "Show progress bar")
	batchCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some tiles fail")
	batchCmd.Flags().Bool("force", false, "Overwrite tiles that already exist")
	batchCmd.Flags().Int("tile-size", export.DefaultTileSize, "Viewport size in pixels each tile is computed for")
	batchCmd.Flags().String("output-dir", "./grid", "Output directory for tile files")
	batchCmd.Flags().String("folder-structure", export.LayoutFlat, "Folder structure: flat (z{z}_x{x}_y{y}.geojson) or nested ({z}/{x}/{y}.geojson)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"batch.bbox", "bbox"},
		{"batch.kind", "kind"},
		{"batch.zoom_min", "zoom-min"},
		{"batch.zoom_max", "zoom-max"},
		{"batch.workers", "workers"},
		{"batch.progress", "progress"},
		{"batch.allow_failures", "allow-failures"},
		{"batch.force", "force"},
		{"batch.tile_size", "tile-size"},
		{"batch.output_dir", "output-dir"},
		{"batch.folder_structure", "folder-structure"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, batchCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	bboxStr := viper.GetString("batch.bbox")
	zoomMin := viper.GetInt("batch.zoom_min")
	zoomMax := viper.GetInt("batch.zoom_max")
	workers := viper.GetInt("batch.workers")
	outputDir := viper.GetString("batch.output_dir")

	if bboxStr == "" {
		return fmt.Errorf("--bbox is required")
	}
	bbox, err := parseBBox(bboxStr)
	if err != nil {
		return fmt.Errorf("invalid bbox: %w", err)
	}
	if err := validateZoomRange(zoomMin, zoomMax); err != nil {
		return err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pipeline, styles, err := newPipeline(viper.GetString("batch.kind"))
	if err != nil {
		return err
	}

	exporter, err := export.New(export.Config{
		Renderer:  pipeline,
		Styles:    styles,
		Logger:    logger,
		OutputDir: outputDir,
		Layout:    viper.GetString("batch.folder_structure"),
		TileSize:  viper.GetInt("batch.tile_size"),
	})
	if err != nil {
		return fmt.Errorf("failed to init exporter: %w", err)
	}

	tiles := tile.TilesInBBox(bbox, zoomMin, zoomMax)

	logger.Info("Starting batch grid export",
		"bbox", bbox.String(),
		"kind", pipeline.Kind,
		"zoom_range", fmt.Sprintf("%d-%d", zoomMin, zoomMax),
		"tiles", len(tiles),
		"workers", workers,
		"output_dir", outputDir,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	tasks := worker.Tasks(tiles, viper.GetBool("batch.force"))
	progress := worker.NewProgress(len(tasks), viper.GetBool("batch.progress"), cmd.ErrOrStderr())

	pool := worker.New(worker.Config{
		Workers:    workers,
		Exporter:   exporter,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Tile export failed", "coords", r.Task.Coords.String(), "error", r.Err)
		}
	}

	logger.Info(progress.Summary(results))

	if failedCount > 0 {
		if viper.GetBool("batch.allow_failures") {
			logger.Warn("Some tiles failed to export, but continuing due to --allow-failures flag", "failed_count", failedCount)
			return nil
		}
		return fmt.Errorf("%d tiles failed to export", failedCount)
	}
	return nil
}

func validateZoomRange(zoomMin, zoomMax int) error {
	if zoomMin < 0 || zoomMax < 0 {
		return fmt.Errorf("zoom levels must be non-negative")
	}
	if zoomMax > tile.MaxZoom {
		return fmt.Errorf("--zoom-max (%d) must be <= %d", zoomMax, tile.MaxZoom)
	}
	if zoomMin > zoomMax {
		return fmt.Errorf("--zoom-min (%d) must be <= --zoom-max (%d)", zoomMin, zoomMax)
	}
	return nil
}
