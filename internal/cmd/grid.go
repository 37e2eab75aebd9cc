package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/mapgrid/internal/geojson"
	"github.com/MeKo-Tech/mapgrid/internal/grid"
	"github.com/MeKo-Tech/mapgrid/internal/resolution"
	"github.com/MeKo-Tech/mapgrid/internal/types"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Compute the grid for one map view",
	Long: `Compute the UTM or MGRS grid for a bounding box seen through a viewport
of the given size and write it as GeoJSON.`,
	Example: `  mapgrid grid --bbox -74.5,40.5,-73.5,41 --width 1000 --height 600
  mapgrid grid --kind utm --bbox 170,-10,-170,10 --output pacific.geojson
  mapgrid grid --bbox 13.3,52.4,13.5,52.6 --tier 100m`,
	RunE: runGrid,
}

func init() {
	rootCmd.AddCommand(gridCmd)

	gridCmd.Flags().String("bbox", "", "Bounding box: west,south,east,north (west > east crosses the antimeridian)")
	gridCmd.Flags().String("kind", "mgrs", "Grid kind (mgrs, utm)")
	gridCmd.Flags().Int("width", 1024, "Viewport width in pixels")
	gridCmd.Flags().Int("height", 768, "Viewport height in pixels")
	gridCmd.Flags().Float64("heading", 0, "Camera heading in degrees clockwise from north")
	gridCmd.Flags().Float64("alt", 100000, "Camera altitude in meters")
	gridCmd.Flags().String("tier", "", "Force a resolution tier (1m, 10m, 100m, 1km, 10km, 100km, zone) instead of picking one from the view width")
	gridCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	gridCmd.Flags().Bool("indent", true, "Indent the GeoJSON output")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"grid.bbox", "bbox"},
		{"grid.kind", "kind"},
		{"grid.width", "width"},
		{"grid.height", "height"},
		{"grid.heading", "heading"},
		{"grid.alt", "alt"},
		{"grid.tier", "tier"},
		{"grid.output", "output"},
		{"grid.indent", "indent"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, gridCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runGrid(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	bboxStr := viper.GetString("grid.bbox")
	if bboxStr == "" {
		return fmt.Errorf("--bbox is required")
	}
	bbox, err := parseBBox(bboxStr)
	if err != nil {
		return fmt.Errorf("invalid bbox: %w", err)
	}

	tier, forced, err := parseTierFlag(viper.GetString("grid.tier"))
	if err != nil {
		return err
	}

	pipeline, styles, err := newPipeline(viper.GetString("grid.kind"))
	if err != nil {
		return err
	}

	view := types.View{
		Bounds: bbox,
		Camera: types.CameraPose{
			Lat:     bbox.CenterLat(),
			Lon:     bbox.CenterLon(),
			Alt:     viper.GetFloat64("grid.alt"),
			Heading: viper.GetFloat64("grid.heading"),
		},
		Width:  viper.GetInt("grid.width"),
		Height: viper.GetInt("grid.height"),
	}

	var features []grid.Feature
	if forced {
		features, tier = pipeline.RenderTier(view, tier)
	} else {
		features, tier = pipeline.Render(view)
	}
	logger.Info("Grid computed",
		"bbox", bbox.String(),
		"kind", pipeline.Kind,
		"tier", tier.String(),
		"forced_tier", forced,
		"features", geojson.Summary(features),
	)

	data, err := geojson.Marshal(features, styles, viper.GetBool("grid.indent"))
	if err != nil {
		return err
	}

	output := viper.GetString("grid.output")
	if output == "" {
		_, err = cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	logger.Info("Grid written", "path", output)
	return nil
}

// parseBBox parses a bounding box string "west,south,east,north". A west edge
// greater than the east edge crosses the antimeridian.
func parseBBox(s string) (types.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return types.BoundingBox{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}

	var v [4]float64
	for i, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return types.BoundingBox{}, fmt.Errorf("invalid number at position %d: %w", i, err)
		}
		v[i] = val
	}

	bbox := types.NewBoundingBox(v[3], v[1], v[2], v[0])
	if v[0] == v[2] {
		return types.BoundingBox{}, fmt.Errorf("west (%.4f) must differ from east (%.4f)", v[0], v[2])
	}
	if v[1] >= v[3] {
		return types.BoundingBox{}, fmt.Errorf("south (%.4f) must be < north (%.4f)", v[1], v[3])
	}
	if !bbox.Valid() {
		return types.BoundingBox{}, fmt.Errorf("%s is outside ±90/±180", bbox)
	}
	return bbox, nil
}

// parseTierFlag converts the --tier value. An empty value lets the view width
// pick the tier.
func parseTierFlag(s string) (resolution.Tier, bool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return resolution.TierNone, false, nil
	}
	tier, ok := resolution.ParseTier(s)
	if !ok || tier == resolution.TierNone {
		return resolution.TierNone, false, fmt.Errorf("unknown tier %q (want 1m, 10m, 100m, 1km, 10km, 100km or zone)", s)
	}
	return tier, true, nil
}
