package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/mapgrid/internal/grid"
	"github.com/MeKo-Tech/mapgrid/internal/style"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mapgrid",
	Short: "A UTM and MGRS grid overlay generator",
	Long: `MapGrid computes UTM and MGRS grid overlays for a map view.

It draws grid zone boundaries, 100 km squares and finer grid lines with
labels, picks the density from the visible width, and exports the result
as GeoJSON for single views, web map tiles or a live HTTP overlay.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("styles", "", "TOML file overriding the default grid styles")
	rootCmd.PersistentFlags().Float64("pixels-per-point", grid.DefaultPixelsPerPoint, "Screen pixels per label point")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"styles", "styles"},
		{"pixels_per_point", "pixels-per-point"},
		{"verbose", "verbose"},
		{"log.level", "log-level"},
		{"log.format", "log-format"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, rootCmd.PersistentFlags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func initConfig() {
	// A missing .env is fine.
	_ = godotenv.Load(".env")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("MAPGRID")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// loadStyles returns the default styles with the --styles overrides applied.
func loadStyles() (*style.Registry, error) {
	styles := style.Default()
	path := viper.GetString("styles")
	if path == "" {
		return styles, nil
	}

	styles, err := style.LoadFile(path, styles)
	if err != nil {
		return nil, fmt.Errorf("invalid styles %s: %w", path, err)
	}
	logger.Debug("Loaded style overrides", "path", path, "keys", len(styles.Keys()))
	return styles, nil
}

// newPipeline builds the grid pipeline for a kind from the global flags.
func newPipeline(kindName string) (*grid.Pipeline, *style.Registry, error) {
	kind, err := grid.ParseKind(kindName)
	if err != nil {
		return nil, nil, err
	}
	styles, err := loadStyles()
	if err != nil {
		return nil, nil, err
	}

	return grid.NewPipeline(kind, grid.Config{
		Styles:         styles,
		PixelsPerPoint: viper.GetFloat64("pixels_per_point"),
	}), styles, nil
}
