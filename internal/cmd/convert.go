package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/mapgrid/internal/mgrs"
	"github.com/MeKo-Tech/mapgrid/internal/utm"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a latitude/longitude to UTM and MGRS",
	Long: `Print the grid zone, UTM coordinate and MGRS reference of a position.
With --mgrs, decode a reference back to UTM and latitude/longitude instead.`,
	Example: `  mapgrid convert --lat 40.7128 --lon -74.0060
  mapgrid convert --lat 60.39 --lon 5.32 --digits 3
  mapgrid convert --mgrs 18TWL8395907350`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().Float64("lat", 0, "Latitude in degrees")
	convertCmd.Flags().Float64("lon", 0, "Longitude in degrees")
	convertCmd.Flags().Int("digits", 5, "MGRS digits per axis (0-5)")
	convertCmd.Flags().String("mgrs", "", "MGRS reference to decode")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"convert.lat", "lat"},
		{"convert.lon", "lon"},
		{"convert.digits", "digits"},
		{"convert.mgrs", "mgrs"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, convertCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	var out string
	var err error
	if ref := viper.GetString("convert.mgrs"); ref != "" {
		out, err = describeReference(ref)
	} else {
		out, err = describePosition(viper.GetFloat64("convert.lat"), viper.GetFloat64("convert.lon"), viper.GetInt("convert.digits"))
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

// describePosition formats the zone, UTM and MGRS lines for a position.
func describePosition(lat, lon float64, digits int) (string, error) {
	c, err := utm.FromLatLon(lat, lon)
	if err != nil {
		return "", fmt.Errorf("cannot convert %.6f,%.6f: %w", lat, lon, err)
	}
	ref, err := mgrs.Format(lat, lon, digits)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Zone: %d%c\nUTM:  %s\nMGRS: %s\n", c.Zone, c.Letter, c, ref), nil
}

// describeReference formats the UTM coordinate and position of the south-west
// corner of an MGRS square.
func describeReference(ref string) (string, error) {
	c, err := mgrs.Parse(ref)
	if err != nil {
		return "", err
	}
	p := c.LatLon()
	return fmt.Sprintf("Zone: %d%c\nUTM:  %s\nLat:  %.6f\nLon:  %.6f\n", c.Zone, c.Letter, c, p.Lat, p.Lon), nil
}
