package cmd

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/mapgrid/internal/resolution"
	"github.com/MeKo-Tech/mapgrid/internal/style"
	"github.com/MeKo-Tech/mapgrid/internal/types"
)

func TestParseBBox(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.BoundingBox
		wantErr bool
	}{
		{
			name:  "valid bbox",
			input: "9.7,52.3,9.9,52.4",
			want:  types.NewBoundingBox(52.4, 52.3, 9.9, 9.7),
		},
		{
			name:  "valid bbox with spaces",
			input: "9.7, 52.3, 9.9, 52.4",
			want:  types.NewBoundingBox(52.4, 52.3, 9.9, 9.7),
		},
		{
			name:  "negative coordinates",
			input: "-122.5,37.7,-122.3,37.9",
			want:  types.NewBoundingBox(37.9, 37.7, -122.3, -122.5),
		},
		{
			name:  "antimeridian",
			input: "170,-10,-170,10",
			want:  types.NewBoundingBox(10, -10, -170, 170),
		},
		{
			name:    "too few values",
			input:   "9.7,52.3,9.9",
			wantErr: true,
		},
		{
			name:    "too many values",
			input:   "9.7,52.3,9.9,52.4,10.0",
			wantErr: true,
		},
		{
			name:    "invalid number",
			input:   "abc,52.3,9.9,52.4",
			wantErr: true,
		},
		{
			name:    "zero width",
			input:   "9.9,52.3,9.9,52.4",
			wantErr: true,
		},
		{
			name:    "south >= north",
			input:   "9.7,52.5,9.9,52.4",
			wantErr: true,
		},
		{
			name:    "out of range",
			input:   "9.7,52.3,190,52.4",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBBox(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseBBox(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("parseBBox(%q) unexpected error: %v", tt.input, err)
				return
			}
			if got != tt.want {
				t.Errorf("parseBBox(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateZoomRange(t *testing.T) {
	tests := []struct {
		min, max int
		wantErr  bool
	}{
		{0, 0, false},
		{8, 12, false},
		{12, 8, true},
		{-1, 4, true},
		{0, 23, true},
	}

	for _, tt := range tests {
		err := validateZoomRange(tt.min, tt.max)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateZoomRange(%d, %d) error = %v, wantErr %v", tt.min, tt.max, err, tt.wantErr)
		}
	}
}

func TestDescribePosition(t *testing.T) {
	out, err := describePosition(40.7128, -74.0060, 5)
	if err != nil {
		t.Fatalf("describePosition failed: %v", err)
	}

	for _, want := range []string{"Zone: 18T\n", "UTM:  18T ", "MGRS: 18TWL"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, out)
		}
	}

	if _, err := describePosition(89, 0, 5); err == nil {
		t.Errorf("Expected error for a polar position")
	}
	if _, err := describePosition(40, -74, 6); err == nil {
		t.Errorf("Expected error for 6 digits")
	}
}

func TestDescribeReference(t *testing.T) {
	out, err := describeReference("18TWL8395907350")
	if err != nil {
		t.Fatalf("describeReference failed: %v", err)
	}
	for _, want := range []string{"Zone: 18T\n", "UTM:  18T 583959 4507350\n", "Lat:  40.71", "Lon:  -74.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, out)
		}
	}

	if _, err := describeReference("31NAV"); err == nil {
		t.Errorf("Expected error for a square outside its band")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
	}

	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, slog.LevelInfo, "json")
	l.Debug("hidden")
	l.Info("shown", "tier", "1km")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "shown" || entry["tier"] != "1km" {
		t.Errorf("Unexpected entry: %v", entry)
	}
}

func TestGridCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.geojson")

	rootCmd.SetArgs([]string{
		"grid",
		"--bbox", "-1,-1,1,1",
		"--width", "1000",
		"--height", "1000",
		"--indent=false",
		"--output", path,
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("grid command failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !strings.Contains(string(data), `"text":"31N"`) {
		t.Errorf("Expected zone label 31N in output")
	}
}

func TestParseTierFlag(t *testing.T) {
	tests := []struct {
		in         string
		want       resolution.Tier
		wantForced bool
		wantErr    bool
	}{
		{"", resolution.TierNone, false, false},
		{"10km", resolution.Tier10km, true, false},
		{" 1M ", resolution.Tier1m, true, false},
		{"zone", resolution.TierZoneOnly, true, false},
		{"none", resolution.TierNone, false, true},
		{"5km", resolution.TierNone, false, true},
	}

	for _, tt := range tests {
		got, forced, err := parseTierFlag(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTierFlag(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want || forced != tt.wantForced {
			t.Errorf("parseTierFlag(%q) = %v, %v, want %v, %v", tt.in, got, forced, tt.want, tt.wantForced)
		}
	}
}

func TestGridCommandForcedTier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.geojson")

	rootCmd.SetArgs([]string{
		"grid",
		"--bbox", "-1,-1,1,1",
		"--width", "1000",
		"--height", "1000",
		"--tier", "10km",
		"--indent=false",
		"--output", path,
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("grid command failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !strings.Contains(string(data), `"style":"`+string(style.MinorMeridian)+`"`) {
		t.Errorf("Expected 10 km minor meridians in output")
	}
}
