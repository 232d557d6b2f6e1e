package internal

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/haatos/stageflow/internal/layout"
	"github.com/haatos/stageflow/internal/util"
)

var Config *Configuration

// Millis is a duration stored as whole milliseconds.
type Millis int64

func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

type Configuration struct {
	DwellMin           Millis  `toml:"dwell_min_ms"`
	DwellMax           Millis  `toml:"dwell_max_ms"`
	LayoutPoll         Millis  `toml:"layout_poll_ms"`
	LogInterval        Millis  `toml:"log_interval_ms"`
	CurveRadius        float64 `toml:"curve_radius"`
	BridgeWidth        float64 `toml:"bridge_width"`
	AlignTolerance     float64 `toml:"align_tolerance"`
	RunHistoryPageSize int64   `toml:"run_history_page_size"`
	RunRetentionDays   int64   `toml:"run_retention_days"`
}

func DefaultConfiguration() *Configuration {
	return &Configuration{
		DwellMin:           2000,
		DwellMax:           4000,
		LayoutPoll:         500,
		LogInterval:        600,
		CurveRadius:        layout.DefaultRadius,
		BridgeWidth:        layout.DefaultBridgeWidth,
		AlignTolerance:     layout.DefaultAlignTolerance,
		RunHistoryPageSize: 10,
		RunRetentionDays:   30,
	}
}

func (c *Configuration) LayoutOptions() layout.Options {
	return layout.Options{
		Radius:         c.CurveRadius,
		BridgeWidth:    c.BridgeWidth,
		AlignTolerance: c.AlignTolerance,
	}
}

// LoadConfiguration reads the TOML file at path, writing the defaults there
// first when it does not exist. Environment overrides win over the file.
func LoadConfiguration(path string) (*Configuration, error) {
	config := DefaultConfiguration()

	exists, err := util.PathExists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := writeConfiguration(path, config); err != nil {
			return nil, err
		}
	} else if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}

	applyEnvOverrides(config)
	return config, nil
}

func applyEnvOverrides(config *Configuration) {
	if v, ok := util.EnvInt64("STAGEFLOW_DWELL_MIN_MS"); ok {
		config.DwellMin = Millis(v)
	}
	if v, ok := util.EnvInt64("STAGEFLOW_DWELL_MAX_MS"); ok {
		config.DwellMax = Millis(v)
	}
}

func InitializeConfiguration(path string) {
	config, err := LoadConfiguration(path)
	if err != nil {
		log.Fatal(err)
	}
	Config = config
}

func UpdateConfiguration(path string, config *Configuration) error {
	if err := writeConfiguration(path, config); err != nil {
		return err
	}

	Config = config

	return nil
}

func writeConfiguration(path string, config *Configuration) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(config); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
