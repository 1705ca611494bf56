package config

import (
	"fmt"
	"os"

	"sleepreport/adapters/stats/deviation"
	"sleepreport/domain/sleep"

	"gopkg.in/yaml.v3"
)

// MetricsFile is the optional YAML override for the metric catalog and color scale:
//
//	metrics:
//	  - {name: sleepScore, polarity: higher_is_better, label: sleep score, unit: score}
//	encoder:
//	  sigma_cap: 2.5
//	palette:
//	  favorable: ["#a1a38c", ...]
//	  unfavorable: ["#a1a38c", ...]
//
// Omitted sections keep their defaults.
type MetricsFile struct {
	Metrics []sleep.MetricSpec       `yaml:"metrics"`
	Encoder *deviation.EncoderConfig `yaml:"encoder"`
	Palette *deviation.Palette       `yaml:"palette"`
}

// Scale bundles everything that decides what a card shows
type Scale struct {
	Catalog sleep.MetricCatalog
	Encoder deviation.EncoderConfig
	Palette deviation.Palette
}

// DefaultScale is the built-in catalog, encoder and palette
func DefaultScale() Scale {
	return Scale{
		Catalog: sleep.DefaultMetricCatalog(),
		Encoder: deviation.DefaultEncoderConfig(),
		Palette: deviation.DefaultPalette(),
	}
}

// LoadScale reads path, or returns the defaults when path is empty
func LoadScale(path string) (Scale, error) {
	if path == "" {
		return DefaultScale(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Scale{}, fmt.Errorf("failed to read metrics file: %w", err)
	}
	return ParseScale(data)
}

// ParseScale decodes a MetricsFile document over the defaults
func ParseScale(data []byte) (Scale, error) {
	var file MetricsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Scale{}, fmt.Errorf("invalid metrics file: %w", err)
	}

	scale := DefaultScale()
	if len(file.Metrics) > 0 {
		catalog, err := sleep.NewMetricCatalog(file.Metrics...)
		if err != nil {
			return Scale{}, err
		}
		scale.Catalog = catalog
	}
	if file.Palette != nil {
		if err := file.Palette.Validate(); err != nil {
			return Scale{}, err
		}
		scale.Palette = *file.Palette
	}
	if file.Encoder != nil {
		scale.Encoder = *file.Encoder
	}
	// the ramp length always follows the palette actually drawn
	scale.Encoder.RampLength = scale.Palette.Len()
	if err := scale.Encoder.Validate(); err != nil {
		return Scale{}, err
	}
	return scale, nil
}
