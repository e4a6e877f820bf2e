// Package config defines the pipeline configuration and how it is read.
package config

import (
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/nasalsym/dorsum"
	"go.viam.com/nasalsym/facemesh"
	"go.viam.com/nasalsym/logging"
	"go.viam.com/nasalsym/pointcloud"
	"go.viam.com/nasalsym/snapshot"
)

// DefaultOutputDir is where snapshot sets are written unless configured otherwise.
const DefaultOutputDir = "plots"

// Config describes a full pipeline run.
type Config struct {
	Region       facemesh.RegionConfig `json:"region"`
	Registration pointcloud.ICPParams  `json:"registration"`
	Ridge        dorsum.RidgeParams    `json:"ridge"`
	Curve        CurveConfig           `json:"curve"`
	Render       snapshot.Config       `json:"render"`
	OutputDir    string                `json:"output_dir"`
	LogLevel     string                `json:"log_level,omitempty"`

	ConfigFilePath string `json:"-"`
}

// CurveConfig controls how densely the dorsum curve is sampled for drawing.
type CurveConfig struct {
	SamplesPerSpan int `json:"samples_per_span"`
}

// Validate ensures all parts of the config are valid.
func (c *CurveConfig) Validate(path string) error {
	if c.SamplesPerSpan < 1 {
		return utils.NewConfigValidationError(path, errors.Errorf("samples_per_span must be positive, got %d", c.SamplesPerSpan))
	}
	return nil
}

// Default returns the configuration the pipeline was tuned with.
func Default() *Config {
	return &Config{
		Region:       facemesh.DefaultRegionConfig(),
		Registration: pointcloud.DefaultICPParams(),
		Ridge:        dorsum.DefaultRidgeParams(),
		Curve:        CurveConfig{SamplesPerSpan: 8},
		Render:       snapshot.DefaultConfig(),
		OutputDir:    DefaultOutputDir,
	}
}

// Ensure ensures all parts of the config are valid.
func (c *Config) Ensure() error {
	if err := c.Region.Validate("region"); err != nil {
		return err
	}
	if err := c.Registration.Validate("registration"); err != nil {
		return err
	}
	if err := c.Ridge.Validate("ridge"); err != nil {
		return err
	}
	if err := c.Curve.Validate("curve"); err != nil {
		return err
	}
	if err := c.Render.Validate("render"); err != nil {
		return err
	}
	if c.OutputDir == "" {
		return utils.NewConfigValidationFieldRequiredError("", "output_dir")
	}
	if c.LogLevel != "" {
		if _, err := logging.LevelFromString(c.LogLevel); err != nil {
			return utils.NewConfigValidationError("log_level", err)
		}
	}
	return nil
}
