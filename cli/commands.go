package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/nasalsym/config"
	"go.viam.com/nasalsym/dorsum"
	"go.viam.com/nasalsym/logging"
	"go.viam.com/nasalsym/pipeline"
)

// newLogger returns the command logger and a function flushing and releasing its outputs.
func newLogger(c *cli.Context) (logging.Logger, func()) {
	logger := logging.NewBlankLogger("nasalsym")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	logger.SetLevel(logging.WARN)
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	var file io.Closer
	if path := c.Path(flagLogFile); path != "" {
		var appender logging.Appender
		appender, file = logging.NewFileAppender(path)
		logger.AddAppender(appender)
	}
	return logger, func() {
		//nolint:errcheck
		logger.Sync()
		if file != nil {
			//nolint:errcheck
			file.Close()
		}
	}
}

func newFinder(c *cli.Context, logger logging.Logger) (*pipeline.Finder, error) {
	cfg := config.Default()
	if path := c.Path(flagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path, logger); err != nil {
			return nil, errors.Wrapf(err, "reading config %q", path)
		}
		if cfg.LogLevel != "" && !c.Bool(flagDebug) {
			level, err := logging.LevelFromString(cfg.LogLevel)
			if err != nil {
				return nil, err
			}
			logger.SetLevel(level)
		}
	}
	if dir := c.Path(flagOutputDir); dir != "" {
		cfg.OutputDir = dir
	}
	return pipeline.NewFinder(cfg, logger)
}

// RunAction runs the whole pipeline and writes the snapshot set.
func RunAction(c *cli.Context) error {
	logger, done := newLogger(c)
	defer done()
	f, err := newFinder(c, logger)
	if err != nil {
		return err
	}
	res, err := f.RunFiles(c.Context, c.Path(flagSubject), c.Path(flagReference))
	if err != nil {
		return err
	}
	printf(c.App.Writer, "wrote %d snapshots to %s", len(res.Images), f.Config().OutputDir)
	printf(c.App.Writer, "%s", res.Summary.String())
	return nil
}

type ridgeOutput struct {
	Ridge   dorsum.Ridge   `json:"ridge"`
	Summary dorsum.Summary `json:"summary"`
}

// RidgeAction prints the dorsum ridge without rendering anything.
func RidgeAction(c *cli.Context) error {
	logger, done := newLogger(c)
	defer done()
	f, err := newFinder(c, logger)
	if err != nil {
		return err
	}
	res, err := f.AnalyzeFiles(c.Context, c.Path(flagSubject), c.Path(flagReference))
	if err != nil {
		return err
	}
	if c.Bool(flagJSON) {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(ridgeOutput{Ridge: res.Ridge, Summary: res.Summary})
	}
	printf(c.App.Writer, "%s", res.Ridge.String())
	printf(c.App.Writer, "%s", res.Summary.String())
	return nil
}

// ProfileAction charts the dorsum profile to a file of the caller's choosing.
func ProfileAction(c *cli.Context) error {
	logger, done := newLogger(c)
	defer done()
	f, err := newFinder(c, logger)
	if err != nil {
		return err
	}
	res, err := f.AnalyzeFiles(c.Context, c.Path(flagSubject), c.Path(flagReference))
	if err != nil {
		return err
	}
	out := c.Path(flagOutput)
	if err := dorsum.SaveProfile(out, res.Ridge, res.Curve); err != nil {
		return err
	}
	printf(c.App.Writer, "wrote dorsum profile to %s", out)
	return nil
}

// SchemaAction prints the configuration schema.
func SchemaAction(c *cli.Context) error {
	out, err := config.SchemaJSON()
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", out)
	return nil
}

// printf prints a message with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
