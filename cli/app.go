// Package cli contains all business logic needed by the nasalsym command.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	flagConfig    = "config"
	flagDebug     = "debug"
	flagLogFile   = "log-file"
	flagSubject   = "subject"
	flagReference = "reference"
	flagOutputDir = "output-dir"
	flagOutput    = "output"
	flagJSON      = "json"
)

var scanFlags = []cli.Flag{
	&cli.PathFlag{
		Name:     flagSubject,
		Aliases:  []string{"s"},
		Required: true,
		Usage:    "subject face scan `FILE` (STL)",
	},
	&cli.PathFlag{
		Name:     flagReference,
		Aliases:  []string{"r"},
		Required: true,
		Usage:    "reference average head `FILE` (STL)",
	},
}

var app = &cli.App{
	Name:            "nasalsym",
	Usage:           "inspect the symmetry of a nasal dorsum",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.PathFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE`",
		},
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.PathFlag{
			Name:  flagLogFile,
			Usage: "also write logs to `FILE`, rotated by size",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "run",
			Usage:     "register a subject's nose, extract its dorsum and write the snapshot set",
			UsageText: "nasalsym run --subject <scan.stl> --reference <average.stl> [--output-dir plots]",
			Flags: append([]cli.Flag{
				&cli.PathFlag{
					Name:  flagOutputDir,
					Usage: "write snapshots into `DIR` instead of the configured output directory",
				},
			}, scanFlags...),
			Action: RunAction,
		},
		{
			Name:      "ridge",
			Usage:     "print the dorsum ridge points and their symmetry summary",
			UsageText: "nasalsym ridge --subject <scan.stl> --reference <average.stl> [--json]",
			Flags: append([]cli.Flag{
				&cli.BoolFlag{
					Name:  flagJSON,
					Usage: "print the ridge and summary as JSON",
				},
			}, scanFlags...),
			Action: RidgeAction,
		},
		{
			Name:      "profile",
			Usage:     "plot the lateral deviation of the dorsum against height",
			UsageText: "nasalsym profile --subject <scan.stl> --reference <average.stl> --output profile.png",
			Flags: append([]cli.Flag{
				&cli.PathFlag{
					Name:     flagOutput,
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "chart `FILE`; the extension picks the format (png, svg, pdf)",
				},
			}, scanFlags...),
			Action: ProfileAction,
		},
		{
			Name:   "schema",
			Usage:  "print the JSON schema of the configuration file",
			Action: SchemaAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
