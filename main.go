package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dtnitsch/pdf-viewer/internal/cache"
	"github.com/dtnitsch/pdf-viewer/internal/db"
	"github.com/dtnitsch/pdf-viewer/internal/inspect"
	"github.com/dtnitsch/pdf-viewer/internal/media"
	"github.com/dtnitsch/pdf-viewer/internal/serve"
	"github.com/dtnitsch/pdf-viewer/internal/view"
	"github.com/dtnitsch/pdf-viewer/models"
	"github.com/dtnitsch/pdf-viewer/pkg/help"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	pageURLFlag := &cli.StringFlag{
		Name:  "page-url",
		Usage: "location of the page hosting the viewer",
	}
	hostPageFlag := &cli.BoolFlag{
		Name:  "host-page",
		Usage: "fetch --page-url and read the injected base URL from it",
	}

	return &cli.App{
		Name:  "pdfview",
		Usage: "headless host-origin-aware PDF viewer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: models.DefaultConfigFile, Usage: "YAML config file"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log debug output"},
			&cli.StringFlag{Name: "base-url", Usage: "download-assets base URL override"},
			&cli.StringFlag{Name: "cache-dir", Usage: "document download cache directory"},
			&cli.StringFlag{Name: "media-dir", Usage: "media file storage directory"},
			&cli.StringFlag{Name: "database", Usage: "sqlite database path"},
		},
		Commands: []*cli.Command{
			{
				Name:      "view",
				Usage:     "open documents in headless viewers and report their layout",
				ArgsUsage: "[reference ...]",
				Action:    view.ViewAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "refs", Usage: "comma-separated references"},
					&cli.IntFlag{Name: "workers", Value: 4, Usage: "viewers to run at once"},
					&cli.Float64Flag{Name: "height", Usage: "viewport height (default from config)"},
					&cli.Float64Flag{Name: "width", Usage: "container width"},
					&cli.IntFlag{Name: "zoom-steps", Usage: "zoom steps to apply, negative zooms out"},
					&cli.IntFlag{Name: "page", Usage: "scroll to this 1-based page"},
					&cli.BoolFlag{Name: "no-record", Usage: "do not record loads in the database"},
					&cli.StringFlag{Name: "format", Value: "yaml", Usage: "output format: yaml or json"},
					&cli.StringFlag{Name: "summary-version", Value: "v1", Usage: "v1 (verbose keys) or v2 (terse keys)"},
					&cli.StringFlag{Name: "summary-fields", Usage: "comma-separated fields to keep"},
					pageURLFlag,
					hostPageFlag,
				},
			},
			{
				Name:      "resolve",
				Usage:     "resolve references against the discovered base URL",
				ArgsUsage: "reference [reference ...]",
				Action:    inspect.ResolveAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "explain", Usage: "show which base signal was used"},
					pageURLFlag,
					hostPageFlag,
				},
			},
			{
				Name:      "classify",
				Usage:     "classify a document load failure message",
				ArgsUsage: "message",
				Action:    inspect.ClassifyAction,
			},
			{
				Name:      "add",
				Usage:     "store local PDF files and print their /media/ references",
				ArgsUsage: "file [file ...] (- reads stdin)",
				Action:    media.AddAction,
			},
			{
				Name:  "media",
				Usage: "manage stored media",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "list stored media",
						Action: media.ListAction,
						Flags:  []cli.Flag{&cli.IntFlag{Name: "limit", Value: 100}},
					},
					{
						Name:      "rm",
						Usage:     "remove stored media",
						ArgsUsage: "id|reference [...]",
						Action:    media.RemoveAction,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "serve stored media over HTTP",
				Action: serve.ServeAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "listen", Usage: "listen address (default from config)"},
				},
			},
			{
				Name:  "db",
				Usage: "inspect the load history",
				Subcommands: []*cli.Command{
					{
						Name:      "loads",
						Usage:     "list recent document loads",
						ArgsUsage: "[reference]",
						Action:    db.LoadsAction,
						Flags:     []cli.Flag{&cli.IntFlag{Name: "limit", Value: 50}},
					},
					{
						Name:      "load",
						Usage:     "show one load",
						ArgsUsage: "id",
						Action:    db.LoadAction,
					},
				},
			},
			{
				Name:  "cache",
				Usage: "manage the document download cache",
				Subcommands: []*cli.Command{
					{
						Name:   "purge",
						Usage:  "remove expired downloads",
						Action: cache.PurgeAction,
					},
				},
			},
			{
				Name:   "config",
				Usage:  "print the effective configuration",
				Action: inspect.ConfigAction,
			},
			{
				Name:  "coldstart",
				Usage: "print a quick start guide",
				Action: func(c *cli.Context) error {
					io.WriteString(os.Stdout, help.ColdstartYAML)
					return nil
				},
			},
		},
	}
}
