package view

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dtnitsch/pdf-viewer/internal/common"
	"github.com/dtnitsch/pdf-viewer/pkg/caching"
	"github.com/dtnitsch/pdf-viewer/pkg/db"
	"github.com/dtnitsch/pdf-viewer/pkg/engine"
	"github.com/dtnitsch/pdf-viewer/pkg/fetcher"
	"github.com/dtnitsch/pdf-viewer/pkg/hostpage"
	"github.com/dtnitsch/pdf-viewer/pkg/urlresolver"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func ViewAction(c *cli.Context) error {
	logger := common.NewLogger(c)
	startTime := time.Now()

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}

	var refs []string
	if c.IsSet("refs") {
		refs = append(refs, strings.Split(c.String("refs"), ",")...)
	}
	refs = append(refs, c.Args().Slice()...)
	for i := range refs {
		refs[i] = common.SanitizeReference(refs[i])
	}

	if len(refs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No document references provided")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, `  pdfview view https://example.com/report.pdf`)
		fmt.Fprintln(os.Stderr, `  pdfview view --refs "a.pdf,/media/<id>.pdf" --page-url https://host/app/`)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Need help? Run: pdfview view --help")
		os.Exit(1)
	}

	cache, err := caching.NewCache(cfg.CacheDir, cfg.CacheTTL)
	if err != nil {
		logger.Error("failed to initialize document cache", "error", err)
		os.Exit(2)
	}
	f := fetcher.NewFetcher()
	eng := engine.NewPDFEngine(engine.WithFetcher(f), engine.WithCache(cache), engine.WithLogger(logger))

	resolveCtx := urlresolver.Context{
		Override: cfg.DownloadAssetsBaseURL,
		PageURL:  c.String("page-url"),
	}
	if c.Bool("host-page") && resolveCtx.PageURL != "" && resolveCtx.Override == "" {
		discovered, err := hostpage.Fetch(c.Context, f, resolveCtx.PageURL)
		if err != nil {
			logger.Warn("host page discovery failed, using page location", "page_url", resolveCtx.PageURL, "error", err)
		} else {
			resolveCtx = discovered
		}
	}
	if _, ok := urlresolver.DiscoverBase(resolveCtx); !ok {
		// Fall back to the local media server.
		resolveCtx.PageURL = "http://" + cfg.ListenAddr + "/"
		logger.Debug("no base URL signal, resolving media against local server", "page_url", resolveCtx.PageURL)
	}

	rc := runConfig{
		workers: c.Int("workers"),
		cfg:     cfg,
		resolve: resolveCtx,
		plan: Plan{
			Height:     c.Float64("height"),
			Width:      c.Float64("width"),
			ZoomSteps:  c.Int("zoom-steps"),
			ScrollPage: c.Int("page"),
		},
	}
	if rc.plan.Height <= 0 {
		rc.plan.Height = cfg.DefaultHeight
	}

	var database *db.DB
	if !c.Bool("no-record") {
		database, err = db.OpenPath(cfg.Database)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(2)
		}
		rc.recorder = database
	}
	// os.Exit skips deferred calls, so the database is closed here first.
	exit := func(code int) {
		if database != nil {
			if err := database.Close(); err != nil {
				logger.Warn("failed to close database", "error", err)
			}
		}
		if code != 0 {
			os.Exit(code)
		}
	}

	allResults := run(c.Context, logger, eng, rc, refs)
	stats := BuildStats(allResults, time.Since(startTime))

	summaries := make([]ResultSummary, len(allResults))
	for i, r := range allResults {
		summaries[i] = BuildSummary(r)
	}

	finalOutput := FinalOutput{Status: "success"}
	if stats.Failed > 0 {
		finalOutput.Status = "partial_failure"
	}

	isTerse := strings.ToLower(c.String("summary-version")) == "v2"
	summaryFields := c.String("summary-fields")

	var results []interface{}
	for _, s := range summaries {
		var r interface{} = s
		if isTerse {
			r = ToTerseResult(s)
		}
		if summaryFields != "" {
			r = common.FilterResultFields(r, summaryFields, isTerse)
		}
		results = append(results, r)
	}
	finalOutput.Results = results
	if isTerse {
		finalOutput.Stats = ToTerseStats(stats)
	} else {
		finalOutput.Stats = stats
	}

	var outputData []byte
	var marshalErr error
	if strings.ToLower(c.String("format")) == "json" {
		outputData, marshalErr = json.MarshalIndent(finalOutput, "", "  ")
	} else {
		outputData, marshalErr = yaml.Marshal(finalOutput)
	}
	if marshalErr != nil {
		logger.Error("failed to marshal final output", "error", marshalErr)
		exit(2)
	}
	fmt.Println(string(outputData))

	exit(exitCode(stats))
	return nil
}

// exitCode is 2 when every reference failed, 1 when some did.
func exitCode(stats Stats) int {
	switch {
	case stats.Total > 0 && stats.Failed == stats.Total:
		return 2
	case stats.Failed > 0:
		return 1
	}
	return 0
}
