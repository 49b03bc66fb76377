package inspect

import (
	"fmt"
	"os"
	"strings"

	"github.com/dtnitsch/pdf-viewer/internal/common"
	"github.com/dtnitsch/pdf-viewer/models"
	"github.com/dtnitsch/pdf-viewer/pkg/errclass"
	"github.com/dtnitsch/pdf-viewer/pkg/fetcher"
	"github.com/dtnitsch/pdf-viewer/pkg/hostpage"
	"github.com/dtnitsch/pdf-viewer/pkg/urlresolver"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Explanation shows how a reference was resolved.
type Explanation struct {
	Reference string             `yaml:"reference"`
	Resolved  string             `yaml:"resolved"`
	Media     bool               `yaml:"media"`
	Base      string             `yaml:"base,omitempty"`
	Source    urlresolver.Source `yaml:"source"`
	BasePath  string             `yaml:"app_base_path,omitempty"`
}

// Explain resolves reference and records which base signal was used.
func Explain(reference string, ctx urlresolver.Context) Explanation {
	base, src := urlresolver.DiscoverBaseSource(ctx)
	e := Explanation{
		Reference: reference,
		Resolved:  urlresolver.Resolve(reference, ctx),
		Media:     urlresolver.IsMedia(reference),
		Base:      base,
		Source:    src,
	}
	if e.Media && src != urlresolver.SourceNone {
		e.BasePath = urlresolver.AppBasePath(basePathOf(base))
	}
	return e
}

func basePathOf(base string) string {
	rest := base
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			rest = rest[j:]
		} else {
			rest = "/"
		}
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func ResolveAction(c *cli.Context) error {
	if c.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: No reference provided")
		fmt.Fprintln(os.Stderr, `Usage: pdfview resolve /media/<id>.pdf --page-url https://host/app/Page`)
		os.Exit(1)
	}
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}

	ctx := urlresolver.Context{
		Override: cfg.DownloadAssetsBaseURL,
		PageURL:  c.String("page-url"),
	}
	if c.Bool("host-page") && ctx.PageURL != "" && ctx.Override == "" {
		discovered, err := hostpage.Fetch(c.Context, fetcher.NewFetcher(), ctx.PageURL)
		if err != nil {
			logger.Warn("host page discovery failed, using page location", "page_url", ctx.PageURL, "error", err)
		} else {
			ctx = discovered
		}
	}

	refs := c.Args().Slice()
	if !c.Bool("explain") {
		for _, ref := range refs {
			fmt.Println(urlresolver.Resolve(ref, ctx))
		}
		return nil
	}

	explanations := make([]Explanation, len(refs))
	for i, ref := range refs {
		explanations[i] = Explain(ref, ctx)
	}
	return printYAML(explanations)
}

// Classification is a classified load failure.
type Classification struct {
	Category errclass.Category `yaml:"category"`
	Error    models.LoadError  `yaml:",inline"`
}

func ClassifyAction(c *cli.Context) error {
	if c.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: No message provided")
		fmt.Fprintln(os.Stderr, `Usage: pdfview classify "Unexpected server response (404) while retrieving PDF."`)
		os.Exit(1)
	}

	le, cat := errclass.ClassifyCategory(strings.Join(c.Args().Slice(), " "))
	return printYAML(Classification{Category: cat, Error: le})
}

func ConfigAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 2)
	}
	return printYAML(cfg)
}

func printYAML(v interface{}) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
