package media

import (
	"fmt"
	"os"
	"strings"

	"github.com/dtnitsch/pdf-viewer/internal/common"
	dbcmd "github.com/dtnitsch/pdf-viewer/internal/db"
	"github.com/dtnitsch/pdf-viewer/pkg/db"
	"github.com/dtnitsch/pdf-viewer/pkg/mediastore"
	"github.com/dtnitsch/pdf-viewer/pkg/storage"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// OpenStore opens the media store described by the config flags.
// Callers close the returned database.
func OpenStore(c *cli.Context) (*mediastore.Store, *db.DB, error) {
	logger := common.NewLogger(c)
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	database, err := db.OpenPath(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	st, err := storage.New(cfg.MediaDir)
	if err != nil {
		_ = database.Close()
		return nil, nil, err
	}
	return mediastore.New(database, st, logger), database, nil
}

// AddAction stores local files (or passes URLs through) and prints the
// reference the viewer should be given for each.
func AddAction(c *cli.Context) error {
	if c.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: No files provided")
		fmt.Fprintln(os.Stderr, "Usage: pdfview add report.pdf [more.pdf ...]")
		fmt.Fprintln(os.Stderr, "       pdfview add - < report.pdf")
		os.Exit(1)
	}

	store, database, err := OpenStore(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer database.Close()

	type added struct {
		Input     string `yaml:"input"`
		Reference string `yaml:"reference"`
		Size      string `yaml:"size,omitempty"`
		Error     string `yaml:"error,omitempty"`
	}

	var out []added
	failed := 0
	for _, arg := range c.Args().Slice() {
		arg = common.SanitizeReference(arg)
		entry := added{Input: arg}

		var m *mediastore.Media
		switch {
		case arg == "-":
			m, err = store.AddReader(os.Stdin, "stdin")
		case mediastore.IsPassthrough(arg):
			entry.Reference = arg
			out = append(out, entry)
			continue
		default:
			m, err = store.AddFile(arg)
		}

		if err != nil {
			entry.Error = err.Error()
			failed++
		} else {
			entry.Reference = m.URL
			entry.Size = humanize.Bytes(uint64(m.SizeBytes))
		}
		out = append(out, entry)
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Print(string(data))

	if failed > 0 {
		os.Exit(1)
	}
	return nil
}

// ListAction prints stored media files.
func ListAction(c *cli.Context) error {
	store, database, err := OpenStore(c)
	if err != nil {
		return err
	}
	defer database.Close()

	media, err := store.List(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list media: %w", err)
	}
	if len(media) == 0 {
		fmt.Println("No media found")
		return nil
	}

	fmt.Printf("%-74s %-10s %-30s\n", "Reference", "Size", "Name")
	fmt.Println(strings.Repeat("-", 116))
	var total int64
	for _, m := range media {
		total += m.SizeBytes
		fmt.Printf("%-74s %-10s %-30s\n", m.URL, humanize.Bytes(uint64(m.SizeBytes)), m.Name)
	}
	fmt.Printf("\nTotal: %d files, %s\n", len(media), humanize.Bytes(uint64(total)))
	return nil
}

// RemoveAction deletes stored media by id or reference.
func RemoveAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("Error: No media id provided", 1)
	}
	store, database, err := OpenStore(c)
	if err != nil {
		return err
	}
	defer database.Close()

	for _, arg := range c.Args().Slice() {
		id, err := dbcmd.ResolveMediaID(arg)
		if err != nil {
			return err
		}
		if err := store.Remove(id); err != nil {
			return fmt.Errorf("failed to remove %s: %w", arg, err)
		}
		fmt.Printf("Removed %s\n", mediastore.URLFor(id))
	}
	return nil
}
