package db

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/pdf-viewer/internal/common"
	dbpkg "github.com/dtnitsch/pdf-viewer/pkg/db"
	"github.com/urfave/cli/v2"
)

func openDatabase(c *cli.Context) (*dbpkg.DB, error) {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return nil, err
	}
	database, err := dbpkg.OpenPath(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// LoadsAction lists recent document loads, optionally for one reference.
func LoadsAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	loads, err := database.ListLoads(c.Args().First(), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list loads: %w", err)
	}

	if len(loads) == 0 {
		fmt.Println("No loads found")
		return nil
	}

	fmt.Printf("%-6s %-20s %-8s %-6s %-30s %-40s\n",
		"ID", "Loaded", "Status", "Pages", "Error", "Reference")
	fmt.Println(strings.Repeat("-", 120))

	failed := 0
	for _, l := range loads {
		status := "ok"
		errText := ""
		if !l.Success {
			status = "failed"
			errText = l.ErrorSummary.String
			failed++
		}
		fmt.Printf("%-6d %-20s %-8s %-6d %-30s %-40s\n",
			l.LoadID,
			l.LoadedAt.Format("2006-01-02 15:04:05"),
			status,
			l.PageCount,
			truncate(errText, 30),
			truncate(l.Reference, 40),
		)
	}

	fmt.Printf("\nTotal: %d loads (%d failed)\n", len(loads), failed)
	if failed > 0 {
		fmt.Printf("\nTip: Use 'pdfview db load <id>' to see the full error\n")
	}
	return nil
}

// LoadAction shows one load with its full classified error.
func LoadAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	var loadID int64
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &loadID); err != nil {
		return fmt.Errorf("invalid load ID: %s", c.Args().First())
	}

	loads, err := database.ListLoads("", 0)
	if err != nil {
		return fmt.Errorf("failed to list loads: %w", err)
	}
	for _, l := range loads {
		if l.LoadID != loadID {
			continue
		}
		fmt.Printf("Load %d\n", l.LoadID)
		fmt.Println(strings.Repeat("=", 60))
		fmt.Printf("Loaded:      %s\n", l.LoadedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Reference:   %s\n", l.Reference)
		fmt.Printf("Resolved:    %s\n", l.ResolvedURL)
		fmt.Printf("Success:     %t\n", l.Success)
		fmt.Printf("Pages:       %d\n", l.PageCount)
		if !l.Success {
			fmt.Printf("Summary:     %s\n", l.ErrorSummary.String)
			fmt.Printf("Remedy:      %s\n", l.ErrorRemedy.String)
			fmt.Printf("Raw:         %s\n", l.ErrorRaw.String)
		}
		return nil
	}
	return fmt.Errorf("load %d not found", loadID)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
