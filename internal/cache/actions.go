package cache

import (
	"fmt"

	"github.com/dtnitsch/pdf-viewer/internal/common"
	"github.com/dtnitsch/pdf-viewer/pkg/caching"
	"github.com/urfave/cli/v2"
)

// PurgeAction removes expired downloads from the document cache.
func PurgeAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}
	cache, err := caching.NewCache(cfg.CacheDir, cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	n, err := cache.Purge()
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	fmt.Printf("Removed %d expired documents from %s\n", n, cfg.CacheDir)
	return nil
}
