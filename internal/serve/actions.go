package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dtnitsch/pdf-viewer/internal/common"
	"github.com/dtnitsch/pdf-viewer/internal/media"
	"github.com/dtnitsch/pdf-viewer/pkg/server"
	"github.com/urfave/cli/v2"
)

// ServeAction runs the media server until interrupted.
func ServeAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}

	store, database, err := media.OpenStore(c)
	if err != nil {
		logger.Error("failed to open media store", "error", err)
		os.Exit(2)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving media", "addr", cfg.ListenAddr, "media_dir", cfg.MediaDir, "database", database.Path())
	return server.New(store, logger).ListenAndServe(ctx, cfg.ListenAddr)
}
