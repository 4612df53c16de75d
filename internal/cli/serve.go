package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/magpress/magpress/internal/server"
	"github.com/magpress/magpress/pkg/cache"
	"github.com/magpress/magpress/pkg/config"
	"github.com/magpress/magpress/pkg/content"
	"github.com/magpress/magpress/pkg/pipeline"
	"github.com/magpress/magpress/pkg/session"
	"github.com/magpress/magpress/pkg/storage"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	configPath  string // TOML config file
	addr        string // listen address override
	templateDir string // template directory for local mode
	noAuth      bool   // serve everything as the local identity
}

// serveCommand creates the serve command running the export API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		templateDir: ".",
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the export API over HTTP",
		Long: `Serve runs the export API: POST /api/exports starts an export for the
authenticated identity, GET /api/exports/{id} reports job state. Without
a Mongo URI in the config, layouts are read from the template directory
and export logging is disabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "TOML config file")
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "", "listen address (default :8080)")
	cmd.Flags().StringVarP(&opts.templateDir, "dir", "d", opts.templateDir, "template directory root")
	cmd.Flags().BoolVar(&opts.noAuth, "no-auth", false, "disable auth, serve as the local identity")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.noAuth {
		cfg.Server.NoAuth = true
	}

	store, err := c.contentStore(ctx, cfg, opts.templateDir)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	artifacts, err := storage.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		return err
	}

	rc, err := c.serveCache(ctx, cfg)
	if err != nil {
		return err
	}

	// Redis is shared infrastructure; claim a dedicated keyspace on it.
	var keyer cache.Keyer
	if cfg.Cache.Backend == "redis" {
		keyer = cache.NewScopedKeyer(nil, "magpress:")
	}

	runner := pipeline.NewRunner(store, artifacts, rc, keyer, c.Logger)
	if cfg.Mongo.URI != "" {
		exportLog, err := storage.NewMongoExportLog(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return err
		}
		runner.ExportLog = exportLog
	}
	defer runner.Close()

	srv := server.New(runner, session.NewMemoryStore(), server.Options{
		Addr:          cfg.Server.Addr,
		NoAuth:        cfg.Server.NoAuth,
		RenderScale:   cfg.Render.Scale,
		ShiftRatio:    cfg.Render.ShiftRatio,
		FetchTimeout:  cfg.Render.FetchTimeout.Duration(),
		AllowedFonts:  cfg.Render.AllowedFonts,
		VideoFPS:      cfg.Video.FPS,
		VideoStrategy: cfg.Video.Strategy,
		FFmpegPath:    cfg.Video.FFmpegPath,
		Logger:        c.Logger,
	})

	printInfo("Serving export API on %s", cfg.Server.Addr)
	if cfg.Server.NoAuth {
		printWarning("Authentication disabled, all requests run as %q", session.MockLocal().Identity)
	}
	return srv.Run(ctx)
}

// contentStore picks Mongo when configured, otherwise the local template
// directory.
func (c *CLI) contentStore(ctx context.Context, cfg config.Config, templateDir string) (content.Store, error) {
	if cfg.Mongo.URI != "" {
		return content.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	}
	return content.NewDirStore(templateDir)
}

// serveCache builds the raster cache for the configured backend.
func (c *CLI) serveCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	case "none":
		return cache.NewNullCache(), nil
	default:
		return cache.NewFileCache(cfg.Cache.Dir)
	}
}
