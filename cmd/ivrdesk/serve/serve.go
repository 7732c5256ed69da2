package servecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/ivrdesk/ivr"
	"github.com/papercomputeco/ivrdesk/pkg/config"
	"github.com/papercomputeco/ivrdesk/pkg/logger"
)

const serveLongDesc string = `Run the IVR webhook server.

Configuration is read from an optional TOML file and then from the
environment (PORT, AI_PROVIDER, GROQ_API_KEY, ...). When a config file
is given, edits to its prompts are applied without a restart.

Examples:
  ivrdesk serve
  ivrdesk serve --config ivrdesk.toml --debug
  ivrdesk serve --listen :8080 --db ~/.ivrdesk/transcripts.db`

const serveShortDesc string = "Run the IVR webhook server"

type serveCommander struct {
	configPath string
	listen     string
	dbPath     string
	debug      bool
	jsonLog    bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to SQLite transcript archive (overrides config)")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&cmder.jsonLog, "json-log", false, "Log as JSON")

	return cmd
}

// load reads the configuration and applies command line overrides.
func (c *serveCommander) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("listen") {
		cfg.Server.Listen = c.listen
	}
	if cmd.Flags().Changed("db") {
		cfg.Transcripts.DBPath = c.dbPath
	}
	if cmd.Flags().Changed("debug") {
		cfg.Server.Debug = c.debug
	}
	if cmd.Flags().Changed("json-log") {
		cfg.Server.JSONLog = c.jsonLog
	}

	return cfg, nil
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := c.load(cmd)
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}

	log := logger.NewLogger(cfg.Server.Debug, cfg.Server.JSONLog)
	defer log.Sync()

	serverConfig, err := ivr.ConfigFrom(cfg)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	generator, err := ivr.NewGenerator(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("could not create %s generator: %w", cfg.AI.Provider, err)
	}

	server, err := ivr.New(serverConfig, generator, log)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}
	defer func() {
		if err := server.Close(); err != nil {
			log.Error("failed to close server", zap.Error(err))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Run)

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return server.Shutdown()
	})

	if c.configPath != "" {
		g.Go(func() error {
			return config.Watch(gctx, c.configPath, log, func(next *config.Config) {
				server.SetPrompts(ivr.PromptsFrom(next))
				log.Info("prompts reloaded")
			})
		})
	}

	return g.Wait()
}
