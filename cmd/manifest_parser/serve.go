package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"manifest_parser/internal/aggregate"
	"manifest_parser/internal/api"
	"manifest_parser/internal/config"
)

var (
	serveParser   parserFlags
	serveBackends backendFlags

	servePort    int
	serveAuth    bool
	serveAPIKeys string
	serveMaxMB   int64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the manifest HTTP API",
	Long: `Run the manifest HTTP API.

Endpoints:
  GET  /api/v1/health
  POST /api/v1/manifests                      multipart "file", optional "filter"; ?sort=pieces ?format=csv|xlsx
  GET  /api/v1/manifests                      ?flight= ?origin= ?limit= ?offset=
  GET  /api/v1/manifests/{id}                 ?filter=ID,ID
  GET  /api/v1/manifests/{id}/report.xlsx     ?layout=print|full
  GET  /api/v1/manifests/{id}/report.csv
  GET  /metrics

Authentication (with --auth): X-API-Key header, Authorization: Bearer <key>,
or api_key query parameter.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveParser.register(serveCmd)
	serveBackends.register(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (env: API_PORT, default 8081)")
	serveCmd.Flags().BoolVar(&serveAuth, "auth", false, "Enable API key authentication (env: API_AUTH)")
	serveCmd.Flags().StringVar(&serveAPIKeys, "api-keys", "", "Comma-separated list of valid API keys (env: API_KEYS)")
	serveCmd.Flags().Int64Var(&serveMaxMB, "max-upload-mb", api.DefaultMaxUploadBytes>>20, "Largest accepted upload in MiB")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	pc, err := serveParser.apply(cmd, cfg.Parser)
	if err != nil {
		return err
	}

	apiCfg := api.Config{
		Port:           cfg.API.Port,
		AuthEnabled:    cfg.API.AuthEnabled,
		APIKeys:        cfg.API.APIKeys,
		MaxUploadBytes: serveMaxMB << 20,
		Options:        pc.ExtractorOptions(aggregate.Filter{}),
	}
	if cmd.Flags().Changed("port") {
		apiCfg.Port = servePort
	}
	if cmd.Flags().Changed("auth") {
		apiCfg.AuthEnabled = serveAuth
	}
	if cmd.Flags().Changed("api-keys") {
		apiCfg.APIKeys = config.SplitList(serveAPIKeys)
	}
	if apiCfg.AuthEnabled && len(apiCfg.APIKeys) == 0 {
		logger.Warn("authentication enabled but no API keys configured, every request will be rejected")
	}

	b, err := openBackends(ctx, serveBackends, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	if b.store == nil {
		logger.Info("no archive configured, list and report endpoints are disabled")
	}

	logger.Info("starting manifest API",
		zap.Int("port", apiCfg.Port),
		zap.Bool("auth", apiCfg.AuthEnabled),
		zap.String("variant", pc.Variant.String()),
		zap.String("flush", pc.Flush.String()),
		zap.Int("backends", len(b.sinks)),
	)

	return api.NewServer(b.store, b.Sink(), apiCfg, logger).Run(ctx)
}
