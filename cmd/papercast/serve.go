package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"papercast/internal/audio"
	"papercast/internal/auth"
	"papercast/internal/config"
	"papercast/internal/home"
	"papercast/internal/jobs"
	"papercast/internal/providers"
	"papercast/internal/script"
	"papercast/internal/segment"
	"papercast/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the papercast server",
	Long: `Start the papercast HTTP server.

The server provides:
  - POST /api/ingest                     - Upload a PDF, get a job id
  - POST /api/generate/{job_id}          - Start the generation pipeline
  - GET  /api/generate/{job_id}/status   - Poll job progress
  - GET  /health                         - Basic health check

Examples:
  papercast serve                  # Start on default port 8000
  papercast serve --port 3000      # Start on custom port
  papercast serve --host 0.0.0.0   # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		configFile := cfgFile
		if configFile == "" && h.ConfigExists() {
			configFile = h.ConfigPath()
		}

		mgr, err := config.NewManager(configFile)
		if err != nil {
			return err
		}
		mgr.WatchConfig()
		cfg := mgr.Get()

		gemini := providers.NewGeminiClient(providers.GeminiConfig{
			APIKey:      cfg.Gemini.ResolvedAPIKey(),
			Model:       cfg.Gemini.Model,
			MaxAttempts: cfg.Gemini.MaxAttempts,
			RetryDelay:  time.Duration(cfg.Gemini.RetryDelaySeconds) * time.Second,
			RateLimit:   int(cfg.Gemini.RateLimit),
			Logger:      logger,
		})

		// Audio stages are optional: without a TTS provider the pipeline
		// finishes with a script-only result.
		var synth audio.Synthesizer
		var mixer audio.Mixer
		if cfg.TTS.Provider == "openai" {
			synth = audio.NewOpenAISynthesizer(audio.OpenAISynthesizerConfig{
				APIKey: cfg.TTS.ResolvedAPIKey(),
				Model:  cfg.TTS.Model,
				Logger: logger,
			})
			if err := audio.CheckFFmpegAvailable(); err != nil {
				logger.Warn("ffmpeg unavailable, audio stages disabled", "error", err)
				synth = nil
			} else {
				mixer = audio.NewFFmpegMixer(h.ResolveStorageDir(cfg.Storage.OutputDir), logger)
			}
		}

		orch := jobs.NewOrchestrator(
			jobs.NewMemoryStore(),
			segment.NewSegmenter(logger),
			script.NewGenerator(gemini, logger),
			synth,
			mixer,
			logger,
		)

		host := cfg.Server.Host
		if serveHost != "" {
			host = serveHost
		}
		port := cfg.Server.Port
		if servePort != 0 {
			port = servePort
		}

		srv, err := server.New(server.Config{
			Host:             host,
			Port:             port,
			UploadDir:        h.ResolveStorageDir(cfg.Storage.UploadDir),
			DefaultVoicePair: cfg.TTS.VoicePair,
			Orchestrator:     orch,
			Resolver:         auth.NewResolver(cfg.Auth.ResolvedSecret(), cfg.Auth.AllowGuest, logger),
			Logger:           logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")

	rootCmd.AddCommand(serveCmd)
}
