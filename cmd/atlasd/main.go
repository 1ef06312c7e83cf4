// Command atlasd is the main entry point for the Atlas voice synthesis
// daemon. It serves health and metrics endpoints and, with -say, renders a
// single utterance to a PCM file and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atlasvoice/atlas-voice-core/internal/app"
	"github.com/atlasvoice/atlas-voice-core/internal/config"
	"github.com/atlasvoice/atlas-voice-core/internal/health"
	"github.com/atlasvoice/atlas-voice-core/internal/live"
	"github.com/atlasvoice/atlas-voice-core/internal/observe"
	"github.com/atlasvoice/atlas-voice-core/internal/resolver"
	"github.com/atlasvoice/atlas-voice-core/internal/synth"
	"github.com/atlasvoice/atlas-voice-core/pkg/audio"
	"github.com/atlasvoice/atlas-voice-core/pkg/prosody"
	"github.com/atlasvoice/atlas-voice-core/pkg/provider/duplex"
	"github.com/atlasvoice/atlas-voice-core/pkg/provider/duplex/gemini"
	"github.com/atlasvoice/atlas-voice-core/pkg/provider/tts"
	"github.com/atlasvoice/atlas-voice-core/pkg/provider/tts/geminitts"
	"github.com/atlasvoice/atlas-voice-core/pkg/provider/tts/higgs"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	say := flag.String("say", "", "synthesise this text, write PCM to -out, and exit")
	out := flag.String("out", "out.pcm", "output file for -say (raw s16le PCM)")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "atlasd: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "atlasd: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("atlasd starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "atlasd",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Engines ───────────────────────────────────────────────────────────────
	transport, primary, fallback, err := buildEngines(cfg)
	if err != nil {
		slog.Error("failed to build engines", "err", err)
		return 1
	}

	// ── Pipeline and orchestrator ─────────────────────────────────────────────
	res := resolver.New(resolver.WithPersonas(prosody.DefaultPersonas))
	dispatcher := synth.NewDispatcher(primary, fallback)

	var pipelineOpts []synth.PipelineOption
	if cfg.Synthesis.MaxChunkLen > 0 {
		pipelineOpts = append(pipelineOpts, synth.WithMaxChunkLen(cfg.Synthesis.MaxChunkLen))
	}
	if cfg.Synthesis.SampleRate > 0 {
		pipelineOpts = append(pipelineOpts, synth.WithSampleRate(cfg.Synthesis.SampleRate))
	}
	pipeline := synth.NewPipeline(res, dispatcher, pipelineOpts...)

	// ── One-shot synthesis mode ───────────────────────────────────────────────
	if *say != "" {
		return speakOnce(ctx, pipeline, cfg, *say, *out)
	}

	// Live capture and playback devices are platform adapters supplied by
	// embedding applications; the daemon wires everything else so a session
	// only needs the two devices filled in.
	orch := app.New(app.Config{
		Resolver: res,
		Pipeline: pipeline,
		Live: live.Config{
			Transport: transport,
			Session: duplex.SessionConfig{
				Model:            cfg.Engines.Primary.Model,
				VoiceName:        cfg.Engines.Primary.Voice,
				InputSampleRate:  cfg.Live.InputSampleRate,
				OutputSampleRate: cfg.Live.OutputSampleRate,
			},
			Watchdog: live.WatchdogConfig{
				Interval:  cfg.Live.Watchdog.Interval.Std(),
				Threshold: cfg.Live.Watchdog.Threshold.Std(),
				MaxNudges: cfg.Live.Watchdog.MaxNudges,
			},
		},
		Sink:    audio.NewWriterSink(os.Stdout),
		Profile: cfg.Voice.Profile(),
		Memory:  cfg.Memory.Memory(),
	})
	defer orch.StopAll()

	// ── Config hot-reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(_, updated *config.Config) {
		orch.SetVoiceConfig(updated.Voice.Profile(), updated.Memory.Memory())
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()

	// ── HTTP: health + metrics ────────────────────────────────────────────────
	mux := http.NewServeMux()
	checkers := []health.Checker{health.EngineChecker(primary)}
	if fallback != nil {
		checkers = append(checkers, health.EngineChecker(fallback))
	}
	health.New(checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	handler := observe.Middleware(observe.DefaultMetrics())(mux)

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	slog.Info("server ready — press Ctrl+C to shut down")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "err", err)
			return 1
		}
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	orch.StopAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// buildEngines constructs the shared duplex transport, the primary cloud
// engine and the local fallback from cfg. A missing fallback URL leaves the
// fallback nil; a missing primary key still builds the engine (it will fail
// fast on first render).
func buildEngines(cfg *config.Config) (transport *gemini.Transport, primary, fallback tts.Engine, err error) {
	var geminiOpts []gemini.Option
	if cfg.Engines.Primary.Model != "" {
		geminiOpts = append(geminiOpts, gemini.WithModel(cfg.Engines.Primary.Model))
	}
	transport = gemini.New(cfg.Engines.Primary.APIKey, geminiOpts...)

	var primaryOpts []geminitts.Option
	if cfg.Engines.Primary.Voice != "" {
		primaryOpts = append(primaryOpts, geminitts.WithVoice(cfg.Engines.Primary.Voice))
	}
	primary = geminitts.New(transport, primaryOpts...)

	if cfg.Engines.Fallback.ServerURL != "" {
		var higgsOpts []higgs.Option
		if cfg.Engines.Fallback.Speaker != "" {
			higgsOpts = append(higgsOpts, higgs.WithSpeaker(cfg.Engines.Fallback.Speaker))
		}
		if cfg.Engines.Fallback.Timeout > 0 {
			higgsOpts = append(higgsOpts, higgs.WithTimeout(cfg.Engines.Fallback.Timeout.Std()))
		}
		fallback, err = higgs.New(cfg.Engines.Fallback.ServerURL, higgsOpts...)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return transport, primary, fallback, nil
}

// speakOnce renders text to a raw PCM file and exits.
func speakOnce(ctx context.Context, pipeline *synth.Pipeline, cfg *config.Config, text, out string) int {
	f, err := os.Create(out)
	if err != nil {
		slog.Error("cannot create output file", "path", out, "err", err)
		return 1
	}
	sink := audio.NewWriterSink(f)
	defer sink.Close()

	mem := cfg.Memory.Memory()
	chunks, err := pipeline.SpeakText(ctx, text, cfg.Voice.Profile(), &mem, sink, synth.Callbacks{
		OnChunkUpdate: func(c synth.AudioChunk) {
			slog.Debug("chunk update",
				"index", c.Index, "status", c.Status, "engine", c.Engine, "score", c.Report.Score)
		},
		OnEngineSwitch: func(from, to string) {
			slog.Info("engine switched", "from", from, "to", to)
		},
	})
	if err != nil {
		slog.Error("synthesis failed", "err", err)
		return 1
	}

	completed := 0
	for _, c := range chunks {
		if c.Status == synth.StatusCompleted {
			completed++
		}
	}
	slog.Info("synthesis finished",
		"chunks", len(chunks), "completed", completed, "output", out)
	return 0
}
