package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/umo-app/umo/internal/config"
	"github.com/umo-app/umo/internal/recorder"
	"github.com/umo-app/umo/lib/logger/sl"
	"github.com/umo-app/umo/lib/logger/slogpretty"
)

func main() {
	var (
		serverURL string
		title     string
		input     string
		useWS     bool
	)
	flag.StringVar(&serverURL, "server", "http://localhost:8080", "umo server base URL")
	flag.StringVar(&title, "title", "New meeting", "meeting title")
	flag.StringVar(&input, "input", "-f alsa -i default", "ffmpeg capture arguments for the microphone")
	flag.BoolVar(&useWS, "ws", false, "stream chunks over one websocket instead of multipart requests")

	_ = godotenv.Load(".env")

	// MustLoad registers the -config flag and parses the command line.
	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	if err := run(cfg, log, serverURL, title, input, useWS); err != nil {
		log.Error("recording failed", sl.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, serverURL, title, input string, useWS bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := recorder.NewClient(serverURL)
	defer client.Close()

	var uploader recorder.Uploader = client
	if useWS {
		ws := recorder.NewWSUploader(serverURL)
		defer ws.Close()
		uploader = ws
	}

	meetingID, err := client.CreateMeeting(ctx, title)
	if err != nil {
		return err
	}
	log.Info("meeting created", slog.String("meeting_id", meetingID.String()))

	store, err := recorder.OpenChunkStore(cfg.Recorder.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	// Capture dies with the signal context; uploads get their own context
	// so an interrupt never cancels slices already in flight.
	source, err := recorder.NewFFmpegSource(ctx, strings.Fields(input), cfg.Recorder.SliceInterval)
	if err != nil {
		return err
	}

	session := recorder.NewSession(source, store, uploader, log)
	if err := session.Start(context.Background(), meetingID); err != nil {
		return err
	}
	log.Info("recording, press ctrl-c to stop")

	<-ctx.Done()

	result, err := session.Stop(context.Background())
	if err != nil {
		return err
	}
	log.Info("recording finished",
		slog.Int("duration_seconds", result.DurationSeconds),
		slog.Int("total_chunks", result.TotalChunks),
		slog.Int("failed_chunks", len(result.FailedChunks)),
	)

	// The websocket uploader cannot settle the duration itself.
	if useWS && result.TotalChunks > 0 {
		if err := client.FinishRecording(context.Background(), meetingID, result.DurationSeconds, result.TotalChunks); err != nil {
			return err
		}
	}

	if err := client.RunTranscription(context.Background(), meetingID); err != nil {
		return err
	}
	log.Info("transcription started", slog.String("meeting_id", meetingID.String()))
	return nil
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
