package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ayusman/fingermouse/internal/app"
	"github.com/ayusman/fingermouse/internal/capture"
	"github.com/ayusman/fingermouse/internal/config"
	"github.com/ayusman/fingermouse/internal/detector"
	"github.com/ayusman/fingermouse/internal/display"
	"github.com/ayusman/fingermouse/internal/logging"
	"github.com/ayusman/fingermouse/internal/pointer"
	"github.com/ayusman/fingermouse/internal/server"
	"go.uber.org/zap"
)

func init() {
	// HighGUI windows must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fingermouse: %v\n", err)
		os.Exit(2)
	}
	parseFlags(cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "fingermouse: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fingermouse: %v\n", err)
		os.Exit(2)
	}
	logger, _ = logging.WithRun(logger)
	logger.Info("fingermouse starting",
		zap.Int("camera", cfg.CameraID),
		zap.Bool("dry_run", cfg.DryRun),
		zap.String("preview", cfg.PreviewAddr),
	)

	err = run(cfg, logger)
	if err != nil {
		logger.Error("fingermouse stopped", zap.Error(err))
	}
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// parseFlags lets command line flags override the environment.
func parseFlags(cfg *config.Config) {
	quit := string(cfg.QuitKey)

	flag.IntVar(&cfg.CameraID, "camera", cfg.CameraID, "camera device index")
	flag.IntVar(&cfg.FrameWidth, "width", cfg.FrameWidth, "requested frame width")
	flag.IntVar(&cfg.FrameHeight, "height", cfg.FrameHeight, "requested frame height")
	flag.BoolVar(&cfg.Mirror, "mirror", cfg.Mirror, "flip frames horizontally")
	flag.IntVar(&cfg.MaxHands, "max-hands", cfg.MaxHands, "maximum hands to detect")
	flag.Float64Var(&cfg.DetectionConfidence, "detection-confidence", cfg.DetectionConfidence, "minimum detection confidence")
	flag.Float64Var(&cfg.TrackingConfidence, "tracking-confidence", cfg.TrackingConfidence, "minimum tracking confidence")
	flag.StringVar(&cfg.MediaPipeScript, "mediapipe-script", cfg.MediaPipeScript, "path to mediapipe_service.py")
	flag.StringVar(&cfg.PythonPath, "python", cfg.PythonPath, "python interpreter for the hand model")
	flag.StringVar(&cfg.WindowName, "window", cfg.WindowName, "preview window title")
	flag.StringVar(&quit, "quit-key", quit, "key that stops the loop")
	flag.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "log pointer actions instead of performing them")
	flag.StringVar(&cfg.PreviewAddr, "preview", cfg.PreviewAddr, "address for the HTTP preview, empty to disable")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flag.Parse()

	cfg.QuitKey = 0
	for _, r := range quit {
		cfg.QuitKey = r
		break
	}
}

// run acquires every resource, runs the loop and releases them in reverse
// order.
func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ptr, err := newPointer(cfg, logger)
	if err != nil {
		return err
	}

	camera := capture.NewCamera(cfg.CameraID, cfg.FrameWidth, cfg.FrameHeight)
	if err := camera.Open(); err != nil {
		return err
	}
	defer camera.Close()

	det, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:        cfg.MaxHands,
		MinConfidence:   cfg.DetectionConfidence,
		MinTrackingConf: cfg.TrackingConfidence,
		ScriptPath:      cfg.MediaPipeScript,
		PythonPath:      cfg.PythonPath,
	}, logger)
	if err != nil {
		return err
	}
	defer det.Close()
	if err := det.Start(); err != nil {
		return err
	}

	width, height := camera.Size()
	window := display.NewWindow(cfg.WindowName, width, height)
	defer window.Close()

	appConfig := app.Config{
		Camera:   camera,
		Detector: det,
		Pointer:  ptr,
		Display:  window,
		Logger:   logger,
		Mirror:   cfg.Mirror,
		QuitKey:  cfg.QuitKey,
	}

	if cfg.PreviewAddr != "" {
		hub := server.NewHub(logger)
		appConfig.Preview = hub

		previewCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			srv := server.New(server.Config{Hub: hub, Logger: logger})
			if err := srv.ListenAndServe(previewCtx, cfg.PreviewAddr); err != nil {
				logger.Error("preview server failed", zap.Error(err))
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
	}

	a, err := app.New(appConfig)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

func newPointer(cfg *config.Config, logger *zap.Logger) (pointer.Pointer, error) {
	if cfg.DryRun {
		logger.Info("dry run: pointer actions are logged only")
		return pointer.NewDryRun(logger, cfg.ScreenWidth, cfg.ScreenHeight)
	}
	return pointer.NewRobot()
}
