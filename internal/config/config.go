// Package config loads fingermouse settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lpernett/godotenv"
)

// ErrInvalid is returned by Validate for unusable settings.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every runtime setting.
type Config struct {
	CameraID    int
	FrameWidth  int
	FrameHeight int
	Mirror      bool

	MaxHands            int
	DetectionConfidence float64
	TrackingConfidence  float64
	MediaPipeScript     string
	PythonPath          string

	WindowName string
	QuitKey    rune

	DryRun       bool
	ScreenWidth  int
	ScreenHeight int

	PreviewAddr string
	LogLevel    string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		CameraID:            0,
		FrameWidth:          640,
		FrameHeight:         480,
		Mirror:              true,
		MaxHands:            2,
		DetectionConfidence: 0.5,
		TrackingConfidence:  0.5,
		WindowName:          "Hand Tracking",
		QuitKey:             'q',
		ScreenWidth:         1920,
		ScreenHeight:        1080,
		LogLevel:            "info",
	}
}

// Load reads an optional .env file from the working directory and then the
// FINGERMOUSE_* environment variables over the defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the environment only.
func FromEnv() (*Config, error) {
	def := Default()
	p := &parser{}

	cfg := &Config{
		CameraID:            p.getInt("FINGERMOUSE_CAMERA", def.CameraID),
		FrameWidth:          p.getInt("FINGERMOUSE_FRAME_WIDTH", def.FrameWidth),
		FrameHeight:         p.getInt("FINGERMOUSE_FRAME_HEIGHT", def.FrameHeight),
		Mirror:              p.getBool("FINGERMOUSE_MIRROR", def.Mirror),
		MaxHands:            p.getInt("FINGERMOUSE_MAX_HANDS", def.MaxHands),
		DetectionConfidence: p.getFloat("FINGERMOUSE_DETECTION_CONFIDENCE", def.DetectionConfidence),
		TrackingConfidence:  p.getFloat("FINGERMOUSE_TRACKING_CONFIDENCE", def.TrackingConfidence),
		MediaPipeScript:     getEnv("FINGERMOUSE_MEDIAPIPE_SCRIPT", def.MediaPipeScript),
		PythonPath:          getEnv("FINGERMOUSE_PYTHON", def.PythonPath),
		WindowName:          getEnv("FINGERMOUSE_WINDOW", def.WindowName),
		QuitKey:             p.getKey("FINGERMOUSE_QUIT_KEY", def.QuitKey),
		DryRun:              p.getBool("FINGERMOUSE_DRY_RUN", def.DryRun),
		ScreenWidth:         p.getInt("FINGERMOUSE_SCREEN_WIDTH", def.ScreenWidth),
		ScreenHeight:        p.getInt("FINGERMOUSE_SCREEN_HEIGHT", def.ScreenHeight),
		PreviewAddr:         getEnv("FINGERMOUSE_PREVIEW_ADDR", def.PreviewAddr),
		LogLevel:            getEnv("FINGERMOUSE_LOG_LEVEL", def.LogLevel),
	}

	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise fail later in confusing ways.
func (c *Config) Validate() error {
	var errs []error

	if c.CameraID < 0 {
		errs = append(errs, fmt.Errorf("camera id %d is negative", c.CameraID))
	}
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		errs = append(errs, fmt.Errorf("frame size %dx%d must be positive", c.FrameWidth, c.FrameHeight))
	}
	if c.MaxHands < 1 {
		errs = append(errs, fmt.Errorf("max hands %d must be at least 1", c.MaxHands))
	}
	if c.DetectionConfidence < 0 || c.DetectionConfidence > 1 {
		errs = append(errs, fmt.Errorf("detection confidence %g outside [0,1]", c.DetectionConfidence))
	}
	if c.TrackingConfidence < 0 || c.TrackingConfidence > 1 {
		errs = append(errs, fmt.Errorf("tracking confidence %g outside [0,1]", c.TrackingConfidence))
	}
	switch {
	case c.QuitKey == 0:
		errs = append(errs, errors.New("quit key is empty"))
	case c.QuitKey > unicode.MaxASCII:
		// Window key codes only carry the low byte.
		errs = append(errs, fmt.Errorf("quit key %q is not ASCII", c.QuitKey))
	}
	if c.DryRun && (c.ScreenWidth <= 0 || c.ScreenHeight <= 0) {
		errs = append(errs, fmt.Errorf("screen size %dx%d must be positive", c.ScreenWidth, c.ScreenHeight))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// parser reads typed variables and keeps the first parse error.
type parser struct {
	err error
}

func (p *parser) fail(k, v string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s=%q: %v", ErrInvalid, k, v, err)
	}
}

func (p *parser) getInt(k string, def int) int {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(k, v, err)
		return def
	}
	return n
}

func (p *parser) getFloat(k string, def float64) float64 {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(k, v, err)
		return def
	}
	return f
}

func (p *parser) getBool(k string, def bool) bool {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(k, v, err)
		return def
	}
	return b
}

func (p *parser) getKey(k string, def rune) rune {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	if utf8.RuneCountInString(v) != 1 {
		p.fail(k, v, errors.New("want a single character"))
		return def
	}
	r, _ := utf8.DecodeRuneInString(v)
	return r
}
