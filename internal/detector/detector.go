package detector

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Detector defines the interface for hand landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
// The confidence thresholds are passed to the model unchanged.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath overrides the location of the MediaPipe service script.
	ScriptPath string

	// PythonPath overrides the Python interpreter used to run the script.
	PythonPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}

// Args returns the command line flags that forward the model settings to
// the landmark service.
func (c Config) Args() []string {
	return []string{
		"--max-hands", fmt.Sprintf("%d", c.MaxHands),
		"--min-detection-confidence", fmt.Sprintf("%g", c.MinConfidence),
		"--min-tracking-confidence", fmt.Sprintf("%g", c.MinTrackingConf),
	}
}

// limitHands truncates hands to at most max entries. A non-positive max
// leaves the slice untouched.
func limitHands(hands []HandLandmarks, max int) []HandLandmarks {
	if max > 0 && len(hands) > max {
		return hands[:max]
	}
	return hands
}
