// Package ffmpeg drives the ffmpeg and ffplay binaries for camera capture,
// transcoding and playback.
package ffmpeg

import (
	"fmt"
	"os/exec"
)

// LookPathFunc resolves a binary on PATH.
type LookPathFunc func(string) (string, error)

func CheckFFmpeg(lookPath LookPathFunc) error {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found. Install with: brew install ffmpeg (or apt install ffmpeg)")
	}
	return nil
}

func CheckFFplay(lookPath LookPathFunc) error {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath("ffplay"); err != nil {
		return fmt.Errorf("ffplay not found. It ships with ffmpeg builds that include SDL")
	}
	return nil
}
