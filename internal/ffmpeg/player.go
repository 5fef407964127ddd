package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Player plays videos in an ffplay window.
type Player struct{}

func NewPlayer() *Player {
	return &Player{}
}

// PlayArgs builds the ffplay command line.
func PlayArgs(uri, title string) []string {
	args := []string{"-autoexit", "-loglevel", "error"}
	if title != "" {
		args = append(args, "-window_title", title)
	}
	return append(args, uri)
}

// Play blocks until playback ends or ctx is done. onStart runs once the
// player process is up.
func (p *Player) Play(ctx context.Context, uri, title string, onStart func()) error {
	cmd := exec.CommandContext(ctx, "ffplay", PlayArgs(uri, title)...)
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffplay: %w", err)
	}
	if onStart != nil {
		onStart()
	}
	if err := cmd.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("playing %s: %w", uri, err)
	}
	return nil
}
