package recording

import (
	"context"
	"errors"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
)

// Session couples a video playback to the pipeline. Playback reaching
// "playing" starts a recording when auto-record is on; playback ending stops
// it. Manual toggles go through the same pipeline guard.
type Session struct {
	pipeline   *Pipeline
	autoRecord bool
	showCamera bool
	log        *log.Helper

	mu      sync.Mutex
	playing bool
	ended   bool
	closed  bool
	wg      sync.WaitGroup
	results chan Result
}

// ErrSessionClosed is returned by Toggle after End or Close.
var ErrSessionClosed = errors.New("playback session closed")

func NewSession(p *Pipeline, autoRecord bool, logger log.Logger) *Session {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &Session{
		pipeline:   p,
		autoRecord: autoRecord,
		showCamera: true,
		log:        log.NewHelper(logger),
		results:    make(chan Result, 8),
	}
}

// SetCameraVisible toggles the picture-in-picture preview. Auto-record only
// fires while the preview is shown.
func (s *Session) SetCameraVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showCamera = visible
}

// Results delivers one Result per finished recording.
func (s *Session) Results() <-chan Result {
	return s.results
}

// SetPlaying reports a playback state change. It reports whether a
// recording was started.
func (s *Session) SetPlaying(ctx context.Context, playing bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	started := playing && !s.playing
	s.playing = playing

	if !started || !s.autoRecord || !s.showCamera || s.ended || s.closed {
		return false
	}
	if !s.pipeline.CameraReady() || s.pipeline.State() != Idle {
		return false
	}
	ch, err := s.pipeline.Start(ctx)
	if err != nil {
		s.log.Debugf("auto-record skipped: %v", err)
		return false
	}
	s.forward(ch)
	return true
}

// End reports that playback finished. It stops the recording in flight and
// the session accepts no new recordings afterwards.
func (s *Session) End() error {
	s.mu.Lock()
	s.playing = false
	s.ended = true
	s.mu.Unlock()
	return s.pipeline.Stop()
}

// Toggle is the manual record button.
func (s *Session) Toggle(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || s.closed {
		return ErrSessionClosed
	}
	ch, err := s.pipeline.Toggle(ctx)
	if err != nil {
		return err
	}
	if ch != nil {
		s.forward(ch)
	}
	return nil
}

// Close waits for in-flight recordings to finish and closes Results. Later
// toggles fail with ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	close(s.results)
}

// forward must be called with s.mu held.
func (s *Session) forward(ch <-chan Result) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for res := range ch {
			s.results <- res
		}
	}()
}
