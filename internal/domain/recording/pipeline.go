package recording

import (
	"context"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/devbydaniel/pipcam/internal/domain/recording"

var (
	// ErrCameraNotReady is returned by Start when the camera cannot record yet.
	ErrCameraNotReady = errors.New(412, "CAMERA_NOT_READY", "camera is not ready")
	// ErrRecordingInProgress is returned by Start while a lifecycle is in flight.
	ErrRecordingInProgress = errors.Conflict("RECORDING_IN_PROGRESS", "a recording is already in progress")
	// ErrRecordFailed means the camera did not produce a capture.
	ErrRecordFailed = errors.InternalServer("RECORD_FAILED", "failed to record video")
	// ErrSaveFailed means the capture could not be persisted; no artifact survives.
	ErrSaveFailed = errors.InternalServer("SAVE_FAILED", "recording completed but failed to save")
)

const (
	defaultTranscodeTimeout = 10 * time.Minute
	defaultGalleryTimeout   = time.Minute
)

// Observer receives lifecycle transitions. Calls come from the pipeline's
// worker goroutine.
type Observer interface {
	StateChanged(id uuid.UUID, from, to State)
}

// Pipeline moves one recording at a time from the camera through temp
// storage, transcoding and the three archive destinations.
type Pipeline struct {
	camera     Camera
	fs         FileSystem
	transcoder Transcoder
	gallery    Gallery

	layout           Layout
	profile          Profile
	recordOpts       RecordOptions
	transcodeTimeout time.Duration
	galleryTimeout   time.Duration
	now              func() time.Time
	observer         Observer

	log           *log.Helper
	stageCounter  metric.Int64Counter
	resultCounter metric.Int64Counter

	mu    sync.Mutex
	state State
	id    uuid.UUID
	timer *time.Timer
	stop  chan struct{} // closed by Stop; one per lifecycle
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithProfile(p Profile) Option {
	return func(pl *Pipeline) { pl.profile = p }
}

// WithMaxDuration sets the recording ceiling.
func WithMaxDuration(d time.Duration) Option {
	return func(pl *Pipeline) { pl.recordOpts.MaxDuration = d }
}

// WithQuality sets the capture resolution handed to the camera, e.g. "720p".
func WithQuality(q string) Option {
	return func(pl *Pipeline) { pl.recordOpts.Quality = q }
}

// WithTranscodeTimeout bounds the transcode stage; expiry counts as a transcoder failure.
func WithTranscodeTimeout(d time.Duration) Option {
	return func(pl *Pipeline) { pl.transcodeTimeout = d }
}

func WithGalleryTimeout(d time.Duration) Option {
	return func(pl *Pipeline) { pl.galleryTimeout = d }
}

func WithObserver(o Observer) Option {
	return func(pl *Pipeline) { pl.observer = o }
}

func WithLogger(logger log.Logger) Option {
	return func(pl *Pipeline) { pl.log = log.NewHelper(logger) }
}

func WithClock(now func() time.Time) Option {
	return func(pl *Pipeline) { pl.now = now }
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(pl *Pipeline) { pl.initMetrics(mp) }
}

func NewPipeline(camera Camera, fs FileSystem, transcoder Transcoder, gallery Gallery, layout Layout, opts ...Option) *Pipeline {
	p := &Pipeline{
		camera:     camera,
		fs:         fs,
		transcoder: transcoder,
		gallery:    gallery,
		layout:     layout,
		profile:    DefaultProfile,
		recordOpts: RecordOptions{
			Quality:     "720p",
			MaxDuration: MaxDuration,
		},
		transcodeTimeout: defaultTranscodeTimeout,
		galleryTimeout:   defaultGalleryTimeout,
		now:              time.Now,
		log:              log.NewHelper(log.DefaultLogger),
	}
	p.initMetrics(otel.GetMeterProvider())
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) initMetrics(mp metric.MeterProvider) {
	meter := mp.Meter(meterName)
	stage, err := meter.Int64Counter("pipcam.recording.stage",
		metric.WithDescription("Pipeline stage outcomes"))
	if err != nil {
		stage, _ = noop.NewMeterProvider().Meter(meterName).Int64Counter("pipcam.recording.stage")
	}
	result, err := meter.Int64Counter("pipcam.recording.result",
		metric.WithDescription("Finished recording lifecycles"))
	if err != nil {
		result, _ = noop.NewMeterProvider().Meter(meterName).Int64Counter("pipcam.recording.result")
	}
	p.stageCounter = stage
	p.resultCounter = result
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// CameraReady reports the camera's readiness flag.
func (p *Pipeline) CameraReady() bool {
	return p.camera.Ready()
}

// Start begins a recording. It returns ErrRecordingInProgress unless the
// pipeline is idle and ErrCameraNotReady when the camera is not ready. The
// returned channel receives exactly one Result once the lifecycle ends.
func (p *Pipeline) Start(ctx context.Context) (<-chan Result, error) {
	p.mu.Lock()
	if p.state != Idle {
		p.mu.Unlock()
		return nil, ErrRecordingInProgress
	}
	if !p.camera.Ready() {
		p.mu.Unlock()
		return nil, ErrCameraNotReady
	}
	id := uuid.New()
	p.id = id
	stop := make(chan struct{})
	p.stop = stop
	startedAt := p.now()
	_, from, to := p.advanceLocked(evStart)
	if d := p.recordOpts.MaxDuration; d > 0 {
		p.timer = time.AfterFunc(d, func() {
			if err := p.Stop(); err != nil {
				p.log.Warnf("recording %s: stopping at duration ceiling: %v", id, err)
			}
		})
	}
	p.mu.Unlock()
	p.notify(id, from, to)

	out := make(chan Result, 1)
	go func() {
		out <- p.run(ctx, id, startedAt, stop)
		close(out)
	}()
	return out, nil
}

// Stop ends an in-flight recording. A stop issued before the camera has
// started capturing still ends the recording once capture begins. It is a
// no-op in any other state.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Recording || p.stop == nil {
		return nil
	}
	close(p.stop)
	p.stop = nil
	return nil
}

// Toggle stops an active recording or starts a new one. It returns a nil
// channel when it stopped a recording.
func (p *Pipeline) Toggle(ctx context.Context) (<-chan Result, error) {
	if p.State() == Recording {
		return nil, p.Stop()
	}
	return p.Start(ctx)
}

func (p *Pipeline) run(ctx context.Context, id uuid.UUID, startedAt time.Time, stop <-chan struct{}) Result {
	res := Result{ID: id, Album: p.layout.Album, StartedAt: startedAt}

	raw, err := p.camera.Record(ctx, p.recordOpts, stop)
	p.endCapture()
	res.StoppedAt = p.now()
	if err != nil {
		p.log.Errorf("recording %s: camera failed: %v", id, err)
		res.Err = ErrRecordFailed.WithCause(err)
		p.finish(ctx, &res, evAbort)
		return res
	}
	p.advance(evStopped)

	// Stages after the capture are never abandoned midway.
	return p.archive(context.WithoutCancel(ctx), res, raw)
}

func (p *Pipeline) archive(ctx context.Context, res Result, raw string) Result {
	ts := res.StoppedAt.UnixMilli()
	tempPath := p.layout.TempPath(ts)
	finalPath := p.layout.FinalPath(ts)

	if err := p.persistTemp(raw, tempPath); err != nil {
		p.log.Errorf("recording %s: failed to save: %v", res.ID, err)
		p.countStage(ctx, "persist-temp", "failed")
		res.Err = ErrSaveFailed.WithCause(err)
		p.finish(ctx, &res, evAbort)
		return res
	}
	p.countStage(ctx, "persist-temp", "ok")
	p.log.Debugf("recording %s: moved to temp location %s", res.ID, tempPath)
	p.advance(evPersistTemp)

	p.advance(evTranscode)
	transcoded, err := p.transcodeAndPromote(ctx, res.ID, tempPath, p.layout.TranscodePath(ts), finalPath)
	if err != nil {
		p.log.Errorf("recording %s: failed to save: %v", res.ID, err)
		p.countStage(ctx, "promote", "failed")
		res.Err = ErrSaveFailed.WithCause(err)
		p.finish(ctx, &res, evAbort)
		return res
	}
	res.FinalPath = finalPath
	res.Transcoded = transcoded
	p.advance(evPromote)

	if dst, err := p.copyToDownloads(finalPath, ts); err != nil {
		p.log.Warnf("recording %s: failed to copy to downloads: %v", res.ID, err)
		p.countStage(ctx, "downloads", "failed")
	} else {
		res.DownloadsPath = dst
		res.DownloadsCopied = true
		p.countStage(ctx, "downloads", "ok")
	}
	p.advance(evCopyDownloads)

	if err := p.saveToGallery(ctx, finalPath); err != nil {
		p.log.Warnf("recording %s: failed to save to gallery: %v", res.ID, err)
		p.countStage(ctx, "gallery", "failed")
	} else {
		res.GallerySaved = true
		p.countStage(ctx, "gallery", "ok")
	}
	p.advance(evSaveGallery)

	p.finish(ctx, &res, evFinish)
	return res
}

func (p *Pipeline) persistTemp(raw, tempPath string) error {
	dir := p.layout.RecordingsDir()
	exists, err := p.fs.Exists(dir)
	if err != nil {
		return err
	}
	if !exists {
		if err := p.fs.MkdirAll(dir); err != nil {
			return err
		}
	}
	return p.fs.Move(raw, tempPath)
}

// transcodeAndPromote leaves the artifact at finalPath. On transcoder failure
// the untranscoded temp file is promoted instead; the error return covers only
// the case where neither path produced a final file.
func (p *Pipeline) transcodeAndPromote(ctx context.Context, id uuid.UUID, tempPath, outPath, finalPath string) (bool, error) {
	tctx := ctx
	if p.transcodeTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, p.transcodeTimeout)
		defer cancel()
	}

	err := p.transcoder.Compress(tctx, tempPath, outPath, p.profile)
	if err == nil {
		err = p.fs.Move(outPath, finalPath)
	}
	if err == nil {
		p.countStage(ctx, "transcode", "ok")
		if err := p.fs.Remove(tempPath); err != nil {
			p.log.Warnf("recording %s: failed to delete temp file: %v", id, err)
		}
		return true, nil
	}

	p.log.Warnf("recording %s: transcoding failed, using original: %v", id, err)
	p.countStage(ctx, "transcode", "fallback")
	if ok, _ := p.fs.Exists(outPath); ok {
		if err := p.fs.Remove(outPath); err != nil {
			p.log.Warnf("recording %s: failed to delete partial transcode: %v", id, err)
		}
	}
	if err := p.fs.Move(tempPath, finalPath); err != nil {
		return false, err
	}
	return false, nil
}

func (p *Pipeline) copyToDownloads(finalPath string, ts int64) (string, error) {
	dir := p.layout.AlbumDownloadsDir()
	exists, err := p.fs.Exists(dir)
	if err != nil {
		return "", err
	}
	if !exists {
		if err := p.fs.MkdirAll(dir); err != nil {
			return "", err
		}
	}
	dst := p.layout.DownloadsPath(ts)
	if err := p.fs.Copy(finalPath, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (p *Pipeline) saveToGallery(ctx context.Context, finalPath string) error {
	if p.galleryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.galleryTimeout)
		defer cancel()
	}
	return p.gallery.Save(ctx, finalPath, SaveOptions{Type: "video", Album: p.layout.Album})
}

func (p *Pipeline) finish(ctx context.Context, res *Result, ev event) {
	outcome := "saved"
	if res.Err != nil {
		outcome = errors.Reason(res.Err)
	}
	p.resultCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	p.advance(ev)
}

func (p *Pipeline) countStage(ctx context.Context, stage, outcome string) {
	p.stageCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	))
}

func (p *Pipeline) endCapture() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.stop = nil
}

func (p *Pipeline) advance(ev event) {
	p.mu.Lock()
	id, from, to := p.advanceLocked(ev)
	p.mu.Unlock()
	p.notify(id, from, to)
}

func (p *Pipeline) advanceLocked(ev event) (uuid.UUID, State, State) {
	from := p.state
	to, err := transition(from, ev)
	if err != nil {
		// Only reachable through a programming error in the stage sequence.
		panic(err)
	}
	p.state = to
	return p.id, from, to
}

func (p *Pipeline) notify(id uuid.UUID, from, to State) {
	if p.observer != nil {
		p.observer.StateChanged(id, from, to)
	}
}
