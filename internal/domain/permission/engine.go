package permission

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrCheckFailed is returned when the provider rejects a regular permission check.
	ErrCheckFailed = errors.New(503, "PERMISSION_CHECK_FAILED", "failed to check permissions")
	// ErrRequestFailed is returned when the provider rejects the batch request.
	ErrRequestFailed = errors.New(503, "PERMISSION_REQUEST_FAILED", "failed to request permissions")
	// ErrNotSatisfied is returned by callers gating features on the verdict.
	ErrNotSatisfied = errors.Forbidden("PERMISSIONS_NOT_SATISFIED", "required permissions are not granted")
)

// Provider is the operating system's permission service.
type Provider interface {
	SDKVersion() int
	Check(ctx context.Context, nativeID string) (GrantState, error)
	Request(ctx context.Context, nativeID string) (GrantState, error)
	RequestMany(ctx context.Context, nativeIDs []string) (map[string]GrantState, error)
	OpenSettings(ctx context.Context) error
}

// UnavailablePolicy decides how a special permission is reported when the
// provider cannot answer a check for it.
type UnavailablePolicy int

const (
	// AssumeGranted treats an unanswerable special check as granted.
	AssumeGranted UnavailablePolicy = iota
	// AssumeDenied treats an unanswerable special check as denied.
	AssumeDenied
)

// Result is the outcome of one check or request cycle.
type Result struct {
	Status    Status
	Satisfied bool
	Info      VersionInfo
	// Raw holds per-permission request outcomes keyed by native id. Only set by RequestAll.
	Raw map[string]GrantState
}

// Engine resolves which permissions are needed and whether they are granted.
// Every call re-queries the provider; nothing is cached.
type Engine struct {
	provider    Provider
	unavailable UnavailablePolicy
	log         *log.Helper
}

// Option configures an Engine.
type Option func(*Engine)

// WithUnavailablePolicy overrides the default AssumeGranted policy.
func WithUnavailablePolicy(p UnavailablePolicy) Option {
	return func(e *Engine) { e.unavailable = p }
}

// WithLogger sets the engine logger.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) { e.log = log.NewHelper(logger) }
}

func NewEngine(provider Provider, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		log:      log.NewHelper(log.DefaultLogger),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Info classifies the provider's current SDK level.
func (e *Engine) Info() VersionInfo {
	return Classify(e.provider.SDKVersion())
}

// CheckAll queries every required key plus the special keys for this
// generation. Regular checks run concurrently.
func (e *Engine) CheckAll(ctx context.Context) (*Result, error) {
	info := e.Info()
	regular := regularKeys(info)
	special := specialKeys(info)

	states := make([]GrantState, len(regular))
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range regular {
		g.Go(func() error {
			id, _ := k.NativeID()
			st, err := e.provider.Check(gctx, id)
			if err != nil {
				return fmt.Errorf("checking %s: %w", k, err)
			}
			states[i] = st
			return nil
		})
	}

	specialGranted := make([]bool, len(special))
	for i, k := range special {
		g.Go(func() error {
			specialGranted[i] = e.checkSpecial(gctx, k)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.log.Errorf("permission check failed: %v", err)
		return nil, ErrCheckFailed.WithCause(err)
	}

	status := make(Status, len(regular)+len(special))
	for i, k := range regular {
		status[k] = states[i] == Granted
	}
	for i, k := range special {
		status[k] = specialGranted[i]
	}

	return &Result{
		Status:    status,
		Satisfied: IsSatisfied(status, info),
		Info:      info,
	}, nil
}

func (e *Engine) checkSpecial(ctx context.Context, k Key) bool {
	id, _ := k.NativeID()
	st, err := e.provider.Check(ctx, id)
	if err != nil || st == Unavailable {
		if err != nil {
			e.log.Warnf("special permission %s could not be checked: %v", k, err)
		}
		return e.unavailable == AssumeGranted
	}
	return st == Granted
}

// RequestAll requests the regular keys in one batch, then each special key on
// its own. A failed special request is recorded as denied.
func (e *Engine) RequestAll(ctx context.Context) (*Result, error) {
	info := e.Info()
	regular := regularKeys(info)

	ids := make([]string, 0, len(regular))
	for _, k := range regular {
		id, _ := k.NativeID()
		ids = append(ids, id)
	}

	raw, err := e.provider.RequestMany(ctx, ids)
	if err != nil {
		e.log.Errorf("permission request failed: %v", err)
		return nil, ErrRequestFailed.WithCause(err)
	}
	if raw == nil {
		raw = make(map[string]GrantState, len(ids))
	}

	for _, k := range specialKeys(info) {
		id, _ := k.NativeID()
		st, err := e.provider.Request(ctx, id)
		if err != nil {
			e.log.Warnf("failed to request %s: %v", id, err)
			st = Denied
		}
		raw[id] = st
	}

	status := make(Status, len(raw))
	for id, st := range raw {
		k, ok := KeyForNativeID(id)
		if !ok {
			continue
		}
		status[k] = st == Granted
	}

	return &Result{
		Status:    status,
		Satisfied: IsSatisfied(status, info),
		Info:      info,
		Raw:       raw,
	}, nil
}

// OpenSettings hands off to the system settings screen.
func (e *Engine) OpenSettings(ctx context.Context) error {
	if err := e.provider.OpenSettings(ctx); err != nil {
		return fmt.Errorf("opening settings: %w", err)
	}
	return nil
}
