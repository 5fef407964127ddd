package permission_test

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devbydaniel/pipcam/internal/domain/permission"
)

type providerStub struct {
	mu sync.Mutex

	version    int
	states     map[string]permission.GrantState
	checkErr   map[string]error
	requestErr map[string]error
	batchErr   error

	checked     []string
	batches     [][]string
	singles     []string
	openedCount int
}

func newProviderStub(version int) *providerStub {
	return &providerStub{
		version:    version,
		states:     map[string]permission.GrantState{},
		checkErr:   map[string]error{},
		requestErr: map[string]error{},
	}
}

func (p *providerStub) grant(keys ...permission.Key) {
	for _, k := range keys {
		id, _ := k.NativeID()
		p.states[id] = permission.Granted
	}
}

func (p *providerStub) SDKVersion() int { return p.version }

func (p *providerStub) Check(_ context.Context, id string) (permission.GrantState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checked = append(p.checked, id)
	if err := p.checkErr[id]; err != nil {
		return "", err
	}
	if st, ok := p.states[id]; ok {
		return st, nil
	}
	return permission.Denied, nil
}

func (p *providerStub) Request(_ context.Context, id string) (permission.GrantState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.singles = append(p.singles, id)
	if err := p.requestErr[id]; err != nil {
		return "", err
	}
	if st, ok := p.states[id]; ok {
		return st, nil
	}
	return permission.Denied, nil
}

func (p *providerStub) RequestMany(_ context.Context, ids []string) (map[string]permission.GrantState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, ids)
	if p.batchErr != nil {
		return nil, p.batchErr
	}
	out := make(map[string]permission.GrantState, len(ids))
	for _, id := range ids {
		if st, ok := p.states[id]; ok {
			out[id] = st
		} else {
			out[id] = permission.Denied
		}
	}
	return out, nil
}

func (p *providerStub) OpenSettings(context.Context) error {
	p.openedCount++
	return nil
}

func nativeID(k permission.Key) string {
	id, _ := k.NativeID()
	return id
}

func TestCheckAll_Android14AllGranted(t *testing.T) {
	p := newProviderStub(34)
	p.grant(permission.Camera, permission.FineLocation, permission.CoarseLocation, permission.ReadMediaVideo, permission.ReadMediaImages)
	e := permission.NewEngine(p)

	res, err := e.CheckAll(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Satisfied)
	assert.Equal(t, 34, res.Info.Version)
	assert.True(t, res.Status[permission.ReadMediaVideo])

	// manageStorage is queried on V11+ and its denied state is reported as-is.
	_, queried := res.Status[permission.ManageStorage]
	assert.True(t, queried)
	assert.False(t, res.Status[permission.ManageStorage])
}

func TestCheckAll_QueriesEveryRequiredKeyOnce(t *testing.T) {
	p := newProviderStub(30)
	e := permission.NewEngine(p)

	_, err := e.CheckAll(context.Background())
	require.NoError(t, err)

	got := append([]string(nil), p.checked...)
	sort.Strings(got)
	want := []string{
		nativeID(permission.Camera),
		nativeID(permission.FineLocation),
		nativeID(permission.CoarseLocation),
		nativeID(permission.ReadStorage),
		nativeID(permission.ManageStorage),
	}
	sort.Strings(want)
	assert.Equal(t, want, got)
}

func TestCheckAll_LegacySkipsSpecial(t *testing.T) {
	p := newProviderStub(22)
	p.grant(permission.Camera, permission.CoarseLocation, permission.ReadStorage, permission.WriteStorage)
	e := permission.NewEngine(p)

	res, err := e.CheckAll(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Satisfied)
	assert.NotContains(t, p.checked, nativeID(permission.ManageStorage))
}

func TestCheckAll_SpecialCheckFailureIsOptimistic(t *testing.T) {
	p := newProviderStub(30)
	p.grant(permission.Camera, permission.FineLocation)
	p.checkErr[nativeID(permission.ManageStorage)] = stderrors.New("not supported")
	e := permission.NewEngine(p)

	res, err := e.CheckAll(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Status[permission.ManageStorage])
	assert.True(t, res.Satisfied)
}

func TestCheckAll_SpecialUnavailableHonoursPolicy(t *testing.T) {
	p := newProviderStub(31)
	p.grant(permission.Camera, permission.FineLocation)
	p.states[nativeID(permission.ManageStorage)] = permission.Unavailable

	res, err := permission.NewEngine(p).CheckAll(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Satisfied)

	res, err = permission.NewEngine(p, permission.WithUnavailablePolicy(permission.AssumeDenied)).CheckAll(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Status[permission.ManageStorage])
	assert.False(t, res.Satisfied)
}

func TestCheckAll_RegularFailurePropagates(t *testing.T) {
	p := newProviderStub(34)
	p.checkErr[nativeID(permission.Camera)] = stderrors.New("binder died")
	e := permission.NewEngine(p)

	res, err := e.CheckAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, stderrors.Is(err, permission.ErrCheckFailed))
	assert.Equal(t, "PERMISSION_CHECK_FAILED", errors.Reason(err))
}

func TestCheckAll_Idempotent(t *testing.T) {
	p := newProviderStub(33)
	p.grant(permission.Camera, permission.ReadMediaImages)
	e := permission.NewEngine(p)

	first, err := e.CheckAll(context.Background())
	require.NoError(t, err)
	second, err := e.CheckAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Satisfied, second.Satisfied)
}

func TestCheckAll_ReflectsExternalChanges(t *testing.T) {
	p := newProviderStub(29)
	p.grant(permission.Camera, permission.FineLocation)
	e := permission.NewEngine(p)

	res, err := e.CheckAll(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Satisfied)

	p.grant(permission.ReadStorage)
	res, err = e.CheckAll(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Satisfied)
}

func TestRequestAll_BatchThenSpecial(t *testing.T) {
	p := newProviderStub(30)
	p.grant(permission.Camera, permission.CoarseLocation, permission.ManageStorage)
	e := permission.NewEngine(p)

	res, err := e.RequestAll(context.Background())
	require.NoError(t, err)

	require.Len(t, p.batches, 1)
	assert.ElementsMatch(t, []string{
		nativeID(permission.Camera),
		nativeID(permission.FineLocation),
		nativeID(permission.CoarseLocation),
		nativeID(permission.ReadStorage),
	}, p.batches[0])
	assert.Equal(t, []string{nativeID(permission.ManageStorage)}, p.singles)

	assert.True(t, res.Satisfied)
	assert.Equal(t, permission.Granted, res.Raw[nativeID(permission.ManageStorage)])
	assert.Equal(t, permission.Denied, res.Raw[nativeID(permission.ReadStorage)])
}

func TestRequestAll_SpecialFailureIsDenied(t *testing.T) {
	p := newProviderStub(30)
	p.grant(permission.Camera, permission.FineLocation)
	p.requestErr[nativeID(permission.ManageStorage)] = stderrors.New("activity not found")
	e := permission.NewEngine(p)

	res, err := e.RequestAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, permission.Denied, res.Raw[nativeID(permission.ManageStorage)])
	assert.False(t, res.Status[permission.ManageStorage])
	assert.False(t, res.Satisfied)
}

func TestRequestAll_BatchFailurePropagates(t *testing.T) {
	p := newProviderStub(34)
	p.batchErr = stderrors.New("dialog already showing")
	e := permission.NewEngine(p)

	_, err := e.RequestAll(context.Background())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, permission.ErrRequestFailed))
	assert.Empty(t, p.singles)
}

func TestOpenSettings(t *testing.T) {
	p := newProviderStub(34)
	require.NoError(t, permission.NewEngine(p).OpenSettings(context.Background()))
	assert.Equal(t, 1, p.openedCount)
}
