// Package device emulates the operating system permission service with a
// TOML grant file and interactive prompts.
package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/devbydaniel/pipcam/internal/domain/permission"
	"github.com/devbydaniel/pipcam/internal/fsx"
)

// DefaultSDKVersion is reported when neither the config nor the grant file name one.
const DefaultSDKVersion = 34

type grantFile struct {
	SDKVersion int                              `toml:"sdk_version,omitempty"`
	Grants     map[string]permission.GrantState `toml:"grants"`
}

// Device implements permission.Provider.
type Device struct {
	Path       string
	SDK        int // overrides the grant file when set
	AppName    string
	In         io.Reader
	Out        io.Writer
	OpenEditor func(ctx context.Context, path string) error

	mu     sync.Mutex
	reader *bufio.Reader
	fs     *fsx.FS
}

func New(path string, sdk int, in io.Reader, out io.Writer) *Device {
	return &Device{
		Path:       path,
		SDK:        sdk,
		AppName:    "PipCam",
		In:         in,
		Out:        out,
		OpenEditor: openEditor,
		fs:         fsx.New(),
	}
}

func (d *Device) SDKVersion() int {
	if d.SDK > 0 {
		return d.SDK
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if gf, err := d.load(); err == nil && gf.SDKVersion > 0 {
		return gf.SDKVersion
	}
	return DefaultSDKVersion
}

// Check reports the recorded grant. A permission that was never asked for is
// denied, except the special storage permission which the file cannot answer
// until it has been requested once.
func (d *Device) Check(ctx context.Context, nativeID string) (permission.GrantState, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	gf, err := d.load()
	if err != nil {
		return "", err
	}
	if state, ok := gf.Grants[nativeID]; ok {
		return state, nil
	}
	if k, ok := permission.KeyForNativeID(nativeID); ok && k == permission.ManageStorage {
		return permission.Unavailable, nil
	}
	return permission.Denied, nil
}

func (d *Device) Request(ctx context.Context, nativeID string) (permission.GrantState, error) {
	res, err := d.RequestMany(ctx, []string{nativeID})
	if err != nil {
		return "", err
	}
	return res[nativeID], nil
}

// RequestMany prompts for every permission not yet granted and persists the
// answers. A second refusal blocks the permission; blocked permissions are
// not prompted again.
func (d *Device) RequestMany(ctx context.Context, nativeIDs []string) (map[string]permission.GrantState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	gf, err := d.load()
	if err != nil {
		return nil, err
	}
	res := make(map[string]permission.GrantState, len(nativeIDs))
	for _, id := range nativeIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prev := gf.Grants[id]
		switch prev {
		case permission.Granted, permission.Limited, permission.Blocked:
			res[id] = prev
			continue
		}
		allowed, err := d.prompt(id)
		if err != nil {
			return nil, err
		}
		state := permission.Denied
		switch {
		case allowed:
			state = permission.Granted
		case prev == permission.Denied:
			state = permission.Blocked
		}
		gf.Grants[id] = state
		res[id] = state
	}
	if err := d.save(gf); err != nil {
		return nil, err
	}
	return res, nil
}

// OpenSettings opens the grant file in the user's editor.
func (d *Device) OpenSettings(ctx context.Context) error {
	d.mu.Lock()
	gf, err := d.load()
	if err == nil {
		err = d.save(gf)
	}
	d.mu.Unlock()
	if err != nil {
		return err
	}
	if d.OpenEditor == nil {
		fmt.Fprintf(d.Out, "Edit permissions in %s\n", d.Path)
		return nil
	}
	return d.OpenEditor(ctx, d.Path)
}

func (d *Device) prompt(nativeID string) (bool, error) {
	what := nativeID
	if k, ok := permission.KeyForNativeID(nativeID); ok {
		what = fmt.Sprintf("%s (%s)", k.DisplayName(), strings.ToLower(k.Description()))
	}
	fmt.Fprintf(d.Out, "Allow %s to use %s? [y/N]: ", d.AppName, what)

	if d.reader == nil {
		d.reader = bufio.NewReader(d.In)
	}
	line, err := d.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func (d *Device) load() (grantFile, error) {
	gf := grantFile{Grants: map[string]permission.GrantState{}}
	if _, err := toml.DecodeFile(d.Path, &gf); err != nil && !errors.Is(err, os.ErrNotExist) {
		return grantFile{}, fmt.Errorf("reading grant file: %w", err)
	}
	if gf.Grants == nil {
		gf.Grants = map[string]permission.GrantState{}
	}
	return gf, nil
}

func (d *Device) save(gf grantFile) error {
	if d.fs == nil {
		d.fs = fsx.New()
	}
	dir := filepath.Dir(d.Path)
	if err := d.fs.MkdirAll(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(d.Path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := toml.NewEncoder(tmp).Encode(gf); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding grant file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return d.fs.Move(tmpName, d.Path)
}

func openEditor(ctx context.Context, path string) error {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}
	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", editor, err)
	}
	return nil
}
