// Package gallery stores recordings in a media gallery laid out as one
// directory per album with a TOML index of its entries.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/devbydaniel/pipcam/internal/domain/recording"
	"github.com/devbydaniel/pipcam/internal/fsx"
)

const indexName = "album.toml"

// Entry is one item of an album index.
type Entry struct {
	ID      string    `toml:"id"`
	Type    string    `toml:"type"`
	Name    string    `toml:"name"`
	Source  string    `toml:"source"`
	SavedAt time.Time `toml:"saved_at"`
}

type index struct {
	Album   string  `toml:"album"`
	Entries []Entry `toml:"entry"`
}

// Gallery implements recording.Gallery on a local directory tree.
type Gallery struct {
	Root string
	fs   *fsx.FS
	now  func() time.Time
	mu   sync.Mutex
}

func New(root string) *Gallery {
	return &Gallery{Root: root, fs: fsx.New(), now: time.Now}
}

// Save copies path into the album and records it in the album index.
func (g *Gallery) Save(ctx context.Context, path string, opts recording.SaveOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch opts.Type {
	case "video", "photo":
	default:
		return fmt.Errorf("unsupported media type %q", opts.Type)
	}
	if opts.Album == "" {
		return errors.New("album is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	dir := filepath.Join(g.Root, opts.Album)
	if err := g.fs.MkdirAll(dir); err != nil {
		return fmt.Errorf("creating album: %w", err)
	}
	name := filepath.Base(path)
	if err := g.fs.Copy(path, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("copying into album: %w", err)
	}

	idx, err := g.readIndex(dir)
	if err != nil {
		return err
	}
	idx.Album = opts.Album
	idx.Entries = append(idx.Entries, Entry{
		ID:      uuid.NewString(),
		Type:    opts.Type,
		Name:    name,
		Source:  path,
		SavedAt: g.now().UTC(),
	})
	return g.writeIndex(dir, idx)
}

// Entries lists the album's index.
func (g *Gallery) Entries(album string) ([]Entry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx, err := g.readIndex(filepath.Join(g.Root, album))
	if err != nil {
		return nil, err
	}
	return idx.Entries, nil
}

func (g *Gallery) readIndex(dir string) (index, error) {
	var idx index
	_, err := toml.DecodeFile(filepath.Join(dir, indexName), &idx)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return index{}, fmt.Errorf("reading album index: %w", err)
	}
	return idx, nil
}

func (g *Gallery) writeIndex(dir string, idx index) error {
	tmp, err := os.CreateTemp(dir, "."+indexName+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := toml.NewEncoder(tmp).Encode(idx); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding album index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return g.fs.Move(tmpName, filepath.Join(dir, indexName))
}
