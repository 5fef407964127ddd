package video

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/PuerkitoBio/goquery"
)

var videoExts = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

type catalogFile struct {
	Videos []Video `toml:"video"`
}

// Load returns the catalog from a TOML file, an HTML index page, or the
// built-in samples, in that order of preference. When both paths are set the
// index page is not read.
func Load(tomlPath, indexPath string) ([]Video, error) {
	if tomlPath != "" {
		return LoadTOML(tomlPath)
	}
	if indexPath != "" {
		abs, err := filepath.Abs(indexPath)
		if err != nil {
			return nil, fmt.Errorf("resolving video index: %w", err)
		}
		f, err := os.Open(abs)
		if err != nil {
			return nil, fmt.Errorf("opening video index: %w", err)
		}
		defer f.Close()
		return ParseIndex(f, fileURL(filepath.Dir(abs)))
	}
	return append([]Video(nil), Samples...), nil
}

// LoadTOML reads [[video]] tables from path.
func LoadTOML(path string) ([]Video, error) {
	var cf catalogFile
	if _, err := toml.DecodeFile(path, &cf); err != nil {
		return nil, fmt.Errorf("reading video catalog: %w", err)
	}
	for i := range cf.Videos {
		if cf.Videos[i].ID == "" {
			cf.Videos[i].ID = strconv.Itoa(i + 1)
		}
		if cf.Videos[i].SourceURI == "" {
			return nil, fmt.Errorf("video %q has no uri", cf.Videos[i].ID)
		}
	}
	return cf.Videos, nil
}

// ParseIndex extracts video links from an HTML directory listing. Relative
// links are resolved against base.
func ParseIndex(r io.Reader, base string) ([]Video, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing video index: %w", err)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid index base %q: %w", base, err)
	}

	var videos []Video
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil || !videoExts[strings.ToLower(path.Ext(ref.Path))] {
			return
		}
		src := baseURL.ResolveReference(ref).String()
		if seen[src] {
			return
		}
		seen[src] = true

		title := strings.TrimSpace(sel.Text())
		if title == "" || title == href {
			title = strings.TrimSuffix(path.Base(ref.Path), path.Ext(ref.Path))
		}
		v := Video{
			ID:        strconv.Itoa(len(videos) + 1),
			Title:     title,
			SourceURI: src,
		}
		if thumb, ok := sel.Find("img[src]").Attr("src"); ok {
			if tu, err := url.Parse(thumb); err == nil {
				v.ThumbnailURI = baseURL.ResolveReference(tu).String()
			}
		}
		if d, ok := sel.Attr("data-duration"); ok {
			v.Duration = d
		}
		if s, ok := sel.Attr("data-size"); ok {
			v.Size = s
		}
		videos = append(videos, v)
	})
	return videos, nil
}

// fileURL turns an absolute directory into a file:// base ending in a slash.
func fileURL(dir string) string {
	dir = filepath.ToSlash(dir)
	if !strings.HasPrefix(dir, "/") {
		dir = "/" + dir // Windows drive letters
	}
	return "file://" + strings.TrimSuffix(dir, "/") + "/"
}
