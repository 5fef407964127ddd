package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devbydaniel/pipcam/internal/domain/permission"
	"github.com/devbydaniel/pipcam/internal/domain/recording"
	"github.com/devbydaniel/pipcam/internal/domain/video"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) RecordingStarted(max time.Duration) {
	fmt.Fprintf(f.w, "🔴 Recording... (Ctrl+C to stop, max %s)\n", formatDuration(max))
}

func (f *Formatter) RecordingStopped(duration time.Duration) {
	fmt.Fprintf(f.w, "⏹️  Recording stopped (%s)\n", formatDuration(duration))
}

// StateChanged reports archive progress; it satisfies recording.Observer.
func (f *Formatter) StateChanged(_ uuid.UUID, _, to recording.State) {
	switch to {
	case recording.Stopped:
		fmt.Fprintf(f.w, "💾 Saving recording...\n")
	case recording.Transcoding:
		fmt.Fprintf(f.w, "🎞️  Processing video...\n")
	}
}

func (f *Formatter) RecordingSaved(res recording.Result) {
	if !res.Succeeded() {
		f.Error(res.Message())
		if res.Err != nil {
			fmt.Fprintf(f.w, "   %v\n", res.Err)
		}
		return
	}
	f.Success(res.Message())
	fmt.Fprintf(f.w, "  📁 %s\n", res.FinalPath)
	if res.DownloadsCopied {
		fmt.Fprintf(f.w, "  📥 %s\n", res.DownloadsPath)
	}
}

func (f *Formatter) PermissionReport(res *permission.Result) {
	tier := permission.StorageTier(res.Info)
	fmt.Fprintf(f.w, "🔐 Permissions (SDK %d, %s storage):\n\n", res.Info.Version, tier.Name)
	for _, d := range permission.Details(res.Status, res.Info) {
		mark := "❌"
		if d.Granted {
			mark = "✅"
		}
		req := ""
		if d.Required {
			req = " (required)"
		}
		fmt.Fprintf(f.w, "  %s %s%s: %s\n", mark, d.DisplayName, req, d.Description)
	}
	fmt.Fprintln(f.w)
	if res.Satisfied {
		f.Success("All required permissions granted")
		return
	}
	f.Warning("Some required permissions are missing")
}

// DeniedHint lists the missing permissions and how to fix them.
func (f *Formatter) DeniedHint(denied []permission.Key, needsSettings bool) {
	if len(denied) == 0 {
		return
	}
	names := make([]string, len(denied))
	for i, k := range denied {
		names[i] = k.DisplayName()
	}
	fmt.Fprintf(f.w, "   Missing: %s\n", strings.Join(names, ", "))
	if needsSettings {
		fmt.Fprintf(f.w, "   Some permissions can only be granted from settings: run 'pipcam permissions settings'\n")
	} else {
		fmt.Fprintf(f.w, "   Run 'pipcam permissions request' to grant them\n")
	}
}

func (f *Formatter) VideoListHeader() {
	fmt.Fprintf(f.w, "🎬 Videos:\n\n")
}

func (f *Formatter) VideoListItem(v video.Video) {
	meta := []string{}
	if v.Duration != "" {
		meta = append(meta, v.Duration)
	}
	if v.Size != "" {
		meta = append(meta, v.Size)
	}
	if len(meta) > 0 {
		fmt.Fprintf(f.w, "  %-3s %s (%s)\n", v.ID, v.Title, strings.Join(meta, ", "))
		return
	}
	fmt.Fprintf(f.w, "  %-3s %s\n", v.ID, v.Title)
}

func (f *Formatter) NowPlaying(v video.Video, autoRecord bool) {
	fmt.Fprintf(f.w, "▶️  Playing %s\n", v.Title)
	if autoRecord {
		fmt.Fprintf(f.w, "   Camera recording starts with playback\n")
	}
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) SetupCheck(name string, ok bool, detail string) {
	if ok {
		fmt.Fprintf(f.w, "  ✅ %s: %s\n", name, detail)
	} else {
		fmt.Fprintf(f.w, "  ❌ %s: %s\n", name, detail)
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
