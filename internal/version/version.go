package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at link time by release builds.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
	BuiltBy = ""
)

var readBuildInfo = debug.ReadBuildInfo

// Info is the resolved build metadata. Builds without link-time values fall
// back to what `go install` records in the binary.
type Info struct {
	Version   string
	Commit    string
	Date      string
	BuiltBy   string
	GoVersion string
}

func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		BuiltBy:   BuiltBy,
		GoVersion: runtime.Version(),
	}
	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "none" && len(s.Value) >= 7 {
				info.Commit = s.Value[:7]
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		}
	}
	return info
}

func (i Info) String() string {
	result := fmt.Sprintf("pipcam %s, commit %s, built at %s with %s", i.Version, i.Commit, i.Date, i.GoVersion)
	if i.BuiltBy != "" {
		result += fmt.Sprintf(" by %s", i.BuiltBy)
	}
	return result
}

func Full() string {
	return Get().String()
}
