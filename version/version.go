package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"text/tabwriter"
	"time"
)

// Stamped by the release build:
//
//	go build -ldflags "-X github.com/kbukum/fluxmux/version.Version=1.4.0 -X ..."
var (
	Version = "dev"
	Commit  = ""
	Branch  = ""
	Date    = ""
)

// Info describes the running binary.
type Info struct {
	Version  string    `json:"version"`
	Commit   string    `json:"commit,omitempty"`
	Branch   string    `json:"branch,omitempty"`
	Built    time.Time `json:"built,omitzero"`
	Go       string    `json:"go"`
	Platform string    `json:"platform"`
	Modified bool      `json:"modified,omitempty"`
}

// Get merges the ldflags values with the VCS stamp the Go toolchain embeds.
// ldflags win; the commit is abbreviated to seven characters.
func Get() Info {
	info := Info{
		Version:  Version,
		Commit:   Commit,
		Branch:   Branch,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	info.Built, _ = time.Parse(time.RFC3339, Date)

	if bi, ok := debug.ReadBuildInfo(); ok {
		vcs := map[string]string{}
		for _, s := range bi.Settings {
			vcs[s.Key] = s.Value
		}
		if info.Commit == "" {
			info.Commit = vcs["vcs.revision"]
		}
		if info.Built.IsZero() {
			info.Built, _ = time.Parse(time.RFC3339, vcs["vcs.time"])
		}
		info.Modified = vcs["vcs.modified"] == "true"
	}
	if len(info.Commit) > 7 {
		info.Commit = info.Commit[:7]
	}
	return info
}

// Short returns Get().String().
func Short() string { return Get().String() }

// String renders "version[-commit][-dirty]".
func (i Info) String() string {
	s := i.Version
	if i.Commit != "" {
		s += "-" + i.Commit
	}
	if i.Modified {
		s += "-dirty"
	}
	return s
}

// Write prints an aligned field per line, skipping unknown ones.
func (i Info) Write(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", k, v)
		}
	}
	row("version", i.Version)
	row("commit", i.Commit)
	row("branch", i.Branch)
	if !i.Built.IsZero() {
		row("built", i.Built.UTC().Format(time.RFC3339))
	}
	row("go", i.Go)
	row("platform", i.Platform)
	_ = tw.Flush()
}
