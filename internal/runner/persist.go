package runner

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/CosmoTheDev/snyklines/internal/report"
)

// OutputOptions says where the report goes.
type OutputOptions struct {
	// Path is used verbatim when set.
	Path string
	// Dir holds auto-named reports when Path is empty.
	Dir    string
	Format report.Format
}

// OutputPath returns the caller's path, or an auto-generated name encoding
// the mode and now.
func OutputPath(o OutputOptions, mode Mode, now time.Time) string {
	if o.Path != "" {
		return o.Path
	}
	name := report.DefaultFilename(string(mode), now, o.Format)
	if o.Dir == "" {
		return name
	}
	return filepath.Join(o.Dir, name)
}

// Persist prints the console summary and then writes the report. The
// summary is shown even when the write fails.
func Persist(w io.Writer, res *Result, o OutputOptions, now time.Time) (string, error) {
	report.Display(w, res.Report)

	path := OutputPath(o, res.Target.Mode(), now)
	if err := report.Write(path, res.Report, o.Format); err != nil {
		return path, fmt.Errorf("saving organization summary to %s: %w", path, err)
	}
	fmt.Fprintf(w, "Saved organization vulnerable lines summary to %s\n", path)
	return path, nil
}
