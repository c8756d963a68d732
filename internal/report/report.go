// Package report formats collections for terminals and export files.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gookit/color"

	"github.com/deploymenttheory/go-rom-manager/internal/romset"
	"github.com/deploymenttheory/go-rom-manager/internal/scanner"
)

// statusWidth fits the longest status name
const statusWidth = 7

var setStatusTheme = map[romset.SetStatus]*color.Theme{
	romset.SetGood:    color.Success,
	romset.SetBadName: color.Warn,
	romset.SetMissing: color.Notice,
	romset.SetUnknown: color.Secondary,
	romset.SetError:   color.Error,
}

// SetColor turns ANSI colors on or off for everything this package prints
func SetColor(enabled bool) {
	color.Enable = enabled
}

func statusTag(s romset.SetStatus) string {
	text := fmt.Sprintf("%-*s", statusWidth, s.String())
	if theme, ok := setStatusTheme[s]; ok {
		return theme.Sprint(text)
	}
	return text
}

// WriteSummary prints the scan summary block of one collection
func WriteSummary(w io.Writer, name string, st scanner.Stats) {
	fmt.Fprintf(w, "\n=== Scanner summary for collection %q ===\n", name)
	for _, line := range []struct {
		label string
		n     int
	}{
		{"Total SETs in DAT", st.DATEntries},
		{"Total SETs", st.Total},
		{"Have SETs", st.Good},
		{"BadName SETs", st.BadName},
		{"Miss SETs", st.Missing},
		{"Unknown SETs", st.Unknown},
		{"Error SETs", st.Error},
	} {
		fmt.Fprintf(w, "%-18s%6s\n", line.label, humanize.Comma(int64(line.n)))
	}
}

// EntryLister returns the entry names stored in an archive
type EntryLister func(path string) ([]string, error)

// WriteSets prints one SET line per set followed by its ROM lines and returns
// the number of sets printed. When list is set, Error sets that are still
// readable archives get one ENTRY line per stored name.
func WriteSets(w io.Writer, sets []romset.ArchiveSet, list EntryLister) int {
	for _, set := range sets {
		line := fmt.Sprintf("%s %s %q", color.Red.Sprint("SET"), statusTag(set.Status), set.BaseName)
		if set.Reason != "" {
			line += " " + color.Gray.Sprintf("(%s)", set.Reason)
		}
		fmt.Fprintln(w, line)

		for _, rom := range set.Roms {
			status := fmt.Sprintf("%-*s", statusWidth, rom.Status.String())
			size := ""
			if rom.Size > 0 {
				size = " " + color.Gray.Sprint(humanize.IBytes(uint64(rom.Size)))
			}
			if rom.Status == romset.RomBadName {
				fmt.Fprintf(w, "ROM %s %q -> %q%s\n", status, rom.Name, rom.CorrectedName, size)
			} else {
				fmt.Fprintf(w, "ROM %s %q%s\n", status, rom.Name, size)
			}
		}

		if set.Status == romset.SetError && list != nil {
			names, err := list(set.Path)
			if err != nil {
				continue
			}
			for _, name := range names {
				fmt.Fprintf(w, "    ENTRY %q\n", name)
			}
		}
	}
	return len(sets)
}

// CollectionRow is one configured collection
type CollectionRow struct {
	Name     string
	Platform string
	DAT      string
	ROMDir   string
}

// WriteCollections prints the configured collections as a table
func WriteCollections(w io.Writer, rows []CollectionRow) error {
	t := NewTable(nil, "Name", "Platform", "DAT file", "ROM dir")
	for _, r := range rows {
		t.AddRow(r.Name, r.Platform, r.DAT, r.ROMDir)
	}
	return t.Write(w)
}

// StatsRow is the saved scan state of one collection. A zero SavedAt means the
// collection has not been scanned.
type StatsRow struct {
	Name    string
	SavedAt time.Time
	Stats   scanner.Stats
}

// WriteStatsTable prints one row of counts per collection
func WriteStatsTable(w io.Writer, rows []StatsRow, now time.Time) error {
	right := []Align{Left, Right, Right, Right, Right, Right, Right, Right, Left}
	t := NewTable(right, "Collection", "DAT SETs", "Total", "Have", "BadName", "Miss", "Unknown", "Error", "Scanned")
	for _, r := range rows {
		if r.SavedAt.IsZero() {
			t.AddRow(r.Name, "-", "-", "-", "-", "-", "-", "-", "never")
			continue
		}
		st := r.Stats
		t.AddRow(r.Name,
			humanize.Comma(int64(st.DATEntries)),
			humanize.Comma(int64(st.Total)),
			humanize.Comma(int64(st.Good)),
			humanize.Comma(int64(st.BadName)),
			humanize.Comma(int64(st.Missing)),
			humanize.Comma(int64(st.Unknown)),
			humanize.Comma(int64(st.Error)),
			humanize.RelTime(r.SavedAt, now, "ago", "from now"),
		)
	}
	return t.Write(w)
}
