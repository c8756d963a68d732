package scanner

import (
	"sort"
	"strings"

	"github.com/deploymenttheory/go-rom-manager/internal/romset"
)

// Collection is the outcome of scanning one ROM directory against one DAT
type Collection struct {
	Name       string              `json:"name" yaml:"name" plist:"name"`
	DATEntries int                 `json:"dat_entries" yaml:"dat_entries" plist:"dat_entries"`
	Sets       []romset.ArchiveSet `json:"sets" yaml:"sets" plist:"sets"`

	byName map[string]int
}

// Stats aggregates set counts by status
type Stats struct {
	DATEntries int `json:"dat_entries" yaml:"dat_entries"`
	Total      int `json:"total" yaml:"total"`
	Good       int `json:"good" yaml:"good"`
	BadName    int `json:"bad_name" yaml:"bad_name"`
	Missing    int `json:"missing" yaml:"missing"`
	Unknown    int `json:"unknown" yaml:"unknown"`
	Error      int `json:"error" yaml:"error"`
}

// Found is the number of sets present on disk
func (s Stats) Found() int {
	return s.Total - s.Missing
}

// Count returns the number of sets with the given status
func (s Stats) Count(status romset.SetStatus) int {
	switch status {
	case romset.SetGood:
		return s.Good
	case romset.SetBadName:
		return s.BadName
	case romset.SetMissing:
		return s.Missing
	case romset.SetUnknown:
		return s.Unknown
	case romset.SetError:
		return s.Error
	}
	return 0
}

// Sort orders sets case-insensitively by base name, ties broken by path
func (c *Collection) Sort() {
	sort.SliceStable(c.Sets, func(i, j int) bool {
		a, b := strings.ToLower(c.Sets[i].BaseName), strings.ToLower(c.Sets[j].BaseName)
		if a != b {
			return a < b
		}
		return c.Sets[i].Path < c.Sets[j].Path
	})
}

// Reindex rebuilds the base name lookup. Call it after Sets changes.
func (c *Collection) Reindex() {
	c.byName = make(map[string]int, len(c.Sets))
	for i, set := range c.Sets {
		if _, exists := c.byName[set.BaseName]; !exists {
			c.byName[set.BaseName] = i
		}
	}
}

// Lookup returns the first set with the exact base name
func (c *Collection) Lookup(baseName string) (*romset.ArchiveSet, bool) {
	if c.byName == nil {
		c.Reindex()
	}
	i, ok := c.byName[baseName]
	if !ok {
		return nil, false
	}
	return &c.Sets[i], true
}

// Filter returns the sets whose status is one of statuses, in collection order
func (c *Collection) Filter(statuses ...romset.SetStatus) []romset.ArchiveSet {
	want := make(map[romset.SetStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}

	var out []romset.ArchiveSet
	for _, set := range c.Sets {
		if want[set.Status] {
			out = append(out, set)
		}
	}
	return out
}

// Issues returns every set that is not Good
func (c *Collection) Issues() []romset.ArchiveSet {
	return c.Filter(romset.SetBadName, romset.SetMissing, romset.SetUnknown, romset.SetError)
}

// Stats counts sets by status
func (c *Collection) Stats() Stats {
	st := Stats{DATEntries: c.DATEntries, Total: len(c.Sets)}
	for _, set := range c.Sets {
		switch set.Status {
		case romset.SetGood:
			st.Good++
		case romset.SetBadName:
			st.BadName++
		case romset.SetMissing:
			st.Missing++
		case romset.SetUnknown:
			st.Unknown++
		case romset.SetError:
			st.Error++
		}
	}
	return st
}
