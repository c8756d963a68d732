package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"howett.net/plist"

	"github.com/deploymenttheory/go-rom-manager/internal/romset"
	"github.com/deploymenttheory/go-rom-manager/internal/scanner"
	compression "github.com/deploymenttheory/go-rom-manager/internal/utils/compressionutil"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
)

func TestMain(m *testing.M) {
	SetColor(false)
	os.Exit(m.Run())
}

func sampleCollection() *scanner.Collection {
	bad := romset.NewArchiveSet("/roms/alpha.zip")
	bad.Status = romset.SetBadName
	bad.CorrectedPath = "/roms/Alpha (USA).zip"
	bad.Roms = []romset.ObservedRom{{
		Name: "alpha.nes", CorrectedName: "Alpha (USA).nes", Size: 2048,
		CRC: "D87F7E0C", Status: romset.RomBadName,
	}}

	missing := romset.NewArchiveSet("/roms/Beta.zip")
	missing.Status = romset.SetMissing
	missing.Roms = []romset.ObservedRom{{Name: "Beta.nes", CorrectedName: "Beta.nes", Status: romset.RomMissing}}

	broken := romset.NewArchiveSet("/roms/broken.zip")
	broken.Status = romset.SetError
	broken.Reason = "not a zip"

	return &scanner.Collection{Name: "nes", DATEntries: 2, Sets: []romset.ArchiveSet{bad, missing, broken}}
}

func TestTableAlignment(t *testing.T) {
	tbl := NewTable([]Align{Left, Right}, "Name", "Count")
	tbl.AddRow("nes", "1,234")
	tbl.AddRow("megadrive", "7")
	tbl.AddRow("extra", "1", "dropped")

	assert.Equal(t, []string{
		"Name       Count",
		"----------------",
		"nes        1,234",
		"megadrive      7",
		"extra          1",
	}, tbl.Lines())
	assert.Equal(t, 3, tbl.Len())
}

func TestTableLeftPadsAndTrims(t *testing.T) {
	tbl := NewTable(nil, "A", "B")
	tbl.AddRow("long value")
	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf))
	assert.Equal(t, "A           B\n-------------\nlong value\n", buf.String())
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, "nes", scanner.Stats{DATEntries: 12345, Total: 3, Good: 1, Missing: 2})

	out := buf.String()
	assert.Contains(t, out, `=== Scanner summary for collection "nes" ===`)
	assert.Contains(t, out, "Total SETs in DAT 12,345\n")
	assert.Contains(t, out, "Miss SETs              2\n")
}

func TestWriteSets(t *testing.T) {
	var buf bytes.Buffer
	n := WriteSets(&buf, sampleCollection().Sets, nil)
	assert.Equal(t, 3, n)

	assert.Equal(t, strings.Join([]string{
		`SET BadName "alpha.zip"`,
		`ROM BadName "alpha.nes" -> "Alpha (USA).nes" 2.0 KiB`,
		`SET Missing "Beta.zip"`,
		`ROM Missing "Beta.nes"`,
		`SET Error   "broken.zip" (not a zip)`,
		``,
	}, "\n"), buf.String())
}

func TestWriteSetsListsErrorEntries(t *testing.T) {
	dir := t.TempDir()
	two := filepath.Join(dir, "two.zip")
	f, err := os.Create(two)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range []string{"a.nes", "b.nes"} {
		_, err := zw.Create(name)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	multi := romset.NewArchiveSet(two)
	multi.Status = romset.SetError
	multi.Reason = "2 entries"
	gone := romset.NewArchiveSet(filepath.Join(dir, "gone.zip"))
	gone.Status = romset.SetError
	gone.Reason = "not found"

	var buf bytes.Buffer
	n := WriteSets(&buf, []romset.ArchiveSet{multi, gone}, compression.ListZIP)
	assert.Equal(t, 2, n)
	assert.Equal(t, strings.Join([]string{
		`SET Error   "two.zip" (2 entries)`,
		`    ENTRY "a.nes"`,
		`    ENTRY "b.nes"`,
		`SET Error   "gone.zip" (not found)`,
		``,
	}, "\n"), buf.String())
}

func TestWriteCollections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCollections(&buf, []CollectionRow{
		{Name: "nes", Platform: "Nintendo NES", DAT: "nes.dat", ROMDir: "/roms/nes"},
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name  Platform      DAT file  ROM dir", lines[0])
	assert.Equal(t, "nes   Nintendo NES  nes.dat   /roms/nes", lines[2])
}

func TestWriteStatsTable(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, WriteStatsTable(&buf, []StatsRow{
		{Name: "nes", SavedAt: now.Add(-2 * time.Hour), Stats: sampleCollection().Stats()},
		{Name: "snes"},
	}, now))

	out := buf.String()
	assert.Contains(t, out, "2 hours ago")
	assert.Contains(t, out, "never")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatJSON, "YAML": FormatYAML, "yml": FormatYAML, "plist": FormatPlist} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("csv")
	assert.ErrorIs(t, err, errors.ErrUnsupportedExport)
}

func TestExport(t *testing.T) {
	coll := sampleCollection()

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, coll, FormatJSON))
		var doc exportDoc
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		assert.Equal(t, newExportDoc(coll), doc)
		assert.Equal(t, "BadName", doc.Sets[0].Status)
		assert.Equal(t, 1, doc.Stats.Missing)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, coll, FormatYAML))
		var doc exportDoc
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
		assert.Equal(t, newExportDoc(coll), doc)
	})

	t.Run("plist", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, coll, FormatPlist))
		assert.True(t, strings.HasPrefix(buf.String(), "<?xml"))

		var doc exportDoc
		_, err := plist.Unmarshal(buf.Bytes(), &doc)
		require.NoError(t, err)
		assert.Equal(t, "nes", doc.Name)
		require.Len(t, doc.Sets, 3)
		assert.Equal(t, "not a zip", doc.Sets[2].Reason)
		assert.Equal(t, int64(2048), doc.Sets[0].Roms[0].Size)
	})

	t.Run("unsupported", func(t *testing.T) {
		err := Export(&bytes.Buffer{}, coll, Format("csv"))
		assert.ErrorIs(t, err, errors.ErrUnsupportedExport)
	})
}
