package romset

import (
	"encoding/json"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/deploymenttheory/go-rom-manager/internal/dat"
	"github.com/deploymenttheory/go-rom-manager/internal/header"
)

// "test" and "foo" payloads
const testDAT = `<datafile>
	<game name="Alpha (USA)">
		<rom name="Alpha (USA).nes" size="4" crc="D87F7E0C" md5="098F6BCD4621D373CADE4E832627B4F6" sha1="A94A8FE5CCB19BA61C4C0873D391E987982FBBD3"/>
	</game>
	<game name="Beta (Japan)">
		<rom name="Beta (Japan).nes" size="3" crc="8C736521" md5="ACBD18DB4CC2F85CEDEF654FCCC4A4D8" sha1="0BEEC7B5EA3F0FDBC95D0DD47F3C5BC275DA8A33"/>
	</game>
</datafile>`

func loadIndex(t *testing.T) *dat.Index {
	t.Helper()
	ix, err := dat.Parse(strings.NewReader(testDAT))
	require.NoError(t, err)
	return ix
}

func writeZIP(t *testing.T, path string, entries ...[2]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		require.NoError(t, err)
		_, err = w.Write([]byte(e[1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

// writeRawZIP stores payload under a header declaring size bytes
func writeRawZIP(t *testing.T, path, name, payload string, size uint64) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.CreateRaw(&zip.FileHeader{
		Name:               name,
		Method:             zip.Store,
		CRC32:              crc32.ChecksumIEEE([]byte(payload)),
		CompressedSize64:   uint64(len(payload)),
		UncompressedSize64: size,
	})
	require.NoError(t, err)
	_, err = w.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	c := NewClassifier(loadIndex(t), header.Config{}, zaptest.NewLogger(t))

	t.Run("good", func(t *testing.T) {
		path := filepath.Join(dir, "Alpha (USA).zip")
		writeZIP(t, path, [2]string{"Alpha (USA).nes", "test"})

		set := c.Classify(path)
		assert.Equal(t, SetGood, set.Status)
		assert.Equal(t, path, set.CorrectedPath)
		require.Len(t, set.Roms, 1)
		assert.Equal(t, RomGood, set.Roms[0].Status)
		assert.Equal(t, "D87F7E0C", set.Roms[0].CRC)
		assert.Equal(t, int64(4), set.Roms[0].Size)
	})

	t.Run("entry misnamed", func(t *testing.T) {
		path := filepath.Join(dir, "alpha.zip")
		writeZIP(t, path, [2]string{"alpha.nes", "test"})

		set := c.Classify(path)
		assert.Equal(t, SetBadName, set.Status)
		assert.Equal(t, filepath.Join(dir, "Alpha (USA).zip"), set.CorrectedPath)
		require.Len(t, set.Roms, 1)
		assert.Equal(t, RomBadName, set.Roms[0].Status)
		assert.Equal(t, "alpha.nes", set.Roms[0].Name)
		assert.Equal(t, "Alpha (USA).nes", set.Roms[0].CorrectedName)
	})

	t.Run("entry misnamed in correctly named archive", func(t *testing.T) {
		sub := filepath.Join(dir, "sub")
		require.NoError(t, os.MkdirAll(sub, 0o755))
		path := filepath.Join(sub, "Beta (Japan).zip")
		writeZIP(t, path, [2]string{"beta.nes", "foo"})

		set := c.Classify(path)
		assert.Equal(t, SetBadName, set.Status)
		assert.Equal(t, path, set.CorrectedPath)
		assert.False(t, set.NeedsRename())
	})

	t.Run("archive misnamed", func(t *testing.T) {
		path := filepath.Join(dir, "wrong.zip")
		writeZIP(t, path, [2]string{"Alpha (USA).nes", "test"})

		set := c.Classify(path)
		assert.Equal(t, SetBadName, set.Status)
		assert.Equal(t, filepath.Join(dir, "Alpha (USA).zip"), set.CorrectedPath)
		require.Len(t, set.Roms, 1)
		assert.Equal(t, RomGood, set.Roms[0].Status)
	})

	t.Run("unknown", func(t *testing.T) {
		path := filepath.Join(dir, "mystery.zip")
		writeZIP(t, path, [2]string{"mystery.nes", "nothing like it"})

		set := c.Classify(path)
		assert.Equal(t, SetUnknown, set.Status)
		require.Len(t, set.Roms, 1)
		assert.Equal(t, RomUnknown, set.Roms[0].Status)
		assert.Equal(t, path, set.CorrectedPath)
	})
}

func TestClassifyErrors(t *testing.T) {
	dir := t.TempDir()
	c := NewClassifier(loadIndex(t), header.Config{}, nil)

	two := filepath.Join(dir, "two.zip")
	writeZIP(t, two, [2]string{"a.nes", "test"}, [2]string{"b.nes", "foo"})

	empty := filepath.Join(dir, "empty.zip")
	writeZIP(t, empty)

	text := filepath.Join(dir, "readme.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o644))

	// sizes in the central directory that do not match the payload
	huge := filepath.Join(dir, "huge.zip")
	writeRawZIP(t, huge, "Alpha (USA).nes", "test", 1<<63)
	large := filepath.Join(dir, "large.zip")
	writeRawZIP(t, large, "Alpha (USA).nes", "test", 1<<40)
	short := filepath.Join(dir, "short.zip")
	writeRawZIP(t, short, "Alpha (USA).nes", "test", 2)

	for _, path := range []string{two, empty, text, huge, large, short, filepath.Join(dir, "gone.zip")} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			set := c.Classify(path)
			assert.Equal(t, SetError, set.Status)
			assert.Empty(t, set.Roms)
			assert.NotEmpty(t, set.Reason)
		})
	}
}

func TestClassifyWithHeader(t *testing.T) {
	dir := t.TempDir()
	hdr := header.Config{Length: 16, Rules: []header.Rule{{Offset: 0, Value: "4E45531A"}}}
	c := NewClassifier(loadIndex(t), hdr, nil)

	headered := "NES\x1a" + strings.Repeat("\x00", 12) + "test"
	path := filepath.Join(dir, "Alpha (USA).zip")
	writeZIP(t, path, [2]string{"Alpha (USA).nes", headered})

	set := c.Classify(path)
	assert.Equal(t, SetGood, set.Status)
	assert.Equal(t, "D87F7E0C", set.Roms[0].CRC)

	// a payload without the signature is hashed whole
	raw := filepath.Join(dir, "raw.zip")
	writeZIP(t, raw, [2]string{"raw.nes", strings.Repeat("\x00", 16) + "test"})
	assert.Equal(t, SetUnknown, c.Classify(raw).Status)
}

func TestCorrectedArchiveName(t *testing.T) {
	tests := []struct {
		rom, archive, want string
	}{
		{"Alpha (USA).nes", "/roms/x.zip", "Alpha (USA).zip"},
		{"Alpha (USA).nes", "/roms/x", "Alpha (USA).zip"},
		{"Alpha (USA).nes", "/roms/x.7z", "Alpha (USA).7z"},
		{"folder/Alpha (USA).nes", "/roms/x.zip", "Alpha (USA).zip"},
		{`folder\Alpha.v1.1.nes`, "/roms/x.zip", "Alpha.v1.1.zip"},
		{"noext", "/roms/x.zip", "noext.zip"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CorrectedArchiveName(tt.rom, tt.archive), tt.rom)
	}
	assert.Equal(t, filepath.Join("/roms", "Alpha (USA).zip"), CorrectedArchivePath("Alpha (USA).nes", "/roms/x.zip"))
}

func TestStatusText(t *testing.T) {
	set := ArchiveSet{Status: SetBadName, Roms: []ObservedRom{{Status: RomMissing}}}
	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"BadName"`)
	assert.Contains(t, string(data), `"status":"Missing"`)

	var back ArchiveSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, SetBadName, back.Status)
	assert.Equal(t, RomMissing, back.Roms[0].Status)

	s, err := ParseSetStatus("error")
	require.NoError(t, err)
	assert.Equal(t, SetError, s)
	_, err = ParseSetStatus("bogus")
	assert.Error(t, err)
}
