package tooling

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/deploymenttheory/go-rom-manager/internal/header"
	"github.com/deploymenttheory/go-rom-manager/internal/repair"
	"github.com/deploymenttheory/go-rom-manager/internal/romset"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
)

const testDAT = `<?xml version="1.0"?>
<datafile>
	<header><name>Test</name></header>
	<game name="Alpha (USA)">
		<rom name="Alpha (USA).nes" size="4" crc="D87F7E0C" md5="098F6BCD4621D373CADE4E832627B4F6" sha1="A94A8FE5CCB19BA61C4C0873D391E987982FBBD3"/>
	</game>
	<game name="Beta (Japan)">
		<rom name="Beta (Japan).nes" size="3" crc="8C736521" md5="ACBD18DB4CC2F85CEDEF654FCCC4A4D8" sha1="0BEEC7B5EA3F0FDBC95D0DD47F3C5BC275DA8A33"/>
	</game>
</datafile>`

func writeZIP(t *testing.T, path, name, content string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func setup(t *testing.T) AuditRequest {
	t.Helper()
	dir := t.TempDir()
	datPath := filepath.Join(dir, "test.dat")
	require.NoError(t, os.WriteFile(datPath, []byte(testDAT), 0o644))

	root := filepath.Join(dir, "roms")
	require.NoError(t, os.Mkdir(root, 0o755))
	writeZIP(t, filepath.Join(root, "alpha.zip"), "alpha.nes", "test")
	writeZIP(t, filepath.Join(root, "junk.zip"), "junk.nes", "junk")

	return AuditRequest{Name: "nes", DATPath: datPath, RootDir: root}
}

func TestAuditFixAudit(t *testing.T) {
	req := setup(t)
	log := zaptest.NewLogger(t)
	ctx := context.Background()

	coll, err := Audit(ctx, req, log)
	require.NoError(t, err)
	st := coll.Stats()
	assert.Equal(t, 2, st.DATEntries)
	assert.Equal(t, 1, st.BadName)
	assert.Equal(t, 1, st.Unknown)
	assert.Equal(t, 2, st.Missing)

	results, err := Fix(ctx, coll, false, log)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, repair.ActionRepaired, results[0].Action)

	coll, err = Audit(ctx, req, log)
	require.NoError(t, err)
	st = coll.Stats()
	assert.Equal(t, 1, st.Good)
	assert.Equal(t, 0, st.BadName)
	assert.Equal(t, 1, st.Missing)

	results, err = RemoveUnknown(ctx, coll, false, log)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, repair.ActionDeleted, results[0].Action)

	coll, err = Audit(ctx, req, log)
	require.NoError(t, err)
	assert.Empty(t, coll.Filter(romset.SetUnknown))
}

func TestAuditFatalErrors(t *testing.T) {
	req := setup(t)
	ctx := context.Background()

	bad := req
	bad.DATPath = filepath.Join(t.TempDir(), "none.dat")
	_, err := Audit(ctx, bad, nil)
	assert.ErrorIs(t, err, errors.ErrDATNotFound)

	bad = req
	bad.RootDir = filepath.Join(t.TempDir(), "none")
	_, err = Audit(ctx, bad, nil)
	assert.ErrorIs(t, err, errors.ErrRootNotFound)

	bad = req
	bad.Header = header.Config{Length: -1}
	_, err = Audit(ctx, bad, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidHeaderRule)
}

func TestFixContinuesAfterFailure(t *testing.T) {
	req := setup(t)
	ctx := context.Background()
	coll, err := Audit(ctx, req, nil)
	require.NoError(t, err)

	// the target name is taken by another file
	writeZIP(t, filepath.Join(req.RootDir, "Alpha (USA).zip"), "other.nes", "other")

	results, err := Fix(ctx, coll, false, nil)
	assert.ErrorIs(t, err, errors.ErrTargetExists)
	assert.Len(t, results, 1)
}
