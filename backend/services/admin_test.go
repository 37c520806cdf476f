package services

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"coursehub/backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupFilesRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	s := NewBackupService(cfg, utils.NewNopLogger())
	s.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC) }

	require.NoError(t, os.MkdirAll(filepath.Join(cfg.UploadDir, "materials"), 0o755))
	src := filepath.Join(cfg.UploadDir, "materials", "lecture.txt")
	require.NoError(t, os.WriteFile(src, []byte("lecture"), 0o644))

	path, err := s.Backup(context.Background(), false, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.BackupDir, "backup_20240309_140506.tar.gz"), path)

	require.NoError(t, os.RemoveAll(cfg.UploadDir))
	require.NoError(t, s.Restore(context.Background(), filepath.Base(path)))

	content, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "lecture", string(content))
}

func TestBackupDataNeedsPostgres(t *testing.T) {
	cfg := testConfig(t)
	s := NewBackupService(cfg, utils.NewNopLogger())

	_, err := s.Backup(context.Background(), true, false)
	assert.ErrorIs(t, err, ErrDumpUnsupported)
}

func TestBackupAndRestoreRunPgTools(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("no true binary")
	}
	cfg := testConfig(t)
	cfg.DBDriver = "postgres"
	s := NewBackupService(cfg, utils.NewNopLogger())

	var calls []string
	s.command = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, name)
		return exec.CommandContext(ctx, "true")
	}

	path, err := s.Backup(context.Background(), true, false)
	require.NoError(t, err)
	require.NoError(t, s.Restore(context.Background(), path))
	assert.Equal(t, []string{"pg_dump", "pg_restore"}, calls)
}

func TestRestoreRejectsUnknownArchives(t *testing.T) {
	cfg := testConfig(t)
	s := NewBackupService(cfg, utils.NewNopLogger())
	require.NoError(t, os.MkdirAll(cfg.BackupDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.BackupDir, "notes.txt"), []byte("x"), 0o644))

	for _, p := range []string{"missing.tar.gz", "notes.txt", "../../etc/passwd", "/etc/passwd"} {
		err := s.Restore(context.Background(), p)
		assert.ErrorIs(t, err, ErrBackupNotFound, p)
	}
}

func TestRestoreRenamedArchive(t *testing.T) {
	cfg := testConfig(t)
	s := NewBackupService(cfg, utils.NewNopLogger())

	require.NoError(t, os.MkdirAll(cfg.UploadDir, 0o755))
	src := filepath.Join(cfg.UploadDir, "avatar.txt")
	require.NoError(t, os.WriteFile(src, []byte("me"), 0o644))

	path, err := s.Backup(context.Background(), false, true)
	require.NoError(t, err)
	renamed := filepath.Join(cfg.BackupDir, "before-migration.tar.gz")
	require.NoError(t, os.Rename(path, renamed))

	require.NoError(t, os.RemoveAll(cfg.UploadDir))
	require.NoError(t, s.Restore(context.Background(), filepath.Base(renamed)))

	content, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "me", string(content))
}

func TestRestoreRejectsForeignArchive(t *testing.T) {
	cfg := testConfig(t)
	s := NewBackupService(cfg, utils.NewNopLogger())
	require.NoError(t, os.MkdirAll(cfg.BackupDir, 0o755))

	write := func(name string, entries map[string]string) {
		f, err := os.Create(filepath.Join(cfg.BackupDir, name))
		require.NoError(t, err)
		gz := gzip.NewWriter(f)
		tw := tar.NewWriter(gz)
		for entry, body := range entries {
			require.NoError(t, tw.WriteHeader(&tar.Header{Name: entry, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}))
			_, err := tw.Write([]byte(body))
			require.NoError(t, err)
		}
		require.NoError(t, tw.Close())
		require.NoError(t, gz.Close())
		require.NoError(t, f.Close())
	}
	write("photos.tar.gz", map[string]string{"holiday/beach.jpg": "jpeg"})
	write("mixed.tar.gz", map[string]string{"a/uploads/x.txt": "x", "b/uploads/y.txt": "y"})

	for _, name := range []string{"photos.tar.gz", "mixed.tar.gz"} {
		err := s.Restore(context.Background(), name)
		assert.ErrorIs(t, err, ErrInvalidBackup, name)
	}
	_, err := os.Stat(cfg.UploadDir)
	assert.True(t, os.IsNotExist(err))
}
