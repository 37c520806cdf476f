package services

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"coursehub/backend/config"
	"coursehub/backend/utils"
)

const (
	dumpFileName   = "database.dump"
	uploadsDirName = "uploads"
)

var (
	ErrDumpUnsupported = errors.New("database dumps require the postgres driver")
	ErrBackupNotFound  = errors.New("backup not found")
	ErrInvalidBackup   = errors.New("archive holds neither a database dump nor uploads")
)

// BackupService packs the database dump and the upload directory into
// BACKUP_DIR/backup_YYYYMMDD_HHMMSS.tar.gz and restores from such archives.
type BackupService struct {
	Cfg    *config.Config
	Logger *utils.Logger

	// overridable in tests
	now     func() time.Time
	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewBackupService(cfg *config.Config, logger *utils.Logger) *BackupService {
	return &BackupService{
		Cfg:     cfg,
		Logger:  logger,
		now:     time.Now,
		command: exec.CommandContext,
	}
}

func (s *BackupService) Backup(ctx context.Context, includeData, includeFiles bool) (string, error) {
	if includeData && s.Cfg.DBDriver != "postgres" {
		return "", ErrDumpUnsupported
	}
	if err := os.MkdirAll(s.Cfg.BackupDir, 0o755); err != nil {
		return "", err
	}

	name := "backup_" + s.now().Format("20060102_150405")
	archivePath := filepath.Join(s.Cfg.BackupDir, name+".tar.gz")

	var dumpPath string
	if includeData {
		tmp, err := os.CreateTemp("", "dump-*.dump")
		if err != nil {
			return "", err
		}
		dumpPath = tmp.Name()
		tmp.Close()
		defer os.Remove(dumpPath)

		out, err := s.command(ctx, "pg_dump", "-Fc", "-f", dumpPath, utils.PostgresDSN(s.Cfg)).CombinedOutput()
		if err != nil {
			return "", fmt.Errorf("pg_dump: %w: %s", err, strings.TrimSpace(string(out)))
		}
	}

	f, err := os.Create(archivePath)
	if err != nil {
		return "", err
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	err = func() error {
		if dumpPath != "" {
			if err := addFile(tw, dumpPath, name+"/"+dumpFileName); err != nil {
				return err
			}
		}
		if includeFiles {
			if err := addTree(tw, s.Cfg.UploadDir, name+"/"+uploadsDirName); err != nil {
				return err
			}
		}
		return nil
	}()
	if cerr := tw.Close(); err == nil {
		err = cerr
	}
	if cerr := gz.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(archivePath)
		return "", err
	}

	s.Logger.Info("backup created", "path", archivePath, "include_data", includeData, "include_files", includeFiles)
	return archivePath, nil
}

// Restore unpacks an archive produced by Backup, restores the dump when one
// is present and copies the uploads back.
func (s *BackupService) Restore(ctx context.Context, backupPath string) error {
	archive, err := s.resolveBackup(backupPath)
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp("", "restore-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir)

	if err := extract(archive, workDir); err != nil {
		return fmt.Errorf("extract %s: %w", archive, err)
	}
	root, err := archiveRoot(workDir)
	if err != nil {
		return err
	}

	dump := filepath.Join(root, dumpFileName)
	_, statErr := os.Stat(dump)
	hasDump := statErr == nil
	uploads := filepath.Join(root, uploadsDirName)
	info, statErr := os.Stat(uploads)
	hasUploads := statErr == nil && info.IsDir()
	if !hasDump && !hasUploads {
		return ErrInvalidBackup
	}

	if hasDump {
		if s.Cfg.DBDriver != "postgres" {
			return ErrDumpUnsupported
		}
		out, err := s.command(ctx, "pg_restore", "-c", "-d", utils.PostgresDSN(s.Cfg), dump).CombinedOutput()
		if err != nil {
			return fmt.Errorf("pg_restore: %w: %s", err, strings.TrimSpace(string(out)))
		}
	}

	if hasUploads {
		if err := copyTree(uploads, s.Cfg.UploadDir); err != nil {
			return fmt.Errorf("restore uploads: %w", err)
		}
	}

	s.Logger.Info("backup restored", "path", archive)
	return nil
}

// archiveRoot returns the single top-level directory Backup writes into the
// archive. Its name does not have to match the archive file name.
func archiveRoot(workDir string) (string, error) {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return "", err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) != 1 {
		return "", ErrInvalidBackup
	}
	return filepath.Join(workDir, dirs[0]), nil
}

// resolveBackup accepts a path inside BACKUP_DIR, either bare or prefixed.
func (s *BackupService) resolveBackup(p string) (string, error) {
	dir, err := filepath.Abs(s.Cfg.BackupDir)
	if err != nil {
		return "", err
	}
	candidate := p
	if !filepath.IsAbs(candidate) {
		candidate, err = filepath.Abs(candidate)
		if err != nil {
			return "", err
		}
		if !strings.HasPrefix(candidate, dir+string(filepath.Separator)) {
			candidate = filepath.Join(dir, filepath.Base(p))
		}
	}
	candidate = filepath.Clean(candidate)
	if filepath.Dir(candidate) != dir || !strings.HasSuffix(candidate, ".tar.gz") {
		return "", ErrBackupNotFound
	}
	if _, err := os.Stat(candidate); err != nil {
		return "", ErrBackupNotFound
	}
	return candidate, nil
}

func addFile(tw *tar.Writer, src, name string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

func addTree(tw *tar.Writer, src, prefix string) error {
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		name := prefix
		if rel != "." {
			name = prefix + "/" + filepath.ToSlash(rel)
		}
		if d.IsDir() {
			return tw.WriteHeader(&tar.Header{Name: name + "/", Typeflag: tar.TypeDir, Mode: 0o755})
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return addFile(tw, path, name)
	})
}

func extract(archive, dst string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		target := filepath.Join(dst, filepath.FromSlash(hdr.Name))
		if !strings.HasPrefix(target, filepath.Clean(dst)+string(filepath.Separator)) {
			return fmt.Errorf("illegal path in archive: %s", hdr.Name)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := writeFile(target, tr); err != nil {
				return err
			}
		}
	}
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		return writeFile(target, in)
	})
}

func writeFile(path string, r io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
