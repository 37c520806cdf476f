package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"coursehub/backend/models"
	"coursehub/backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCertificateService(t *testing.T) (*CertificateService, *fixture) {
	t.Helper()
	cfg := testConfig(t)
	db := testDB(t, cfg)
	logger := utils.NewNopLogger()
	return &CertificateService{
		DB:     db,
		Dir:    cfg.CertificatesDir,
		Mailer: NewConsoleMailer(logger),
		Logger: logger,
	}, newFixture(t, db)
}

func setProgress(t *testing.T, s *CertificateService, f *fixture, progress float64) {
	t.Helper()
	require.NoError(t, s.DB.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", f.Student.ID, f.Course.ID).
		Update("progress", progress).Error)
}

func TestIssueCertificate(t *testing.T) {
	s, f := newCertificateService(t)

	setProgress(t, s, f, 79.99)
	_, _, err := s.Issue(f.Student.ID, f.Course.ID)
	assert.ErrorIs(t, err, ErrProgressTooLow)

	setProgress(t, s, f, 80)
	cert, created, err := s.Issue(f.Student.ID, f.Course.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 80.0, cert.Score)
	assert.Equal(t, filepath.Join(s.Dir, fmt.Sprintf("certificate_%d_%d.pdf", f.Student.ID, f.Course.ID)), cert.FilePath)

	head := make([]byte, 4)
	file, err := os.Open(cert.FilePath)
	require.NoError(t, err)
	_, err = file.Read(head)
	file.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))

	var n models.Notification
	require.NoError(t, s.DB.Where("user_id = ?", f.Student.ID).First(&n).Error)
	assert.Equal(t, models.NotificationCertificate, n.NotificationType)
	require.NotNil(t, n.RelatedEntityID)
	assert.Equal(t, cert.ID, *n.RelatedEntityID)

	mailer := s.Mailer.(*ConsoleMailer)
	assert.Eventually(t, func() bool { return len(mailer.Sent()) == 1 }, time.Second, 10*time.Millisecond)

	again, created, err := s.Issue(f.Student.ID, f.Course.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, cert.ID, again.ID)
}

func TestIssueCertificateConcurrently(t *testing.T) {
	s, f := newCertificateService(t)
	setProgress(t, s, f, 90)

	for i := 0; i < 10; i++ {
		require.NoError(t, s.DB.Where("user_id = ?", f.Student.ID).Delete(&models.Certificate{}).Error)

		var (
			wg      sync.WaitGroup
			created atomic.Int32
			certs   = make([]*models.Certificate, 4)
			errs    = make([]error, 4)
		)
		for g := range certs {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				cert, isNew, err := s.Issue(f.Student.ID, f.Course.ID)
				certs[g], errs[g] = cert, err
				if isNew {
					created.Add(1)
				}
			}(g)
		}
		wg.Wait()

		for g := range certs {
			require.NoError(t, errs[g])
			assert.Equal(t, certs[0].ID, certs[g].ID)
		}
		assert.EqualValues(t, 1, created.Load())

		var stored models.Certificate
		require.NoError(t, s.DB.Where("user_id = ?", f.Student.ID).First(&stored).Error)
		assert.FileExists(t, stored.FilePath)
	}

	leftovers, err := filepath.Glob(filepath.Join(s.Dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestIssueIfEligible(t *testing.T) {
	s, f := newCertificateService(t)

	cert, err := s.IssueIfEligible(f.Student.ID, f.Course.ID)
	require.NoError(t, err)
	assert.Nil(t, cert)

	cert, err = s.IssueIfEligible(f.Student.ID+100, f.Course.ID)
	require.NoError(t, err)
	assert.Nil(t, cert)

	setProgress(t, s, f, 95)
	cert, err = s.IssueIfEligible(f.Student.ID, f.Course.ID)
	require.NoError(t, err)
	require.NotNil(t, cert)
	assert.FileExists(t, cert.FilePath)
}

func TestRenderCertificateUnicode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cert.pdf")
	err := RenderCertificate(path, "Jürgen Müller", "Café basics", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 87.5)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
