package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"coursehub/backend/models"
	"coursehub/backend/repository"
	"coursehub/backend/utils"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CertificateThreshold is the minimum course progress, in percent, that
// earns a certificate.
const CertificateThreshold = 80.0

var ErrProgressTooLow = errors.New("course progress is below the certificate threshold")

type CertificateService struct {
	DB       *gorm.DB
	Dir      string
	Notifier Notifier
	Mailer   Mailer
	Logger   *utils.Logger
}

// Issue returns the user's certificate for the course, creating it when the
// enrollment has reached the threshold. created reports whether a new one
// was written.
func (s *CertificateService) Issue(userID, courseID uint) (cert *models.Certificate, created bool, err error) {
	var existing models.Certificate
	err = s.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !repository.IsNotFound(err) {
		return nil, false, err
	}

	enrollment, err := repository.FindEnrollment(s.DB, userID, courseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, false, ErrNotEnrolled
		}
		return nil, false, err
	}
	if enrollment.Progress < CertificateThreshold {
		return nil, false, ErrProgressTooLow
	}

	user, err := repository.FindByID[models.User](s.DB, userID)
	if err != nil {
		return nil, false, err
	}
	course, err := repository.FindByID[models.Course](s.DB, courseID)
	if err != nil {
		return nil, false, err
	}

	issuedAt := time.Now()
	path := filepath.Join(s.Dir, fmt.Sprintf("certificate_%d_%d.pdf", userID, courseID))
	// render aside; only the issuer whose row commits moves the file into place
	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := RenderCertificate(tmp, user.FullName(), course.Title, issuedAt, enrollment.Progress); err != nil {
		_ = os.Remove(tmp)
		return nil, false, fmt.Errorf("render certificate: %w", err)
	}

	cert = &models.Certificate{
		UserID:   userID,
		CourseID: courseID,
		FilePath: path,
		Score:    enrollment.Progress,
		IssuedAt: issuedAt,
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(cert).Error; err != nil {
			return err
		}
		_, err := s.Notifier.Notify(tx, NotificationInput{
			UserID:            userID,
			Title:             "Certificate issued",
			Message:           fmt.Sprintf("Congratulations! You have earned a certificate for the course %q.", course.Title),
			Type:              models.NotificationCertificate,
			RelatedEntityType: "certificate",
			RelatedEntityID:   &cert.ID,
		})
		return err
	})
	if err != nil {
		_ = os.Remove(tmp)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// issued concurrently by another request
			if err := s.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error; err != nil {
				return nil, false, err
			}
			return &existing, false, nil
		}
		return nil, false, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, false, fmt.Errorf("store certificate file: %w", err)
	}

	if s.Mailer != nil {
		SendAsync(s.Mailer, s.Logger, EmailMessage{
			To:      user.Email,
			Name:    user.FullName(),
			Subject: "Certificate issued",
			Text:    fmt.Sprintf("You have completed %q with a score of %.0f%%. Your certificate is available in your profile.", course.Title, enrollment.Progress),
		})
	}
	s.Logger.Info("certificate issued", "user_id", userID, "course_id", courseID, "score", enrollment.Progress)
	return cert, true, nil
}

// IssueIfEligible is called after progress changes; falling short of the
// threshold or not being enrolled is not an error there.
func (s *CertificateService) IssueIfEligible(userID, courseID uint) (*models.Certificate, error) {
	cert, _, err := s.Issue(userID, courseID)
	if errors.Is(err, ErrProgressTooLow) || errors.Is(err, ErrNotEnrolled) {
		return nil, nil
	}
	return cert, err
}

func RenderCertificate(path, studentName, courseTitle string, issuedAt time.Time, score float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Certificate of Completion", true)
	pdf.AddPage()

	pdf.SetLineWidth(1.5)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.SetFont("Helvetica", "B", 32)
	pdf.SetY(40)
	pdf.CellFormat(0, 16, "CERTIFICATE OF COMPLETION", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 16)
	pdf.Ln(8)
	pdf.CellFormat(0, 10, "This certifies that", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 14, tr(studentName), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 16)
	pdf.CellFormat(0, 10, "has successfully completed the course", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 14, tr(courseTitle), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.Ln(6)
	pdf.CellFormat(0, 8, fmt.Sprintf("Score: %.0f%%", score), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, "Date: "+issuedAt.Format("02.01.2006"), "", 1, "C", false, 0, "")

	return pdf.OutputFileAndClose(path)
}
