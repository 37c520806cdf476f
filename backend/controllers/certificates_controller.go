package controllers

import (
	"errors"
	"fmt"
	"os"

	"coursehub/backend/config"
	"coursehub/backend/middleware"
	"coursehub/backend/models"
	"coursehub/backend/repository"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CertificatesController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Svc    *services.Services
	Logger *utils.Logger
}

func NewCertificatesController(db *gorm.DB, cfg *config.Config, svc *services.Services, logger *utils.Logger) *CertificatesController {
	return &CertificatesController{DB: db, Cfg: cfg, Svc: svc, Logger: logger}
}

// GetMyCertificates godoc
// @Summary List my certificates
// @Tags certificates
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /certificates [get]
func (cc *CertificatesController) GetMyCertificates(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	certs := make([]models.Certificate, 0)
	err := cc.DB.Preload("Course").
		Where("user_id = ?", user.ID).
		Order("issued_at DESC").
		Find(&certs).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not fetch certificates")
	}
	return utils.OK(c, certs)
}

// DownloadCertificate godoc
// @Summary Download a certificate PDF
// @Description Available to the owner and to the course staff
// @Tags certificates
// @Produce application/pdf
// @Param id path int true "Certificate ID"
// @Success 200 {file} file
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /certificates/{id} [get]
func (cc *CertificatesController) DownloadCertificate(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	cert, err := repository.FindByID[models.Certificate](cc.DB, id)
	if err != nil {
		return loadError(c, err, "Certificate not found")
	}
	if cert.UserID != middleware.CurrentUser(c).ID {
		if course, err := requireCourseStaff(c, cc.DB, cert.CourseID); course == nil {
			return err
		}
	}

	if _, err := os.Stat(cert.FilePath); err != nil {
		return utils.NotFound(c, "Certificate file not found")
	}
	return c.Download(cert.FilePath, fmt.Sprintf("certificate_%d.pdf", cert.CourseID))
}

// GenerateCertificate godoc
// @Summary Issue a certificate for a course
// @Description Requires at least 80% progress. Returns the existing certificate if one was already issued.
// @Tags certificates
// @Produce json
// @Param course_id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /certificates/courses/{course_id}/generate [post]
func (cc *CertificatesController) GenerateCertificate(c *fiber.Ctx) error {
	courseID, err := utils.ParamID(c, "course_id")
	if err != nil {
		return err
	}
	if _, err := repository.FindByID[models.Course](cc.DB, courseID); err != nil {
		return loadError(c, err, "Course not found")
	}
	user := middleware.CurrentUser(c)

	if _, err := cc.Svc.Progress.Recompute(user.ID, courseID); err != nil {
		if errors.Is(err, services.ErrNotEnrolled) {
			return utils.BadRequest(c, "Not enrolled in this course")
		}
		return utils.InternalServerError(c, "Could not calculate progress")
	}

	cert, created, err := cc.Svc.Certificates.Issue(user.ID, courseID)
	switch {
	case errors.Is(err, services.ErrNotEnrolled):
		return utils.BadRequest(c, "Not enrolled in this course")
	case errors.Is(err, services.ErrProgressTooLow):
		return utils.BadRequest(c, fmt.Sprintf("Course progress must be at least %.0f%%", services.CertificateThreshold))
	case err != nil:
		cc.Logger.Error("issue certificate", "user_id", user.ID, "course_id", courseID, "error", err)
		return utils.InternalServerError(c, "Could not issue certificate")
	}
	if created {
		return utils.Created(c, cert)
	}
	return utils.OK(c, cert)
}
