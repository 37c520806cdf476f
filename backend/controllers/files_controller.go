package controllers

import (
	"errors"
	"net/url"
	"path/filepath"

	"coursehub/backend/config"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type FilesController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Svc    *services.Services
	Logger *utils.Logger
}

func NewFilesController(db *gorm.DB, cfg *config.Config, svc *services.Services, logger *utils.Logger) *FilesController {
	return &FilesController{DB: db, Cfg: cfg, Svc: svc, Logger: logger}
}

type UploadResponse struct {
	FilePath string `json:"file_path" example:"materials/3f1c2b.pdf"`
	FileName string `json:"file_name" example:"lecture.pdf"`
	Size     int64  `json:"size" example:"10240"`
}

// storageError maps storage failures to 400/404; anything else is a 500.
func storageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrFileTooLarge),
		errors.Is(err, services.ErrExtensionNotAllowed),
		errors.Is(err, services.ErrInvalidPath):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrFileNotFound):
		return utils.NotFound(c, "File not found")
	default:
		return utils.InternalServerError(c, "Could not store file")
	}
}

// wildcardPath returns the unescaped remainder matched by "/*".
func wildcardPath(c *fiber.Ctx) string {
	raw := c.Params("*")
	if p, err := url.PathUnescape(raw); err == nil {
		return p
	}
	return raw
}

// UploadFile godoc
// @Summary Upload a file
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File"
// @Param subdir query string false "Target subdirectory"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /files/upload [post]
func (fc *FilesController) UploadFile(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return utils.BadRequest(c, "File is required")
	}
	path, err := fc.Svc.Storage.Save(fh, c.Query("subdir"))
	if err != nil {
		return storageError(c, err)
	}
	return utils.Created(c, UploadResponse{FilePath: path, FileName: fh.Filename, Size: fh.Size})
}

// DownloadFile godoc
// @Summary Download a file
// @Tags files
// @Produce octet-stream
// @Param path path string true "Stored file path"
// @Success 200 {file} file
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /files/download/{path} [get]
func (fc *FilesController) DownloadFile(c *fiber.Ctx) error {
	full, err := fc.Svc.Storage.Open(wildcardPath(c))
	if err != nil {
		return storageError(c, err)
	}
	return c.Download(full, filepath.Base(full))
}

// DeleteFile godoc
// @Summary Delete a file
// @Tags files
// @Param path path string true "Stored file path"
// @Success 204
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /files/{path} [delete]
func (fc *FilesController) DeleteFile(c *fiber.Ctx) error {
	if err := fc.Svc.Storage.Delete(wildcardPath(c)); err != nil {
		return storageError(c, err)
	}
	fc.Logger.Info("file deleted", "path", wildcardPath(c))
	return utils.NoContent(c)
}
