package controllers

import (
	"encoding/json"
	"strings"

	"coursehub/backend/config"
	"coursehub/backend/middleware"
	"coursehub/backend/models"
	"coursehub/backend/repository"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentController manages modules, lessons, materials and tasks. Reads
// are open to any authenticated user; writes need course staff.
type ContentController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Svc    *services.Services
	Logger *utils.Logger
}

func NewContentController(db *gorm.DB, cfg *config.Config, svc *services.Services, logger *utils.Logger) *ContentController {
	return &ContentController{DB: db, Cfg: cfg, Svc: svc, Logger: logger}
}

type ModuleRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=255" example:"Getting started"`
	Description string `json:"description"`
	Order       int    `json:"order" validate:"gte=0"`
}

type UpdateModuleRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Order       *int    `json:"order" validate:"omitempty,gte=0"`
}

// lessons share the module payloads
type LessonRequest = ModuleRequest
type UpdateLessonRequest = UpdateModuleRequest

type MaterialRequest struct {
	Content      string              `json:"content"`
	MaterialType models.MaterialType `json:"material_type" validate:"required,oneof=text video pdf image audio file" example:"text"`
	FilePath     string              `json:"file_path"`
	Order        int                 `json:"order" validate:"gte=0"`
}

type UpdateMaterialRequest struct {
	Content      *string              `json:"content"`
	MaterialType *models.MaterialType `json:"material_type" validate:"omitempty,oneof=text video pdf image audio file"`
	FilePath     *string              `json:"file_path"`
	Order        *int                 `json:"order" validate:"omitempty,gte=0"`
}

type TaskRequest struct {
	Title         string          `json:"title" validate:"required,notblank,max=100" example:"Quiz 1"`
	Description   string          `json:"description"`
	TaskType      models.TaskType `json:"task_type" validate:"required,oneof=test text file_upload" example:"test"`
	MaxScore      float64         `json:"max_score" validate:"gt=0" example:"10"`
	Order         int             `json:"order" validate:"gte=0"`
	CorrectAnswer string          `json:"correct_answer"`
	Options       []string        `json:"options"`
}

type UpdateTaskRequest struct {
	Title         *string          `json:"title" validate:"omitempty,min=1,max=100"`
	Description   *string          `json:"description"`
	TaskType      *models.TaskType `json:"task_type" validate:"omitempty,oneof=test text file_upload"`
	MaxScore      *float64         `json:"max_score" validate:"omitempty,gt=0"`
	Order         *int             `json:"order" validate:"omitempty,gte=0"`
	CorrectAnswer *string          `json:"correct_answer"`
	Options       *[]string        `json:"options"`
}

// staffFor answers 403 unless the current user manages courseID. A false
// result means the response is already written.
func (cc *ContentController) staffFor(c *fiber.Ctx, courseID uint) (bool, error) {
	course, err := requireCourseStaff(c, cc.DB, courseID)
	return course != nil, err
}

func (cc *ContentController) viewerIsStaff(c *fiber.Ctx, courseID uint) (bool, error) {
	course, err := repository.FindByID[models.Course](cc.DB, courseID)
	if err != nil {
		return false, err
	}
	return isCourseStaff(cc.DB, middleware.CurrentUser(c), course)
}

// ---- modules ----

// GetModules godoc
// @Summary List modules of a course
// @Tags content
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/modules [get]
func (cc *ContentController) GetModules(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	if _, err := repository.FindByID[models.Course](cc.DB, id); err != nil {
		return loadError(c, err, "Course not found")
	}
	modules := make([]models.Module, 0)
	if err := cc.DB.Where("course_id = ?", id).Order("position, id").Find(&modules).Error; err != nil {
		return utils.InternalServerError(c, "Could not fetch modules")
	}
	return utils.OK(c, modules)
}

// CreateModule godoc
// @Summary Add a module to a course
// @Tags content
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param input body ModuleRequest true "Module"
// @Success 201 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/modules [post]
func (cc *ContentController) CreateModule(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input ModuleRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	if ok, err := cc.staffFor(c, id); !ok {
		return err
	}

	module := models.Module{CourseID: id, Title: strings.TrimSpace(input.Title), Description: input.Description, Order: input.Order}
	if err := cc.DB.Create(&module).Error; err != nil {
		return utils.InternalServerError(c, "Could not create module")
	}
	return utils.Created(c, module)
}

// GetModule godoc
// @Summary Get a module with its lessons
// @Tags content
// @Produce json
// @Param id path int true "Module ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /modules/{id} [get]
func (cc *ContentController) GetModule(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var module models.Module
	if err := cc.DB.Preload("Lessons", orderByPosition).First(&module, id).Error; err != nil {
		return loadError(c, err, "Module not found")
	}
	return utils.OK(c, module)
}

// UpdateModule godoc
// @Summary Update a module
// @Tags content
// @Accept json
// @Produce json
// @Param id path int true "Module ID"
// @Param input body UpdateModuleRequest true "Module fields"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /modules/{id} [put]
func (cc *ContentController) UpdateModule(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input UpdateModuleRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	module, err := repository.FindByID[models.Module](cc.DB, id)
	if err != nil {
		return loadError(c, err, "Module not found")
	}
	if ok, err := cc.staffFor(c, module.CourseID); !ok {
		return err
	}

	if input.Title != nil {
		module.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		module.Description = *input.Description
	}
	if input.Order != nil {
		module.Order = *input.Order
	}
	if err := cc.DB.Save(module).Error; err != nil {
		return utils.InternalServerError(c, "Could not update module")
	}
	return utils.OK(c, module)
}

// DeleteModule godoc
// @Summary Delete a module and its lessons
// @Tags content
// @Param id path int true "Module ID"
// @Success 204
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /modules/{id} [delete]
func (cc *ContentController) DeleteModule(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	module, err := repository.FindByID[models.Module](cc.DB, id)
	if err != nil {
		return loadError(c, err, "Module not found")
	}
	if ok, err := cc.staffFor(c, module.CourseID); !ok {
		return err
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := deleteLessonsWhere(tx, "module_id = ?", module.ID); err != nil {
			return err
		}
		return tx.Delete(&models.Module{}, module.ID).Error
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not delete module")
	}
	return utils.NoContent(c)
}

// ---- lessons ----

// GetLessons godoc
// @Summary List lessons of a module
// @Tags content
// @Produce json
// @Param id path int true "Module ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /modules/{id}/lessons [get]
func (cc *ContentController) GetLessons(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	if _, err := repository.FindByID[models.Module](cc.DB, id); err != nil {
		return loadError(c, err, "Module not found")
	}
	lessons := make([]models.Lesson, 0)
	if err := cc.DB.Where("module_id = ?", id).Order("position, id").Find(&lessons).Error; err != nil {
		return utils.InternalServerError(c, "Could not fetch lessons")
	}
	return utils.OK(c, lessons)
}

// CreateLesson godoc
// @Summary Add a lesson to a module
// @Tags content
// @Accept json
// @Produce json
// @Param id path int true "Module ID"
// @Param input body LessonRequest true "Lesson"
// @Success 201 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /modules/{id}/lessons [post]
func (cc *ContentController) CreateLesson(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input LessonRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	module, err := repository.FindByID[models.Module](cc.DB, id)
	if err != nil {
		return loadError(c, err, "Module not found")
	}
	if ok, err := cc.staffFor(c, module.CourseID); !ok {
		return err
	}

	lesson := models.Lesson{ModuleID: module.ID, Title: strings.TrimSpace(input.Title), Description: input.Description, Order: input.Order}
	if err := cc.DB.Create(&lesson).Error; err != nil {
		return utils.InternalServerError(c, "Could not create lesson")
	}
	return utils.Created(c, lesson)
}

// GetLesson godoc
// @Summary Get a lesson with materials and tasks
// @Tags content
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{id} [get]
func (cc *ContentController) GetLesson(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var lesson models.Lesson
	err = cc.DB.Preload("Materials", orderByPosition).Preload("Tasks", orderByPosition).First(&lesson, id).Error
	if err != nil {
		return loadError(c, err, "Lesson not found")
	}
	courseID, err := repository.CourseIDForModule(cc.DB, lesson.ModuleID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	staff, err := cc.viewerIsStaff(c, courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if !staff {
		hideAnswers(lesson.Tasks)
	}
	return utils.OK(c, lesson)
}

// UpdateLesson godoc
// @Summary Update a lesson
// @Tags content
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param input body UpdateLessonRequest true "Lesson fields"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{id} [put]
func (cc *ContentController) UpdateLesson(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input UpdateLessonRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	lesson, err := repository.FindByID[models.Lesson](cc.DB, id)
	if err != nil {
		return loadError(c, err, "Lesson not found")
	}
	courseID, err := repository.CourseIDForLesson(cc.DB, lesson.ID)
	if err != nil {
		return loadError(c, err, "Course not found")
	}
	if ok, err := cc.staffFor(c, courseID); !ok {
		return err
	}

	if input.Title != nil {
		lesson.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		lesson.Description = *input.Description
	}
	if input.Order != nil {
		lesson.Order = *input.Order
	}
	if err := cc.DB.Save(lesson).Error; err != nil {
		return utils.InternalServerError(c, "Could not update lesson")
	}
	return utils.OK(c, lesson)
}

// DeleteLesson godoc
// @Summary Delete a lesson
// @Tags content
// @Param id path int true "Lesson ID"
// @Success 204
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{id} [delete]
func (cc *ContentController) DeleteLesson(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	courseID, err := repository.CourseIDForLesson(cc.DB, id)
	if err != nil {
		return loadError(c, err, "Lesson not found")
	}
	if ok, err := cc.staffFor(c, courseID); !ok {
		return err
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		return deleteLessonsWhere(tx, "id = ?", id)
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not delete lesson")
	}
	return utils.NoContent(c)
}

// ---- materials ----

// GetMaterials godoc
// @Summary List materials of a lesson
// @Tags content
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{id}/materials [get]
func (cc *ContentController) GetMaterials(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	if _, err := repository.FindByID[models.Lesson](cc.DB, id); err != nil {
		return loadError(c, err, "Lesson not found")
	}
	materials := make([]models.LessonMaterial, 0)
	if err := cc.DB.Where("lesson_id = ?", id).Order("position, id").Find(&materials).Error; err != nil {
		return utils.InternalServerError(c, "Could not fetch materials")
	}
	return utils.OK(c, materials)
}

// CreateMaterial godoc
// @Summary Add a material to a lesson
// @Tags content
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param input body MaterialRequest true "Material"
// @Success 201 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{id}/materials [post]
func (cc *ContentController) CreateMaterial(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input MaterialRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	courseID, err := repository.CourseIDForLesson(cc.DB, id)
	if err != nil {
		return loadError(c, err, "Lesson not found")
	}
	if ok, err := cc.staffFor(c, courseID); !ok {
		return err
	}

	material := models.LessonMaterial{
		LessonID:     id,
		Content:      input.Content,
		MaterialType: input.MaterialType,
		FilePath:     input.FilePath,
		Order:        input.Order,
	}
	if err := cc.DB.Create(&material).Error; err != nil {
		return utils.InternalServerError(c, "Could not create material")
	}
	return utils.Created(c, material)
}

// GetMaterial godoc
// @Summary Get a material
// @Tags content
// @Produce json
// @Param id path int true "Material ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /materials/{id} [get]
func (cc *ContentController) GetMaterial(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	material, err := repository.FindByID[models.LessonMaterial](cc.DB, id)
	if err != nil {
		return loadError(c, err, "Material not found")
	}
	return utils.OK(c, material)
}

// UpdateMaterial godoc
// @Summary Update a material
// @Tags content
// @Accept json
// @Produce json
// @Param id path int true "Material ID"
// @Param input body UpdateMaterialRequest true "Material fields"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /materials/{id} [put]
func (cc *ContentController) UpdateMaterial(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input UpdateMaterialRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	material, err := repository.FindByID[models.LessonMaterial](cc.DB, id)
	if err != nil {
		return loadError(c, err, "Material not found")
	}
	courseID, err := repository.CourseIDForMaterial(cc.DB, material.ID)
	if err != nil {
		return loadError(c, err, "Course not found")
	}
	if ok, err := cc.staffFor(c, courseID); !ok {
		return err
	}

	if input.Content != nil {
		material.Content = *input.Content
	}
	if input.MaterialType != nil {
		material.MaterialType = *input.MaterialType
	}
	if input.FilePath != nil {
		material.FilePath = *input.FilePath
	}
	if input.Order != nil {
		material.Order = *input.Order
	}
	if err := cc.DB.Save(material).Error; err != nil {
		return utils.InternalServerError(c, "Could not update material")
	}
	return utils.OK(c, material)
}

// DeleteMaterial godoc
// @Summary Delete a material and its comments
// @Tags content
// @Param id path int true "Material ID"
// @Success 204
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /materials/{id} [delete]
func (cc *ContentController) DeleteMaterial(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	courseID, err := repository.CourseIDForMaterial(cc.DB, id)
	if err != nil {
		return loadError(c, err, "Material not found")
	}
	if ok, err := cc.staffFor(c, courseID); !ok {
		return err
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("material_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.LessonMaterial{}, id).Error
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not delete material")
	}
	return utils.NoContent(c)
}

// UploadMaterialFile godoc
// @Summary Attach a file to a material
// @Tags content
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Material ID"
// @Param file formData file true "File"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /materials/{id}/file [post]
func (cc *ContentController) UploadMaterialFile(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	material, err := repository.FindByID[models.LessonMaterial](cc.DB, id)
	if err != nil {
		return loadError(c, err, "Material not found")
	}
	courseID, err := repository.CourseIDForMaterial(cc.DB, material.ID)
	if err != nil {
		return loadError(c, err, "Course not found")
	}
	if ok, err := cc.staffFor(c, courseID); !ok {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return utils.BadRequest(c, "File is required")
	}
	path, err := cc.Svc.Storage.Save(fh, "materials")
	if err != nil {
		return storageError(c, err)
	}
	old := material.FilePath
	if err := cc.DB.Model(material).Update("file_path", path).Error; err != nil {
		_ = cc.Svc.Storage.Delete(path)
		return utils.InternalServerError(c, "Could not update material")
	}
	if old != "" {
		_ = cc.Svc.Storage.Delete(old)
	}
	material.FilePath = path
	return utils.OK(c, material)
}

// ---- tasks ----

// GetTasks godoc
// @Summary List tasks of a lesson
// @Tags content
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{id}/tasks [get]
func (cc *ContentController) GetTasks(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	courseID, err := repository.CourseIDForLesson(cc.DB, id)
	if err != nil {
		return loadError(c, err, "Lesson not found")
	}
	tasks := make([]models.Task, 0)
	if err := cc.DB.Where("lesson_id = ?", id).Order("position, id").Find(&tasks).Error; err != nil {
		return utils.InternalServerError(c, "Could not fetch tasks")
	}
	staff, err := cc.viewerIsStaff(c, courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if !staff {
		hideAnswers(tasks)
	}
	return utils.OK(c, tasks)
}

// CreateTask godoc
// @Summary Add a task to a lesson
// @Description Test tasks need a correct answer
// @Tags content
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param input body TaskRequest true "Task"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{id}/tasks [post]
func (cc *ContentController) CreateTask(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input TaskRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	courseID, err := repository.CourseIDForLesson(cc.DB, id)
	if err != nil {
		return loadError(c, err, "Lesson not found")
	}
	if ok, err := cc.staffFor(c, courseID); !ok {
		return err
	}

	task := models.Task{
		LessonID:    id,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		TaskType:    input.TaskType,
		MaxScore:    input.MaxScore,
		Order:       input.Order,
	}
	if input.TaskType == models.TaskTest {
		if strings.TrimSpace(input.CorrectAnswer) == "" {
			return utils.ValidationError(c, map[string]string{"correct_answer": "required for test tasks"})
		}
		task.CorrectAnswer = input.CorrectAnswer
		if task.Options, err = optionsJSON(input.Options); err != nil {
			return utils.BadRequest(c, "Invalid options")
		}
	}
	if err := cc.DB.Create(&task).Error; err != nil {
		return utils.InternalServerError(c, "Could not create task")
	}
	return utils.Created(c, task)
}

// GetTask godoc
// @Summary Get a task
// @Tags content
// @Produce json
// @Param id path int true "Task ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /tasks/{id} [get]
func (cc *ContentController) GetTask(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	task, err := repository.FindByID[models.Task](cc.DB, id)
	if err != nil {
		return loadError(c, err, "Task not found")
	}
	courseID, err := repository.CourseIDForTask(cc.DB, task.ID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	staff, err := cc.viewerIsStaff(c, courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if !staff {
		task.CorrectAnswer = ""
	}
	return utils.OK(c, task)
}

// UpdateTask godoc
// @Summary Update a task
// @Tags content
// @Accept json
// @Produce json
// @Param id path int true "Task ID"
// @Param input body UpdateTaskRequest true "Task fields"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /tasks/{id} [put]
func (cc *ContentController) UpdateTask(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input UpdateTaskRequest
	if err := utils.ParseAndValidate(c, &input); err != nil {
		return err
	}
	task, err := repository.FindByID[models.Task](cc.DB, id)
	if err != nil {
		return loadError(c, err, "Task not found")
	}
	courseID, err := repository.CourseIDForTask(cc.DB, task.ID)
	if err != nil {
		return loadError(c, err, "Course not found")
	}
	if ok, err := cc.staffFor(c, courseID); !ok {
		return err
	}

	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.TaskType != nil {
		task.TaskType = *input.TaskType
	}
	if input.MaxScore != nil {
		task.MaxScore = *input.MaxScore
	}
	if input.Order != nil {
		task.Order = *input.Order
	}
	if input.CorrectAnswer != nil {
		task.CorrectAnswer = *input.CorrectAnswer
	}
	if input.Options != nil {
		if task.Options, err = optionsJSON(*input.Options); err != nil {
			return utils.BadRequest(c, "Invalid options")
		}
	}
	if task.TaskType == models.TaskTest && strings.TrimSpace(task.CorrectAnswer) == "" {
		return utils.ValidationError(c, map[string]string{"correct_answer": "required for test tasks"})
	}
	if task.TaskType != models.TaskTest {
		task.CorrectAnswer = ""
		task.Options = nil
	}

	if err := cc.DB.Save(task).Error; err != nil {
		return utils.InternalServerError(c, "Could not update task")
	}
	return utils.OK(c, task)
}

// DeleteTask godoc
// @Summary Delete a task and its answers
// @Tags content
// @Param id path int true "Task ID"
// @Success 204
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /tasks/{id} [delete]
func (cc *ContentController) DeleteTask(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	courseID, err := repository.CourseIDForTask(cc.DB, id)
	if err != nil {
		return loadError(c, err, "Task not found")
	}
	if ok, err := cc.staffFor(c, courseID); !ok {
		return err
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, id).Error
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not delete task")
	}
	return utils.NoContent(c)
}

func optionsJSON(options []string) (datatypes.JSON, error) {
	if options == nil {
		return nil, nil
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// deleteLessonsWhere removes the matching lessons with their materials,
// comments, tasks and answers.
func deleteLessonsWhere(tx *gorm.DB, query string, args ...interface{}) error {
	lessons := tx.Model(&models.Lesson{}).Select("id").Where(query, args...)
	materials := tx.Model(&models.LessonMaterial{}).Select("id").Where("lesson_id IN (?)", lessons)
	tasks := tx.Model(&models.Task{}).Select("id").Where("lesson_id IN (?)", lessons)

	steps := []struct {
		model interface{}
		query string
		arg   interface{}
	}{
		{&models.Comment{}, "material_id IN (?)", materials},
		{&models.Answer{}, "task_id IN (?)", tasks},
		{&models.LessonMaterial{}, "lesson_id IN (?)", lessons},
		{&models.Task{}, "lesson_id IN (?)", lessons},
	}
	for _, s := range steps {
		if err := tx.Where(s.query, s.arg).Delete(s.model).Error; err != nil {
			return err
		}
	}
	return tx.Where(query, args...).Delete(&models.Lesson{}).Error
}
