package routes

import (
	"coursehub/backend/config"
	"coursehub/backend/controllers"
	"coursehub/backend/middleware"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	_ "coursehub/backend/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"gorm.io/gorm"
)

// NewApp builds the Fiber application with global middleware and every
// route registered.
func NewApp(db *gorm.DB, cfg *config.Config, svc *services.Services, logger *utils.Logger) *fiber.App {
	bodyLimit := 4 * 1024 * 1024
	if limit := int(cfg.MaxFileSize) + 1024*1024; limit > bodyLimit {
		bodyLimit = limit
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.ProjectName,
		ErrorHandler: utils.ErrorHandler(logger),
		BodyLimit:    bodyLimit,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(middleware.LoggingMiddleware(logger))
	app.Use(middleware.MaintenanceMiddleware(svc.Maintenance, db, cfg, logger))

	SetupRoutes(app, db, cfg, svc, logger)
	return app
}

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, svc *services.Services, logger *utils.Logger) {
	api := app.Group(cfg.APIPrefix)
	api.Get("/docs/*", fiberSwagger.WrapHandler)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(db, cfg)
	optionalAuth := middleware.OptionalAuth(db, cfg)
	adminMiddleware := middleware.AdminMiddleware()
	teacherMiddleware := middleware.TeacherMiddleware()

	// Auth routes
	authController := controllers.NewAuthController(db, cfg, svc, logger)
	auth := api.Group("/auth")
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Post("/password-recovery/:email", authController.RecoverPassword)
	auth.Post("/reset-password", authController.ResetPassword)

	// User routes; /me must come before /:id
	userController := controllers.NewUserController(db, cfg, svc, logger)
	users := api.Group("/users", authMiddleware)
	users.Get("/me", userController.GetMe)
	users.Put("/me", userController.UpdateMe)
	users.Put("/me/password", userController.ChangePassword)
	users.Post("/me/avatar", userController.UploadAvatar)
	users.Get("/:id/teacher-profile", userController.GetTeacherProfile)
	users.Put("/:id/teacher-profile", userController.UpsertTeacherProfile)
	users.Get("/", adminMiddleware, userController.ListUsers)
	users.Post("/", adminMiddleware, userController.CreateUser)
	users.Get("/:id", adminMiddleware, userController.GetUser)
	users.Put("/:id", adminMiddleware, userController.UpdateUser)
	users.Put("/:id/role", adminMiddleware, userController.UpdateRole)
	users.Put("/:id/activate", adminMiddleware, userController.ActivateUser)
	users.Put("/:id/deactivate", adminMiddleware, userController.DeactivateUser)
	users.Get("/:id/courses", adminMiddleware, userController.GetUserCourses)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg, svc, logger)
	api.Get("/progress", authMiddleware, progressController.GetProgress)
	api.Get("/progress/overview", authMiddleware, progressController.GetProgressOverview)

	// Courses routes
	coursesController := controllers.NewCoursesController(db, cfg, svc, logger)
	contentController := controllers.NewContentController(db, cfg, svc, logger)
	courses := api.Group("/courses")
	courses.Get("/", optionalAuth, coursesController.GetCourses)
	courses.Post("/", authMiddleware, teacherMiddleware, coursesController.CreateCourse)
	courses.Get("/:id", optionalAuth, coursesController.GetCourse)
	courses.Put("/:id", authMiddleware, coursesController.UpdateCourse)
	courses.Delete("/:id", authMiddleware, coursesController.DeleteCourse)
	courses.Post("/:id/enroll", authMiddleware, coursesController.Enroll)
	courses.Delete("/:id/enroll", authMiddleware, coursesController.Unenroll)
	courses.Get("/:id/progress", authMiddleware, coursesController.GetProgress)
	courses.Post("/:id/teachers", authMiddleware, coursesController.AddTeacher)
	courses.Delete("/:id/teachers/:teacher_id", authMiddleware, coursesController.RemoveTeacher)
	courses.Get("/:id/modules", authMiddleware, contentController.GetModules)
	courses.Post("/:id/modules", authMiddleware, contentController.CreateModule)

	// Course content
	modules := api.Group("/modules", authMiddleware)
	modules.Get("/:id", contentController.GetModule)
	modules.Put("/:id", contentController.UpdateModule)
	modules.Delete("/:id", contentController.DeleteModule)
	modules.Get("/:id/lessons", contentController.GetLessons)
	modules.Post("/:id/lessons", contentController.CreateLesson)

	lessons := api.Group("/lessons", authMiddleware)
	lessons.Get("/:id", contentController.GetLesson)
	lessons.Put("/:id", contentController.UpdateLesson)
	lessons.Delete("/:id", contentController.DeleteLesson)
	lessons.Get("/:id/materials", contentController.GetMaterials)
	lessons.Post("/:id/materials", contentController.CreateMaterial)
	lessons.Get("/:id/tasks", contentController.GetTasks)
	lessons.Post("/:id/tasks", contentController.CreateTask)

	commentsController := controllers.NewCommentsController(db, cfg, svc, logger)
	materials := api.Group("/materials", authMiddleware)
	materials.Get("/:id", contentController.GetMaterial)
	materials.Put("/:id", contentController.UpdateMaterial)
	materials.Delete("/:id", contentController.DeleteMaterial)
	materials.Post("/:id/file", contentController.UploadMaterialFile)
	materials.Get("/:id/comments", commentsController.GetMaterialComments)
	materials.Post("/:id/comments", commentsController.AddMaterialComment)

	comments := api.Group("/comments", authMiddleware)
	comments.Put("/:id", commentsController.UpdateComment)
	comments.Delete("/:id", commentsController.DeleteComment)

	// Tasks and answers
	answersController := controllers.NewAnswersController(db, cfg, svc, logger)
	tasks := api.Group("/tasks", authMiddleware)
	tasks.Get("/:id", contentController.GetTask)
	tasks.Put("/:id", contentController.UpdateTask)
	tasks.Delete("/:id", contentController.DeleteTask)
	tasks.Post("/:id/answers/upload", answersController.UploadAnswer)
	tasks.Post("/:id/answers", answersController.SubmitAnswer)
	tasks.Get("/:id/answers", answersController.GetTaskAnswers)

	answers := api.Group("/answers", authMiddleware)
	answers.Get("/:id", answersController.GetAnswer)
	answers.Put("/:id/grade", answersController.GradeAnswer)

	// Notifications; static paths before /:id
	notificationsController := controllers.NewNotificationsController(db, cfg, svc, logger)
	notifications := api.Group("/notifications", authMiddleware)
	notifications.Get("/", notificationsController.GetNotifications)
	notifications.Get("/count/unread", notificationsController.CountUnread)
	notifications.Put("/mark-all-as-read", notificationsController.MarkAllAsRead)
	notifications.Get("/:id", notificationsController.GetNotification)
	notifications.Put("/:id", notificationsController.UpdateNotification)
	notifications.Delete("/:id", notificationsController.DeleteNotification)

	// Certificates
	certificatesController := controllers.NewCertificatesController(db, cfg, svc, logger)
	certificates := api.Group("/certificates", authMiddleware)
	certificates.Get("/", certificatesController.GetMyCertificates)
	certificates.Post("/courses/:course_id/generate", certificatesController.GenerateCertificate)
	certificates.Get("/:id", certificatesController.DownloadCertificate)

	// Files
	filesController := controllers.NewFilesController(db, cfg, svc, logger)
	files := api.Group("/files", authMiddleware)
	files.Post("/upload", filesController.UploadFile)
	files.Get("/download/*", filesController.DownloadFile)
	files.Delete("/*", teacherMiddleware, filesController.DeleteFile)

	// Statistics
	analyticsController := controllers.NewAnalyticsController(db, cfg, svc, logger)
	statistics := api.Group("/statistics", authMiddleware)
	statistics.Get("/courses/:id", analyticsController.GetCourseStatistics)
	statistics.Get("/courses/:id/progress", analyticsController.GetStudentsProgress)
	statistics.Get("/courses/:id/activity", analyticsController.GetCourseActivity)
	statistics.Get("/system/overview", adminMiddleware, analyticsController.GetSystemOverview)

	// Admin routes
	adminController := controllers.NewAdminController(db, cfg, svc, logger)
	admin := api.Group("/admin", authMiddleware, adminMiddleware)
	admin.Get("/stats", adminController.GetStats)
	admin.Get("/users/activity", adminController.GetUsersActivity)
	admin.Get("/courses/report", adminController.GetCoursesReport)
	admin.Post("/backup", adminController.CreateBackup)
	admin.Post("/restore", adminController.RestoreBackup)
	admin.Get("/maintenance", adminController.GetMaintenance)
	admin.Post("/maintenance/enable", adminController.EnableMaintenance)
	admin.Post("/maintenance/disable", adminController.DisableMaintenance)
	admin.Post("/notifications", adminController.BroadcastNotification)
}
