package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ignation/worldcourse-backend/controllers"
	"github.com/ignation/worldcourse-backend/middleware"
	"github.com/ignation/worldcourse-backend/models"
	"github.com/ignation/worldcourse-backend/services"
	"github.com/ignation/worldcourse-backend/utils"
	"github.com/ignation/worldcourse-backend/ws"
)

type Options struct {
	Mailer             services.Mailer
	Store              utils.FileStore // nil disables attachment uploads
	LoginRatePerMinute int
}

func SetupRouter(r *gin.Engine, db *gorm.DB, opts Options) *gin.Engine {
	utils.InitValidator()
	if opts.Mailer == nil {
		opts.Mailer = &services.ConsoleMailer{}
	}

	r.Use(middleware.DBMiddleware(db), middleware.ServicesMiddleware(opts.Mailer, opts.Store))

	r.GET("/ping", controllers.Ping)
	r.GET("/health", controllers.HealthCheck)
	r.GET("/ws/notifications", ws.HandleUserWebSocket)

	api := r.Group("/api")

	limited := middleware.RateLimit(opts.LoginRatePerMinute)
	api.POST("/register", limited, controllers.Register)
	api.POST("/login", limited, controllers.Login)

	public := api.Group("")
	public.Use(middleware.OptionalAuthMiddleware())
	{
		public.GET("/courses", controllers.GetCourses)
		public.GET("/courses/:id", controllers.GetCourse)
	}

	auth := api.Group("")
	auth.Use(middleware.AuthMiddleware())

	staff := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)
	admin := middleware.RequireRoles(models.RoleAdmin)

	{
		auth.GET("/me", controllers.GetMe)
		auth.PUT("/me", controllers.UpdateMe)

		auth.POST("/users", admin, controllers.CreateUser)
		auth.PATCH("/users/:id/points", admin, controllers.AdjustUserPoints)
		auth.PATCH("/users/:id/status", admin, controllers.SetUserStatus)

		auth.POST("/courses", staff, controllers.CreateCourse)
		auth.PUT("/courses/:id", staff, controllers.UpdateCourse)
		auth.DELETE("/courses/:id", staff, controllers.DeleteCourse)
		auth.GET("/courses/:id/students", staff, controllers.GetCourseStudents)
		auth.PUT("/courses/:id/progress", controllers.UpdateCourseProgress)

		auth.POST("/orders", controllers.PlaceOrder)
		auth.GET("/orders", controllers.GetOrders)
		auth.GET("/enrollments", controllers.GetEnrollments)

		auth.GET("/todos", controllers.GetTodoLists)
		auth.POST("/todos", controllers.CreateTodoList)
		auth.GET("/todos/:id", controllers.GetTodoList)
		auth.PUT("/todos/:id", controllers.UpdateTodoList)
		auth.DELETE("/todos/:id", controllers.DeleteTodoList)
		auth.POST("/todos/:id/tasks", controllers.AddTask)
		auth.PUT("/todos/:id/tasks/:taskId", controllers.UpdateTask)
		auth.DELETE("/todos/:id/tasks/:taskId", controllers.DeleteTask)

		auth.GET("/notifications/feed", controllers.GetFeed)
		auth.GET("/notifications", controllers.GetNotifications)
		auth.GET("/notifications/unread-count", controllers.GetUnreadCount)
		auth.PATCH("/notifications/read-all", controllers.MarkAllAsRead)
		auth.PATCH("/notifications/:id/read", controllers.MarkNotificationAsRead)
		auth.DELETE("/notifications/:id", controllers.DeleteNotification)
	}

	kinds := map[string]models.AssessmentKind{
		"/assignments": models.KindAssignment,
		"/quizzes":     models.KindQuiz,
		"/exams":       models.KindExam,
	}
	for prefix, kind := range kinds {
		ac := controllers.NewAssessmentController(kind)
		g := auth.Group(prefix)
		g.GET("", ac.List)
		g.GET("/:id", ac.Get)
		g.POST("", staff, ac.Create)
		g.PUT("/:id", staff, ac.Update)
		g.DELETE("/:id", staff, ac.Delete)
		g.POST("/:id/submit", ac.Submit)
		g.PUT("/:id/grade", staff, ac.Grade)
		g.GET("/:id/submissions", staff, ac.Submissions)
		g.GET("/:id/submissions/export", staff, ac.ExportSubmissions)
		g.GET("/:id/my-submissions", ac.MySubmissions)
		g.POST("/:id/attachments", ac.UploadAttachment)
	}

	return r
}
