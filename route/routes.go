package route

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"fiber/responta/app/lifecycle"
	"fiber/responta/app/policy"
	"fiber/responta/app/repo"
	"fiber/responta/app/service"
	"fiber/responta/config"
	"fiber/responta/middleware"
)

// SetupRoutes wires repositories, services and routes. Complaints and users go through
// raw SQL on sqlDB; master data and the token blacklist go through gorm.
func SetupRoutes(app *fiber.App, pgDB *gorm.DB, sqlDB *sql.DB, mongoDB *mongo.Database, reg *prometheus.Registry) {
	httpMetrics := middleware.NewHTTPMetrics(reg)
	app.Use(httpMetrics.Instrument())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	app.Static("/uploads", config.Env.UploadDir)

	engine := policy.New()

	userRepo := repo.NewUserRepo(sqlDB)
	tokenRepo := repo.NewTokenRepo(pgDB)
	orgRepo := repo.NewOrganizationRepo(pgDB)
	aduanRepo := repo.NewAduanRepo(sqlDB)
	photoRepo := repo.NewPhotoRepo(mongoDB)

	manager := lifecycle.NewManager(aduanRepo, userRepo, orgRepo, engine, lifecycle.NewMetrics(reg))

	authService := service.NewAuthService(userRepo, tokenRepo)
	userService := service.NewUserService(userRepo, orgRepo, engine)
	aduanService := service.NewAduanService(aduanRepo, photoRepo, orgRepo, manager, engine, config.Env.UploadDir)
	masterService := service.NewMasterService(orgRepo, userRepo)

	v1 := app.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.Post("/login", authService.Login)
	auth.Post("/refresh", authService.Refresh)

	protected := v1.Group("", middleware.AuthRequired(tokenRepo, userRepo))

	protected.Post("/auth/logout", authService.Logout)
	protected.Get("/auth/profile", authService.Profile)

	aduan := protected.Group("/aduan")
	aduan.Post("/", aduanService.Create)
	aduan.Get("/", aduanService.List)
	aduan.Get("/tiket/:nomor", aduanService.GetByTicket)
	aduan.Get("/:id", aduanService.Get)
	aduan.Put("/:id", aduanService.Update)
	aduan.Delete("/:id", aduanService.Delete)
	aduan.Post("/:id/photos", aduanService.AddPhotos)
	aduan.Put("/:id/verify", aduanService.Verify)
	aduan.Put("/:id/reject", aduanService.Reject)
	aduan.Put("/:id/assign", aduanService.Assign)
	aduan.Put("/:id/status", aduanService.UpdateStatus)
	aduan.Put("/:id/priority", aduanService.SetPriority)
	aduan.Put("/:id/progress", aduanService.UpdateProgress)
	aduan.Post("/:id/notes", aduanService.AddNote)
	aduan.Get("/:id/history", aduanService.History)

	users := protected.Group("/users")
	users.Get("/", userService.GetAllUsers)
	users.Post("/", userService.CreateUser)
	users.Get("/:id", userService.GetUser)
	users.Put("/:id", userService.UpdateUser)
	users.Delete("/:id", userService.DeleteUser)
	users.Put("/:id/activate", userService.SetActive)

	protected.Get("/organizations", masterService.Organizations)
	protected.Get("/dinas", masterService.Dinas)
	protected.Get("/dinas/:id/staff", masterService.DinasStaff)
}
