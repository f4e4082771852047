package main

import (
	"log"
	"net/http"
	"time"

	"kanzlei_app_go/config"
	"kanzlei_app_go/db"
	"kanzlei_app_go/handlers"
	"kanzlei_app_go/middleware"
	"kanzlei_app_go/services"
	"kanzlei_app_go/services/jobs"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg.DBPath, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize document storage (R2 or local fallback)
	services.InitializeStorage(cfg)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Printf("%s %s -> %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})

	// Public routes (no authentication required)
	e.POST("/api/login", handlers.LoginHandler(cfg))

	// Protected routes (session required)
	api := e.Group("/api")
	api.Use(middleware.RequireAuth())
	api.Use(middleware.AuditContext())
	{
		api.POST("/logout", handlers.LogoutHandler)
		api.GET("/me", handlers.MeHandler)

		// Party master data
		api.GET("/clients", handlers.ListClientsHandler)
		api.POST("/clients", handlers.CreateClientHandler)
		api.GET("/clients/:id", handlers.GetClientHandler)
		api.PUT("/clients/:id", handlers.UpdateClientHandler)
		api.DELETE("/clients/:id", handlers.DeleteClientHandler)

		api.GET("/opponents", handlers.ListOpponentsHandler)
		api.POST("/opponents", handlers.CreateOpponentHandler)
		api.GET("/opponents/:id", handlers.GetOpponentHandler)
		api.PUT("/opponents/:id", handlers.UpdateOpponentHandler)
		api.DELETE("/opponents/:id", handlers.DeleteOpponentHandler)

		api.GET("/addressbook/search", handlers.AddressBookSearchHandler)

		// Cases (static segments before :id)
		api.GET("/cases", handlers.ListCasesHandler)
		api.POST("/cases", handlers.CreateCaseHandler(cfg))
		api.GET("/cases/next-number", handlers.NextFileNumberHandler(cfg))
		api.GET("/cases/priorities", handlers.CasePrioritiesHandler)
		api.GET("/cases/:id", handlers.GetCaseHandler)
		api.PUT("/cases/:id", handlers.UpdateCaseHandler)
		api.POST("/cases/:id/close", handlers.CloseCaseHandler)
		api.POST("/cases/:id/extra-info", handlers.CaseExtraInfoHandler)

		// Third parties
		api.GET("/cases/:id/parties", handlers.ListThirdPartiesHandler)
		api.POST("/cases/:id/parties", handlers.CreateThirdPartyHandler)
		api.PUT("/cases/:id/parties/:pid", handlers.UpdateThirdPartyHandler)
		api.DELETE("/cases/:id/parties/:pid", handlers.DeleteThirdPartyHandler)

		// Organizer
		api.GET("/cases/:id/organizer", handlers.GetOrganizerHandler)
		api.GET("/cases/:id/tasks", handlers.ListTasksHandler)
		api.POST("/cases/:id/tasks", handlers.CreateTaskHandler)
		api.PUT("/cases/:id/tasks/:itemID", handlers.UpdateTaskHandler)
		api.DELETE("/cases/:id/tasks/:itemID", handlers.DeleteTaskHandler)
		api.GET("/cases/:id/deadlines", handlers.ListDeadlinesHandler)
		api.POST("/cases/:id/deadlines", handlers.CreateDeadlineHandler)
		api.PUT("/cases/:id/deadlines/:itemID", handlers.UpdateDeadlineHandler)
		api.DELETE("/cases/:id/deadlines/:itemID", handlers.DeleteDeadlineHandler)
		api.GET("/cases/:id/notes", handlers.ListNotesHandler)
		api.POST("/cases/:id/notes", handlers.CreateNoteHandler)
		api.PUT("/cases/:id/notes/:itemID", handlers.UpdateNoteHandler)
		api.DELETE("/cases/:id/notes/:itemID", handlers.DeleteNoteHandler)

		// Financial ledger
		api.GET("/cases/:id/positions", handlers.ListPositionsHandler)
		api.POST("/cases/:id/positions", handlers.CreatePositionHandler)
		api.PUT("/cases/:id/positions/:pid", handlers.UpdatePositionHandler)
		api.DELETE("/cases/:id/positions/:pid", handlers.DeletePositionHandler)

		// Documents
		api.GET("/cases/:id/documents", handlers.ListDocumentsHandler)
		api.POST("/cases/:id/documents", handlers.UploadDocumentHandler)
		api.GET("/cases/:id/documents/:docID/download", handlers.DownloadDocumentHandler)
		api.PUT("/cases/:id/documents/:docID", handlers.UpdateDocumentHandler)
		api.DELETE("/cases/:id/documents/:docID", handlers.DeleteDocumentHandler)

		// Users may edit their own profile; role and active flag changes
		// stay admin-only inside the handler
		api.PUT("/users/:id", handlers.UpdateUserHandler)

		// Dashboard and reports
		api.GET("/dashboard", handlers.DashboardHandler)
		api.GET("/export/cases.xlsx", handlers.ExportCasesHandler)
		api.GET("/cases/:id/export/ledger.xlsx", handlers.ExportLedgerHandler)
		api.GET("/cases/:id/coversheet.pdf", handlers.CoverSheetHandler)

		// Admin-only routes
		adminRoutes := api.Group("")
		adminRoutes.Use(middleware.RequireRole("admin"))
		{
			adminRoutes.DELETE("/cases/:id", handlers.DeleteCaseHandler)
			adminRoutes.GET("/users", handlers.ListUsersHandler)
			adminRoutes.POST("/users", handlers.CreateUserHandler)
			adminRoutes.DELETE("/users/:id", handlers.DeleteUserHandler)
			adminRoutes.GET("/audit-logs", handlers.ListAuditLogsHandler)
			adminRoutes.GET("/audit-logs/:resourceType/:resourceID", handlers.ResourceAuditHistoryHandler)
		}
	}

	// Hourly session cleanup
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if err := services.CleanupExpiredSessions(db.DB); err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
			}
		}
	}()

	// Daily deadline reminders
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			jobs.SendDeadlineReminders(db.DB, cfg)
		}
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
