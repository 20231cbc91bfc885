package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hallel20/real-estate/internal/api/handlers"
	"github.com/hallel20/real-estate/internal/api/middleware"
	"github.com/hallel20/real-estate/internal/config"
	"github.com/hallel20/real-estate/internal/services"
	"github.com/hallel20/real-estate/internal/storage"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient handlers.IAsynqClient) *gin.Engine {
	// Initialize services needed by API handlers
	userService := services.NewUserService(db, cfg)
	propertyService := services.NewPropertyService(db, cfg, rdb)
	favoriteService := services.NewFavoriteService(db)
	chatService := services.NewChatService(db)
	inquiryService := services.NewInquiryService(db, userService, propertyService, chatService)

	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
	}

	r := gin.Default()

	// Global middleware (order matters)
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(rateLimiter.Limit())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg, userService, taskClient)
	userHandler := handlers.NewUserHandler(userService)
	propertyHandler := handlers.NewPropertyHandler(cfg, propertyService)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteService, propertyService)
	inquiryHandler := handlers.NewInquiryHandler(inquiryService, propertyService, userService, taskClient)
	chatHandler := handlers.NewChatHandler(chatService)
	uploadHandler := handlers.NewUploadHandler(s3StorageService, propertyService, taskClient)

	authRequired := middleware.AuthMiddleware(cfg)
	adminRequired := middleware.AdminMiddleware()

	api := r.Group("/api")
	{
		// Auth
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.POST("/reset-password-request", authHandler.RequestPasswordReset)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
		}

		// Users
		usersGroup := api.Group("/users", authRequired)
		{
			usersGroup.GET("/profile", userHandler.GetProfile)
			usersGroup.PUT("/profile", userHandler.UpdateProfile)
		}

		// Properties: reads are public, writes require auth
		propertiesGroup := api.Group("/properties")
		{
			propertiesGroup.GET("", propertyHandler.Search)
			propertiesGroup.GET("/:id", propertyHandler.Get)
			propertiesGroup.POST("", authRequired, adminRequired, propertyHandler.Create)
			propertiesGroup.PUT("/:id", authRequired, propertyHandler.Update)
			propertiesGroup.DELETE("/:id", authRequired, propertyHandler.Delete)
		}

		// Favourites
		favouritesGroup := api.Group("/favourites", authRequired)
		{
			favouritesGroup.GET("", favoriteHandler.List)
			favouritesGroup.POST("", favoriteHandler.Add)
			favouritesGroup.DELETE("/:property_id", favoriteHandler.Remove)
		}

		// Inquiries: submission is open to guests
		inquiriesGroup := api.Group("/inquiries")
		{
			inquiriesGroup.POST("", inquiryHandler.Submit)
			inquiriesGroup.GET("", authRequired, adminRequired, inquiryHandler.ListAll)
			inquiriesGroup.GET("/user/:id", authRequired, inquiryHandler.ListByUser)
			inquiriesGroup.GET("/property/:id", authRequired, inquiryHandler.ListByProperty)
			inquiriesGroup.PUT("/:id/status", authRequired, inquiryHandler.UpdateStatus)
		}

		// Chats
		chatsGroup := api.Group("/chats", authRequired)
		{
			chatsGroup.GET("", chatHandler.List)
			chatsGroup.GET("/:id/messages", chatHandler.ListMessages)
			chatsGroup.POST("/:id/messages", chatHandler.SendMessage)
			chatsGroup.POST("/:id/read", chatHandler.MarkRead)
		}

		// Image uploads
		uploadGroup := api.Group("/upload", authRequired)
		{
			uploadGroup.POST("/presign", uploadHandler.Presign)
			uploadGroup.POST("/complete", uploadHandler.Complete)
		}
	}

	return r
}
