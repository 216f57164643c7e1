package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/gracecoe/placement-portal/src/auth"
	"github.com/gracecoe/placement-portal/src/config"
	"github.com/gracecoe/placement-portal/src/events"
	"github.com/gracecoe/placement-portal/src/handlers"
	"github.com/gracecoe/placement-portal/src/identity"
	"github.com/gracecoe/placement-portal/src/middleware"
	"github.com/gracecoe/placement-portal/src/placements"
	"github.com/gracecoe/placement-portal/src/store"
)

func init() {

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	} else {
		log.Println("✅ Loaded .env file")
	}
}

func main() {

	if os.Getenv("GOOGLE_CLIENT_ID") == "" {
		log.Fatal("❌ GOOGLE_CLIENT_ID not set in environment or .env file")
	}
	if os.Getenv("GOOGLE_CLIENT_SECRET") == "" {
		log.Fatal("❌ GOOGLE_CLIENT_SECRET not set in environment or .env file")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("✓ Config loaded successfully")

	redisClient, err := store.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer redisClient.Close()
	log.Printf("✓ Redis connected")

	bus := events.NewBus()
	bus.SubscribeAll(func(e events.Event) {
		email := ""
		if e.Identity != nil {
			email = e.Identity.Email
		}
		log.Printf("Auth event: %s %s", e.Kind, email)
	})

	classifier := identity.NewAdminClassifier(cfg.Admin.Emails)
	log.Printf("✓ Admin allow-list loaded with %d entries", len(cfg.Admin.Emails))

	userStore := store.NewUserStore(redisClient)
	reconciler := identity.NewReconciler(userStore, classifier, bus)

	oauthConfig := auth.GetGoogleOAuthConfig(
		cfg.Auth.GoogleClientID,
		cfg.Auth.GoogleClientSecret,
		cfg.Auth.GoogleRedirectURL,
	)

	stateStore := auth.NewStateStore(redisClient, cfg.Auth.StateTTL)
	sessionStore := auth.NewSessionStore(redisClient, cfg.Auth.SessionDuration)
	credentialStore := auth.NewCredentialStore(redisClient, cfg.Auth.ResetTokenTTL)

	authHandler := handlers.NewAuthHandler(
		oauthConfig,
		stateStore,
		sessionStore,
		credentialStore,
		reconciler,
		bus,
		&cfg.Auth,
	)
	authMiddleware := middleware.NewAuthMiddleware(sessionStore, userStore, classifier)
	log.Printf("✓ Authentication system initialized")

	userHandler := handlers.NewUserHandler(userStore)
	internshipStore := placements.NewInternshipStore(redisClient)
	placementStore := placements.NewPlacementStore(redisClient)
	placementHandler := handlers.NewPlacementHandler(internshipStore, placementStore)
	healthHandler := handlers.NewHealthHandler(redisClient)

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.HealthCheck)

		authRoutes := v1.Group("/auth")
		{
			authRoutes.GET("/google/login", authHandler.GoogleLogin)
			authRoutes.GET("/google/callback", authHandler.GoogleCallback)
			authRoutes.POST("/signup", authHandler.Signup)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/logout", authHandler.Logout)
			authRoutes.POST("/reset/request", authHandler.RequestPasswordReset)
			authRoutes.POST("/reset/confirm", authHandler.ConfirmPasswordReset)
			authRoutes.GET("/me", authMiddleware.RequireAuth(), authHandler.Me)
			authRoutes.PUT("/me", authMiddleware.RequireAuth(), userHandler.UpdateProfile)
		}

		v1.GET("/internships", placementHandler.ListInternships)
		v1.GET("/internships/:id", placementHandler.GetInternship)
		v1.GET("/placements", placementHandler.ListPlacements)
		v1.GET("/placements/:id", placementHandler.GetPlacement)

		admin := v1.Group("")
		admin.Use(authMiddleware.RequireAdmin())
		{
			admin.POST("/internships", placementHandler.CreateInternship)
			admin.PUT("/internships/:id", placementHandler.UpdateInternship)
			admin.DELETE("/internships/:id", placementHandler.DeleteInternship)
			admin.POST("/placements", placementHandler.CreatePlacement)
			admin.PUT("/placements/:id", placementHandler.UpdatePlacement)
			admin.DELETE("/placements/:id", placementHandler.DeletePlacement)
			admin.DELETE("/users/:id", userHandler.DeleteUser)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Printf("🚀 Placement portal running on port %s", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

func corsMiddleware() gin.HandlerFunc {
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	var allowedOrigins []string

	if allowedOriginsEnv != "" {
		allowedOrigins = strings.Split(allowedOriginsEnv, ",")
		for i := range allowedOrigins {
			allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
		}
	} else {
		// Default for local development
		allowedOrigins = []string{
			"http://localhost:3000",
			"http://localhost:3001",
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Allow requests without Origin header (health checks, curl)
		if origin == "" {
			c.Next()
			return
		}

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin {
				allowed = true
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}

		if !allowed {
			c.AbortWithStatus(403)
			return
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
