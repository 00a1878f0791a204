// Package server contains the HTTP handlers for the JamSesh API.
package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "jamsesh/docs" // swagger docs
	"jamsesh/internal/cache"
	"jamsesh/internal/config"
	"jamsesh/internal/geocode"
	"jamsesh/internal/middleware"
	"jamsesh/internal/models"
	"jamsesh/internal/notifications"
	"jamsesh/internal/repository"
	"jamsesh/internal/service"
	"jamsesh/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "jamsesh-api"
	tokenAudience = "jamsesh-client"
	tokenTTL      = 7 * 24 * time.Hour
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	cache          *cache.Cache
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	userRepo       repository.UserRepository
	profileRepo    repository.ProfileRepository
	postRepo       repository.PostRepository
	store          storage.ObjectStorage
	geocoder       geocode.Reverser
	notifier       *notifications.Notifier
	postService    *service.PostService
	profileService *service.ProfileService
	uploadService  *service.UploadService
}

// Option overrides a dependency NewServerWithDeps would otherwise build from config.
type Option func(*Server)

// WithStorage sets the object store used for uploads.
func WithStorage(store storage.ObjectStorage) Option {
	return func(s *Server) { s.store = store }
}

// WithGeocoder sets the reverse geocoder.
func WithGeocoder(g geocode.Reverser) Option {
	return func(s *Server) { s.geocoder = g }
}

// WithMetrics enables Prometheus request metrics. Registration is global, so
// only one server per process should use it.
func WithMetrics(serviceName string) Option {
	return func(s *Server) { s.promMiddleware = middleware.InitMetrics(serviceName) }
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, which disables caching, revocation and post events.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...Option) (*Server, error) {
	c := cache.New(redisClient)
	s := &Server{
		config:      cfg,
		db:          db,
		redis:       redisClient,
		cache:       c,
		userRepo:    repository.NewUserRepository(db),
		profileRepo: repository.NewProfileRepository(db, c),
		postRepo:    repository.NewPostRepository(db, c),
		notifier:    notifications.NewNotifier(redisClient),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		local, err := storage.NewLocalStorage(cfg.UploadDir, storage.LocalURLPrefix)
		if err != nil {
			return nil, fmt.Errorf("object storage: %w", err)
		}
		s.store = local
	}
	if s.geocoder == nil {
		ttl := time.Duration(cfg.GeocodeCacheMinutes) * time.Minute
		s.geocoder = geocode.New(cfg.GeocoderURL, cfg.GeocoderUserAgent, ttl)
	}

	s.postService = service.NewPostService(s.postRepo, s.notifier)
	s.profileService = service.NewProfileService(s.profileRepo)
	s.uploadService = service.NewUploadService(s.store, cfg)
	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Uploaded images are embedded cross-origin by the web client.
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so 429 responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "JamSesh Backend Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Public media
	if local, ok := s.store.(*storage.LocalStorage); ok {
		app.Static(storage.LocalURLPrefix, local.Root(), fiber.Static{MaxAge: 3600})
	}
	app.Static("/"+service.ProfilePictureDir, s.publicDir()+"/"+service.ProfilePictureDir, fiber.Static{MaxAge: 3600})

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, middleware.SignupLimit), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, middleware.LoginLimit), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/session", s.Session)

	publicPosts := api.Group("/posts")
	publicPosts.Get("/", s.GetPosts)
	publicPosts.Get("/stream", s.StreamPostEvents)
	publicPosts.Get("/:id", s.GetPost)

	api.Get("/map/posts", s.GetMapPosts)
	api.Get("/geocode/reverse", middleware.RateLimit(s.redis, middleware.GeocodeLimit), s.ReverseGeocode)

	// Own-events listing answers 401 itself with the documented body.
	api.Get("/events", s.GetMyEvents)

	protected := api.Group("", s.AuthRequired())

	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(s.redis, middleware.CreatePostLimit), s.CreatePost)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	profile := protected.Group("/profile/me")
	profile.Get("/", s.GetMyProfile)
	profile.Put("/", s.UpdateMyProfile)
	profile.Post("/tags", s.AddProfileTag)
	profile.Delete("/tags/:tag", s.RemoveProfileTag)
	profile.Post("/avatar", s.UploadAvatar)

	protected.Post("/storage/:bucket", s.UploadObject)
	protected.Post("/upload-profile", s.UploadProfilePicture)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unavailable"
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is optional; without it the API runs uncached.
		redisStatus = "disabled"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// tokenClaims is what a verified bearer token carries.
type tokenClaims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

// bearerToken reads the Authorization header, falling back to the token query param.
func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return c.Query("token")
}

// verifyToken validates signature, issuer, audience, subject and revocation.
func (s *Server) verifyToken(ctx context.Context, tokenString string) (*tokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithAudience(tokenAudience))
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, models.NewUnauthorizedError("Invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthorizedError("Invalid user ID in token")
	}

	out := &tokenClaims{UserID: uint(userID)}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if jti, ok := claims["jti"].(string); ok {
		out.JTI = jti
	}
	if s.cache.IsRevoked(ctx, out.JTI) {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}
	return out, nil
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.verifyToken(c.UserContext(), tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		s.setSession(c, claims)
		return c.Next()
	}
}

func (s *Server) setSession(c *fiber.Ctx, claims *tokenClaims) {
	c.Locals("userID", claims.UserID)
	c.Locals("token", claims)
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, claims.UserID)
	c.SetUserContext(ctx)
}

// optionalSession verifies a token if one is present but does not enforce it.
func (s *Server) optionalSession(c *fiber.Ctx) (*tokenClaims, bool) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return nil, false
	}
	claims, err := s.verifyToken(c.UserContext(), tokenString)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func (s *Server) publicDir() string {
	if s.config.PublicDir == "" {
		return "public"
	}
	return s.config.PublicDir
}

// Start builds the Fiber app and listens on the configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.NewApp()
	s.app = app

	middleware.Logger.Info("Server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// NewApp returns a fully configured Fiber app without listening.
func (s *Server) NewApp() *fiber.App {
	if s.shutdownCtx == nil {
		s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	}
	bodyLimit := int(s.config.MaxUploadBytes()) + 1024*1024
	if bodyLimit <= 1024*1024 {
		bodyLimit = 11 * 1024 * 1024
	}
	app := fiber.New(fiber.Config{
		AppName:   "JamSesh API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("error closing sql DB", "error", cerr)
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
