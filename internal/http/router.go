package http

import (
	"context"
	"log/slog"
	"strings"

	"github.com/geocoder89/recipehub/internal/config"
	"github.com/geocoder89/recipehub/internal/domain/recipe"
	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/geocoder89/recipehub/internal/http/handlers"
	"github.com/geocoder89/recipehub/internal/http/middlewares"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/geocoder89/recipehub/internal/storage"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UserStore is everything the HTTP layer needs from the user repository.
type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
}

// TokenService issues and resolves bearer tokens.
type TokenService interface {
	handlers.Authenticator
	middlewares.Resolver
}

type Deps struct {
	Users       UserStore
	Recipes     handlers.RecipeStore
	Tags        handlers.AttributeStore
	Ingredients handlers.AttributeStore
	Auth        TokenService
	Images      storage.ImageStore
	Prom        *observability.Prom
	Checks      map[string]handlers.Check
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	handlers.RegisterValidators()

	r := gin.New()
	r.RedirectTrailingSlash = false

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if cfg.OTelEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders(cfg.MediaBaseURL))
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	// health, metrics, docs

	health := handlers.NewHealthHandler(deps.Checks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Prom != nil {
		r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	if disk, ok := deps.Images.(*storage.DiskStore); ok && strings.HasPrefix(cfg.MediaBaseURL, "/") {
		r.Static(cfg.MediaBaseURL, disk.Dir())
	}

	// handlers

	authMW := middlewares.NewAuthMiddleware(deps.Auth, log)
	requireAuth := authMW.RequireAuth()
	requireJSON := middlewares.RequireJSON()
	requireMultipart := middlewares.RequireMultipart()

	authLimiter := middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
	uploadLimiter := middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)

	usersHandler := handlers.NewUsersHandler(deps.Users, deps.Auth, deps.Prom, log)
	recipesHandler := handlers.NewRecipesHandler(deps.Recipes, deps.Images, log)
	tagsHandler := handlers.NewAttributesHandler(recipe.KindTag, deps.Tags, log)
	ingredientsHandler := handlers.NewAttributesHandler(recipe.KindIngredient, deps.Ingredients, log)
	adminHandler := handlers.NewAdminHandler(deps.Users, log)

	api := r.Group("/api")

	// users
	users := api.Group("/users")
	users.POST("/create", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), requireJSON, usersHandler.Create)
	users.POST("/token", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), requireJSON, usersHandler.Token)

	me := users.Group("/me", requireAuth)
	me.GET("", usersHandler.Me)
	me.PUT("", requireJSON, usersHandler.ReplaceMe)
	me.PATCH("", requireJSON, usersHandler.PatchMe)

	// recipes
	recipes := api.Group("/recipes", requireAuth)
	for _, root := range []string{"", "/"} {
		recipes.GET(root, recipesHandler.ListRecipes)
		recipes.POST(root, requireJSON, recipesHandler.CreateRecipe)
	}
	for _, item := range []string{"/:id", "/:id/"} {
		recipes.GET(item, recipesHandler.GetRecipe)
		recipes.PUT(item, requireJSON, recipesHandler.ReplaceRecipe)
		recipes.PATCH(item, requireJSON, recipesHandler.PatchRecipe)
		recipes.DELETE(item, recipesHandler.DeleteRecipe)
	}
	for _, upload := range []string{"/:id/upload-image", "/:id/upload-image/"} {
		recipes.POST(upload, uploadLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP), requireMultipart, recipesHandler.UploadImage)
	}

	// tags and ingredients
	registerAttributeRoutes(api.Group("/tags", requireAuth), tagsHandler, requireJSON)
	registerAttributeRoutes(api.Group("/ingredients", requireAuth), ingredientsHandler, requireJSON)

	// admin
	admin := api.Group("/admin", requireAuth, authMW.RequireStaff())
	admin.GET("/users", adminHandler.ListUsers)

	return r
}

func registerAttributeRoutes(g *gin.RouterGroup, h *handlers.AttributesHandler, requireJSON gin.HandlerFunc) {
	for _, root := range []string{"", "/"} {
		g.GET(root, h.List)
		g.POST(root, requireJSON, h.Create)
	}
	for _, item := range []string{"/:id", "/:id/"} {
		g.GET(item, h.Get)
		g.PUT(item, requireJSON, h.Replace)
		g.PATCH(item, requireJSON, h.Patch)
		g.DELETE(item, h.Delete)
	}
}
