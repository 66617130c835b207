package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leadforge/enricher/internal/auth"
	"github.com/leadforge/enricher/internal/config"
	"github.com/leadforge/enricher/internal/handler"
	middlewarepkg "github.com/leadforge/enricher/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserAdminHandler
	Companies   *handler.CompaniesHandler
	AdminUpload *handler.AdminUploadHandler
	Enrich      *handler.EnrichHandler
	Lookup      *handler.LookupHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.POST("/auth/register", handlers.Auth.Register)
	e.POST("/auth/login", handlers.Auth.Login)
	e.GET("/companies", handlers.Companies.List)
	e.GET("/companies/:id", handlers.Companies.Get)

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))

	admin := secured.Group("/admin", middlewarepkg.RequireRole("admin"))
	admin.POST("/companies", handlers.Companies.Upsert)
	admin.POST("/upload-csv", handlers.AdminUpload.UploadCSV)
	admin.GET("/users", handlers.Users.List)
	admin.POST("/users", handlers.Users.Create)
	admin.PATCH("/users/:id", handlers.Users.Update)
	admin.DELETE("/users/:id", handlers.Users.Delete)

	secured.POST("/enrich", handlers.Enrich.Enrich, middlewarepkg.EnrichRateLimiter(cfg.RateLimitEnrich))
	secured.GET("/enrich/:company_id", handlers.Enrich.GetResult)
	secured.GET("/pages/text", handlers.Enrich.PageText)

	if handlers.Lookup != nil {
		secured.POST("/lookup", handlers.Lookup.Lookup)
		secured.POST("/lookup/prompt", handlers.Lookup.PromptLookup)
	}
}
