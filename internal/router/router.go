package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/backoffice-service/api"
	"github.com/psds-microservice/backoffice-service/internal/handler"
	"github.com/psds-microservice/backoffice-service/internal/metrics"
	"github.com/psds-microservice/backoffice-service/internal/middleware"
	"github.com/psds-microservice/helpy/paths"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Handlers struct {
	Health *handler.HealthHandler
	Auth   *handler.AuthHandler
	Admin  *handler.AdminHandler
	Client *handler.ClientHandler
	Ticket *handler.TicketHandler
}

type Options struct {
	Verifier    middleware.TokenVerifier
	CORSOrigins []string
	Logger      *zap.Logger
}

func New(h Handlers, opts Options) http.Handler {
	handler.RegisterValidators()
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), metrics.Instrument(), middleware.Logger(log))
	if len(opts.CORSOrigins) > 0 {
		r.Use(middleware.CORS(opts.CORSOrigins))
	}

	r.GET(paths.PathHealth, h.Health.Health)
	r.GET(paths.PathReady, h.Health.Ready)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET(paths.PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, paths.PathSwagger+"/") })
	r.GET(paths.PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = paths.PathSwagger + "/index.html"
			c.Request.RequestURI = paths.PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(paths.PathSwagger+"/openapi.json"))(c)
	})

	sess := middleware.Session(opts.Verifier)

	r.POST("/api/admin/unified-login", h.Auth.UnifiedLogin)
	r.POST("/api/admin/register", h.Auth.Register)
	r.POST("/logout", h.Auth.Logout)
	r.GET("/check-cookie", sess, h.Auth.CheckCookie)

	admin := r.Group("/api/admin", sess, middleware.RequireAdmin())
	{
		admin.GET("/me", h.Admin.Me)
		admin.PUT("/password", h.Admin.ChangePassword)
		admin.GET("/admins", h.Admin.ListAdmins)
		admin.DELETE("/admins/:id", h.Admin.DeleteAdmin)
		admin.POST("/clients", h.Admin.CreateClient)
		admin.GET("/clients", h.Admin.ListClients)
		admin.GET("/clients/:id", h.Admin.GetClient)
		admin.PATCH("/clients/:id/status", h.Admin.SetClientStatus)
	}

	client := r.Group("/api/client", sess, middleware.RequireClient())
	{
		client.GET("/profile", h.Client.Profile)
		client.PUT("/profile", h.Client.UpdateProfile)
		client.PUT("/password", h.Client.ChangePassword)
	}

	// ticket routes admit both kinds; ownership is decided per ticket in the service
	tickets := r.Group("/api/tickets", sess)
	{
		tickets.POST("", h.Ticket.Create)
		tickets.GET("", h.Ticket.List)
		tickets.GET("/stats", middleware.RequireAdmin(), h.Ticket.Stats)
		tickets.GET("/:id", h.Ticket.Get)
		tickets.POST("/:id/messages", h.Ticket.AddMessage)
		tickets.PATCH("/:id/status", h.Ticket.UpdateStatus)
		tickets.PATCH("/:id/assign", middleware.RequireAdmin(), h.Ticket.Assign)
	}

	return r
}
