package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rapidaid/rapidaid/internal/auth"
	"github.com/rapidaid/rapidaid/internal/handlers"
	"github.com/rapidaid/rapidaid/internal/live"
	"github.com/rapidaid/rapidaid/internal/middleware"
	"github.com/rapidaid/rapidaid/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Deps struct {
	DB             *gorm.DB
	Tokens         *auth.JWT
	Notifier       services.Notifier
	Hub            *live.Hub
	Logger         *zap.Logger
	AllowedOrigins []string
	CookieDomain   string
}

func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(d.Logger), gin.Recovery())

	// cors refuses an empty origin list; without origins only same-origin
	// clients are served.
	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	svc := services.Deps{DB: d.DB, Notifier: d.Notifier, Logger: d.Logger}
	if d.Hub != nil {
		svc.Publisher = d.Hub
	}

	authHandler := handlers.NewAuthHandler(d.DB, d.Tokens, d.Logger, d.CookieDomain)
	incidents := handlers.NewIncidentHandler(services.NewIncidentService(svc), d.Logger)
	volunteers := handlers.NewVolunteerHandler(services.NewVolunteerService(svc), d.Logger)
	rescue := handlers.NewRescueHandler(services.NewRescueService(svc), d.Logger)
	assessments := handlers.NewAssessmentHandler(services.NewAssessmentService(svc), d.Logger)
	donations := handlers.NewDonationHandler(services.NewDonationService(svc), d.Logger)
	ledger := handlers.NewLedgerHandler(services.NewLedgerService(svc), d.Logger)

	requireAuth := middleware.AuthMiddleware(d.DB, d.Tokens)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck(d.DB))
		if d.Hub != nil {
			api.GET("/ws/incidents/:incident_id", requireAuth, d.Hub.Serve)
		}

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/me", requireAuth, authHandler.Me)
			authGroup.PATCH("/me", requireAuth, authHandler.UpdateMe)
			authGroup.DELETE("/me", requireAuth, authHandler.DeactivateMe)
			authGroup.POST("/admin/users", requireAuth, authHandler.CreateStaff)
			authGroup.GET("/admin/users", requireAuth, authHandler.ListUsers)
			authGroup.GET("/admin/users/:user_id", requireAuth, authHandler.GetUser)
		}

		incidentGroup := api.Group("/incidents", requireAuth)
		{
			incidentGroup.POST("", incidents.Report)
			incidentGroup.GET("", incidents.List)
			incidentGroup.GET("/:incident_id", incidents.Get)
			incidentGroup.GET("/:incident_id/timeline", incidents.Timeline)
			incidentGroup.PATCH("/:incident_id/status", incidents.UpdateStatus)
			incidentGroup.POST("/:incident_id/media", incidents.AttachMedia)
			incidentGroup.GET("/:incident_id/media", incidents.ListMedia)
		}

		volunteerGroup := api.Group("/volunteer", requireAuth)
		{
			volunteerGroup.POST("/apply", volunteers.Apply)
			volunteerGroup.GET("", volunteers.List)
			volunteerGroup.GET("/mine", volunteers.Mine)
			volunteerGroup.PATCH("/:assignment_id", volunteers.Decide)
		}

		rescueGroup := api.Group("/rescue", requireAuth)
		{
			rescueGroup.POST("/teams", rescue.CreateTeam)
			rescueGroup.GET("/teams", rescue.ListTeams)
			rescueGroup.POST("/teams/:team_id/members", rescue.AddMember)
			rescueGroup.POST("/assignments", rescue.Assign)
			rescueGroup.GET("/assignments", rescue.ListAssignments)
			rescueGroup.PATCH("/assignments/:assignment_id/status", rescue.UpdateStatus)
		}

		assessmentGroup := api.Group("/assessments", requireAuth)
		{
			assessmentGroup.POST("/families", assessments.AddFamily)
			assessmentGroup.GET("/families", assessments.ListFamilies)
			assessmentGroup.POST("/loss", assessments.RecordLoss)
			assessmentGroup.GET("/loss", assessments.ListLosses)
			assessmentGroup.GET("/loss/:loss_id", assessments.GetLoss)
		}

		donationGroup := api.Group("/donations", requireAuth)
		{
			donationGroup.POST("/donor", donations.RegisterDonor)
			donationGroup.POST("/donate", donations.Donate)
			donationGroup.GET("", donations.List)
			donationGroup.POST("/:donation_id/distributions", donations.Distribute)
		}

		ledgerGroup := api.Group("/ledger", requireAuth)
		{
			ledgerGroup.GET("", ledger.List)
			ledgerGroup.POST("", ledger.AddNote)
		}
	}

	return r
}
