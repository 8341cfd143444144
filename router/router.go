package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/yeremiapane/restaurant-reservation/controllers"
	"github.com/yeremiapane/restaurant-reservation/hub"
	"github.com/yeremiapane/restaurant-reservation/middlewares"
	"github.com/yeremiapane/restaurant-reservation/services"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

// Dependencies is everything SetupRouter needs to build the engine.
type Dependencies struct {
	APIKey       string
	Reservations *services.ReservationService
	Hub          *hub.Hub
	RateLimiter  *middlewares.RateLimiter
	AllowOrigins []string
}

func SetupRouter(deps Dependencies) *gin.Engine {
	// Request bodies are a whitelist, unknown fields are a 400.
	binding.EnableDecoderDisallowUnknownFields = true
	if err := utils.RegisterValidators(); err != nil {
		utils.ErrorLogger.Fatalf("Failed to register validators: %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.AllowOrigins))
	r.Use(middlewares.LoggerMiddleware())
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.RateLimit())
	}

	reservationCtrl := controllers.NewReservationController(deps.Reservations)
	feedCtrl := controllers.NewEventFeedController(deps.Hub, deps.AllowOrigins)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      API KEY ROUTES
	// ----------------------------------------------------------------
	reservation := r.Group("/reservation")
	reservation.Use(middlewares.APIKeyMiddleware(deps.APIKey))
	{
		reservation.POST("", reservationCtrl.CreateReservation)
		reservation.GET("/ByPhone", reservationCtrl.FindByPhoneAndWorkflow)
		reservation.PATCH("", reservationCtrl.ModifyReservation)
		reservation.POST("/confirm", reservationCtrl.ConfirmReservation)
		reservation.POST("/cancel", reservationCtrl.CancelReservation)
	}

	// Browsers cannot set headers on a websocket handshake, so the key may
	// also come from the api_key query parameter here.
	r.GET("/ws/reservations", middlewares.WebSocketAPIKeyMiddleware(deps.APIKey), feedCtrl.Subscribe)

	return r
}
