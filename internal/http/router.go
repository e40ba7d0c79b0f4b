package api

import (
	stdhttp "net/http"

	"github.com/Harsha992004/online-bus-booking-app/internal/auth"
	intconfig "github.com/Harsha992004/online-bus-booking-app/internal/config"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain"
	h "github.com/Harsha992004/online-bus-booking-app/internal/http/handlers"
	"github.com/Harsha992004/online-bus-booking-app/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func NewRouter(env intconfig.Env, hd *h.Handler, issuer auth.Issuer) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.AllowedOrigins()))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.WithError(err).Warn("failed to set trusted proxies")
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.Auth(issuer))
	{
		api.GET("/health", hd.Health)
		api.GET("/db-check", hd.DBCheck)
		api.GET("/routes", hd.Routes)

		authGroup := api.Group("/auth")
		authGroup.POST("/register", hd.Register)
		authGroup.POST("/login", hd.Login)
		authGroup.POST("/forgot-password", hd.ForgotPassword)
		authGroup.POST("/reset-password", hd.ResetPassword)

		profile := api.Group("/profile", middleware.RequireAuth())
		profile.GET("", hd.Profile)
		profile.PUT("", hd.UpdateProfile)
		profile.POST("/password", hd.ChangePassword)

		api.GET("/locations", hd.Locations)
		trips := api.Group("/trips")
		trips.GET("", hd.SearchTrips)
		trips.GET("/:id", hd.GetTrip)
		trips.GET("/:id/seats", hd.TripSeats)

		bookings := api.Group("/bookings")
		bookings.POST("", hd.CreateBooking)
		bookings.GET("/mine", middleware.RequireAuth(), hd.MyBookings)
		bookings.GET("/:id", hd.GetBooking)
		bookings.GET("/:id/ticket.pdf", hd.TicketPDF)
		bookings.POST("/:id/pay", middleware.RequireAuth(), hd.PayBooking)
		bookings.POST("/:id/cancel", middleware.RequireAuth(), hd.CancelBooking)

		admin := api.Group("/admin", middleware.RequireRoles(domain.RoleAdmin))
		admin.GET("/dashboard", hd.Dashboard)
		admin.GET("/export/buses.csv", hd.ExportTripsCSV)
		admin.GET("/export/bookings.csv", hd.ExportBookingsCSV)
		admin.GET("/bookings", hd.AdminBookings)
		admin.POST("/bookings/:id/status", hd.AdminSetStatus)
		admin.POST("/bookings/:id/payment", hd.AdminSetPayment)
		admin.POST("/bookings/:id/release-seats", hd.AdminReleaseSeats)
		admin.GET("/trips", hd.SearchTrips)
		admin.POST("/trips", hd.CreateTrip)
		admin.PUT("/trips/:id", hd.UpdateTrip)
		admin.DELETE("/trips/:id", hd.DeleteTrip)
	}

	h.SetRouter(r)
	return r
}
