package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"hotel-booking/controllers"
	"hotel-booking/middleware"
)

// Controllers groups the handlers SetupRouter wires.
type Controllers struct {
	Booking      *controllers.BookingController
	Room         *controllers.RoomController
	Guest        *controllers.GuestController
	Housekeeping *controllers.HousekeepingController
	Settings     *controllers.SettingsController
}

type Options struct {
	CORSOrigins      []string
	BookingRateLimit float64
}

// SetupRouter รับ Controller Instances เข้ามาเพื่อกำหนด Route
func SetupRouter(ctl Controllers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Actor(), middleware.Logger())

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Actor-ID", "X-Actor-Name", "X-Actor-Role"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := middleware.NewRateLimiter(opts.BookingRateLimit, 5)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		rooms := api.Group("/rooms")
		{
			// ต้องอยู่ก่อน /:id
			rooms.GET("/available", ctl.Booking.GetAvailableRooms)

			rooms.GET("", ctl.Room.GetRooms)
			rooms.POST("", ctl.Room.CreateRoom)
			rooms.GET("/:id", ctl.Room.GetRoom)
			rooms.PUT("/:id", ctl.Room.UpdateRoom)
			rooms.DELETE("/:id", ctl.Room.DeleteRoom)
			rooms.POST("/:id/maintenance", ctl.Room.OpenMaintenance)
			rooms.PATCH("/:id/maintenance/:requestId/resolve", ctl.Room.ResolveMaintenance)
			rooms.PATCH("/:id/housekeeping", ctl.Room.SetHousekeepingStatus)
		}

		// Bookings
		bookings := api.Group("/bookings")
		{
			bookings.GET("", ctl.Booking.GetBookings)
			bookings.POST("", limiter.Limit(), ctl.Booking.CreateBooking)
			bookings.GET("/:id", ctl.Booking.GetBooking)
			bookings.PATCH("/:id/status", ctl.Booking.UpdateStatus)
			bookings.PATCH("/:id/assign-room", ctl.Booking.AssignRoom)
			bookings.POST("/:id/service-charge", ctl.Booking.AddServiceCharge)
			bookings.PATCH("/:id/payment", ctl.Booking.RecordPayment)
			bookings.GET("/:id/invoice", ctl.Booking.GetInvoice)
			bookings.DELETE("/:id", middleware.RequireRole("admin"), ctl.Booking.DeleteBooking)
		}

		guests := api.Group("/guests")
		{
			guests.GET("", ctl.Guest.GetGuests)
			guests.GET("/:id", ctl.Guest.GetGuestByID)
			guests.GET("/:id/bookings", ctl.Guest.GetGuestBookings)
			guests.POST("/:id/loyalty/award", ctl.Guest.AwardPoints)
			guests.POST("/:id/loyalty/redeem", ctl.Guest.RedeemPoints)
		}

		housekeeping := api.Group("/housekeeping")
		{
			housekeeping.GET("/tasks", ctl.Housekeeping.GetTasks)
			housekeeping.PATCH("/tasks/:id/status", ctl.Housekeeping.UpdateTaskStatus)
			housekeeping.PATCH("/tasks/:id/inspect", ctl.Housekeeping.InspectTask)
		}

		settings := api.Group("/settings")
		{
			settings.GET("/hotel", ctl.Settings.GetHotelSettings)
			settings.PUT("/hotel", ctl.Settings.UpdateHotelSettings)
		}
	}

	return r
}
