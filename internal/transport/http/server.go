package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mlazarev/chatd/internal/auth"
	"github.com/mlazarev/chatd/internal/config"
	"github.com/mlazarev/chatd/internal/service/messages"
	"github.com/mlazarev/chatd/internal/service/rooms"
	"github.com/mlazarev/chatd/internal/store"
)

// NewServer builds the HTTP server with all API routes.
func NewServer(
	authService *auth.Service,
	msgService *messages.Service,
	roomService *rooms.Service,
	st store.Store,
	cfg *config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	authHandlers := NewAuthHandlers(authService, st, logger)
	msgHandlers := NewMessageHandlers(msgService, logger)
	roomHandlers := NewRoomHandlers(roomService, logger)

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	router.POST("/register", authHandlers.Register)
	router.POST("/login", authHandlers.Login)

	authed := router.Group("/", AuthMiddleware(authService, logger))

	authed.GET("/user", authHandlers.Me)

	msgs := authed.Group("/messages")
	{
		msgs.POST("/send-private", msgHandlers.SendPrivate)
		msgs.POST("/send-room", msgHandlers.SendRoom)
		msgs.PUT("/edit", msgHandlers.Edit)
		msgs.DELETE("/delete", msgHandlers.Delete)
		msgs.POST("/forward-private", msgHandlers.ForwardPrivate)
		msgs.POST("/forward-room", msgHandlers.ForwardRoom)
		msgs.GET("", msgHandlers.GetAll)
		msgs.GET("/:message_id", msgHandlers.GetByID)
		msgs.GET("/private/:receiver_id", msgHandlers.GetPrivateChat)
		msgs.GET("/room/:room_id", msgHandlers.GetRoomChat)
	}

	rms := authed.Group("/rooms")
	{
		rms.POST("/create", roomHandlers.Create)
		rms.PUT("/update", roomHandlers.Update)
		rms.DELETE("/delete", roomHandlers.Delete)
		rms.GET("", roomHandlers.List)
		rms.GET("/my-rooms", roomHandlers.MyRooms)
		rms.GET("/:room_id", roomHandlers.Get)
		rms.GET("/:room_id/members", roomHandlers.Members)
		rms.POST("/add-member", roomHandlers.AddMember)
		rms.POST("/remove-member", roomHandlers.RemoveMember)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
