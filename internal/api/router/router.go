package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-venue/config"
	"campus-venue/internal/api/handler"
	"campus-venue/internal/api/middleware"
	"campus-venue/internal/model"
	"campus-venue/pkg/jwt"
	"campus-venue/pkg/redis"
)

// 接口限流参数
const (
	loginRateLimit      = 10
	loginRateWindow     = time.Minute
	assistantRateLimit  = 20
	assistantRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	// multipart 文件超过此阈值时落临时文件
	r.MaxMultipartMemory = 8 << 20

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/auth/login", middleware.RateLimit(rdb, loginRateLimit, loginRateWindow), h.Auth.Login)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 场地模块
			rooms := authorized.Group("/rooms")
			{
				rooms.GET("", h.Room.ListRooms)
				rooms.GET("/:id", h.Room.GetRoom)
				rooms.POST("", adminOnly, h.Room.CreateRoom)
			}

			// 预约模块（所有者校验在 Service 层）
			reservations := authorized.Group("/reservations")
			{
				reservations.POST("", h.Reservation.CreateReservation)
				reservations.GET("", h.Reservation.ListReservations)
				reservations.GET("/:id", h.Reservation.GetReservation)
				reservations.PUT("/:id", h.Reservation.UpdateReservation)
				reservations.DELETE("/:id", h.Reservation.DeleteReservation)
				reservations.POST("/:id/archive", h.Reservation.ArchiveReservation)
				reservations.POST("/:id/final-form", h.Reservation.UploadFinalForm)
				reservations.GET("/:id/documents/:kind", h.Reservation.DownloadDocument)
				reservations.POST("/:id/approve-concept", adminOnly, h.Reservation.ApproveConcept)
				reservations.POST("/:id/approve-final", adminOnly, h.Reservation.ApproveFinal)
				reservations.POST("/:id/deny", adminOnly, h.Reservation.DenyReservation)
			}

			// AI 助手
			assistant := authorized.Group("/assistant")
			{
				assistant.GET("/context", h.Assistant.GetContext)
				assistant.POST("/ask", middleware.RateLimit(rdb, assistantRateLimit, assistantRateWindow), h.Assistant.Ask)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/schedule.xlsx", h.Export.ExportSchedule)
				export.GET("/schedule.ics", h.Export.ExportICS)
			}
		}
	}

	return r
}
