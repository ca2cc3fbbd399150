package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/dialysis-locator-go/internal/handler"
	"github.com/jengzang/dialysis-locator-go/internal/middleware"
	"github.com/jengzang/dialysis-locator-go/internal/service"
)

// Login attempts allowed per client IP per minute
const loginAttemptsPerMinute = 10

// Services 路由依赖的服务
type Services struct {
	Map    *service.MapService
	Access *service.AccessService
}

// SetupRouter 设置路由
func SetupRouter(svc Services, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(log))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Dialysis Locator API is running",
		})
	})

	mapHandler := handler.NewMapHandler(svc.Map)
	centerHandler := handler.NewCenterHandler(svc.Access)
	accessHandler := handler.NewAccessHandler(svc.Access)

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 地图渲染接口
		mapGroup := api.Group("/map")
		{
			mapGroup.GET("/view", mapHandler.GetView)
			mapGroup.GET("/last-viewport", mapHandler.GetLastViewport)
			mapGroup.POST("/camera/start", mapHandler.CameraStart)
			mapGroup.POST("/camera/end", mapHandler.CameraEnd)
		}

		// 图标缓存接口
		icons := api.Group("/icons")
		{
			icons.POST("/clear", mapHandler.ClearIcons)
			icons.GET("/:category", mapHandler.GetIcon)
		}

		// 中心详情与搜索（每日限额）
		api.GET("/centers/:id", centerHandler.GetCenter)
		api.GET("/search", centerHandler.Search)

		api.GET("/access/status", accessHandler.GetStatus)

		// 会员权益接口
		ent := api.Group("/entitlement")
		{
			ent.GET("", accessHandler.GetEntitlement)
			ent.POST("/override", accessHandler.SetOverride)
			ent.POST("/purchase", accessHandler.Purchase)
			ent.POST("/restore", accessHandler.Restore)
		}

		// 会话接口
		session := api.Group("/session")
		{
			limiter := middleware.NewRateLimiter(loginAttemptsPerMinute, time.Minute)
			session.POST("/login", middleware.RateLimit(limiter), accessHandler.Login)
			session.POST("/logout", accessHandler.Logout)
		}

		// 广告位接口
		ads := api.Group("/ads")
		{
			ads.GET("/placement", accessHandler.GetPlacement)
			ads.POST("/interstitial", accessHandler.ShowInterstitial)
		}
	}

	return r
}
