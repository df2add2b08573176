package routes

import (
	"net/http"
	"time"

	"verivault/app"
	"verivault/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	authCtl := controllers.NewAuthController(s)
	verCtl := controllers.NewVerificationLogController(s)
	userCtl := controllers.NewUserController(s)
	personCtl := controllers.NewPersonController(s)
	pkgCtl := controllers.NewPackageController(s)
	entryCtl := controllers.NewEntryController(s)
	dailyCtl := controllers.NewDailyLogController(s)
	reportCtl := controllers.NewReportController(s)
	anaCtl := controllers.NewAnalysisController(s)
	equipCtl := controllers.NewEquipmentController(s)

	// 复用的中间件
	authMW := app.AuthRequired(a.Sessions, a.Store)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(a.Store, a.Throttle, 5*time.Minute)

	r.GET("/healthz", func(c *app.Ctx) {
		c.JSON(http.StatusOK, app.H{"success": true, "status": "ok", "time": time.Now().UTC()})
	})

	// ------------------------------
	// 登录（公开）
	// ------------------------------
	r.POST("/api/auth/login", authCtl.Login)

	api := r.Group("/api", authMW, seenMW)

	auth := api.Group("/auth")
	{
		auth.POST("/logout", authCtl.Logout)
		auth.GET("/me", authCtl.Me)
		auth.POST("/verify-pin", authCtl.VerifyPIN)
		auth.GET("/verifications", adminMW, verCtl.List) // ?userId=&limit=&offset=
	}

	// ------------------------------
	// 用户
	// ------------------------------
	api.PUT("/users/:id/pin", userCtl.ChangePIN) // 本人或管理员
	users := api.Group("/users", adminMW)
	{
		users.GET("", userCtl.ListUsers) // ?q=&limit=&offset=
		users.GET("/:id", userCtl.GetUser)
	}

	// ------------------------------
	// 人员 / 快递登记
	// ------------------------------
	people := api.Group("/people")
	{
		people.GET("", personCtl.List) // ?q=&type=&limit=&offset=
		people.POST("", personCtl.Create)
		people.GET("/:id", personCtl.Get)
		people.PUT("/:id", personCtl.Update)
		people.DELETE("/:id", personCtl.Delete)
	}

	packages := api.Group("/packages")
	{
		packages.GET("", pkgCtl.List) // ?q=&status=received|picked_up
		packages.POST("", pkgCtl.Create)
		packages.GET("/:id", pkgCtl.Get)
		packages.PUT("/:id", pkgCtl.Update)
		packages.DELETE("/:id", pkgCtl.Delete)
		packages.POST("/:id/pickup", pkgCtl.Pickup)
	}

	// ------------------------------
	// 当班记录
	// ------------------------------
	api.GET("/logs", entryCtl.List) // ?date=YYYY-MM-DD&type=&limit=&offset=
	entries := api.Group("/daily-entries")
	{
		entries.GET("/today", entryCtl.Today)
		entries.POST("", entryCtl.Create)
		entries.GET("/:id", entryCtl.Get)
		entries.PUT("/:id", entryCtl.Update)
		entries.DELETE("/:id", entryCtl.Delete)
	}

	// ------------------------------
	// 签名提交：日志 / 报告
	// ------------------------------
	dailyLogs := api.Group("/daily-logs")
	{
		dailyLogs.POST("/submit", dailyCtl.Submit)
		dailyLogs.GET("", dailyCtl.List)
		dailyLogs.GET("/:id", dailyCtl.Get)
		dailyLogs.DELETE("/:id", adminMW, dailyCtl.Delete)
	}

	reports := api.Group("/reports")
	{
		reports.POST("/generate", reportCtl.Generate)
		reports.POST("/generate-with-watermark", reportCtl.GenerateWithWatermark)
		reports.POST("/trace", reportCtl.Trace)
		reports.GET("", reportCtl.List)    // ?type=&status=&limit=&offset=
		reports.GET("/:id", reportCtl.Get) // ?format=json|pdf|html
		reports.DELETE("/:id", adminMW, reportCtl.Delete)
	}

	api.POST("/analyze-csv", anaCtl.AnalyzeCSV)
	api.POST("/generate-pdf", anaCtl.GeneratePDF)

	// ------------------------------
	// 装备签出
	// ------------------------------
	equipment := api.Group("/equipment")
	{
		equipment.GET("", equipCtl.List) // ?q=&status=open|available|overdue|inactive
		equipment.POST("", adminMW, equipCtl.Create)
		equipment.GET("/checkouts", equipCtl.ListCheckouts) // ?status=open|returned&officer=&equipmentId=
		equipment.POST("/checkouts/:id/return", equipCtl.Return)
		equipment.POST("/:id/checkout", equipCtl.Checkout)
	}
}
