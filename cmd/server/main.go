// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deco-front-go/internal/config"
	"deco-front-go/internal/handler"
	"deco-front-go/internal/middleware"
	"deco-front-go/internal/pipeline"
	"deco-front-go/internal/repository"
	"deco-front-go/internal/service"
	"deco-front-go/pkg/database"
	"deco-front-go/pkg/kafka"
	"deco-front-go/pkg/log"
	"deco-front-go/pkg/remote"
	"deco-front-go/pkg/storage"
	"deco-front-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、MinIO 与 Kafka
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	kafka.InitProducer(cfg.Kafka)

	if err := database.DB.AutoMigrate(&repository.ProjectSnapshot{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 4. 初始化 Repository 与远端客户端
	remoteClient := remote.NewClient(cfg.Backend)
	projectRepo := repository.NewProjectRepository(database.DB)
	historyRepo := repository.NewHistoryRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	tokenParser := token.NewParser(cfg.JWT.Secret)
	browseService := service.NewBrowseService(remoteClient, cfg.Browse.PageSize,
		time.Duration(cfg.Browse.DebounceDelayMs)*time.Millisecond)
	projectService := service.NewProjectService(projectRepo, remoteClient)
	sessionService := service.NewSessionService(historyRepo, remoteClient, cfg.Browse.HistoryCap, cfg.Browse.InlineImageLimit)
	chatService := service.NewChatService(remoteClient, sessionService)
	importService := service.NewImportService()

	// 6. 初始化导入任务处理器并启动后台 Kafka 消费者
	processor := pipeline.NewImportProcessor(remoteClient)
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.ClientIdentity(tokenParser), middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		browse := apiV1.Group("/browse")
		{
			browseHandler := handler.NewBrowseHandler(browseService)
			browse.GET("/state", browseHandler.GetState)
			browse.PUT("/filters", browseHandler.UpdateFilters)
			browse.POST("/next", browseHandler.NextPage)
		}

		catalog := apiV1.Group("/catalog")
		{
			catalogHandler := handler.NewCatalogHandler(remoteClient, browseService)
			catalog.GET("/products/:slug", catalogHandler.GetProduct)
			catalog.PUT("/products/:slug/price", catalogHandler.UpdatePrice)
			catalog.PUT("/products/:slug/title", catalogHandler.UpdateTitle)
			catalog.PUT("/products/:slug/image", catalogHandler.UpdateImage)
			catalog.DELETE("/products/:slug/image", catalogHandler.DeleteImage)
			catalog.DELETE("/products/:slug", catalogHandler.DeleteProduct)
			catalog.GET("/sources", catalogHandler.ListSources)
			catalog.PUT("/sources/:id", catalogHandler.RenameSource)
			catalog.DELETE("/sources/:id", catalogHandler.DeleteSource)
			catalog.POST("/import", handler.NewImportHandler(importService).Upload)
		}

		projects := apiV1.Group("/projects")
		{
			projectHandler := handler.NewProjectHandler(projectService)
			projects.GET("", projectHandler.List)
			projects.POST("", projectHandler.Create)
			projects.PUT("/:id", projectHandler.Rename)
			projects.DELETE("/:id", projectHandler.Delete)
			projects.POST("/:id/items", projectHandler.AddItem)
			projects.DELETE("/:id/items/:slug", projectHandler.RemoveItem)
		}

		chat := apiV1.Group("/chat")
		{
			chatHandler := handler.NewChatHandler(chatService)
			sessionHandler := handler.NewSessionHandler(sessionService)
			chat.POST("", chatHandler.Send)
			chat.GET("/transcript", sessionHandler.Transcript)
			chat.GET("/sessions", sessionHandler.List)
			chat.POST("/sessions/save", sessionHandler.Save)
			chat.POST("/sessions/new", sessionHandler.New)
			chat.POST("/sessions/switch/:id", sessionHandler.Switch)
			chat.DELETE("/sessions/:id", sessionHandler.Delete)
		}

		account := apiV1.Group("/account")
		{
			accountHandler := handler.NewAccountHandler(remoteClient)
			account.GET("/profile", accountHandler.GetProfile)
			account.PUT("/profile", accountHandler.SaveProfile)
			account.GET("/currency/rate", accountHandler.CurrencyRate)
			account.GET("/print/:slug", accountHandler.PrintProject)
		}
	}
	// Chat 路由 (WebSocket)
	r.GET("/chat/ws", handler.NewChatHandler(chatService).Handle)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
