package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/swaggo/swag" // 导入 swag

	"persona_analyzer/config"
	"persona_analyzer/db"
	_ "persona_analyzer/docs" // 导入 swagger 文档
	"persona_analyzer/engine"
	"persona_analyzer/handlers"
	"persona_analyzer/logger"
	"persona_analyzer/scheduler"
	"persona_analyzer/services"
)

func main() {
	cfg := config.Load()

	// 初始化日志系统
	if err := logger.Init(cfg); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	logger.Info("日志系统初始化成功", "level", cfg.Log.Level, "format", cfg.Log.Format, "output", cfg.Log.Output)

	if err := db.InitMySQLWithConfig(cfg); err != nil {
		logger.Error("初始化MySQL失败", "error", err)
		os.Exit(1)
	}
	logger.Info("MySQL连接成功",
		"max_open_conns", cfg.DB.MaxOpenConns,
		"max_idle_conns", cfg.DB.MaxIdleConns,
		"conn_max_lifetime", cfg.DB.ConnMaxLifetime)

	if err := db.EnsureSchema(); err != nil {
		logger.Error("初始化数据库表失败", "error", err)
		os.Exit(1)
	}

	// 加载画像原型目录，未配置时使用内置目录
	catalog, err := engine.LoadCatalogFile(cfg.Engine.CatalogFile)
	if err != nil {
		logger.Error("加载画像原型目录失败", "error", err, "file", cfg.Engine.CatalogFile)
		os.Exit(1)
	}
	logger.Info("画像原型目录加载完成", "archetypes", catalog.Len())

	// 记录表为空且开启自动导入时，启动时先导入一次数据集
	if err := services.ImportOnStartup(cfg, catalog); err != nil {
		logger.Error("启动时导入数据集失败", "error", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	handlers.RegisterRoutes(r, cfg, catalog)

	// start cron
	scheduler.Start(cfg, catalog)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("服务器启动", "address", serverAddr)
	logger.Info("Swagger文档可访问", "url", fmt.Sprintf("http://%s/swagger/index.html", serverAddr))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Timeouts.RequestSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Timeouts.ResponseSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.Timeouts.IdleSec) * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
