// Package main 是应用程序的入口点。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"eventsite-api/internal/config"
	"eventsite-api/internal/handler"
	"eventsite-api/internal/repository"
	"eventsite-api/internal/service"
	"eventsite-api/internal/validation"
	"eventsite-api/pkg/database"
	"eventsite-api/pkg/kafka"
	"eventsite-api/pkg/llm"
	"eventsite-api/pkg/log"
	"eventsite-api/pkg/mailer"
	"eventsite-api/pkg/ratelimit"
	"eventsite-api/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "path to the optional YAML config file")
	flag.Parse()

	// 1. 初始化配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	if err := cfg.Validate(); err != nil {
		log.Fatal("配置不合法", err)
	}
	for _, w := range cfg.Warnings() {
		log.Warnf("功能降级: %s", w)
	}
	log.Infof("日志记录器初始化成功, mode=%s", cfg.Server.Mode)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. 初始化可选的外部依赖；失败时降级而不是退出
	var db *gorm.DB
	if cfg.Database.MySQL.DSN != "" {
		if db, err = database.NewMySQL(cfg.Database.MySQL.DSN); err != nil {
			log.Error("MySQL 不可用，联系表单提交不会持久化", err)
		} else if err := repository.AutoMigrate(db); err != nil {
			log.Error("contact_submissions 表迁移失败", err)
			db = nil
		}
	}

	var rdb *redis.Client
	if cfg.RateLimit.Store == "redis" {
		if rdb, err = database.NewRedis(cfg.Database.Redis); err != nil {
			log.Error("Redis 不可用，限流退回进程内存储", err)
		}
	}

	// 4. 初始化 Repository
	var submissionRepo repository.SubmissionRepository
	if db != nil {
		submissionRepo = repository.NewSubmissionRepository(db)
	}

	// 5. 初始化 Service (依赖注入)
	var sender mailer.Sender
	if cfg.Mail.Enabled() {
		sender = mailer.NewSMTPSender(cfg.Mail)
	}
	var publisher service.LeadPublisher
	var producer *kafka.Producer
	if cfg.Kafka.Enabled() {
		producer = kafka.NewProducer(cfg.Kafka)
		publisher = producer
	}
	var llmClient llm.Client
	if cfg.LLM.Enabled() {
		llmClient = llm.NewClient(cfg.LLM)
	}
	var jwtManager *token.JWTManager
	if cfg.Admin.Enabled() {
		jwtManager = token.NewJWTManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL, cfg.Server.ServiceName)
	}

	tasks := service.NewTaskGroup(cfg.Mail.Timeout)
	contactService := service.NewContactService(cfg.Mail, cfg.Contact, sender, submissionRepo, publisher, tasks)
	chatService := service.NewChatService(cfg.LLM, llmClient)
	adminService := service.NewAdminService(cfg.Admin, jwtManager, submissionRepo)

	// 6. 初始化限流器
	var store ratelimit.Store
	if rdb != nil {
		store = ratelimit.NewRedisStore(rdb)
		log.Info("限流使用 Redis 存储，多实例共享限额")
	} else {
		memStore := ratelimit.NewMemoryStore(cfg.RateLimit.MaxEntries)
		memStore.StartSweeper(rootCtx, cfg.RateLimit.SweepInterval)
		store = memStore
	}
	limiters := handler.Limiters{
		Contact: newLimiter(store, "contact", cfg.RateLimit.Contact),
		Chat:    newLimiter(store, "chat", cfg.RateLimit.Chat),
		API:     newLimiter(store, "api", cfg.RateLimit.API),
		Admin:   newLimiter(store, "admin", cfg.RateLimit.Admin),
	}

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(ginMode(cfg.Server.Mode))
	r := handler.NewRouter(handler.Dependencies{
		Config:         cfg,
		ContactService: contactService,
		ChatService:    chatService,
		AdminService:   adminService,
		Validator:      validation.New(cfg.Contact),
		Limiters:       limiters,
		JWTManager:     jwtManager,
	})

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}
	stop()

	// 等待自动回复、线索事件等后台任务结束
	if err := tasks.Wait(ctx); err != nil {
		log.Warnf("后台任务未在超时前结束: %v", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	log.Info("服务已优雅关闭")
}

func newLimiter(store ratelimit.Store, name string, rule config.RuleConfig) *ratelimit.Limiter {
	return ratelimit.New(store, ratelimit.Rule{Name: name, Max: rule.Max, Window: rule.Window})
}

func ginMode(mode string) string {
	switch mode {
	case config.ModeProduction:
		return gin.ReleaseMode
	case config.ModeTest:
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
