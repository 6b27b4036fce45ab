// Package config 负责加载和校验应用程序的配置。
//
// 配置在进程启动时由 Load 构造一次，然后以 *Config 的形式注入到各个组件的构造函数中。
// 缺失的外部凭证（SMTP、LLM、数据库等）不会导致启动失败，只会让对应功能降级，
// 具体降级项由 Warnings 给出。
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
	ModeTest        = "test"
)

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Contact   ContactConfig   `mapstructure:"contact"`
	Mail      MailConfig      `mapstructure:"mail"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Admin     AdminConfig     `mapstructure:"admin"`
}

// ServerConfig 存储服务器与 CORS 相关的配置。
type ServerConfig struct {
	Port               string        `mapstructure:"port" validate:"required,numeric"`
	Mode               string        `mapstructure:"mode" validate:"oneof=development production test"`
	ServiceName        string        `mapstructure:"service_name" validate:"required"`
	FrontendURL        string        `mapstructure:"frontend_url"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
	CORSMaxAge         time.Duration `mapstructure:"cors_max_age"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0s"`
}

// IsProduction 报告是否运行在生产模式（严格 CORS、精简日志）。
func (s ServerConfig) IsProduction() bool {
	return s.Mode == ModeProduction
}

// AllowedOrigins 返回生产模式下允许的 Origin 列表（去掉末尾斜杠并去重）。
func (s ServerConfig) AllowedOrigins() []string {
	seen := make(map[string]struct{})
	var origins []string
	for _, o := range append([]string{s.FrontendURL}, s.CORSAllowedOrigins...) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		origins = append(origins, o)
	}
	return origins
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	OutputPath string `mapstructure:"output_path"`
}

// RateLimitConfig 存储各端点的固定窗口限流配置。
type RateLimitConfig struct {
	Store         string        `mapstructure:"store" validate:"oneof=memory redis"`
	MaxEntries    int           `mapstructure:"max_entries" validate:"gte=1"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gt=0s"`
	Contact       RuleConfig    `mapstructure:"contact"`
	Chat          RuleConfig    `mapstructure:"chat"`
	API           RuleConfig    `mapstructure:"api"`
	Admin         RuleConfig    `mapstructure:"admin"`
}

// RuleConfig 描述单个限流规则：窗口内最多 Max 次请求。
type RuleConfig struct {
	Max    int           `mapstructure:"max" validate:"gte=1"`
	Window time.Duration `mapstructure:"window" validate:"gt=0s"`
}

// ContactConfig 存储联系表单的校验边界。
// MessageHintMaxLength 只是提供给前端的提示值，服务端以 MessageMaxLength 为准。
type ContactConfig struct {
	MessageMinLength     int    `mapstructure:"message_min_length" validate:"gte=1"`
	MessageMaxLength     int    `mapstructure:"message_max_length" validate:"gtefield=MessageMinLength"`
	MessageHintMaxLength int    `mapstructure:"message_hint_max_length" validate:"gte=0"`
	SuccessMessage       string `mapstructure:"success_message" validate:"required"`
}

// MailConfig 存储 SMTP 发信配置。
type MailConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	Username         string        `mapstructure:"username"`
	Password         string        `mapstructure:"password"`
	From             string        `mapstructure:"from"`
	FromName         string        `mapstructure:"from_name"`
	EnquiriesAddress string        `mapstructure:"enquiries_address"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gt=0s"`
	Autoreply        bool          `mapstructure:"autoreply"`
}

// Enabled 报告 SMTP 中继是否完整配置。
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.Sender() != "" && m.EnquiriesAddress != ""
}

// Sender 返回发件地址，未单独配置时退回到 SMTP 用户名。
func (m MailConfig) Sender() string {
	if m.From != "" {
		return m.From
	}
	if strings.Contains(m.Username, "@") {
		return m.Username
	}
	return ""
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url" validate:"required,url"`
	Model        string        `mapstructure:"model" validate:"required"`
	MaxTokens    int           `mapstructure:"max_tokens" validate:"gte=1"`
	Temperature  float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0s"`
	SystemPrompt string        `mapstructure:"system_prompt"`
}

// Enabled 报告是否配置了上游 API 凭证。
func (l LLMConfig) Enabled() bool {
	return l.APIKey != ""
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置，DSN 为空时不记录提交。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Enabled 报告是否需要发布线索事件。
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// AdminConfig 存储管理接口的认证配置。
type AdminConfig struct {
	PasswordHash string        `mapstructure:"password_hash"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl" validate:"gt=0s"`
}

// Enabled 报告管理接口是否可用。
func (a AdminConfig) Enabled() bool {
	return a.PasswordHash != "" && a.JWTSecret != ""
}

// Load 读取默认值、可选的 YAML 文件与环境变量，返回组装好的配置。
// configPath 为空或文件不存在时只使用默认值与环境变量。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

// Validate 检查配置值本身是否合法（端口、限流参数等）。
// 缺失的凭证不算错误，见 Warnings。
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	if c.RateLimit.Store == "redis" && c.Database.Redis.Addr == "" {
		return fmt.Errorf("配置校验失败: ratelimit.store=redis 需要 database.redis.addr")
	}
	return nil
}

// Warnings 列出因缺少配置而降级的功能。
func (c *Config) Warnings() []string {
	var warnings []string
	if !c.LLM.Enabled() {
		warnings = append(warnings, "OPENAI_API_KEY 未配置：/chat 将返回 503")
	}
	if !c.Mail.Enabled() {
		warnings = append(warnings, "SMTP 未完整配置（host/from/enquiries）：联系表单只记录日志，不发送邮件")
	}
	if c.Server.IsProduction() && len(c.Server.AllowedOrigins()) == 0 {
		warnings = append(warnings, "生产模式下未配置 FRONTEND_URL / CORS_ALLOWED_ORIGINS：浏览器跨域请求将被拒绝")
	}
	if c.Database.MySQL.DSN == "" {
		warnings = append(warnings, "MYSQL_DSN 未配置：联系表单提交不会持久化，管理接口不可用")
	}
	if !c.Admin.Enabled() {
		warnings = append(warnings, "ADMIN_PASSWORD_HASH / JWT_SECRET 未配置：管理接口不可用")
	}
	return warnings
}

func (c *Config) normalize() {
	c.Server.Mode = strings.ToLower(strings.TrimSpace(c.Server.Mode))
	switch c.Server.Mode {
	case "", "dev":
		c.Server.Mode = ModeDevelopment
	case "prod":
		c.Server.Mode = ModeProduction
	}
	c.RateLimit.Store = strings.ToLower(strings.TrimSpace(c.RateLimit.Store))
	c.LLM.BaseURL = strings.TrimRight(c.LLM.BaseURL, "/")
	if c.Log.Format == "" {
		c.Log.Format = "json"
		if !c.Server.IsProduction() {
			c.Log.Format = "console"
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
		if !c.Server.IsProduction() {
			c.Log.Level = "debug"
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3001")
	v.SetDefault("server.mode", ModeDevelopment)
	v.SetDefault("server.service_name", "eventsite-api")
	v.SetDefault("server.frontend_url", "")
	v.SetDefault("server.cors_allowed_origins", []string{})
	v.SetDefault("server.cors_max_age", 24*time.Hour)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "")
	v.SetDefault("log.output_path", "")

	v.SetDefault("ratelimit.store", "memory")
	v.SetDefault("ratelimit.max_entries", 10000)
	v.SetDefault("ratelimit.sweep_interval", time.Minute)
	v.SetDefault("ratelimit.contact.max", 5)
	v.SetDefault("ratelimit.contact.window", 15*time.Minute)
	v.SetDefault("ratelimit.chat.max", 20)
	v.SetDefault("ratelimit.chat.window", 15*time.Minute)
	v.SetDefault("ratelimit.api.max", 100)
	v.SetDefault("ratelimit.api.window", 15*time.Minute)
	v.SetDefault("ratelimit.admin.max", 5)
	v.SetDefault("ratelimit.admin.window", 15*time.Minute)

	v.SetDefault("contact.message_min_length", 10)
	v.SetDefault("contact.message_max_length", 2000)
	v.SetDefault("contact.message_hint_max_length", 200)
	v.SetDefault("contact.success_message", "Thank you for your message! We'll get back to you within 24 hours.")

	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.from_name", "Website Enquiries")
	v.SetDefault("mail.enquiries_address", "")
	v.SetDefault("mail.timeout", 15*time.Second)
	v.SetDefault("mail.autoreply", true)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 500)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.system_prompt", "")

	v.SetDefault("database.mysql.dsn", "")
	v.SetDefault("database.redis.addr", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "")

	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.jwt_secret", "")
	v.SetDefault("admin.token_ttl", 12*time.Hour)
}

// envBindings 将配置键映射到部署环境中使用的变量名，靠前的变量名优先。
var envBindings = map[string][]string{
	"server.port":                     {"PORT"},
	"server.mode":                     {"APP_ENV", "NODE_ENV"},
	"server.frontend_url":             {"FRONTEND_URL"},
	"server.cors_allowed_origins":     {"CORS_ALLOWED_ORIGINS"},
	"log.level":                       {"LOG_LEVEL"},
	"log.format":                      {"LOG_FORMAT"},
	"ratelimit.store":                 {"RATE_LIMIT_STORE"},
	"mail.host":                       {"SMTP_HOST"},
	"mail.port":                       {"SMTP_PORT"},
	"mail.username":                   {"SMTP_USER"},
	"mail.password":                   {"SMTP_PASS", "SMTP_PASSWORD"},
	"mail.from":                       {"SMTP_FROM"},
	"mail.enquiries_address":          {"ENQUIRIES_EMAIL", "CONTACT_EMAIL"},
	"llm.api_key":                     {"OPENAI_API_KEY"},
	"llm.base_url":                    {"OPENAI_BASE_URL"},
	"llm.model":                       {"OPENAI_MODEL"},
	"database.mysql.dsn":              {"MYSQL_DSN"},
	"database.redis.addr":             {"REDIS_ADDR"},
	"database.redis.password":         {"REDIS_PASSWORD"},
	"database.redis.db":               {"REDIS_DB"},
	"kafka.brokers":                   {"KAFKA_BROKERS"},
	"kafka.topic":                     {"KAFKA_TOPIC"},
	"admin.password_hash":             {"ADMIN_PASSWORD_HASH"},
	"admin.jwt_secret":                {"JWT_SECRET"},
	"contact.message_max_length":      {"CONTACT_MESSAGE_MAX_LENGTH"},
	"contact.message_hint_max_length": {"CONTACT_MESSAGE_HINT_MAX_LENGTH"},
}

func bindEnv(v *viper.Viper) error {
	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("绑定环境变量 %s 失败: %w", key, err)
		}
	}
	return nil
}
