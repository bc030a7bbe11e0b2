package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 扁平化配置结构体
type Config struct {
	// 运行环境
	AppEnv   string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`
	CORSAllowOrigins   string        `mapstructure:"cors_allow_origins"`

	// 数据库配置
	DBType            string `mapstructure:"db_type"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBSSLMode         string `mapstructure:"db_sslmode"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`

	// JWT
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTExpiresIn time.Duration `mapstructure:"jwt_expires_in"`

	// 对象存储配置
	StorageType          string        `mapstructure:"storage_type"`
	StorageBucket        string        `mapstructure:"storage_bucket"`
	StoragePublic        bool          `mapstructure:"storage_public"`
	StorageSignedURLTTL  time.Duration `mapstructure:"storage_signed_url_ttl"`
	StoragePublicBaseURL string        `mapstructure:"storage_public_base_url"`
	StorageLocalPath     string        `mapstructure:"storage_local_path"`
	StorageSigningSecret string        `mapstructure:"storage_signing_secret"`

	MinioEndpoint        string `mapstructure:"minio_endpoint"`
	MinioAccessKeyID     string `mapstructure:"minio_access_key_id"`
	MinioSecretAccessKey string `mapstructure:"minio_secret_access_key"`
	MinioUseSSL          bool   `mapstructure:"minio_use_ssl"`
	MinioRegion          string `mapstructure:"minio_region"`

	S3Region          string `mapstructure:"s3_region"`
	S3Endpoint        string `mapstructure:"s3_endpoint"`
	S3AccessKeyID     string `mapstructure:"s3_access_key_id"`
	S3SecretAccessKey string `mapstructure:"s3_secret_access_key"`

	WebDAVURL      string `mapstructure:"webdav_url"`
	WebDAVUsername string `mapstructure:"webdav_username"`
	WebDAVPassword string `mapstructure:"webdav_password"`

	// 上传配置
	UploadMaxSizeMB int `mapstructure:"upload_max_size_mb"`

	// 限流配置
	RateLimitApiRPS        float64       `mapstructure:"rate_limit_api_rps"`
	RateLimitApiBurst      int           `mapstructure:"rate_limit_api_burst"`
	RateLimitAuthRPS       float64       `mapstructure:"rate_limit_auth_rps"`
	RateLimitAuthBurst     int           `mapstructure:"rate_limit_auth_burst"`
	RateLimitReactionRPS   float64       `mapstructure:"rate_limit_reaction_rps"`
	RateLimitReactionBurst int           `mapstructure:"rate_limit_reaction_burst"`
	RateLimitExpireTime    time.Duration `mapstructure:"rate_limit_expire_time"`

	// Worker 配置
	WorkerCount int `mapstructure:"worker_count"`
}

// Load 加载配置
// configPath 为空时尝试读取当前目录下的 .env
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath == "" {
		configPath = ".env"
	}
	v.SetConfigFile(configPath)
	if strings.HasSuffix(configPath, ".env") {
		v.SetConfigType("env")
	}

	if err := v.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "Info: config file not found, using defaults and environment variables")
	} else {
		fmt.Fprintf(os.Stderr, "Info: Loaded configuration from %s\n", configPath)
	}

	v.AutomaticEnv()
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// WorkerCount: -1 = 使用 CPU 线程数, 0 = 使用默认值
	switch {
	case cfg.WorkerCount < 0:
		cfg.WorkerCount = runtime.GOMAXPROCS(0)
	case cfg.WorkerCount == 0:
		cfg.WorkerCount = getCpus()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")

	// 服务器配置默认值
	v.SetDefault("server_host", "127.0.0.1")
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_domain", "")
	v.SetDefault("server_read_timeout", "15s")
	v.SetDefault("server_write_timeout", "30s")
	v.SetDefault("server_idle_timeout", "120s")
	v.SetDefault("cors_allow_origins", "")

	// 数据库配置默认值
	v.SetDefault("db_type", "sqlite")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_username", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "meiten")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_file_path", "")
	v.SetDefault("db_max_open_conns", 100)
	v.SetDefault("db_max_idle_conns", 25)
	v.SetDefault("db_conn_max_lifetime", 3600)

	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_expires_in", "24h")

	// 对象存储默认值
	v.SetDefault("storage_type", "local")
	v.SetDefault("storage_bucket", "story-images")
	v.SetDefault("storage_public", false)
	v.SetDefault("storage_signed_url_ttl", "43800h") // 5 年
	v.SetDefault("storage_public_base_url", "")
	v.SetDefault("storage_local_path", "./data/storage")
	v.SetDefault("storage_signing_secret", "")

	v.SetDefault("minio_endpoint", "")
	v.SetDefault("minio_access_key_id", "")
	v.SetDefault("minio_secret_access_key", "")
	v.SetDefault("minio_use_ssl", false)
	v.SetDefault("minio_region", "")

	v.SetDefault("s3_region", "ap-northeast-1")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_access_key_id", "")
	v.SetDefault("s3_secret_access_key", "")

	v.SetDefault("webdav_url", "")
	v.SetDefault("webdav_username", "")
	v.SetDefault("webdav_password", "")

	v.SetDefault("upload_max_size_mb", 5)

	// 限流配置默认值
	v.SetDefault("rate_limit_api_rps", 30.0)
	v.SetDefault("rate_limit_api_burst", 60)
	v.SetDefault("rate_limit_auth_rps", 0.5)
	v.SetDefault("rate_limit_auth_burst", 5)
	v.SetDefault("rate_limit_reaction_rps", 2.0)
	v.SetDefault("rate_limit_reaction_burst", 10)
	v.SetDefault("rate_limit_expire_time", "10m")

	v.SetDefault("worker_count", 0)
}

// Validate 检查配置项之间的约束
func (c *Config) Validate() error {
	switch c.StorageType {
	case "local", "minio", "s3", "webdav":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
	if c.StorageBucket == "" {
		return fmt.Errorf("storage_bucket must not be empty")
	}
	if c.StorageSignedURLTTL <= 0 {
		return fmt.Errorf("storage_signed_url_ttl must be positive, got %s", c.StorageSignedURLTTL)
	}
	if c.UploadMaxSizeMB <= 0 {
		return fmt.Errorf("upload_max_size_mb must be positive, got %d", c.UploadMaxSizeMB)
	}
	return nil
}

// IsDevelopment 是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "" || c.AppEnv == "development"
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL 返回服务基础 URL
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return strings.TrimRight(c.ServerDomain, "/")
	}
	host := c.ServerHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.ServerPort)
}

// StorageBaseURL 返回对象存储对外可见的基础 URL
// 未配置时本地存储复用服务自身地址
func (c *Config) StorageBaseURL() string {
	if c.StoragePublicBaseURL != "" {
		return strings.TrimRight(c.StoragePublicBaseURL, "/")
	}
	return c.BaseURL()
}

// UploadMaxBytes 单个图片的最大字节数
func (c *Config) UploadMaxBytes() int64 {
	return int64(c.UploadMaxSizeMB) << 20
}

// AllowedOrigins CORS 允许的来源
func (c *Config) AllowedOrigins() []string {
	if c.CORSAllowOrigins == "" {
		return []string{c.BaseURL()}
	}
	var origins []string
	for _, o := range strings.Split(c.CORSAllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getCpus 获取默认线程数量
func getCpus() int {
	n := runtime.GOMAXPROCS(0)
	if n < 2 {
		return 2
	}
	return n
}
