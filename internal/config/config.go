package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pkglogger "github.com/campusbridge/marketplace-backend/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Config 애플리케이션 설정
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	S3       S3Config       `yaml:"s3"`
	JWT      JWTConfig      `yaml:"jwt"`
	Auth     AuthConfig     `yaml:"auth"`
	CORS     CORSConfig     `yaml:"cors"`
	Cache    CacheConfig    `yaml:"cache"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Mode     string `yaml:"mode"` // debug, release, test
	Env      string `yaml:"env"`
	Timezone string `yaml:"timezone"`
}

// StorageConfig selects where the message log and collaboration table live
type StorageConfig struct {
	Driver    string `yaml:"driver"` // memory, sqlite, mysql, redis, s3
	DSN       string `yaml:"dsn"`    // sqlite file path
	KeyPrefix string `yaml:"key_prefix"`
}

type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

// GetDSN MySQL DSN 생성
func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Enabled  bool   `yaml:"enabled"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	BasePath        string `yaml:"base_path"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

type JWTConfig struct {
	Secret    string        `yaml:"secret"`
	ExpiresIn time.Duration `yaml:"expires_in"`
}

// AuthConfig controls how callers are identified
type AuthConfig struct {
	// TrustHeaders accepts X-User-ID/X-User-Name/X-User-Role from an upstream gateway
	TrustHeaders bool `yaml:"trust_headers"`
}

type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins"`
}

type CacheConfig struct {
	ProductTTL time.Duration `yaml:"product_ttl"`
}

// IsDevelopment 개발 환경 여부
func (c *Config) IsDevelopment() bool {
	switch c.Server.Env {
	case "", "dev", "development", "local":
		return true
	}
	return false
}

// Location returns the zone used for day grouping
func (c *Config) Location() *time.Location {
	if c.Server.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Default returns a config that runs entirely in memory
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8082, Mode: "debug", Env: "local"},
		Storage:  StorageConfig{Driver: "memory", DSN: "marketplace.db", KeyPrefix: "marketplace:"},
		Database: DatabaseConfig{Host: "localhost", Port: 3306, MaxIdleConns: 10, MaxOpenConns: 100, ConnMaxLifetime: 3600},
		Redis:    RedisConfig{Host: "localhost", Port: 6379, PoolSize: 10},
		S3:       S3Config{Region: "us-east-1", BasePath: "marketplace/"},
		JWT:      JWTConfig{ExpiresIn: 24 * time.Hour},
		CORS:     CORSConfig{AllowOrigins: "http://localhost:3000"},
		Cache:    CacheConfig{ProductTTL: 5 * time.Minute},
	}
}

// Load 설정 파일 로드. 파일이 없으면 기본값에 환경변수만 적용한다.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		pkglogger.Warn("config file %s not found, using defaults", path)
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.JWT.Secret == "" && !cfg.IsDevelopment() {
		return nil, fmt.Errorf("jwt.secret is required outside development")
	}
	return cfg, nil
}

// applyEnv 환경변수 오버라이드
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Env, "APP_ENV")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Server.Mode, "GIN_MODE")
	setString(&cfg.Server.Timezone, "TZ")

	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.DSN, "STORAGE_DSN")

	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.DBName, "DB_NAME")

	setString(&cfg.Redis.Host, "REDIS_HOST")
	setInt(&cfg.Redis.Port, "REDIS_PORT")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setBool(&cfg.Redis.Enabled, "REDIS_ENABLED")

	setString(&cfg.S3.Endpoint, "S3_ENDPOINT")
	setString(&cfg.S3.Region, "S3_REGION")
	setString(&cfg.S3.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&cfg.S3.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setString(&cfg.S3.Bucket, "S3_BUCKET")

	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setBool(&cfg.Auth.TrustHeaders, "AUTH_TRUST_HEADERS")
	setString(&cfg.CORS.AllowOrigins, "CORS_ALLOW_ORIGINS")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}

// LogResolved 최종 설정 출력 (비밀값 제외)
func LogResolved(cfg *Config) {
	pkglogger.Info("config: env=%s port=%d mode=%s tz=%s", cfg.Server.Env, cfg.Server.Port, cfg.Server.Mode, cfg.Location())
	pkglogger.Info("config: storage driver=%s dsn=%s prefix=%s", cfg.Storage.Driver, cfg.Storage.DSN, cfg.Storage.KeyPrefix)
	pkglogger.Info("config: redis enabled=%t addr=%s:%d db=%d", cfg.Redis.Enabled, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.DB)
	if cfg.S3.Bucket != "" {
		pkglogger.Info("config: s3 bucket=%s endpoint=%s region=%s", cfg.S3.Bucket, cfg.S3.Endpoint, cfg.S3.Region)
	}
	pkglogger.Info("config: jwt secret set=%t trust_headers=%t", cfg.JWT.Secret != "", cfg.Auth.TrustHeaders)
}
