package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Env  string
	Port int

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Identity   IdentityConfig
	WebAuthn   WebAuthnConfig
	Email      EmailConfig
	SMS        SMSConfig
	Push       PushConfig
	Storage    StorageConfig
	Statistics StatisticsConfig
	Payment    PaymentConfig
	Jobs       JobsConfig
}

type DatabaseConfig struct {
	Driver        string
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	SQLitePath    string
	Embedded      bool
	EmbeddedDir   string
	MaxOpenConns  int
	MaxIdleConns  int
	AutoMigrate   bool
	MigrationsDir string
}

type RedisConfig struct {
	Enabled     bool
	Host        string
	Port        int
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
	Audience          []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// IdentityConfig drives sign-in, lockout and one-time token behaviour.
type IdentityConfig struct {
	WebAppURL                       string
	TokenSecret                     string
	OtpTokenLifetime                time.Duration
	TwoFactorTokenLifetime          time.Duration
	EmailTokenLifetime              time.Duration
	PhoneNumberTokenLifetime        time.Duration
	ResetPasswordTokenLifetime      time.Duration
	ElevatedAccessTokenLifetime     time.Duration
	MaxConcurrentPrivilegedSessions int
	MaxFailedAccessAttempts         int
	LockoutDuration                 time.Duration
	PasswordMinLength               int
	DefaultRegion                   string
}

// WebAuthnConfig describes the relying party.
type WebAuthnConfig struct {
	RPID          string
	RPDisplayName string
	RPOrigins     []string
	CeremonyTTL   time.Duration
}

// EmailConfig selects the outbound mail backend: smtp, resend or pickup.
type EmailConfig struct {
	Provider     string
	From         string
	FromName     string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	ResendAPIKey string
	PickupDir    string
}

// SMSConfig holds Twilio credentials. An empty account SID logs messages instead.
type SMSConfig struct {
	TwilioAccountSID string
	TwilioAuthToken  string
	FromPhoneNumber  string
}

// Configured reports whether real SMS delivery is possible.
func (c SMSConfig) Configured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.FromPhoneNumber != ""
}

// PushConfig holds VAPID credentials for web push.
type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
	TTL             int
}

// StorageConfig selects the blob backend: local or s3.
type StorageConfig struct {
	Provider             string
	LocalDir             string
	S3Bucket             string
	S3Region             string
	S3Endpoint           string
	S3AccessKey          string
	S3SecretKey          string
	UserProfileImagesDir string
	ReceiptsDir          string
	MaxUploadBytes       int64
	SignedURLSecret      string
	SignedURLTTL         time.Duration
}

// StatisticsConfig tunes the outbound statistics clients.
type StatisticsConfig struct {
	NugetBaseURL  string
	GitHubBaseURL string
	GitHubRepo    string
	Timeout       time.Duration
	CacheTTL      time.Duration
}

// PaymentConfig controls the simulated payment processor.
type PaymentConfig struct {
	SimulatedDelay time.Duration
	Currency       string
}

// JobsConfig configures the outbound message queue.
type JobsConfig struct {
	AsyncDelivery bool
	Workers       int
	MaxRetries    int
	RetryDelay    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Database = DatabaseConfig{
		Driver:        strings.ToLower(v.GetString("DB_DRIVER")),
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		SQLitePath:    v.GetString("DB_SQLITE_PATH"),
		Embedded:      v.GetBool("DB_EMBEDDED"),
		EmbeddedDir:   v.GetString("DB_EMBEDDED_DIR"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:   v.GetBool("DB_AUTO_MIGRATE"),
		MigrationsDir: v.GetString("DB_MIGRATIONS_DIR"),
	}

	cfg.Redis = RedisConfig{
		Enabled:     v.GetBool("REDIS_ENABLED"),
		Host:        v.GetString("REDIS_HOST"),
		Port:        v.GetInt("REDIS_PORT"),
		Password:    v.GetString("REDIS_PASSWORD"),
		DB:          v.GetInt("REDIS_DB"),
		PoolSize:    v.GetInt("REDIS_POOL_SIZE"),
		DialTimeout: v.GetDuration("REDIS_DIAL_TIMEOUT"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 5*time.Minute),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 14*24*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
		Audience:          splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Identity = IdentityConfig{
		WebAppURL:                       strings.TrimRight(v.GetString("WEB_APP_URL"), "/"),
		TokenSecret:                     v.GetString("IDENTITY_TOKEN_SECRET"),
		OtpTokenLifetime:                parseDuration(v.GetString("OTP_TOKEN_LIFETIME"), 2*time.Minute),
		TwoFactorTokenLifetime:          parseDuration(v.GetString("TWO_FACTOR_TOKEN_LIFETIME"), 2*time.Minute),
		EmailTokenLifetime:              parseDuration(v.GetString("EMAIL_TOKEN_LIFETIME"), 2*time.Minute),
		PhoneNumberTokenLifetime:        parseDuration(v.GetString("PHONE_TOKEN_LIFETIME"), 2*time.Minute),
		ResetPasswordTokenLifetime:      parseDuration(v.GetString("RESET_PASSWORD_TOKEN_LIFETIME"), 2*time.Minute),
		ElevatedAccessTokenLifetime:     parseDuration(v.GetString("ELEVATED_ACCESS_TOKEN_LIFETIME"), 2*time.Minute),
		MaxConcurrentPrivilegedSessions: v.GetInt("MAX_CONCURRENT_PRIVILEGED_SESSIONS"),
		MaxFailedAccessAttempts:         v.GetInt("MAX_FAILED_ACCESS_ATTEMPTS"),
		LockoutDuration:                 parseDuration(v.GetString("LOCKOUT_DURATION"), 5*time.Minute),
		PasswordMinLength:               v.GetInt("PASSWORD_MIN_LENGTH"),
		DefaultRegion:                   v.GetString("PHONE_DEFAULT_REGION"),
	}

	cfg.WebAuthn = WebAuthnConfig{
		RPID:          v.GetString("WEBAUTHN_RP_ID"),
		RPDisplayName: v.GetString("WEBAUTHN_RP_DISPLAY_NAME"),
		RPOrigins:     splitAndTrim(v.GetString("WEBAUTHN_RP_ORIGINS")),
		CeremonyTTL:   parseDuration(v.GetString("WEBAUTHN_CEREMONY_TTL"), 3*time.Minute),
	}
	if len(cfg.WebAuthn.RPOrigins) == 0 && cfg.Identity.WebAppURL != "" {
		cfg.WebAuthn.RPOrigins = []string{cfg.Identity.WebAppURL}
	}

	cfg.Email = EmailConfig{
		Provider:     strings.ToLower(v.GetString("EMAIL_PROVIDER")),
		From:         v.GetString("EMAIL_FROM"),
		FromName:     v.GetString("EMAIL_FROM_NAME"),
		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUser:     v.GetString("SMTP_USER"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		ResendAPIKey: v.GetString("RESEND_API_KEY"),
		PickupDir:    v.GetString("EMAIL_PICKUP_DIR"),
	}

	cfg.SMS = SMSConfig{
		TwilioAccountSID: v.GetString("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  v.GetString("TWILIO_AUTH_TOKEN"),
		FromPhoneNumber:  v.GetString("SMS_FROM_PHONE_NUMBER"),
	}

	cfg.Push = PushConfig{
		VAPIDPublicKey:  v.GetString("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: v.GetString("VAPID_PRIVATE_KEY"),
		Subscriber:      v.GetString("VAPID_SUBSCRIBER"),
		TTL:             v.GetInt("PUSH_TTL_SECONDS"),
	}

	maxUpload := v.GetInt64("MAX_UPLOAD_SIZE")
	if maxUpload <= 0 {
		maxUpload = 11 * 1024 * 1024
	}
	cfg.Storage = StorageConfig{
		Provider:             strings.ToLower(v.GetString("STORAGE_PROVIDER")),
		LocalDir:             v.GetString("STORAGE_LOCAL_DIR"),
		S3Bucket:             v.GetString("S3_BUCKET"),
		S3Region:             v.GetString("S3_REGION"),
		S3Endpoint:           v.GetString("S3_ENDPOINT"),
		S3AccessKey:          v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:          v.GetString("S3_SECRET_KEY"),
		UserProfileImagesDir: v.GetString("USER_PROFILE_IMAGES_DIR"),
		ReceiptsDir:          v.GetString("RECEIPTS_DIR"),
		MaxUploadBytes:       maxUpload,
		SignedURLSecret:      v.GetString("SIGNED_URL_SECRET"),
		SignedURLTTL:         parseDuration(v.GetString("SIGNED_URL_TTL"), 24*time.Hour),
	}

	cfg.Statistics = StatisticsConfig{
		NugetBaseURL:  strings.TrimRight(v.GetString("NUGET_BASE_URL"), "/"),
		GitHubBaseURL: strings.TrimRight(v.GetString("GITHUB_BASE_URL"), "/"),
		GitHubRepo:    v.GetString("GITHUB_REPO"),
		Timeout:       parseDuration(v.GetString("STATISTICS_TIMEOUT"), 3*time.Second),
		CacheTTL:      parseDuration(v.GetString("STATISTICS_CACHE_TTL"), 24*time.Hour),
	}

	cfg.Payment = PaymentConfig{
		SimulatedDelay: parseDuration(v.GetString("PAYMENT_SIMULATED_DELAY"), 2*time.Second),
		Currency:       v.GetString("PAYMENT_CURRENCY"),
	}

	cfg.Jobs = JobsConfig{
		AsyncDelivery: v.GetBool("NOTIFICATIONS_ASYNC"),
		Workers:       v.GetInt("NOTIFICATIONS_WORKERS"),
		MaxRetries:    v.GetInt("NOTIFICATIONS_MAX_RETRIES"),
		RetryDelay:    parseDuration(v.GetString("NOTIFICATIONS_RETRY_DELAY"), 5*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lob")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_SQLITE_PATH", "./App_Data/lob.db")
	v.SetDefault("DB_EMBEDDED", false)
	v.SetDefault("DB_EMBEDDED_DIR", "./.pgdata")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "5m")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "336h")
	v.SetDefault("JWT_ISSUER", "lob-api")
	v.SetDefault("JWT_AUDIENCE", "lob-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("WEB_APP_URL", "http://localhost:5030")
	v.SetDefault("IDENTITY_TOKEN_SECRET", "dev_identity_secret")
	v.SetDefault("OTP_TOKEN_LIFETIME", "2m")
	v.SetDefault("TWO_FACTOR_TOKEN_LIFETIME", "2m")
	v.SetDefault("EMAIL_TOKEN_LIFETIME", "2m")
	v.SetDefault("PHONE_TOKEN_LIFETIME", "2m")
	v.SetDefault("RESET_PASSWORD_TOKEN_LIFETIME", "2m")
	v.SetDefault("ELEVATED_ACCESS_TOKEN_LIFETIME", "2m")
	v.SetDefault("MAX_CONCURRENT_PRIVILEGED_SESSIONS", 3)
	v.SetDefault("MAX_FAILED_ACCESS_ATTEMPTS", 5)
	v.SetDefault("LOCKOUT_DURATION", "5m")
	v.SetDefault("PASSWORD_MIN_LENGTH", 6)
	v.SetDefault("PHONE_DEFAULT_REGION", "US")

	v.SetDefault("WEBAUTHN_RP_ID", "localhost")
	v.SetDefault("WEBAUTHN_RP_DISPLAY_NAME", "LOB WebAuthn")
	v.SetDefault("WEBAUTHN_CEREMONY_TTL", "3m")

	v.SetDefault("EMAIL_PROVIDER", "pickup")
	v.SetDefault("EMAIL_FROM", "info@lob.local")
	v.SetDefault("EMAIL_FROM_NAME", "LOB")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("EMAIL_PICKUP_DIR", "./App_Data/sent-emails")

	v.SetDefault("PUSH_TTL_SECONDS", 30)

	v.SetDefault("STORAGE_PROVIDER", "local")
	v.SetDefault("STORAGE_LOCAL_DIR", "./App_Data/blobs")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("USER_PROFILE_IMAGES_DIR", "attachments/profiles/")
	v.SetDefault("RECEIPTS_DIR", "receipts/")
	v.SetDefault("MAX_UPLOAD_SIZE", 11*1024*1024)
	v.SetDefault("SIGNED_URL_SECRET", "dev_signed_url_secret")
	v.SetDefault("SIGNED_URL_TTL", "24h")

	v.SetDefault("NUGET_BASE_URL", "https://azuresearch-usnc.nuget.org")
	v.SetDefault("GITHUB_BASE_URL", "https://api.github.com")
	v.SetDefault("GITHUB_REPO", "bitfoundation/bitplatform")
	v.SetDefault("STATISTICS_TIMEOUT", "3s")
	v.SetDefault("STATISTICS_CACHE_TTL", "24h")

	v.SetDefault("PAYMENT_SIMULATED_DELAY", "2s")
	v.SetDefault("PAYMENT_CURRENCY", "USD")

	v.SetDefault("NOTIFICATIONS_ASYNC", false)
	v.SetDefault("NOTIFICATIONS_WORKERS", 2)
	v.SetDefault("NOTIFICATIONS_MAX_RETRIES", 3)
	v.SetDefault("NOTIFICATIONS_RETRY_DELAY", "5s")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
