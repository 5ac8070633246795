package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB         int    `mapstructure:"REDIS_CACHE_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// Document store: "firestore", "mongo" or "memory".
	DocumentStore string `mapstructure:"DOCUMENT_STORE"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	DatabaseName  string `mapstructure:"DATABASE_NAME"`

	// Firebase.
	FirebaseProjectID       string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseWebAPIKey       string `mapstructure:"FIREBASE_WEB_API_KEY"`

	// Gemini.
	GeminiAPIKey      string        `mapstructure:"GEMINI_API_KEY"`
	GeminiAdviceModel string        `mapstructure:"GEMINI_ADVICE_MODEL"`
	GeminiImageModel  string        `mapstructure:"GEMINI_IMAGE_MODEL"`
	AdviceCacheTTL    time.Duration `mapstructure:"ADVICE_CACHE_TTL"`

	// Device sessions.
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	DeviceTokenTTL     time.Duration `mapstructure:"DEVICE_TOKEN_TTL"`
	SessionIdleTimeout time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`

	// Storefront and clinic.
	CheckoutDelay  time.Duration `mapstructure:"CHECKOUT_DELAY"`
	ClinicTimezone string        `mapstructure:"CLINIC_TIMEZONE"`
	DeskSchedule   string        `mapstructure:"DESK_SCHEDULE"`
	ReminderLead   time.Duration `mapstructure:"REMINDER_LEAD"`

	// Cloudinary hosting for edited images (optional).
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `mapstructure:"CLOUDINARY_FOLDER"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_REMINDER_QUEUE_DB", 3)
	v.SetDefault("DOCUMENT_STORE", "firestore")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("DATABASE_NAME", "jepet")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "config/firebase-service-account.json")
	v.SetDefault("FIREBASE_WEB_API_KEY", "")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_ADVICE_MODEL", "gemini-3-flash-preview")
	v.SetDefault("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image")
	v.SetDefault("ADVICE_CACHE_TTL", "30m")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("DEVICE_TOKEN_TTL", "720h")
	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	v.SetDefault("CHECKOUT_DELAY", "2s")
	v.SetDefault("CLINIC_TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("DESK_SCHEDULE", "@every 1m")
	v.SetDefault("REMINDER_LEAD", "24h")
	v.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	v.SetDefault("CLOUDINARY_API_KEY", "")
	v.SetDefault("CLOUDINARY_API_SECRET", "")
	v.SetDefault("CLOUDINARY_FOLDER", "jepet/edits")
}

// Load reads configuration through v. Exposed separately from LoadConfig so
// tests can use an isolated viper instance.
func Load(v *viper.Viper) (Config, error) {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	// Automatically use environment variables where available.
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig() {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// ClinicLocation resolves CLINIC_TIMEZONE, falling back to UTC.
func ClinicLocation() *time.Location {
	loc, err := time.LoadLocation(AppConfig.ClinicTimezone)
	if err != nil || AppConfig.ClinicTimezone == "" {
		return time.UTC
	}
	return loc
}

// CloudinaryEnabled reports whether edited images should be hosted on Cloudinary.
func CloudinaryEnabled() bool {
	return AppConfig.CloudinaryCloudName != "" && AppConfig.CloudinaryAPIKey != "" && AppConfig.CloudinaryAPISecret != ""
}
