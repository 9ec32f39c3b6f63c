package models

// Config represents application configuration
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NSQ      NSQConfig
	JWT      JWTConfig
	Match    MatchConfig
	Relay    RelayConfig
	Maps     MapsConfig
	Notify   NotifyConfig
	Logger   LoggerConfig
}

// AppConfig contains application-specific configuration
type AppConfig struct {
	Name        string
	Environment string
	Debug       bool
	Version     string
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Database  string
	SSLMode   string
	MaxConns  int
	IdleConns int
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// NSQConfig contains NSQ producer configuration
type NSQConfig struct {
	Address string
	Enabled bool
}

// JWTConfig contains JWT authentication configuration
type JWTConfig struct {
	Secret     string
	Expiration int // in minutes
	Issuer     string
}

// MatchConfig contains matching engine configuration
type MatchConfig struct {
	DefaultRadiusKm float64 // radius used by the nearby-drivers endpoint
	AvgSpeedKmh     float64 // assumed speed for ETA display
}

// RelayConfig contains live location relay configuration
type RelayConfig struct {
	WriteTimeoutMs int // per-subscriber send deadline
	LocationTTLMin int // last-known location retention in Redis
}

// MapsConfig contains geocoder and router endpoints
type MapsConfig struct {
	NominatimURL string
	OSRMURL      string
	TimeoutSec   int
}

// NotifyConfig contains SMS/email notifier configuration
type NotifyConfig struct {
	SMSGatewayURL string
	SMSAPIKey     string
	SMSFrom       string
}

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}
