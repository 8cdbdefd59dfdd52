package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
)

// Config конфигурация сервиса, загружается из config.toml
type Config struct {
	Server         ServerConfig         `toml:"server"`
	Database       DatabaseConfig       `toml:"database"`
	Logs           LogsConfig           `toml:"logs"`
	Metrics        MetricsConfig        `toml:"metrics"`
	Kafka          KafkaConfig          `toml:"kafka"`
	HolidayService HolidayServiceConfig `toml:"holiday_service"`
	Booking        BookingConfig        `toml:"booking"`
}

// ServerConfig настройки HTTP сервера
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN возвращает строку подключения к PostgreSQL
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig настройки Prometheus метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
	Path        string `toml:"path"`
}

// KafkaConfig настройки публикации доменных событий
type KafkaConfig struct {
	Enabled               bool     `toml:"enabled"`
	Brokers               []string `toml:"brokers"`
	BookingConfirmedTopic string   `toml:"booking_confirmed_topic"`
	RefundIssuedTopic     string   `toml:"refund_issued_topic"`
}

// HolidayServiceConfig настройки клиента календаря праздников
type HolidayServiceConfig struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

// BookingConfig бизнес-настройки бронирования
type BookingConfig struct {
	QuoteTTLMinutes      int     `toml:"quote_ttl_minutes"`      // срок жизни котировки слота
	SoftLockTTLMinutes   int     `toml:"soft_lock_ttl_minutes"`  // срок жизни soft lock
	PendingTTLMinutes    int     `toml:"pending_ttl_minutes"`    // срок жизни брошенной корзины
	SweepIntervalSeconds int     `toml:"sweep_interval_seconds"` // период фоновой очистки
	PlatformFeePercent   float64 `toml:"platform_fee_percent"`   // комиссия платформы
	MinNoticeMinutes     int     `toml:"min_notice_minutes"`     // минимальное предуведомление до начала слота
	AdvanceBookingDays   int     `toml:"advance_booking_days"`   // горизонт бронирования; 0 = без ограничения
	TokenSecret          string  `toml:"token_secret"`           // секрет подписи токенов котировок
}

// Load загружает и валидирует конфигурацию из TOML файла
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.HTTPPort <= 0 {
		return fmt.Errorf("config: server.http_port must be positive")
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("config: database.host and database.dbname are required")
	}
	if c.Booking.TokenSecret == "" {
		return fmt.Errorf("config: booking.token_secret is required")
	}
	if c.Booking.QuoteTTLMinutes <= 0 {
		c.Booking.QuoteTTLMinutes = domain.DefaultQuoteTTLMinutes
	}
	if c.Booking.SoftLockTTLMinutes <= 0 {
		c.Booking.SoftLockTTLMinutes = domain.DefaultSoftLockTTLMinutes
	}
	if c.Booking.PendingTTLMinutes <= 0 {
		c.Booking.PendingTTLMinutes = 30
	}
	if c.Booking.SweepIntervalSeconds <= 0 {
		c.Booking.SweepIntervalSeconds = 60
	}
	if c.Booking.MinNoticeMinutes <= 0 {
		c.Booking.MinNoticeMinutes = domain.DefaultMinBookingNoticeMinutes
	}
	if c.Booking.AdvanceBookingDays < 0 {
		c.Booking.AdvanceBookingDays = domain.DefaultAdvanceBookingDays
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers are required when kafka is enabled")
	}
	return nil
}
