// Package config загружает конфигурацию банка из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"gringotts"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"gringotts_bank"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Retry policy ---
	// Повторы только для транзиентных конфликтов сериализации в БД,
	// логические отказы (нехватка средств и т.п.) не повторяются.
	TxMaxRetries   int           `envconfig:"TX_MAX_RETRIES" default:"3"`
	TxRetryBackoff time.Duration `envconfig:"TX_RETRY_BACKOFF" default:"100ms"`

	// --- Cooldowns ---
	WorkCooldown   time.Duration `envconfig:"WORK_COOLDOWN" default:"1h"`
	IncomeCooldown time.Duration `envconfig:"INCOME_COOLDOWN" default:"168h"`

	// --- Currency ---
	GalleonEmoji string `envconfig:"GALLEON_EMOJI" default:"💰"`
	SickleEmoji  string `envconfig:"SICKLE_EMOJI" default:"🥈"`
	KnutEmoji    string `envconfig:"KNUT_EMOJI" default:"🥉"`

	// --- Default rates ---
	// Базовые ставки работы и дохода для пользователей без ролей.
	// Таблицы роль→ставка живут в слое интеракций и передаются в движок per-call.
	DefaultWorkMin      int64  `envconfig:"DEFAULT_WORK_MIN" default:"10"`
	DefaultWorkMax      int64  `envconfig:"DEFAULT_WORK_MAX" default:"50"`
	DefaultWorkUnit     string `envconfig:"DEFAULT_WORK_UNIT" default:"knut"`
	DefaultIncomeAmount int64  `envconfig:"DEFAULT_INCOME_AMOUNT" default:"5"`
	DefaultIncomeUnit   string `envconfig:"DEFAULT_INCOME_UNIT" default:"sickle"`

	// --- Jobs ---
	// Расписание ночного аудита леджера (cron-выражение).
	AuditCronSpec string `envconfig:"AUDIT_CRON_SPEC" default:"0 4 * * *"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.TxMaxRetries < 0 {
		return fmt.Errorf("TX_MAX_RETRIES не может быть отрицательным")
	}
	if c.WorkCooldown <= 0 || c.IncomeCooldown <= 0 {
		return fmt.Errorf("кулдауны должны быть > 0")
	}
	if c.DefaultWorkMin <= 0 || c.DefaultWorkMax < c.DefaultWorkMin {
		return fmt.Errorf("некорректные DEFAULT_WORK_MIN/DEFAULT_WORK_MAX")
	}
	if c.DefaultIncomeAmount <= 0 {
		return fmt.Errorf("DEFAULT_INCOME_AMOUNT должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
