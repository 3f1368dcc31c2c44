// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы
// и собирает всё в один объект App. Движок банка отсюда отдаётся
// слою интеракций как обычная библиотека.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"gringotts-bot/internal/config"
	"gringotts-bot/internal/currency"
	"gringotts-bot/internal/db/postgres"
	"gringotts-bot/internal/features/bank"
	"gringotts-bot/internal/features/cooldown"
	"gringotts-bot/internal/features/ledger"
	"gringotts-bot/internal/features/shop"
	"gringotts-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Engine    *bank.Service
	Shop      *shop.Service
	Formatter *currency.Formatter
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Запускаем миграции
	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	retry := postgres.RetryPolicy{
		MaxRetries: cfg.TxMaxRetries,
		Backoff:    cfg.TxRetryBackoff,
	}

	// === 2. Репозитории ===
	ledgerRepo := ledger.NewRepository(pool, retry)
	shopRepo := shop.NewRepository(pool, retry)
	cooldownRepo := cooldown.NewRepository(pool)
	bankRepo := bank.NewRepository(pool, ledgerRepo, shopRepo, retry)

	// === 3. Сервисы ===
	shopService := shop.NewService(shopRepo)
	gate := cooldown.NewGate(cooldownRepo)
	engine := bank.NewService(ledgerRepo, shopService, bankRepo, gate, cfg)

	// === 4. Планировщик задач ===
	scheduler := jobs.NewScheduler(engine, cfg.AuditCronSpec)

	return &App{
		Engine:    engine,
		Shop:      shopService,
		Formatter: currency.NewFormatter(cfg.GalleonEmoji, cfg.SickleEmoji, cfg.KnutEmoji),
		Scheduler: scheduler,
		DB:        pool,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	// Инициализируем систему миграций
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return err
	}

	// Выполняем миграции по порядку
	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Accounts},
		{2, migration002Transactions},
		{3, migration003Cooldowns},
		{4, migration004Shop},
		{5, migration005Inventory},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Accounts = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    user_id VARCHAR(64) UNIQUE NOT NULL,
    username VARCHAR(255),
    galleons BIGINT NOT NULL DEFAULT 0 CHECK (galleons >= 0),
    sickles BIGINT NOT NULL DEFAULT 0 CHECK (sickles >= 0 AND sickles < 17),
    knuts BIGINT NOT NULL DEFAULT 0 CHECK (knuts >= 0 AND knuts < 29),
    favorite_spells TEXT NOT NULL DEFAULT '',
    pets TEXT NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_user_id ON users(user_id);
`

var migration002Transactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    amount BIGINT NOT NULL,
    type VARCHAR(50) NOT NULL,
    actor_id VARCHAR(64) NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);
`

var migration003Cooldowns = `
CREATE TABLE IF NOT EXISTS cooldowns (
    user_id VARCHAR(64) PRIMARY KEY,
    work_last_at TIMESTAMPTZ,
    income_last_at TIMESTAMPTZ
);
`

var migration004Shop = `
CREATE TABLE IF NOT EXISTS shop_items (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    price BIGINT NOT NULL CHECK (price >= 0),
    category VARCHAR(50) NOT NULL,
    description TEXT,
    properties JSONB,
    required_role VARCHAR(255),
    added_by VARCHAR(64) NOT NULL,
    added_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_shop_items_category ON shop_items(category);
CREATE TABLE IF NOT EXISTS removed_shop_items (
    id BIGINT PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    price BIGINT NOT NULL CHECK (price >= 0),
    category VARCHAR(50) NOT NULL,
    description TEXT,
    properties JSONB,
    added_by VARCHAR(64) NOT NULL,
    removed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var migration005Inventory = `
CREATE TABLE IF NOT EXISTS inventory (
    id BIGSERIAL PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    item_id BIGINT NOT NULL,
    category VARCHAR(50) NOT NULL,
    is_removed_item BOOLEAN NOT NULL DEFAULT FALSE,
    obtained_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_inventory_user_id ON inventory(user_id);
CREATE INDEX IF NOT EXISTS idx_inventory_item_id ON inventory(item_id);
`
