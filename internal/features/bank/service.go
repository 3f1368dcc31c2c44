// Package bank — service.go содержит бизнес-логику движка транзакций.
// Валидация предусловий (кулдауны, платёжеспособность), выполнение
// операции, ровно одна запись журнала на экономически значимое событие.
// Все операции возвращают типизированный результат либо ошибку — частичных
// состояний наружу не выходит; права доступа проверяет слой интеракций.
package bank

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"gringotts-bot/internal/common"
	"gringotts-bot/internal/config"
	"gringotts-bot/internal/currency"
	"gringotts-bot/internal/features/cooldown"
	"gringotts-bot/internal/features/ledger"
	"gringotts-bot/internal/features/shop"
)

// ledgerStore — то, что движку нужно от леджера.
type ledgerStore interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	CanAfford(ctx context.Context, userID string, price int64) (bool, error)
	AdjustBalance(ctx context.Context, userID string, delta int64, username, txType, actorID, details string) (currency.Amount, int64, error)
	UpdateUsername(ctx context.Context, userID, username string) error
	GetProfile(ctx context.Context, userID string) (*ledger.Profile, error)
	SetProfile(ctx context.Context, userID, favoriteSpells, pets, bio string) error
	GetTransactions(ctx context.Context, userID string, limit int) ([]*ledger.Transaction, error)
	TopByWealth(ctx context.Context, limit int) ([]*ledger.LeaderboardRow, error)
	TopByTransactions(ctx context.Context, limit int) ([]*ledger.LeaderboardRow, error)
	TopByIncome(ctx context.Context, limit int) ([]*ledger.LeaderboardRow, error)
	FindInconsistentAccounts(ctx context.Context) ([]*ledger.AuditRow, error)
}

// catalogStore — то, что движку нужно от каталога.
type catalogStore interface {
	GetItem(ctx context.Context, itemID int64) (*shop.Item, error)
	RetireItem(ctx context.Context, itemID int64) error
	GrantItem(ctx context.Context, userID string, itemID int64) (int64, error)
	GetEntry(ctx context.Context, entryID int64) (*shop.OwnedItem, error)
	RemoveEntry(ctx context.Context, entryID int64) error
}

// purchaser выполняет покупку одной транзакцией БД.
type purchaser interface {
	Purchase(ctx context.Context, userID, username string, itemID int64) (*PurchaseReceipt, error)
}

// activityGate проверяет и фиксирует таймеры активностей.
type activityGate interface {
	Check(ctx context.Context, userID string, kind cooldown.Kind, now time.Time, window time.Duration) (cooldown.Status, error)
	Record(ctx context.Context, userID string, kind cooldown.Kind, now time.Time) error
}

// Service — движок транзакций банка.
type Service struct {
	ledger    ledgerStore
	catalog   catalogStore
	purchases purchaser
	gate      activityGate
	cfg       *config.Config

	// подменяются в тестах
	now  func() time.Time
	roll func(min, max int64) int64
}

// NewService создаёт движок транзакций.
func NewService(ledgerStore ledgerStore, catalog catalogStore, purchases purchaser, gate activityGate, cfg *config.Config) *Service {
	return &Service{
		ledger:    ledgerStore,
		catalog:   catalog,
		purchases: purchases,
		gate:      gate,
		cfg:       cfg,
		now:       time.Now,
		roll: func(min, max int64) int64 {
			return min + rand.Int63n(max-min+1)
		},
	}
}

// DefaultWorkRate возвращает базовый тариф работы из конфигурации.
func DefaultWorkRate(cfg *config.Config) WorkRate {
	return WorkRate{Min: cfg.DefaultWorkMin, Max: cfg.DefaultWorkMax, Unit: currency.Unit(cfg.DefaultWorkUnit)}
}

// DefaultIncomeRate возвращает базовый тариф дохода из конфигурации.
func DefaultIncomeRate(cfg *config.Config) IncomeRate {
	return IncomeRate{Amount: cfg.DefaultIncomeAmount, Unit: currency.Unit(cfg.DefaultIncomeUnit)}
}

// Work выполняет команду работы: проверяет кулдаун, бросает сумму в границах
// тарифа, начисляет её и только после успешного начисления фиксирует таймер.
// Неудачная попытка кулдаун не сжигает.
func (s *Service) Work(ctx context.Context, userID, username string, rate WorkRate) (*WorkResult, error) {
	if rate.Min <= 0 || rate.Max < rate.Min {
		return nil, common.ErrInvalidAmount
	}

	now := s.now()
	status, err := s.gate.Check(ctx, userID, cooldown.KindWork, now, s.cfg.WorkCooldown)
	if err != nil {
		return nil, err
	}
	if !status.Ready {
		return nil, &common.CooldownError{Activity: cooldown.KindWork.String(), Remaining: status.Remaining}
	}

	rolled := s.roll(rate.Min, rate.Max)
	knuts := rate.Unit.InKnuts(rolled)

	details := fmt.Sprintf("Заработок за работу: %d %s", rolled, rate.Unit.Name())
	newBalance, _, err := s.ledger.AdjustBalance(ctx, userID, knuts, username, ledger.TxTypeWork, userID, details)
	if err != nil {
		return nil, err
	}

	if err := s.gate.Record(ctx, userID, cooldown.KindWork, now); err != nil {
		// Начисление уже зафиксировано; потерянный таймер лишь позволит
		// поработать раньше срока — логируем и не роняем операцию
		log.WithError(err).WithField("user_id", userID).Error("Не удалось записать кулдаун работы")
	}

	log.WithFields(log.Fields{"user_id": userID, "knuts": knuts}).Info("Работа выполнена")
	return &WorkResult{Rolled: rolled, Unit: rate.Unit, Knuts: knuts, NewBalance: newBalance}, nil
}

// CollectIncome собирает периодический доход по переданному тарифу.
// Слой интеракций сам выбирает самый выгодный тариф из ролей пользователя.
func (s *Service) CollectIncome(ctx context.Context, userID, username string, rate IncomeRate) (*IncomeResult, error) {
	if rate.Amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	now := s.now()
	status, err := s.gate.Check(ctx, userID, cooldown.KindIncome, now, s.cfg.IncomeCooldown)
	if err != nil {
		return nil, err
	}
	if !status.Ready {
		return nil, &common.CooldownError{Activity: cooldown.KindIncome.String(), Remaining: status.Remaining}
	}

	knuts := rate.Unit.InKnuts(rate.Amount)
	newBalance, _, err := s.ledger.AdjustBalance(ctx, userID, knuts, username, ledger.TxTypeIncome, userID, "Периодический доход")
	if err != nil {
		return nil, err
	}

	if err := s.gate.Record(ctx, userID, cooldown.KindIncome, now); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Не удалось записать кулдаун дохода")
	}

	log.WithFields(log.Fields{"user_id": userID, "knuts": knuts}).Info("Доход собран")
	return &IncomeResult{Knuts: knuts, NewBalance: newBalance}, nil
}

// AdminAdjust корректирует баланс пользователя от имени администратора.
// Сумма задаётся в любом номинале и может быть отрицательной; списание
// ниже нуля схлопывается, в журнал попадает фактическая дельта.
func (s *Service) AdminAdjust(ctx context.Context, targetID, username string, amount int64, unit currency.Unit, actorID, note string) (*AdjustResult, error) {
	knuts := unit.InKnuts(amount)
	if knuts == 0 {
		return nil, common.ErrInvalidAmount
	}

	details := fmt.Sprintf("Корректировка баланса: %+d %s", amount, unit.Name())
	if note != "" {
		details += ". " + note
	}

	newBalance, applied, err := s.ledger.AdjustBalance(ctx, targetID, knuts, username, ledger.TxTypeAdmin, actorID, details)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"target": targetID, "actor": actorID, "requested": knuts, "applied": applied,
	}).Info("Баланс скорректирован администратором")
	return &AdjustResult{Requested: knuts, Applied: applied, NewBalance: newBalance}, nil
}

// Purchase покупает предмет для пользователя.
// Быстрая проверка до транзакции даёт дружелюбный отказ; решающая проверка
// цены и баланса происходит внутри транзакции покупки.
func (s *Service) Purchase(ctx context.Context, userID, username string, itemID int64) (*PurchaseReceipt, error) {
	it, err := s.catalog.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	ok, err := s.ledger.CanAfford(ctx, userID, it.Price)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInsufficientBalance
	}

	receipt, err := s.purchases.Purchase(ctx, userID, username, itemID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID, "item_id": receipt.ItemID, "price": receipt.Price, "entry_id": receipt.EntryID,
	}).Info("Покупка совершена")
	return receipt, nil
}

// RetireShopItem снимает предмет с продажи, сохраняя его для владельцев.
func (s *Service) RetireShopItem(ctx context.Context, itemID int64, actorID string) error {
	if err := s.catalog.RetireItem(ctx, itemID); err != nil {
		return err
	}
	log.WithFields(log.Fields{"item_id": itemID, "actor": actorID}).Info("Предмет снят с продажи")
	return nil
}

// GrantItem выдаёт предмет без оплаты (административная выдача).
func (s *Service) GrantItem(ctx context.Context, userID string, itemID int64) (int64, error) {
	return s.catalog.GrantItem(ctx, userID, itemID)
}

// UseItem использует предмет: запись инвентаря уничтожается.
// Чужую или несуществующую запись использовать нельзя.
func (s *Service) UseItem(ctx context.Context, userID string, entryID int64) (*shop.OwnedItem, error) {
	return s.consumeEntry(ctx, userID, entryID, "Предмет использован")
}

// DestroyItem уничтожает предмет из инвентаря. Семантика та же,
// что у UseItem — запись удаляется; различается только смысл для слоя
// интеракций.
func (s *Service) DestroyItem(ctx context.Context, userID string, entryID int64) (*shop.OwnedItem, error) {
	return s.consumeEntry(ctx, userID, entryID, "Предмет уничтожен")
}

func (s *Service) consumeEntry(ctx context.Context, userID string, entryID int64, logMsg string) (*shop.OwnedItem, error) {
	entry, err := s.catalog.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		// Чужая запись для этого пользователя неотличима от несуществующей
		return nil, common.ErrInventoryEntryNotFound
	}

	if err := s.catalog.RemoveEntry(ctx, entryID); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": userID, "entry_id": entryID, "item": entry.Name}).Info(logMsg)
	return entry, nil
}

// Balance возвращает баланс пользователя: сумму в кнатах и разложение
// по номиналам. Свежее отображаемое имя обновляет кэш счёта.
func (s *Service) Balance(ctx context.Context, userID, username string) (int64, currency.Amount, error) {
	if username != "" {
		if err := s.ledger.UpdateUsername(ctx, userID, username); err != nil {
			return 0, currency.Amount{}, err
		}
	}

	total, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return 0, currency.Amount{}, err
	}
	return total, currency.Split(total), nil
}

// Profile возвращает профильные поля счёта пользователя.
// Для несуществующего счёта — common.ErrAccountNotFound.
func (s *Service) Profile(ctx context.Context, userID string) (*ledger.Profile, error) {
	return s.ledger.GetProfile(ctx, userID)
}

// UpdateProfile записывает профильные поля счёта пользователя.
func (s *Service) UpdateProfile(ctx context.Context, userID, favoriteSpells, pets, bio string) error {
	if err := s.ledger.SetProfile(ctx, userID, favoriteSpells, pets, bio); err != nil {
		return err
	}
	log.WithField("user_id", userID).Info("Профиль обновлён")
	return nil
}

// CanAfford проверяет платёжеспособность без изменения состояния.
func (s *Service) CanAfford(ctx context.Context, userID string, price int64) (bool, error) {
	return s.ledger.CanAfford(ctx, userID, price)
}

// History возвращает последние записи журнала пользователя.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*ledger.Transaction, error) {
	return s.ledger.GetTransactions(ctx, userID, limit)
}

// Leaderboard возвращает топ-N счетов по выбранному критерию.
// Чистое чтение, один консистентный снимок на запрос.
func (s *Service) Leaderboard(ctx context.Context, kind LeaderboardKind, limit int) ([]*ledger.LeaderboardRow, error) {
	switch kind {
	case LeaderboardWealth:
		return s.ledger.TopByWealth(ctx, limit)
	case LeaderboardTransactions:
		return s.ledger.TopByTransactions(ctx, limit)
	case LeaderboardIncome:
		return s.ledger.TopByIncome(ctx, limit)
	default:
		return nil, fmt.Errorf("неизвестный вид таблицы лидеров: %q", kind)
	}
}

// AuditLedger сверяет балансы с суммами журнала и логирует расхождения.
// Возвращает число найденных расхождений. Ничего не чинит: расхождение —
// признак бага, который нужно разбирать руками.
func (s *Service) AuditLedger(ctx context.Context) (int, error) {
	rows, err := s.ledger.FindInconsistentAccounts(ctx)
	if err != nil {
		return 0, err
	}

	for _, row := range rows {
		log.WithFields(log.Fields{
			"user_id": row.UserID, "username": row.Username,
			"balance": row.Balance, "logged_sum": row.LoggedSum,
		}).Error("Баланс счёта разошёлся с журналом транзакций")
	}
	return len(rows), nil
}
