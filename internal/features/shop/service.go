// Package shop — service.go содержит бизнес-логику каталога.
// Валидация входных данных, правила зарезервированных категорий,
// сборка свойств экипировки и читающие запросы для отображения.
package shop

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"gringotts-bot/internal/common"
	"gringotts-bot/internal/currency"
)

// catalogStore — то, что сервису нужно от репозитория.
type catalogStore interface {
	GetItem(ctx context.Context, itemID int64) (*Item, error)
	InsertItem(ctx context.Context, it *Item) (int64, error)
	RetireItem(ctx context.Context, itemID int64) error
	GrantItem(ctx context.Context, userID string, itemID int64, category string) (int64, error)
	RemoveEntry(ctx context.Context, entryID int64) error
	GetEntry(ctx context.Context, entryID int64) (*OwnedItem, error)
	ListInventory(ctx context.Context, userID string) ([]*OwnedItem, error)
	ListCategories(ctx context.Context) ([]*CategoryCount, error)
	ListItemsByCategory(ctx context.Context, category string) ([]*Item, error)
}

// Service управляет каталогом магазина.
type Service struct {
	repo     catalogStore
	validate *validator.Validate
}

// NewService создаёт сервис каталога.
func NewService(repo catalogStore) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
	}
}

// NewItemInput — входные данные обычного (не экипировочного) предмета.
type NewItemInput struct {
	Name         string        `validate:"required,max=100"`
	Price        int64         `validate:"min=0"`
	Unit         currency.Unit `validate:"required,oneof=galleon sickle knut"`
	Category     string        `validate:"required,max=50"`
	Description  string        `validate:"max=500"`
	RequiredRole *string
	ActorID      string `validate:"required"`
}

// WandInput — входные данные волшебной палочки.
type WandInput struct {
	Name         string        `validate:"required,max=100"`
	Price        int64         `validate:"min=0"`
	Unit         currency.Unit `validate:"required,oneof=galleon sickle knut"`
	Wood         string        `validate:"required"`
	Core         string        `validate:"required"`
	Length       float64       `validate:"gt=0"`
	Flexibility  string        `validate:"required"`
	Power        string        `validate:"required"`
	RequiredRole *string
	ActorID      string `validate:"required"`
}

// BroomInput — входные данные метлы.
type BroomInput struct {
	Name         string        `validate:"required,max=100"`
	Price        int64         `validate:"min=0"`
	Unit         currency.Unit `validate:"required,oneof=galleon sickle knut"`
	Wood         string        `validate:"required"`
	Bristle      string        `validate:"required"`
	Length       float64       `validate:"gt=0"`
	Speed        string        `validate:"required"`
	RequiredRole *string
	ActorID      string `validate:"required"`
}

// AccessoryInput — входные данные аксессуара.
type AccessoryInput struct {
	Name         string        `validate:"required,max=100"`
	Price        int64         `validate:"min=0"`
	Unit         currency.Unit `validate:"required,oneof=galleon sickle knut"`
	Material     string        `validate:"required"`
	Type         string        `validate:"required"`
	Enchantment  string        `validate:"required"`
	Description  string        `validate:"required,max=500"`
	RequiredRole *string
	ActorID      string `validate:"required"`
}

// AddItem добавляет обычный предмет в каталог.
// Зарезервированные категории экипировки этим путём не принимаются:
// для них есть CreateWand/CreateBroom/CraftAccessory со своими схемами свойств.
func (s *Service) AddItem(ctx context.Context, in NewItemInput) (int64, error) {
	if err := s.validate.Struct(in); err != nil {
		return 0, fmt.Errorf("некорректный предмет: %w", err)
	}
	if IsReservedCategory(in.Category) {
		return 0, common.ErrReservedCategory
	}

	id, err := s.repo.InsertItem(ctx, &Item{
		Name:         in.Name,
		Price:        in.Unit.InKnuts(in.Price),
		Category:     in.Category,
		Description:  in.Description,
		RequiredRole: in.RequiredRole,
		AddedBy:      in.ActorID,
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{"item_id": id, "category": in.Category, "actor": in.ActorID}).
		Info("Предмет добавлен в каталог")
	return id, nil
}

// CreateWand добавляет волшебную палочку в каталог.
// Описание собирается из свойств, свойства уходят в JSONB.
func (s *Service) CreateWand(ctx context.Context, in WandInput) (int64, error) {
	if err := s.validate.Struct(in); err != nil {
		return 0, fmt.Errorf("некорректная палочка: %w", err)
	}

	props, err := json.Marshal(WandProperties{
		Wood: in.Wood, Core: in.Core, Length: in.Length,
		Flexibility: in.Flexibility, Power: in.Power,
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка сериализации свойств палочки: %w", err)
	}

	description := fmt.Sprintf("%g inches, %s with %s core, %s, %s power",
		in.Length, in.Wood, in.Core, in.Flexibility, in.Power)

	id, err := s.repo.InsertItem(ctx, &Item{
		Name:         in.Name,
		Price:        in.Unit.InKnuts(in.Price),
		Category:     CategoryWands,
		Description:  description,
		Properties:   props,
		RequiredRole: in.RequiredRole,
		AddedBy:      in.ActorID,
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{"item_id": id, "actor": in.ActorID}).Info("Палочка добавлена в каталог")
	return id, nil
}

// CreateBroom добавляет метлу в каталог.
func (s *Service) CreateBroom(ctx context.Context, in BroomInput) (int64, error) {
	if err := s.validate.Struct(in); err != nil {
		return 0, fmt.Errorf("некорректная метла: %w", err)
	}

	props, err := json.Marshal(BroomProperties{
		Wood: in.Wood, Bristle: in.Bristle, Length: in.Length, Speed: in.Speed,
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка сериализации свойств метлы: %w", err)
	}

	description := fmt.Sprintf("%g inches, %s handle with %s, %s speed",
		in.Length, in.Wood, in.Bristle, in.Speed)

	id, err := s.repo.InsertItem(ctx, &Item{
		Name:         in.Name,
		Price:        in.Unit.InKnuts(in.Price),
		Category:     CategoryBrooms,
		Description:  description,
		Properties:   props,
		RequiredRole: in.RequiredRole,
		AddedBy:      in.ActorID,
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{"item_id": id, "actor": in.ActorID}).Info("Метла добавлена в каталог")
	return id, nil
}

// CraftAccessory добавляет аксессуар в каталог.
// В отличие от палочек и мётел описание задаётся создателем.
func (s *Service) CraftAccessory(ctx context.Context, in AccessoryInput) (int64, error) {
	if err := s.validate.Struct(in); err != nil {
		return 0, fmt.Errorf("некорректный аксессуар: %w", err)
	}

	props, err := json.Marshal(AccessoryProperties{
		Material: in.Material, Type: in.Type, Enchantment: in.Enchantment,
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка сериализации свойств аксессуара: %w", err)
	}

	id, err := s.repo.InsertItem(ctx, &Item{
		Name:         in.Name,
		Price:        in.Unit.InKnuts(in.Price),
		Category:     CategoryAccessories,
		Description:  in.Description,
		Properties:   props,
		RequiredRole: in.RequiredRole,
		AddedBy:      in.ActorID,
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{"item_id": id, "actor": in.ActorID}).Info("Аксессуар добавлен в каталог")
	return id, nil
}

// GetItem возвращает предмет живого каталога.
func (s *Service) GetItem(ctx context.Context, itemID int64) (*Item, error) {
	return s.repo.GetItem(ctx, itemID)
}

// RetireItem снимает предмет с продажи, сохраняя его для владельцев.
func (s *Service) RetireItem(ctx context.Context, itemID int64) error {
	return s.repo.RetireItem(ctx, itemID)
}

// GrantItem выдаёт предмет без покупки (административная выдача).
func (s *Service) GrantItem(ctx context.Context, userID string, itemID int64) (int64, error) {
	it, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return s.repo.GrantItem(ctx, userID, it.ID, it.Category)
}

// RemoveEntry удаляет одну запись инвентаря.
func (s *Service) RemoveEntry(ctx context.Context, entryID int64) error {
	return s.repo.RemoveEntry(ctx, entryID)
}

// GetEntry возвращает одну разрешённую запись инвентаря.
func (s *Service) GetEntry(ctx context.Context, entryID int64) (*OwnedItem, error) {
	return s.repo.GetEntry(ctx, entryID)
}

// ListInventory возвращает инвентарь пользователя по категориям.
func (s *Service) ListInventory(ctx context.Context, userID string) ([]*OwnedItem, error) {
	return s.repo.ListInventory(ctx, userID)
}

// ListCategories возвращает категории каталога с числом предметов.
func (s *Service) ListCategories(ctx context.Context) ([]*CategoryCount, error) {
	return s.repo.ListCategories(ctx)
}

// ListItemsByCategory возвращает предметы категории.
func (s *Service) ListItemsByCategory(ctx context.Context, category string) ([]*Item, error) {
	return s.repo.ListItemsByCategory(ctx, category)
}
