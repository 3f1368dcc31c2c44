// Package jobs — планировщик фоновых задач на основе cron.
// Единственная задача — ночной аудит леджера: сверка балансов
// с суммами журнала транзакций.
package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// auditor — то, что планировщику нужно от движка.
type auditor interface {
	AuditLedger(ctx context.Context) (int, error)
}

// Scheduler запускает периодические задачи.
type Scheduler struct {
	cron   *cron.Cron
	engine auditor
	spec   string
}

// NewScheduler создаёт планировщик с cron-выражением из конфигурации.
func NewScheduler(engine auditor, spec string) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		engine: engine,
		spec:   spec,
	}
}

// Start регистрирует задачи и запускает планировщик.
func (s *Scheduler) Start(ctx context.Context) {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runAudit(ctx)
	})
	if err != nil {
		log.WithError(err).Error("Не удалось зарегистрировать задачу аудита")
		return
	}

	s.cron.Start()
	log.WithField("spec", s.spec).Info("Планировщик запущен")
}

// Stop останавливает планировщик и дожидается завершения текущих задач.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	log.Info("Планировщик остановлен")
}

// runAudit — одна итерация аудита леджера.
func (s *Scheduler) runAudit(ctx context.Context) {
	log.Info("Ночной аудит леджера запущен")

	mismatches, err := s.engine.AuditLedger(ctx)
	if err != nil {
		log.WithError(err).Error("Аудит леджера завершился с ошибкой")
		return
	}

	if mismatches > 0 {
		log.WithField("mismatches", mismatches).Warn("Аудит леджера нашёл расхождения")
	} else {
		log.Info("Аудит леджера: расхождений нет")
	}
}
