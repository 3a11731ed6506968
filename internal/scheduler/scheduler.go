package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler управляет периодическим сбросом буфера событий
type Scheduler struct {
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	flushFunc func(ctx context.Context) (int64, error)
}

// New создает новый планировщик
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetFlushFunction устанавливает функцию сброса буфера
func (s *Scheduler) SetFlushFunction(f func(ctx context.Context) (int64, error)) {
	s.flushFunc = f
}

// Start запускает планировщик с заданным cron-расписанием
func (s *Scheduler) Start(spec string) error {
	if s.flushFunc == nil {
		log.Println("⚠️ Flush function not set, scheduler will not drain the buffer")
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() {
		n, err := s.flushFunc(s.ctx)
		if err != nil {
			log.Printf("❌ Scheduled buffer flush failed after %d rows: %v", n, err)
			return
		}
		if n > 0 {
			log.Printf("🧹 Flushed %d events to spylog", n)
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("📅 Scheduler started - buffer flush on %q", spec)
	return nil
}

// Stop останавливает планировщик и дожидается текущих задач
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("📅 Scheduler stopped")
}
