package repository

import (
	"fmt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"log/slog"
	"pixellize/internal/app/models"
	"pixellize/pkg/logger"
	"sync"
	"sync/atomic"
	"time"
)

const (
	bufferSize    = 1000
	flushInterval = 5 * time.Minute
	batchSize     = 999
)

type StatsRepository struct {
	log         *logger.Logger
	db          *gorm.DB
	eventsChan  chan models.Event
	flushTicker *time.Ticker
	done        chan struct{}
	stopped     chan struct{}
	stopOnce    sync.Once
	running     atomic.Bool
	buffer      []models.Event
	bufferMutex sync.Mutex
}

func NewStats(log *logger.Logger, db *gorm.DB) *StatsRepository {
	return &StatsRepository{
		log:         log,
		db:          db,
		eventsChan:  make(chan models.Event, bufferSize),
		flushTicker: time.NewTicker(flushInterval),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		buffer:      make([]models.Event, 0, bufferSize),
	}
}

func (sr *StatsRepository) EventLoop() {
	sr.running.Store(true)
	defer close(sr.stopped)
	for {
		select {
		case event := <-sr.eventsChan:
			sr.bufferMutex.Lock()
			sr.buffer = append(sr.buffer, event)
			if len(sr.buffer) >= bufferSize {
				sr.flushBuffer()
			}
			sr.bufferMutex.Unlock()

		case <-sr.flushTicker.C:
			sr.bufferMutex.Lock()
			if len(sr.buffer) > 0 {
				sr.flushBuffer()
			}
			sr.bufferMutex.Unlock()

		case <-sr.done:
			sr.flushTicker.Stop()
			sr.bufferMutex.Lock()
			sr.drain()
			sr.flushBuffer()
			sr.bufferMutex.Unlock()
			return
		}
	}
}

// Stop ends a running EventLoop after writing everything still queued.
// Without a loop it just flushes.
func (sr *StatsRepository) Stop() {
	sr.stopOnce.Do(func() {
		close(sr.done)
	})
	if !sr.running.Load() {
		sr.flushTicker.Stop()
		sr.Flush()
		return
	}
	<-sr.stopped
}

// Flush writes queued events right away.
func (sr *StatsRepository) Flush() {
	sr.bufferMutex.Lock()
	defer sr.bufferMutex.Unlock()

	sr.drain()
	if len(sr.buffer) > 0 {
		sr.flushBuffer()
	}
}

// drain moves events still sitting in the channel into the buffer.
// Callers hold bufferMutex.
func (sr *StatsRepository) drain() {
	for {
		select {
		case event := <-sr.eventsChan:
			sr.buffer = append(sr.buffer, event)
		default:
			return
		}
	}
}

func (sr *StatsRepository) flushBuffer() {
	defer func() {
		if r := recover(); r != nil {
			sr.log.Error("panic in flushBuffer", nil, slog.Any("recover", r))
		}
	}()

	if len(sr.buffer) == 0 {
		return
	}

	chats := make(map[int64]struct{})
	for _, event := range sr.buffer {
		chats[event.ChatID] = struct{}{}
	}

	tx := sr.db.Begin()
	if tx.Error != nil {
		sr.log.Error("Failed to begin transaction", tx.Error)
		return
	}

	for chatID := range chats {
		chat := models.Chat{ID: chatID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": gorm.Expr("CURRENT_TIMESTAMP")}),
		}).Create(&chat).Error; err != nil {
			sr.log.Error("Failed to upsert chat", err, slog.Int64("chat", chatID))
			tx.Rollback()
			return
		}
	}

	events := make([]models.Event, len(sr.buffer))
	copy(events, sr.buffer)
	for i := 0; i < len(events); i += batchSize {
		end := min(i+batchSize, len(events))
		if err := tx.Create(events[i:end]).Error; err != nil {
			sr.log.Error("Failed to batch insert events", err)
			tx.Rollback()
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		sr.log.Error("Failed to commit transaction", err)
		return
	}

	sr.log.Debug("stats flushed", slog.Int("events", len(events)), slog.Int("chats", len(chats)))
	sr.buffer = sr.buffer[:0]
}

func (sr *StatsRepository) RecordEvent(event models.Event) error {
	select {
	case sr.eventsChan <- event:
	default:
		sr.log.Warn("events channel is full, dropping event", slog.Int64("chat", event.ChatID))
	}
	return nil
}

func (sr *StatsRepository) GetStats(period string) (int, error) {
	var timeInterval time.Duration
	switch period {
	case "hour":
		timeInterval = -1 * time.Hour
	case "day":
		timeInterval = -24 * time.Hour
	case "week":
		timeInterval = -7 * 24 * time.Hour
	case "month":
		timeInterval = -30 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("invalid period: %s", period)
	}

	startTime := time.Now().Add(timeInterval)
	var count int64
	if err := sr.db.Model(&models.Event{}).
		Where("created_at >= ?", startTime).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return int(count), nil
}

func (sr *StatsRepository) GetActiveChatsCount() (int, error) {
	var count int64
	if err := sr.db.Model(&models.Chat{}).
		Distinct("id").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// GetTopGrid returns the most requested pixel grid size, or 0 without data.
func (sr *StatsRepository) GetTopGrid() (int, error) {
	var row struct {
		Pixels int
		Total  int64
	}
	err := sr.db.Model(&models.Event{}).
		Select("pixels, COUNT(*) AS total").
		Group("pixels").
		Order("total DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return 0, err
	}
	return row.Pixels, nil
}
