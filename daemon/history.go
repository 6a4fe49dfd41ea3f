package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/keymeter/typespeed/pkg/meter"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// RateSample is one persisted reading of the published figures. The journal
// is append-only and never loaded back into the meter: live state always
// starts from zero.
type RateSample struct {
	ID     uint      `gorm:"primaryKey" json:"-"`
	At     time.Time `gorm:"index" json:"at"`
	Rate10 uint64    `json:"rate_10s"`
	Rate30 uint64    `json:"rate_30s"`
	Rate60 uint64    `json:"rate_60s"`
	Total  uint64    `json:"total"`
}

// Journal periodically records the meter's published figures to sqlite.
type Journal struct {
	db       *gorm.DB
	meter    *meter.Meter
	interval time.Duration

	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

func OpenJournal(path string, interval time.Duration, m *meter.Meter) (*Journal, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sample journal: %w", err)
	}
	if err := db.AutoMigrate(&RateSample{}); err != nil {
		return nil, fmt.Errorf("migrate sample journal: %w", err)
	}
	return &Journal{
		db:       db,
		meter:    m,
		interval: interval,
		done:     make(chan struct{}),
	}, nil
}

// Start launches the sampling loop.
func (j *Journal) Start() {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				j.append()
			case <-j.done:
				return
			}
		}
	}()
}

// Stop ends the sampling loop. Idempotent.
func (j *Journal) Stop() {
	j.once.Do(func() { close(j.done) })
	j.wg.Wait()
}

func (j *Journal) append() {
	r := j.meter.Snapshot().Rates()
	sample := RateSample{
		At:     time.Now(),
		Rate10: r.Rate10,
		Rate30: r.Rate30,
		Rate60: r.Rate60,
		Total:  r.Total,
	}
	if err := j.db.Create(&sample).Error; err != nil {
		log.Warn().Err(err).Msg("Failed to persist rate sample")
	}
}

// Recent returns up to limit samples, newest first.
func (j *Journal) Recent(limit int) ([]RateSample, error) {
	var samples []RateSample
	if err := j.db.Order("at desc").Limit(limit).Find(&samples).Error; err != nil {
		return nil, err
	}
	return samples, nil
}
