package database

import (
	"context"
	"fmt"
	"time"

	"hft-ui-go/internal/models"

	"gorm.io/gorm"
)

// Journal is the local record of every place and cancel request sent from
// this dashboard. It is never read back into the displayed order list.
type Journal struct {
	db *gorm.DB
}

func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// Record stores one action.
func (j *Journal) Record(ctx context.Context, action *models.OrderAction) error {
	if err := j.db.WithContext(ctx).Create(action).Error; err != nil {
		return fmt.Errorf("failed to record order action: %w", err)
	}
	return nil
}

// Recent returns up to limit actions, most recent first. accountID filters
// when not empty.
func (j *Journal) Recent(ctx context.Context, accountID string, limit int) ([]models.OrderAction, error) {
	var actions []models.OrderAction
	q := j.db.WithContext(ctx).Order("timestamp desc").Order("id desc")
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("failed to get order actions: %w", err)
	}
	return actions, nil
}

// StatsDetail holds action counts for a given period.
type StatsDetail struct {
	Total       int64   `json:"total"`
	Placed      int64   `json:"placed"`
	Cancelled   int64   `json:"cancelled"`
	Succeeded   int64   `json:"succeeded"`
	Failed      int64   `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// Stats is the response of Journal.Stats.
type Stats struct {
	Since24h StatsDetail `json:"since_24h"`
	AllTime  StatsDetail `json:"all_time"`
}

// Stats counts the journal, all-time and over the 24 hours before now.
func (j *Journal) Stats(ctx context.Context, now time.Time) (Stats, error) {
	var actions []models.OrderAction
	if err := j.db.WithContext(ctx).Select("kind", "success", "timestamp").Find(&actions).Error; err != nil {
		return Stats{}, fmt.Errorf("failed to get order actions for statistics: %w", err)
	}

	since24h := now.Add(-24 * time.Hour).UnixMilli()
	var stats Stats
	for _, a := range actions {
		stats.AllTime.add(a)
		if a.Timestamp > since24h {
			stats.Since24h.add(a)
		}
	}
	stats.AllTime.finish()
	stats.Since24h.finish()
	return stats, nil
}

func (d *StatsDetail) add(a models.OrderAction) {
	d.Total++
	switch a.Kind {
	case models.ActionPlace:
		d.Placed++
	case models.ActionCancel:
		d.Cancelled++
	}
	if a.Success {
		d.Succeeded++
	} else {
		d.Failed++
	}
}

func (d *StatsDetail) finish() {
	if d.Total > 0 {
		d.SuccessRate = float64(d.Succeeded) / float64(d.Total)
	}
}
