// Package controllers reads and writes the status transition history.
package controllers

import (
	"context"
	"fmt"

	"github.com/vnxcius/aternos-bot/internal/database/model"
	"github.com/vnxcius/aternos-bot/internal/monitor"
	"gorm.io/gorm"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

type Transitions struct {
	db *gorm.DB
}

func NewTransitions(db *gorm.DB) *Transitions {
	return &Transitions{db: db}
}

func (t *Transitions) Migrate() error {
	return t.db.AutoMigrate(&model.StatusTransition{})
}

// RecordTransition stores t. It is a monitor.Recorder.
func (t *Transitions) RecordTransition(ctx context.Context, tr monitor.Transition) error {
	if err := t.db.WithContext(ctx).Create(model.NewStatusTransition(tr)).Error; err != nil {
		return fmt.Errorf("store transition for %s: %w", tr.Server.ID, err)
	}
	return nil
}

// History returns the newest transitions first, optionally for one server.
func (t *Transitions) History(ctx context.Context, serverID string, limit int) ([]model.StatusTransition, error) {
	q := t.db.WithContext(ctx).Order("observed_at DESC").Limit(ClampLimit(limit))
	if serverID != "" {
		q = q.Where("server_id = ?", serverID)
	}

	var out []model.StatusTransition
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	return out, nil
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
