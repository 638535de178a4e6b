package database

import (
	"context"
	"fmt"

	"github.com/jomarcello/Waviate/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const copyBatchSize = 500

// CopyStats counts the rows written per table.
type CopyStats struct {
	Leads         int64
	Conversations int64
	Messages      int64
}

// Copy moves every lead, conversation and message from src into dst, keeping primary keys.
// Tables are copied in dependency order inside a single destination transaction.
func Copy(ctx context.Context, src, dst *gorm.DB) (CopyStats, error) {
	var stats CopyStats
	if err := Migrate(dst); err != nil {
		return stats, err
	}

	err := dst.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if stats.Leads, err = copyTable[models.Lead](ctx, src, tx); err != nil {
			return fmt.Errorf("leads: %w", err)
		}
		if stats.Conversations, err = copyTable[models.Conversation](ctx, src, tx); err != nil {
			return fmt.Errorf("conversations: %w", err)
		}
		if stats.Messages, err = copyTable[models.Message](ctx, src, tx); err != nil {
			return fmt.Errorf("messages: %w", err)
		}
		return resetSequences(tx, "leads", "conversations", "messages")
	})
	if err != nil {
		return stats, fmt.Errorf("database: copy %w", err)
	}
	return stats, nil
}

func copyTable[T any](ctx context.Context, src, dst *gorm.DB) (int64, error) {
	var total int64
	var batch []T
	result := src.WithContext(ctx).FindInBatches(&batch, copyBatchSize, func(_ *gorm.DB, _ int) error {
		if err := dst.Omit(clause.Associations).Create(&batch).Error; err != nil {
			return err
		}
		total += int64(len(batch))
		return nil
	})
	return total, result.Error
}

// resetSequences moves postgres id sequences past the copied keys.
func resetSequences(tx *gorm.DB, tables ...string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range tables {
		err := tx.Exec(fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
			table)).Error
		if err != nil {
			return fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}
	return nil
}
