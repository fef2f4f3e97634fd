package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"agentscan/registry-indexer/internal/types"
)

// GetSyncCursor returns the cursor row for a network, or nil when none exists.
func (d *Database) GetSyncCursor(networkKey string) (*SyncCursor, error) {
	var cursor SyncCursor
	err := d.db.Where("network_key = ?", networkKey).First(&cursor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sync cursor: %w", err)
	}
	return &cursor, nil
}

// EnsureSyncCursor fetches the cursor for a network, creating it at
// startBlock-1 when absent so the first batch begins at startBlock.
func (d *Database) EnsureSyncCursor(
	networkKey string,
	contractAddress string,
	startBlock uint64,
) (*SyncCursor, error) {
	cursor, err := d.GetSyncCursor(networkKey)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		return cursor, nil
	}

	last := uint64(0)
	if startBlock > 0 {
		last = startBlock - 1
	}
	cursor = &SyncCursor{
		ID:                 uuid.New(),
		NetworkKey:         networkKey,
		ContractAddress:    contractAddress,
		LastProcessedBlock: last,
		Status:             types.SyncStatusIdle,
	}
	if err := d.db.Create(cursor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a creation race with another writer; theirs wins.
			return d.GetSyncCursor(networkKey)
		}
		return nil, fmt.Errorf("failed to create sync cursor: %w", err)
	}
	d.logger.Infow("created sync cursor",
		"network", networkKey,
		"start_block", startBlock)
	return cursor, nil
}

// MarkSyncRunning flags the cursor as mid-run and records the observed chain
// height so progress is reportable while the run is in flight.
func (d *Database) MarkSyncRunning(
	networkKey string,
	chainHeight uint64,
) error {
	result := d.db.Model(&SyncCursor{}).
		Where("network_key = ?", networkKey).
		Updates(map[string]any{
			"status":               types.SyncStatusRunning,
			"current_chain_height": chainHeight,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark cursor running: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no sync cursor for network %s", networkKey)
	}
	return nil
}

// AdvanceSyncCursor commits batch progress. Called only after the batch's
// agent and activity writes are durable.
func (d *Database) AdvanceSyncCursor(networkKey string, to uint64) error {
	now := time.Now().UTC()
	result := d.db.Model(&SyncCursor{}).
		Where("network_key = ?", networkKey).
		Updates(map[string]any{
			"last_processed_block": to,
			"last_synced_at":       now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to advance cursor: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no sync cursor for network %s", networkKey)
	}
	return nil
}

// MarkSyncError records a failed run; the last processed block is untouched
// so the next run retries the same range.
func (d *Database) MarkSyncError(networkKey string, message string) error {
	result := d.db.Model(&SyncCursor{}).
		Where("network_key = ?", networkKey).
		Updates(map[string]any{
			"status":     types.SyncStatusError,
			"last_error": message,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark cursor errored: %w", result.Error)
	}
	return nil
}

// MarkSyncIdle records a clean run end and clears any previous error.
func (d *Database) MarkSyncIdle(networkKey string) error {
	result := d.db.Model(&SyncCursor{}).
		Where("network_key = ?", networkKey).
		Updates(map[string]any{
			"status":     types.SyncStatusIdle,
			"last_error": nil,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark cursor idle: %w", result.Error)
	}
	return nil
}

// ResetSyncCursor rewinds a network to startBlock-1 so the next run rescans
// from genesis. Administrative operation.
func (d *Database) ResetSyncCursor(
	networkKey string,
	startBlock uint64,
) error {
	last := uint64(0)
	if startBlock > 0 {
		last = startBlock - 1
	}
	result := d.db.Model(&SyncCursor{}).
		Where("network_key = ?", networkKey).
		Updates(map[string]any{
			"last_processed_block": last,
			"current_chain_height": nil,
			"status":               types.SyncStatusIdle,
			"last_error":           nil,
			"last_synced_at":       nil,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to reset cursor: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no sync cursor for network %s", networkKey)
	}
	d.logger.Infow("reset sync cursor",
		"network", networkKey,
		"start_block", startBlock)
	return nil
}

// GetSyncCursors returns all cursor rows, ordered by network key.
func (d *Database) GetSyncCursors() ([]SyncCursor, error) {
	var cursors []SyncCursor
	if err := d.db.Order("network_key ASC").Find(&cursors).Error; err != nil {
		return nil, fmt.Errorf("failed to list sync cursors: %w", err)
	}
	return cursors, nil
}
