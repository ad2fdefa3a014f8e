// workers/ledger_archive_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/chaesueryong/badminton-sub001/models"
	"github.com/chaesueryong/badminton-sub001/utils"
	"gorm.io/gorm"
)

const archiveBatchSize = 5000

// LedgerArchiveWorker periodically exports ledger transactions to R2 as
// JSON batches. The ledger itself is append-only and never pruned; the
// archive exists so finance can pull statements without hitting the
// service database.
type LedgerArchiveWorker struct {
	db        *gorm.DB
	interval  time.Duration
	batchSize int
}

func NewLedgerArchiveWorker(db *gorm.DB) *LedgerArchiveWorker {
	return &LedgerArchiveWorker{
		db:        db,
		interval:  1 * time.Hour,
		batchSize: archiveBatchSize,
	}
}

func (w *LedgerArchiveWorker) Start(ctx context.Context) {
	log.Println("Starting ledger archive worker (transactions -> R2)")
	go w.run(ctx)
}

func (w *LedgerArchiveWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.archiveBatch(ctx); err != nil {
				log.Printf("[ARCHIVE] ledger archive failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("Ledger archive worker stopped")
			return
		}
	}
}

// lastCursor returns the (created_at, id) keyset of the newest marker.
func (w *LedgerArchiveWorker) lastCursor() (time.Time, string) {
	var marker models.LedgerArchiveMarker
	err := w.db.Order("id DESC").First(&marker).Error
	if err != nil {
		return time.Unix(0, 0), ""
	}
	return marker.ArchivedThrough, marker.LastID
}

// nextBatch loads the transactions after the keyset cursor. Resuming on
// (created_at, id) rather than created_at alone means rows that share a
// timestamp across a batch-size boundary are not lost.
func (w *LedgerArchiveWorker) nextBatch(ctx context.Context, since time.Time, sinceID string, cutoff time.Time) ([]models.LedgerTransaction, error) {
	var txs []models.LedgerTransaction
	err := w.db.WithContext(ctx).
		Where("(created_at > ? OR (created_at = ? AND id > ?)) AND created_at <= ?", since, since, sinceID, cutoff).
		Order("created_at ASC, id ASC").
		Limit(w.batchSize).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return txs, nil
}

func (w *LedgerArchiveWorker) archiveBatch(ctx context.Context) error {
	since, sinceID := w.lastCursor()
	// Rows newer than one minute stay out of the batch so a window is
	// never re-exported after late commits land inside it.
	cutoff := time.Now().UTC().Add(-1 * time.Minute)

	txs, err := w.nextBatch(ctx, since, sinceID, cutoff)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		return nil
	}

	payload, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	last := txs[len(txs)-1]
	key := fmt.Sprintf("ledger/%s/txns-%d.json", last.CreatedAt.UTC().Format("2006/01"), last.CreatedAt.UnixNano())

	if err := utils.UploadBytesToR2(ctx, key, payload, "application/json"); err != nil {
		return err
	}

	marker := models.LedgerArchiveMarker{
		ArchivedThrough: last.CreatedAt,
		LastID:          last.ID,
		ObjectKey:       key,
		RowCount:        len(txs),
	}
	if err := w.db.WithContext(ctx).Create(&marker).Error; err != nil {
		return fmt.Errorf("failed to record archive marker: %w", err)
	}

	log.Printf("[ARCHIVE] exported %d transactions through %s to %s",
		len(txs), last.CreatedAt.Format(time.RFC3339), key)
	return nil
}
