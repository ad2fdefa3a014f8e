// workers/account_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/chaesueryong/badminton-sub001/models"
	"github.com/chaesueryong/badminton-sub001/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountProfile matches the JSON the account-store sync endpoint
// returns for each changed user.
type AccountProfile struct {
	ExternalID string     `json:"external_id"`
	Username   string     `json:"username"`
	Gender     string     `json:"gender"`
	Region     string     `json:"region"`
	IsVip      bool       `json:"is_vip"`
	VipUntil   *time.Time `json:"vip_until,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type accountChangesResponse struct {
	Profiles []AccountProfile `json:"profiles"`
}

// AccountSyncWorker mirrors account-store identity data into the local
// user_wallets table. It only writes identity fields (username, gender,
// region, VIP window); balances belong to the ledger and are never
// touched here.
type AccountSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewAccountSyncWorker(db *gorm.DB, baseURL, endpointPath, serviceToken string) *AccountSyncWorker {
	return &AccountSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      baseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

func (w *AccountSyncWorker) Start(ctx context.Context) {
	log.Println("Starting account sync worker (account store -> user_wallets)")
	go w.run(ctx)
}

func (w *AccountSyncWorker) run(ctx context.Context) {
	// Resume from the marker (epoch on first run), then poll.
	if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
		log.Printf("[SYNC] initial account sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
				log.Printf("[SYNC] account sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("Account sync worker stopped")
			return
		}
	}
}

// getLastSyncTime reads the cursor from the marker table. It must not
// be derived from user_wallets.updated_at: the ledger bumps that column
// on every balance write, which would skip remote identity changes
// carrying an earlier remote timestamp.
func (w *AccountSyncWorker) getLastSyncTime() time.Time {
	var marker models.AccountSyncMarker
	err := w.db.Order("synced_through DESC").First(&marker).Error
	if err != nil || marker.SyncedThrough.IsZero() {
		return time.Unix(0, 0)
	}
	return marker.SyncedThrough
}

func (w *AccountSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid account store URL %q: %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpointURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("account store request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("account store returned %d: %s", resp.StatusCode, string(body))
	}

	var response accountChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode account store response: %w", err)
	}
	if len(response.Profiles) == 0 {
		return nil
	}

	var upsertCount, errorCount int
	var syncedThrough time.Time
	for _, profile := range response.Profiles {
		if profile.UpdatedAt.After(syncedThrough) {
			syncedThrough = profile.UpdatedAt
		}
		wallet := models.UserWallet{
			ID:       uuid.NewString(),
			UserID:   profile.ExternalID,
			Username: profile.Username,
			Gender:   models.Gender(profile.Gender),
			Region:   utils.NormalizeRegion(profile.Region),
			IsVip:    profile.IsVip,
			VipUntil: profile.VipUntil,
		}

		// On conflict only identity columns are assigned — points and
		// feathers stay whatever the ledger last wrote.
		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "gender", "region", "is_vip", "vip_until", "updated_at",
			}),
		}).Create(&wallet).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] failed to upsert wallet (user_id=%q): %v", profile.ExternalID, err)
		} else {
			upsertCount++
		}
	}

	// Advance the cursor only after a clean batch; a failed upsert is
	// retried on the next poll instead of being skipped forever.
	if errorCount == 0 && !syncedThrough.IsZero() {
		marker := models.AccountSyncMarker{
			SyncedThrough: syncedThrough,
			ProfileCount:  upsertCount,
		}
		if err := w.db.Create(&marker).Error; err != nil {
			return fmt.Errorf("failed to record sync marker: %w", err)
		}
	}

	log.Printf("[SYNC] account sync: %d profiles (%d upserted, %d errors)",
		len(response.Profiles), upsertCount, errorCount)
	return nil
}
