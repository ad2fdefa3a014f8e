// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/chaesueryong/badminton-sub001/models"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// StartMaintenanceScheduler runs the periodic hygiene jobs: expiring
// stale invitations and clearing lapsed VIP flags. Both checks are also
// enforced lazily on the request paths; the scheduler only keeps the
// tables tidy.
func StartMaintenanceScheduler(db *gorm.DB, invitations *InvitationService) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	sched.Start()

	// Every 10 minutes: cancel pending invitations past their expiry.
	_, _ = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			swept, err := invitations.SweepExpired()
			if err != nil {
				log.Printf("[Scheduler] invitation sweep failed: %v", err)
				return
			}
			if swept > 0 {
				log.Printf("[Scheduler] expired %d stale invitations", swept)
			}
		}),
	)

	// Every hour: drop the VIP flag on wallets whose window lapsed.
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			res := db.Model(&models.UserWallet{}).
				Where("is_vip = ? AND vip_until IS NOT NULL AND vip_until < ?", true, time.Now()).
				Update("is_vip", false)
			if res.Error != nil {
				log.Printf("[Scheduler] VIP lapse sweep failed: %v", res.Error)
				return
			}
			if res.RowsAffected > 0 {
				log.Printf("[Scheduler] cleared VIP flag on %d lapsed wallets", res.RowsAffected)
			}
		}),
	)

	return sched, nil
}
