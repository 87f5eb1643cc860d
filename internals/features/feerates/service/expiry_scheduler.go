// internals/features/feerates/service/expiry_scheduler.go
package service

import (
	"log"
	"time"

	"shulepay_backend/internals/configs"
)

// StartExpiryScheduler sweeps stale pending rate proposals on an interval.
// TTL comes from FEE_RATE_PENDING_TTL_DAYS (default 30). Call once from main.
func StartExpiryScheduler(svc *FeeRateService, interval time.Duration) {
	ttlDays := configs.GetEnvInt("FEE_RATE_PENDING_TTL_DAYS", 30)
	ttl := time.Duration(ttlDays) * 24 * time.Hour

	go func() {
		log.Printf("[SCHEDULER] ⏰ fee-rate expiry sweeper started (ttl=%dd, every %s)", ttlDays, interval)
		for {
			cutoff := time.Now().Add(-ttl)
			n, err := svc.ExpirePending(cutoff)
			if err != nil {
				log.Println("[SCHEDULER] ❌ fee-rate expiry sweep failed:", err)
			} else if n > 0 {
				log.Printf("[SCHEDULER] ✅ expired %d stale fee-rate proposal(s)", n)
			}
			time.Sleep(interval)
		}
	}()
}
