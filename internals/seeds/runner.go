package seeds

import (
	"gorm.io/gorm"

	fees "shulepay_backend/internals/seeds/fees"
)

// RunAllSeeds loads the demo dataset. Only ever called behind SEED_ON_START;
// every seeder skips rows that already exist.
func RunAllSeeds(db *gorm.DB) {
	fees.SeedFeesFromJSON(db, "internals/seeds/fees/data_fees.json")
}
