// internals/features/fees/model/fee_structure_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- ENUM fee_structure_status ------------------------------------------------
type FeeStructureStatus string

const (
	FeeStructureActive   FeeStructureStatus = "active"
	FeeStructureArchived FeeStructureStatus = "archived"
)

// FeeStructureModel is one priced fee category of a school (tuition,
// transport, ...) for an academic year. Plans hang off it.
type FeeStructureModel struct {
	// PK
	FeeStructureID uuid.UUID `json:"fee_structure_id" gorm:"column:fee_structure_id;type:uuid;default:gen_random_uuid();primaryKey"`

	// Tenant
	FeeStructureSchoolID       uuid.UUID `json:"fee_structure_school_id" gorm:"column:fee_structure_school_id;type:uuid;not null;index:idx_fee_structures_school"`
	FeeStructureAcademicYearID uuid.UUID `json:"fee_structure_academic_year_id" gorm:"column:fee_structure_academic_year_id;type:uuid;not null;index:idx_fee_structures_year"`

	// Category
	FeeStructureName            string  `json:"fee_structure_name" gorm:"column:fee_structure_name;type:varchar(80);not null"`
	FeeStructureAmount          float64 `json:"fee_structure_amount" gorm:"column:fee_structure_amount;type:numeric(14,2);not null;check:fee_structure_amount >= 0"`
	FeeStructureDiscountPercent float64 `json:"fee_structure_discount_percent" gorm:"column:fee_structure_discount_percent;type:numeric(5,2);not null;default:0"`

	FeeStructureStatus FeeStructureStatus `json:"fee_structure_status" gorm:"column:fee_structure_status;type:varchar(20);not null;default:active"`

	// Timestamps
	FeeStructureCreatedAt time.Time      `json:"fee_structure_created_at" gorm:"column:fee_structure_created_at;autoCreateTime"`
	FeeStructureUpdatedAt *time.Time     `json:"fee_structure_updated_at,omitempty" gorm:"column:fee_structure_updated_at;autoUpdateTime"`
	FeeStructureDeletedAt gorm.DeletedAt `json:"fee_structure_deleted_at,omitempty" gorm:"column:fee_structure_deleted_at;index"`
}

func (FeeStructureModel) TableName() string { return "fee_structures" }

// NetAmount is the category price after its discount, the reference value for
// plan↔category tolerance matching.
func (f FeeStructureModel) NetAmount() float64 {
	return f.FeeStructureAmount * (1 - f.FeeStructureDiscountPercent/100)
}
