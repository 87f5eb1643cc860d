// internals/seeds/fees/seed_fees.go
package fees

import (
	"log"
	"os"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	feemodel "shulepay_backend/internals/features/fees/model"
	studentmodel "shulepay_backend/internals/features/school/students/model"
)

// FeeSeed mirrors one entry of the demo JSON file: a student with one fee
// category, its installment plan, and the ledger assignment.
type FeeSeed struct {
	SchoolID         uuid.UUID              `json:"school_id"`
	AcademicYearID   uuid.UUID              `json:"academic_year_id"`
	StudentFullName  string                 `json:"student_full_name"`
	ParentUserID     uuid.UUID              `json:"parent_user_id"`
	StructureName    string                 `json:"structure_name"`
	StructureAmount  float64                `json:"structure_amount"`
	DiscountPercent  float64                `json:"discount_percent"`
	PlanName         string                 `json:"plan_name"`
	PlanType         string                 `json:"plan_type"`
	PlanInstallments []feemodel.Installment `json:"plan_installments"`
}

// SeedFeesFromJSON loads demo students, fee structures, plans, and
// assignments. Idempotent per student name within a school.
func SeedFeesFromJSON(db *gorm.DB, filePath string) {
	log.Println("📥 Reading seed file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Printf("❌ Cannot read seed file: %v", err)
		return
	}

	var seeds []FeeSeed
	if err := sonic.Unmarshal(file, &seeds); err != nil {
		log.Printf("❌ Cannot decode seed file: %v", err)
		return
	}

	for _, s := range seeds {
		var existing studentmodel.StudentModel
		if err := db.Where("student_school_id = ? AND student_full_name = ?",
			s.SchoolID, s.StudentFullName).First(&existing).Error; err == nil {
			log.Printf("ℹ️ Student %s already seeded, skipping", s.StudentFullName)
			continue
		}

		if err := seedOne(db, s); err != nil {
			log.Printf("❌ Seed failed for %s: %v", s.StudentFullName, err)
		} else {
			log.Printf("✅ Seeded %s (%s)", s.StudentFullName, s.StructureName)
		}
	}
}

func seedOne(db *gorm.DB, s FeeSeed) error {
	return db.Transaction(func(tx *gorm.DB) error {
		student := studentmodel.StudentModel{
			StudentSchoolID: s.SchoolID,
			StudentFullName: s.StudentFullName,
		}
		if err := tx.Create(&student).Error; err != nil {
			return err
		}

		link := studentmodel.ParentStudentModel{
			ParentStudentParentUserID: s.ParentUserID,
			ParentStudentStudentID:    student.StudentID,
		}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}

		structure := feemodel.FeeStructureModel{
			FeeStructureSchoolID:        s.SchoolID,
			FeeStructureAcademicYearID:  s.AcademicYearID,
			FeeStructureName:            s.StructureName,
			FeeStructureAmount:          s.StructureAmount,
			FeeStructureDiscountPercent: s.DiscountPercent,
			FeeStructureStatus:          feemodel.FeeStructureActive,
		}
		if err := tx.Create(&structure).Error; err != nil {
			return err
		}

		rawInstallments, err := sonic.Marshal(s.PlanInstallments)
		if err != nil {
			return err
		}
		plan := feemodel.PaymentPlanModel{
			PaymentPlanFeeStructureID: structure.FeeStructureID,
			PaymentPlanName:           s.PlanName,
			PaymentPlanType:           feemodel.PaymentPlanType(s.PlanType),
			PaymentPlanInstallments:   datatypes.JSON(rawInstallments),
		}
		if err := tx.Create(&plan).Error; err != nil {
			return err
		}

		totalDue, err := plan.TotalAmount()
		if err != nil {
			return err
		}
		assignment := feemodel.StudentFeeAssignmentModel{
			StudentFeeAssignmentStudentID:      student.StudentID,
			StudentFeeAssignmentFeeStructureID: structure.FeeStructureID,
			StudentFeeAssignmentPaymentPlanID:  &plan.PaymentPlanID,
			StudentFeeAssignmentAcademicYearID: s.AcademicYearID,
			StudentFeeAssignmentTotalDue:       totalDue,
			StudentFeeAssignmentStatus:         feemodel.AssignmentActive,
		}
		return tx.Create(&assignment).Error
	})
}
