package service

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shulepay_backend/internals/constants"
	"shulepay_backend/internals/features/feerates/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return db, mock
}

func rateRow(rateID, schoolID uuid.UUID, pct float64, status model.PaymentFeeRateStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"payment_fee_rate_id", "payment_fee_rate_school_id",
		"payment_fee_rate_percentage", "payment_fee_rate_status",
		"payment_fee_rate_proposed_by_id", "payment_fee_rate_proposed_by_role",
	}).AddRow(
		rateID.String(), schoolID.String(), pct, string(status),
		uuid.NewString(), string(constants.RolePlatformAdmin),
	)
}

func TestProposeByPlatformAwaitsSchool(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFeeRateService(db)

	schoolID := uuid.New()
	proposerID := uuid.New()

	mock.ExpectBegin()
	// no pending rate in flight
	mock.ExpectQuery(`SELECT \* FROM "payment_fee_rates"`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectQuery(`INSERT INTO "payment_fee_rates"`).
		WillReturnRows(sqlmock.NewRows([]string{"payment_fee_rate_id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	rate, err := svc.Propose(schoolID, proposerID, constants.RolePlatformAdmin, 3.0)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if rate.PaymentFeeRateStatus != model.FeeRatePendingSchool {
		t.Fatalf("platform proposal must await the school, got %s", rate.PaymentFeeRateStatus)
	}
	if rate.PaymentFeeRatePercentage != 3.0 {
		t.Fatalf("percentage lost: %v", rate.PaymentFeeRatePercentage)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProposeBySchoolAwaitsPlatform(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFeeRateService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payment_fee_rates"`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectQuery(`INSERT INTO "payment_fee_rates"`).
		WillReturnRows(sqlmock.NewRows([]string{"payment_fee_rate_id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	rate, err := svc.Propose(uuid.New(), uuid.New(), constants.RoleSchoolAdmin, 2.5)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if rate.PaymentFeeRateStatus != model.FeeRatePendingAdmin {
		t.Fatalf("school proposal must await the platform, got %s", rate.PaymentFeeRateStatus)
	}
}

func TestProposeConflictsWithPendingRate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFeeRateService(db)

	schoolID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payment_fee_rates"`).
		WillReturnRows(rateRow(uuid.New(), schoolID, 3.0, model.FeeRatePendingSchool))
	mock.ExpectRollback()

	_, err := svc.Propose(schoolID, uuid.New(), constants.RolePlatformAdmin, 4.0)
	if !errors.Is(err, ErrPendingRateExists) {
		t.Fatalf("expected ErrPendingRateExists, got %v", err)
	}
}

// Two first-time proposals for the same school both pass the locked pre-check
// (there is no pending row to lock yet); the loser's INSERT must die on the
// uq_fee_rates_one_pending partial index and come back as a conflict, not as
// a second pending row.
func TestProposeLosingInsertMapsToConflict(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFeeRateService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payment_fee_rates"`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectQuery(`INSERT INTO "payment_fee_rates"`).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "uq_fee_rates_one_pending" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	_, err := svc.Propose(uuid.New(), uuid.New(), constants.RolePlatformAdmin, 3.0)
	if !errors.Is(err, ErrPendingRateExists) {
		t.Fatalf("expected ErrPendingRateExists from the unique index, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProposeRejectsParentRole(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewFeeRateService(db)

	_, err := svc.Propose(uuid.New(), uuid.New(), constants.RoleParent, 3.0)
	if !errors.Is(err, ErrWrongParty) {
		t.Fatalf("parents must not propose rates, got %v", err)
	}
}

func TestProposeRejectsOutOfRangePercentage(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewFeeRateService(db)

	if _, err := svc.Propose(uuid.New(), uuid.New(), constants.RolePlatformAdmin, 101); err == nil {
		t.Fatalf("expected range error for 101%%")
	}
	if _, err := svc.Propose(uuid.New(), uuid.New(), constants.RolePlatformAdmin, -1); err == nil {
		t.Fatalf("expected range error for -1%%")
	}
}

func TestApproveActivatesAndSupersedesPriorRate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFeeRateService(db)

	rateID := uuid.New()
	schoolID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payment_fee_rates"`).
		WillReturnRows(rateRow(rateID, schoolID, 3.0, model.FeeRatePendingSchool))
	// prior active rate is closed out
	mock.ExpectExec(`UPDATE "payment_fee_rates" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// the approved rate is saved
	mock.ExpectExec(`UPDATE "payment_fee_rates" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	approverID := uuid.New()
	rate, err := svc.Approve(rateID, approverID, constants.RoleSchoolAdmin)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if rate.PaymentFeeRateStatus != model.FeeRateActive {
		t.Fatalf("expected active, got %s", rate.PaymentFeeRateStatus)
	}
	if rate.PaymentFeeRateSchoolApprovedBy == nil || *rate.PaymentFeeRateSchoolApprovedBy != approverID {
		t.Fatalf("school sign-off not recorded")
	}
	if rate.PaymentFeeRateActivatedAt == nil || rate.PaymentFeeRateEffectiveFrom == nil {
		t.Fatalf("activation timestamps not stamped")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApproveByProposingPartyIsRejected(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFeeRateService(db)

	rateID := uuid.New()

	// pending_school awaits the SCHOOL; the platform may not self-approve
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payment_fee_rates"`).
		WillReturnRows(rateRow(rateID, uuid.New(), 3.0, model.FeeRatePendingSchool))
	mock.ExpectRollback()

	_, err := svc.Approve(rateID, uuid.New(), constants.RolePlatformAdmin)
	if !errors.Is(err, ErrWrongParty) {
		t.Fatalf("expected ErrWrongParty, got %v", err)
	}
}

func TestApproveNonPendingRateIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFeeRateService(db)

	rateID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payment_fee_rates"`).
		WillReturnRows(rateRow(rateID, uuid.New(), 3.0, model.FeeRateRejectedBySchool))
	mock.ExpectRollback()

	_, err := svc.Approve(rateID, uuid.New(), constants.RoleSchoolAdmin)
	if !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestApproveMissingRate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFeeRateService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payment_fee_rates"`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	_, err := svc.Approve(uuid.New(), uuid.New(), constants.RoleSchoolAdmin)
	if !errors.Is(err, ErrRateNotFound) {
		t.Fatalf("expected ErrRateNotFound, got %v", err)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewFeeRateService(db)

	_, err := svc.Reject(uuid.New(), uuid.New(), constants.RoleSchoolAdmin, "   ")
	if !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
}

func TestRejectBySchoolRecordsReason(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFeeRateService(db)

	rateID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payment_fee_rates"`).
		WillReturnRows(rateRow(rateID, uuid.New(), 3.0, model.FeeRatePendingSchool))
	mock.ExpectExec(`UPDATE "payment_fee_rates" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rate, err := svc.Reject(rateID, uuid.New(), constants.RoleSchoolAdmin, "rate too high for our parents")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rate.PaymentFeeRateStatus != model.FeeRateRejectedBySchool {
		t.Fatalf("expected rejected_by_school, got %s", rate.PaymentFeeRateStatus)
	}
	if rate.PaymentFeeRateRejectionReason == nil || *rate.PaymentFeeRateRejectionReason != "rate too high for our parents" {
		t.Fatalf("rejection reason not recorded")
	}
}

func TestExpirePendingSweepsStaleProposals(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFeeRateService(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payment_fee_rates" SET`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := svc.ExpirePending(time.Now().Add(-30 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 expired, got %d", n)
	}
}
