package service

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	feemodel "shulepay_backend/internals/features/fees/model"
	"shulepay_backend/internals/features/payment/payments/model"
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

func paymentRow(paymentID, studentID, parentID, planID uuid.UUID, amount float64, status model.PaymentStatus, installmentNo int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"payment_id", "payment_student_id", "payment_parent_id", "payment_plan_id",
		"payment_amount", "payment_method", "payment_status",
		"payment_transaction_reference", "payment_installment_number",
	}).AddRow(
		paymentID.String(), studentID.String(), parentID.String(), planID.String(),
		amount, "mpesa", string(status), "SHP-abc12345", installmentNo,
	)
}

// A payment with no plan and no stored label takes the caller-supplied
// fallback before degrading to "Full Payment".
func TestApplyConfirmationUsesFallbackLabel(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReconcilerService(db)

	paymentID := uuid.New()

	// claim wins
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// reload: no plan, no installment label
	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"payment_id", "payment_student_id", "payment_parent_id",
			"payment_amount", "payment_method", "payment_status",
			"payment_transaction_reference",
		}).AddRow(
			paymentID.String(), uuid.NewString(), uuid.NewString(),
			100.0, "mpesa", string(model.PaymentCompleted), "SHP-abc12345",
		))

	// ledger step: transaction append only (no plan → no assignment rollup)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "payment_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"payment_transaction_id"}).AddRow(uuid.NewString()))
	// commission snapshot degrades: student lookup finds nothing
	mock.ExpectQuery(`SELECT \* FROM "students"`).
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}))
	mock.ExpectCommit()

	fallback := "Exam Fees"
	res, err := svc.ApplyConfirmation(paymentID, []byte(`{"output_ResponseCode":"INS-0"}`), &fallback)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Transaction == nil || res.Transaction.PaymentTransactionInstallmentLabel != "Exam Fees" {
		t.Fatalf("expected the fallback label on the transaction, got %+v", res.Transaction)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplyConfirmationReplayIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReconcilerService(db)

	paymentID := uuid.New()
	studentID := uuid.New()
	parentID := uuid.New()
	planID := uuid.New()

	// claim loses: payment already completed
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(paymentID, studentID, parentID, planID, 100, model.PaymentCompleted, 1))

	// transaction already appended by the first application
	mock.ExpectQuery(`SELECT \* FROM "payment_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"payment_transaction_id", "payment_transaction_payment_id",
			"payment_transaction_installment_label", "payment_transaction_amount_paid",
			"payment_transaction_status",
		}).AddRow(uuid.NewString(), paymentID.String(), "Installment 1", 100.0, "completed"))

	res, err := svc.ApplyConfirmation(paymentID, []byte(`{"output_TransactionID":"tx1"}`), nil)
	if err != nil {
		t.Fatalf("replay must succeed: %v", err)
	}
	if !res.AlreadyApplied {
		t.Fatalf("expected AlreadyApplied")
	}
	if res.Transaction == nil || res.Transaction.PaymentTransactionAmountPaid != 100 {
		t.Fatalf("expected the original transaction back, got %+v", res.Transaction)
	}

	// crucially: no ledger writes happened
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected statements: %v", err)
	}
}

func TestApplyConfirmationHappyPath(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReconcilerService(db)

	paymentID := uuid.New()
	studentID := uuid.New()
	parentID := uuid.New()
	planID := uuid.New()
	structureID := uuid.New()
	assignmentID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(paymentID, studentID, parentID, planID, 300, model.PaymentCompleted, 1))

	// ledger transaction
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payment_plans"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"payment_plan_id", "payment_plan_fee_structure_id", "payment_plan_name",
			"payment_plan_type", "payment_plan_installments",
		}).AddRow(planID.String(), structureID.String(), "Two installments", "installment",
			[]byte(`[{"installment_number":1,"amount":300,"label":"Installment 1"},{"installment_number":2,"amount":200,"label":"Installment 2"}]`)))

	mock.ExpectQuery(`SELECT \* FROM "student_fee_assignments" .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{
			"student_fee_assignment_id", "student_fee_assignment_student_id",
			"student_fee_assignment_fee_structure_id", "student_fee_assignment_total_due",
			"student_fee_assignment_paid_amount", "student_fee_assignment_status",
		}).AddRow(assignmentID.String(), studentID.String(), structureID.String(), 500.0, 0.0, "active"))

	mock.ExpectQuery(`INSERT INTO "payment_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"payment_transaction_id"}).AddRow(uuid.NewString()))

	mock.ExpectExec(`UPDATE "student_fee_assignments" SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	// commission snapshot: student lookup misses, snapshot skipped with warning
	mock.ExpectQuery(`SELECT \* FROM "students"`).
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}))

	mock.ExpectCommit()

	res, err := svc.ApplyConfirmation(paymentID, []byte(`{"output_TransactionID":"4vmngadv"}`), nil)
	if err != nil {
		t.Fatalf("apply confirmation: %v", err)
	}
	if res.AlreadyApplied || res.PartialSuccess {
		t.Fatalf("unexpected flags: %+v", res)
	}
	if res.Transaction == nil || res.Transaction.PaymentTransactionInstallmentLabel != "Installment 1" {
		t.Fatalf("installment label not resolved: %+v", res.Transaction)
	}
	if res.Transaction.PaymentTransactionGatewayTxID == nil || *res.Transaction.PaymentTransactionGatewayTxID != "4vmngadv" {
		t.Fatalf("gateway tx id not extracted")
	}
	if res.Assignment == nil || res.Assignment.StudentFeeAssignmentPaidAmount != 300 {
		t.Fatalf("rollup not applied: %+v", res.Assignment)
	}
	if res.Assignment.StudentFeeAssignmentStatus != feemodel.AssignmentActive {
		t.Fatalf("assignment flipped early: %v", res.Assignment.StudentFeeAssignmentStatus)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestApplyConfirmationFlipsFullyPaid(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReconcilerService(db)

	paymentID := uuid.New()
	studentID := uuid.New()
	parentID := uuid.New()
	planID := uuid.New()
	structureID := uuid.New()
	assignmentID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(paymentID, studentID, parentID, planID, 200, model.PaymentCompleted, 2))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payment_plans"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"payment_plan_id", "payment_plan_fee_structure_id", "payment_plan_type", "payment_plan_installments",
		}).AddRow(planID.String(), structureID.String(), "installment",
			[]byte(`[{"installment_number":1,"amount":300,"label":"Installment 1"},{"installment_number":2,"amount":200,"label":"Installment 2"}]`)))

	// already paid 300 of 500; this 200 closes it out
	mock.ExpectQuery(`SELECT \* FROM "student_fee_assignments" .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{
			"student_fee_assignment_id", "student_fee_assignment_student_id",
			"student_fee_assignment_fee_structure_id", "student_fee_assignment_total_due",
			"student_fee_assignment_paid_amount", "student_fee_assignment_status",
		}).AddRow(assignmentID.String(), studentID.String(), structureID.String(), 500.0, 300.0, "active"))

	mock.ExpectQuery(`INSERT INTO "payment_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"payment_transaction_id"}).AddRow(uuid.NewString()))

	mock.ExpectExec(`UPDATE "student_fee_assignments" SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(`SELECT \* FROM "students"`).
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}))

	mock.ExpectCommit()

	res, err := svc.ApplyConfirmation(paymentID, nil, nil)
	if err != nil {
		t.Fatalf("apply confirmation: %v", err)
	}
	if res.Assignment == nil || res.Assignment.StudentFeeAssignmentPaidAmount != 500 {
		t.Fatalf("rollup wrong: %+v", res.Assignment)
	}
	if res.Assignment.StudentFeeAssignmentStatus != feemodel.AssignmentFullyPaid {
		t.Fatalf("expected fully_paid, got %v", res.Assignment.StudentFeeAssignmentStatus)
	}
	if res.Transaction.PaymentTransactionInstallmentLabel != "Installment 2" {
		t.Fatalf("label = %q", res.Transaction.PaymentTransactionInstallmentLabel)
	}
}

func TestApplyConfirmationPartialSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReconcilerService(db)

	paymentID := uuid.New()
	studentID := uuid.New()
	parentID := uuid.New()
	planID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(paymentID, studentID, parentID, planID, 100, model.PaymentCompleted, 1))

	// ledger step dies after the claim committed
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payment_plans"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	res, err := svc.ApplyConfirmation(paymentID, nil, nil)
	if err != nil {
		t.Fatalf("partial failure must not be a hard error: %v", err)
	}
	if !res.PartialSuccess {
		t.Fatalf("expected PartialSuccess, got %+v", res)
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("partial success must carry a warning")
	}
	if res.Payment == nil || res.Payment.PaymentStatus != model.PaymentCompleted {
		t.Fatalf("payment must stay completed: %+v", res.Payment)
	}
}

func TestApplyConfirmationDuplicateInsertDoesNotDoubleCount(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReconcilerService(db)

	paymentID := uuid.New()
	studentID := uuid.New()
	parentID := uuid.New()
	planID := uuid.New()
	structureID := uuid.New()
	assignmentID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(paymentID, studentID, parentID, planID, 100, model.PaymentCompleted, 1))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payment_plans"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"payment_plan_id", "payment_plan_fee_structure_id", "payment_plan_type", "payment_plan_installments",
		}).AddRow(planID.String(), structureID.String(), "installment",
			[]byte(`[{"installment_number":1,"amount":100,"label":"Installment 1"}]`)))

	mock.ExpectQuery(`SELECT \* FROM "student_fee_assignments" .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{
			"student_fee_assignment_id", "student_fee_assignment_student_id",
			"student_fee_assignment_fee_structure_id", "student_fee_assignment_total_due",
			"student_fee_assignment_paid_amount", "student_fee_assignment_status",
		}).AddRow(assignmentID.String(), studentID.String(), structureID.String(), 100.0, 0.0, "active"))

	// a concurrent replay appended the row between our claim and this insert
	mock.ExpectQuery(`INSERT INTO "payment_transactions"`).
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "uq_payment_transactions_payment"`))
	mock.ExpectCommit()

	res, err := svc.ApplyConfirmation(paymentID, nil, nil)
	if err != nil {
		t.Fatalf("duplicate insert must be a no-op: %v", err)
	}
	if !res.AlreadyApplied {
		t.Fatalf("expected AlreadyApplied")
	}

	// no assignment UPDATE may have run — the rollup must not double-count
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected statements: %v", err)
	}
}

func TestApplyConfirmationFailedPaymentIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReconcilerService(db)

	paymentID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(paymentID, uuid.New(), uuid.New(), uuid.New(), 100, model.PaymentFailed, 1))

	_, err := svc.ApplyConfirmation(paymentID, nil, nil)
	if !errors.Is(err, ErrPaymentAlreadyFailed) {
		t.Fatalf("expected ErrPaymentAlreadyFailed, got %v", err)
	}
}
