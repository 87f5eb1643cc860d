package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"shulepay_backend/internals/features/payment/payments/model"
)

func TestCreatePendingPaymentRejectsNonPositiveAmount(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewLedgerService(db)

	if _, err := svc.CreatePendingPayment(uuid.New(), uuid.New(), 0, "mpesa", nil, InstallmentContext{}); err == nil {
		t.Fatalf("expected error for zero amount")
	}
	if _, err := svc.CreatePendingPayment(uuid.New(), uuid.New(), -50, "mpesa", nil, InstallmentContext{}); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestCreatePendingPaymentDefaults(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewLedgerService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"payment_id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	p, err := svc.CreatePendingPayment(uuid.New(), uuid.New(), 150, "", nil, InstallmentContext{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.PaymentStatus != model.PaymentPending {
		t.Fatalf("new payment must start pending, got %s", p.PaymentStatus)
	}
	if p.PaymentMethod != "mpesa" {
		t.Fatalf("empty method must default to mpesa, got %q", p.PaymentMethod)
	}
	if !strings.HasPrefix(p.PaymentTransactionRef, "SHP-") {
		t.Fatalf("unexpected transaction reference %q", p.PaymentTransactionRef)
	}
}

func TestRecordGatewayResultRejectionFailsPayment(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewLedgerService(db)

	paymentID := uuid.New()
	studentID := uuid.New()
	parentID := uuid.New()
	planID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRow(paymentID, studentID, parentID, planID, 150, model.PaymentFailed, 1))

	p, err := svc.RecordGatewayResult(paymentID, false, []byte(`{"output_ResponseCode":"INS-13"}`))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if p.PaymentStatus != model.PaymentFailed {
		t.Fatalf("rejected collection must fail the payment, got %s", p.PaymentStatus)
	}
}

func TestRecordGatewayResultOnTerminalPayment(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewLedgerService(db)

	// pending-only condition matches no row
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := svc.RecordGatewayResult(uuid.New(), false, []byte(`{}`))
	if !errors.Is(err, ErrPaymentNotPending) {
		t.Fatalf("expected ErrPaymentNotPending, got %v", err)
	}
}

func TestExtractGatewayTxID(t *testing.T) {
	if got := extractGatewayTxID([]byte(`{"output_TransactionID":"4vmngadv"}`)); got != "4vmngadv" {
		t.Fatalf("got %q", got)
	}
	if got := extractGatewayTxID([]byte(`not-json`)); got != "" {
		t.Fatalf("expected empty for garbage, got %q", got)
	}
	if got := extractGatewayTxID([]byte(`{}`)); got != "" {
		t.Fatalf("expected empty when absent, got %q", got)
	}
}
