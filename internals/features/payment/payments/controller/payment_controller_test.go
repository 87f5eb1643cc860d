package controller

import (
	"testing"

	"github.com/google/uuid"

	"shulepay_backend/internals/features/payment/gateway"
	"shulepay_backend/internals/features/payment/payments/model"
)

func TestNewInitiateResponseCarriesGatewayTransactionID(t *testing.T) {
	payment := &model.PaymentModel{
		PaymentID:             uuid.New(),
		PaymentTransactionRef: "SHP-abc12345",
	}
	result := &gateway.CollectionResult{
		Success:       true,
		ResponseCode:  "INS-0",
		TransactionID: "4vmngadv",
	}

	resp := newInitiateResponse(payment, result)
	if resp.TransactionID != "4vmngadv" {
		t.Fatalf("transaction_id must be the provider id, got %q", resp.TransactionID)
	}
	if resp.TransactionReference != "SHP-abc12345" {
		t.Fatalf("transaction_reference must be our reference, got %q", resp.TransactionReference)
	}
	if !resp.Success || resp.PaymentID != payment.PaymentID {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestNewInitiateResponseOnRejection(t *testing.T) {
	payment := &model.PaymentModel{
		PaymentID:             uuid.New(),
		PaymentTransactionRef: "SHP-def67890",
	}
	result := &gateway.CollectionResult{
		Success:             false,
		ResponseCode:        "INS-13",
		ResponseDescription: "Invalid Shortcode Used",
	}

	resp := newInitiateResponse(payment, result)
	if resp.Success {
		t.Fatalf("rejection must surface success=false")
	}
	if resp.TransactionID != "" {
		t.Fatalf("no provider id on rejection, got %q", resp.TransactionID)
	}
	if resp.ResponseDescription != "Invalid Shortcode Used" {
		t.Fatalf("provider description lost: %+v", resp)
	}
}
