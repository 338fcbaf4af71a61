package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"crece-pos/internal/database/models"
)

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	h := NewBillingHandler(nil, "topsecret", "", "")
	payload := []byte(`{"event":"transaction.updated"}`)

	valid := sign("topsecret", payload)
	if !h.VerifySignature(payload, valid) {
		t.Error("valid signature rejected")
	}
	if !h.VerifySignature(payload, strings.ToUpper(valid)) {
		t.Error("hex casing should not matter")
	}
	if h.VerifySignature(payload, sign("wrongsecret", payload)) {
		t.Error("signature from wrong secret accepted")
	}
	if h.VerifySignature([]byte(`{"event":"tampered"}`), valid) {
		t.Error("signature over different payload accepted")
	}
	if h.VerifySignature(payload, "") {
		t.Error("empty signature accepted")
	}
}

func TestVerifySignatureRequiresSecret(t *testing.T) {
	h := NewBillingHandler(nil, "", "", "")
	payload := []byte("{}")
	if h.VerifySignature(payload, sign("", payload)) {
		t.Error("verification must fail when no secret is configured")
	}
}

func TestOrganizationFromReference(t *testing.T) {
	cases := []struct {
		ref    string
		wantID int64
		wantOK bool
	}{
		{"SUB-42-1700000000", 42, true},
		{"SUB-7-99", 7, true},
		{"SUB-x-99", 0, false},
		{"PAY-42-1700000000", 0, false},
		{"SUB-42", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		id, ok := organizationFromReference(tc.ref)
		if id != tc.wantID || ok != tc.wantOK {
			t.Errorf("organizationFromReference(%q) = (%d, %v), want (%d, %v)",
				tc.ref, id, ok, tc.wantID, tc.wantOK)
		}
	}
}

func TestVIPAllowlistParsing(t *testing.T) {
	h := NewBillingHandler(nil, "s", " Owner@Example.com , otra@tienda.co ", "3, 9 ,")

	if !h.vipOrgs[3] || !h.vipOrgs[9] {
		t.Error("org allowlist not parsed")
	}
	if h.vipOrgs[4] {
		t.Error("unexpected org in allowlist")
	}
	if !h.vipEmails["owner@example.com"] || !h.vipEmails["otra@tienda.co"] {
		t.Error("emails should be trimmed and lowercased")
	}

	// Allowlisted org resolves without touching the database.
	vip, err := h.isVIP(context.Background(), 9)
	if err != nil {
		t.Fatalf("isVIP: %v", err)
	}
	if !vip {
		t.Error("allowlisted org not recognized as VIP")
	}
}

func TestFallbackMatchRequiresTenant(t *testing.T) {
	// Built with a nil database: any query would panic, proving the
	// tenant-less fallback never reaches the pending-payment lookup.
	h := NewBillingHandler(nil, "s", "", "")

	payment, err := h.matchPayment(context.Background(), WebhookTransaction{
		ID:        "",
		Status:    "APPROVED",
		Reference: "",
	})
	if err != nil {
		t.Fatalf("matchPayment: %v", err)
	}
	if payment != nil {
		t.Error("webhook without a parseable organization reference must not match any payment")
	}
}

func TestApprovedRedeliveryDoesNotExtendSubscription(t *testing.T) {
	// Nil database again: a second APPROVED delivery for an already-approved
	// payment must return before any subscription read or write.
	h := NewBillingHandler(nil, "s", "", "")

	err := h.applyApproval(context.Background(), &models.Payment{
		ID:             1,
		OrganizationID: 7,
		Status:         models.PaymentApproved,
		BillingCycle:   "monthly",
	}, "tx-123")
	if err != nil {
		t.Errorf("re-delivered approval should be a no-op, got %v", err)
	}
}

func TestProcessWebhookIgnoresOtherEvents(t *testing.T) {
	h := NewBillingHandler(nil, "s", "", "")
	err := h.ProcessWebhook(context.Background(), WebhookEnvelope{Event: "transaction.created"})
	if err == nil {
		t.Error("expected error for ignored event type")
	}
}

func TestProcessWebhookRequiresIdentifiers(t *testing.T) {
	h := NewBillingHandler(nil, "s", "", "")
	err := h.ProcessWebhook(context.Background(), WebhookEnvelope{Event: "transaction.updated"})
	if err == nil {
		t.Error("expected error for transaction without id or reference")
	}
}
