package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"crece-pos/internal/database/models"
)

// pendingMatchWindow bounds the fallback lookup: a webhook with no usable
// reference only matches a pending payment created in the last 10 minutes.
const pendingMatchWindow = 10 * time.Minute

type WebhookTransaction struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

type WebhookData struct {
	Transaction WebhookTransaction `json:"transaction"`
}

type WebhookEnvelope struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

// VerifySignature checks the HMAC-SHA256 hex signature of the raw payload.
// Gateways differ on hex casing, so the compare is case-insensitive.
func (h *BillingHandler) VerifySignature(payload []byte, signature string) bool {
	if h.webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return strings.EqualFold(expected, signature)
}

// ProcessWebhook reconciles a gateway transaction onto the locally recorded
// payment intent. Errors are for the caller's logs only; the HTTP layer
// acknowledges the delivery regardless.
func (h *BillingHandler) ProcessWebhook(ctx context.Context, env WebhookEnvelope) error {
	if env.Event != "transaction.updated" {
		return fmt.Errorf("ignoring event %q", env.Event)
	}
	txn := env.Data.Transaction
	if txn.ID == "" && txn.Reference == "" {
		return fmt.Errorf("webhook transaction has no id or reference")
	}

	payment, err := h.matchPayment(ctx, txn)
	if err != nil {
		return err
	}
	if payment == nil {
		return fmt.Errorf("no payment intent matches transaction %q (reference %q)", txn.ID, txn.Reference)
	}

	switch strings.ToUpper(txn.Status) {
	case "APPROVED":
		return h.applyApproval(ctx, payment, txn.ID)
	case "DECLINED", "ERROR":
		return h.markPayment(ctx, payment, models.PaymentFailed, txn.ID)
	case "VOIDED":
		return h.markPayment(ctx, payment, models.PaymentCancelled, txn.ID)
	}
	return fmt.Errorf("unknown transaction status %q for payment %d", txn.Status, payment.ID)
}

// matchPayment resolves the intent by exact reference, then exact
// transaction id, then partial transaction id, then the organization's most
// recent pending intent inside the match window. First hit wins.
func (h *BillingHandler) matchPayment(ctx context.Context, txn WebhookTransaction) (*models.Payment, error) {
	var payment models.Payment

	if txn.Reference != "" {
		err := h.db.WithContext(ctx).
			Where("reference = ?", txn.Reference).
			Order("created_at desc").
			First(&payment).Error
		if err == nil {
			return &payment, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	if txn.ID != "" {
		err := h.db.WithContext(ctx).
			Where("transaction_id = ?", txn.ID).
			Order("created_at desc").
			First(&payment).Error
		if err == nil {
			return &payment, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}

		err = h.db.WithContext(ctx).
			Where("transaction_id LIKE ?", "%"+txn.ID+"%").
			Order("created_at desc").
			First(&payment).Error
		if err == nil {
			return &payment, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	// The recent-pending fallback is tenant-scoped; without an organization
	// recovered from the reference the event is dropped rather than matched
	// against another tenant's intent.
	orgID, ok := organizationFromReference(txn.Reference)
	if !ok {
		return nil, nil
	}
	cutoff := time.Now().Add(-pendingMatchWindow)
	err := h.db.WithContext(ctx).
		Where("organization_id = ? AND status = ? AND created_at >= ?", orgID, models.PaymentPending, cutoff).
		Order("created_at desc").First(&payment).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// organizationFromReference parses the SUB-{org}-{ts} reference shape used
// by CreatePaymentIntent.
func organizationFromReference(reference string) (int64, bool) {
	parts := strings.Split(reference, "-")
	if len(parts) != 3 || parts[0] != "SUB" {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (h *BillingHandler) markPayment(ctx context.Context, payment *models.Payment, status, transactionID string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if transactionID != "" {
		updates["transaction_id"] = transactionID
	}
	if err := h.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", payment.ID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("update payment %d: %w", payment.ID, err)
	}
	log.Printf("payment %d marked %s (txn %s)", payment.ID, status, transactionID)
	return nil
}

// applyApproval activates or extends the organization's subscription. An
// already-approved payment is left alone so a re-delivered webhook cannot
// extend the period twice.
func (h *BillingHandler) applyApproval(ctx context.Context, payment *models.Payment, transactionID string) error {
	if payment.Status == models.PaymentApproved {
		log.Printf("payment %d already approved, skipping duplicate webhook", payment.ID)
		return nil
	}

	now := time.Now()
	periodEnd := now.AddDate(0, 1, 0)
	if payment.BillingCycle == "yearly" {
		periodEnd = now.AddDate(1, 0, 0)
	}

	var sub models.Subscription
	err := h.db.WithContext(ctx).
		Where("organization_id = ? AND status = ?", payment.OrganizationID, models.SubscriptionActive).
		Order("current_period_end desc").
		First(&sub).Error
	switch {
	case err == nil:
		if err := h.db.WithContext(ctx).Model(&sub).Updates(map[string]interface{}{
			"plan_id":            payment.PlanID,
			"billing_cycle":      payment.BillingCycle,
			"current_period_end": periodEnd,
			"updated_at":         now,
		}).Error; err != nil {
			return fmt.Errorf("extend subscription %d: %w", sub.ID, err)
		}
	case err == gorm.ErrRecordNotFound:
		sub = models.Subscription{
			OrganizationID:   payment.OrganizationID,
			PlanID:           payment.PlanID,
			Status:           models.SubscriptionActive,
			BillingCycle:     payment.BillingCycle,
			CurrentPeriodEnd: periodEnd,
		}
		if err := h.db.WithContext(ctx).Create(&sub).Error; err != nil {
			return fmt.Errorf("create subscription for org %d: %w", payment.OrganizationID, err)
		}
	default:
		return fmt.Errorf("load subscription for org %d: %w", payment.OrganizationID, err)
	}

	updates := map[string]interface{}{
		"status":          models.PaymentApproved,
		"subscription_id": sub.ID,
		"updated_at":      now,
	}
	if transactionID != "" {
		updates["transaction_id"] = transactionID
	}
	if err := h.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", payment.ID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("approve payment %d: %w", payment.ID, err)
	}

	if err := h.db.WithContext(ctx).Model(&models.Organization{}).
		Where("id = ?", payment.OrganizationID).
		Update("subscription_id", sub.ID).Error; err != nil {
		return fmt.Errorf("link organization %d to subscription %d: %w", payment.OrganizationID, sub.ID, err)
	}

	log.Printf("payment %d approved, subscription %d active until %s",
		payment.ID, sub.ID, periodEnd.Format(time.RFC3339))
	return nil
}
