package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"crece-pos/internal/database/models"
)

// Free-tier limits applied to organizations without an active subscription.
const (
	freeTierMaxProducts      = 25
	freeTierMaxSalesPerMonth = 100
)

// --- Helpers ---
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type BillingHandler struct {
	db            *gorm.DB
	webhookSecret string
	vipEmails     map[string]bool
	vipOrgs       map[int64]bool
}

func NewBillingHandler(db *gorm.DB, webhookSecret, vipEmails, vipOrgs string) *BillingHandler {
	h := &BillingHandler{
		db:            db,
		webhookSecret: webhookSecret,
		vipEmails:     make(map[string]bool),
		vipOrgs:       make(map[int64]bool),
	}
	for _, e := range strings.Split(vipEmails, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			h.vipEmails[e] = true
		}
	}
	for _, o := range strings.Split(vipOrgs, ",") {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if id, err := strconv.ParseInt(o, 10, 64); err == nil {
			h.vipOrgs[id] = true
		}
	}
	return h
}

// --- Views ---

type PlanView struct {
	ID               int32    `json:"id"`
	PlanName         string   `json:"plan_name"`
	MaxProducts      int32    `json:"max_products"`
	MaxSalesPerMonth int32    `json:"max_sales_per_month"`
	Features         []string `json:"features"`
	PriceMonthly     string   `json:"price_monthly"`
	PriceYearly      string   `json:"price_yearly"`
}

type SubscriptionView struct {
	ID               int64     `json:"id"`
	PlanID           int32     `json:"plan_id"`
	PlanName         string    `json:"plan_name,omitempty"`
	Status           string    `json:"status"`
	BillingCycle     string    `json:"billing_cycle"`
	CurrentPeriodEnd time.Time `json:"current_period_end"`
}

func planToView(p models.SubscriptionPlan) PlanView {
	return PlanView{
		ID:               p.ID,
		PlanName:         p.PlanName,
		MaxProducts:      p.MaxProducts,
		MaxSalesPerMonth: p.MaxSalesPerMonth,
		Features:         p.Features,
		PriceMonthly:     p.PriceMonthly,
		PriceYearly:      p.PriceYearly,
	}
}

func subscriptionToView(s models.Subscription) SubscriptionView {
	view := SubscriptionView{
		ID:               s.ID,
		PlanID:           s.PlanID,
		Status:           s.Status,
		BillingCycle:     s.BillingCycle,
		CurrentPeriodEnd: s.CurrentPeriodEnd,
	}
	if s.Plan != nil {
		view.PlanName = s.Plan.PlanName
	}
	return view
}

// --- Plans ---

type ListPlansResponse struct {
	Success bool       `json:"success"`
	Message *string    `json:"message,omitempty"`
	Plans   []PlanView `json:"plans"`
}

func (h *BillingHandler) ListPlans(ctx context.Context) (*ListPlansResponse, error) {
	var plans []models.SubscriptionPlan
	if err := h.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&plans).Error; err != nil {
		return &ListPlansResponse{Success: false, Message: strPtr("Database error")}, err
	}

	views := make([]PlanView, len(plans))
	for i, p := range plans {
		views[i] = planToView(p)
	}
	return &ListPlansResponse{Success: true, Plans: views}, nil
}

// --- Subscription ---

type SubscriptionResponse struct {
	Success      bool              `json:"success"`
	Message      *string           `json:"message,omitempty"`
	VIP          bool              `json:"vip"`
	Subscription *SubscriptionView `json:"subscription,omitempty"`
}

func (h *BillingHandler) GetSubscription(ctx context.Context, organizationID int64) (*SubscriptionResponse, error) {
	vip, err := h.isVIP(ctx, organizationID)
	if err != nil {
		return &SubscriptionResponse{Success: false, Message: strPtr("Database error")}, err
	}

	sub, err := h.activeSubscription(ctx, organizationID)
	if err != nil {
		return &SubscriptionResponse{Success: false, Message: strPtr("Database error")}, err
	}
	if sub == nil {
		return &SubscriptionResponse{Success: true, VIP: vip, Message: strPtr("No active subscription")}, nil
	}

	view := subscriptionToView(*sub)
	return &SubscriptionResponse{Success: true, VIP: vip, Subscription: &view}, nil
}

// activeSubscription returns the organization's active subscription, lazily
// expiring it when the paid period has run out.
func (h *BillingHandler) activeSubscription(ctx context.Context, organizationID int64) (*models.Subscription, error) {
	var sub models.Subscription
	err := h.db.WithContext(ctx).
		Where("organization_id = ? AND status = ?", organizationID, models.SubscriptionActive).
		Preload("Plan").
		Order("current_period_end desc").
		First(&sub).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if time.Now().After(sub.CurrentPeriodEnd) {
		if err := h.db.WithContext(ctx).Model(&sub).
			Update("status", models.SubscriptionExpired).Error; err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &sub, nil
}

func (h *BillingHandler) isVIP(ctx context.Context, organizationID int64) (bool, error) {
	if h.vipOrgs[organizationID] {
		return true, nil
	}
	if len(h.vipEmails) == 0 {
		return false, nil
	}

	var org models.Organization
	if err := h.db.WithContext(ctx).First(&org, organizationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	return h.vipEmails[strings.ToLower(org.OwnerEmail)], nil
}

// --- Plan limit gates ---

func (h *BillingHandler) CanCreateProduct(ctx context.Context, organizationID int64) (bool, string, error) {
	vip, err := h.isVIP(ctx, organizationID)
	if err != nil {
		return false, "", err
	}
	if vip {
		return true, "", nil
	}

	maxProducts := int32(freeTierMaxProducts)
	sub, err := h.activeSubscription(ctx, organizationID)
	if err != nil {
		return false, "", err
	}
	if sub != nil && sub.Plan != nil {
		maxProducts = sub.Plan.MaxProducts
	}
	if maxProducts == 0 {
		return true, "", nil
	}

	var count int64
	if err := h.db.WithContext(ctx).Model(&models.Producto{}).
		Where("organization_id = ? AND is_active = ?", organizationID, true).
		Count(&count).Error; err != nil {
		return false, "", err
	}
	if count >= int64(maxProducts) {
		msg := fmt.Sprintf("product limit reached (%d), upgrade your plan to add more", maxProducts)
		return false, msg, nil
	}
	return true, "", nil
}

func (h *BillingHandler) CanRecordSale(ctx context.Context, organizationID int64) (bool, string, error) {
	vip, err := h.isVIP(ctx, organizationID)
	if err != nil {
		return false, "", err
	}
	if vip {
		return true, "", nil
	}

	maxSales := int32(freeTierMaxSalesPerMonth)
	sub, err := h.activeSubscription(ctx, organizationID)
	if err != nil {
		return false, "", err
	}
	if sub != nil && sub.Plan != nil {
		maxSales = sub.Plan.MaxSalesPerMonth
	}
	if maxSales == 0 {
		return true, "", nil
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var count int64
	if err := h.db.WithContext(ctx).Model(&models.Venta{}).
		Where("organization_id = ? AND created_at >= ?", organizationID, monthStart).
		Count(&count).Error; err != nil {
		return false, "", err
	}
	if count >= int64(maxSales) {
		msg := fmt.Sprintf("monthly sale limit reached (%d), upgrade your plan to keep selling", maxSales)
		return false, msg, nil
	}
	return true, "", nil
}

// --- Payment intents ---

type CreatePaymentIntentRequest struct {
	PlanID       int32  `json:"plan_id"`
	BillingCycle string `json:"billing_cycle"`
}

type PaymentIntentView struct {
	ID           int64  `json:"id"`
	Reference    string `json:"reference"`
	Amount       string `json:"amount"`
	Status       string `json:"status"`
	BillingCycle string `json:"billing_cycle"`
}

type CreatePaymentIntentResponse struct {
	Success bool               `json:"success"`
	Message *string            `json:"message,omitempty"`
	Payment *PaymentIntentView `json:"payment,omitempty"`
}

// CreatePaymentIntent records a pending payment to be reconciled later by
// the gateway webhook. The reference embeds the organization id so the
// webhook fallback lookup can recover the tenant.
func (h *BillingHandler) CreatePaymentIntent(ctx context.Context, organizationID int64, req CreatePaymentIntentRequest) (*CreatePaymentIntentResponse, error) {
	cycle := req.BillingCycle
	if cycle != "yearly" {
		cycle = "monthly"
	}

	var plan models.SubscriptionPlan
	if err := h.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", req.PlanID, true).
		First(&plan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &CreatePaymentIntentResponse{Success: false, Message: strPtr("Plan not found")}, nil
		}
		return &CreatePaymentIntentResponse{Success: false, Message: strPtr("Database error")}, err
	}

	amount := plan.PriceMonthly
	if cycle == "yearly" {
		amount = plan.PriceYearly
	}

	payment := models.Payment{
		OrganizationID: organizationID,
		PlanID:         plan.ID,
		Reference:      fmt.Sprintf("SUB-%d-%d", organizationID, time.Now().Unix()),
		Amount:         amount,
		Status:         models.PaymentPending,
		BillingCycle:   cycle,
	}
	if err := h.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return &CreatePaymentIntentResponse{Success: false, Message: strPtr("Failed to create payment: " + err.Error())}, err
	}

	return &CreatePaymentIntentResponse{
		Success: true,
		Message: strPtr("Payment intent created"),
		Payment: &PaymentIntentView{
			ID:           payment.ID,
			Reference:    payment.Reference,
			Amount:       payment.Amount,
			Status:       payment.Status,
			BillingCycle: payment.BillingCycle,
		},
	}, nil
}
