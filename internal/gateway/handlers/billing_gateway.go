package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	billinghandler "crece-pos/internal/services/billing/handler"
)

type BillingHTTPHandler struct {
	billing *billinghandler.BillingHandler
}

func NewBillingHTTPHandler(billing *billinghandler.BillingHandler) *BillingHTTPHandler {
	return &BillingHTTPHandler{billing: billing}
}

func (h *BillingHTTPHandler) ListPlans(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.billing.ListPlans(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Billing service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Plans retrieved successfully", resp.Plans))
}

func (h *BillingHTTPHandler) GetSubscription(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.billing.GetSubscription(ctx, orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Billing service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse(msgOr(resp.Message, "Subscription retrieved successfully"), map[string]interface{}{
		"vip":          resp.VIP,
		"subscription": resp.Subscription,
	}))
}

func (h *BillingHTTPHandler) CreatePaymentIntent(c *gin.Context) {
	orgID, ok := mustOrgID(c)
	if !ok {
		return
	}

	var req billinghandler.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.billing.CreatePaymentIntent(ctx, orgID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Billing service error"))
		return
	}
	if !resp.Success {
		c.JSON(http.StatusBadRequest, errorResponse(msgOr(resp.Message, "Failed to create payment")))
		return
	}

	c.JSON(http.StatusCreated, successResponse(msgOr(resp.Message, "Payment intent created"), resp.Payment))
}

// PaymentWebhook always acknowledges with 200 so the gateway does not
// retry; failures only reach the logs.
func (h *BillingHTTPHandler) PaymentWebhook(c *gin.Context) {
	ack := func() {
		c.JSON(http.StatusOK, gin.H{"received": true})
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("webhook: failed to read body: %v", err)
		ack()
		return
	}

	signature := c.GetHeader("X-Signature")
	if !h.billing.VerifySignature(body, signature) {
		log.Printf("webhook: invalid signature")
		ack()
		return
	}

	var env billinghandler.WebhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		log.Printf("webhook: malformed payload: %v", err)
		ack()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := h.billing.ProcessWebhook(ctx, env); err != nil {
		log.Printf("webhook: %v", err)
	}
	ack()
}
