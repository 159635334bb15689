package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitledger/internal/domain"
	"fitledger/internal/money"
)

type orderItemRequest struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type createOrderRequest struct {
	Amount   string             `json:"amount" binding:"required"`
	Currency string             `json:"currency" binding:"required"`
	ItemType string             `json:"item_type" binding:"required"`
	Items    []orderItemRequest `json:"items" binding:"required"`
}

// normalizeItemType maps the API's item-type names onto the domain's.
// Clients say "set" for historical reasons; the ledger says "bundle".
func normalizeItemType(t string) (domain.ItemType, bool) {
	switch t {
	case "set", "bundle":
		return domain.ItemTypeBundle, true
	case "course":
		return domain.ItemTypeCourse, true
	case "mixed":
		return domain.ItemTypeMixed, true
	case "":
		return "", true
	default:
		return "", false
	}
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cartType, ok := normalizeItemType(req.ItemType)
	if !ok || cartType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown item_type " + req.ItemType})
		return
	}

	items := make([]domain.CartItem, 0, len(req.Items))
	for _, it := range req.Items {
		itemType, ok := normalizeItemType(it.Type)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown item type " + it.Type})
			return
		}
		items = append(items, domain.CartItem{ID: it.ID, Type: itemType})
	}

	total, err := money.ParseValue(req.Amount, req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderID, err := s.orders.CreateOrder(c.Request.Context(), domain.CheckoutRequest{
		BuyerID:  c.GetString(buyerIDKey),
		Items:    items,
		CartType: cartType,
		Total:    total,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order_id": orderID})
}

type recordResponse struct {
	ItemID    string     `json:"item_id"`
	ItemType  string     `json:"item_type"`
	Amount    string     `json:"amount"`
	Currency  string     `json:"currency"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (s *Server) capturePayment(c *gin.Context) {
	result, err := s.captures.CapturePayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	records := make([]recordResponse, 0, len(result.Records))
	for _, r := range result.Records {
		records = append(records, recordResponse{
			ItemID:    r.ItemID,
			ItemType:  string(r.ItemType),
			Amount:    money.Amount{MinorUnits: r.AmountMinor, Currency: r.Currency}.Value(),
			Currency:  r.Currency,
			ExpiresAt: r.ExpiresAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"id":               result.OrderID,
		"capture_id":       result.CaptureID,
		"status":           result.Status,
		"payer_id":         result.PayerID,
		"already_captured": result.AlreadyCaptured,
		"records":          records,
		"failed_items":     result.FailedItems,
	})
}

func (s *Server) checkAccess(c *gin.Context) {
	buyerID := c.GetString(buyerIDKey)
	granted := s.access.HasAccess(c.Request.Context(), buyerID, c.Param("itemId"))
	c.JSON(http.StatusOK, gin.H{"has_access": granted})
}

// writeError maps the error taxonomy onto statuses. Gateway bodies pass
// through verbatim; support reads the gateway's words, not a paraphrase.
func (s *Server) writeError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	var gatewayErr *domain.GatewayError
	var authErr *domain.AuthError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, domain.ErrUnsupportedCurrency):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &gatewayErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": gatewayErr.Body, "status": gatewayErr.StatusCode})
	case errors.As(err, &authErr):
		s.log.Error("gateway credential failure", slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable"})
	case errors.Is(err, domain.ErrMissingOrderEncoding), errors.Is(err, domain.ErrMalformedOrderEncoding):
		// Funds captured, attribution failed. The capture service already
		// logged the details for reconciliation.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
