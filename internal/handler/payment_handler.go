package handler

import (
	"net/http"
	"strconv"

	"dream/config"
	"dream/internal/middleware"
	"dream/internal/models"
	"dream/internal/repository"
	"dream/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PaymentGateway is the outbound side of the payment integration: building
// the signed order string handed to the mobile SDK.
type PaymentGateway interface {
	CreateAppPayOrder(subject, body string, totalAmount decimal.Decimal, outTradeNo string) (string, string, error)
}

type PaymentHandler struct {
	points     *config.PointsConfig
	gateway    PaymentGateway
	orders     *repository.OrderRepository
	settlement *service.SettlementService
}

func NewPaymentHandler(points *config.PointsConfig, gateway PaymentGateway, orders *repository.OrderRepository, settlement *service.SettlementService) *PaymentHandler {
	return &PaymentHandler{points: points, gateway: gateway, orders: orders, settlement: settlement}
}

type createOrderRequest struct {
	Subject     string          `json:"subject" binding:"required"`
	Body        string          `json:"body"`
	TotalAmount decimal.Decimal `json:"total_amount" binding:"required"`
	OutTradeNo  string          `json:"out_trade_no"`
}

// CreateOrder builds the Alipay order string and records the pending order.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.TotalAmount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "total_amount must be positive"})
		return
	}

	orderString, outTradeNo, err := h.gateway.CreateAppPayOrder(req.Subject, req.Body, req.TotalAmount, req.OutTradeNo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order creation failed"})
		return
	}

	order := &models.Order{
		UserID:      middleware.GetUserID(c),
		OutTradeNo:  outTradeNo,
		Subject:     req.Subject,
		Body:        req.Body,
		TotalAmount: req.TotalAmount,
		PointsRate:  h.points.DefaultRate,
	}
	if err := h.orders.Create(order); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_string": orderString,
		"out_trade_no": outTradeNo,
		"total_amount": req.TotalAmount,
		"subject":      req.Subject,
	})
}

// Notify is the gateway's async notification endpoint. The body must be the
// literal "success" or "fail"; the gateway retries on "fail".
func (h *PaymentHandler) Notify(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusOK, service.NotifyReject)
		return
	}
	params := make(map[string]string, len(c.Request.PostForm))
	for k, v := range c.Request.PostForm {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	c.String(http.StatusOK, h.settlement.HandleNotify(params))
}

func (h *PaymentHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetByOutTradeNo(c.Param("out_trade_no"))
	if err != nil {
		respondError(c, err)
		return
	}
	if order.UserID != middleware.GetUserID(c) {
		u := middleware.GetUser(c)
		if u == nil || !u.IsSuperuser {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
	}
	c.JSON(http.StatusOK, order)
}

func (h *PaymentHandler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	orders, total, err := h.orders.ListByUser(middleware.GetUserID(c), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders":    orders,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
