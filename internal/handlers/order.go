package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/asadk95/estore/internal/services"
)

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type submitPaymentRequest struct {
	TransactionID string `json:"transactionId"`
	PaymentProof  string `json:"paymentProof"`
}

func GetMyOrders(orders *services.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := subject(c)
		if !ok {
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := orders.ListForUser(ctx, user.UserID, strings.TrimSpace(c.Query("status")))
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	}
}

func GetOrder(orders *services.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := subject(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := orders.Get(ctx, user, id)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": order})
	}
}

func CreateOrder(orders *services.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := subject(c)
		if !ok {
			return
		}
		var in services.CreateOrderInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondValidationError(c, err)
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := orders.Create(ctx, user.UserID, in)
		if err != nil {
			respondWithError(c, err)
			return
		}
		body := gin.H{"message": "Order placed successfully", "order": order}
		if order.PaymentDetails.BankDetails != nil {
			body["bankDetails"] = order.PaymentDetails.BankDetails
		}
		c.JSON(http.StatusCreated, body)
	}
}

func CancelOrder(orders *services.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := subject(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := orders.Cancel(ctx, user, id)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "order": order})
	}
}

func SubmitPayment(orders *services.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := subject(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req submitPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := orders.SubmitPayment(ctx, user, id, strings.TrimSpace(req.TransactionID), strings.TrimSpace(req.PaymentProof))
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Payment proof submitted, pending verification", "order": order})
	}
}

func GetAllOrders(orders *services.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		list, stats, err := orders.ListAll(ctx, strings.TrimSpace(c.Query("status")))
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list, "stats": stats})
	}
}

func UpdateOrderStatus(orders *services.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := orders.UpdateStatus(ctx, id, strings.TrimSpace(req.Status), strings.TrimSpace(req.Note))
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": order})
	}
}
