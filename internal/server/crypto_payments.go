package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	cryptodomain "github.com/reclaimlabs/recoveryhub/internal/cryptopayment/domain"
)

type SubmitCryptoPaymentRequest struct {
	InvoiceID string  `json:"invoice_id"`
	TxHash    string  `json:"tx_hash"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Network   string  `json:"network"`
}

type listCryptoPaymentsQuery struct {
	InvoiceID string `form:"invoice_id"`
	Status    string `form:"status"`
	Limit     int    `form:"limit"`
}

func (s *Server) SubmitCryptoPayment(c *gin.Context) {
	userID, _ := currentUserID(c)

	var req SubmitCryptoPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil || invoiceID == 0 {
		AbortWithError(c, cryptodomain.ErrInvalidInvoice)
		return
	}

	// A client only claims payments against invoices billed to them.
	inv, err := s.invoiceSvc.GetByID(c.Request.Context(), invoiceID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if inv.UserID != userID && !s.isStaff(c, userID) {
		AbortWithError(c, cryptodomain.ErrInvalidInvoice)
		return
	}

	payment, err := s.cryptoPaymentSvc.Submit(c.Request.Context(), cryptodomain.SubmitRequest{
		InvoiceID:   invoiceID,
		SubmittedBy: userID,
		TxHash:      strings.TrimSpace(req.TxHash),
		Amount:      req.Amount,
		Currency:    strings.TrimSpace(req.Currency),
		Network:     strings.TrimSpace(req.Network),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

func (s *Server) ListCryptoPayments(c *gin.Context) {
	userID, _ := currentUserID(c)

	var query listCryptoPaymentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := cryptodomain.ListRequest{Limit: query.Limit}
	if trimmed := strings.TrimSpace(query.InvoiceID); trimmed != "" {
		invoiceID, err := snowflake.ParseString(trimmed)
		if err != nil || invoiceID == 0 {
			AbortWithError(c, newValidationError("invoice_id", "invalid_invoice_id", "invalid invoice id"))
			return
		}
		req.InvoiceID = invoiceID
	}
	if trimmed := strings.TrimSpace(query.Status); trimmed != "" {
		status := cryptodomain.ConfirmationStatus(trimmed)
		req.Status = &status
	}

	payments, err := s.cryptoPaymentSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if !s.isStaff(c, userID) {
		own := payments[:0]
		for _, payment := range payments {
			if payment.SubmittedBy == userID {
				own = append(own, payment)
			}
		}
		payments = own
	}

	c.JSON(http.StatusOK, gin.H{"data": payments})
}

func (s *Server) GetCryptoPaymentByID(c *gin.Context) {
	userID, _ := currentUserID(c)

	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payment, err := s.cryptoPaymentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if payment.SubmittedBy != userID && !s.isStaff(c, userID) {
		AbortWithError(c, cryptodomain.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, payment)
}

func (s *Server) VerifyCryptoPayment(c *gin.Context) {
	userID, _ := currentUserID(c)

	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payment, err := s.cryptoPaymentSvc.Verify(c.Request.Context(), id, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}
