package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/reclaimlabs/recoveryhub/internal/invoice/domain"
	"github.com/reclaimlabs/recoveryhub/internal/providers/pdf"
)

type CreateInvoiceRequest struct {
	CaseID    string  `json:"case_id"`
	UserID    string  `json:"user_id"`
	AmountDue float64 `json:"amount_due"`
	Currency  string  `json:"currency"`
	DueDate   string  `json:"due_date"`

	CryptoWalletAddress string `json:"crypto_wallet_address"`
	CryptoNetwork       string `json:"crypto_network"`
	CryptoCurrency      string `json:"crypto_currency"`

	WireBankName      string `json:"wire_bank_name"`
	WireAccountHolder string `json:"wire_account_holder"`
	WireAccountNumber string `json:"wire_account_number"`
	WireRoutingNumber string `json:"wire_routing_number"`
	WireSwiftCode     string `json:"wire_swift_code"`
	WireBankAddress   string `json:"wire_bank_address"`
}

type UpdateInvoiceStatusRequest struct {
	Status string `json:"status"`
}

type listInvoicesQuery struct {
	CaseID string `form:"case_id"`
	Status string `form:"status"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	userID, _ := currentUserID(c)

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dueDate, err := parseOptionalTime(req.DueDate)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due date"))
		return
	}

	if code := strings.TrimSpace(req.Currency); code != "" && !s.converter.Supported(code) {
		AbortWithError(c, newValidationError("currency", "invalid_currency", "unsupported currency"))
		return
	}

	inv, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		CaseID:    strings.TrimSpace(req.CaseID),
		UserID:    strings.TrimSpace(req.UserID),
		AmountDue: req.AmountDue,
		Currency:  strings.TrimSpace(req.Currency),
		DueDate:   dueDate,

		CryptoWalletAddress: strings.TrimSpace(req.CryptoWalletAddress),
		CryptoNetwork:       strings.TrimSpace(req.CryptoNetwork),
		CryptoCurrency:      strings.TrimSpace(req.CryptoCurrency),

		WireBankName:      strings.TrimSpace(req.WireBankName),
		WireAccountHolder: strings.TrimSpace(req.WireAccountHolder),
		WireAccountNumber: strings.TrimSpace(req.WireAccountNumber),
		WireRoutingNumber: strings.TrimSpace(req.WireRoutingNumber),
		WireSwiftCode:     strings.TrimSpace(req.WireSwiftCode),
		WireBankAddress:   strings.TrimSpace(req.WireBankAddress),

		CreatedBy: userID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, inv)
}

func (s *Server) ListInvoices(c *gin.Context) {
	userID, _ := currentUserID(c)

	var query listInvoicesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := invoicedomain.ListInvoiceRequest{
		CaseID: strings.TrimSpace(query.CaseID),
	}
	if trimmed := strings.TrimSpace(query.Status); trimmed != "" {
		status := invoicedomain.Status(trimmed)
		if !status.Valid() {
			AbortWithError(c, invoicedomain.ErrInvalidStatus)
			return
		}
		req.Status = &status
	}

	if !s.isStaff(c, userID) {
		req.UserID = userID.String()
	}

	invoices, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	inv, err := s.visibleInvoice(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	inv, err := s.visibleInvoice(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.pdfProvider == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	billTo, err := s.authsvc.GetUser(c.Request.Context(), inv.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	caseRef := ""
	if kase, err := s.caseSvc.GetByID(c.Request.Context(), inv.CaseID); err == nil {
		caseRef = kase.Reference
	}

	data := pdf.InvoiceData{
		FirmName:  s.cfg.AppName,
		FirmEmail: s.cfg.SMTP.From,

		InvoiceNumber: inv.ID.String(),
		CaseReference: caseRef,
		IssueDate:     inv.CreatedAt.Format("2006-01-02"),
		Status:        string(inv.Status),

		BillToName:  billTo.DisplayName,
		BillToEmail: billTo.Email,

		AmountDue:           fmt.Sprintf("%.2f %s", inv.AmountDue, inv.Currency),
		PaymentInstructions: inv.PaymentInstructions,
	}
	if inv.DueDate != nil {
		data.DueDate = inv.DueDate.Format("2006-01-02")
	}

	reader, err := s.pdfProvider.GenerateInvoice(c.Request.Context(), data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", inv.ID.String()))
	c.Data(http.StatusOK, "application/pdf", content)
}

func (s *Server) UpdateInvoiceStatus(c *gin.Context) {
	var req UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	inv, err := s.invoiceSvc.UpdateStatus(c.Request.Context(), c.Param("id"), invoicedomain.Status(strings.TrimSpace(req.Status)))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	if err := s.invoiceSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) visibleInvoice(c *gin.Context) (*invoicedomain.Invoice, error) {
	userID, _ := currentUserID(c)

	inv, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if inv.UserID != userID && !s.isStaff(c, userID) {
		return nil, invoicedomain.ErrNotFound
	}
	return inv, nil
}
