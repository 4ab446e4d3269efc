package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentconfigdomain "github.com/reclaimlabs/recoveryhub/internal/paymentconfig/domain"
)

type CreatePaymentConfigRequest struct {
	Name   string `json:"name"`
	Method string `json:"method"`

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

type UpdatePaymentConfigRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`

	CryptoWalletAddress *string `json:"crypto_wallet_address"`
	CryptoNetwork       *string `json:"crypto_network"`
	CryptoCurrency      *string `json:"crypto_currency"`

	WireBankName      *string `json:"wire_bank_name"`
	WireAccountHolder *string `json:"wire_account_holder"`
	WireAccountNumber *string `json:"wire_account_number"`
	WireRoutingNumber *string `json:"wire_routing_number"`
	WireSwiftCode     *string `json:"wire_swift_code"`
	WireBankAddress   *string `json:"wire_bank_address"`
}

func (s *Server) CreatePaymentConfig(c *gin.Context) {
	userID, _ := currentUserID(c)

	var req CreatePaymentConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	cfg, err := s.paymentConfigSvc.Create(c.Request.Context(), paymentconfigdomain.CreateRequest{
		Name:      strings.TrimSpace(req.Name),
		Method:    paymentconfigdomain.Method(strings.TrimSpace(req.Method)),
		CreatedBy: userID,

		CryptoWalletAddress: strings.TrimSpace(req.CryptoWalletAddress),
		CryptoNetwork:       strings.TrimSpace(req.CryptoNetwork),
		CryptoCurrency:      strings.TrimSpace(req.CryptoCurrency),

		WireBankName:      strings.TrimSpace(req.WireBankName),
		WireAccountHolder: strings.TrimSpace(req.WireAccountHolder),
		WireAccountNumber: strings.TrimSpace(req.WireAccountNumber),
		WireRoutingNumber: strings.TrimSpace(req.WireRoutingNumber),
		WireSwiftCode:     strings.TrimSpace(req.WireSwiftCode),
		WireBankAddress:   strings.TrimSpace(req.WireBankAddress),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cfg)
}

func (s *Server) ListPaymentConfigs(c *gin.Context) {
	configs, err := s.paymentConfigSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": configs})
}

func (s *Server) ListActivePaymentConfigs(c *gin.Context) {
	configs, err := s.paymentConfigSvc.ListActive(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": configs})
}

func (s *Server) GetPaymentConfigByID(c *gin.Context) {
	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	cfg, err := s.paymentConfigSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

func (s *Server) UpdatePaymentConfig(c *gin.Context) {
	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req UpdatePaymentConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	cfg, err := s.paymentConfigSvc.Update(c.Request.Context(), paymentconfigdomain.UpdateRequest{
		ID:       id,
		Name:     req.Name,
		IsActive: req.IsActive,

		CryptoWalletAddress: req.CryptoWalletAddress,
		CryptoNetwork:       req.CryptoNetwork,
		CryptoCurrency:      req.CryptoCurrency,

		WireBankName:      req.WireBankName,
		WireAccountHolder: req.WireAccountHolder,
		WireAccountNumber: req.WireAccountNumber,
		WireRoutingNumber: req.WireRoutingNumber,
		WireSwiftCode:     req.WireSwiftCode,
		WireBankAddress:   req.WireBankAddress,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

func (s *Server) DeletePaymentConfig(c *gin.Context) {
	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.paymentConfigSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
