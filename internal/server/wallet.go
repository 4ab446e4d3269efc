package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	walletdomain "github.com/reclaimlabs/recoveryhub/internal/wallet/domain"
)

type ConnectWalletRequest struct {
	Address   string `json:"address"`
	Provider  string `json:"provider"`
	Signature string `json:"signature"`
}

func (s *Server) WalletConnectConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.walletSvc.Config())
}

func (s *Server) ConnectWallet(c *gin.Context) {
	userID, _ := currentUserID(c)

	var req ConnectWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	connection, err := s.walletSvc.Connect(c.Request.Context(), walletdomain.ConnectRequest{
		UserID:    userID,
		Address:   strings.TrimSpace(req.Address),
		Provider:  strings.TrimSpace(req.Provider),
		Signature: strings.TrimSpace(req.Signature),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, connection)
}

func (s *Server) ListWalletConnections(c *gin.Context) {
	userID, _ := currentUserID(c)

	connections, err := s.walletSvc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": connections})
}
