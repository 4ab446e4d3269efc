package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	casedomain "github.com/reclaimlabs/recoveryhub/internal/cases/domain"
)

type CreateCaseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CaseType    string `json:"case_type"`
}

type UpdateCaseStatusRequest struct {
	Status string `json:"status"`
}

type AddMessageRequest struct {
	Body string `json:"body"`
}

type AddProgressRequest struct {
	Stage string `json:"stage"`
	Note  string `json:"note"`
}

type listCasesQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

func (s *Server) CreateCase(c *gin.Context) {
	userID, _ := currentUserID(c)

	var req CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	kase, err := s.caseSvc.Create(c.Request.Context(), casedomain.CreateCaseRequest{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		CaseType:    strings.TrimSpace(req.CaseType),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, kase)
}

func (s *Server) ListCases(c *gin.Context) {
	userID, _ := currentUserID(c)

	var query listCasesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := casedomain.ListCaseRequest{
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if trimmed := strings.TrimSpace(query.Status); trimmed != "" {
		status := casedomain.Status(trimmed)
		if !status.Valid() {
			AbortWithError(c, casedomain.ErrInvalidStatus)
			return
		}
		req.Status = &status
	}

	// Clients only ever see their own cases.
	if !s.isStaff(c, userID) {
		req.UserID = userID
	}

	cases, err := s.caseSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cases})
}

func (s *Server) GetCaseByID(c *gin.Context) {
	userID, _ := currentUserID(c)

	caseID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	kase, err := s.caseVisible(c, caseID, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, kase)
}

func (s *Server) GetCaseByReference(c *gin.Context) {
	userID, _ := currentUserID(c)

	kase, err := s.caseSvc.GetByReference(c.Request.Context(), strings.TrimSpace(c.Param("reference")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if kase.UserID != userID && !s.isStaff(c, userID) {
		// Hide existence from non-owners.
		AbortWithError(c, casedomain.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, kase)
}

func (s *Server) UpdateCaseStatus(c *gin.Context) {
	caseID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req UpdateCaseStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	status := casedomain.Status(strings.TrimSpace(req.Status))
	kase, err := s.caseSvc.UpdateStatus(c.Request.Context(), caseID, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, kase)
}

func (s *Server) ListCaseMessages(c *gin.Context) {
	userID, _ := currentUserID(c)

	caseID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, err := s.caseVisible(c, caseID, userID); err != nil {
		AbortWithError(c, err)
		return
	}

	messages, err := s.caseSvc.ListMessages(c.Request.Context(), caseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": messages})
}

func (s *Server) AddCaseMessage(c *gin.Context) {
	userID, _ := currentUserID(c)

	caseID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, err := s.caseVisible(c, caseID, userID); err != nil {
		AbortWithError(c, err)
		return
	}

	var req AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	message, err := s.caseSvc.AddMessage(c.Request.Context(), casedomain.AddMessageRequest{
		CaseID:   caseID,
		SenderID: userID,
		Body:     req.Body,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

func (s *Server) MarkCaseMessagesRead(c *gin.Context) {
	userID, _ := currentUserID(c)

	caseID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, err := s.caseVisible(c, caseID, userID); err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.caseSvc.MarkRead(c.Request.Context(), caseID, userID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListCaseProgress(c *gin.Context) {
	userID, _ := currentUserID(c)

	caseID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, err := s.caseVisible(c, caseID, userID); err != nil {
		AbortWithError(c, err)
		return
	}

	updates, err := s.caseSvc.ListProgress(c.Request.Context(), caseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": updates})
}

func (s *Server) AddCaseProgress(c *gin.Context) {
	userID, _ := currentUserID(c)

	caseID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req AddProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update, err := s.caseSvc.AddProgress(c.Request.Context(), casedomain.AddProgressRequest{
		CaseID:   caseID,
		AuthorID: userID,
		Stage:    strings.TrimSpace(req.Stage),
		Note:     strings.TrimSpace(req.Note),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, update)
}
