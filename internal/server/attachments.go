package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	attachmentdomain "github.com/reclaimlabs/recoveryhub/internal/attachment/domain"
)

func (s *Server) UploadCaseAttachments(c *gin.Context) {
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

	form, err := c.MultipartForm()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	headers := form.File["files"]
	files := make([]attachmentdomain.File, 0, len(headers))
	closers := make([]io.Closer, 0, len(headers))
	defer func() {
		for _, closer := range closers {
			_ = closer.Close()
		}
	}()

	for _, header := range headers {
		opened, err := header.Open()
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		closers = append(closers, opened)
		files = append(files, attachmentdomain.File{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Reader:      opened,
		})
	}

	results, err := s.attachmentSvc.UploadAll(c.Request.Context(), attachmentdomain.UploadAllRequest{
		CaseID:     caseID,
		UploadedBy: userID,
		Files:      files,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]gin.H, 0, len(results))
	for _, result := range results {
		item := gin.H{"file_name": result.FileName}
		if result.Err != nil {
			item["error"] = result.Err.Error()
		} else {
			item["attachment"] = result.Attachment
		}
		out = append(out, item)
	}

	c.JSON(http.StatusMultiStatus, gin.H{"results": out})
}

func (s *Server) ListCaseAttachments(c *gin.Context) {
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

	attachments, err := s.attachmentSvc.List(c.Request.Context(), caseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": attachments})
}

func (s *Server) DownloadAttachment(c *gin.Context) {
	userID, _ := currentUserID(c)

	attachmentID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	attachment, err := s.attachmentSvc.GetByID(c.Request.Context(), attachmentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, err := s.caseVisible(c, attachment.CaseID, userID); err != nil {
		AbortWithError(c, err)
		return
	}

	reader, attachment, err := s.attachmentSvc.Open(c.Request.Context(), attachmentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer reader.Close()

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	c.DataFromReader(http.StatusOK, attachment.Size, contentType, reader, nil)
}
