package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"hr-assistant/internal/app"
	"hr-assistant/internal/transport/http/response"
)

// maxUploadBytes caps a single analysis upload.
const maxUploadBytes = 20 << 20

type AnalyzeHandler struct {
	analyzeService *app.AnalyzeService
}

func NewAnalyzeHandler(analyzeService *app.AnalyzeService) *AnalyzeHandler {
	return &AnalyzeHandler{analyzeService: analyzeService}
}

// Analyze accepts one PDF (multipart field "file") and a mode form field of
// summary or keywords.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	if _, ok := getUserIDFromContext(c); !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	mode := c.PostForm("mode")
	if mode == "" {
		mode = app.AnalyzeModeSummary
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing uploaded file")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
		return
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only pdf uploads are supported")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "open upload failed")
		return
	}
	defer file.Close()

	result, err := h.analyzeService.AnalyzePDF(c.Request.Context(), file, mode)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUnsupportedMode), errors.Is(err, app.ErrEmptyDocument):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "analyze document failed")
		}
		return
	}

	response.OK(c, result)
}
