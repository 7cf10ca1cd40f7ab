// Copyright 2025 Parlance Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parlancehq/parlance/core"
	"github.com/parlancehq/parlance/query"
	"github.com/parlancehq/parlance/storage"
)

// maxUploadBytes caps the accepted transcript size.
const maxUploadBytes = 32 << 20 // 32 MiB

type uploadResponse struct {
	DocumentID string      `json:"document_id"`
	Status     core.Status `json:"status"`
}

type statusResponse struct {
	DocumentID   string      `json:"document_id"`
	Status       core.Status `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

type documentSummary struct {
	DocumentID   string      `json:"document_id"`
	Title        string      `json:"title"`
	Date         string      `json:"date,omitempty"`
	Participants []string    `json:"participants,omitempty"`
	Status       core.Status `json:"status"`
	IngestedAt   string      `json:"ingested_at,omitempty"`
}

type queryRequest struct {
	Question string       `json:"question" binding:"required"`
	Filters  queryFilters `json:"filters"`
}

type queryFilters struct {
	Date           string `json:"date"`
	TitleSubstring string `json:"title_substring"`
	Participant    string `json:"participant"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleUpload accepts a multipart transcript upload and dispatches
// ingestion. The response carries the record's current status: PENDING for a
// fresh submission, READY when content-hash idempotence short-circuited.
func (s *Server) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		s.respondError(c, core.ErrValidation, "missing file field")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		s.respondError(c, core.ErrValidation, "file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.respondError(c, err, "could not open upload")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		s.respondError(c, err, "could not read upload")
		return
	}

	documentID, err := s.coordinator.Submit(c.Request.Context(), raw, fileHeader.Filename)
	if err != nil {
		s.respondError(c, err, err.Error())
		return
	}

	record, err := s.coordinator.GetStatus(c.Request.Context(), documentID)
	if err != nil {
		s.respondError(c, err, err.Error())
		return
	}
	c.JSON(http.StatusAccepted, uploadResponse{DocumentID: documentID, Status: record.Status})
}

func (s *Server) handleStatus(c *gin.Context) {
	record, err := s.coordinator.GetStatus(c.Request.Context(), c.Param("document_id"))
	if err != nil {
		s.respondError(c, err, "document not found")
		return
	}
	c.JSON(http.StatusOK, statusResponse{
		DocumentID:   record.DocumentID,
		Status:       record.Status,
		ErrorMessage: record.ErrorMessage,
	})
}

func (s *Server) handleListDocuments(c *gin.Context) {
	filter := storage.DocumentFilter{
		Date:           c.Query("date"),
		TitleSubstring: c.Query("title_substring"),
		Participant:    c.Query("participant"),
	}
	records, err := s.coordinator.ListDocuments(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err, err.Error())
		return
	}

	summaries := make([]documentSummary, len(records))
	for i, r := range records {
		summaries[i] = documentSummary{
			DocumentID:   r.DocumentID,
			Title:        r.TitleNormalized,
			Date:         r.Date,
			Participants: r.Participants,
			Status:       r.Status,
			IngestedAt:   r.IngestedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"documents": summaries})
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, core.ErrValidation, "question is required")
		return
	}

	filter := storage.DocumentFilter{
		Date:           req.Filters.Date,
		TitleSubstring: req.Filters.TitleSubstring,
		Participant:    req.Filters.Participant,
	}
	answer, err := s.service.Ask(c.Request.Context(), req.Question, filter)
	if err != nil {
		message := err.Error()
		if errors.Is(err, query.ErrUnsafeQuery) {
			message = query.InputRejectionAnswer
		}
		s.respondError(c, err, message)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// respondError maps domain errors onto HTTP statuses.
func (s *Server) respondError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrQuery):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrExternalService):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, errorResponse{Error: message})
}
