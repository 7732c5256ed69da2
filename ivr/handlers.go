package ivr

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/ivrdesk/pkg/callflow"
	"github.com/papercomputeco/ivrdesk/pkg/llm"
	"github.com/papercomputeco/ivrdesk/pkg/transcript"
)

// handleCall answers one platform round trip. The response is always a
// plain-text directive, even when something failed underneath.
func (s *Server) handleCall(c *fiber.Ctx) error {
	req := callflow.Request{
		CallID:    formValue(c, "ApiCallId", "callId", "call_id"),
		Phone:     formValue(c, "ApiPhone", "phone", "caller_id"),
		Recording: c.FormValue("record_file"),
		Hangup:    c.FormValue("hangup") == "yes",
	}

	resp := s.controller.Handle(c.UserContext(), req)

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(resp.Directive)
}

// formValue returns the first non-empty value among keys, searching the query
// string and then the form body.
func formValue(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		if v := c.FormValue(k); v != "" {
			return v
		}
	}
	return ""
}

func (s *Server) activeConversations(c *fiber.Ctx) int {
	n, err := s.store.Len(c.UserContext())
	if err != nil {
		s.logger.Warn("failed to count sessions", zap.Error(err))
	}
	return n
}

// handleHealth reports liveness and the number of active calls.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":              "ok",
		"time":                time.Now().UTC().Format(time.RFC3339),
		"activeConversations": s.activeConversations(c),
		"config": fiber.Map{
			"organization": s.config.Organization,
			"aiProvider":   s.config.Provider,
		},
	})
}

// handleStatus renders the human-readable status page.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	var buf bytes.Buffer
	err := statusPage.Execute(&buf, statusData{
		Organization:  s.config.Organization,
		PlatformPhone: s.config.PlatformPhone,
		Provider:      s.config.Provider,
		Active:        s.activeConversations(c),
	})
	if err != nil {
		s.logger.Error("failed to render status page", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("internal error")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

// handleListTranscripts returns every archived conversation.
func (s *Server) handleListTranscripts(c *fiber.Ctx) error {
	histories, skipped, err := transcript.Histories(c.UserContext(), s.archive)
	if err != nil {
		s.logger.Error("failed to list transcripts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list transcripts"})
	}
	for _, h := range skipped {
		s.logger.Warn("failed to build transcript for leaf", zap.String("hash", h))
	}

	return c.JSON(fiber.Map{
		"count":       len(histories),
		"transcripts": histories,
	})
}

// handleGetTranscript returns the conversation ending at :hash.
func (s *Server) handleGetTranscript(c *fiber.Ctx) error {
	hash := c.Params("hash")
	if hash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "hash parameter required"})
	}

	history, err := transcript.BuildHistory(c.UserContext(), s.archive, hash)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "transcript not found"})
	}

	return c.JSON(history)
}
