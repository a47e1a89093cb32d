package ui

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/internal/errors"
	"github.com/qqewq/harmonized-mind/internal/resonance"
)

// HandleRunGRA serves both request forms. The prompt form answers with the success/blocked
// shape; the structured form answers with the history-oriented variant.
func (s *Server) HandleRunGRA() gin.HandlerFunc {
	return func(c *gin.Context) {
		req, lang, ok := s.bindRun(c)
		if !ok {
			return
		}

		if req.IsPrompt() {
			run, err := s.service.AnalyzePrompt(c.Request.Context(), req.Prompt, lang)
			if err != nil {
				s.respondRunError(c, lang, err)
				return
			}
			s.logger.Info("[API] run-gra prompt run %s: %s", run.ID, run.Gate.Decision)
			c.JSON(http.StatusOK, s.assembler.Respond(run))
			return
		}

		s.runStructured(c, req, lang)
	}
}

// HandleCreateAnalysis accepts only the structured form
func (s *Server) HandleCreateAnalysis() gin.HandlerFunc {
	return func(c *gin.Context) {
		req, lang, ok := s.bindRun(c)
		if !ok {
			return
		}
		s.runStructured(c, req, lang)
	}
}

func (s *Server) runStructured(c *gin.Context, req RunRequest, lang hre.Lang) {
	run, err := s.service.Analyze(c.Request.Context(), req.Structured(lang))
	if err != nil {
		s.respondRunError(c, lang, err)
		return
	}
	s.logger.Info("[API] structured run %s: %s (%d hypotheses)", run.ID, run.Gate.Decision, len(run.Hypotheses))
	c.JSON(http.StatusOK, s.assembler.Detailed(run))
}

// bindRun decodes and validates the body. On failure it has already responded.
func (s *Server) bindRun(c *gin.Context) (RunRequest, hre.Lang, bool) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("[API] invalid run body: %v", err)
		s.respondInvalid(c, hre.LangRU, "request body must be a JSON object")
		return req, "", false
	}
	lang, ok := hre.ParseLang(req.Lang)
	if !ok {
		lang = hre.LangRU
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondInvalid(c, lang, validationReason(err))
		return req, "", false
	}
	return req, lang, true
}

func (s *Server) respondInvalid(c *gin.Context, lang hre.Lang, reason string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":     hre.ResponseBlocked,
		"message":    resonance.InvalidInputMessage(lang, reason),
		"error_code": errors.CodeInvalidInput,
	})
}

// respondRunError keeps run failures in the blocked shape without leaking internals
func (s *Server) respondRunError(c *gin.Context, lang hre.Lang, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)

	var invalid *hre.InvalidInputError
	switch {
	case stderrors.As(err, &invalid):
		s.respondInvalid(c, lang, strings.TrimPrefix(invalid.Error(), "invalid input: "))
		return
	case status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout:
		s.logger.Error("[API] run failed: %v", err)
		c.JSON(status, gin.H{
			"status":     hre.ResponseBlocked,
			"message":    resonance.InternalErrorMessage(lang),
			"error_code": code,
		})
		return
	}
	s.logger.Warn("[API] run failed: %v", err)
	message := "analysis did not finish in time"
	if status != http.StatusGatewayTimeout {
		message = http.StatusText(status)
	}
	c.JSON(status, gin.H{
		"status":     hre.ResponseBlocked,
		"message":    message,
		"error_code": code,
	})
}

func validationReason(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
