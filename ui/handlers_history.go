package ui

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/internal/errors"
	"github.com/qqewq/harmonized-mind/ports"
)

// historyItem is one row of the history list
type historyItem struct {
	ID             string          `json:"id"`
	Task           string          `json:"task"`
	Goal           string          `json:"goal"`
	Domains        []string        `json:"domains"`
	Lang           hre.Lang        `json:"lang"`
	GateDecision   hre.GateOutcome `json:"gate_decision"`
	GammaFoam      *float64        `json:"Gamma_foam,omitempty"`
	PTotal         *float64        `json:"P_total,omitempty"`
	Recommendation string          `json:"recommendation,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

func toHistoryItem(run *hre.AnalysisRun) historyItem {
	item := historyItem{
		ID:             run.ID.String(),
		Task:           run.Task,
		Goal:           run.Goal,
		Domains:        run.Domains,
		Lang:           run.Lang,
		GateDecision:   run.Gate.Decision,
		Recommendation: run.Recommendation,
		CreatedAt:      run.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if sig := run.Gate.Signals; sig != nil {
		foam, p := sig.GammaFoam, sig.PTotal
		item.GammaFoam, item.PTotal = &foam, &p
	}
	return item
}

// HandleListAnalyses lists stored runs: ?q=&domain=&limit=
func (s *Server) HandleListAnalyses() gin.HandlerFunc {
	return func(c *gin.Context) {
		var q HistoryQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			s.respondError(c, errors.InvalidInput("limit must be an integer"))
			return
		}
		if err := s.validate.Struct(q); err != nil {
			s.respondError(c, errors.InvalidInput(validationReason(err)))
			return
		}

		filter := ports.AnalysisFilter{Query: q.Query, Domain: q.Domain, Limit: q.Limit}
		runs, err := s.service.ListAnalyses(c.Request.Context(), filter)
		if err != nil {
			s.respondError(c, err)
			return
		}

		items := make([]historyItem, 0, len(runs))
		for _, run := range runs {
			items = append(items, toHistoryItem(run))
		}
		c.JSON(http.StatusOK, gin.H{
			"analyses": items,
			"count":    len(items),
			"limit":    filter.EffectiveLimit(),
		})
	}
}

// HandleGetAnalysis returns the history-oriented variant of one stored run
func (s *Server) HandleGetAnalysis() gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := s.service.GetAnalysis(c.Request.Context(), c.Param("id"))
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, s.assembler.Detailed(run))
	}
}

// HandleDeleteAnalysis removes one stored run
func (s *Server) HandleDeleteAnalysis() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.service.DeleteAnalysis(c.Request.Context(), c.Param("id")); err != nil {
			s.respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// HandleExportAnalysis downloads one stored run: ?format=json|txt|md|html|xlsx
func (s *Server) HandleExportAnalysis() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := s.service.Export(c.Request.Context(), c.Param("id"), c.Query("format"))
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+res.FileName+`"`)
		c.Header("Content-Length", strconv.Itoa(len(res.Data)))
		c.Data(http.StatusOK, res.ContentType, res.Data)
	}
}

// respondError writes {status:"error", message, error_code} for non-run routes
func (s *Server) respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		message = http.StatusText(status)
	} else {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			message = appErr.Message
		}
	}
	c.JSON(status, gin.H{
		"status":     "error",
		"message":    message,
		"error_code": errors.GetCode(err),
	})
}
