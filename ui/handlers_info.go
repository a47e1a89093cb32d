package ui

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleInfo describes the service, its formulas and endpoints
func (s *Server) HandleInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "Harmonized Mind — Hybrid Resonance Engine",
			"description": "Cross-domain hypothesis generation with resonance scoring, an ethical gate and stress testing",
			"version":     Version,
			"algorithm": gin.H{
				"resonance_frequency": "ω_res = (1/D_fractal) · Σ(q_k/m_k)",
				"mind_foam":           "amplitudes α = softmax(ω_res) over scored candidates",
				"success_metric":      "P_total = 1 − Π(1 − P_d)",
				"gamma":               "γ = Γ_max · tanh(k · (coherence − violations·(|coherence| + margin)))",
				"gate":                "accepted iff P_total ≥ min_p_total and Γ_foam > min_gamma_foam",
				"complexity":          "O(d²) candidates for d domains",
			},
			"history": s.service.HistoryEnabled(),
			"exports": s.service.Formats(),
			"endpoints": gin.H{
				"POST /api/run-gra":            "run the engine (prompt form {prompt, lang} or structured form {task, goal, constraints, domains, lang})",
				"POST /api/analyses":           "run the structured form and return the history-oriented result",
				"GET /api/analyses":            "list stored runs (q, domain, limit)",
				"GET /api/analyses/:id":        "load one stored run",
				"DELETE /api/analyses/:id":     "delete one stored run",
				"GET /api/analyses/:id/export": "download a stored run (format)",
				"GET /api/domains":             "list the domain catalog",
			},
		})
	}
}

type domainItem struct {
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	NameEN  string   `json:"nameEN"`
	Aliases []string `json:"aliases,omitempty"`
	BaseP   float64  `json:"baseP"`
}

// HandleDomains lists the catalog in canonical order
func (s *Server) HandleDomains() gin.HandlerFunc {
	return func(c *gin.Context) {
		all := s.catalog.All()
		items := make([]domainItem, 0, len(all))
		for _, d := range all {
			items = append(items, domainItem{Key: d.Key, Name: d.Name, NameEN: d.NameEN, Aliases: d.Aliases, BaseP: d.BaseP})
		}
		c.JSON(http.StatusOK, gin.H{"domains": items})
	}
}
