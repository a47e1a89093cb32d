package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"github.com/qqewq/harmonized-mind/domain/core"
	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/internal/errors"
	"github.com/qqewq/harmonized-mind/ports"
)

// AnalysisRepositoryImpl implements AnalysisRepository on sqlx. Queries use ? placeholders
// rebound for the driver, so the same code serves PostgreSQL and SQLite.
type AnalysisRepositoryImpl struct {
	db       *sqlx.DB
	pageSize int
}

// listPageSize is how many rows a filtered listing decodes per round trip.
const listPageSize = 100

// NewAnalysisRepository creates a new sqlx analysis repository
func NewAnalysisRepository(db *sqlx.DB) ports.AnalysisRepository {
	return &AnalysisRepositoryImpl{db: db, pageSize: listPageSize}
}

type analysisRow struct {
	ID             string          `db:"id"`
	Fingerprint    string          `db:"fingerprint"`
	Task           string          `db:"task"`
	Goal           string          `db:"goal"`
	Constraints    string          `db:"constraints"`
	Domains        string          `db:"domains"`
	DomainKeys     string          `db:"domain_keys"`
	Lang           string          `db:"lang"`
	Prompt         string          `db:"prompt"`
	GateDecision   string          `db:"gate_decision"`
	GateReason     string          `db:"gate_reason"`
	Gate           string          `db:"gate"`
	GammaFoam      sql.NullFloat64 `db:"gamma_foam"`
	PTotal         sql.NullFloat64 `db:"p_total"`
	DFractal       float64         `db:"d_fractal"`
	TopAmplitude   float64         `db:"top_amplitude"`
	Recommendation string          `db:"recommendation"`
	Solution       string          `db:"solution"`
	Hypotheses     string          `db:"hypotheses"`
	StressTest     sql.NullString  `db:"stress_test"`
	Foam           string          `db:"foam"`
	CreatedAt      int64           `db:"created_at"`
}

const analysisColumns = `id, fingerprint, task, goal, constraints, domains, domain_keys, lang, prompt,
	gate_decision, gate_reason, gate, gamma_foam, p_total, d_fractal, top_amplitude,
	recommendation, solution, hypotheses, stress_test, foam, created_at`

// SaveAnalysis upserts a run
func (r *AnalysisRepositoryImpl) SaveAnalysis(ctx context.Context, run *hre.AnalysisRun) error {
	row, err := toRow(run)
	if err != nil {
		return errors.Wrapf(err, "failed to encode analysis %s", run.ID)
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO analyses (`+analysisColumns+`) VALUES (
			:id, :fingerprint, :task, :goal, :constraints, :domains, :domain_keys, :lang, :prompt,
			:gate_decision, :gate_reason, :gate, :gamma_foam, :p_total, :d_fractal, :top_amplitude,
			:recommendation, :solution, :hypotheses, :stress_test, :foam, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			gate_decision = EXCLUDED.gate_decision,
			gate_reason = EXCLUDED.gate_reason,
			gate = EXCLUDED.gate,
			gamma_foam = EXCLUDED.gamma_foam,
			p_total = EXCLUDED.p_total,
			recommendation = EXCLUDED.recommendation,
			solution = EXCLUDED.solution,
			hypotheses = EXCLUDED.hypotheses,
			stress_test = EXCLUDED.stress_test,
			foam = EXCLUDED.foam`, row)
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to save analysis %s", run.ID), err)
	}
	return nil
}

// GetAnalysis loads one run by id
func (r *AnalysisRepositoryImpl) GetAnalysis(ctx context.Context, id core.RunID) (*hre.AnalysisRun, error) {
	var row analysisRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+analysisColumns+` FROM analyses WHERE id = ?`), id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("analysis", id.String())
	}
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to load analysis %s", id), err)
	}
	return fromRow(row)
}

// ListAnalyses returns runs newest first. An ASCII query is narrowed in SQL; the exact
// query and domain match is applied after decoding, since domains are stored as JSON and
// SQLite's LOWER only folds ASCII. Filtered listings walk the table in keyset pages and stop
// as soon as the limit is reached.
func (r *AnalysisRepositoryImpl) ListAnalyses(ctx context.Context, filter ports.AnalysisFilter) ([]*hre.AnalysisRun, error) {
	limit := filter.EffectiveLimit()
	filtered := strings.TrimSpace(filter.Query) != "" || strings.TrimSpace(filter.Domain) != ""

	pageSize := limit
	if filtered {
		pageSize = max(limit, r.pageSize)
	}
	where, whereArgs := prefilter(filter)

	results := make([]*hre.AnalysisRun, 0, limit)
	var cursor *analysisRow
	for {
		conds := append([]string(nil), where...)
		args := append([]interface{}(nil), whereArgs...)
		if cursor != nil {
			conds = append(conds, `(created_at < ? OR (created_at = ? AND id < ?))`)
			args = append(args, cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		}
		query := `SELECT ` + analysisColumns + ` FROM analyses`
		if len(conds) > 0 {
			query += ` WHERE ` + strings.Join(conds, ` AND `)
		}
		query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
		args = append(args, pageSize)

		var rows []analysisRow
		if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
			return nil, errors.DatabaseError("failed to list analyses", err)
		}

		for _, row := range rows {
			run, err := fromRow(row)
			if err != nil {
				return nil, err
			}
			if !filter.Matches(run) {
				continue
			}
			results = append(results, run)
			if len(results) == limit {
				return results, nil
			}
		}
		if len(rows) < pageSize {
			return results, nil
		}
		cursor = &rows[len(rows)-1]
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// prefilter returns SQL conditions that can only drop rows filter.Matches would also drop.
func prefilter(filter ports.AnalysisFilter) ([]string, []interface{}) {
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	if q == "" || !isASCII(q) {
		return nil, nil
	}
	pattern := "%" + likeEscaper.Replace(q) + "%"
	return []string{`(LOWER(task) LIKE ? ESCAPE '\' OR LOWER(goal) LIKE ? ESCAPE '\')`},
		[]interface{}{pattern, pattern}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// DeleteAnalysis removes a run by id
func (r *AnalysisRepositoryImpl) DeleteAnalysis(ctx context.Context, id core.RunID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM analyses WHERE id = ?`), id.String())
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to delete analysis %s", id), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewNotFoundError("analysis", id.String())
	}
	return nil
}

func toRow(run *hre.AnalysisRun) (analysisRow, error) {
	row := analysisRow{
		ID:             run.ID.String(),
		Fingerprint:    run.Fingerprint.String(),
		Task:           run.Task,
		Goal:           run.Goal,
		Constraints:    run.Constraints,
		Lang:           string(run.Lang),
		Prompt:         run.Prompt,
		GateDecision:   string(run.Gate.Decision),
		GateReason:     run.Gate.Reason,
		DFractal:       run.DFractal,
		TopAmplitude:   run.TopAmplitude,
		Recommendation: run.Recommendation,
		Solution:       run.Solution,
		CreatedAt:      run.CreatedAt.UnixMilli(),
	}
	if sig := run.Gate.Signals; sig != nil {
		row.GammaFoam = sql.NullFloat64{Float64: sig.GammaFoam, Valid: true}
		row.PTotal = sql.NullFloat64{Float64: sig.PTotal, Valid: true}
	}

	var err error
	if row.Domains, err = encodeJSON(nonNil(run.Domains)); err != nil {
		return row, err
	}
	if row.DomainKeys, err = encodeJSON(nonNil(run.DomainKeys)); err != nil {
		return row, err
	}
	if row.Gate, err = encodeJSON(run.Gate); err != nil {
		return row, err
	}
	hypotheses := run.Hypotheses
	if hypotheses == nil {
		hypotheses = []hre.Hypothesis{}
	}
	if row.Hypotheses, err = encodeJSON(hypotheses); err != nil {
		return row, err
	}
	if row.Foam, err = encodeJSON(run.Foam); err != nil {
		return row, err
	}
	if run.StressTest != nil {
		st, err := encodeJSON(run.StressTest)
		if err != nil {
			return row, err
		}
		row.StressTest = sql.NullString{String: st, Valid: true}
	}
	return row, nil
}

func fromRow(row analysisRow) (*hre.AnalysisRun, error) {
	run := &hre.AnalysisRun{
		ID:             core.RunID(row.ID),
		Fingerprint:    core.Hash(row.Fingerprint),
		Task:           row.Task,
		Goal:           row.Goal,
		Constraints:    row.Constraints,
		Lang:           hre.Lang(row.Lang),
		Prompt:         row.Prompt,
		DFractal:       row.DFractal,
		TopAmplitude:   row.TopAmplitude,
		Recommendation: row.Recommendation,
		Solution:       row.Solution,
		CreatedAt:      time.UnixMilli(row.CreatedAt).UTC(),
	}
	decode := func(field, raw string, v interface{}) error {
		if err := json.Unmarshal([]byte(raw), v); err != nil {
			return errors.DatabaseError(fmt.Sprintf("corrupt %s in analysis %s", field, row.ID), err)
		}
		return nil
	}
	if err := decode("domains", row.Domains, &run.Domains); err != nil {
		return nil, err
	}
	if err := decode("domain_keys", row.DomainKeys, &run.DomainKeys); err != nil {
		return nil, err
	}
	if err := decode("gate", row.Gate, &run.Gate); err != nil {
		return nil, err
	}
	if err := decode("hypotheses", row.Hypotheses, &run.Hypotheses); err != nil {
		return nil, err
	}
	if err := decode("foam", row.Foam, &run.Foam); err != nil {
		return nil, err
	}
	if row.StressTest.Valid {
		run.StressTest = &hre.StressTest{}
		if err := decode("stress_test", row.StressTest.String, run.StressTest); err != nil {
			return nil, err
		}
	}
	return run, nil
}

func encodeJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
