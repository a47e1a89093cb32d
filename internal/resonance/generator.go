package resonance

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

const taskExcerptRunes = 80

// Generator builds the candidate set for a request.
//
// The nominal hypothesis space (every ordering and subset of domains crossed with every
// reading of the constraints, quoted as up to 10^50 candidates) is a scale claim, not
// something to enumerate. Do not replace this with subset or permutation enumeration: that
// is O(2^d) or worse and already impractical around d = 20. The generator instead emits a
// fixed structure:
//
//	(a) one fusion per unordered domain pair      d(d-1)/2
//	(b) one specialization per domain             d
//	(c) one synthesis of all domains              1
//	(d) one conservative, safety-weighted option  1
//
// which is O(d^2) candidates. Candidates that describe the same domain set are merged and
// their construction kinds OR-ed together.
type Generator struct {
	policy GeneratorPolicy
}

func NewGenerator(policy GeneratorPolicy) *Generator {
	return &Generator{policy: policy}
}

// CandidateCount is the number of drafts produced for d distinct domains.
func CandidateCount(d int) int {
	switch {
	case d <= 0:
		return 0
	case d == 1:
		return 2
	case d == 2:
		return 4
	default:
		return d*(d-1)/2 + d + 2
	}
}

// Candidates lazily yields drafts in generation order: pairs (i<j in canonical order), then
// singles, then the synthesis, then the fallback. IDs are 1-based and stable.
func (g *Generator) Candidates(req hre.Request, domains []hre.Domain, frame Frame) iter.Seq[hre.Draft] {
	return func(yield func(hre.Draft) bool) {
		b := newDraftBuilder(req, domains, frame)
		d := len(domains)
		seen := make(map[string]bool, CandidateCount(d))
		id := 0
		emit := func(draft hre.Draft) bool {
			if seen[draft.Key] {
				return true
			}
			seen[draft.Key] = true
			id++
			draft.ID = id
			return yield(draft)
		}

		for i := 0; i < d; i++ {
			for j := i + 1; j < d; j++ {
				if !emit(b.pair(i, j)) {
					return
				}
			}
		}
		for i := 0; i < d; i++ {
			if !emit(b.single(i)) {
				return
			}
		}
		if d >= 3 {
			if !emit(b.synthesis()) {
				return
			}
		}
		if d > 0 {
			emit(b.fallback())
		}
	}
}

// Generate materializes the candidate set. At or above the parallel threshold pairwise
// fusions are built concurrently, one row per task, then normalized by their (i, j) key so
// the result is identical to the sequential path.
func (g *Generator) Generate(ctx context.Context, req hre.Request, domains []hre.Domain, frame Frame) ([]hre.Draft, error) {
	if len(domains) < g.policy.ParallelThreshold {
		drafts := make([]hre.Draft, 0, CandidateCount(len(domains)))
		for draft := range g.Candidates(req, domains, frame) {
			drafts = append(drafts, draft)
		}
		return drafts, ctx.Err()
	}
	return g.generateParallel(ctx, req, domains, frame)
}

type pairSlot struct {
	i, j  int
	draft hre.Draft
}

func (g *Generator) generateParallel(ctx context.Context, req hre.Request, domains []hre.Domain, frame Frame) ([]hre.Draft, error) {
	b := newDraftBuilder(req, domains, frame)
	d := len(domains)

	rows := make([][]pairSlot, d)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.policy.MaxWorkers)
	for i := 0; i < d-1; i++ {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			row := make([]pairSlot, 0, d-i-1)
			for j := i + 1; j < d; j++ {
				row = append(row, pairSlot{i: i, j: j, draft: b.pair(i, j)})
			}
			rows[i] = row
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("building pairwise candidates: %w", err)
	}

	arena := make([]pairSlot, 0, d*(d-1)/2)
	for _, row := range rows {
		arena = append(arena, row...)
	}
	slices.SortStableFunc(arena, func(a, b pairSlot) int {
		if a.i != b.i {
			return a.i - b.i
		}
		return a.j - b.j
	})

	drafts := make([]hre.Draft, 0, CandidateCount(d))
	for _, slot := range arena {
		drafts = append(drafts, slot.draft)
	}
	for i := 0; i < d; i++ {
		drafts = append(drafts, b.single(i))
	}
	drafts = append(drafts, b.synthesis(), b.fallback())

	out := drafts[:0]
	seen := make(map[string]bool, len(drafts))
	for _, draft := range drafts {
		if seen[draft.Key] {
			continue
		}
		seen[draft.Key] = true
		draft.ID = len(out) + 1
		out = append(out, draft)
	}
	return out, nil
}

// draftBuilder is read-only after construction and safe to share between goroutines.
type draftBuilder struct {
	domains []hre.Domain
	frame   Frame
	msg     messages
	lang    hre.Lang
	excerpt string
}

func newDraftBuilder(req hre.Request, domains []hre.Domain, frame Frame) *draftBuilder {
	return &draftBuilder{
		domains: domains,
		frame:   frame,
		msg:     messagesFor(req.Lang),
		lang:    req.Lang,
		excerpt: excerpt(req.Task, taskExcerptRunes),
	}
}

func (b *draftBuilder) pair(i, j int) hre.Draft {
	kind := hre.KindPairwise
	if len(b.domains) == 2 {
		kind |= hre.KindSynthesis
	}
	return b.draft(kind, b.msg.Pairwise, []hre.Domain{b.domains[i], b.domains[j]}, "")
}

func (b *draftBuilder) single(i int) hre.Draft {
	kind := hre.KindSingle
	if len(b.domains) == 1 {
		kind |= hre.KindSynthesis
	}
	return b.draft(kind, b.msg.Single, []hre.Domain{b.domains[i]}, "")
}

func (b *draftBuilder) synthesis() hre.Draft {
	return b.draft(hre.KindSynthesis, b.msg.Synthesis, slices.Clone(b.domains), "")
}

// fallback keeps the domains no constraint excludes, or all of them when every domain is excluded.
func (b *draftBuilder) fallback() hre.Draft {
	var kept []hre.Domain
	for _, d := range b.domains {
		if !b.frame.Excluded(d.Key) {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		kept = slices.Clone(b.domains)
	}
	return b.draft(hre.KindFallback, b.msg.Fallback, kept, "|fallback")
}

func (b *draftBuilder) draft(kind hre.CandidateKind, format string, domains []hre.Domain, suffix string) hre.Draft {
	names := make([]string, len(domains))
	keys := make([]string, len(domains))
	for i, d := range domains {
		names[i] = d.DisplayName(b.lang)
		keys[i] = d.Key
	}
	slices.Sort(keys)
	return hre.Draft{
		Kind:        kind,
		Domains:     domains,
		Description: fmt.Sprintf(format, strings.Join(names, b.msg.NamesSep), b.excerpt),
		Key:         strings.Join(keys, "+") + suffix,
	}
}

func excerpt(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "…"
}
