package resonance

import (
	"strings"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

// ExtractDomains maps free text to catalog domains by keyword. No match yields the general
// domain alone; a single match is paired with general so the prompt still gets a
// cross-domain fusion.
func ExtractDomains(prompt string, catalog *hre.Catalog) []string {
	stems := contentStems(prompt)
	var keys []string
	for _, d := range catalog.All() {
		if d.Key == hre.GeneralKey {
			continue
		}
		if relevantTo(stems, d) {
			keys = append(keys, d.Key)
		}
	}
	if _, ok := catalog.Lookup(hre.GeneralKey); ok && len(keys) <= 1 {
		keys = append(keys, hre.GeneralKey)
	}
	return keys
}

// PromptRequest turns the free-text form into a structured request: the prompt is both task
// and goal, with no constraints.
func PromptRequest(prompt string, lang hre.Lang, catalog *hre.Catalog) hre.Request {
	prompt = strings.TrimSpace(prompt)
	return hre.Request{
		Task:    prompt,
		Goal:    prompt,
		Domains: ExtractDomains(prompt, catalog),
		Lang:    lang,
		Prompt:  prompt,
	}
}
