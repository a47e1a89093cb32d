package resonance

import (
	"fmt"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

// messages is the per-language text catalog. Status literals are never translated.
type messages struct {
	Pairwise       string // %s names, %s task
	Single         string
	Synthesis      string
	Fallback       string
	NamesSep       string
	Recommendation string // id, description, gamma, pTotal, omega, stress line
	StressLine     string // gammaInv, status explanation
	StressStable   string
	StressUnstable string
	Solution       string // description, pTotal, amplitude, dFractal, omega
	BlockedSignals string // pTotal, gammaFoam, minPTotal
	BlockedEmpty   string
	InvalidInput   string
	Internal       string
}

var catalogs = map[hre.Lang]messages{
	hre.LangRU: {
		Pairwise:       "Междоменное слияние «%s» для задачи: %s",
		Single:         "Специализация в области «%s» для задачи: %s",
		Synthesis:      "Полный синтез доменов «%s» для задачи: %s",
		Fallback:       "Консервативный вариант с приоритетом безопасности («%s») для задачи: %s",
		NamesSep:       " × ",
		Recommendation: "Рекомендуется гипотеза #%d: %s. Выбрана как лучшая по резонансному усилению Γ = %.4g при вероятности успеха P_total = %.4g и резонансной частоте ω_res = %.4g.%s",
		StressLine:     " Стресс-тест: Γ_inv = %.4g, %s.",
		StressStable:   "решение устойчиво к переформулировке",
		StressUnstable: "решение может быть неустойчиво к переформулировке",
		Solution:       "%s\n• P_total = %.4g\n• Амплитуда = %.4g\n• D_fractal = %.4g\n• ω_res = %.4g",
		BlockedSignals: "Решение заблокировано этическим фильтром: P_total = %.4g, Γ_foam = %.4g (требуется P_total ≥ %.4g и Γ_foam > %.4g).",
		BlockedEmpty:   "Решение заблокировано: ни одна гипотеза не прошла оценку.",
		InvalidInput:   "Некорректный запрос: %s",
		Internal:       "Внутренняя ошибка движка резонанса",
	},
	hre.LangEN: {
		Pairwise:       "Cross-domain fusion «%s» for task: %s",
		Single:         "Specialization in «%s» for task: %s",
		Synthesis:      "Full synthesis of «%s» for task: %s",
		Fallback:       "Conservative safety-weighted option («%s») for task: %s",
		NamesSep:       " × ",
		Recommendation: "Recommended hypothesis #%d: %s. Chosen for the highest resonance gain Γ = %.4g with success probability P_total = %.4g at resonance frequency ω_res = %.4g.%s",
		StressLine:     " Stress test: Γ_inv = %.4g, %s.",
		StressStable:   "the solution is robust to reframing",
		StressUnstable: "the solution may not be robust to reframing",
		Solution:       "%s\n• P_total = %.4g\n• Amplitude = %.4g\n• D_fractal = %.4g\n• ω_res = %.4g",
		BlockedSignals: "Solution blocked by the ethical gate: P_total = %.4g, Γ_foam = %.4g (requires P_total ≥ %.4g and Γ_foam > %.4g).",
		BlockedEmpty:   "Solution blocked: no hypothesis could be scored.",
		InvalidInput:   "Invalid request: %s",
		Internal:       "Internal resonance engine error",
	},
}

func messagesFor(lang hre.Lang) messages {
	if m, ok := catalogs[lang]; ok {
		return m
	}
	return catalogs[hre.LangRU]
}

// InvalidInputMessage renders a caller-facing message for a rejected request.
func InvalidInputMessage(lang hre.Lang, reason string) string {
	return fmt.Sprintf(messagesFor(lang).InvalidInput, reason)
}

// InternalErrorMessage is the caller-facing text for unexpected failures.
func InternalErrorMessage(lang hre.Lang) string {
	return messagesFor(lang).Internal
}
