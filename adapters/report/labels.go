package report

import hre "github.com/qqewq/harmonized-mind/domain/resonance"

type labels struct {
	Title          string
	Task           string
	Goal           string
	Constraints    string
	Domains        string
	Created        string
	Gate           string
	Reason         string
	Hypotheses     string
	Recommendation string
	Stress         string
	Foam           string
	None           string
}

var catalog = map[hre.Lang]labels{
	hre.LangRU: {
		Title:          "Анализ ГРА",
		Task:           "Задача",
		Goal:           "Цель",
		Constraints:    "Ограничения",
		Domains:        "Домены",
		Created:        "Дата",
		Gate:           "Решение шлюза",
		Reason:         "Причина",
		Hypotheses:     "Гипотезы",
		Recommendation: "Рекомендация",
		Stress:         "Стресс-тест",
		Foam:           "Пена разума",
		None:           "нет",
	},
	hre.LangEN: {
		Title:          "HRE analysis",
		Task:           "Task",
		Goal:           "Goal",
		Constraints:    "Constraints",
		Domains:        "Domains",
		Created:        "Created",
		Gate:           "Gate decision",
		Reason:         "Reason",
		Hypotheses:     "Hypotheses",
		Recommendation: "Recommendation",
		Stress:         "Stress test",
		Foam:           "Mind foam",
		None:           "none",
	},
}

func labelsFor(lang hre.Lang) labels {
	if l, ok := catalog[lang]; ok {
		return l
	}
	return catalog[hre.LangRU]
}
