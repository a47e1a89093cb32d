package excel

// RawRowData represents a row of raw spreadsheet data keyed by lower-cased header
type RawRowData map[string]string

// SheetData represents a whole sheet of requests
type SheetData struct {
	Headers []string     // Column headers, lower-cased
	Rows    []RawRowData // Data rows
}

// Request sheet columns. Only task, goal and domains are required.
const (
	ColumnTask        = "task"
	ColumnGoal        = "goal"
	ColumnConstraints = "constraints"
	ColumnDomains     = "domains"
	ColumnLang        = "lang"
)

// Export sheet names.
const (
	SheetSummary    = "Summary"
	SheetHypotheses = "Hypotheses"
)
