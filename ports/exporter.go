package ports

import (
	"io"

	hre "github.com/qqewq/harmonized-mind/domain/resonance"
)

// Exporter renders a stored run into a download format
type Exporter interface {
	// Format is the query-string name, e.g. "md"
	Format() string
	ContentType() string
	FileExtension() string
	Export(w io.Writer, run *hre.AnalysisRun) error
}
