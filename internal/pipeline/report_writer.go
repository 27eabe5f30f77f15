package pipeline

// ReportWriter persists one analysis report per run.
type ReportWriter interface {
	WriteReport(report interface{}) error
	Close() error
}
