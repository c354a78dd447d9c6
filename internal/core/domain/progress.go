package domain

// ScanStage identifies the step a scan is in.
type ScanStage string

// Scan stages in pipeline order.
const (
	StagePreparing ScanStage = "preparing"
	StageUploading ScanStage = "uploading"
	StageAnalysing ScanStage = "analysing"
	StageDone      ScanStage = "done"
)

// ProgressFunc receives progress updates. Percent is in the range 0..100
// and never decreases within a stage.
type ProgressFunc func(stage ScanStage, percent int)

// Report calls f if it is not nil.
func (f ProgressFunc) Report(stage ScanStage, percent int) {
	if f != nil {
		f(stage, percent)
	}
}
