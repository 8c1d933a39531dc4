package pipeline

// RunStats tracks aggregate counters and byte totals across one staging run.
type RunStats struct {
	Sets        int
	StagedFiles int
	StagedBytes int64
	ReconFiles  int
	ReconBytes  int64
}
