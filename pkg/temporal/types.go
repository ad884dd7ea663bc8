package temporal

// Operation names understood by the analysis processor.
const (
	OpKeepStates   = "keep_states"
	OpKeepLonger   = "keep_longer"
	OpKeepFirst    = "keep_first"
	OpKeepLast     = "keep_last"
	OpKeepBetween  = "keep_between"
	OpConsolidated = "consolidated"
	OpGaps         = "gaps"
	OpFillGaps     = "fill_gaps"
	OpMask         = "mask"
	OpStatesAt     = "states_at"
	OpCovers       = "covers"
	OpSummary      = "summary"
)

// Result kinds. OperationResult.Kind carries one of these and names the
// populated payload field.
const (
	KindBouts   = "bouts"
	KindPeriods = "periods"
	KindGaps    = "gaps"
	KindMask    = "mask"
	KindLabels  = "labels"
	KindCovers  = "covers"
	KindSummary = "summary"
)
