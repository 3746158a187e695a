package models

// VisitRecord summarizes one processed frontier entry for the session manifest.
// Optional fields use pointers and the ',optional' tag.
type VisitRecord struct {
	SessionID    string  `parquet:"session_id"`
	Seq          int32   `parquet:"seq"`
	URL          string  `parquet:"url"`
	Depth        int32   `parquet:"depth"`
	Settled      bool    `parquet:"settled"`
	PollAttempts int32   `parquet:"poll_attempts"`
	Channel      string  `parquet:"channel"`
	Error        *string `parquet:"error,optional"`
	VisitedAtMs  int64   `parquet:"visited_at_ms"`
}
