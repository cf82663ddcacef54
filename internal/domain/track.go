package domain

// TrackID is assigned from a monotonically increasing counter and is
// never reused, even after the track is deleted.
type TrackID int64

type Track struct {
	ID    TrackID `json:"id"`
	Title string  `json:"title"`
	URL   string  `json:"url"`
}

// LogEntry is one line of the admin-visible activity log. Timestamp is a
// pre-formatted display label, not a machine timestamp.
type LogEntry struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
