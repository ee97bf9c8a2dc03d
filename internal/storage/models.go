package storage

import "time"

// Session statuses.
const (
	StatusUploaded  = "uploaded"
	StatusMapped    = "mapped"
	StatusProcessed = "processed"
)

// SessionRecord is one upload and everything derived from it. The payload
// columns hold JSON documents owned by the service layer; empty means not
// produced yet.
type SessionRecord struct {
	ID        string // UUID
	Filename  string
	Status    string
	Sheet     string // raw header and rows as read from the upload
	Mapping   string // field to source column
	Settings  string // settings of the last run
	Table     string // canonical table after mapping
	Result    string // processed table and run summary
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChunkLogRecord is the prompt, reply and outcome of one chunk of a run.
type ChunkLogRecord struct {
	SessionID  string
	ChunkIndex int
	RowOffset  int
	Rows       int
	Prompt     string
	Response   string
	Error      string
	Kept       int
	Dropped    int
}
