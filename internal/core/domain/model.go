package domain

type Message struct {
	ID       int
	ChatID   int64
	Username string
	Text     string
	ImageURL string
}

type Action string

const (
	Typing         Action = "typing"
	UploadingAudio Action = "uploading_audio"
)

// GenerationStatus is the canonical state of a submitted generation job.
// Anything the provider reports outside the recognized sets maps to
// StatusUnknown and is treated as non-terminal.
type GenerationStatus string

const (
	StatusPending    GenerationStatus = "PENDING"
	StatusProcessing GenerationStatus = "PROCESSING"
	StatusSuccess    GenerationStatus = "SUCCESS"
	StatusFailed     GenerationStatus = "FAILED"
	StatusUnknown    GenerationStatus = "UNKNOWN"
)

// Terminal reports whether the poll loop stops issuing attempts once this
// status carries results (SUCCESS) or unconditionally (FAILED).
func (s GenerationStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Track is one normalized result of a generation job. Raw keeps the
// untouched provider record so downstream consumers lose nothing to
// normalization.
type Track struct {
	ID       string
	Title    string
	AudioURL string
	ImageURL string
	Raw      map[string]any
}

// GenerationResult is only ever returned fully populated: a job handle and
// at least one track.
type GenerationResult struct {
	JobHandle string
	Tracks    []Track
}

// CorpusHit is a reference lyric returned by the corpus search.
type CorpusHit struct {
	Title  string
	Singer string
	Text   string
	Score  float64
}
