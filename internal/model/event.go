package model

import "github.com/google/uuid"

// Submission is a request to compress an image stored in object storage.
type Submission struct {
	Object       string `json:"object"`
	Filename     string `json:"filename"`
	ContentType  string `json:"content_type"`
	TargetFormat string `json:"target_format"`
	Quality      int    `json:"quality"`
}

// ProcessedEvent is published when an image reaches a terminal status.
type ProcessedEvent struct {
	ID             uuid.UUID `json:"id"`
	Filename       string    `json:"filename"`
	Status         Status    `json:"status"`
	OriginalSize   int64     `json:"original_size"`
	CompressedSize int64     `json:"compressed_size,omitempty"`
	OutputType     Format    `json:"output_type,omitempty"`
	Object         string    `json:"object,omitempty"` // exported result, if any
	Error          string    `json:"error,omitempty"`
}
