package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the processing state of an image.
type Status string

const (
	StatusPending    Status = "pending"
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Terminal reports whether no further transition is expected for s.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Options holds encode parameters. Quality semantics are format-specific.
type Options struct {
	Quality int `json:"quality"`
}

// Blob is an encoded image together with its MIME type.
type Blob struct {
	Type string `json:"type"`
	Data []byte `json:"-"`
}

// Image represents a single image compression job and its outcome.
//
// Records are treated as immutable values once stored: updates replace the
// whole record instead of mutating it in place.
type Image struct {
	ID           uuid.UUID `json:"id"`
	File         File      `json:"-"`
	Filename     string    `json:"filename"`
	OriginalSize int64     `json:"original_size"`
	TargetFormat Format    `json:"target_format"`
	Options      Options   `json:"options"`
	Status       Status    `json:"status"` // pending / queued / processing / complete / error

	Preview        string `json:"preview,omitempty"`         // present iff complete
	Blob           *Blob  `json:"-"`                         // present iff complete
	CompressedSize int64  `json:"compressed_size,omitempty"` // present iff complete
	OutputType     Format `json:"output_type,omitempty"`     // present iff complete
	Error          string `json:"error,omitempty"`           // present iff error

	CreatedAt time.Time `json:"created_at"`
}

// NewImage creates a pending image record for the given file.
func NewImage(f File, target Format, opts Options) Image {
	return Image{
		ID:           uuid.New(),
		File:         f,
		Filename:     f.Name(),
		OriginalSize: f.Size(),
		TargetFormat: target,
		Options:      opts,
		Status:       StatusPending,
		CreatedAt:    time.Now(),
	}
}

// ResultName returns the download name of the compressed image:
// the original name up to its first dot, with the output format as extension.
func (img Image) ResultName() string {
	base, _, _ := strings.Cut(img.Filename, ".")
	return base + "." + string(img.OutputType)
}

// Update describes a status transition together with its payload.
type Update struct {
	Status         Status
	Preview        string
	Blob           *Blob
	CompressedSize int64
	OutputType     Format
	Error          string
}

// Apply returns a copy of img with u applied. Outcome fields are always
// overwritten so that a record never carries a stale result or error.
func (img Image) Apply(u Update) Image {
	img.Status = u.Status
	img.Preview = u.Preview
	img.Blob = u.Blob
	img.CompressedSize = u.CompressedSize
	img.OutputType = u.OutputType
	img.Error = u.Error

	return img
}
