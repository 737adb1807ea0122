package model

import (
	"context"
	"fmt"
	"os"
)

// File gives read access to the source bytes of an image.
// The bytes are owned by the implementation; callers must not modify them.
type File interface {
	Name() string
	Type() string
	Size() int64
	Bytes(ctx context.Context) ([]byte, error)
}

// MemoryFile is a File held entirely in memory (e.g. an HTTP upload).
type MemoryFile struct {
	name        string
	contentType string
	data        []byte
}

// NewMemoryFile wraps data as a File.
func NewMemoryFile(name, contentType string, data []byte) *MemoryFile {
	return &MemoryFile{name: name, contentType: contentType, data: data}
}

func (f *MemoryFile) Name() string { return f.name }
func (f *MemoryFile) Type() string { return f.contentType }
func (f *MemoryFile) Size() int64  { return int64(len(f.data)) }

// Bytes returns the in-memory content.
func (f *MemoryFile) Bytes(context.Context) ([]byte, error) {
	return f.data, nil
}

// DiskFile is a File backed by a path on the local filesystem.
// Its content is read lazily on every Bytes call.
type DiskFile struct {
	path        string
	name        string
	contentType string
	size        int64
}

// NewDiskFile stats path and returns a File for it.
func NewDiskFile(path, name, contentType string) (*DiskFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &DiskFile{path: path, name: name, contentType: contentType, size: info.Size()}, nil
}

func (f *DiskFile) Name() string { return f.name }
func (f *DiskFile) Type() string { return f.contentType }
func (f *DiskFile) Size() int64  { return f.size }

// Bytes reads the whole file.
func (f *DiskFile) Bytes(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	return data, nil
}
