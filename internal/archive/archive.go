// Package archive packages compressed images into a single zip file.
package archive

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/aliskhannn/image-compressor/internal/model"
)

// Name is the file name offered for "download all".
const Name = "images.zip"

// Write stores every complete image that carries a blob into a zip archive
// written to w and returns the number of entries. Images are stored without
// recompression since they are already compressed.
func Write(w io.Writer, images []*model.Image) (int, error) {
	zw := zip.NewWriter(w)
	names := NewNamer()
	n := 0

	for _, img := range images {
		if img.Status != model.StatusComplete || img.Blob == nil {
			continue
		}

		name := names.Name(img.ResultName())

		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Store,
			Modified: img.CreatedAt,
		})
		if err != nil {
			return n, fmt.Errorf("create entry %s: %w", name, err)
		}

		if _, err := f.Write(img.Blob.Data); err != nil {
			return n, fmt.Errorf("write entry %s: %w", name, err)
		}

		n++
	}

	if err := zw.Close(); err != nil {
		return n, fmt.Errorf("close archive: %w", err)
	}

	return n, nil
}

// Namer hands out file names that are unique within one batch.
type Namer struct {
	used map[string]int
}

// NewNamer creates an empty Namer.
func NewNamer() *Namer {
	return &Namer{used: make(map[string]int)}
}

// Name returns name, or name with -1, -2, ... appended to its base for
// duplicates.
func (n *Namer) Name(name string) string {
	count := n.used[name]
	n.used[name] = count + 1
	if count == 0 {
		return name
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for {
		candidate := fmt.Sprintf("%s-%d%s", base, count, ext)
		if n.used[candidate] == 0 {
			n.used[candidate] = 1
			return candidate
		}
		count++
	}
}
