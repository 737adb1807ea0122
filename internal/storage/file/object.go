package file

import (
	"context"
	"path"
)

// loader reads whole objects.
type loader interface {
	Load(ctx context.Context, objectName string) ([]byte, error)
}

// Object is a source image stored in object storage. It satisfies model.File
// and reads the object on demand.
type Object struct {
	storage     loader
	objectName  string
	name        string
	contentType string
	size        int64
}

// NewObject describes objectName in storage. name defaults to the base of
// the object name.
func NewObject(storage loader, objectName, name, contentType string, size int64) *Object {
	if name == "" {
		name = path.Base(objectName)
	}

	return &Object{
		storage:     storage,
		objectName:  objectName,
		name:        name,
		contentType: contentType,
		size:        size,
	}
}

func (o *Object) Name() string { return o.name }
func (o *Object) Type() string { return o.contentType }
func (o *Object) Size() int64  { return o.size }

// Bytes downloads the object.
func (o *Object) Bytes(ctx context.Context) ([]byte, error) {
	return o.storage.Load(ctx, o.objectName)
}
