// Package blobstore keeps document bytes addressed by area and name.
package blobstore

import (
	"context"
	"contract-signing/internal/model"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrExists   = errors.New("blob already exists")
	ErrNotExist = errors.New("blob does not exist")
	ErrBadRef   = errors.New("invalid blob reference")
)

type Store interface {
	// Put never overwrites; a taken name yields ErrExists.
	Put(ctx context.Context, ref model.FileRef, data []byte) error
	Get(ctx context.Context, ref model.FileRef) ([]byte, error)
	Exists(ctx context.Context, ref model.FileRef) (bool, error)
	// Delete of a missing blob is not an error.
	Delete(ctx context.Context, ref model.FileRef) error
	// List returns the names in area, sorted.
	List(ctx context.Context, area model.Area) ([]string, error)
}

func validateRef(ref model.FileRef) error {
	if !ref.Area.IsValid() {
		return fmt.Errorf("%w: unknown area %q", ErrBadRef, ref.Area)
	}
	if ref.Name == "" || ref.Name == "." || ref.Name == ".." || strings.ContainsAny(ref.Name, "/\\\x00") {
		return fmt.Errorf("%w: bad name %q", ErrBadRef, ref.Name)
	}
	if path.Base(ref.Name) != ref.Name {
		return fmt.Errorf("%w: bad name %q", ErrBadRef, ref.Name)
	}
	return nil
}
