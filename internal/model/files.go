package model

import (
	"net/url"
	"path"
	"strings"
)

// Area is one of the two storage areas: untouched uploads and derived artifacts.
type Area string

const (
	AreaUploads Area = "uploads"
	AreaStorage Area = "storage"
)

func (a Area) IsValid() bool {
	return a == AreaUploads || a == AreaStorage
}

// FileRef points at one immutable blob.
type FileRef struct {
	Area Area
	Name string
}

func (r FileRef) IsZero() bool {
	return r.Name == ""
}

// Path returns the storage-relative public path, e.g. /storage/contract-7-signed-1.pdf
func (r FileRef) Path() string {
	if r.IsZero() {
		return ""
	}
	return "/" + string(r.Area) + "/" + url.PathEscape(r.Name)
}

// ParseFileRef is the inverse of Path. Only the base name is kept so a stored
// path can never address anything outside its area.
func ParseFileRef(publicPath string) (FileRef, bool) {
	trimmed := strings.TrimPrefix(publicPath, "/")
	areaPart, namePart, found := strings.Cut(trimmed, "/")
	if !found {
		return FileRef{}, false
	}

	area := Area(areaPart)
	if !area.IsValid() {
		return FileRef{}, false
	}

	name, err := url.PathUnescape(namePart)
	if err != nil {
		return FileRef{}, false
	}
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return FileRef{}, false
	}

	return FileRef{Area: area, Name: name}, true
}

// DocumentVersionSet is the per-contract chain original -> signed.
type DocumentVersionSet struct {
	ContractID int64

	Original     FileRef
	OriginalHash string

	Signed     FileRef
	SignedHash string
}

// Latest is the source every sign operation must read.
func (d DocumentVersionSet) Latest() (FileRef, bool) {
	if !d.Signed.IsZero() {
		return d.Signed, true
	}
	if !d.Original.IsZero() {
		return d.Original, true
	}
	return FileRef{}, false
}
