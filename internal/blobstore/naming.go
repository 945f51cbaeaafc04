package blobstore

import (
	"contract-signing/internal/model"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/atomic"
)

var unsafeNameChars = regexp.MustCompile(`[^\w\-.]`)

// SanitizeName keeps word characters, dash and dot of the base name.
func SanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		base = "document.pdf"
	}
	return unsafeNameChars.ReplaceAllString(base, "_")
}

// Namer hands out artifact names. Stamps are unix milliseconds but strictly
// increasing within the process, so two artifacts created in the same
// millisecond still get distinct names.
type Namer struct {
	last *atomic.Int64
	now  func() time.Time
}

func NewNamer() Namer {
	return Namer{last: atomic.NewInt64(0), now: time.Now}
}

// NewNamerWithClock is used by tests to pin the clock.
func NewNamerWithClock(now func() time.Time) Namer {
	return Namer{last: atomic.NewInt64(0), now: now}
}

func (n Namer) stamp() int64 {
	for {
		prev := n.last.Load()
		next := n.now().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if n.last.CAS(prev, next) {
			return next
		}
	}
}

func (n Namer) Stamp() string {
	return strconv.FormatInt(n.stamp(), 10)
}

// Upload names a client upload: <ms>-<sanitized original name>.
func (n Namer) Upload(originalName string) model.FileRef {
	return model.FileRef{Area: model.AreaUploads, Name: n.Stamp() + "-" + SanitizeName(originalName)}
}

func (n Namer) ContractSigned(contractID int64) model.FileRef {
	return model.FileRef{
		Area: model.AreaStorage,
		Name: "contract-" + strconv.FormatInt(contractID, 10) + "-signed-" + n.Stamp() + ".pdf",
	}
}

func (n Namer) ApprovalSigned(approvalID, contractID int64) model.FileRef {
	return model.FileRef{
		Area: model.AreaStorage,
		Name: "approval-" + strconv.FormatInt(approvalID, 10) + "-contract-" + strconv.FormatInt(contractID, 10) + "-signed-" + n.Stamp() + ".pdf",
	}
}

// LegacySigned derives <base>-signed-<ms>.pdf from an uploaded file name.
func (n Namer) LegacySigned(sourceName string) model.FileRef {
	base := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	return model.FileRef{Area: model.AreaStorage, Name: base + "-signed-" + n.Stamp() + ".pdf"}
}
