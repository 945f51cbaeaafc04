// Package apperrors classifies failures so the transport can tell a caller
// whether to fix its input or report a systemic fault.
package apperrors

import (
	"errors"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindTooLarge
	KindIntegrity
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTooLarge:
		return "too_large"
	case KindIntegrity:
		return "integrity"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// Machine readable codes.
const (
	CodeBadPayload        = "BAD_PAYLOAD"
	CodeInvalidID         = "INVALID_ID"
	CodeUnsupportedImage  = "UNSUPPORTED_IMAGE"
	CodeImageDecode       = "IMAGE_DECODE_FAILED"
	CodeNotPDF            = "NOT_PDF"
	CodeContractNotFound  = "CONTRACT_NOT_FOUND"
	CodeApprovalNotFound  = "APPROVAL_NOT_FOUND"
	CodeSourceNotUploaded = "SOURCE_NOT_UPLOADED"
	CodeSourceMissing     = "SOURCE_FILE_MISSING"
	CodeFileNotFound      = "FILE_NOT_FOUND"
	CodeApprovalRejected  = "APPROVAL_REJECTED"
	CodeApprovalClosed    = "APPROVAL_CLOSED"
	CodeDuplicate         = "DUPLICATE"
	CodeFileTooLarge      = "FILE_TOO_LARGE"
	CodeInvalidReference  = "INVALID_REFERENCE"
	CodeSchemaMismatch    = "SCHEMA_MISMATCH"
	CodeSourceUnreadable  = "SOURCE_UNREADABLE"
	CodeInternal          = "INTERNAL"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail is the underlying cause, if any.
func (e *Error) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func New(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: cause}
}

func Validation(code, message string, cause error) *Error {
	return New(KindValidation, code, message, cause)
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message, nil)
}

func Conflict(code, message string) *Error {
	return New(KindConflict, code, message, nil)
}

func TooLarge(message string) *Error {
	return New(KindTooLarge, CodeFileTooLarge, message, nil)
}

func Integrity(code, message string, cause error) *Error {
	return New(KindIntegrity, code, message, cause)
}

func Internal(message string, cause error) *Error {
	return New(KindInternal, CodeInternal, message, cause)
}

// As returns the classified error in the chain, or nil.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// KindOf treats anything unclassified as internal.
func KindOf(err error) Kind {
	if appErr := As(err); appErr != nil {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
