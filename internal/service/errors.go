package service

import (
	"errors"
	"fmt"
)

// FailureKind keys the validation message catalog. Handlers show these
// messages to callers directly, so wording is part of the contract.
type FailureKind string

const (
	KindBucketNotFound  FailureKind = "bucket_not_found"
	KindBucketSlug      FailureKind = "bucket_slug_invalid"
	KindBucketExists    FailureKind = "bucket_exists"
	KindMimeNotAllowed  FailureKind = "mime_not_allowed"
	KindTooLarge        FailureKind = "too_large"
	KindQuotaExceeded   FailureKind = "quota_exceeded"
	KindInvalidURL      FailureKind = "invalid_url"
	KindURLUnreachable  FailureKind = "url_unreachable"
	KindEmptySource     FailureKind = "empty_source"
	KindNameMissing     FailureKind = "name_missing"
	KindTokenInvalid    FailureKind = "token_invalid"
	KindTokenExpired    FailureKind = "token_expired"
	KindTokenBucket     FailureKind = "token_bucket_not_allowed"
	KindSlugImmutable   FailureKind = "slug_immutable"
	KindBucketDestroyed FailureKind = "bucket_destroyed"
)

var catalog = map[FailureKind]string{
	KindBucketNotFound:  "Bucket \"%s\" does not exist",
	KindBucketSlug:      "\"%s\" is not a valid bucket slug",
	KindBucketExists:    "Bucket \"%s\" already exists",
	KindMimeNotAllowed:  "Objects of type \"%s\" are not allowed in this bucket",
	KindTooLarge:        "The file is too large; the maximum file size for this bucket is %s (%d bytes)",
	KindQuotaExceeded:   "Bucket \"%s\" does not have enough space left for this object",
	KindInvalidURL:      "\"%s\" is not a valid URL",
	KindURLUnreachable:  "Could not resolve URL, or URL is not public",
	KindEmptySource:     "No object data was supplied",
	KindNameMissing:     "A filename could not be determined for the object",
	KindTokenInvalid:    "The supplied token is not valid",
	KindTokenExpired:    "The supplied token has expired",
	KindTokenBucket:     "The supplied token may not write to bucket \"%s\"",
	KindSlugImmutable:   "The bucket slug cannot be changed while it contains objects",
	KindBucketDestroyed: "The object's bucket no longer exists",
}

// ValidationError is a recoverable, user-displayable failure.
type ValidationError struct {
	Kind    FailureKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(kind FailureKind, args ...interface{}) error {
	return &ValidationError{
		Kind:    kind,
		Message: fmt.Sprintf(catalog[kind], args...),
	}
}

// IsValidation reports whether err is a validation failure safe to show to
// callers verbatim.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// State-machine violations and lookup failures. These are named so callers
// can branch; their text is still user-presentable.
var (
	ErrObjectNotFound      = errors.New("object not found")
	ErrObjectNotTrashed    = errors.New("object is not in the trash")
	ErrImportNotFound      = errors.New("import not found")
	ErrImportCannotCancel  = errors.New("the import cannot be cancelled once it has begun")
	ErrImportNotClaimed    = errors.New("the import is no longer claimed by this worker")
	ErrScanAlreadyRunning  = errors.New("an unused-object scan is already running")
	ErrMonitorNotSupported = errors.New("monitor does not support this operation")
)

// DimensionError reports a transform size outside the permitted allow-list.
// Production callers never see it; they get not-found behaviour instead.
type DimensionError struct {
	Width  int
	Height int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf(
		"transformation %dx%d is not permitted; add it to CDN_PERMITTED_DIMENSIONS or set CDN_ALLOW_DANGEROUS_TRANSFORM",
		e.Width, e.Height,
	)
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.4g %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
