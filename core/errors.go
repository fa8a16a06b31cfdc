package core

// errors.go – the flat, exhaustive error taxonomy from the design's error
// handling section. Every CoreError carries a Kind plus the structured
// payload named for that kind; translation of user-visible messages is an
// external concern (see spec.md §1/§7).

import "fmt"

// ErrKind enumerates the error taxonomy.
type ErrKind uint8

const (
	KindNotFound ErrKind = iota
	KindAlreadyExists
	KindValidationFailed
	KindChecksumMismatch
	KindCblEncrypted
	KindCblInvalidSignature
	KindCblInvalidField
	KindInsufficientRandomBlocks
	KindFecEncodingFailed
	KindFecDecodingFailed
	KindNotEnoughShards
	KindMaxDepthExceeded
	KindMissingSubCBL
	KindInvalidCBLType
	KindInvalidCBLFormat
	KindBlockCountMismatch
	KindCryptoError
	KindLengthMismatch
)

// CoreError is the structured error type returned by every package in core.
type CoreError struct {
	Kind    ErrKind
	Message string
	Cause   error
}

func (e *CoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *CoreError) Unwrap() error { return e.Cause }

// Is reports whether target is a *CoreError with the same Kind, letting
// callers write `errors.Is(err, core.ErrNotFound(""))`-style checks.
func (e *CoreError) Is(target error) bool {
	other, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newErr(kind ErrKind, msg string) *CoreError {
	return &CoreError{Kind: kind, Message: msg}
}

func wrapErr(kind ErrKind, msg string, cause error) *CoreError {
	return &CoreError{Kind: kind, Message: msg, Cause: cause}
}

// ErrNotFound builds a NotFound{key} error.
func ErrNotFound(key string) error {
	return newErr(KindNotFound, fmt.Sprintf("not found: %s", key))
}

// ErrAlreadyExists builds an AlreadyExists{key} error.
func ErrAlreadyExists(key string) error {
	return newErr(KindAlreadyExists, fmt.Sprintf("already exists: %s", key))
}

// ErrValidationFailed builds a ValidationFailed{reason} error.
func ErrValidationFailed(reason string) error {
	return newErr(KindValidationFailed, fmt.Sprintf("validation failed: %s", reason))
}

// ErrChecksumMismatch builds a ChecksumMismatch{expected,actual} error.
func ErrChecksumMismatch(expected, actual BlockId) error {
	return newErr(KindChecksumMismatch, fmt.Sprintf("checksum mismatch: expected %s, got %s", expected.Hex(), actual.Hex()))
}

// ErrCblEncrypted builds the CblEncrypted error.
func ErrCblEncrypted() error {
	return newErr(KindCblEncrypted, "cbl: buffer is encrypted")
}

// ErrCblInvalidSignature builds the CblInvalidSignature error.
func ErrCblInvalidSignature() error {
	return newErr(KindCblInvalidSignature, "cbl: invalid signature")
}

// ErrCblInvalidField builds a CblInvalidField{field,reason} error.
func ErrCblInvalidField(field, reason string) error {
	return newErr(KindCblInvalidField, fmt.Sprintf("cbl: invalid field %s: %s", field, reason))
}

// ErrInsufficientRandomBlocks builds an InsufficientRandomBlocks{requested,available} error.
func ErrInsufficientRandomBlocks(requested, available int) error {
	return newErr(KindInsufficientRandomBlocks, fmt.Sprintf("insufficient random blocks: requested %d, available %d", requested, available))
}

// ErrFecEncodingFailed wraps a FEC encode failure.
func ErrFecEncodingFailed(cause error) error {
	return wrapErr(KindFecEncodingFailed, "fec: encoding failed", cause)
}

// ErrFecDecodingFailed wraps a FEC decode failure.
func ErrFecDecodingFailed(cause error) error {
	return wrapErr(KindFecDecodingFailed, "fec: decoding failed", cause)
}

// ErrNotEnoughShards builds a NotEnoughShards{available,required} error.
func ErrNotEnoughShards(available, required int) error {
	return newErr(KindNotEnoughShards, fmt.Sprintf("fec: not enough shards: available %d, required %d", available, required))
}

// ErrMaxDepthExceeded builds a MaxDepthExceeded{current,max} error.
func ErrMaxDepthExceeded(current, max int) error {
	return newErr(KindMaxDepthExceeded, fmt.Sprintf("super-cbl: max depth exceeded: current %d, max %d", current, max))
}

// ErrMissingSubCBL wraps a sub-CBL retrieval failure.
func ErrMissingSubCBL(url string, cause error) error {
	return wrapErr(KindMissingSubCBL, fmt.Sprintf("super-cbl: missing sub-cbl %s", url), cause)
}

// ErrInvalidCBLType builds an InvalidCBLType{type} error.
func ErrInvalidCBLType(t string) error {
	return newErr(KindInvalidCBLType, fmt.Sprintf("super-cbl: invalid cbl type %q", t))
}

// ErrInvalidCBLFormat builds an InvalidCBLFormat{reason} error.
func ErrInvalidCBLFormat(reason string) error {
	return newErr(KindInvalidCBLFormat, fmt.Sprintf("super-cbl: invalid cbl format: %s", reason))
}

// ErrBlockCountMismatch builds a BlockCountMismatch{expected,actual} error.
func ErrBlockCountMismatch(expected, actual int) error {
	return newErr(KindBlockCountMismatch, fmt.Sprintf("super-cbl: block count mismatch: expected %d, actual %d", expected, actual))
}

// ErrCrypto wraps a crypto adapter failure (InvalidKey | BadSignature | Cipher).
func ErrCrypto(reason string, cause error) error {
	return wrapErr(KindCryptoError, fmt.Sprintf("crypto: %s", reason), cause)
}

// ErrLengthMismatch builds the byte-utility LengthMismatch error.
func ErrLengthMismatch(a, b int) error {
	return newErr(KindLengthMismatch, fmt.Sprintf("length mismatch: %d != %d", a, b))
}
