/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * Error taxonomy
 */

package ipp

import (
	"errors"
	"fmt"
)

// Decode failures are classified with the following sentinel errors.
// Every error returned by the codec wraps exactly one of them, so callers
// decide recoverability with errors.Is. The [Engine] translates all of
// them except transport failures into well-formed IPP error responses.
var (
	// ErrUnexpectedEOF indicates that the input ended while more
	// bytes were promised by a length field or required by the
	// message layout.
	ErrUnexpectedEOF = errors.New("unexpected end of stream")

	// ErrMalformedStream indicates a structural violation of the
	// attribute stream: a value tag outside a group, a leading
	// empty-name attribute, a misplaced collection tag.
	ErrMalformedStream = errors.New("malformed attribute stream")

	// ErrMalformedValue indicates value bytes that do not match the
	// layout implied by the value tag.
	ErrMalformedValue = errors.New("malformed value")

	// ErrUnknownTag indicates a tag byte that is neither a known
	// delimiter nor a known value tag. See DecoderOptions.OpaqueUnknownTags
	// for the opt-in forward-compatibility policy.
	ErrUnknownTag = errors.New("unknown tag")

	// ErrTagMismatch indicates an additional value whose tag differs
	// from the tag of the attribute it extends.
	ErrTagMismatch = errors.New("value tag mismatch")

	// ErrRecursionLimit indicates that collection nesting exceeded
	// DecoderOptions.MaxCollectionDepth.
	ErrRecursionLimit = errors.New("collection recursion limit exceeded")

	// ErrUnsupportedVersion is reported by the Engine when a request
	// carries a version it does not speak.
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
)

// DecodeError wraps any error produced while decoding a message,
// adding the byte offset at which decoding failed.
type DecodeError struct {
	Offset int   // Offset of the failed read within the message
	Err    error // The underlying error; wraps one of the sentinels
}

// Error returns the error message.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s at offset 0x%x", e.Err, e.Offset)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
