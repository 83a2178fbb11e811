/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * Package documentation
 */

// Package ipp implements the Internet Printing Protocol core: the binary
// tag-typed attribute encoding defined by RFC 8010 and the operation
// request/response machinery defined by RFC 8011.
//
// The package is organized in three layers:
//
// The value model ([Tag], [Type], [Value] and its concrete variants)
// describes typed attribute values and their exact byte layouts.
//
// The attribute model ([Attribute], [Values], [Group], [Groups], [Message])
// organizes values into named, possibly multi-valued attributes grouped
// into delimiter-tagged sections of a message.
//
// The codec ((*Message).Encode and (*Message).Decode) converts between the
// in-memory model and the wire form in a single streaming pass. Decoding
// stops exactly at the end-of-attributes tag and leaves any trailing
// document data unconsumed on the input, so payloads of unbounded size
// are never buffered by the codec.
//
// On top of the codec, [Engine] implements the server-side operation
// protocol: it decodes a request, validates the protocol envelope,
// dispatches to a per-operation [Handler] and encodes a well-formed
// response, translating every recoverable decode failure into an IPP
// error status rather than a broken exchange. [Client] implements the
// matching client side over HTTP.
//
// The codec and the value model are pure transforms without shared state;
// they may be used concurrently on independent streams without locking.
package ipp
