/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * Operation protocol engine
 */

package ipp

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Request is a decoded operation request handed to a [Handler].
type Request struct {
	// Msg is the decoded request message. The engine has already
	// verified the protocol envelope: supported version, leading
	// operation-attributes group with attributes-charset and
	// attributes-natural-language first. Operation-specific
	// required attributes remain the handler's responsibility.
	Msg *Message

	// Body is the remaining transport stream, positioned at the
	// first byte of document data. It is valid until the handler
	// returns; the engine never buffers it.
	Body io.Reader
}

// Op returns the request's operation code.
func (rq *Request) Op() Op {
	return rq.Msg.Op()
}

// Response is what a [Handler] produces.
type Response struct {
	// Msg is the response message. The engine fills in the request
	// id, defaults the version, and guarantees the response
	// envelope (charset and natural-language first, status-message
	// on non-successful statuses) before encoding.
	Msg *Message

	// Body optionally supplies document data streamed to the
	// transport after the encoded message.
	Body io.Reader
}

// Handler processes one validated request and builds its response.
// Returning an error (or a nil response) makes the engine answer with
// server-error-internal-error; handlers signal business-level failures
// through the response status instead.
type Handler func(ctx context.Context, rq *Request) (*Response, error)

// ExchangeState enumerates the stations of one request/response
// exchange. A successful exchange advances through all of them in
// order; a validation failure jumps from StateRequestDecoded straight
// to StateResponseBuilt carrying an error status.
type ExchangeState int

// Exchange states
const (
	StateAwaitingRequest ExchangeState = iota
	StateRequestDecoded
	StateValidated
	StateDispatched
	StateResponseBuilt
	StateResponseEncoded
)

// String returns the state name, for logging and tests.
func (s ExchangeState) String() string {
	switch s {
	case StateAwaitingRequest:
		return "awaiting-request"
	case StateRequestDecoded:
		return "request-decoded"
	case StateValidated:
		return "validated"
	case StateDispatched:
		return "dispatched"
	case StateResponseBuilt:
		return "response-built"
	case StateResponseEncoded:
		return "response-encoded"
	}

	return fmt.Sprintf("state-%d", int(s))
}

// ExchangeResult reports how an exchange ended.
type ExchangeResult struct {
	State     ExchangeState // Terminal state of the exchange
	Op        Op            // Operation, once the request decoded
	RequestID uint32        // Request id, once the header decoded
	Status    Status        // Status sent, once a response was built
}

// Engine mediates the server side of the operation protocol: it
// decodes a request from a transport stream, validates the envelope,
// dispatches to the handler registered for the operation and encodes a
// well-formed response. Recoverable decode failures become IPP error
// responses; only a stream whose 8-byte header cannot be decoded at
// all fails the exchange at the transport level.
//
// Register all handlers before serving. Exchanges share no mutable
// state, so a configured Engine may serve any number of concurrent
// exchanges.
type Engine struct {
	handlers map[Op]Handler
	versions map[Version]bool
	latest   Version
	opt      DecoderOptions
}

// NewEngine creates an Engine supporting IPP 1.0 through 2.2 with
// default decoder options and no handlers.
func NewEngine() *Engine {
	e := &Engine{
		handlers: make(map[Op]Handler),
	}

	e.SetVersions(
		MakeVersion(1, 0), MakeVersion(1, 1),
		MakeVersion(2, 0), MakeVersion(2, 1), MakeVersion(2, 2),
	)

	return e
}

// SetVersions replaces the set of accepted protocol versions. The
// highest version becomes the one used for responses to requests whose
// own version is unsupported.
func (e *Engine) SetVersions(vers ...Version) {
	e.versions = make(map[Version]bool, len(vers))
	e.latest = 0
	for _, v := range vers {
		e.versions[v] = true
		if v > e.latest {
			e.latest = v
		}
	}
}

// SetDecoderOptions replaces the decoder options applied to incoming
// requests.
func (e *Engine) SetDecoderOptions(opt DecoderOptions) {
	e.opt = opt
}

// Handle registers the handler for an operation, replacing any
// previous registration.
func (e *Engine) Handle(op Op, h Handler) {
	e.handlers[op] = h
}

// Exchange runs one complete request/response exchange: decode from
// in, validate, dispatch, encode to out. The returned ExchangeResult
// is never nil and reports the terminal state even on failure.
//
// A non-nil error means the exchange died at the transport level (the
// header was undecodable, the context was canceled, or writing the
// response failed); every protocol-level failure is answered on the
// wire instead.
func (e *Engine) Exchange(ctx context.Context, in io.Reader, out io.Writer) (*ExchangeResult, error) {
	res := &ExchangeResult{State: StateAwaitingRequest}
	src := &ctxReader{ctx: ctx, r: in}

	msg := &Message{}
	if err := msg.DecodeEx(src, e.opt); err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		// The request header carries the identity of the
		// exchange. With it decoded, a malformed remainder can
		// still be answered properly; without it, nothing
		// useful can be said to the far side.
		var de *DecodeError
		if errors.As(err, &de) && de.Offset >= msgHdrSize && recoverable(err) {
			res.RequestID = msg.RequestID
			res.Op = msg.Op()
			rsp := e.errorResponse(msg, StatusErrorBadRequest, err.Error())
			return e.sendResponse(res, out, rsp, nil)
		}

		return res, err
	}

	res.State = StateRequestDecoded
	res.Op = msg.Op()
	res.RequestID = msg.RequestID

	if !e.versions[msg.Version] {
		rsp := e.errorResponse(msg, StatusErrorVersionNotSupported,
			fmt.Sprintf("%s: %s", ErrUnsupportedVersion, msg.Version))
		return e.sendResponse(res, out, rsp, nil)
	}

	if err := checkRequestEnvelope(msg); err != nil {
		rsp := e.errorResponse(msg, StatusErrorBadRequest, err.Error())
		return e.sendResponse(res, out, rsp, nil)
	}

	res.State = StateValidated

	h := e.handlers[msg.Op()]
	if h == nil {
		rsp := e.errorResponse(msg, StatusErrorOperationNotSupported,
			fmt.Sprintf("operation %s not supported", msg.Op()))
		return e.sendResponse(res, out, rsp, nil)
	}

	rsp, err := h(ctx, &Request{Msg: msg, Body: src})
	res.State = StateDispatched

	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	if err != nil || rsp == nil || rsp.Msg == nil {
		detail := "handler failed"
		if err != nil {
			detail = err.Error()
		}
		rsp = &Response{Msg: e.errorResponse(msg, StatusErrorInternal, detail)}
	}

	e.completeResponse(msg, rsp.Msg)
	return e.sendResponse(res, out, rsp.Msg, rsp.Body)
}

// sendResponse encodes the response message and streams the optional
// document body after it.
func (e *Engine) sendResponse(res *ExchangeResult, out io.Writer,
	rsp *Message, body io.Reader) (*ExchangeResult, error) {

	res.State = StateResponseBuilt
	res.Status = rsp.Status()

	if err := rsp.Encode(out); err != nil {
		return res, err
	}

	if body != nil {
		if _, err := io.Copy(out, body); err != nil {
			return res, err
		}
	}

	res.State = StateResponseEncoded
	return res, nil
}

// errorResponse builds a complete error response for a request, echoing
// its charset and natural language when they are usable.
func (e *Engine) errorResponse(rq *Message, status Status, detail string) *Message {
	ver := rq.Version
	if !e.versions[ver] {
		ver = e.latest
	}

	rsp := NewResponse(ver, status, rq.RequestID)

	charset, lang := requestCharsetLanguage(rq)
	rsp.AddGroup(TagOperationGroup,
		MakeAttribute(AttrAttributesCharset, TagCharset, String(charset)),
		MakeAttribute(AttrAttributesNaturalLanguage, TagLanguage, String(lang)),
		MakeAttribute(AttrStatusMessage, TagText, String(detail)),
	)

	return rsp
}

// completeResponse enforces the response envelope on a handler-built
// message: request id and version filled in, operation-attributes
// group first with charset and natural-language leading, and a
// status-message present for non-successful statuses.
func (e *Engine) completeResponse(rq, rsp *Message) {
	rsp.RequestID = rq.RequestID
	if rsp.Version == 0 {
		rsp.Version = rq.Version
	}

	charset, lang := requestCharsetLanguage(rq)

	grp := rsp.Group(TagOperationGroup)
	if grp == nil || rsp.Groups[0].Tag != TagOperationGroup {
		groups := make(Groups, 0, len(rsp.Groups)+1)
		groups.Add(Group{Tag: TagOperationGroup})
		groups = append(groups, rsp.Groups...)
		rsp.Groups = groups
		grp = &rsp.Groups[0]
	}

	// Charset and natural-language lead the group, in that order,
	// whether the handler supplied them or not.
	lead := make(Attributes, 0, len(grp.Attrs)+2)
	if a := grp.Attrs.Get(AttrAttributesCharset); a != nil {
		lead.Add(*a)
	} else {
		lead.Add(MakeAttribute(AttrAttributesCharset,
			TagCharset, String(charset)))
	}
	if a := grp.Attrs.Get(AttrAttributesNaturalLanguage); a != nil {
		lead.Add(*a)
	} else {
		lead.Add(MakeAttribute(AttrAttributesNaturalLanguage,
			TagLanguage, String(lang)))
	}
	for _, a := range grp.Attrs {
		if a.Name != AttrAttributesCharset &&
			a.Name != AttrAttributesNaturalLanguage {
			lead.Add(a)
		}
	}
	grp.Attrs = lead

	if !rsp.Status().IsSuccessful() &&
		grp.Attrs.Get(AttrStatusMessage) == nil {
		grp.Add(MakeAttribute(AttrStatusMessage,
			TagText, String(rsp.Status().String())))
	}
}

// checkRequestEnvelope verifies the protocol-level request invariant:
// the first group is operation-attributes and its first two attributes
// are attributes-charset and attributes-natural-language, in that
// order and with the proper tags.
func checkRequestEnvelope(m *Message) error {
	if len(m.Groups) == 0 || m.Groups[0].Tag != TagOperationGroup {
		return fmt.Errorf("request does not start with an %s group",
			TagOperationGroup)
	}

	attrs := m.Groups[0].Attrs
	if len(attrs) < 1 || attrs[0].Name != AttrAttributesCharset ||
		attrs[0].Tag() != TagCharset {
		return fmt.Errorf("first operation attribute must be %s (%s)",
			AttrAttributesCharset, TagCharset)
	}

	if len(attrs) < 2 || attrs[1].Name != AttrAttributesNaturalLanguage ||
		attrs[1].Tag() != TagLanguage {
		return fmt.Errorf("second operation attribute must be %s (%s)",
			AttrAttributesNaturalLanguage, TagLanguage)
	}

	return nil
}

// requestCharsetLanguage extracts the charset and natural language to
// answer with, falling back to the defaults when the request does not
// supply usable values.
func requestCharsetLanguage(rq *Message) (charset, lang string) {
	charset, lang = DefaultCharset, DefaultLanguage

	attrs := rq.OperationAttrs()
	if attrs == nil {
		return charset, lang
	}

	if a := attrs.Get(AttrAttributesCharset); a != nil &&
		a.Tag() == TagCharset && len(a.Values) > 0 {
		if s, ok := a.Values[0].V.(String); ok && s != "" {
			charset = string(s)
		}
	}

	if a := attrs.Get(AttrAttributesNaturalLanguage); a != nil &&
		a.Tag() == TagLanguage && len(a.Values) > 0 {
		if s, ok := a.Values[0].V.(String); ok && s != "" {
			lang = string(s)
		}
	}

	return charset, lang
}

// recoverable reports whether a decode failure can be answered with an
// IPP error response rather than failing the exchange.
func recoverable(err error) bool {
	return errors.Is(err, ErrMalformedStream) ||
		errors.Is(err, ErrMalformedValue) ||
		errors.Is(err, ErrUnknownTag) ||
		errors.Is(err, ErrTagMismatch) ||
		errors.Is(err, ErrRecursionLimit) ||
		errors.Is(err, ErrUnexpectedEOF)
}

// ctxReader cancels reads when its context is done, so a decode in
// flight aborts promptly and the partially-built message is dropped.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

// Read implements io.Reader.
func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
