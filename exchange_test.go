/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * Operation protocol engine tests
 */

package ipp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrinterURI = "ipp://localhost/ipp/print"

// exchange runs one engine exchange over in-memory buffers and decodes
// the response.
func exchange(t *testing.T, e *Engine, rq []byte) (*ExchangeResult, *Message, []byte) {
	t.Helper()

	in := bytes.NewReader(rq)
	var out bytes.Buffer

	res, err := e.Exchange(context.Background(), in, &out)
	require.NoError(t, err)
	require.NotNil(t, res)

	outRd := bytes.NewReader(out.Bytes())
	rsp := &Message{}
	require.NoError(t, rsp.Decode(outRd))

	body, _ := io.ReadAll(outRd)
	return res, rsp, body
}

func TestEngineDispatch(t *testing.T) {
	e := NewEngine()
	e.Handle(OpGetPrinterAttributes,
		func(ctx context.Context, rq *Request) (*Response, error) {
			rsp := NewResponse(0, StatusOk, 0)
			rsp.AddGroup(TagPrinterGroup,
				MakeAttribute("printer-name", TagName, String("test")),
			)
			return &Response{Msg: rsp}, nil
		})

	msg := NewGetPrinterAttributesRequest(testPrinterURI, "printer-name")
	msg.RequestID = 42
	data, err := msg.EncodeBytes()
	require.NoError(t, err)

	res, rsp, _ := exchange(t, e, data)

	assert.Equal(t, StateResponseEncoded, res.State)
	assert.Equal(t, OpGetPrinterAttributes, res.Op)
	assert.Equal(t, uint32(42), res.RequestID)
	assert.Equal(t, StatusOk, res.Status)

	assert.Equal(t, StatusOk, rsp.Status())
	assert.Equal(t, uint32(42), rsp.RequestID)
	assert.Equal(t, msg.Version, rsp.Version)

	grp := rsp.Group(TagPrinterGroup)
	require.NotNil(t, grp)
	name := grp.Attrs.Get("printer-name")
	require.NotNil(t, name)
	assert.True(t, ValueEqual(String("test"), name.Values[0].V))
}

// TestEngineResponseEnvelope tests that the engine normalizes
// handler-built responses: operation group first, charset and
// natural-language leading it, status-message on failure statuses.
func TestEngineResponseEnvelope(t *testing.T) {
	e := NewEngine()
	e.Handle(OpPrintJob,
		func(ctx context.Context, rq *Request) (*Response, error) {
			// Deliberately bare message
			rsp := NewResponse(0, StatusErrorNotPossible, 0)
			rsp.AddGroup(TagJobGroup,
				MakeAttribute(AttrJobID, TagInteger, Integer(1)),
			)
			return &Response{Msg: rsp}, nil
		})

	msg := NewPrintJobRequest(testPrinterURI, "alice", "report")
	msg.RequestID = 5
	data, err := msg.EncodeBytes()
	require.NoError(t, err)

	_, rsp, _ := exchange(t, e, data)

	require.NotEmpty(t, rsp.Groups)
	require.Equal(t, TagOperationGroup, rsp.Groups[0].Tag)

	attrs := rsp.Groups[0].Attrs
	require.GreaterOrEqual(t, len(attrs), 2)
	assert.Equal(t, AttrAttributesCharset, attrs[0].Name)
	assert.Equal(t, TagCharset, attrs[0].Tag())
	assert.Equal(t, AttrAttributesNaturalLanguage, attrs[1].Name)
	assert.Equal(t, TagLanguage, attrs[1].Tag())

	assert.NotNil(t, attrs.Get(AttrStatusMessage),
		"non-successful response must carry a status-message")
}

func TestEngineRequestValidation(t *testing.T) {
	type testData struct {
		name   string
		msg    func() *Message
		status Status
	}

	tests := []testData{
		{
			name: "unsupported version",
			msg: func() *Message {
				m := NewGetPrinterAttributesRequest(testPrinterURI)
				m.Version = MakeVersion(9, 9)
				return m
			},
			status: StatusErrorVersionNotSupported,
		},
		{
			name: "missing operation group",
			msg: func() *Message {
				m := NewRequest(DefaultVersion, OpGetPrinterAttributes, 0)
				m.AddGroup(TagPrinterGroup,
					MakeAttribute("printer-name", TagName, String("x")),
				)
				return m
			},
			status: StatusErrorBadRequest,
		},
		{
			name: "charset not first",
			msg: func() *Message {
				m := NewRequest(DefaultVersion, OpGetPrinterAttributes, 0)
				m.AddGroup(TagOperationGroup,
					MakeAttribute(AttrAttributesNaturalLanguage,
						TagLanguage, String("en")),
					MakeAttribute(AttrAttributesCharset,
						TagCharset, String("utf-8")),
				)
				return m
			},
			status: StatusErrorBadRequest,
		},
		{
			name: "charset with wrong tag",
			msg: func() *Message {
				m := NewRequest(DefaultVersion, OpGetPrinterAttributes, 0)
				m.AddGroup(TagOperationGroup,
					MakeAttribute(AttrAttributesCharset,
						TagKeyword, String("utf-8")),
					MakeAttribute(AttrAttributesNaturalLanguage,
						TagLanguage, String("en")),
				)
				return m
			},
			status: StatusErrorBadRequest,
		},
		{
			name: "unregistered operation",
			msg: func() *Message {
				return NewGetPrinterAttributesRequest(testPrinterURI)
			},
			status: StatusErrorOperationNotSupported,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			e := NewEngine() // no handlers

			msg := test.msg()
			msg.RequestID = 13
			data, err := msg.EncodeBytes()
			require.NoError(t, err)

			res, rsp, _ := exchange(t, e, data)

			assert.Equal(t, StateResponseEncoded, res.State)
			assert.Equal(t, test.status, res.Status)
			assert.Equal(t, test.status, rsp.Status())
			assert.Equal(t, uint32(13), rsp.RequestID)

			attrs := rsp.OperationAttrs()
			require.NotNil(t, attrs)
			assert.NotNil(t, attrs.Get(AttrStatusMessage))
		})
	}
}

// TestEngineMalformedBody tests that a request that fails to decode
// past the header is answered with client-error-bad-request rather
// than failing the transport.
func TestEngineMalformedBody(t *testing.T) {
	msg := NewGetPrinterAttributesRequest(testPrinterURI)
	msg.RequestID = 77
	data, err := msg.EncodeBytes()
	require.NoError(t, err)

	// Corrupt the first attribute tag after the group delimiter
	data[9] = 0x77

	e := NewEngine()
	res, rsp, _ := exchange(t, e, data)

	assert.Equal(t, StatusErrorBadRequest, res.Status)
	assert.Equal(t, uint32(77), res.RequestID)
	assert.Equal(t, StatusErrorBadRequest, rsp.Status())
	assert.Equal(t, uint32(77), rsp.RequestID)
}

// TestEngineTransportFailure tests that a stream too short for the
// message header fails the exchange instead of producing a response.
func TestEngineTransportFailure(t *testing.T) {
	e := NewEngine()

	var out bytes.Buffer
	res, err := e.Exchange(context.Background(),
		strings.NewReader("\x02\x00"), &out)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedEOF))
	assert.Equal(t, StateAwaitingRequest, res.State)
	assert.Zero(t, out.Len(), "no response bytes on transport failure")
}

func TestEngineHandlerFailure(t *testing.T) {
	type testData struct {
		name    string
		handler Handler
	}

	tests := []testData{
		{
			name: "handler error",
			handler: func(ctx context.Context, rq *Request) (*Response, error) {
				return nil, errors.New("spooler on fire")
			},
		},
		{
			name: "nil response",
			handler: func(ctx context.Context, rq *Request) (*Response, error) {
				return nil, nil
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			e := NewEngine()
			e.Handle(OpPrintJob, test.handler)

			msg := NewPrintJobRequest(testPrinterURI, "bob", "junk")
			data, err := msg.EncodeBytes()
			require.NoError(t, err)

			res, rsp, _ := exchange(t, e, data)

			assert.Equal(t, StateResponseEncoded, res.State)
			assert.Equal(t, StatusErrorInternal, res.Status)
			assert.Equal(t, StatusErrorInternal, rsp.Status())
		})
	}
}

// TestEngineDocumentBody tests that the handler receives the document
// bytes following the request and that a response body is streamed
// after the encoded response.
func TestEngineDocumentBody(t *testing.T) {
	document := []byte("%!PS-Adobe-3.0\nshowpage\n")

	var received []byte
	e := NewEngine()
	e.Handle(OpPrintJob,
		func(ctx context.Context, rq *Request) (*Response, error) {
			var err error
			received, err = io.ReadAll(rq.Body)
			if err != nil {
				return nil, err
			}

			rsp := NewResponse(0, StatusOk, 0)
			return &Response{
				Msg:  rsp,
				Body: strings.NewReader("receipt"),
			}, nil
		})

	msg := NewPrintJobRequest(testPrinterURI, "alice", "doc")
	data, err := msg.EncodeBytes()
	require.NoError(t, err)
	data = append(data, document...)

	res, rsp, body := exchange(t, e, data)

	assert.Equal(t, StatusOk, res.Status)
	assert.Equal(t, StatusOk, rsp.Status())
	assert.Equal(t, document, received)
	assert.Equal(t, "receipt", string(body))
}

func TestEngineContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEngine()

	msg := NewGetPrinterAttributesRequest(testPrinterURI)
	data, err := msg.EncodeBytes()
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = e.Exchange(ctx, bytes.NewReader(data), &out)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, out.Len())
}

func TestEngineVersions(t *testing.T) {
	e := NewEngine()
	e.SetVersions(MakeVersion(2, 0))

	msg := NewGetPrinterAttributesRequest(testPrinterURI)
	msg.Version = MakeVersion(1, 1)
	data, err := msg.EncodeBytes()
	require.NoError(t, err)

	res, rsp, _ := exchange(t, e, data)

	assert.Equal(t, StatusErrorVersionNotSupported, res.Status)
	// The answer speaks the highest supported version
	assert.Equal(t, MakeVersion(2, 0), rsp.Version)
}
