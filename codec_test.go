/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * Message codec tests
 */

package ipp

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// wire assembles raw message bytes for decoder tests.
type wire struct {
	bytes.Buffer
}

func (w *wire) u8(v uint8)   { w.WriteByte(v) }
func (w *wire) u16(v uint16) { w.Write([]byte{byte(v >> 8), byte(v)}) }
func (w *wire) u32(v uint32) {
	w.Write([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

func (w *wire) header(v Version, code Code, id uint32) {
	w.u16(uint16(v))
	w.u16(uint16(code))
	w.u32(id)
}

func (w *wire) attr(tag Tag, name string, value []byte) {
	w.u8(uint8(tag))
	w.u16(uint16(len(name)))
	w.WriteString(name)
	w.u16(uint16(len(value)))
	w.Write(value)
}

// TestDecodeGetPrinterAttributes decodes a hand-assembled
// Get-Printer-Attributes request and checks every field of the result.
func TestDecodeGetPrinterAttributes(t *testing.T) {
	var w wire
	w.header(MakeVersion(1, 1), Code(OpGetPrinterAttributes), 42)
	w.u8(uint8(TagOperationGroup))
	w.attr(TagCharset, "attributes-charset", []byte("utf-8"))
	w.attr(TagLanguage, "attributes-natural-language", []byte("en"))
	w.attr(TagURI, "printer-uri", []byte("ipp://host/printers/q"))
	w.u8(uint8(TagEnd))

	var msg Message
	if err := msg.DecodeBytes(w.Bytes()); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if msg.Version != MakeVersion(1, 1) {
		t.Errorf("version: %s, expected 1.1", msg.Version)
	}
	if msg.Op() != OpGetPrinterAttributes {
		t.Errorf("operation: %s, expected Get-Printer-Attributes", msg.Op())
	}
	if msg.RequestID != 42 {
		t.Errorf("request id: %d, expected 42", msg.RequestID)
	}

	expected := Groups{
		{
			Tag: TagOperationGroup,
			Attrs: Attributes{
				MakeAttribute("attributes-charset",
					TagCharset, String("utf-8")),
				MakeAttribute("attributes-natural-language",
					TagLanguage, String("en")),
				MakeAttribute("printer-uri",
					TagURI, String("ipp://host/printers/q")),
			},
		},
	}

	if !msg.Groups.Equal(expected) {
		t.Errorf("groups mismatch:\ngot:      %#v\nexpected: %#v",
			msg.Groups, expected)
	}
}

// TestDecodeMultiValue tests that an attribute with an empty name
// extends the preceding attribute, and that the value tags must agree.
func TestDecodeMultiValue(t *testing.T) {
	var w wire
	w.header(DefaultVersion, Code(OpPrintJob), 1)
	w.u8(uint8(TagOperationGroup))
	w.attr(TagInteger, "x", []byte{0, 0, 0, 1})
	w.attr(TagInteger, "", []byte{0, 0, 0, 2})
	w.u8(uint8(TagEnd))

	var msg Message
	if err := msg.DecodeBytes(w.Bytes()); err != nil {
		t.Fatalf("decode: %v", err)
	}

	attrs := msg.Group(TagOperationGroup).Attrs
	if len(attrs) != 1 {
		t.Fatalf("decoded %d attributes, expected 1", len(attrs))
	}

	expected := MakeAttr("x", TagInteger, Integer(1), Integer(2))
	if !attrs[0].Equal(expected) {
		t.Errorf("attribute: %#v, expected %#v", attrs[0], expected)
	}
}

// TestDecodeErrors feeds the decoder malformed streams and checks
// the error classification.
func TestDecodeErrors(t *testing.T) {
	type testData struct {
		name  string        // Test name
		build func(w *wire) // Stream builder
		err   error         // Expected error sentinel
	}

	tests := []testData{
		{
			name: "truncated header",
			build: func(w *wire) {
				w.u16(uint16(DefaultVersion))
				w.u8(0)
			},
			err: ErrUnexpectedEOF,
		},
		{
			name: "missing end tag",
			build: func(w *wire) {
				w.header(DefaultVersion, Code(OpPrintJob), 1)
				w.u8(uint8(TagOperationGroup))
				w.attr(TagInteger, "copies", []byte{0, 0, 0, 1})
			},
			err: ErrUnexpectedEOF,
		},
		{
			name: "truncated value",
			build: func(w *wire) {
				w.header(DefaultVersion, Code(OpPrintJob), 1)
				w.u8(uint8(TagOperationGroup))
				w.u8(uint8(TagInteger))
				w.u16(1)
				w.WriteString("x")
				w.u16(10)
				w.Write([]byte{0, 0, 0, 1})
			},
			err: ErrUnexpectedEOF,
		},
		{
			name: "leading empty name",
			build: func(w *wire) {
				w.header(DefaultVersion, Code(OpPrintJob), 1)
				w.u8(uint8(TagOperationGroup))
				w.attr(TagInteger, "", []byte{0, 0, 0, 1})
				w.u8(uint8(TagEnd))
			},
			err: ErrMalformedStream,
		},
		{
			name: "value before group delimiter",
			build: func(w *wire) {
				w.header(DefaultVersion, Code(OpPrintJob), 1)
				w.attr(TagInteger, "x", []byte{0, 0, 0, 1})
				w.u8(uint8(TagEnd))
			},
			err: ErrMalformedStream,
		},
		{
			name: "zero tag",
			build: func(w *wire) {
				w.header(DefaultVersion, Code(OpPrintJob), 1)
				w.u8(uint8(TagZero))
				w.u8(uint8(TagEnd))
			},
			err: ErrMalformedStream,
		},
		{
			name: "continuation tag mismatch",
			build: func(w *wire) {
				w.header(DefaultVersion, Code(OpPrintJob), 1)
				w.u8(uint8(TagOperationGroup))
				w.attr(TagInteger, "x", []byte{0, 0, 0, 1})
				w.attr(TagBoolean, "", []byte{1})
				w.u8(uint8(TagEnd))
			},
			err: ErrTagMismatch,
		},
		{
			name: "stray member name",
			build: func(w *wire) {
				w.header(DefaultVersion, Code(OpPrintJob), 1)
				w.u8(uint8(TagOperationGroup))
				w.attr(TagMemberName, "", []byte("media"))
				w.u8(uint8(TagEnd))
			},
			err: ErrMalformedStream,
		},
		{
			name: "stray end collection",
			build: func(w *wire) {
				w.header(DefaultVersion, Code(OpPrintJob), 1)
				w.u8(uint8(TagOperationGroup))
				w.attr(TagEndCollection, "", nil)
				w.u8(uint8(TagEnd))
			},
			err: ErrMalformedStream,
		},
		{
			name: "bad value layout",
			build: func(w *wire) {
				w.header(DefaultVersion, Code(OpPrintJob), 1)
				w.u8(uint8(TagOperationGroup))
				w.attr(TagInteger, "x", []byte{0, 0, 1})
				w.u8(uint8(TagEnd))
			},
			err: ErrMalformedValue,
		},
		{
			name: "unknown value tag",
			build: func(w *wire) {
				w.header(DefaultVersion, Code(OpPrintJob), 1)
				w.u8(uint8(TagOperationGroup))
				w.attr(Tag(0x77), "x", []byte{1, 2, 3})
				w.u8(uint8(TagEnd))
			},
			err: ErrUnknownTag,
		},
	}

	for _, test := range tests {
		var w wire
		test.build(&w)

		var msg Message
		err := msg.DecodeBytes(w.Bytes())

		if !errors.Is(err, test.err) {
			t.Errorf("%s: error %v, expected %v", test.name, err, test.err)
			continue
		}

		var de *DecodeError
		if !errors.As(err, &de) {
			t.Errorf("%s: error is not a *DecodeError: %v", test.name, err)
		}
	}
}

// TestDecodeErrorOffset tests that the reported offset tells whether
// the header was decoded before the failure.
func TestDecodeErrorOffset(t *testing.T) {
	var w wire
	w.header(MakeVersion(1, 1), Code(OpPrintJob), 7)
	w.u8(uint8(TagOperationGroup))
	w.attr(TagInteger, "x", []byte{0, 0, 1}) // short integer

	var msg Message
	err := msg.DecodeBytes(w.Bytes())

	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error is not a *DecodeError: %v", err)
	}
	if de.Offset < msgHdrSize {
		t.Errorf("offset 0x%x, expected at least 0x%x",
			de.Offset, msgHdrSize)
	}

	// The header fields must survive the failure so that a caller
	// can still build an error response.
	if msg.Version != MakeVersion(1, 1) || msg.RequestID != 7 {
		t.Errorf("header lost: version %s, request id %d",
			msg.Version, msg.RequestID)
	}
}

// TestDecodeDocumentData tests that decoding stops at the
// end-of-attributes tag and leaves the document bytes unconsumed.
func TestDecodeDocumentData(t *testing.T) {
	document := []byte("%PDF-1.7 pretend document")

	var w wire
	w.header(DefaultVersion, Code(OpPrintJob), 3)
	w.u8(uint8(TagOperationGroup))
	w.attr(TagCharset, "attributes-charset", []byte("utf-8"))
	w.u8(uint8(TagEnd))
	w.Write(document)

	in := bytes.NewReader(w.Bytes())

	var msg Message
	if err := msg.Decode(in); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rest, _ := io.ReadAll(in)
	if !bytes.Equal(rest, document) {
		t.Errorf("remaining bytes %q, expected %q", rest, document)
	}
}

// TestDecodeOpaqueUnknownTags tests the opt-in policy that preserves
// values with unknown tags as opaque octets, and that such values
// re-encode to the original bytes.
func TestDecodeOpaqueUnknownTags(t *testing.T) {
	var w wire
	w.header(DefaultVersion, Code(OpPrintJob), 1)
	w.u8(uint8(TagOperationGroup))
	w.attr(Tag(0x77), "future-attr", []byte{1, 2, 3})
	w.u8(uint8(TagEnd))

	opt := DecoderOptions{OpaqueUnknownTags: true}

	var msg Message
	if err := msg.DecodeEx(bytes.NewReader(w.Bytes()), opt); err != nil {
		t.Fatalf("decode: %v", err)
	}

	attr := msg.Group(TagOperationGroup).Attrs.Get("future-attr")
	if attr == nil {
		t.Fatalf("attribute not decoded")
	}

	expected := MakeAttribute("future-attr", Tag(0x77), Binary{1, 2, 3})
	if !attr.Equal(expected) {
		t.Errorf("attribute: %#v, expected %#v", *attr, expected)
	}

	data, err := msg.EncodeBytes()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(data, w.Bytes()) {
		t.Errorf("re-encode changed bytes:\ngot:      % x\nexpected: % x",
			data, w.Bytes())
	}
}

// TestDecodeRecursionLimit tests the bound on collection nesting.
func TestDecodeRecursionLimit(t *testing.T) {
	// Build a collection nested 3 levels deep
	var w wire
	w.header(DefaultVersion, Code(OpPrintJob), 1)
	w.u8(uint8(TagJobGroup))
	w.attr(TagBeginCollection, "media-col", nil)
	for i := 0; i < 2; i++ {
		w.attr(TagMemberName, "", []byte("inner"))
		w.attr(TagBeginCollection, "", nil)
	}
	w.attr(TagMemberName, "", []byte("leaf"))
	w.attr(TagInteger, "", []byte{0, 0, 0, 1})
	for i := 0; i < 3; i++ {
		w.attr(TagEndCollection, "", nil)
	}
	w.u8(uint8(TagEnd))

	// Depth 3 decodes
	var msg Message
	opt := DecoderOptions{MaxCollectionDepth: 3}
	if err := msg.DecodeEx(bytes.NewReader(w.Bytes()), opt); err != nil {
		t.Errorf("depth limit 3: %v", err)
	}

	// Depth 2 does not
	opt.MaxCollectionDepth = 2
	err := msg.DecodeEx(bytes.NewReader(w.Bytes()), opt)
	if !errors.Is(err, ErrRecursionLimit) {
		t.Errorf("depth limit 2: error %v, expected %v",
			err, ErrRecursionLimit)
	}
}

// TestMessageEncodeDecode tests that messages survive a full
// encode/decode round trip.
func TestMessageEncodeDecode(t *testing.T) {
	type testData struct {
		name string   // Test name
		msg  *Message // Message to round-trip
	}

	simple := NewRequest(MakeVersion(1, 1), OpGetPrinterAttributes, 42)
	simple.AddGroup(TagOperationGroup,
		MakeAttribute("attributes-charset", TagCharset, String("utf-8")),
		MakeAttribute("attributes-natural-language", TagLanguage,
			String("en")),
		MakeAttribute("printer-uri", TagURI,
			String("ipp://host/printers/q")),
	)

	multi := NewResponse(DefaultVersion, StatusOk, 7)
	multi.AddGroup(TagOperationGroup,
		MakeAttribute("attributes-charset", TagCharset, String("utf-8")),
		MakeAttribute("attributes-natural-language", TagLanguage,
			String("en-US")),
	)
	multi.AddGroup(TagPrinterGroup,
		MakeAttr("sides-supported", TagKeyword,
			String("one-sided"), String("two-sided-long-edge")),
		MakeAttribute("printer-is-accepting-jobs", TagBoolean,
			Boolean(true)),
		MakeAttribute("queued-job-count", TagInteger, Integer(0)),
		MakeAttr("printer-resolution-supported", TagResolution,
			Resolution{Xres: 300, Yres: 300, Units: UnitsDpi},
			Resolution{Xres: 600, Yres: 600, Units: UnitsDpi}),
		MakeAttribute("copies-supported", TagRange,
			Range{Lower: 1, Upper: 99}),
		MakeAttribute("printer-state-message", TagTextLang,
			TextWithLang{Lang: "en", Text: "idle"}),
		MakeAttribute("device-id", TagString, Binary{0xde, 0xad}),
		MakeAttribute("job-hold-until-default", TagNoValue, Void{}),
	)

	// Two job groups, as in a Get-Jobs response
	jobs := NewResponse(DefaultVersion, StatusOk, 8)
	jobs.AddGroup(TagOperationGroup,
		MakeAttribute("attributes-charset", TagCharset, String("utf-8")),
	)
	jobs.AddGroup(TagJobGroup,
		MakeAttribute("job-id", TagInteger, Integer(1)),
	)
	jobs.AddGroup(TagJobGroup,
		MakeAttribute("job-id", TagInteger, Integer(2)),
	)

	// Collection nested two levels deep
	nested := NewRequest(DefaultVersion, OpPrintJob, 9)
	nested.AddGroup(TagOperationGroup,
		MakeAttribute("attributes-charset", TagCharset, String("utf-8")),
	)
	nested.AddGroup(TagJobGroup,
		MakeAttrCollection("media-col",
			MakeAttrCollection("media-size",
				MakeAttribute("x-dimension", TagInteger, Integer(21000)),
				MakeAttribute("y-dimension", TagInteger, Integer(29700)),
			),
			MakeAttribute("media-type", TagKeyword, String("stationery")),
		),
	)

	tests := []testData{
		{"simple request", simple},
		{"multi-group response", multi},
		{"repeated job groups", jobs},
		{"nested collections", nested},
	}

	for _, test := range tests {
		data, err := test.msg.EncodeBytes()
		if err != nil {
			t.Errorf("%s: encode: %v", test.name, err)
			continue
		}

		var decoded Message
		if err := decoded.DecodeBytes(data); err != nil {
			t.Errorf("%s: decode: %v", test.name, err)
			continue
		}

		if !decoded.Equal(test.msg) {
			t.Errorf("%s: round trip changed the message:\n"+
				"got:      %#v\nexpected: %#v",
				test.name, decoded, *test.msg)
		}
	}
}

// TestEncodeErrors tests that the encoder rejects messages that
// cannot be represented on the wire.
func TestEncodeErrors(t *testing.T) {
	type testData struct {
		name string   // Test name
		msg  *Message // Message to encode
	}

	valueTagGroup := NewRequest(DefaultVersion, OpPrintJob, 1)
	valueTagGroup.Groups.Add(Group{
		Tag: TagInteger, // not a delimiter
		Attrs: Attributes{
			MakeAttribute("x", TagInteger, Integer(1)),
		},
	})

	unnamed := NewRequest(DefaultVersion, OpPrintJob, 1)
	unnamed.AddGroup(TagOperationGroup,
		MakeAttribute("", TagInteger, Integer(1)),
	)

	delimValue := NewRequest(DefaultVersion, OpPrintJob, 1)
	delimValue.AddGroup(TagOperationGroup,
		MakeAttribute("x", TagEnd, Void{}),
	)

	tests := []testData{
		{"value tag as group tag", valueTagGroup},
		{"unnamed attribute", unnamed},
		{"delimiter tag as value tag", delimValue},
	}

	for _, test := range tests {
		if _, err := test.msg.EncodeBytes(); err == nil {
			t.Errorf("%s: encode succeeded, expected error", test.name)
		}
	}
}
