/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * Protocol messages
 */

package ipp

import (
	"bytes"
	"fmt"
	"io"
)

// ContentType is the HTTP content type for IPP messages.
const ContentType = "application/ipp"

// msgHdrSize is the size of the fixed message header: version (2),
// code (2) and request-id (4).
const msgHdrSize = 8

// Code is the 16-bit field shared by requests and responses. In a
// request it holds an [Op], in a response a [Status].
type Code uint16

// Version is a protocol version: major and minor single-byte parts
// packed into one 16-bit word.
type Version uint16

// DefaultVersion is the version used by request constructors (IPP 2.0).
const DefaultVersion Version = 0x0200

// MakeVersion packs major and minor parts into a Version.
func MakeVersion(major, minor uint8) Version {
	return Version(major)<<8 | Version(minor)
}

// Major returns the major part of the version.
func (v Version) Major() uint8 {
	return uint8(v >> 8)
}

// Minor returns the minor part of the version.
func (v Version) Minor() uint8 {
	return uint8(v)
}

// String converts the version to a string (i.e., "2.0").
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// Message is a single IPP message, either a client request or a server
// response. Which of the two it is determines the interpretation of
// Code; the wire form is otherwise identical.
//
// A message owns its groups and attributes outright. Document data is
// not part of the message: on decode it remains unconsumed on the
// input reader, on encode the caller writes it after the message.
type Message struct {
	Version   Version // Protocol version
	Code      Code    // Op in a request, Status in a response
	RequestID uint32  // Chosen by the client, echoed by the server
	Groups    Groups  // Ordered attribute groups
}

// NewRequest creates a new request message.
func NewRequest(v Version, op Op, id uint32) *Message {
	return &Message{
		Version:   v,
		Code:      Code(op),
		RequestID: id,
	}
}

// NewResponse creates a new response message.
func NewResponse(v Version, status Status, id uint32) *Message {
	return &Message{
		Version:   v,
		Code:      Code(status),
		RequestID: id,
	}
}

// Op returns the message code interpreted as an operation code.
func (m *Message) Op() Op {
	return Op(m.Code)
}

// Status returns the message code interpreted as a status code.
func (m *Message) Status() Status {
	return Status(m.Code)
}

// Group returns the first group with the given delimiter tag, or nil.
func (m *Message) Group(tag Tag) *Group {
	return m.Groups.Get(tag)
}

// AddGroup appends a new group with the given tag and attributes and
// returns a pointer to it.
func (m *Message) AddGroup(tag Tag, attrs ...Attribute) *Group {
	m.Groups.Add(Group{Tag: tag, Attrs: attrs})
	return &m.Groups[len(m.Groups)-1]
}

// OperationAttrs returns the attributes of the first
// operation-attributes group, or nil if the group is absent.
func (m *Message) OperationAttrs() Attributes {
	if g := m.Group(TagOperationGroup); g != nil {
		return g.Attrs
	}
	return nil
}

// Equal performs a deep equality check of two messages, including
// group order, multi-value grouping and nested collections.
func (m *Message) Equal(m2 *Message) bool {
	return m.Version == m2.Version &&
		m.Code == m2.Code &&
		m.RequestID == m2.RequestID &&
		m.Groups.Equal(m2.Groups)
}

// Reset returns the message to its initial empty state.
func (m *Message) Reset() {
	*m = Message{}
}

// Encode writes the wire form of the message to out. Encoding is total
// for well-formed messages; it fails only on transport write errors or
// when the message violates the model (an unnamed group-level
// attribute, an oversized name or value).
func (m *Message) Encode(out io.Writer) error {
	me := messageEncoder{out: out}
	return me.encode(m)
}

// EncodeBytes encodes the message into a byte slice.
func (m *Message) EncodeBytes() ([]byte, error) {
	var buf bytes.Buffer

	err := m.Encode(&buf)
	return buf.Bytes(), err
}

// Decode reads a message from in with default decoder options.
//
// Decode consumes exactly the message: after a successful return the
// reader is positioned at the first byte of document data, if any.
// On failure the returned error is a *DecodeError wrapping one of the
// package sentinel errors.
func (m *Message) Decode(in io.Reader) error {
	return m.DecodeEx(in, DecoderOptions{})
}

// DecodeEx reads a message from in with explicit decoder options.
func (m *Message) DecodeEx(in io.Reader, opt DecoderOptions) error {
	md := messageDecoder{
		in:  in,
		opt: opt,
	}

	m.Reset()
	return md.decode(m)
}

// DecodeBytes decodes a message from a byte slice.
func (m *Message) DecodeBytes(data []byte) error {
	return m.Decode(bytes.NewReader(data))
}

// Print pretty-prints the message. The request parameter selects
// whether Code prints as an operation or as a status.
func (m *Message) Print(out io.Writer, request bool) {
	fmt.Fprintf(out, "{\n")
	fmt.Fprintf(out, "%sVERSION %s\n", printIndent, m.Version)

	if request {
		fmt.Fprintf(out, "%sOPERATION %s\n", printIndent, m.Op())
	} else {
		fmt.Fprintf(out, "%sSTATUS %s\n", printIndent, m.Status())
	}

	for _, grp := range m.Groups {
		fmt.Fprintf(out, "\n%sGROUP %s\n", printIndent, grp.Tag)
		for _, attr := range grp.Attrs {
			m.printAttribute(out, attr, 1)
			fmt.Fprintf(out, "\n")
		}
	}

	fmt.Fprintf(out, "}\n")
}

const printIndent = "    "

// printAttribute pretty-prints one attribute, recursing into
// collections.
func (m *Message) printAttribute(out io.Writer, attr Attribute, indent int) {
	m.printIndentation(out, indent)
	fmt.Fprintf(out, "ATTR %q", attr.Name)

	tag := TagZero
	for _, val := range attr.Values {
		if val.T != tag {
			fmt.Fprintf(out, " %s:", val.T)
			tag = val.T
		}

		if collection, ok := val.V.(Collection); ok {
			fmt.Fprintf(out, " {\n")
			for _, member := range collection {
				m.printAttribute(out, member, indent+1)
				fmt.Fprintf(out, "\n")
			}
			m.printIndentation(out, indent)
			fmt.Fprintf(out, "}")
		} else {
			fmt.Fprintf(out, " %s", val.V)
		}
	}
}

func (m *Message) printIndentation(out io.Writer, indent int) {
	for i := 0; i < indent; i++ {
		io.WriteString(out, printIndent)
	}
}
