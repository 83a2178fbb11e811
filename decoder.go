/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * Message decoder
 */

package ipp

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DefaultMaxCollectionDepth is the collection nesting bound applied
// when DecoderOptions.MaxCollectionDepth is left zero.
const DefaultMaxCollectionDepth = 16

// DecoderOptions adjusts message decoding.
type DecoderOptions struct {
	// MaxCollectionDepth bounds the nesting of collection values.
	// The wire format itself puts no bound on nesting, so a bound is
	// imposed here to keep adversarial input from exhausting the
	// stack; exceeding it fails the decode with ErrRecursionLimit.
	// Zero selects DefaultMaxCollectionDepth.
	MaxCollectionDepth int

	// OpaqueUnknownTags selects the forward-compatibility policy for
	// value tags this package does not know: when set, such values
	// are preserved as [Binary] and re-encode byte-identically.
	// When unset (the default) an unknown tag fails the decode with
	// ErrUnknownTag.
	OpaqueUnknownTags bool
}

// maxCollectionDepth returns the effective nesting bound.
func (opt DecoderOptions) maxCollectionDepth() int {
	if opt.MaxCollectionDepth > 0 {
		return opt.MaxCollectionDepth
	}
	return DefaultMaxCollectionDepth
}

// messageDecoder decodes a single message from an input stream in one
// pass. It reads exactly through the end-of-attributes tag and never
// touches the bytes that follow, so trailing document data stays on
// the reader for the caller.
type messageDecoder struct {
	in  io.Reader      // Input stream
	off int            // Offset of the last read
	cnt int            // Count of consumed bytes
	opt DecoderOptions // Decoding options
}

// decode reads the message. All failures are wrapped into *DecodeError
// carrying the byte offset of the failed read.
func (md *messageDecoder) decode(m *Message) error {
	// Wire format:
	//
	//   2 bytes:  Version
	//   2 bytes:  Code (Op or Status)
	//   4 bytes:  RequestID
	//   variable: attribute groups
	//   1 byte:   TagEnd

	err := md.decodeHeader(m)
	if err == nil {
		err = md.decodeGroups(m)
	}

	if err != nil {
		return &DecodeError{Offset: md.off, Err: err}
	}

	return nil
}

func (md *messageDecoder) decodeHeader(m *Message) error {
	v, err := md.decodeU16()
	if err != nil {
		return err
	}
	m.Version = Version(v)

	c, err := md.decodeU16()
	if err != nil {
		return err
	}
	m.Code = Code(c)

	id, err := md.decodeU32()
	if err != nil {
		return err
	}
	m.RequestID = id

	return nil
}

func (md *messageDecoder) decodeGroups(m *Message) error {
	var group *Group    // Group being filled
	var prev *Attribute // Last named attribute, continuation target

	for {
		tag, err := md.decodeTag()
		if err != nil {
			return err
		}

		if tag == TagEnd {
			return nil
		}

		if tag == TagZero {
			return fmt.Errorf("%w: invalid tag 0x00",
				ErrMalformedStream)
		}

		if tag.IsGroup() {
			m.Groups.Add(Group{Tag: tag})
			group = &m.Groups[len(m.Groups)-1]
			prev = nil
			continue
		}

		// A value tag: the attribute layout follows
		if group == nil {
			return fmt.Errorf("%w: value tag %s before any attribute group",
				ErrMalformedStream, tag)
		}

		if tag == TagMemberName || tag == TagEndCollection {
			return fmt.Errorf("%w: unexpected %s outside of collection",
				ErrMalformedStream, tag)
		}

		name, data, err := md.decodeAttrRaw()
		if err != nil {
			return err
		}

		val, err := md.decodeValue(tag, data)
		if err != nil {
			return err
		}

		if tag == TagBeginCollection {
			val, err = md.decodeCollection(1)
			if err != nil {
				return err
			}
		}

		if name == "" {
			// Zero-length name continues the preceding attribute
			if prev == nil {
				return fmt.Errorf("%w: additional value without preceding attribute",
					ErrMalformedStream)
			}
			if err = prev.Append(tag, val); err != nil {
				return err
			}
			continue
		}

		group.Add(MakeAttribute(name, tag, val))
		prev = &group.Attrs[len(group.Attrs)-1]
	}
}

// decodeCollection parses the member attributes of a collection value
// up to and including the matching endCollection.
//
// Wire form of a collection attribute:
//
//	ATTR: Tag = TagBeginCollection,            - the outer attribute;
//	      Name = collection name, empty value    parsed by the caller
//
//	ATTR: Tag = TagMemberName, name = "",      - member name  \
//	      value = name of the next member                      | repeated
//	ATTR: Tag = any value tag, name = "",      - member value, | per member
//	      repeated for multi-valued members                   /
//
//	ATTR: Tag = TagEndCollection, name = "", empty value
//
// Nested collections recurse through this function; depth carries the
// current nesting level and is checked against the configured bound.
func (md *messageDecoder) decodeCollection(depth int) (Value, error) {
	if depth > md.opt.maxCollectionDepth() {
		return nil, fmt.Errorf("%w: nesting deeper than %d",
			ErrRecursionLimit, md.opt.maxCollectionDepth())
	}

	collection := make(Collection, 0)
	memberName := ""

	for {
		tag, err := md.decodeTag()
		if err != nil {
			return nil, err
		}

		if tag.IsDelimiter() {
			return nil, fmt.Errorf("%w: unexpected %s inside collection",
				ErrMalformedStream, tag)
		}

		if (tag == TagMemberName || tag == TagEndCollection) &&
			memberName != "" {
			return nil, fmt.Errorf("%w: unexpected %s, expected value tag",
				ErrMalformedStream, tag)
		}

		name, data, err := md.decodeAttrRaw()
		if err != nil {
			return nil, err
		}

		if name != "" {
			return nil, fmt.Errorf("%w: named attribute %q inside collection",
				ErrMalformedStream, name)
		}

		val, err := md.decodeValue(tag, data)
		if err != nil {
			return nil, err
		}

		switch tag {
		case TagEndCollection:
			return collection, nil

		case TagMemberName:
			memberName = string(val.(String))
			if memberName == "" {
				return nil, fmt.Errorf("%w: empty %s value",
					ErrMalformedStream, tag)
			}

		case TagBeginCollection:
			val, err = md.decodeCollection(depth + 1)
			if err != nil {
				return nil, err
			}
			fallthrough

		default:
			switch {
			case memberName != "":
				collection.Add(MakeAttribute(memberName, tag, val))
				memberName = ""
			case len(collection) > 0:
				last := &collection[len(collection)-1]
				if err = last.Append(tag, val); err != nil {
					return nil, err
				}
			default:
				return nil, fmt.Errorf("%w: %s value without preceding %s",
					ErrMalformedStream, tag, TagMemberName)
			}
		}
	}
}

// decodeValue decodes value bytes per tag, applying the unknown-tag
// policy from the decoder options.
func (md *messageDecoder) decodeValue(tag Tag, data []byte) (Value, error) {
	if tag.Type() == TypeInvalid {
		if md.opt.OpaqueUnknownTags {
			v := make(Binary, len(data))
			copy(v, data)
			return v, nil
		}
		return nil, fmt.Errorf("%w: 0x%2.2x", ErrUnknownTag, uint8(tag))
	}

	return decodeValue(tag, data)
}

// decodeAttrRaw reads the name and value fields of one attribute.
//
// Wire format:
//
//	2+N bytes: name length (2 bytes) + name
//	2+N bytes: value length (2 bytes) + value bytes
func (md *messageDecoder) decodeAttrRaw() (string, []byte, error) {
	name, err := md.decodeBytes()
	if err != nil {
		return "", nil, err
	}

	value, err := md.decodeBytes()
	if err != nil {
		return "", nil, err
	}

	return string(name), value, nil
}

func (md *messageDecoder) decodeTag() (Tag, error) {
	t, err := md.decodeU8()
	return Tag(t), err
}

func (md *messageDecoder) decodeU8() (uint8, error) {
	buf := make([]byte, 1)
	err := md.read(buf)
	return buf[0], err
}

func (md *messageDecoder) decodeU16() (uint16, error) {
	buf := make([]byte, 2)
	err := md.read(buf)
	return binary.BigEndian.Uint16(buf), err
}

func (md *messageDecoder) decodeU32() (uint32, error) {
	buf := make([]byte, 4)
	err := md.read(buf)
	return binary.BigEndian.Uint32(buf), err
}

// decodeBytes reads one 16-bit length-prefixed field.
func (md *messageDecoder) decodeBytes() ([]byte, error) {
	length, err := md.decodeU16()
	if err != nil {
		return nil, err
	}

	data := make([]byte, length)
	err = md.read(data)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// read fills data from the input stream. A clean end of input while
// bytes are still required maps to ErrUnexpectedEOF; any other reader
// failure propagates as-is, letting the caller distinguish transport
// faults from protocol truncation.
func (md *messageDecoder) read(data []byte) error {
	md.off = md.cnt

	for len(data) > 0 {
		n, err := md.in.Read(data)
		if n > 0 {
			md.cnt += n
			data = data[n:]
			continue
		}

		md.off = md.cnt
		if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
			err = ErrUnexpectedEOF
		}
		return err
	}

	return nil
}
