/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * Message encoder
 */

package ipp

import (
	"fmt"
	"io"
)

// maxFieldLen is the limit a 16-bit length prefix puts on attribute
// names and value bytes.
const maxFieldLen = 0xffff

// messageEncoder encodes a message into its exact wire form: the
// byte-for-byte inverse of the decoder. Multi-valued attributes are
// flattened back into the empty-name continuation form, collections
// are re-wrapped into begCollection/memberAttrName/endCollection runs.
type messageEncoder struct {
	out io.Writer // Output stream
}

// encode writes the message.
func (me *messageEncoder) encode(m *Message) error {
	// Wire format:
	//
	//   2 bytes:  Version
	//   2 bytes:  Code (Op or Status)
	//   4 bytes:  RequestID
	//   variable: attribute groups
	//   1 byte:   TagEnd

	err := me.encodeU16(uint16(m.Version))
	if err == nil {
		err = me.encodeU16(uint16(m.Code))
	}
	if err == nil {
		err = me.encodeU32(m.RequestID)
	}

	for i := 0; err == nil && i < len(m.Groups); i++ {
		grp := m.Groups[i]

		if !grp.Tag.IsGroup() {
			return fmt.Errorf("tag %s cannot open a group", grp.Tag)
		}

		err = me.encodeTag(grp.Tag)
		for j := 0; err == nil && j < len(grp.Attrs); j++ {
			attr := grp.Attrs[j]
			if attr.Name == "" {
				return fmt.Errorf("attribute without a name in group %s",
					grp.Tag)
			}
			err = me.encodeAttr(attr, true)
		}
	}

	if err == nil {
		err = me.encodeTag(TagEnd)
	}

	return err
}

// encodeAttr encodes one attribute. Additional values are written as
// attributes with a zero-length name. checkTag is off only for the
// pseudo-attributes the collection encoder emits itself.
func (me *messageEncoder) encodeAttr(attr Attribute, checkTag bool) error {
	// Wire format:
	//
	//	1 byte:   Tag
	//	2 bytes:  len(Name)
	//	variable: Name
	//	2 bytes:  len(Value)
	//	variable: Value
	if len(attr.Values) == 0 {
		return fmt.Errorf("attribute %q without values", attr.Name)
	}

	name := attr.Name
	for _, val := range attr.Values {
		tag := val.T

		if checkTag {
			if tag.IsDelimiter() || tag == TagMemberName ||
				tag == TagEndCollection {
				return fmt.Errorf("tag %s cannot carry a value", tag)
			}
		}

		err := me.encodeTag(tag)
		if err != nil {
			return err
		}

		err = me.encodeName(name)
		if err != nil {
			return err
		}

		err = me.encodeValue(tag, val.V)
		if err != nil {
			return err
		}

		name = "" // Each additional value goes without a name
	}

	return nil
}

func (me *messageEncoder) encodeU8(v uint8) error {
	return me.write([]byte{v})
}

func (me *messageEncoder) encodeU16(v uint16) error {
	return me.write([]byte{byte(v >> 8), byte(v)})
}

func (me *messageEncoder) encodeU32(v uint32) error {
	return me.write([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

func (me *messageEncoder) encodeTag(tag Tag) error {
	return me.encodeU8(byte(tag))
}

func (me *messageEncoder) encodeName(name string) error {
	if len(name) > maxFieldLen {
		return fmt.Errorf("attribute name exceeds %d bytes", maxFieldLen)
	}

	err := me.encodeU16(uint16(len(name)))
	if err == nil {
		err = me.write([]byte(name))
	}

	return err
}

func (me *messageEncoder) encodeValue(tag Tag, v Value) error {
	// Check the value type against the tag. Out-of-band tags ignore
	// the supplied value entirely; unknown tags are representable
	// only as Binary (the opaque-preservation decode policy).
	switch tagType := tag.Type(); {
	case tagType == TypeVoid:
		v = Void{}
	case tagType == TypeInvalid:
		if v.Type() != TypeBinary {
			return fmt.Errorf("tag 0x%2.2x: Binary value required, %s present",
				uint8(tag), v.Type())
		}
	case tagType != v.Type():
		return fmt.Errorf("tag %s: %s value required, %s present",
			tag, tagType, v.Type())
	}

	data, err := v.encode()
	if err != nil {
		return err
	}

	if len(data) > maxFieldLen {
		return fmt.Errorf("attribute value exceeds %d bytes", maxFieldLen)
	}

	err = me.encodeU16(uint16(len(data)))
	if err == nil {
		err = me.write(data)
	}
	if err != nil {
		return err
	}

	if collection, ok := v.(Collection); ok {
		return me.encodeCollection(collection)
	}

	return nil
}

// encodeCollection writes the members of a collection value as the
// memberAttrName/value runs that follow the begCollection slot, closed
// by endCollection.
func (me *messageEncoder) encodeCollection(collection Collection) error {
	for _, attr := range collection {
		if attr.Name == "" {
			return fmt.Errorf("collection member without a name")
		}

		memberName := MakeAttribute("", TagMemberName, String(attr.Name))

		err := me.encodeAttr(memberName, false)
		if err == nil {
			err = me.encodeAttr(Attribute{Values: attr.Values}, true)
		}

		if err != nil {
			return err
		}
	}

	return me.encodeAttr(MakeAttribute("", TagEndCollection, Void{}), false)
}

// write pushes raw bytes to the output stream.
func (me *messageEncoder) write(data []byte) error {
	for len(data) > 0 {
		n, err := me.out.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}

	return nil
}
