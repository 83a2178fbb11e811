/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * Message attributes
 */

package ipp

import (
	"bytes"
	"fmt"
)

// Values is the payload of an attribute: one or more values, each
// carrying its value tag. All values of a well-formed attribute share
// a single tag; the wire encodes additional values as attributes with
// a zero-length name.
type Values []struct {
	T Tag   // The value tag
	V Value // The value
}

// Add appends a value to Values without a tag consistency check.
// Use (*Attribute).Append when the invariant must be enforced.
func (values *Values) Add(t Tag, v Value) {
	*values = append(*values, struct {
		T Tag
		V Value
	}{t, v})
}

// String converts Values to string.
func (values Values) String() string {
	if len(values) == 1 {
		return values[0].V.String()
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range values {
		if i != 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(v.V.String())
	}
	buf.WriteByte(']')

	return buf.String()
}

// Equal performs a deep equality check of two Values.
func (values Values) Equal(values2 Values) bool {
	if len(values) != len(values2) {
		return false
	}

	for i, v := range values {
		v2 := values2[i]
		if v.T != v2.T || !ValueEqual(v.V, v2.V) {
			return false
		}
	}

	return true
}

// Attribute is a named, possibly multi-valued attribute.
type Attribute struct {
	Name   string // Attribute name
	Values Values // One or more values sharing one tag
}

// MakeAttribute makes an Attribute with a single value.
func MakeAttribute(name string, tag Tag, value Value) Attribute {
	attr := Attribute{Name: name}
	attr.Values.Add(tag, value)
	return attr
}

// MakeAttr makes an Attribute with one or more values sharing a tag.
func MakeAttr(name string, tag Tag, val1 Value, values ...Value) Attribute {
	attr := Attribute{Name: name}
	attr.Values.Add(tag, val1)
	for _, val := range values {
		attr.Values.Add(tag, val)
	}
	return attr
}

// MakeAttrCollection makes an Attribute holding a Collection value.
func MakeAttrCollection(name string, members ...Attribute) Attribute {
	col := make(Collection, len(members))
	copy(col, members)

	return MakeAttribute(name, TagBeginCollection, col)
}

// Append adds an additional value to the attribute, enforcing that its
// tag matches the tag of the values already present. A mismatch fails
// with ErrTagMismatch.
func (a *Attribute) Append(tag Tag, v Value) error {
	if len(a.Values) > 0 && a.Values[0].T != tag {
		return fmt.Errorf("%w: attribute %q is %s, additional value is %s",
			ErrTagMismatch, a.Name, a.Values[0].T, tag)
	}

	a.Values.Add(tag, v)
	return nil
}

// Tag returns the shared value tag of the attribute, or TagZero if the
// attribute has no values yet.
func (a Attribute) Tag() Tag {
	if len(a.Values) == 0 {
		return TagZero
	}
	return a.Values[0].T
}

// Equal reports whether two attributes have the same name and equal
// values in the same order.
func (a Attribute) Equal(a2 Attribute) bool {
	return a.Name == a2.Name && a.Values.Equal(a2.Values)
}

// Attributes is an ordered sequence of attributes.
type Attributes []Attribute

// Add appends an attribute.
func (attrs *Attributes) Add(attr Attribute) {
	*attrs = append(*attrs, attr)
}

// Get returns the first attribute with the given name, or nil.
func (attrs Attributes) Get(name string) *Attribute {
	for i := range attrs {
		if attrs[i].Name == name {
			return &attrs[i]
		}
	}
	return nil
}

// Equal performs a deep, order-sensitive equality check.
func (attrs Attributes) Equal(attrs2 Attributes) bool {
	if len(attrs) != len(attrs2) {
		return false
	}

	for i, attr := range attrs {
		if !attr.Equal(attrs2[i]) {
			return false
		}
	}

	return true
}
