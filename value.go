/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * Typed attribute values
 */

package ipp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
	"unicode/utf8"
)

// Value represents a single attribute value.
//
// IPP values are typed, and the type of each value is unambiguously
// determined by the attribute's value tag. The concrete types behind
// this interface form a closed set: [Void], [Integer], [Boolean],
// [String], [Binary], [Time], [Resolution], [Range], [TextWithLang]
// and [Collection].
type Value interface {
	String() string
	Type() Type
	encode() ([]byte, error)
}

// ValueEqual reports whether two values are equal. Equality requires
// equal types and equal contents; collections are compared deeply.
func ValueEqual(v1, v2 Value) bool {
	if v1.Type() != v2.Type() {
		return false
	}

	switch v1.Type() {
	case TypeDateTime:
		return v1.(Time).Equal(v2.(Time).Time)
	case TypeBinary:
		return bytes.Equal(v1.(Binary), v2.(Binary))
	case TypeCollection:
		return v1.(Collection).Equal(v2.(Collection))
	}

	return v1 == v2
}

// decodeValue decodes the wire bytes of a single value according to the
// supplied tag. Every failure wraps ErrMalformedValue. Collection values
// are not handled here: on the wire a begCollection value slot is empty
// and the members follow as separate attributes, parsed by the decoder.
func decodeValue(tag Tag, data []byte) (Value, error) {
	switch tag.Type() {
	case TypeVoid:
		if len(data) != 0 {
			return nil, fmt.Errorf("%w: %s: value must be empty, got %d bytes",
				ErrMalformedValue, tag, len(data))
		}
		return Void{}, nil

	case TypeInteger:
		if len(data) != 4 {
			return nil, fmt.Errorf("%w: %s: value must be 4 bytes, got %d",
				ErrMalformedValue, tag, len(data))
		}
		return Integer(binary.BigEndian.Uint32(data)), nil

	case TypeBoolean:
		if len(data) != 1 {
			return nil, fmt.Errorf("%w: %s: value must be 1 byte, got %d",
				ErrMalformedValue, tag, len(data))
		}
		return Boolean(data[0] != 0), nil

	case TypeString:
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: %s: invalid UTF-8",
				ErrMalformedValue, tag)
		}
		return String(data), nil

	case TypeBinary:
		v := make(Binary, len(data))
		copy(v, data)
		return v, nil

	case TypeDateTime:
		return decodeTime(tag, data)

	case TypeResolution:
		if len(data) != 9 {
			return nil, fmt.Errorf("%w: %s: value must be 9 bytes, got %d",
				ErrMalformedValue, tag, len(data))
		}
		return Resolution{
			Xres:  int(int32(binary.BigEndian.Uint32(data[0:4]))),
			Yres:  int(int32(binary.BigEndian.Uint32(data[4:8]))),
			Units: Units(data[8]),
		}, nil

	case TypeRange:
		if len(data) != 8 {
			return nil, fmt.Errorf("%w: %s: value must be 8 bytes, got %d",
				ErrMalformedValue, tag, len(data))
		}
		v := Range{
			Lower: int(int32(binary.BigEndian.Uint32(data[0:4]))),
			Upper: int(int32(binary.BigEndian.Uint32(data[4:8]))),
		}
		if v.Lower > v.Upper {
			return nil, fmt.Errorf("%w: %s: lower bound %d above upper bound %d",
				ErrMalformedValue, tag, v.Lower, v.Upper)
		}
		return v, nil

	case TypeTextWithLang:
		return decodeTextWithLang(tag, data)

	case TypeCollection:
		return Collection{}, nil
	}

	return nil, fmt.Errorf("%w: 0x%2.2x", ErrUnknownTag, uint8(tag))
}

// Void is the value of the out-of-band tags (unsupported, unknown,
// no-value and friends). It carries no bytes on the wire.
type Void struct{}

// String converts Void to string.
func (Void) String() string { return "" }

// Type returns TypeVoid.
func (Void) Type() Type { return TypeVoid }

func (Void) encode() ([]byte, error) {
	return []byte{}, nil
}

// Integer is a signed 32-bit integer value.
//
// Use with: TagInteger, TagEnum
type Integer int32

// String converts Integer to string.
func (v Integer) String() string { return fmt.Sprintf("%d", int32(v)) }

// Type returns TypeInteger.
func (Integer) Type() Type { return TypeInteger }

func (v Integer) encode() ([]byte, error) {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}, nil
}

// Boolean is a true/false value.
//
// Use with: TagBoolean
type Boolean bool

// String converts Boolean to string.
func (v Boolean) String() string { return fmt.Sprintf("%t", bool(v)) }

// Type returns TypeBoolean.
func (Boolean) Type() Type { return TypeBoolean }

func (v Boolean) encode() ([]byte, error) {
	if v {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

// String is a text value. All textual tags (textWithoutLanguage,
// nameWithoutLanguage, keyword, uri, uriScheme, charset,
// naturalLanguage, mimeMediaType, memberAttrName) decode into String,
// and decoding validates that the bytes are well-formed UTF-8.
type String string

// String converts String value to string.
func (v String) String() string { return string(v) }

// Type returns TypeString.
func (String) Type() Type { return TypeString }

func (v String) encode() ([]byte, error) {
	return []byte(v), nil
}

// Binary is a raw octet string.
//
// Use with: TagString (octetString). The decoder also produces Binary
// values for unknown value tags when DecoderOptions.OpaqueUnknownTags
// is enabled.
type Binary []byte

// String converts Binary to a hex string.
func (v Binary) String() string {
	return fmt.Sprintf("%x", []byte(v))
}

// Type returns TypeBinary.
func (Binary) Type() Type { return TypeBinary }

func (v Binary) encode() ([]byte, error) {
	return []byte(v), nil
}

// Time is a dateTime value.
//
// Use with: TagDateTime
type Time struct{ time.Time }

// String converts Time to an RFC 3339 string.
func (v Time) String() string { return v.Time.Format(time.RFC3339) }

// Type returns TypeDateTime.
func (Time) Type() Type { return TypeDateTime }

func (v Time) encode() ([]byte, error) {
	// Wire format, from RFC 2579:
	//
	//     field  octets  contents                  range
	//     -----  ------  --------                  -----
	//       1      1-2   year                      0..65536
	//       2       3    month                     1..12
	//       3       4    day                       1..31
	//       4       5    hour                      0..23
	//       5       6    minutes                   0..59
	//       6       7    seconds                   0..60
	//       7       8    deci-seconds              0..9
	//       8       9    direction from UTC        '+' / '-'
	//       9      10    hours from UTC            0..13
	//      10      11    minutes from UTC          0..59

	year := v.Year()
	_, zone := v.Zone()
	dir := byte('+')
	if zone < 0 {
		zone = -zone
		dir = '-'
	}

	return []byte{
		byte(year >> 8), byte(year),
		byte(v.Month()),
		byte(v.Day()),
		byte(v.Hour()),
		byte(v.Minute()),
		byte(v.Second()),
		byte(v.Nanosecond() / 100000000),
		dir,
		byte(zone / 3600),
		byte((zone / 60) % 60),
	}, nil
}

func decodeTime(tag Tag, data []byte) (Value, error) {
	if len(data) != 11 {
		return nil, fmt.Errorf("%w: %s: value must be 11 bytes, got %d",
			ErrMalformedValue, tag, len(data))
	}

	var bad string
	switch {
	case data[2] < 1 || data[2] > 12:
		bad = fmt.Sprintf("month %d", data[2])
	case data[3] < 1 || data[3] > 31:
		bad = fmt.Sprintf("day %d", data[3])
	case data[4] > 23:
		bad = fmt.Sprintf("hours %d", data[4])
	case data[5] > 59:
		bad = fmt.Sprintf("minutes %d", data[5])
	case data[6] > 60:
		bad = fmt.Sprintf("seconds %d", data[6])
	case data[7] > 9:
		bad = fmt.Sprintf("deciseconds %d", data[7])
	case data[8] != '+' && data[8] != '-':
		bad = fmt.Sprintf("UTC sign %q", data[8])
	case data[9] > 13:
		bad = fmt.Sprintf("UTC hours %d", data[9])
	case data[10] > 59:
		bad = fmt.Sprintf("UTC minutes %d", data[10])
	}

	if bad != "" {
		return nil, fmt.Errorf("%w: %s: bad %s", ErrMalformedValue, tag, bad)
	}

	tzOff := 3600*int(data[9]) + 60*int(data[10])
	tzName := fmt.Sprintf("UTC%c%d", data[8], data[9])
	if data[10] != 0 {
		tzName += fmt.Sprintf(":%d", data[10])
	}
	if data[8] == '-' {
		tzOff = -tzOff
	}

	t := time.Date(
		int(binary.BigEndian.Uint16(data[0:2])), // year
		time.Month(data[2]),                     // month
		int(data[3]),                            // day
		int(data[4]),                            // hour
		int(data[5]),                            // min
		int(data[6]),                            // sec
		int(data[7])*100000000,                  // nsec
		time.FixedZone(tzName, tzOff),
	)

	return Time{t}, nil
}

// Units represents resolution units.
type Units uint8

// Resolution unit codes
const (
	UnitsDpi  Units = 3 // Dots per inch
	UnitsDpcm Units = 4 // Dots per cm
)

// String converts Units to string.
func (u Units) String() string {
	switch u {
	case UnitsDpi:
		return "dpi"
	case UnitsDpcm:
		return "dpcm"
	}

	return fmt.Sprintf("0x%2.2x", uint8(u))
}

// Resolution is an image resolution value.
//
// Use with: TagResolution
type Resolution struct {
	Xres, Yres int   // Cross-feed and feed direction resolutions
	Units      Units // Unit of measure
}

// String converts Resolution to string.
func (v Resolution) String() string {
	return fmt.Sprintf("%dx%d%s", v.Xres, v.Yres, v.Units)
}

// Type returns TypeResolution.
func (Resolution) Type() Type { return TypeResolution }

func (v Resolution) encode() ([]byte, error) {
	// Wire format:
	//    4 bytes: Xres
	//    4 bytes: Yres
	//    1 byte:  Units

	x, y := v.Xres, v.Yres

	return []byte{
		byte(x >> 24), byte(x >> 16), byte(x >> 8), byte(x),
		byte(y >> 24), byte(y >> 16), byte(y >> 8), byte(y),
		byte(v.Units),
	}, nil
}

// Range is a range of 32-bit signed integers. The decoder rejects
// ranges with Lower above Upper.
//
// Use with: TagRange
type Range struct {
	Lower, Upper int // Inclusive bounds
}

// String converts Range to string.
func (v Range) String() string {
	return fmt.Sprintf("%d-%d", v.Lower, v.Upper)
}

// Type returns TypeRange.
func (Range) Type() Type { return TypeRange }

func (v Range) encode() ([]byte, error) {
	// Wire format:
	//    4 bytes: Lower
	//    4 bytes: Upper

	l, u := v.Lower, v.Upper

	return []byte{
		byte(l >> 24), byte(l >> 16), byte(l >> 8), byte(l),
		byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u),
	}, nil
}

// TextWithLang is a string paired with the natural language it is
// written in. On the wire it occupies a single value slot holding two
// nested length-prefixed fields: the language, then the text.
//
// Use with: TagTextLang, TagNameLang
type TextWithLang struct {
	Lang, Text string
}

// String converts TextWithLang to string.
func (v TextWithLang) String() string { return v.Text + " [" + v.Lang + "]" }

// Type returns TypeTextWithLang.
func (TextWithLang) Type() Type { return TypeTextWithLang }

func (v TextWithLang) encode() ([]byte, error) {
	// Wire format:
	//    2 bytes:  len(Lang)
	//    variable: Lang
	//    2 bytes:  len(Text)
	//    variable: Text

	lang := []byte(v.Lang)
	text := []byte(v.Text)

	if len(lang) > maxFieldLen {
		return nil, fmt.Errorf("language exceeds %d bytes", maxFieldLen)
	}
	if len(text) > maxFieldLen {
		return nil, fmt.Errorf("text exceeds %d bytes", maxFieldLen)
	}

	data := make([]byte, 2+len(lang)+2+len(text))
	binary.BigEndian.PutUint16(data, uint16(len(lang)))
	copy(data[2:], lang)

	tail := data[2+len(lang):]
	binary.BigEndian.PutUint16(tail, uint16(len(text)))
	copy(tail[2:], text)

	return data, nil
}

// decodeTextWithLang parses the nested length-prefixed sub-format of
// the *WithLanguage tags. This is a dedicated sub-parse: the two inner
// length fields are part of the value bytes, not of the attribute
// framing.
func decodeTextWithLang(tag Tag, data []byte) (Value, error) {
	lang, rest, err := takeField(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: language: %s",
			ErrMalformedValue, tag, err)
	}

	text, rest, err := takeField(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: text: %s",
			ErrMalformedValue, tag, err)
	}

	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %s: %d extra bytes at the end of value",
			ErrMalformedValue, tag, len(rest))
	}

	if !utf8.Valid(lang) || !utf8.Valid(text) {
		return nil, fmt.Errorf("%w: %s: invalid UTF-8",
			ErrMalformedValue, tag)
	}

	return TextWithLang{Lang: string(lang), Text: string(text)}, nil
}

// takeField consumes one 16-bit length-prefixed field from data and
// returns the field bytes and the remainder.
func takeField(data []byte) (field, rest []byte, err error) {
	if len(data) < 2 {
		return nil, nil, fmt.Errorf("truncated length")
	}

	n := int(binary.BigEndian.Uint16(data[0:2]))
	data = data[2:]

	if len(data) < n {
		return nil, nil, fmt.Errorf("truncated field")
	}

	return data[:n], data[n:], nil
}

// Collection is an ordered sequence of named member attributes embedded
// as a single attribute's value. Collections nest.
//
// Use with: TagBeginCollection
type Collection Attributes

// Add appends a member attribute to the collection.
func (v *Collection) Add(attr Attribute) {
	*v = append(*v, attr)
}

// Equal performs a deep equality check of two collections.
func (v Collection) Equal(v2 Collection) bool {
	return Attributes(v).Equal(Attributes(v2))
}

// String converts Collection to string.
func (v Collection) String() string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, attr := range v {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%s=%s", attr.Name, attr.Values)
	}
	buf.WriteByte('}')

	return buf.String()
}

// Type returns TypeCollection.
func (Collection) Type() Type { return TypeCollection }

func (Collection) encode() ([]byte, error) {
	// The begCollection value slot itself is empty; members are
	// encoded as the following attributes by the encoder.
	return []byte{}, nil
}
