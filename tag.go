/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * IPP tags
 */

package ipp

import (
	"fmt"
)

// Tag is the single-byte discriminator that precedes every item in the
// attribute section of a message. Tags split into two disjoint ranges:
// delimiter tags (0x00...0x0f), which open attribute groups and terminate
// the attribute section, and value tags (0x10 and up), which type the
// value bytes that follow.
type Tag uint8

// Delimiter tags
const (
	TagZero             Tag = 0x00 // Reserved, never valid on the wire
	TagOperationGroup   Tag = 0x01 // operation-attributes-tag
	TagJobGroup         Tag = 0x02 // job-attributes-tag
	TagEnd              Tag = 0x03 // end-of-attributes-tag
	TagPrinterGroup     Tag = 0x04 // printer-attributes-tag
	TagUnsupportedGroup Tag = 0x05 // unsupported-attributes-tag

	// RFC 3995 and onwards group extensions
	TagSubscriptionGroup      Tag = 0x06 // subscription-attributes-tag
	TagEventNotificationGroup Tag = 0x07 // event-notification-attributes-tag
	TagResourceGroup          Tag = 0x08 // resource-attributes-tag
	TagDocumentGroup          Tag = 0x09 // document-attributes-tag
	TagSystemGroup            Tag = 0x0a // system-attributes-tag
)

// Value tags
const (
	// Out-of-band tags. They signal absence or inapplicability of a
	// value and always carry a zero-length value field.
	TagUnsupportedValue Tag = 0x10 // unsupported
	TagDefault          Tag = 0x11 // default
	TagUnknown          Tag = 0x12 // unknown
	TagNoValue          Tag = 0x13 // no-value
	TagNotSettable      Tag = 0x15 // not-settable
	TagDeleteAttr       Tag = 0x16 // delete-attribute
	TagAdminDefine      Tag = 0x17 // admin-define

	// Fixed-layout tags
	TagInteger    Tag = 0x21 // integer, 4 bytes
	TagBoolean    Tag = 0x22 // boolean, 1 byte
	TagEnum       Tag = 0x23 // enum, 4 bytes
	TagDateTime   Tag = 0x31 // dateTime, 11 bytes per RFC 2579
	TagResolution Tag = 0x32 // resolution, 9 bytes
	TagRange      Tag = 0x33 // rangeOfInteger, 8 bytes

	// Variable-layout tags
	TagString          Tag = 0x30 // octetString, raw bytes
	TagBeginCollection Tag = 0x34 // begCollection
	TagTextLang        Tag = 0x35 // textWithLanguage
	TagNameLang        Tag = 0x36 // nameWithLanguage
	TagEndCollection   Tag = 0x37 // endCollection
	TagText            Tag = 0x41 // textWithoutLanguage
	TagName            Tag = 0x42 // nameWithoutLanguage
	TagKeyword         Tag = 0x44 // keyword
	TagURI             Tag = 0x45 // uri
	TagURIScheme       Tag = 0x46 // uriScheme
	TagCharset         Tag = 0x47 // charset
	TagLanguage        Tag = 0x48 // naturalLanguage
	TagMimeType        Tag = 0x49 // mimeMediaType
	TagMemberName      Tag = 0x4a // memberAttrName
)

// IsDelimiter reports whether the tag falls into the delimiter range.
func (tag Tag) IsDelimiter() bool {
	return tag < 0x10
}

// IsGroup reports whether the tag opens an attribute group.
func (tag Tag) IsGroup() bool {
	return tag.IsDelimiter() && tag != TagZero && tag != TagEnd
}

// IsOutOfBand reports whether the tag is an out-of-band value tag.
func (tag Tag) IsOutOfBand() bool {
	return tag.Type() == TypeVoid && tag != TagEndCollection
}

// Type returns the value layout that corresponds to the tag,
// or TypeInvalid if the tag is not a known value tag.
func (tag Tag) Type() Type {
	switch tag {
	case TagInteger, TagEnum:
		return TypeInteger

	case TagBoolean:
		return TypeBoolean

	case TagUnsupportedValue, TagDefault, TagUnknown, TagNoValue,
		TagNotSettable, TagDeleteAttr, TagAdminDefine:
		return TypeVoid

	case TagText, TagName, TagKeyword, TagURI, TagURIScheme,
		TagCharset, TagLanguage, TagMimeType, TagMemberName:
		return TypeString

	case TagString:
		return TypeBinary

	case TagDateTime:
		return TypeDateTime

	case TagResolution:
		return TypeResolution

	case TagRange:
		return TypeRange

	case TagTextLang, TagNameLang:
		return TypeTextWithLang

	case TagBeginCollection:
		return TypeCollection

	case TagEndCollection:
		return TypeVoid
	}

	return TypeInvalid
}

// String returns the tag name, as defined by RFC 8010.
func (tag Tag) String() string {
	if int(tag) < len(tagNames) {
		if s := tagNames[tag]; s != "" {
			return s
		}
	}

	return fmt.Sprintf("0x%2.2x", uint8(tag))
}

var tagNames = [...]string{
	// Delimiter tags
	TagZero:                   "zero",
	TagOperationGroup:         "operation-attributes-tag",
	TagJobGroup:               "job-attributes-tag",
	TagEnd:                    "end-of-attributes-tag",
	TagPrinterGroup:           "printer-attributes-tag",
	TagUnsupportedGroup:       "unsupported-attributes-tag",
	TagSubscriptionGroup:      "subscription-attributes-tag",
	TagEventNotificationGroup: "event-notification-attributes-tag",
	TagResourceGroup:          "resource-attributes-tag",
	TagDocumentGroup:          "document-attributes-tag",
	TagSystemGroup:            "system-attributes-tag",

	// Value tags
	TagUnsupportedValue: "unsupported",
	TagDefault:          "default",
	TagUnknown:          "unknown",
	TagNoValue:          "no-value",
	TagNotSettable:      "not-settable",
	TagDeleteAttr:       "delete-attribute",
	TagAdminDefine:      "admin-define",
	TagInteger:          "integer",
	TagBoolean:          "boolean",
	TagEnum:             "enum",
	TagString:           "octetString",
	TagDateTime:         "dateTime",
	TagResolution:       "resolution",
	TagRange:            "rangeOfInteger",
	TagBeginCollection:  "collection",
	TagTextLang:         "textWithLanguage",
	TagNameLang:         "nameWithLanguage",
	TagEndCollection:    "endCollection",
	TagText:             "textWithoutLanguage",
	TagName:             "nameWithoutLanguage",
	TagKeyword:          "keyword",
	TagURI:              "uri",
	TagURIScheme:        "uriScheme",
	TagCharset:          "charset",
	TagLanguage:         "naturalLanguage",
	TagMimeType:         "mimeMediaType",
	TagMemberName:       "memberAttrName",
}
