/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * Status codes
 */

package ipp

import (
	"fmt"
)

// Status is an IPP status code: the interpretation of a response's
// Code field.
type Status Code

// Status codes, RFC 8011
const (
	StatusOk                     Status = 0x0000 // successful-ok
	StatusOkIgnoredOrSubstituted Status = 0x0001 // successful-ok-ignored-or-substituted-attributes
	StatusOkConflicting          Status = 0x0002 // successful-ok-conflicting-attributes

	StatusRedirectionOtherSite Status = 0x0200 // redirection-other-site

	StatusErrorBadRequest              Status = 0x0400 // client-error-bad-request
	StatusErrorForbidden               Status = 0x0401 // client-error-forbidden
	StatusErrorNotAuthenticated        Status = 0x0402 // client-error-not-authenticated
	StatusErrorNotAuthorized           Status = 0x0403 // client-error-not-authorized
	StatusErrorNotPossible             Status = 0x0404 // client-error-not-possible
	StatusErrorTimeout                 Status = 0x0405 // client-error-timeout
	StatusErrorNotFound                Status = 0x0406 // client-error-not-found
	StatusErrorGone                    Status = 0x0407 // client-error-gone
	StatusErrorRequestEntity           Status = 0x0408 // client-error-request-entity-too-large
	StatusErrorRequestValue            Status = 0x0409 // client-error-request-value-too-long
	StatusErrorDocumentFormat          Status = 0x040a // client-error-document-format-not-supported
	StatusErrorAttributesOrValues      Status = 0x040b // client-error-attributes-or-values-not-supported
	StatusErrorURIScheme               Status = 0x040c // client-error-uri-scheme-not-supported
	StatusErrorCharset                 Status = 0x040d // client-error-charset-not-supported
	StatusErrorConflicting             Status = 0x040e // client-error-conflicting-attributes
	StatusErrorCompressionNotSupported Status = 0x040f // client-error-compression-not-supported
	StatusErrorCompression             Status = 0x0410 // client-error-compression-error
	StatusErrorDocumentFormatError     Status = 0x0411 // client-error-document-format-error
	StatusErrorDocumentAccess          Status = 0x0412 // client-error-document-access-error

	StatusErrorInternal                 Status = 0x0500 // server-error-internal-error
	StatusErrorOperationNotSupported    Status = 0x0501 // server-error-operation-not-supported
	StatusErrorServiceUnavailable       Status = 0x0502 // server-error-service-unavailable
	StatusErrorVersionNotSupported      Status = 0x0503 // server-error-version-not-supported
	StatusErrorDevice                   Status = 0x0504 // server-error-device-error
	StatusErrorTemporary                Status = 0x0505 // server-error-temporary-error
	StatusErrorNotAcceptingJobs         Status = 0x0506 // server-error-not-accepting-jobs
	StatusErrorBusy                     Status = 0x0507 // server-error-busy
	StatusErrorJobCanceled              Status = 0x0508 // server-error-job-canceled
	StatusErrorMultipleJobsNotSupported Status = 0x0509 // server-error-multiple-document-jobs-not-supported
)

// StatusClass partitions the status code space by the code's upper
// byte.
type StatusClass int

// Status classes
const (
	StatusClassSuccessful    StatusClass = iota // 0x00xx
	StatusClassInformational                    // 0x01xx
	StatusClassRedirection                      // 0x03xx
	StatusClassClientError                      // 0x04xx
	StatusClassServerError                      // 0x05xx
	StatusClassUnknown                          // Anything else
)

// String returns the class name.
func (c StatusClass) String() string {
	switch c {
	case StatusClassSuccessful:
		return "successful"
	case StatusClassInformational:
		return "informational"
	case StatusClassRedirection:
		return "redirection"
	case StatusClassClientError:
		return "client-error"
	case StatusClassServerError:
		return "server-error"
	}

	return "unknown"
}

// Class returns the class of the status code.
func (status Status) Class() StatusClass {
	switch status >> 8 {
	case 0x00:
		return StatusClassSuccessful
	case 0x01:
		return StatusClassInformational
	case 0x03:
		return StatusClassRedirection
	case 0x04:
		return StatusClassClientError
	case 0x05:
		return StatusClassServerError
	}

	return StatusClassUnknown
}

// IsSuccessful reports whether the status belongs to the successful
// class.
func (status Status) IsSuccessful() bool {
	return status.Class() == StatusClassSuccessful
}

// String returns the status name, as defined by RFC 8011.
func (status Status) String() string {
	if int(status) < len(statusNames) {
		if s := statusNames[status]; s != "" {
			return s
		}
	}

	return fmt.Sprintf("0x%4.4x", int(status))
}

var statusNames = [...]string{
	StatusOk:                     "successful-ok",
	StatusOkIgnoredOrSubstituted: "successful-ok-ignored-or-substituted-attributes",
	StatusOkConflicting:          "successful-ok-conflicting-attributes",

	StatusRedirectionOtherSite: "redirection-other-site",

	StatusErrorBadRequest:              "client-error-bad-request",
	StatusErrorForbidden:               "client-error-forbidden",
	StatusErrorNotAuthenticated:        "client-error-not-authenticated",
	StatusErrorNotAuthorized:           "client-error-not-authorized",
	StatusErrorNotPossible:             "client-error-not-possible",
	StatusErrorTimeout:                 "client-error-timeout",
	StatusErrorNotFound:                "client-error-not-found",
	StatusErrorGone:                    "client-error-gone",
	StatusErrorRequestEntity:           "client-error-request-entity-too-large",
	StatusErrorRequestValue:            "client-error-request-value-too-long",
	StatusErrorDocumentFormat:          "client-error-document-format-not-supported",
	StatusErrorAttributesOrValues:      "client-error-attributes-or-values-not-supported",
	StatusErrorURIScheme:               "client-error-uri-scheme-not-supported",
	StatusErrorCharset:                 "client-error-charset-not-supported",
	StatusErrorConflicting:             "client-error-conflicting-attributes",
	StatusErrorCompressionNotSupported: "client-error-compression-not-supported",
	StatusErrorCompression:             "client-error-compression-error",
	StatusErrorDocumentFormatError:     "client-error-document-format-error",
	StatusErrorDocumentAccess:          "client-error-document-access-error",

	StatusErrorInternal:                 "server-error-internal-error",
	StatusErrorOperationNotSupported:    "server-error-operation-not-supported",
	StatusErrorServiceUnavailable:       "server-error-service-unavailable",
	StatusErrorVersionNotSupported:      "server-error-version-not-supported",
	StatusErrorDevice:                   "server-error-device-error",
	StatusErrorTemporary:                "server-error-temporary-error",
	StatusErrorNotAcceptingJobs:         "server-error-not-accepting-jobs",
	StatusErrorBusy:                     "server-error-busy",
	StatusErrorJobCanceled:              "server-error-job-canceled",
	StatusErrorMultipleJobsNotSupported: "server-error-multiple-document-jobs-not-supported",
}
