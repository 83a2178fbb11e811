/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * Well-known attribute names
 */

package ipp

// Well-known attribute names, RFC 8011
const (
	AttrAttributesCharset         = "attributes-charset"
	AttrAttributesNaturalLanguage = "attributes-natural-language"
	AttrPrinterURI                = "printer-uri"
	AttrRequestingUserName        = "requesting-user-name"
	AttrRequestedAttributes       = "requested-attributes"
	AttrStatusMessage             = "status-message"
	AttrDocumentFormat            = "document-format"
	AttrLastDocument              = "last-document"
	AttrLimit                     = "limit"

	AttrJobID               = "job-id"
	AttrJobURI              = "job-uri"
	AttrJobName             = "job-name"
	AttrJobState            = "job-state"
	AttrJobStateReasons     = "job-state-reasons"
	AttrKOctetsProcessed    = "job-k-octets-processed"
	AttrOperationsSupported = "operations-supported"

	AttrPrinterName             = "printer-name"
	AttrPrinterState            = "printer-state"
	AttrPrinterStateReasons     = "printer-state-reasons"
	AttrPrinterIsAcceptingJobs  = "printer-is-accepting-jobs"
	AttrPrinterUpTime           = "printer-up-time"
	AttrCharsetConfigured       = "charset-configured"
	AttrCharsetSupported        = "charset-supported"
	AttrDocumentFormatSupported = "document-format-supported"
	AttrIppVersionsSupported    = "ipp-versions-supported"
)

// DefaultCharset and DefaultLanguage are the values this package sets
// for attributes-charset and attributes-natural-language unless told
// otherwise.
const (
	DefaultCharset  = "utf-8"
	DefaultLanguage = "en-US"
)

// JobState enumerates job-state values, RFC 8011.
type JobState Integer

// Job states
const (
	JobPending           JobState = 3 // pending
	JobPendingHeld       JobState = 4 // pending-held
	JobProcessing        JobState = 5 // processing
	JobProcessingStopped JobState = 6 // processing-stopped
	JobCanceled          JobState = 7 // canceled
	JobAborted           JobState = 8 // aborted
	JobCompleted         JobState = 9 // completed
)

// String returns the keyword form of the state.
func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobPendingHeld:
		return "pending-held"
	case JobProcessing:
		return "processing"
	case JobProcessingStopped:
		return "processing-stopped"
	case JobCanceled:
		return "canceled"
	case JobAborted:
		return "aborted"
	case JobCompleted:
		return "completed"
	}

	return "unknown"
}
