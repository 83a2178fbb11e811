/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * Request constructors for common operations
 */

package ipp

// newOperationRequest builds the skeleton every operation request
// shares: the operation-attributes group opened with attributes-charset
// and attributes-natural-language, followed by printer-uri.
//
// The request id is left zero; (*Client).Do allocates one on send, and
// server-less users may set it themselves.
func newOperationRequest(op Op, uri string) *Message {
	m := NewRequest(DefaultVersion, op, 0)
	m.AddGroup(TagOperationGroup,
		MakeAttribute(AttrAttributesCharset,
			TagCharset, String(DefaultCharset)),
		MakeAttribute(AttrAttributesNaturalLanguage,
			TagLanguage, String(DefaultLanguage)),
		MakeAttribute(AttrPrinterURI, TagURI, String(uri)),
	)
	return m
}

// NewGetPrinterAttributesRequest makes a Get-Printer-Attributes
// request. With no requested attribute names, the printer is asked for
// all of them.
func NewGetPrinterAttributesRequest(uri string, requested ...string) *Message {
	m := newOperationRequest(OpGetPrinterAttributes, uri)

	if len(requested) > 0 {
		vals := make([]Value, len(requested))
		for i, name := range requested {
			vals[i] = String(name)
		}
		m.Groups[0].Add(MakeAttr(AttrRequestedAttributes,
			TagKeyword, vals[0], vals[1:]...))
	}

	return m
}

// NewPrintJobRequest makes a Print-Job request. The document itself
// travels separately, as the data stream following the message.
// userName and jobName may be empty, in which case the corresponding
// attributes are omitted.
func NewPrintJobRequest(uri, userName, jobName string) *Message {
	m := newOperationRequest(OpPrintJob, uri)

	op := &m.Groups[0]
	if userName != "" {
		op.Add(MakeAttribute(AttrRequestingUserName,
			TagName, String(userName)))
	}
	if jobName != "" {
		op.Add(MakeAttribute(AttrJobName, TagName, String(jobName)))
	}

	return m
}

// NewValidateJobRequest makes a Validate-Job request: Print-Job
// semantics without a document, used to check job attributes prior to
// submission.
func NewValidateJobRequest(uri, userName string) *Message {
	m := newOperationRequest(OpValidateJob, uri)

	if userName != "" {
		m.Groups[0].Add(MakeAttribute(AttrRequestingUserName,
			TagName, String(userName)))
	}

	return m
}

// NewCreateJobRequest makes a Create-Job request, opening an empty job
// to which documents are added with Send-Document.
func NewCreateJobRequest(uri, jobName string) *Message {
	m := newOperationRequest(OpCreateJob, uri)

	if jobName != "" {
		m.Groups[0].Add(MakeAttribute(AttrJobName,
			TagName, String(jobName)))
	}

	return m
}

// NewSendDocumentRequest makes a Send-Document request for a job
// created with Create-Job. last marks the job's final document.
func NewSendDocumentRequest(uri string, jobID int32, userName string, last bool) *Message {
	m := newOperationRequest(OpSendDocument, uri)

	op := &m.Groups[0]
	op.Add(MakeAttribute(AttrJobID, TagInteger, Integer(jobID)))
	if userName != "" {
		op.Add(MakeAttribute(AttrRequestingUserName,
			TagName, String(userName)))
	}
	op.Add(MakeAttribute(AttrLastDocument, TagBoolean, Boolean(last)))

	return m
}

// NewCancelJobRequest makes a Cancel-Job request.
func NewCancelJobRequest(uri string, jobID int32) *Message {
	m := newOperationRequest(OpCancelJob, uri)
	m.Groups[0].Add(MakeAttribute(AttrJobID, TagInteger, Integer(jobID)))
	return m
}

// NewGetJobAttributesRequest makes a Get-Job-Attributes request.
func NewGetJobAttributesRequest(uri string, jobID int32) *Message {
	m := newOperationRequest(OpGetJobAttributes, uri)
	m.Groups[0].Add(MakeAttribute(AttrJobID, TagInteger, Integer(jobID)))
	return m
}

// NewGetJobsRequest makes a Get-Jobs request. limit bounds the number
// of returned jobs; zero asks for all of them.
func NewGetJobsRequest(uri string, limit int32) *Message {
	m := newOperationRequest(OpGetJobs, uri)

	if limit > 0 {
		m.Groups[0].Add(MakeAttribute(AttrLimit,
			TagInteger, Integer(limit)))
	}

	return m
}
