/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * Operation codes
 */

package ipp

import (
	"fmt"
)

// Op is an IPP operation code: the interpretation of a request's Code
// field.
type Op Code

// Operation codes, RFC 8011 and common extensions
const (
	OpPrintJob             Op = 0x0002 // Print-Job: print a single document
	OpPrintURI             Op = 0x0003 // Print-URI: print a single URL
	OpValidateJob          Op = 0x0004 // Validate-Job: check job values prior to submission
	OpCreateJob            Op = 0x0005 // Create-Job: create an empty print job
	OpSendDocument         Op = 0x0006 // Send-Document: add a document to a job
	OpSendURI              Op = 0x0007 // Send-URI: add a URL to a job
	OpCancelJob            Op = 0x0008 // Cancel-Job: cancel a job
	OpGetJobAttributes     Op = 0x0009 // Get-Job-Attributes: get information about a job
	OpGetJobs              Op = 0x000a // Get-Jobs: get a list of jobs
	OpGetPrinterAttributes Op = 0x000b // Get-Printer-Attributes: get information about a printer
	OpHoldJob              Op = 0x000c // Hold-Job: hold a job for printing
	OpReleaseJob           Op = 0x000d // Release-Job: release a held job
	OpRestartJob           Op = 0x000e // Restart-Job: reprint a job

	OpPausePrinter    Op = 0x0010 // Pause-Printer: stop a printer
	OpResumePrinter   Op = 0x0011 // Resume-Printer: start a printer
	OpPurgeJobs       Op = 0x0012 // Purge-Jobs: delete all jobs
	OpCloseJob        Op = 0x003b // Close-Job: close a job and start printing
	OpIdentifyPrinter Op = 0x003c // Identify-Printer: locate a printer audibly or visually
)

// String returns the operation name, as defined by RFC 8011.
func (op Op) String() string {
	if int(op) < len(opNames) {
		if s := opNames[op]; s != "" {
			return s
		}
	}

	return fmt.Sprintf("0x%4.4x", int(op))
}

var opNames = [...]string{
	OpPrintJob:             "Print-Job",
	OpPrintURI:             "Print-URI",
	OpValidateJob:          "Validate-Job",
	OpCreateJob:            "Create-Job",
	OpSendDocument:         "Send-Document",
	OpSendURI:              "Send-URI",
	OpCancelJob:            "Cancel-Job",
	OpGetJobAttributes:     "Get-Job-Attributes",
	OpGetJobs:              "Get-Jobs",
	OpGetPrinterAttributes: "Get-Printer-Attributes",
	OpHoldJob:              "Hold-Job",
	OpReleaseJob:           "Release-Job",
	OpRestartJob:           "Restart-Job",
	OpPausePrinter:         "Pause-Printer",
	OpResumePrinter:        "Resume-Printer",
	OpPurgeJobs:            "Purge-Jobs",
	OpCloseJob:             "Close-Job",
	OpIdentifyPrinter:      "Identify-Printer",
}
