/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * ippserver virtual printer
 */

package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/OpenPrinting/ipp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Job is one entry of the printer's job table.
type Job struct {
	ID      int32        // job-id, unique per printer
	Name    string       // job-name
	User    string       // requesting-user-name, stored as job owner
	Format  string       // document-format
	State   ipp.JobState // job-state
	Reasons string       // job-state-reasons
	KOctets int32        // job-k-octets-processed
	Created time.Time    // Submission time
}

// Printer is a virtual printer: an in-memory job table plus the
// operation handlers serving it. Jobs are accepted and immediately
// "printed" by draining the document data.
type Printer struct {
	cfg     *Config
	started time.Time

	mu     sync.Mutex
	jobs   map[int32]*Job
	order  []int32 // job ids, oldest first
	nextID int32

	metricRequests *prometheus.CounterVec
	metricJobs     prometheus.Gauge
	metricOctets   prometheus.Counter
}

// NewPrinter creates a Printer with an empty job table.
func NewPrinter(cfg *Config) *Printer {
	return &Printer{
		cfg:     cfg,
		started: time.Now(),
		jobs:    make(map[int32]*Job),

		metricRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ippserver_requests_total",
				Help: "IPP requests served, by operation and status.",
			},
			[]string{"op", "status"},
		),
		metricJobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ippserver_jobs",
				Help: "Jobs currently in the job table.",
			},
		),
		metricOctets: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ippserver_document_octets_total",
				Help: "Document octets received.",
			},
		),
	}
}

// RegisterMetrics registers the printer's metrics.
func (p *Printer) RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(p.metricRequests, p.metricJobs, p.metricOctets)
}

// supportedOps lists the operations the printer implements, in the
// order advertised by operations-supported.
var supportedOps = []ipp.Op{
	ipp.OpPrintJob,
	ipp.OpValidateJob,
	ipp.OpCreateJob,
	ipp.OpSendDocument,
	ipp.OpCancelJob,
	ipp.OpGetJobAttributes,
	ipp.OpGetJobs,
	ipp.OpGetPrinterAttributes,
}

// Register installs the printer's handlers into the engine.
func (p *Printer) Register(e *ipp.Engine) {
	handlers := map[ipp.Op]ipp.Handler{
		ipp.OpPrintJob:             p.printJob,
		ipp.OpValidateJob:          p.validateJob,
		ipp.OpCreateJob:            p.createJob,
		ipp.OpSendDocument:         p.sendDocument,
		ipp.OpCancelJob:            p.cancelJob,
		ipp.OpGetJobAttributes:     p.getJobAttributes,
		ipp.OpGetJobs:              p.getJobs,
		ipp.OpGetPrinterAttributes: p.getPrinterAttributes,
	}

	for op, h := range handlers {
		e.Handle(op, p.instrument(op, h))
	}
}

// instrument wraps a handler with request accounting.
func (p *Printer) instrument(op ipp.Op, h ipp.Handler) ipp.Handler {
	return func(ctx context.Context, rq *ipp.Request) (*ipp.Response, error) {
		rsp, err := h(ctx, rq)

		status := ipp.StatusErrorInternal
		if err == nil && rsp != nil && rsp.Msg != nil {
			status = rsp.Msg.Status()
		}
		p.metricRequests.WithLabelValues(op.String(), status.String()).Inc()

		log.Debug().
			Stringer("op", op).
			Stringer("status", status).
			Uint32("request-id", rq.Msg.RequestID).
			Msg("request handled")

		return rsp, err
	}
}

// respond builds an empty response carrying only a status. The engine
// completes the envelope.
func respond(status ipp.Status) *ipp.Response {
	return &ipp.Response{Msg: ipp.NewResponse(0, status, 0)}
}

// newJob allocates a job and inserts it into the table. The caller
// holds no lock.
func (p *Printer) newJob(name, user, format string, state ipp.JobState) (*Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.jobs) >= p.cfg.MaxJobs {
		return nil, fmt.Errorf("job table full (%d jobs)", p.cfg.MaxJobs)
	}

	p.nextID++
	job := &Job{
		ID:      p.nextID,
		Name:    name,
		User:    user,
		Format:  format,
		State:   state,
		Reasons: "none",
		Created: time.Now(),
	}

	p.jobs[job.ID] = job
	p.order = append(p.order, job.ID)
	p.metricJobs.Set(float64(len(p.jobs)))

	return job, nil
}

// lookupJob finds a job by the job-id operation attribute.
func (p *Printer) lookupJob(rq *ipp.Request) (*Job, ipp.Status) {
	attrs := rq.Msg.OperationAttrs()

	a := attrs.Get(ipp.AttrJobID)
	if a == nil || len(a.Values) == 0 {
		return nil, ipp.StatusErrorBadRequest
	}
	id, ok := a.Values[0].V.(ipp.Integer)
	if !ok {
		return nil, ipp.StatusErrorBadRequest
	}

	p.mu.Lock()
	job := p.jobs[int32(id)]
	p.mu.Unlock()

	if job == nil {
		return nil, ipp.StatusErrorNotFound
	}

	return job, ipp.StatusOk
}

// drain consumes the document data, accounting the received octets
// against the job.
func (p *Printer) drain(job *Job, doc io.Reader) error {
	n, err := io.Copy(io.Discard, doc)
	if err != nil {
		return err
	}

	p.metricOctets.Add(float64(n))

	p.mu.Lock()
	job.KOctets += int32((n + 1023) / 1024)
	p.mu.Unlock()

	return nil
}

// formatSupported checks a document-format against the configured
// list. An absent format is accepted as the default format.
func (p *Printer) formatSupported(rq *ipp.Request) (string, bool) {
	a := rq.Msg.OperationAttrs().Get(ipp.AttrDocumentFormat)
	if a == nil || len(a.Values) == 0 {
		return "application/octet-stream", true
	}

	format, ok := a.Values[0].V.(ipp.String)
	if !ok {
		return "", false
	}

	for _, f := range p.cfg.Formats {
		if f == string(format) {
			return string(format), true
		}
	}

	return string(format), false
}

// jobAttrs builds the job-attributes group content for a job.
func (p *Printer) jobAttrs(job *Job) []ipp.Attribute {
	p.mu.Lock()
	defer p.mu.Unlock()

	uri := fmt.Sprintf("ipp://%s/jobs/%d", p.cfg.PrinterName, job.ID)

	return []ipp.Attribute{
		ipp.MakeAttribute(ipp.AttrJobID, ipp.TagInteger,
			ipp.Integer(job.ID)),
		ipp.MakeAttribute(ipp.AttrJobURI, ipp.TagURI, ipp.String(uri)),
		ipp.MakeAttribute(ipp.AttrJobName, ipp.TagName,
			ipp.String(job.Name)),
		ipp.MakeAttribute(ipp.AttrJobState, ipp.TagEnum,
			ipp.Integer(job.State)),
		ipp.MakeAttribute(ipp.AttrJobStateReasons, ipp.TagKeyword,
			ipp.String(job.Reasons)),
		ipp.MakeAttribute(ipp.AttrKOctetsProcessed, ipp.TagInteger,
			ipp.Integer(job.KOctets)),
	}
}

// userName extracts requesting-user-name, defaulting to anonymous.
func userName(rq *ipp.Request) string {
	if a := rq.Msg.OperationAttrs().Get(ipp.AttrRequestingUserName); a != nil &&
		len(a.Values) > 0 {
		if s, ok := a.Values[0].V.(ipp.String); ok {
			return string(s)
		}
	}
	return "anonymous"
}

// jobName extracts job-name, defaulting to untitled.
func jobName(rq *ipp.Request) string {
	if a := rq.Msg.OperationAttrs().Get(ipp.AttrJobName); a != nil &&
		len(a.Values) > 0 {
		if s, ok := a.Values[0].V.(ipp.String); ok {
			return string(s)
		}
	}
	return "untitled"
}

func (p *Printer) printJob(ctx context.Context, rq *ipp.Request) (*ipp.Response, error) {
	format, ok := p.formatSupported(rq)
	if !ok {
		return respond(ipp.StatusErrorDocumentFormat), nil
	}

	job, err := p.newJob(jobName(rq), userName(rq), format, ipp.JobProcessing)
	if err != nil {
		return respond(ipp.StatusErrorNotAcceptingJobs), nil
	}

	if err := p.drain(job, rq.Body); err != nil {
		p.setJobState(job, ipp.JobAborted, "document-access-error")
		return nil, err
	}

	p.setJobState(job, ipp.JobCompleted, "job-completed-successfully")

	log.Info().
		Int32("job-id", job.ID).
		Str("user", job.User).
		Str("format", job.Format).
		Msg("job printed")

	rsp := respond(ipp.StatusOk)
	rsp.Msg.AddGroup(ipp.TagJobGroup, p.jobAttrs(job)...)
	return rsp, nil
}

func (p *Printer) validateJob(ctx context.Context, rq *ipp.Request) (*ipp.Response, error) {
	if _, ok := p.formatSupported(rq); !ok {
		return respond(ipp.StatusErrorDocumentFormat), nil
	}
	return respond(ipp.StatusOk), nil
}

func (p *Printer) createJob(ctx context.Context, rq *ipp.Request) (*ipp.Response, error) {
	job, err := p.newJob(jobName(rq), userName(rq), "", ipp.JobPending)
	if err != nil {
		return respond(ipp.StatusErrorNotAcceptingJobs), nil
	}

	log.Info().
		Int32("job-id", job.ID).
		Str("user", job.User).
		Msg("job created")

	rsp := respond(ipp.StatusOk)
	rsp.Msg.AddGroup(ipp.TagJobGroup, p.jobAttrs(job)...)
	return rsp, nil
}

func (p *Printer) sendDocument(ctx context.Context, rq *ipp.Request) (*ipp.Response, error) {
	job, status := p.lookupJob(rq)
	if job == nil {
		return respond(status), nil
	}

	if job.State != ipp.JobPending && job.State != ipp.JobProcessing {
		return respond(ipp.StatusErrorNotPossible), nil
	}

	format, ok := p.formatSupported(rq)
	if !ok {
		return respond(ipp.StatusErrorDocumentFormat), nil
	}

	last := false
	if a := rq.Msg.OperationAttrs().Get(ipp.AttrLastDocument); a != nil &&
		len(a.Values) > 0 {
		if b, ok := a.Values[0].V.(ipp.Boolean); ok {
			last = bool(b)
		}
	}

	p.setJobState(job, ipp.JobProcessing, "job-incoming")

	p.mu.Lock()
	job.Format = format
	p.mu.Unlock()

	if err := p.drain(job, rq.Body); err != nil {
		p.setJobState(job, ipp.JobAborted, "document-access-error")
		return nil, err
	}

	if last {
		p.setJobState(job, ipp.JobCompleted, "job-completed-successfully")
		log.Info().Int32("job-id", job.ID).Msg("job printed")
	}

	rsp := respond(ipp.StatusOk)
	rsp.Msg.AddGroup(ipp.TagJobGroup, p.jobAttrs(job)...)
	return rsp, nil
}

func (p *Printer) cancelJob(ctx context.Context, rq *ipp.Request) (*ipp.Response, error) {
	job, status := p.lookupJob(rq)
	if job == nil {
		return respond(status), nil
	}

	switch job.State {
	case ipp.JobCompleted, ipp.JobCanceled, ipp.JobAborted:
		return respond(ipp.StatusErrorNotPossible), nil
	}

	p.setJobState(job, ipp.JobCanceled, "job-canceled-by-user")

	log.Info().Int32("job-id", job.ID).Msg("job canceled")
	return respond(ipp.StatusOk), nil
}

func (p *Printer) getJobAttributes(ctx context.Context, rq *ipp.Request) (*ipp.Response, error) {
	job, status := p.lookupJob(rq)
	if job == nil {
		return respond(status), nil
	}

	rsp := respond(ipp.StatusOk)
	rsp.Msg.AddGroup(ipp.TagJobGroup, p.jobAttrs(job)...)
	return rsp, nil
}

func (p *Printer) getJobs(ctx context.Context, rq *ipp.Request) (*ipp.Response, error) {
	limit := 0
	if a := rq.Msg.OperationAttrs().Get(ipp.AttrLimit); a != nil &&
		len(a.Values) > 0 {
		if n, ok := a.Values[0].V.(ipp.Integer); ok && n > 0 {
			limit = int(n)
		}
	}

	p.mu.Lock()
	ids := make([]int32, len(p.order))
	copy(ids, p.order)
	p.mu.Unlock()

	rsp := respond(ipp.StatusOk)
	for _, id := range ids {
		p.mu.Lock()
		job := p.jobs[id]
		p.mu.Unlock()
		if job == nil {
			continue
		}

		rsp.Msg.AddGroup(ipp.TagJobGroup, p.jobAttrs(job)...)

		if limit > 0 {
			limit--
			if limit == 0 {
				break
			}
		}
	}

	return rsp, nil
}

func (p *Printer) getPrinterAttributes(ctx context.Context, rq *ipp.Request) (*ipp.Response, error) {
	ops := ipp.Attribute{Name: ipp.AttrOperationsSupported}
	for _, op := range supportedOps {
		ops.Append(ipp.TagEnum, ipp.Integer(op))
	}

	formats := ipp.Attribute{Name: ipp.AttrDocumentFormatSupported}
	for _, f := range p.cfg.Formats {
		formats.Append(ipp.TagMimeType, ipp.String(f))
	}

	p.mu.Lock()
	queued := 0
	for _, job := range p.jobs {
		switch job.State {
		case ipp.JobPending, ipp.JobProcessing:
			queued++
		}
	}
	p.mu.Unlock()

	attrs := []ipp.Attribute{
		ipp.MakeAttribute(ipp.AttrPrinterName, ipp.TagName,
			ipp.String(p.cfg.PrinterName)),
		ipp.MakeAttribute("printer-info", ipp.TagText,
			ipp.String(p.cfg.PrinterInfo)),
		ipp.MakeAttribute("printer-location", ipp.TagText,
			ipp.String(p.cfg.PrinterLocation)),
		ipp.MakeAttribute(ipp.AttrPrinterState, ipp.TagEnum,
			ipp.Integer(4)), // idle
		ipp.MakeAttribute(ipp.AttrPrinterStateReasons, ipp.TagKeyword,
			ipp.String("none")),
		ipp.MakeAttribute(ipp.AttrPrinterIsAcceptingJobs, ipp.TagBoolean,
			ipp.Boolean(true)),
		ipp.MakeAttribute("queued-job-count", ipp.TagInteger,
			ipp.Integer(queued)),
		ipp.MakeAttribute(ipp.AttrPrinterUpTime, ipp.TagInteger,
			ipp.Integer(time.Since(p.started)/time.Second)),
		ipp.MakeAttribute(ipp.AttrCharsetConfigured, ipp.TagCharset,
			ipp.String(ipp.DefaultCharset)),
		ipp.MakeAttribute(ipp.AttrCharsetSupported, ipp.TagCharset,
			ipp.String(ipp.DefaultCharset)),
		ipp.MakeAttr(ipp.AttrIppVersionsSupported, ipp.TagKeyword,
			ipp.String("1.0"), ipp.String("1.1"),
			ipp.String("2.0"), ipp.String("2.1"), ipp.String("2.2")),
		ops,
		formats,
	}

	attrs = filterRequested(rq, attrs)

	rsp := respond(ipp.StatusOk)
	rsp.Msg.AddGroup(ipp.TagPrinterGroup, attrs...)
	return rsp, nil
}

// filterRequested trims a printer attribute list down to the
// requested-attributes of the request. "all" (or no request at all)
// passes everything through.
func filterRequested(rq *ipp.Request, attrs []ipp.Attribute) []ipp.Attribute {
	a := rq.Msg.OperationAttrs().Get(ipp.AttrRequestedAttributes)
	if a == nil || len(a.Values) == 0 {
		return attrs
	}

	requested := make(map[string]bool, len(a.Values))
	for _, v := range a.Values {
		s, ok := v.V.(ipp.String)
		if !ok {
			continue
		}
		if s == "all" {
			return attrs
		}
		requested[string(s)] = true
	}

	kept := attrs[:0]
	for _, attr := range attrs {
		if requested[attr.Name] {
			kept = append(kept, attr)
		}
	}

	return kept
}

// setJobState updates a job's state and reasons under the lock.
func (p *Printer) setJobState(job *Job, state ipp.JobState, reasons string) {
	p.mu.Lock()
	job.State = state
	job.Reasons = reasons
	p.mu.Unlock()
}
