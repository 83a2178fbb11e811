/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * ipptool - command-line IPP client
 */

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/OpenPrinting/ipp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const usage = `usage: ipptool [options] command [arguments]

commands:
  get-attributes PRINTER-URI [ATTRIBUTE...]
      query printer attributes, all of them by default

  print PRINTER-URI FILE
      submit FILE as a print job

  jobs PRINTER-URI
      list jobs on the printer

  cancel PRINTER-URI JOB-ID
      cancel a job

options:
`

func main() {
	var (
		timeout time.Duration
		user    string
		jobName string
		format  string
		limit   int32
		debug   bool
	)

	flagSet := pflag.NewFlagSet("ipptool", pflag.ContinueOnError)
	flagSet.DurationVar(&timeout, "timeout", 30*time.Second,
		"overall operation timeout")
	flagSet.StringVarP(&user, "user", "u", "anonymous",
		"requesting user name")
	flagSet.StringVar(&jobName, "job-name", "untitled",
		"job name for print")
	flagSet.StringVarP(&format, "format", "f", "application/octet-stream",
		"document format for print")
	flagSet.Int32Var(&limit, "limit", 0,
		"maximum number of jobs to list, 0 for no limit")
	flagSet.BoolVarP(&debug, "debug", "d", false,
		"enable debug logging")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			fmt.Print(usage)
			flagSet.PrintDefaults()
			os.Exit(0)
		}
		log.Fatal().Err(err).Msg("invalid arguments")
	}

	initLogger(debug)

	args := flagSet.Args()
	if len(args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		flagSet.PrintDefaults()
		os.Exit(2)
	}

	cmd, uri := args[0], args[1]
	args = args[2:]

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c := ipp.NewClient(uri)

	var err error
	switch cmd {
	case "get-attributes":
		err = doGetAttributes(ctx, c, args)
	case "print":
		err = doPrint(ctx, c, user, jobName, format, args)
	case "jobs":
		err = doJobs(ctx, c, limit)
	case "cancel":
		err = doCancel(ctx, c, args)
	default:
		log.Fatal().Str("command", cmd).Msg("unknown command")
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("operation failed")
	}
}

// initLogger configures the global zerolog logger.
func initLogger(debug bool) {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(output).Level(level).
		With().Timestamp().Logger()
}

// roundTrip sends the request and checks the response status.
func roundTrip(ctx context.Context, c *ipp.Client,
	rq *ipp.Message, doc io.Reader) (*ipp.Message, error) {

	log.Debug().
		Stringer("op", rq.Op()).
		Str("uri", c.URI).
		Msg("sending request")

	rsp, err := c.Do(ctx, rq, doc)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Stringer("status", rsp.Status()).
		Uint32("request-id", rsp.RequestID).
		Msg("received response")

	if !rsp.Status().IsSuccessful() {
		return rsp, fmt.Errorf("server answered: %s", rsp.Status())
	}

	return rsp, nil
}

func doGetAttributes(ctx context.Context, c *ipp.Client, attrs []string) error {
	rq := ipp.NewGetPrinterAttributesRequest(c.URI, attrs...)

	rsp, err := roundTrip(ctx, c, rq, nil)
	if err != nil {
		return err
	}

	rsp.Print(os.Stdout, false)
	return nil
}

func doPrint(ctx context.Context, c *ipp.Client,
	user, jobName, format string, args []string) error {

	if len(args) != 1 {
		return fmt.Errorf("print needs exactly one FILE argument")
	}

	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	rq := ipp.NewPrintJobRequest(c.URI, user, jobName)
	rq.Group(ipp.TagOperationGroup).Add(ipp.MakeAttribute(
		ipp.AttrDocumentFormat, ipp.TagMimeType, ipp.String(format)))

	rsp, err := roundTrip(ctx, c, rq, file)
	if err != nil {
		return err
	}

	grp := rsp.Group(ipp.TagJobGroup)
	if grp == nil {
		return fmt.Errorf("response carries no job attributes")
	}

	if a := grp.Attrs.Get(ipp.AttrJobID); a != nil && len(a.Values) > 0 {
		fmt.Printf("job-id: %s\n", a.Values[0].V)
	}
	if a := grp.Attrs.Get(ipp.AttrJobState); a != nil && len(a.Values) > 0 {
		if v, ok := a.Values[0].V.(ipp.Integer); ok {
			fmt.Printf("job-state: %s\n", ipp.JobState(v))
		}
	}

	return nil
}

func doJobs(ctx context.Context, c *ipp.Client, limit int32) error {
	rq := ipp.NewGetJobsRequest(c.URI, limit)

	rsp, err := roundTrip(ctx, c, rq, nil)
	if err != nil {
		return err
	}

	rsp.Print(os.Stdout, false)
	return nil
}

func doCancel(ctx context.Context, c *ipp.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("cancel needs exactly one JOB-ID argument")
	}

	jobID, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("bad job id %q: %s", args[0], err)
	}

	rq := ipp.NewCancelJobRequest(c.URI, int32(jobID))

	if _, err := roundTrip(ctx, c, rq, nil); err != nil {
		return err
	}

	fmt.Printf("job %d canceled\n", jobID)
	return nil
}
