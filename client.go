/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * IPP-over-HTTP client
 */

package ipp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
)

// Client sends IPP requests to a printer or print server over HTTP.
//
// The zero fields of a Client get sensible values on first use, so
// Client{URI: "ipp://host/ipp/print"} is ready to go. A Client is safe
// for concurrent use; request ids are allocated from an atomic
// counter.
type Client struct {
	// URI is the printer URI. The ipp and ipps schemes are
	// translated to http and https on port 631 for the transport;
	// http and https URIs are used as given.
	URI string

	// HTTPClient optionally overrides http.DefaultClient.
	HTTPClient *http.Client

	// DecoderOptions applied to responses.
	DecoderOptions DecoderOptions

	reqid uint32
}

// NewClient creates a Client for the given printer URI.
func NewClient(uri string) *Client {
	return &Client{URI: uri}
}

// Do sends a request message and decodes the response. doc, when not
// nil, is streamed after the encoded message as the document data (for
// Print-Job and Send-Document). A zero rq.RequestID is replaced with a
// freshly allocated one.
//
// A non-2xx HTTP status or an undecodable response body is an error;
// an IPP error status is not, and is left for the caller to inspect
// via the returned message.
func (c *Client) Do(ctx context.Context, rq *Message, doc io.Reader) (*Message, error) {
	if rq.RequestID == 0 {
		rq.RequestID = atomic.AddUint32(&c.reqid, 1)
	}

	httpURI, err := transportURI(c.URI)
	if err != nil {
		return nil, err
	}

	encoded, err := rq.EncodeBytes()
	if err != nil {
		return nil, err
	}

	body := io.Reader(bytes.NewReader(encoded))
	if doc != nil {
		body = io.MultiReader(body, doc)
	}

	httpRq, err := http.NewRequestWithContext(ctx,
		http.MethodPost, httpURI, body)
	if err != nil {
		return nil, err
	}
	httpRq.Header.Set("Content-Type", ContentType)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	httpRsp, err := httpClient.Do(httpRq)
	if err != nil {
		return nil, err
	}
	defer httpRsp.Body.Close()

	if httpRsp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("http: %s", httpRsp.Status)
	}

	rsp := &Message{}
	if err = rsp.DecodeEx(httpRsp.Body, c.DecoderOptions); err != nil {
		return nil, err
	}

	if rsp.RequestID != rq.RequestID {
		return nil, fmt.Errorf("response request-id %d, expected %d",
			rsp.RequestID, rq.RequestID)
	}

	return rsp, nil
}

// transportURI maps a printer URI to the HTTP URL requests go to.
func transportURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("printer uri: %s", err)
	}

	switch u.Scheme {
	case "http", "https":
		return u.String(), nil
	case "ipp", "ipps":
	default:
		return "", fmt.Errorf("printer uri: unsupported scheme %q",
			u.Scheme)
	}

	if u.Scheme == "ipp" {
		u.Scheme = "http"
	} else {
		u.Scheme = "https"
	}

	if u.Port() == "" {
		u.Host = u.Host + ":631"
	}

	return u.String(), nil
}
