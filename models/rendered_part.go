package models

import "fmt"

// Header is one custom email header. Headers keep insertion order, which map
// iteration would not guarantee.
type Header struct {
	Key   string
	Value string
}

// RenderedPart is one size-bounded slice of a digest rendered as a standalone
// email payload. Produced once by the partitioner and handed to a delivery
// sink; the sink's caller may attach sender/recipient but never mutates the
// rendered content.
type RenderedPart struct {
	Subject       string
	HTMLBody      string
	TextBody      string
	CustomHeaders []Header
}

// Header returns the value of the named custom header
func (p *RenderedPart) Header(key string) (string, bool) {
	for _, h := range p.CustomHeaders {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

// SetHeader appends or replaces the named custom header
func (p *RenderedPart) SetHeader(key, value string) {
	for i, h := range p.CustomHeaders {
		if h.Key == key {
			p.CustomHeaders[i].Value = value
			return
		}
	}
	p.CustomHeaders = append(p.CustomHeaders, Header{Key: key, Value: value})
}

// multipartBoundary is fixed so that size estimates are deterministic and
// match what the SMTP sink actually sends.
const multipartBoundary = "===============slackdigest=============="

// MultipartBody serializes the part as a multipart/alternative MIME body
// (text first, HTML second) with the Content-Type header line included.
// The same serialization is used for both size estimation and SMTP delivery
// so the estimate can never drift from the real payload.
func (p *RenderedPart) MultipartBody() string {
	return fmt.Sprintf(
		"Content-Type: multipart/alternative; boundary=\"%[1]s\"\r\n"+
			"MIME-Version: 1.0\r\n"+
			"\r\n"+
			"--%[1]s\r\n"+
			"Content-Type: text/plain; charset=\"us-ascii\"\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Transfer-Encoding: 7bit\r\n"+
			"\r\n"+
			"%[2]s\r\n"+
			"--%[1]s\r\n"+
			"Content-Type: text/html; charset=\"us-ascii\"\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Transfer-Encoding: 7bit\r\n"+
			"\r\n"+
			"%[3]s\r\n"+
			"--%[1]s--\r\n",
		multipartBoundary, p.TextBody, p.HTMLBody,
	)
}
