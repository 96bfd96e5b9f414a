package application

import (
	"fmt"
	"strings"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// SSDP dissects a Simple Service Discovery Protocol message: an HTTP-like
// request/response line (NOTIFY/M-SEARCH/HTTP) followed by colon-separated
// headers, terminated by a blank line or end of datagram.
func SSDP(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	startLine, err := r.LineString()
	if err != nil {
		return nil, dissector.TokenNone, err
	}

	headerCount := 0
	for {
		line, err := r.LineString()
		if err != nil {
			break
		}
		if line == "" {
			break
		}
		headerCount++
	}

	if err := r.Skip(r.Remaining()); err != nil {
		return nil, dissector.TokenNone, err
	}

	ctx.SetInfo("SSDP %s", startLine)

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("Simple Service Discovery Protocol, %s (%d headers)", strings.TrimSpace(startLine), headerCount),
		Tag:     "ssdp",
	}
	return root, dissector.TokenNone, nil
}

// SIP dissects a Session Initiation Protocol message with the same
// request/status-line-plus-headers shape as SSDP/HTTP.
func SIP(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()

	startLine, err := r.LineString()
	if err != nil {
		return nil, dissector.TokenNone, err
	}

	var callID string
	for {
		line, err := r.LineString()
		if err != nil {
			break
		}
		if line == "" {
			break
		}
		if idx := strings.IndexByte(line, ':'); idx >= 0 {
			name := strings.TrimSpace(line[:idx])
			if strings.EqualFold(name, "Call-ID") || strings.EqualFold(name, "i") {
				callID = strings.TrimSpace(line[idx+1:])
			}
		}
	}

	if err := r.Skip(r.Remaining()); err != nil {
		return nil, dissector.TokenNone, err
	}

	ctx.SetInfo("SIP %s", startLine)

	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("Session Initiation Protocol, %s, Call-ID: %s", strings.TrimSpace(startLine), callID),
		Tag:     "sip",
	}
	return root, dissector.TokenNone, nil
}
