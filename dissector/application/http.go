package application

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
)

// HTTP is the stream dissector for HTTP/1.x (§4.4/§4.5). Requests and
// responses are recognised independently per direction: each direction's
// state only needs to remember whether the previous message on this
// connection was a request (so a following response can be told apart from
// a pipelined second request), which the flow tracker's direction-is-fixed
// delivery already guarantees without extra bookkeeping here.
var HTTP dissector.StreamDissector = httpDissector{}

type httpDissector struct{}

type httpState struct{}

func (httpDissector) NewState() dissector.StreamState { return &httpState{} }

func (httpDissector) Feed(_ dissector.StreamState, data []byte, sctx dissector.StreamContext) dissector.StreamResult {
	headerEnd := bytes.Index(data, []byte("\r\n\r\n"))
	if headerEnd < 0 {
		if len(data) > 32*1024 { // no plausible header this large; give up
			return dissector.StreamResult{Action: dissector.AbortStream}
		}
		return dissector.StreamResult{Action: dissector.NeedMoreData}
	}

	headerBlock := string(data[:headerEnd])
	lines := strings.Split(headerBlock, "\r\n")
	if len(lines) == 0 {
		return dissector.StreamResult{Action: dissector.AbortStream}
	}
	startLine := lines[0]

	msg := &model.HTTPMessage{
		ConnectionID:    sctx.ConnectionID,
		FirstFrameIndex: sctx.TriggerFrame,
		LastFrameIndex:  sctx.TriggerFrame,
	}

	isRequest := isRequestLine(startLine)
	if isRequest {
		msg.Direction = model.HTTPRequest
		parts := strings.SplitN(startLine, " ", 3)
		if len(parts) >= 2 {
			msg.Method = parts[0]
			msg.Path = parts[1]
		}
	} else {
		msg.Direction = model.HTTPResponse
		parts := strings.SplitN(startLine, " ", 3)
		if len(parts) >= 2 {
			code, _ := strconv.Atoi(parts[1])
			msg.StatusCode = code
		}
		if len(parts) == 3 {
			msg.StatusText = parts[2]
		}
	}

	contentLength := -1
	chunked := false
	for _, line := range lines[1:] {
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		msg.Headers = append(msg.Headers, model.HTTPHeader{Name: name, Value: value})
		switch strings.ToLower(name) {
		case "content-length":
			if n, err := strconv.Atoi(value); err == nil {
				contentLength = n
			}
		case "transfer-encoding":
			if strings.EqualFold(value, "chunked") {
				chunked = true
			}
		case "content-type":
			msg.ContentType = value
		case "content-encoding":
			msg.ContentEncoding = value
		}
	}
	msg.Chunked = chunked

	bodyStart := headerEnd + 4

	if chunked {
		body, total, ok := parseChunkedBody(data[bodyStart:])
		if !ok {
			return dissector.StreamResult{Action: dissector.NeedMoreData}
		}
		msg.Body = decompressBody(msg.ContentEncoding, body)
		return dissector.StreamResult{
			Action:   dissector.MessageComplete,
			Consumed: bodyStart + total,
			Produced: msg,
		}
	}

	if contentLength < 0 {
		contentLength = 0
	}
	if len(data)-bodyStart < contentLength {
		return dissector.StreamResult{Action: dissector.NeedMoreData}
	}
	msg.Body = decompressBody(msg.ContentEncoding, data[bodyStart:bodyStart+contentLength])

	return dissector.StreamResult{
		Action:   dissector.MessageComplete,
		Consumed: bodyStart + contentLength,
		Produced: msg,
	}
}

// decompressBody undoes a Content-Encoding the body was sent under; an
// unrecognised or empty encoding returns body unchanged rather than
// failing the whole message.
func decompressBody(encoding string, body []byte) []byte {
	var dr io.Reader
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return append([]byte(nil), body...)
		}
		dr = r
	case "deflate":
		dr = flate.NewReader(bytes.NewReader(body))
	case "br":
		dr = brotli.NewReader(bytes.NewReader(body))
	case "zstd":
		zr, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return append([]byte(nil), body...)
		}
		defer zr.Close()
		dr = zr
	default:
		return append([]byte(nil), body...)
	}
	decoded, err := io.ReadAll(dr)
	if err != nil {
		return append([]byte(nil), body...)
	}
	return decoded
}

func isRequestLine(line string) bool {
	for _, method := range []string{"GET ", "POST ", "PUT ", "DELETE ", "HEAD ", "OPTIONS ", "PATCH ", "CONNECT ", "TRACE "} {
		if strings.HasPrefix(line, method) {
			return true
		}
	}
	return false
}

// parseChunkedBody decodes HTTP chunked transfer encoding starting right
// after the headers. Returns the decoded body, the number of raw bytes
// consumed (including the terminating "0\r\n\r\n"), and whether the chunk
// stream was fully available.
func parseChunkedBody(data []byte) ([]byte, int, bool) {
	var body []byte
	pos := 0
	for {
		lineEnd := bytes.Index(data[pos:], []byte("\r\n"))
		if lineEnd < 0 {
			return nil, 0, false
		}
		sizeLine := string(data[pos : pos+lineEnd])
		if idx := strings.IndexByte(sizeLine, ';'); idx >= 0 {
			sizeLine = sizeLine[:idx]
		}
		size, err := strconv.ParseInt(strings.TrimSpace(sizeLine), 16, 64)
		if err != nil {
			return nil, 0, false
		}
		pos += lineEnd + 2

		if size == 0 {
			if pos+2 > len(data) {
				return nil, 0, false
			}
			pos += 2 // trailing CRLF after the zero chunk
			return body, pos, true
		}

		if pos+int(size)+2 > len(data) {
			return nil, 0, false
		}
		body = append(body, data[pos:pos+int(size)]...)
		pos += int(size) + 2
	}
}
