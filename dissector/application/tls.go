package application

import (
	"crypto/x509"
	"time"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
)

// TLS is the stream dissector for TLS 1.0-1.3 record framing plus enough
// handshake parsing to recover SNI, negotiated cipher suite, and
// certificate subject/issuer/validity (§4.3, §4.5). It is record-oriented:
// every Feed call consumes at most one record, so the flow tracker drives
// it in a loop until NeedMoreData.
var TLS dissector.StreamDissector = tlsDissector{}

type tlsDissector struct{}

type tlsState struct{}

func (tlsDissector) NewState() dissector.StreamState { return &tlsState{} }

const tlsRecordHeaderLen = 5

func (tlsDissector) Feed(_ dissector.StreamState, data []byte, sctx dissector.StreamContext) dissector.StreamResult {
	if len(data) < tlsRecordHeaderLen {
		return dissector.StreamResult{Action: dissector.NeedMoreData}
	}

	contentType := data[0]
	version := uint16(data[1])<<8 | uint16(data[2])
	length := int(data[3])<<8 | int(data[4])

	if contentType < 20 || contentType > 24 {
		// Not a plausible TLS record type; this connection probably isn't
		// TLS after all.
		return dissector.StreamResult{Action: dissector.AbortStream}
	}

	total := tlsRecordHeaderLen + length
	if len(data) < total {
		return dissector.StreamResult{Action: dissector.NeedMoreData}
	}

	record := &model.TLSHandshakeRecord{
		ConnectionID:  sctx.ConnectionID,
		FrameIndex:    sctx.TriggerFrame,
		ContentType:   contentType,
		Version:       version,
	}

	var produced interface{}
	if contentType == 22 { // handshake
		if parseHandshake(data[tlsRecordHeaderLen:total], record) {
			produced = record
		}
	}

	return dissector.StreamResult{
		Action:   dissector.MessageComplete,
		Consumed: total,
		Produced: produced,
	}
}

// parseHandshake walks the handshake messages inside one TLS record body,
// filling in record for ClientHello (SNI, offered cipher suites),
// ServerHello (chosen cipher suite), and Certificate (leaf subject/issuer/
// validity via stdlib X.509 parsing). Returns whether anything worth
// reporting was found.
func parseHandshake(body []byte, record *model.TLSHandshakeRecord) bool {
	found := false
	pos := 0
	for pos+4 <= len(body) {
		msgType := body[pos]
		msgLen := int(body[pos+1])<<16 | int(body[pos+2])<<8 | int(body[pos+3])
		pos += 4
		if pos+msgLen > len(body) {
			break
		}
		msg := body[pos : pos+msgLen]
		record.HandshakeType = msgType

		switch msgType {
		case 1: // ClientHello
			if sni, suites, ok := parseClientHello(msg); ok {
				record.SNI = sni
				record.OfferedCipherSuites = suites
				found = true
			}
		case 2: // ServerHello
			if suite, ok := parseServerHello(msg); ok {
				record.ChosenCipherSuite = suite
				found = true
			}
		case 11: // Certificate
			if subj, iss, notBefore, notAfter, ok := parseCertificateMessage(msg); ok {
				record.CertificateSubject = subj
				record.CertificateIssuer = iss
				record.CertificateValidFrom = notBefore
				record.CertificateValidTo = notAfter
				found = true
			}
		}

		pos += msgLen
	}
	return found
}

func parseClientHello(msg []byte) (string, []uint16, bool) {
	pos := 2 + 32 // client_version, random
	if pos >= len(msg) {
		return "", nil, false
	}
	sessionIDLen := int(msg[pos])
	pos += 1 + sessionIDLen
	if pos+2 > len(msg) {
		return "", nil, false
	}
	cipherSuitesLen := int(msg[pos])<<8 | int(msg[pos+1])
	pos += 2
	var suites []uint16
	for i := 0; i+1 < cipherSuitesLen && pos+1 < len(msg); i += 2 {
		suites = append(suites, uint16(msg[pos])<<8|uint16(msg[pos+1]))
		pos += 2
	}
	if pos >= len(msg) {
		return "", suites, true
	}
	compLen := int(msg[pos])
	pos += 1 + compLen
	if pos+2 > len(msg) {
		return "", suites, true
	}
	extTotalLen := int(msg[pos])<<8 | int(msg[pos+1])
	pos += 2
	extEnd := pos + extTotalLen
	if extEnd > len(msg) {
		extEnd = len(msg)
	}

	sni := ""
	for pos+4 <= extEnd {
		extType := uint16(msg[pos])<<8 | uint16(msg[pos+1])
		extLen := int(msg[pos+2])<<8 | int(msg[pos+3])
		pos += 4
		if pos+extLen > extEnd {
			break
		}
		if extType == 0 { // server_name
			sni = parseSNIExtension(msg[pos : pos+extLen])
		}
		pos += extLen
	}
	return sni, suites, true
}

func parseSNIExtension(ext []byte) string {
	if len(ext) < 2 {
		return ""
	}
	pos := 2 // server_name_list length
	for pos+3 <= len(ext) {
		nameType := ext[pos]
		nameLen := int(ext[pos+1])<<8 | int(ext[pos+2])
		pos += 3
		if pos+nameLen > len(ext) {
			break
		}
		if nameType == 0 {
			return string(ext[pos : pos+nameLen])
		}
		pos += nameLen
	}
	return ""
}

func parseServerHello(msg []byte) (uint16, bool) {
	pos := 2 + 32
	if pos >= len(msg) {
		return 0, false
	}
	sessionIDLen := int(msg[pos])
	pos += 1 + sessionIDLen
	if pos+2 > len(msg) {
		return 0, false
	}
	suite := uint16(msg[pos])<<8 | uint16(msg[pos+1])
	return suite, true
}

// parseCertificateMessage reads the leaf certificate out of a Certificate
// handshake message (3-byte total length, then a sequence of 3-byte
// length-prefixed DER certificates) and parses it with the standard
// library's X.509 decoder — full ASN.1 re-implementation is out of scope
// when crypto/x509 already does this correctly.
func parseCertificateMessage(msg []byte) (subject, issuer string, notBefore, notAfter time.Time, ok bool) {
	if len(msg) < 3 {
		return "", "", time.Time{}, time.Time{}, false
	}
	listLen := int(msg[0])<<16 | int(msg[1])<<8 | int(msg[2])
	pos := 3
	end := 3 + listLen
	if end > len(msg) {
		end = len(msg)
	}
	if pos+3 > end {
		return "", "", time.Time{}, time.Time{}, false
	}
	certLen := int(msg[pos])<<16 | int(msg[pos+1])<<8 | int(msg[pos+2])
	pos += 3
	if pos+certLen > end {
		return "", "", time.Time{}, time.Time{}, false
	}
	der := msg[pos : pos+certLen]

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return "", "", time.Time{}, time.Time{}, false
	}
	return cert.Subject.String(), cert.Issuer.String(), cert.NotBefore, cert.NotAfter, true
}
