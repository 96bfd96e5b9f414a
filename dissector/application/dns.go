// Package application implements the application-layer dissectors reached
// directly from a single UDP datagram (§4.3): DNS and its mDNS/LLMNR/NBNS
// port-multiplexed siblings, DHCP/DHCPv6, SSDP, and SIP. HTTP and TLS ride
// over TCP reassembly and are implemented as stream dissectors in this
// package instead (see http.go, tls.go) — they are driven by package flow,
// not by the per-frame registry.
package application

import (
	"fmt"
	"strings"

	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

// Register installs the UDP-delivered application dissectors into reg.
func Register(reg *dissector.Registry) {
	reg.Register(dissector.TokenDNS, DNS)
	reg.Register(dissector.TokenDHCP, DHCP)
	reg.Register(dissector.TokenDHCPv6, DHCPv6)
	reg.Register(dissector.TokenSSDP, SSDP)
	reg.Register(dissector.TokenSIP, SIP)
}

var dnsTypeNames = map[uint16]string{
	1: "A", 2: "NS", 5: "CNAME", 6: "SOA", 12: "PTR", 15: "MX",
	16: "TXT", 28: "AAAA", 33: "SRV", 41: "OPT", 255: "ANY",
}

func dnsTypeName(t uint16) string {
	if n, ok := dnsTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("TYPE%d", t)
}

var dnsClassNames = map[uint16]string{1: "IN", 3: "CH", 255: "ANY"}

func dnsClassName(c uint16) string {
	if n, ok := dnsClassNames[c]; ok {
		return n
	}
	return fmt.Sprintf("CLASS%d", c)
}

// readDNSName decodes a (possibly compressed) DNS name starting at the
// reader's current position in the full message buffer. msg is the entire
// DNS message (not just the remaining bytes) so compression pointers,
// which reference absolute offsets, can be followed.
func readDNSName(msg []byte, pos int) (string, int, error) {
	var labels []string
	start := pos
	jumped := false
	guard := 0

	for {
		guard++
		if guard > 128 {
			return "", 0, fmt.Errorf("dns name too deeply compressed")
		}
		if pos >= len(msg) {
			return "", 0, reader.ErrEndOfStream
		}
		length := msg[pos]
		if length == 0 {
			pos++
			break
		}
		if length&0xC0 == 0xC0 {
			if pos+1 >= len(msg) {
				return "", 0, reader.ErrEndOfStream
			}
			ptr := int(length&0x3f)<<8 | int(msg[pos+1])
			if !jumped {
				start = pos + 2
			}
			jumped = true
			pos = ptr
			continue
		}
		pos++
		if pos+int(length) > len(msg) {
			return "", 0, reader.ErrEndOfStream
		}
		labels = append(labels, string(msg[pos:pos+int(length)]))
		pos += int(length)
	}

	consumed := pos
	if jumped {
		consumed = start
	}
	return strings.Join(labels, "."), consumed, nil
}

// DNS dissects a DNS message (also used for mDNS, LLMNR, and NBNS via port
// multiplex per §4.3 — all share the same header/question/RR shape closely
// enough for this lenient parser). It records the result as a model.DNSRecord
// on ctx for the engine to add to the DNS table (component G).
func DNS(r *reader.Reader, ctx *dissector.Context) (*model.Field, dissector.Token, error) {
	start := r.Pos()
	msg, err := r.Peek(r.Remaining())
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	full := msg // bytes from r's current position to end of datagram

	txID, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	flags, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	qdCount, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	anCount, err := r.U16(reader.BigEndian)
	if err != nil {
		return nil, dissector.TokenNone, err
	}
	if _, err := r.U16(reader.BigEndian); err != nil { // nscount
		return nil, dissector.TokenNone, err
	}
	if _, err := r.U16(reader.BigEndian); err != nil { // arcount
		return nil, dissector.TokenNone, err
	}

	isResponse := flags&0x8000 != 0

	record := &model.DNSRecord{
		TransactionID: txID,
	}

	var queryName, queryType, queryClass string
	for i := 0; i < int(qdCount); i++ {
		name, next, err := readDNSName(full, r.Pos()-start)
		if err != nil {
			ctx.Warn()
			break
		}
		if err := r.Skip(start + next - r.Pos()); err != nil {
			ctx.Warn()
			break
		}
		qtype, err := r.U16(reader.BigEndian)
		if err != nil {
			ctx.Warn()
			break
		}
		qclass, err := r.U16(reader.BigEndian)
		if err != nil {
			ctx.Warn()
			break
		}
		if i == 0 {
			queryName = name
			queryType = dnsTypeName(qtype)
			queryClass = dnsClassName(qclass)
		}
	}
	record.QueryName = queryName
	record.QueryType = queryType
	record.QueryClass = queryClass

	if isResponse {
		for i := 0; i < int(anCount); i++ {
			name, next, err := readDNSName(full, r.Pos()-start)
			if err != nil {
				ctx.Warn()
				break
			}
			if err := r.Skip(start + next - r.Pos()); err != nil {
				ctx.Warn()
				break
			}
			rtype, err := r.U16(reader.BigEndian)
			if err != nil {
				break
			}
			rclass, err := r.U16(reader.BigEndian)
			if err != nil {
				break
			}
			ttl, err := r.U32(reader.BigEndian)
			if err != nil {
				break
			}
			rdlen, err := r.U16(reader.BigEndian)
			if err != nil {
				break
			}
			rdataOffset := r.Pos() - start
			rdata, err := r.Borrow(int(rdlen))
			if err != nil {
				ctx.Warn()
				break
			}
			record.Answers = append(record.Answers, model.DNSAnswer{
				Name:    name,
				Type:    dnsTypeName(rtype),
				Class:   dnsClassName(rclass),
				TTL:     ttl,
				Content: formatRData(rtype, rdata, full, rdataOffset),
			})
		}
	}

	ctx.DNS = record
	ctx.SetInfo("DNS %s %s %s", map[bool]string{true: "response", false: "query"}[isResponse], queryType, queryName)

	// Consume any trailing bytes (authority/additional sections we did not
	// walk) so the field's range still covers the whole datagram.
	if err := r.Skip(r.Remaining()); err != nil {
		return nil, dissector.TokenNone, err
	}

	label := "Query"
	if isResponse {
		label = "Response"
	}
	root := &model.Field{
		Offset:  start,
		Length:  r.Pos() - start,
		Summary: fmt.Sprintf("Domain Name System, %s: %s %s, id: 0x%04x", label, queryType, queryName, txID),
		Tag:     "dns",
	}
	return root, dissector.TokenNone, nil
}

func formatRData(rtype uint16, rdata []byte, full []byte, offset int) string {
	switch rtype {
	case 1: // A
		if len(rdata) == 4 {
			return fmt.Sprintf("%d.%d.%d.%d", rdata[0], rdata[1], rdata[2], rdata[3])
		}
	case 5, 12: // CNAME, PTR
		name, _, err := readDNSName(full, offset)
		if err == nil {
			return name
		}
	}
	return fmt.Sprintf("% x", rdata)
}
