package dissector

// Next-protocol tokens shared across the link/network/transport/application
// dissector packages. Centralising them here (rather than letting each
// layer invent its own strings) keeps the registry wiring in one place.
const (
	TokenEthernet   Token = "ethernet"
	TokenLLC        Token = "llc"
	TokenDot11      Token = "dot11"
	TokenRadiotap   Token = "radiotap"
	TokenCookedV1   Token = "cooked-v1"
	TokenNullLoop   Token = "null-loopback"
	TokenPPPoESess  Token = "pppoe-session"

	TokenIPv4  Token = "ipv4"
	TokenIPv6  Token = "ipv6"
	TokenARP   Token = "arp"
	TokenICMP  Token = "icmp"
	TokenICMPv6 Token = "icmpv6"
	TokenIGMP  Token = "igmp"

	TokenTCP Token = "tcp"
	TokenUDP Token = "udp"

	TokenDNS  Token = "dns"
	TokenDHCP Token = "dhcp"
	TokenDHCPv6 Token = "dhcpv6"
	TokenSSDP Token = "ssdp"
	TokenSIP  Token = "sip"
	TokenIEEE1905 Token = "ieee1905"
)

// EtherType → token dispatch table (§4.3). Unlisted EtherTypes fall through
// to TokenNone with a warning via the registry's unknown-token path only if
// the caller routes them here explicitly; link.Ethernet instead sets an
// "unsupported ethertype" info string and terminates cleanly, since an
// unrecognised EtherType is common (lenient parsing, §6) rather than an
// error.
var EtherTypeTokens = map[uint16]Token{
	0x0800: TokenIPv4,
	0x86DD: TokenIPv6,
	0x0806: TokenARP,
	0x8035: TokenARP, // RARP shares the ARP wire format
	0x8864: TokenPPPoESess,
	0x893A: TokenIEEE1905,
}

// IPProtocolTokens maps an IPv4/IPv6 "next header" protocol number to a
// transport/network-layer token.
var IPProtocolTokens = map[uint8]Token{
	1:  TokenICMP,
	2:  TokenIGMP,
	6:  TokenTCP,
	17: TokenUDP,
	58: TokenICMPv6,
}
