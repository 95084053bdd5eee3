// Package certificate implements the pure DER/ASN.1 X.509 certificate
// parser (CP in spec §4.3): no I/O, consumed by TLS handshake code external
// to this module.
package certificate

import (
	"net"
	"time"
)

// KeyAlgorithm names the public-key algorithm family detected from the
// SubjectPublicKeyInfo OID, per spec §4.3's algorithm list.
type KeyAlgorithm string

const (
	KeyRSA       KeyAlgorithm = "RSA"
	KeyDSA       KeyAlgorithm = "DSA"
	KeyDH        KeyAlgorithm = "DH"
	KeyECDSA     KeyAlgorithm = "ECDSA"
	KeyX25519    KeyAlgorithm = "X25519"
	KeyX448      KeyAlgorithm = "X448"
	KeyEd25519   KeyAlgorithm = "Ed25519"
	KeyEd448     KeyAlgorithm = "Ed448"
	KeyUnknown   KeyAlgorithm = "unknown"
)

// KeyUsage is the RFC 5280 §4.2.1.3 KeyUsage bit set.
type KeyUsage struct {
	DigitalSignature bool
	NonRepudiation   bool
	KeyEncipherment  bool
	DataEncipherment bool
	KeyAgreement     bool
	KeyCertSign      bool
	CRLSign          bool
	EncipherOnly     bool
	DecipherOnly     bool
}

// DN is an ordered sequence of OID -> value pairs, preserving RDN encoding
// order (spec §3: "subject DN (ordered map of OID->string)").
type DN struct {
	OIDs   []string
	Values []string
}

// Get returns the first value for a DN attribute name (CN, O, OU, C, ST, L),
// or "" if absent.
func (d DN) Get(shortName string) string {
	oid, ok := dnShortNameOID[shortName]
	if !ok {
		return ""
	}
	for i, o := range d.OIDs {
		if o == oid {
			return d.Values[i]
		}
	}
	return ""
}

var dnShortNameOID = map[string]string{
	"CN": "2.5.4.3",
	"O":  "2.5.4.10",
	"OU": "2.5.4.11",
	"C":  "2.5.4.6",
	"ST": "2.5.4.8",
	"L":  "2.5.4.7",
}

// ParsedCertificate is the structured record CP produces, per spec §3.
type ParsedCertificate struct {
	Subject DN
	Issuer  DN

	SANDNSNames    []string
	SANIPAddresses []net.IP

	IsCA     bool
	KeyUsage KeyUsage

	NotBefore time.Time
	NotAfter  time.Time

	SerialNumber []byte

	OCSPURLs []string
	CRLURLs  []string

	SubjectDER []byte
	SPKIDER    []byte

	KeyAlgorithm KeyAlgorithm
	KeyBits      int // 0 when not detected
}
