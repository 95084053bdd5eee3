package certificate

import (
	"crypto/ed25519"

	"golang.org/x/crypto/curve25519"
)

const (
	oidRSAEncryption = "1.2.840.113549.1.1.1"
	oidDSA           = "1.2.840.10040.4.1"
	oidDH            = "1.2.840.10046.2.1"
	oidECPublicKey   = "1.2.840.10045.2.1"
	oidX25519        = "1.3.101.110"
	oidX448          = "1.3.101.111"
	oidEd25519       = "1.3.101.112"
	oidEd448         = "1.3.101.113"
)

// named EC curve OIDs, spec §4.3's "P-192/224/256/384/521 and secp256k1".
var curveOIDToBits = map[string]int{
	"1.2.840.10045.3.1.1": 192, // prime192v1 / P-192
	"1.3.132.0.33":        224, // secp224r1
	"1.2.840.10045.3.1.7": 256, // prime256v1 / P-256
	"1.3.132.0.34":        384, // secp384r1
	"1.3.132.0.35":        521, // secp521r1
	"1.3.132.0.10":        256, // secp256k1
}

// detectKeyAlgorithm maps a SubjectPublicKeyInfo algorithm OID (and, for
// EC/DH families, its parameters) to a KeyAlgorithm and bit size. The
// publicKeyBits payload (the BIT STRING content, unused-bits already
// stripped) is consulted only for RSA modulus length; DH/DSA prime length
// is read from params.
func detectKeyAlgorithm(algOID string, params []byte, publicKeyBits []byte) (KeyAlgorithm, int) {
	switch algOID {
	case oidRSAEncryption:
		return KeyRSA, rsaModulusBits(publicKeyBits)
	case oidDSA:
		return KeyDSA, dhLikePrimeBits(params)
	case oidDH:
		return KeyDH, dhLikePrimeBits(params)
	case oidECPublicKey:
		curveOID, err := readCurveOID(params)
		if err != nil {
			return KeyECDSA, 0
		}
		return KeyECDSA, curveOIDToBits[curveOID]
	case oidX25519:
		return KeyX25519, curve25519.PointSize * 8
	case oidX448:
		return KeyX448, 448
	case oidEd25519:
		return KeyEd25519, ed25519.PublicKeySize * 8
	case oidEd448:
		return KeyEd448, 456 // Ed448 public key is 57 bytes = 456 bits
	default:
		return KeyUnknown, 0
	}
}

// rsaModulusBits parses the RSAPublicKey SEQUENCE { modulus INTEGER,
// publicExponent INTEGER } embedded in the BIT STRING payload and returns
// the modulus's bit length.
func rsaModulusBits(publicKeyBits []byte) int {
	seq, err := readSequence(publicKeyBits)
	if err != nil {
		return 0
	}
	modTLV, _, err := readTLV(seq)
	if err != nil || modTLV.Tag != tagInteger {
		return 0
	}
	return bitLength(decodeInteger(modTLV.Raw))
}

// dhLikePrimeBits parses DSA/DH parameters { p INTEGER, ... } and returns
// the prime p's bit length.
func dhLikePrimeBits(params []byte) int {
	seq, err := readSequence(params)
	if err != nil {
		return 0
	}
	pTLV, _, err := readTLV(seq)
	if err != nil || pTLV.Tag != tagInteger {
		return 0
	}
	return bitLength(decodeInteger(pTLV.Raw))
}

// readCurveOID reads the ECParameters CHOICE when it is a named curve OID
// (the only form this parser supports; explicit curve parameters are
// reported as an unrecognized curve, yielding KeyBits=0).
func readCurveOID(params []byte) (string, error) {
	t, _, err := readTLV(params)
	if err != nil || t.Tag != tagOID {
		return "", parseErr("EC parameters are not a named curve OID")
	}
	return decodeOID(t.Raw)
}

func bitLength(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	n := (len(b) - 1) * 8
	top := b[0]
	for top != 0 {
		n++
		top >>= 1
	}
	return n
}
