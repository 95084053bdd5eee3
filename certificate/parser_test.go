package certificate

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func buildTestCertDER(t *testing.T) []byte {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(12345),
		Subject: pkix.Name{
			CommonName:   "example.com",
			Organization: []string{"Example Corp"},
		},
		NotBefore:             time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:              time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		BasicConstraintsValid: true,
		IsCA:                  false,
		DNSNames:              []string{"example.com"},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1)},
		OCSPServer:            []string{"http://ocsp.example.com"},
		CRLDistributionPoints: []string{"http://crl.example.com/ca.crl"},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	return der
}

func TestParseDERExtractsSANAndKeyUsage(t *testing.T) {
	der := buildTestCertDER(t)
	pc, err := ParseDER(der, nil)
	require.NoError(t, err)

	require.Equal(t, "example.com", pc.Subject.Get("CN"))
	require.Contains(t, pc.SANDNSNames, "example.com")
	require.Len(t, pc.SANIPAddresses, 1)
	require.True(t, pc.SANIPAddresses[0].Equal(net.IPv4(127, 0, 0, 1)))
	require.True(t, pc.KeyUsage.DigitalSignature)
	require.True(t, pc.KeyUsage.KeyEncipherment)
	require.False(t, pc.KeyUsage.CRLSign)
	require.False(t, pc.IsCA)
	require.Equal(t, KeyRSA, pc.KeyAlgorithm)
	require.Equal(t, 2048, pc.KeyBits)
	require.Equal(t, []string{"http://ocsp.example.com"}, pc.OCSPURLs)
	require.Equal(t, []string{"http://crl.example.com/ca.crl"}, pc.CRLURLs)
	require.Equal(t, 2026, pc.NotBefore.Year())
}

func TestParseDERBasicConstraintsCA(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "ca.example.com"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)

	pc, err := ParseDER(der, nil)
	require.NoError(t, err)
	require.True(t, pc.IsCA)
	require.True(t, pc.KeyUsage.KeyCertSign)
}

func TestParsePEM(t *testing.T) {
	der := buildTestCertDER(t)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	pc, err := ParsePEM(pemBytes, nil)
	require.NoError(t, err)
	require.Equal(t, "example.com", pc.Subject.Get("CN"))
}

func TestParseDERMalformedInput(t *testing.T) {
	_, err := ParseDER([]byte{0x01, 0x02}, nil)
	require.Error(t, err)
}
