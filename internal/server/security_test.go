package server

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/identity-server/internal/model"
)

// writeSelfSigned writes a self-signed 127.0.0.1 certificate and its key into
// dir and returns both paths.
func writeSelfSigned(t *testing.T, dir string) (string, string) {
	t.Helper()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"identity-server test"},
			CommonName:   "127.0.0.1",
		},
		NotBefore:   time.Now(),
		NotAfter:    time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:    x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses: []net.IP{net.IPv4(127, 0, 0, 1)},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	require.NoError(t, err)

	certOut, err := os.Create(certFile)
	require.NoError(t, err)
	defer certOut.Close()

	err = pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	require.NoError(t, err)

	keyOut, err := os.Create(keyFile)
	require.NoError(t, err)
	defer keyOut.Close()

	privKeyBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	require.NoError(t, err)

	err = pem.Encode(keyOut, &pem.Block{Type: "PRIVATE KEY", Bytes: privKeyBytes})
	require.NoError(t, err)

	return certFile, keyFile
}

func TestNewSecurityLayer(t *testing.T) {
	t.Parallel()

	tlsLayer := NewSecurityLayer(true, "cert.pem", "key.pem")
	require.IsType(t, &TLSListener{}, tlsLayer)
	assert.Equal(t, "cert.pem", tlsLayer.(*TLSListener).certFileName)
	assert.Equal(t, "key.pem", tlsLayer.(*TLSListener).privateKeyFileName)

	assert.IsType(t, &PlainListener{}, NewSecurityLayer(false, "cert.pem", "key.pem"))
}

func TestListen_Errors(t *testing.T) {
	t.Parallel()

	certFile, keyFile := writeSelfSigned(t, t.TempDir())

	tests := []struct {
		name    string
		layer   func() model.SecurityLayer
		network string
		addr    string
		errText string
	}{
		{
			name:    "missing key pair",
			layer:   func() model.SecurityLayer { return NewTLSListener("missing.crt", "missing.key") },
			network: "tcp",
			addr:    "127.0.0.1:0",
			errText: "failed to load TLS certificate",
		},
		{
			name:    "tls bad address",
			layer:   func() model.SecurityLayer { return NewTLSListener(certFile, keyFile) },
			network: "tcp",
			addr:    "not-an-address",
		},
		{
			name:    "plain bad address",
			layer:   func() model.SecurityLayer { return NewPlainListener() },
			network: "tcp",
			addr:    "not-an-address",
		},
		{
			name:    "plain unknown network",
			layer:   func() model.SecurityLayer { return NewPlainListener() },
			network: "carrier-pigeon",
			addr:    "127.0.0.1:0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.layer().Listen(tt.network, tt.addr)
			require.Error(t, err)
			if tt.errText != "" {
				assert.Contains(t, err.Error(), tt.errText)
			}
		})
	}
}

func TestPlainListener_Listen(t *testing.T) {
	t.Parallel()

	ln, err := NewPlainListener().Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	assert.IsType(t, &net.TCPListener{}, ln)
}

func TestTLSListener_Handshake(t *testing.T) {
	t.Parallel()

	certFile, keyFile := writeSelfSigned(t, t.TempDir())

	ln, err := NewTLSListener(certFile, keyFile).Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.(*tls.Conn).Handshake()
			_ = conn.Close()
		}
	}()

	t.Run("modern client accepted", func(t *testing.T) {
		conn, err := tls.Dial("tcp", ln.Addr().String(), &tls.Config{InsecureSkipVerify: true})
		require.NoError(t, err)
		defer conn.Close()
		assert.GreaterOrEqual(t, conn.ConnectionState().Version, uint16(tls.VersionTLS12))
	})

	t.Run("tls 1.1 client rejected", func(t *testing.T) {
		_, err := tls.Dial("tcp", ln.Addr().String(), &tls.Config{
			InsecureSkipVerify: true,
			MinVersion:         tls.VersionTLS10,
			MaxVersion:         tls.VersionTLS11,
		})
		assert.Error(t, err)
	})
}
