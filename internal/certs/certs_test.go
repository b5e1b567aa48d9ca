package certs

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(t *testing.T, cert tls.Certificate) *x509.Certificate {
	t.Helper()
	require.Len(t, cert.Certificate, 1, "should have one certificate")
	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return x509Cert
}

func TestFileManager_GetOrCreateCertificate(t *testing.T) {
	tests := []struct {
		setup    func(t *testing.T, certDir string)
		validate func(t *testing.T, cert *x509.Certificate, certDir string)
		name     string
		hosts    []string
	}{
		{
			name:  "creates new certificate when none exists",
			setup: func(_ *testing.T, _ string) {},
			validate: func(t *testing.T, cert *x509.Certificate, _ string) {
				t.Helper()
				assert.Equal(t, "the-receipts-must-flow", cert.Subject.Organization[0])
				assert.Contains(t, cert.DNSNames, "localhost")
				assert.True(t, cert.NotAfter.After(time.Now().Add(364*24*time.Hour)), "certificate should be valid for about a year")
				assert.NoError(t, cert.VerifyHostname("127.0.0.1"))
			},
		},
		{
			name:  "covers extra hosts",
			hosts: []string{"receipts.lan", "192.168.1.20", "0.0.0.0"},
			setup: func(_ *testing.T, _ string) {},
			validate: func(t *testing.T, cert *x509.Certificate, _ string) {
				t.Helper()
				assert.NoError(t, cert.VerifyHostname("receipts.lan"))
				assert.NoError(t, cert.VerifyHostname("192.168.1.20"))
				for _, ip := range cert.IPAddresses {
					assert.False(t, ip.IsUnspecified())
				}
			},
		},
		{
			name: "reuses existing valid certificate",
			setup: func(t *testing.T, certDir string) {
				t.Helper()
				_, err := NewFileManager(certDir).GetOrCreateCertificate()
				require.NoError(t, err)
				// Tag the original so the test can tell it apart from a regenerated one.
				require.NoError(t, os.Chtimes(filepath.Join(certDir, "bridge.crt"), time.Unix(1, 0), time.Unix(1, 0)))
			},
			validate: func(t *testing.T, _ *x509.Certificate, certDir string) {
				t.Helper()
				info, err := os.Stat(filepath.Join(certDir, "bridge.crt"))
				require.NoError(t, err)
				assert.Equal(t, time.Unix(1, 0).Unix(), info.ModTime().Unix())
			},
		},
		{
			name: "regenerates unreadable certificate",
			setup: func(t *testing.T, certDir string) {
				t.Helper()
				require.NoError(t, os.MkdirAll(certDir, 0700))
				require.NoError(t, os.WriteFile(filepath.Join(certDir, "bridge.crt"), []byte("junk"), 0600))
				require.NoError(t, os.WriteFile(filepath.Join(certDir, "bridge.key"), []byte("junk"), 0600))
			},
			validate: func(t *testing.T, cert *x509.Certificate, _ string) {
				t.Helper()
				assert.NoError(t, cert.VerifyHostname("localhost"))
			},
		},
		{
			name: "regenerates when a new host is requested",
			setup: func(t *testing.T, certDir string) {
				t.Helper()
				_, err := NewFileManager(certDir).GetOrCreateCertificate()
				require.NoError(t, err)
			},
			hosts: []string{"scanner.local"},
			validate: func(t *testing.T, cert *x509.Certificate, _ string) {
				t.Helper()
				assert.NoError(t, cert.VerifyHostname("scanner.local"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certDir := filepath.Join(t.TempDir(), "certs")
			tt.setup(t, certDir)

			cert, err := NewFileManager(certDir, tt.hosts...).GetOrCreateCertificate()
			require.NoError(t, err)
			tt.validate(t, leaf(t, cert), certDir)
		})
	}
}

func TestVerifyCertificateExpiry(t *testing.T) {
	m := NewFileManager(t.TempDir())
	cert, err := m.GetOrCreateCertificate()
	require.NoError(t, err)

	assert.NoError(t, m.verifyCertificate(cert, time.Now()))
	assert.Error(t, m.verifyCertificate(cert, time.Now().Add(Validity-24*time.Hour)), "inside the renewal window")
	assert.Error(t, m.verifyCertificate(cert, time.Now().Add(-time.Hour)), "not yet valid")
	assert.Error(t, m.verifyCertificate(tls.Certificate{}, time.Now()))
}

func TestFilePermissions(t *testing.T) {
	dir := t.TempDir()
	m := NewFileManager(dir)
	_, err := m.GetOrCreateCertificate()
	require.NoError(t, err)

	for _, name := range []string{"bridge.crt", "bridge.key"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), name)
	}
	assert.Equal(t, filepath.Join(dir, "bridge.crt"), m.CertFile())
}

func TestTLSConfigServesHandshake(t *testing.T) {
	m := NewFileManager(t.TempDir())
	cfg, err := m.TLSConfig()
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)

	ln, err := tls.Listen("tcp", "127.0.0.1:0", cfg)
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	go func() {
		conn, acceptErr := ln.Accept()
		if acceptErr != nil {
			return
		}
		_ = conn.(*tls.Conn).Handshake()
		_ = conn.Close()
	}()

	pool := x509.NewCertPool()
	pemData, err := os.ReadFile(m.CertFile())
	require.NoError(t, err)
	require.True(t, pool.AppendCertsFromPEM(pemData))

	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 5 * time.Second}, "tcp", ln.Addr().String(), &tls.Config{
		RootCAs:    pool,
		ServerName: "localhost",
		MinVersion: tls.VersionTLS12,
	})
	require.NoError(t, err)
	_ = conn.Close()
}
