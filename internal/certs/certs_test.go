package certs

import (
	"crypto/x509"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(t *testing.T, m *Manager) *x509.Certificate {
	t.Helper()
	cert, err := m.Certificate()
	require.NoError(t, err)
	parsed, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return parsed
}

func TestCertificateIssuedAndReused(t *testing.T) {
	m := NewManager(t.TempDir(), "zerbin.internal", "10.0.0.5")

	first := leaf(t, m)
	assert.Contains(t, first.DNSNames, "localhost")
	assert.Contains(t, first.DNSNames, "zerbin.internal")
	require.NoError(t, first.VerifyHostname("10.0.0.5"))
	require.NoError(t, first.VerifyHostname("127.0.0.1"))

	certFile, keyFile := m.Files()
	info, err := os.Stat(keyFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	_, err = os.Stat(certFile)
	require.NoError(t, err)

	second := leaf(t, m)
	assert.Equal(t, first.SerialNumber, second.SerialNumber)
}

func TestCertificateReissuedWhenExpired(t *testing.T) {
	m := NewManager(t.TempDir())
	first := leaf(t, m)

	m.now = func() time.Time { return time.Now().Add(DefaultValidity + time.Hour) }
	second := leaf(t, m)

	assert.NotEqual(t, first.SerialNumber, second.SerialNumber)
}

func TestCertificateReissuedForNewHost(t *testing.T) {
	dir := t.TempDir()
	first := leaf(t, NewManager(dir))
	second := leaf(t, NewManager(dir, "bins.example.org"))

	assert.NotEqual(t, first.SerialNumber, second.SerialNumber)
	assert.Contains(t, second.DNSNames, "bins.example.org")
}

func TestCertificateReissuedWhenCorrupt(t *testing.T) {
	m := NewManager(t.TempDir())
	first := leaf(t, m)

	certFile, _ := m.Files()
	require.NoError(t, os.WriteFile(certFile, []byte("garbage"), 0o600))

	second := leaf(t, m)
	assert.NotEqual(t, first.SerialNumber, second.SerialNumber)
}
