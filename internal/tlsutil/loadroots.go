package tlsutil

import (
	"crypto/x509"
	"fmt"
	"os"
)

// loadroots builds the x509.CertPool NewClientTLSConfig uses for server verification: the system
// trust store (when useSystemRoots is set) plus every PEM file in otherCAFiles appended on top.
func loadroots(useSystemRoots bool, otherCAFiles []string) (*x509.CertPool, error) {
	pool, err := basePool(useSystemRoots)
	if err != nil {
		return nil, err
	}
	for _, caFile := range otherCAFiles {
		if err := appendCAFile(pool, caFile); err != nil {
			return nil, err
		}
	}
	return pool, nil
}

func basePool(useSystemRoots bool) (*x509.CertPool, error) {
	if !useSystemRoots {
		return x509.NewCertPool(), nil
	}
	pool, err := x509.SystemCertPool()
	if err != nil {
		return nil, fmt.Errorf("tlsutil: loadroots: system cert pool: %w", err)
	}
	return pool, nil
}

func appendCAFile(pool *x509.CertPool, caFile string) error {
	pem, err := os.ReadFile(caFile)
	if err != nil {
		return fmt.Errorf("tlsutil: loadroots: read %s: %w", caFile, err)
	}
	if !pool.AppendCertsFromPEM(pem) {
		return fmt.Errorf("tlsutil: loadroots: no certificates found in %s", caFile)
	}
	return nil
}
