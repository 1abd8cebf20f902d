// Package tlsutil builds a *tls.Config for the DoH client's outbound HTTPS connections: root trust
// and an optional client certificate for mTLS upstreams.
package tlsutil

import (
	"crypto/tls"
	"fmt"
)

// NewClientTLSConfig builds a client-side tls.Config. Server verification is enabled only when the
// caller asks for the system trust store or supplies additional CA files; otherwise the returned
// config has InsecureSkipVerify set, matching a resolver whose caller manages trust another way
// (e.g. via transport.TLSOptions.InsecureSkipVerify for tests against a local server). clientCertFile
// and clientKeyFile, if given, must both be set or both be empty.
func NewClientTLSConfig(useSystemCAs bool, otherCAFiles []string, clientCertFile, clientKeyFile string) (*tls.Config, error) {
	verify := useSystemCAs || len(otherCAFiles) > 0
	cfg := &tls.Config{InsecureSkipVerify: !verify}

	if verify {
		pool, err := loadroots(useSystemCAs, otherCAFiles)
		if err != nil {
			return nil, fmt.Errorf("tlsutil: NewClientTLSConfig: %w", err)
		}
		cfg.RootCAs = pool
	}

	if err := requireBothOrNeither(clientCertFile, clientKeyFile); err != nil {
		return nil, err
	}
	if clientCertFile == "" {
		return cfg, nil
	}

	cert, err := tls.LoadX509KeyPair(clientCertFile, clientKeyFile)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: NewClientTLSConfig: LoadX509KeyPair: %w", err)
	}
	cfg.Certificates = []tls.Certificate{cert}

	return cfg, nil
}

func requireBothOrNeither(certFile, keyFile string) error {
	switch {
	case certFile != "" && keyFile == "":
		return fmt.Errorf("tlsutil: NewClientTLSConfig: client key file missing when cert file present")
	case certFile == "" && keyFile != "":
		return fmt.Errorf("tlsutil: NewClientTLSConfig: client cert file missing when key file present")
	default:
		return nil
	}
}
