package main

import (
	"time"

	"github.com/forwardemail/tangerine/internal/flagutil"
)

type config struct {
	help     bool
	parallel bool
	short    bool
	version  bool

	repeatCount    int
	requestTimeout time.Duration
	ecsSet         string

	useGetMethod    bool
	generatePadding bool

	tlsClientCertFile   string
	tlsClientKeyFile    string
	tlsCAFiles          flagutil.StringValue // Non-system root CAs
	tlsUseSystemRootCAs bool                 // Do/do not use system root CAs
}
