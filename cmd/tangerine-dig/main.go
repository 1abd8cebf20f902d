// Issue a DoH DNS query via the tangerine resolver
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/forwardemail/tangerine"
	"github.com/forwardemail/tangerine/internal/constants"

	"github.com/miekg/dns"
)

// Program-wide variables
var (
	consts = constants.Get()
	cfg    *config

	stdout io.Writer
	stderr io.Writer

	flagSet *flag.FlagSet
)

func fatal(args ...interface{}) int {
	fmt.Fprint(stderr, "Fatal: ", consts.DigProgramName, ": ")
	fmt.Fprintln(stderr, args...)

	return 1
}

func mainInit(out io.Writer, err io.Writer) {
	cfg = &config{}
	stdout = out
	stderr = err
}

func main() {
	mainInit(os.Stdout, os.Stderr)
	os.Exit(mainExecute(os.Args))
}

func mainExecute(args []string) int {
	flagSet = flag.NewFlagSet(args[0], flag.ContinueOnError)
	flagSet.SetOutput(stderr)
	err := parseCommandLine(args)
	if err != nil {
		return 1 // Error already printed by the flag package
	}
	if cfg.help {
		usage(stdout)
		return 0
	}
	if cfg.version {
		fmt.Fprintln(stdout, consts.DigProgramName, "Version:", consts.Version)
		return 0
	}

	if cfg.repeatCount < 0 {
		return fatal("Repeat count (-r) must be GE zero, not", cfg.repeatCount)
	}

	remainingOptions := flagSet.NArg()
	optionIndex := 0

	if remainingOptions < 1 {
		return fatal("Require DoH Server URL on command line. Consider -h")
	}
	dohServerURL := flagSet.Arg(optionIndex)
	if len(dohServerURL) == 0 {
		return fatal("DoH Server URL cannot be an empty string")
	}
	optionIndex++
	remainingOptions--

	u, err := url.Parse(dohServerURL)
	if err != nil {
		return fatal(err)
	}
	if len(u.Scheme) == 0 && len(u.Host) == 0 && len(u.Path) > 0 { // A plain FQDN looks like this
		u.Host = u.Path
		u.Path = ""
	}
	if len(u.Host) == 0 {
		return fatal(dohServerURL, "does not contain a hostname")
	}
	if len(u.Scheme) == 0 {
		u.Scheme = "https"
	}

	if remainingOptions < 1 {
		return fatal("Require qName on command line. Consider -h")
	}
	qName := dns.Fqdn(flagSet.Arg(optionIndex))
	optionIndex++
	remainingOptions--

	qTypeString := "A"
	if remainingOptions > 0 {
		qTypeString = strings.ToUpper(flagSet.Arg(optionIndex))
		optionIndex++
		remainingOptions--
	}

	if remainingOptions > 0 {
		return fatal("Don't know what to do with residual goop on command line:", flagSet.Arg(optionIndex))
	}

	resolver, err := tangerine.New(tangerine.Config{
		Servers:         []string{u.Host},
		Protocol:        u.Scheme,
		Tries:           1,
		Timeout:         cfg.requestTimeout,
		UseGetMethod:    cfg.useGetMethod,
		GeneratePadding: cfg.generatePadding,
		NoHosts:         true,
		UseSystemCAs:    cfg.tlsUseSystemRootCAs,
		CACertFiles:     cfg.tlsCAFiles.Args(),
		ClientCertFile:  cfg.tlsClientCertFile,
		ClientKeyFile:   cfg.tlsClientKeyFile,
	})
	if err != nil {
		return fatal(err)
	}

	chOut := make(chan string, 1)
	chErr := make(chan string, 1)
	if cfg.parallel {
		for qx := 0; qx < cfg.repeatCount; qx++ {
			go doQuery(chOut, chErr, resolver, qName, qTypeString, cfg.short)
		}
		for qx := 0; qx < cfg.repeatCount; qx++ {
			fmt.Fprint(stdout, <-chOut)
			fmt.Fprint(stderr, <-chErr)
		}
	} else {
		for qx := 0; qx < cfg.repeatCount; qx++ {
			doQuery(chOut, chErr, resolver, qName, qTypeString, cfg.short)
			fmt.Fprint(stdout, <-chOut)
			fmt.Fprint(stderr, <-chErr)
		}
	}

	return 0
}

func doQuery(chOut, chErr chan string, r *tangerine.Resolver, qName, qType string, short bool) {
	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	defer func() {
		chOut <- outBuf.String()
		chErr <- errBuf.String()
	}()

	start := time.Now()
	var result any
	var err error
	if qType == "ANY" {
		result, err = r.ResolveAny(context.Background(), qName, tangerine.Options{ECSSubnet: cfg.ecsSet, TTL: true})
	} else {
		result, err = r.Resolve(context.Background(), qName, qType, tangerine.Options{ECSSubnet: cfg.ecsSet, TTL: true})
	}
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintln(errBuf, "Error:", err)
		return
	}

	if short {
		fmt.Fprintf(outBuf, "%+v\n", result)
	} else {
		fmt.Fprintf(outBuf, "%s %s -> %+v\n", qName, qType, result)
		fmt.Fprintf(outBuf, ";; Query Time: %s\n", elapsed.Truncate(time.Millisecond))
		fmt.Fprintln(outBuf)
	}
}
