package main

import (
	"fmt"
	"io"
	"text/template"
	"time"
)

// The "flag" package is not tty aware so we've arbitrarily picked 100 columns as a conservative tty
// width for the usage output.

const usageMessageTemplate = `
NAME
          {{.DigProgramName}} -- a DNS Over HTTPS query program

SYNOPSIS
          {{.DigProgramName}} [options] DoH-server-URL FQDN [DNS-qType]

DESCRIPTION
          {{.DigProgramName}} issues DNS over HTTPS queries via the tangerine resolver package. Only
          qClass=IN is supported. If a DNS-Type is not supplied then qType=A is used.

          **********
          Production Use Alert: {{.DigProgramName}} is a diagnostic program which will almost certainly
          change with each new release. Please do not rely on its current behaviour or output format
          and definitely do not use it in a shell script.
          **********

EXAMPLES
            $ {{.DigProgramName}} https://mozilla.cloudflare-dns.com/dns-query yahoo.com MX
            $ {{.DigProgramName}} --ecs-set 17.0.0.0/18 https://dns.quad9.net/dns-query yahoo.com

OPTIONS
          [-ghp] [--short]

          [-r repeat count] [-t remote request timeout]

          [--ecs-set CIDR]

          [--padding]
          [--tls-cert TLS Client Certificate file]
          [--tls-key TLS Client Key file]
          [--tls-other-roots TLS Root Certificate file...]
          [--tls-use-system-roots]
          [--version]
`

func usage(out io.Writer) {
	tmpl, err := template.New("usage").Parse(usageMessageTemplate)
	if err != nil {
		panic(err) // We've messed up our template
	}
	err = tmpl.Execute(out, consts)
	if err != nil {
		panic(err) // We've messed up our template
	}
	flagSet.SetOutput(out)
	flagSet.PrintDefaults()
	fmt.Fprintln(out, "\nVersion:", consts.Version)
}

// parseCommandLine sets up the flags-to-config mapping and parses the supplied command line
// arguments. It starts from scratch each time to make it easier for test wrappers to use.
func parseCommandLine(args []string) error {
	flagSet.BoolVar(&cfg.useGetMethod, "g", false, "Use HTTP GET with the 'dns' query parameter (instead of POST)")
	flagSet.BoolVar(&cfg.help, "h", false, "Print usage message to Stdout then exit(0)")
	flagSet.BoolVar(&cfg.parallel, "p", false, "Issue all queries in parallel")
	flagSet.IntVar(&cfg.repeatCount, "r", 1, "`Number` of times to issue the query (GE zero)")

	flagSet.BoolVar(&cfg.short, "short", false, "Generate short output showing only Answer RRs")

	flagSet.DurationVar(&cfg.requestTimeout, "t", time.Second*15, "Remote request `timeout`")

	flagSet.StringVar(&cfg.ecsSet, "ecs-set", "", "`CIDR` to set ECS IP Address and Prefix Length")

	flagSet.BoolVar(&cfg.generatePadding, "padding", true, "Add RFC8467 recommended padding to queries")

	flagSet.StringVar(&cfg.tlsClientCertFile, "tls-cert", "", "TLS Client Certificate `file`")
	flagSet.StringVar(&cfg.tlsClientKeyFile, "tls-key", "", "TLS Client Key `file`")
	flagSet.Var(&cfg.tlsCAFiles, "tls-other-roots", "Non-system Root CA `file` used to validate HTTPS endpoint")
	flagSet.BoolVar(&cfg.tlsUseSystemRootCAs, "tls-use-system-roots", true,
		"Validate HTTPS endpoints with root CAs")

	flagSet.BoolVar(&cfg.version, "version", false, "Print version and exit")

	return flagSet.Parse(args[1:])
}
