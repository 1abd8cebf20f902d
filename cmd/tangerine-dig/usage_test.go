package main

import (
	"testing"
)

var usageTestCases = []testCase{
	{[]string{}, []string{}, "Fatal: tangerine-dig: Require DoH Server URL on command line. Consider -h"},
	{[]string{"-h"}, []string{"NAME", "SYNOPSIS", "OPTIONS", "Version: v"}, ""},
	{[]string{"--version"}, []string{"Version: v"}, ""},
	{[]string{"-badopt"}, []string{}, "flag provided but not defined"},

	{[]string{"", "example.net"}, []string{}, "URL cannot be an empty string"},
	{[]string{"http://", "example.net"}, []string{}, "does not contain a hostname"},
	{[]string{"http://localhost:63080"}, []string{}, "Require qName on command"},
	{[]string{"http://localhost:63080", "example.net", "AAAA", "goop"}, []string{}, "know what to do"},

	{[]string{"-t", "xx", "http://localhost:63080", "example.net"}, []string{}, "invalid value"},
	{[]string{"--tls-cert", "/dev/null", "http://localhost:63080", "example.net"}, []string{},
		"key file missing"},
	{[]string{"--tls-key", "/dev/null", "http://localhost:63080", "example.net"}, []string{},
		"cert file missing"},

	{[]string{"-r", "-1", "http://localhost:63080", "example.net"}, []string{}, "Repeat count"},

	{[]string{"http://localhost:63080", "example.net", "BADTYPE"}, []string{}, "unknown rrtype"},
}

func TestUsage(t *testing.T) {
	for tx, tc := range usageTestCases {
		runTest(t, tx, tc)
	}
}
