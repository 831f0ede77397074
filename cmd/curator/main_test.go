package main

import (
	"bytes"
	"flag"
	"strings"
	"testing"
)

func TestShowHelp_DescribesAccessTokenAlongsideAPIKey(t *testing.T) {
	var buf bytes.Buffer
	flag.CommandLine.SetOutput(&buf)
	t.Cleanup(func() { flag.CommandLine.SetOutput(nil) })

	showHelp()

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "IMMICH_ACCESS_TOKEN") {
			line = l
		}
	}
	if line == "" {
		t.Fatalf("help does not mention IMMICH_ACCESS_TOKEN:\n%s", buf.String())
	}
	if strings.Contains(line, "instead of") || !strings.Contains(line, "alongside the API key") {
		t.Fatalf("unexpected access token help: %q", line)
	}
}
