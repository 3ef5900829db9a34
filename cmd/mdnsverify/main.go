// SPDX-License-Identifier: GPL-3.0-or-later

// Command mdnsverify checks that an mDNS packet capture follows a
// probing and announcing scenario and prints its canonical dump.
//
// The input is the output of `tcpdump -vv -n` or `tcpdump -vv`:
//
//	tcpdump -vv -r trace.pcap udp port 5353 | mdnsverify -scenario normal-probe
//
// Exit status is 0 on success, 1 when the trace does not parse or does
// not verify, and 2 on usage or configuration errors.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bassosimone/mdnstrace"
	"github.com/bassosimone/mdnstrace/internal/config"
	"github.com/fatih/color"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// options contains the command line flags.
type options struct {
	configPath      string
	scenario        string
	hosts           string
	input           string
	verbose         bool
	list            bool
	dump            bool
	requireChecksum bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mdnsverify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&opts.scenario, "scenario", "", "scenario to verify (see -list)")
	fs.StringVar(&opts.hosts, "hosts", "", "comma-separated addresses of the two conflicting hosts")
	fs.StringVar(&opts.input, "input", "-", "trace file to read, or - for stdin")
	fs.BoolVar(&opts.verbose, "v", false, "log every message at debug level")
	fs.BoolVar(&opts.list, "list", false, "list the available scenarios and exit")
	fs.BoolVar(&opts.dump, "dump", false, "canonicalize and dump every message without verifying a scenario")
	fs.BoolVar(&opts.requireChecksum, "require-checksum", false, "reject datagrams whose UDP checksum is not ok")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.list {
		for _, name := range mdnstrace.ScenarioNames() {
			description, _ := mdnstrace.ScenarioDescription(name)
			fmt.Fprintf(stdout, "%-24s %s\n", name, description)
		}
		return 0
	}

	cfg, err := loadConfig(fs, &opts)
	if err != nil {
		fail(stderr, err)
		return 2
	}
	logger := cfg.Logging.NewLogger(stderr)

	in, closer, err := openInput(opts.input, stdin)
	if err != nil {
		fail(stderr, err)
		return 2
	}
	defer closer()

	reader := mdnstrace.NewReader(mdnstrace.NewLineSource(in))
	reader.Canonicalizer = cfg.Canonicalizer()
	reader.Logger = logger

	if opts.dump {
		msgs, err := reader.ReadAllMDNS()
		if err != nil {
			fail(stderr, err)
			return 1
		}
		if err := mdnstrace.WriteDump(stdout, msgs); err != nil {
			fail(stderr, err)
			return 1
		}
		ok(stderr, fmt.Sprintf("dumped %d messages", len(msgs)))
		return 0
	}

	scenarioOpts, err := cfg.ScenarioOptions(logger)
	if err != nil {
		fail(stderr, err)
		return 2
	}
	scenario, err := mdnstrace.NewScenario(cfg.Scenario, scenarioOpts)
	if err != nil {
		fail(stderr, err)
		return 2
	}
	transcript, err := scenario.Verify(reader)
	if err != nil {
		fail(stderr, fmt.Errorf("%s: %w", scenario.Name(), err))
		return 1
	}
	if err := mdnstrace.WriteTranscript(stdout, transcript); err != nil {
		fail(stderr, err)
		return 1
	}
	ok(stderr, fmt.Sprintf("%s: verified %d messages", scenario.Name(), len(transcript.Steps)))
	return 0
}

// loadConfig loads the configuration file, if any, and applies the
// flags that were set explicitly on top of it.
func loadConfig(fs *flag.FlagSet, opts *options) (*config.Config, error) {
	cfg, err := config.NewConfigLoader(opts.configPath).Read()
	if err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scenario":
			cfg.Scenario = opts.scenario
		case "hosts":
			cfg.Hosts = splitHosts(opts.hosts)
		case "v":
			if opts.verbose {
				cfg.Logging.Level = "DEBUG"
			}
		case "require-checksum":
			cfg.RequireChecksum = opts.requireChecksum
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func splitHosts(value string) []string {
	var out []string
	for _, host := range strings.Split(value, ",") {
		if host = strings.TrimSpace(host); host != "" {
			out = append(out, host)
		}
	}
	return out
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	fp, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return fp, func() { fp.Close() }, nil
}

func fail(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint("FAIL"), err)
}

func ok(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgGreen, color.Bold).Sprint("OK"), msg)
}
