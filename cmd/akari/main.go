// Command `akari` resolves a configured set of DNS record types for one
// or more domains, optionally enriches A-record results with IP
// geolocation from ipinfo.io, and emits the results as text, JSON, or CSV.
//
// Usage:
//
//	akari -d example.com                       Look up the full record-type set
//	akari -d example.com -t A,MX -f json       Selected types, JSON output
//	akari -c akari.yaml -o results.csv -f csv  Config-file driven run to a file
//	akari types                                List supported record types
//
// A missing domain with no config file is a usage error; every failure
// below that is captured per (domain, type) pair and reported in the
// output instead of aborting the run.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/Kuraiyume/Akari/internal/buildinfo"
	"github.com/Kuraiyume/Akari/internal/config"
	"github.com/Kuraiyume/Akari/internal/engine"
	"github.com/Kuraiyume/Akari/internal/geo"
	"github.com/Kuraiyume/Akari/internal/report"
	"github.com/Kuraiyume/Akari/internal/resolver"
	"github.com/Kuraiyume/Akari/internal/retry"
)

const _banner = `  AKARI — DNS enumerator`

type options struct {
	domain     string
	types      []string
	timeout    float64
	configPath string
	output     string
	format     string
	nameserver string
	workers    int
	qps        int
	token      string
	noBanner   bool
	verbose    bool
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:   "akari",
		Short: "Akari DNS enumerator",
		Long: `Akari resolves a set of DNS record types for one or more domains,
optionally enriches A-record results with IP geolocation, and writes the
results to the console or a file in txt, json, or csv format.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&opts.domain, "domain", "d", "", "target domain to look up")
	flags.StringSliceVarP(&opts.types, "types", "t", resolver.DefaultTypes,
		"DNS record types to look up")
	flags.Float64Var(&opts.timeout, "timeout", config.DefaultTimeout,
		"timeout for DNS queries in seconds")
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to configuration file")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default: console)")
	flags.StringVarP(&opts.format, "format", "f", "txt", "output format: txt, json, or csv")
	flags.StringVarP(&opts.nameserver, "nameserver", "n", "", "nameserver to query")
	flags.IntVar(&opts.workers, "threads", config.DefaultWorkers,
		"worker-pool size; 1 runs lookups sequentially in input order")
	flags.IntVar(&opts.qps, "qps", 0, "cap queries per second (0 = unlimited)")
	flags.StringVar(&opts.token, "ipinfo-token", "", "ipinfo.io token for A-record geolocation")
	flags.BoolVar(&opts.noBanner, "no-banner", false, "suppress the startup banner")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false,
		"stream each pair's result to stderr as it completes")

	// ---- version command ----
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("version: %s\n", buildinfo.Version)
			fmt.Printf("commit: %s\n", buildinfo.Commit)
		},
	}

	// ---- types command ----
	typesCmd := &cobra.Command{
		Use:     "types",
		Short:   "List the supported DNS record types",
		Example: "akari types",
		Run: func(_ *cobra.Command, _ []string) {
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Type", "Description"})
			table.SetHeaderColor(
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
			)
			table.SetBorder(false)
			for _, t := range resolver.DefaultTypes {
				table.Append([]string{t, resolver.DescribeType(t)})
			}
			table.Render()
		},
	}

	root.AddCommand(versionCmd, typesCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := buildConfig(cmd, opts)
	if err != nil {
		return err
	}

	types := cfg.TypeList()
	if len(types) == 0 {
		types = resolver.DefaultTypes
	}
	for _, t := range types {
		if _, ok := resolver.TypeCode(t); !ok {
			return fmt.Errorf("unsupported record type %q (see `akari types`)", t)
		}
	}

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	if !opts.noBanner {
		// The banner goes to stderr so structured stdout stays parseable.
		color.New(color.FgHiMagenta, color.Bold).Fprintln(os.Stderr, _banner)
		color.New(color.FgHiBlack).Fprintf(os.Stderr, "  %s | %d domain(s), %d type(s)\n\n",
			buildinfo.Version, len(cfg.DomainList()), len(types))
	}

	res := resolver.New(cfg.TimeoutDuration(), resolver.WithNameserver(cfg.Nameserver))

	engOpts := []engine.Opt{
		engine.WithWorkers(cfg.Workers),
		engine.WithRateLimit(cfg.QPS),
	}
	if cfg.IPInfoToken != "" {
		engOpts = append(engOpts, engine.WithGeolocator(geo.New(cfg.IPInfoToken)))
	}
	if opts.verbose {
		// Streaming output and the final aggregate are independent
		// sinks; streamed lines go to stderr in completion order.
		engOpts = append(engOpts, engine.WithStream(func(lines []string) {
			for _, line := range lines {
				fmt.Fprintln(os.Stderr, line)
			}
		}))
	}
	eng := engine.New(retry.New(res), engOpts...)

	pairs := engine.Pairs(cfg.DomainList(), types)
	results, err := eng.Run(context.Background(), pairs)
	if err != nil {
		return err
	}

	return report.New().Write(results, opts.output, format)
}

// buildConfig merges flags and the optional config file. The file, when
// given, overrides the domain, record-type, and timeout flags; the
// remaining file settings apply only where the matching flag was left at
// its default.
func buildConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	if opts.configPath == "" {
		if strings.TrimSpace(opts.domain) == "" {
			return nil, fmt.Errorf("a target domain must be specified if no config file is provided")
		}
		cfg := config.Default()
		cfg.Domains = opts.domain
		cfg.RecordTypes = strings.Join(opts.types, ",")
		cfg.Timeout = opts.timeout
		cfg.Nameserver = opts.nameserver
		cfg.IPInfoToken = opts.token
		cfg.Workers = opts.workers
		cfg.QPS = opts.qps
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg, err := config.New(opts.configPath).Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if cfg.Nameserver == "" || flags.Changed("nameserver") {
		cfg.Nameserver = opts.nameserver
	}
	if cfg.IPInfoToken == "" || flags.Changed("ipinfo-token") {
		cfg.IPInfoToken = opts.token
	}
	if flags.Changed("threads") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("qps") {
		cfg.QPS = opts.qps
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
