package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/aggregate"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/classify"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/logsource"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/segment"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/tracker"
)

type segmentOptions struct {
	file      string
	domain    string
	rulesFile string
	gap       float64
	raw       bool
}

func init() {
	var opts segmentOptions
	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Segment and aggregate an events file offline",
		Long: "Reads a JSON or YAML list of events and prints the sessions and totals " +
			"the service would derive for one domain. With --raw the file is a log API payload.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSegment(opts, os.Stdout)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Events file (.json, .yaml or .yml)")
	cmd.Flags().StringVarP(&opts.domain, "domain", "d", "laptop", "Domain: water, book or laptop")
	cmd.Flags().StringVar(&opts.rulesFile, "rules", "", "Classification rules YAML")
	cmd.Flags().Float64Var(&opts.gap, "gap", -1, "Gap threshold in minutes (defaults to the domain default)")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Decode the file as a log API response")
	_ = cmd.MarkFlagRequired("file")
	rootCmd.AddCommand(cmd)
}

func runSegment(opts segmentOptions, out io.Writer) error {
	rules, err := classify.LoadRules(opts.rulesFile)
	if err != nil {
		return err
	}
	domains := tracker.NewDomains(rules, tracker.DefaultGaps(), segment.DefaultEpsilon)
	var d tracker.Domain
	switch opts.domain {
	case "water":
		d = domains.Water
	case "book":
		d = domains.Book
	case "laptop":
		d = domains.Laptop
	default:
		return fmt.Errorf("unknown domain %q (water, book, laptop)", opts.domain)
	}
	if opts.gap >= 0 {
		d.Segment.GapMinutes = opts.gap
	}

	data, err := os.ReadFile(opts.file)
	if err != nil {
		return err
	}
	events, err := decodeEvents(data, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.file, err)
	}

	res := aggregate.Aggregate(segment.Segment(events, d.Segment), d.Classify, d.Measure)
	return printJSON(out, struct {
		Domain  string  `json:"domain"`
		Measure string  `json:"measure"`
		Gap     float64 `json:"gapMinutes"`
		Events  int     `json:"events"`
		aggregate.Result
	}{d.Name, d.Measure.String(), d.Segment.GapMinutes, len(events), res})
}

func decodeEvents(data []byte, opts segmentOptions) ([]model.ActivityEvent, error) {
	if opts.raw {
		if opts.domain == "water" {
			return logsource.DecodeWater(data)
		}
		book, laptop, err := logsource.DecodeStudy(data)
		if opts.domain == "book" {
			return book, err
		}
		return laptop, err
	}
	var events []model.ActivityEvent
	switch strings.ToLower(filepath.Ext(opts.file)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &events); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, err
		}
	}
	return events, nil
}
