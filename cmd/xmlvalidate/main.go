// Command xmlvalidate runs a rule document against one or more XML
// files and reports the result (spec.md §6 "process-level surface").
// This binary is an ambient convenience around rule/ruleloader, rule,
// and report — none of those packages know a CLI exists.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xmlvalidate/xmlvalidate/internal/applog"
	"github.com/xmlvalidate/xmlvalidate/internal/runconfig"
	"github.com/xmlvalidate/xmlvalidate/internal/xpathservice"
	"github.com/xmlvalidate/xmlvalidate/report"
	"github.com/xmlvalidate/xmlvalidate/rule"
	"github.com/xmlvalidate/xmlvalidate/rule/ruleloader"
)

const examples = `  # validate one file against a rule document
  xmlvalidate --rules=rules.json --file=order.xml

  # validate a whole batch, writing a JSON report
  xmlvalidate --rules=rules.yaml --file=a.xml --file=b.xml --output=report.json

  # leave outcomes below "warning" severity out of the report and exit code
  xmlvalidate --rules=rules.json --file=order.xml --severity-floor=warning`

var rootCmd = &cobra.Command{
	Use:     "xmlvalidate",
	Short:   "xmlvalidate runs a declarative rule document against XML files",
	Example: examples,
	RunE:    run,
}

var (
	flagRuleDocument string
	flagFiles        []string
	flagOutputPath   string
	flagSeverity     string
	flagVerbose      bool
)

const (
	flagNameRules         = "rules"
	flagNameFile          = "file"
	flagNameOutput        = "output"
	flagNameSeverityFloor = "severity-floor"
	flagNameVerbose       = "verbose"
)

func init() {
	rootCmd.Flags().StringVarP(&flagRuleDocument, flagNameRules, "r", "", "path to the rule document (JSON or YAML)")
	rootCmd.Flags().StringArrayVarP(&flagFiles, flagNameFile, "f", nil, "an XML file to validate; can be repeated")
	rootCmd.Flags().StringVarP(&flagOutputPath, flagNameOutput, "o", "", "path to write the JSON report; defaults to stdout")
	rootCmd.Flags().StringVar(&flagSeverity, flagNameSeverityFloor, "", "drop outcomes below this severity (error|warning|info)")
	rootCmd.Flags().BoolVarP(&flagVerbose, flagNameVerbose, "v", false, "enable debug logging")
	_ = rootCmd.MarkFlagRequired(flagNameRules)
	_ = rootCmd.MarkFlagRequired(flagNameFile)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := applog.Discard()
	if flagVerbose {
		log = applog.NewLogger("xmlvalidate")
	}

	cfg := runconfig.Default()
	cfg.SeverityFloor = flagSeverity

	ruleBytes, err := os.ReadFile(flagRuleDocument)
	if err != nil {
		return fmt.Errorf("reading rule document: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(ruleBytes, &raw); err != nil {
		return fmt.Errorf("parsing rule document %s: %w", flagRuleDocument, err)
	}
	doc, err := ruleloader.Load(raw, log)
	if err != nil {
		return fmt.Errorf("loading rule document: %w", err)
	}

	builder := report.NewBuilder(flagRuleDocument)
	for _, path := range flagFiles {
		xmlBytes, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		xmlDoc, err := xpathservice.LoadBytes(path, xmlBytes)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		outcomes := rule.RunAll(doc.Rules, xmlDoc, path, log)
		outcomes = filterBySeverity(outcomes, cfg.SeverityFloor)
		builder.Add(path, outcomes)
	}

	rep := builder.Build(time.Now())
	out, err := report.Render(rep)
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	if flagOutputPath == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	} else if err := os.WriteFile(flagOutputPath, out, 0o644); err != nil {
		return fmt.Errorf("writing report to %s: %w", flagOutputPath, err)
	}

	if rep.Summary.Failed > 0 || rep.Summary.Missing > 0 {
		os.Exit(1)
	}
	return nil
}

var severityRank = map[string]int{
	string(rule.SeverityInfo):    0,
	string(rule.SeverityWarning): 1,
	string(rule.SeverityError):   2,
}

func filterBySeverity(outcomes []rule.Outcome, floor string) []rule.Outcome {
	if floor == "" {
		return outcomes
	}
	min, ok := severityRank[floor]
	if !ok {
		return outcomes
	}
	out := make([]rule.Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if severityRank[string(o.Severity)] >= min {
			out = append(out, o)
		}
	}
	return out
}
