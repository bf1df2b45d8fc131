//
// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package main

import (
	"fmt"
	"os"

	log "github.com/golang/glog"
	"github.com/jahidul-arafat/civic-data/noise"
	"github.com/jahidul-arafat/civic-data/report"
	"github.com/jahidul-arafat/civic-data/simulate"
	"github.com/jahidul-arafat/civic-data/table"
	"github.com/spf13/cobra"
)

// estimateOutput is the result of the estimate command.
type estimateOutput struct {
	Preset     string            `json:"preset,omitempty" yaml:"preset,omitempty"`
	Scenario   simulate.Scenario `json:"scenario" yaml:"scenario"`
	Epsilon    float64           `json:"epsilon" yaml:"epsilon"`
	Result     simulate.Result   `json:"result" yaml:"result"`
	Decision   string            `json:"decision,omitempty" yaml:"decision,omitempty"`
	FlipChance float64           `json:"flip_probability" yaml:"flip_probability"`
	Histogram  []simulate.Bin    `json:"histogram,omitempty" yaml:"histogram,omitempty"`
}

func newEstimateCmd(a *app) *cobra.Command {
	var (
		epsilon   float64
		histogram bool
	)
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Show the published value, its uncertainty range and the flip probability at one ε",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := a.cfg.ResolveScenario()
			if err != nil {
				return err
			}
			sim, err := a.cfg.Simulator(0)
			if err != nil {
				return err
			}
			res, err := sim.Estimate(sc, epsilon)
			if err != nil {
				return err
			}
			draws, err := sim.Draws(sc, epsilon, a.cfg.SamplesPerEpsilon)
			if err != nil {
				return err
			}
			out := estimateOutput{
				Scenario:   sc,
				Epsilon:    epsilon,
				Result:     res,
				FlipChance: simulate.FlipPercent(draws, sc),
			}
			if p, ok := a.preset(); ok {
				out.Preset = p.Key
				out.Decision = p.OutcomeText(simulate.Decide(float64(res.NoisyValue), sc.Threshold))
			}
			if histogram {
				if out.Histogram, err = simulate.Histogram(draws, sc.Threshold, simulate.DefaultBins); err != nil {
					return err
				}
			}
			return a.emit(cmd, "estimate", out, func() error { return writeEstimate(cmd.OutOrStdout(), out) })
		},
	}
	cmd.Flags().Float64Var(&epsilon, "epsilon", 1, "Privacy parameter ε.")
	cmd.Flags().BoolVar(&histogram, "histogram", false, "Include a histogram of the Monte Carlo draws.")
	return cmd
}

func newSweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Estimate flip probability and error across the configured ε values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := a.cfg.ResolveScenario()
			if err != nil {
				return err
			}
			sim, err := a.cfg.Simulator(0)
			if err != nil {
				return err
			}
			stats, err := report.RunSweep(sim, sc, a.cfg.EpsilonValues, a.cfg.SamplesPerEpsilon)
			if err != nil {
				return err
			}
			r, err := report.BuildReport(0, sc, stats)
			if err != nil {
				return err
			}
			out := sweepOutput{Stats: stats, Report: r}
			return a.emit(cmd, "sweep", out, func() error { return writeSweep(cmd.OutOrStdout(), out) })
		},
	}
}

func newCurveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Trace the error and flip probability of the scenario over a grid of ε values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := a.cfg.ResolveScenario()
			if err != nil {
				return err
			}
			grid, err := simulate.EpsilonGrid(a.cfg.Curve.From, a.cfg.Curve.To, a.cfg.Curve.Step)
			if err != nil {
				return err
			}
			sim, err := a.cfg.Simulator(0)
			if err != nil {
				return err
			}
			points, err := report.RunCurve(sim, sc, grid, a.cfg.SamplesPerEpsilon)
			if err != nil {
				return err
			}
			return a.emit(cmd, "curve", points, func() error { return writeCurve(cmd.OutOrStdout(), points) })
		},
	}
	cmd.Flags().Float64("from", 0, "Smallest ε of the grid.")
	cmd.Flags().Float64("to", 0, "Largest ε of the grid.")
	cmd.Flags().Float64("step", 0, "Distance between consecutive ε values.")
	bind(a.v, cmd.Flags(), map[string]string{
		"curve.from": "from",
		"curve.to":   "to",
		"curve.step": "step",
	})
	return cmd
}

type sweepOutput struct {
	Stats  []report.EpsilonStat   `json:"stats" yaml:"stats"`
	Report *report.AnalysisReport `json:"report" yaml:"report"`
}

type analyzeOutput struct {
	Format   table.Format             `json:"format" yaml:"format"`
	Records  []table.Record           `json:"records" yaml:"records"`
	Selected int64                    `json:"selected_rows" yaml:"selected_rows"`
	Dropped  int                      `json:"dropped_rows" yaml:"dropped_rows"`
	Reports  []*report.AnalysisReport `json:"reports" yaml:"reports"`
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var input, samplesOut string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Count raw records per group and simulate their DP publication",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input == "" {
				return fmt.Errorf("no input file was chosen")
			}
			text, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("couldn't read the input file = %q, err = %v", input, err)
			}
			tbl, err := table.Parse(string(text))
			if err != nil {
				return err
			}
			analysis, err := report.Analyze(noise.NewLaplace(a.cfg.Source(0)), tbl, a.cfg.AnalysisConfig())
			if err != nil {
				return err
			}
			if samplesOut != "" {
				if err := writeSamplesFile(samplesOut, analysis.Samples); err != nil {
					return err
				}
				log.Infof("Wrote %d sample rows to %q", len(analysis.Samples), samplesOut)
			}

			out := analyzeOutput{
				Format:   analysis.Format,
				Records:  analysis.Records,
				Dropped:  tbl.Dropped,
				Selected: table.Total(analysis.Records),
			}
			if out.Reports, err = groupReports(len(tbl.Rows), report.Summarize(analysis.Samples)); err != nil {
				return err
			}
			return a.emit(cmd, "analyze", out, func() error { return writeAnalysis(cmd.OutOrStdout(), out) })
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Input csv file name with raw records.")
	cmd.Flags().StringVar(&samplesOut, "samples-out", "", "Output csv file name for the per-sample rows.")
	cmd.Flags().String("group-by", "", "Field to group the records by.")
	cmd.Flags().String("filter-field", "", "Field to filter the records on.")
	cmd.Flags().String("filter-value", "", "Value the filter field must equal, ignoring case.")
	cmd.Flags().Float64("decision-threshold", 0, "Threshold each group count is compared to.")
	bind(a.v, cmd.Flags(), map[string]string{
		"group_by":     "group-by",
		"filter_field": "filter-field",
		"filter_value": "filter-value",
		"threshold":    "decision-threshold",
	})
	return cmd
}

// groupReports builds one report per group of stats, in order of first
// appearance.
func groupReports(rawRecordCount int, stats []report.EpsilonStat) ([]*report.AnalysisReport, error) {
	var groups []string
	byGroup := make(map[string][]report.EpsilonStat)
	for _, s := range stats {
		if _, ok := byGroup[s.Group]; !ok {
			groups = append(groups, s.Group)
		}
		byGroup[s.Group] = append(byGroup[s.Group], s)
	}
	reports := make([]*report.AnalysisReport, 0, len(groups))
	for _, g := range groups {
		first := byGroup[g][0]
		sc := simulate.Scenario{TrueValue: first.TrueValue, Threshold: first.Threshold}
		r, err := report.BuildReport(rawRecordCount, sc, byGroup[g])
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", g, err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

type summarizeOutput struct {
	Samples int                      `json:"samples" yaml:"samples"`
	Stats   []report.EpsilonStat     `json:"stats" yaml:"stats"`
	Reports []*report.AnalysisReport `json:"reports" yaml:"reports"`
}

func newSummarizeCmd(a *app) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Rebuild the risk reports from a per-sample csv file written by analyze",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input == "" {
				return fmt.Errorf("no samples file was chosen")
			}
			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("couldn't open the csv file = %q, err = %v", input, err)
			}
			defer f.Close()
			rows, err := report.ReadSamplesCSV(f)
			if err != nil {
				return err
			}
			out := summarizeOutput{Samples: len(rows), Stats: report.Summarize(rows)}
			// The raw record count is not part of the sample rows.
			if out.Reports, err = groupReports(0, out.Stats); err != nil {
				return err
			}
			return a.emit(cmd, "summarize", out, func() error { return writeSummary(cmd.OutOrStdout(), out) })
		},
	}
	cmd.Flags().StringVar(&input, "samples-in", "", "Input csv file name with per-sample rows.")
	return cmd
}

func writeSamplesFile(path string, rows []report.SampleRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("couldn't open the csv file = %q, err = %v", path, err)
	}
	if err := report.WriteSamplesCSV(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("couldn't write to the csv file = %q, err = %v", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("couldn't close the csv file = %q, err = %v", path, err)
	}
	return nil
}

func newCompareCmd(a *app) *cobra.Command {
	var epsilon float64
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the built-in scenarios at one ε",
		RunE: func(cmd *cobra.Command, _ []string) error {
			newSim := func(i int) (*simulate.Simulator, error) {
				return a.cfg.Simulator(int64(i))
			}
			rows, err := report.Compare(cmd.Context(), newSim, simulate.Presets(), epsilon, a.cfg.SamplesPerEpsilon)
			if err != nil {
				return err
			}
			return a.emit(cmd, "compare", rows, func() error { return writeComparison(cmd.OutOrStdout(), rows) })
		},
	}
	cmd.Flags().Float64Var(&epsilon, "epsilon", 1, "Privacy parameter ε.")
	return cmd
}

func newPresetsCmd(a *app) *cobra.Command {
	var formats bool
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the built-in scenarios, or with --formats the recognized data formats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if formats {
				var infos []table.FormatInfo
				for _, f := range []table.Format{table.Enrollment, table.Health, table.Voting, table.Census, table.Survey, table.Custom} {
					infos = append(infos, table.Describe(f))
				}
				return a.emit(cmd, "formats", infos, func() error { return writeFormats(cmd.OutOrStdout(), infos) })
			}
			presets := simulate.Presets()
			return a.emit(cmd, "presets", presets, func() error { return writePresets(cmd.OutOrStdout(), presets) })
		},
	}
	cmd.Flags().BoolVar(&formats, "formats", false, "List data formats instead of scenarios.")
	return cmd
}
