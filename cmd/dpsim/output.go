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
	"io"
	"strings"
	"text/tabwriter"

	log "github.com/golang/glog"
	"github.com/jahidul-arafat/civic-data/report"
	"github.com/jahidul-arafat/civic-data/simulate"
	"github.com/jahidul-arafat/civic-data/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func errUnknownFormat(format string) error {
	return fmt.Errorf("unknown output format %q, want %s, %s or %s", format, formatText, formatJSON, formatYAML)
}

// bind binds each config key to the named flag of fs.
func bind(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			log.Fatalf("Couldn't bind flag --%s to %q, err = %v", name, key, err)
		}
	}
}

func (a *app) preset() (simulate.Preset, bool) {
	return simulate.LookupPreset(a.cfg.Scenario.Preset)
}

// emit writes payload in the selected format. Structured formats wrap it in
// an envelope carrying a run id.
func (a *app) emit(cmd *cobra.Command, kind string, payload any, text func() error) error {
	switch a.format {
	case formatJSON:
		return report.WriteJSON(cmd.OutOrStdout(), report.NewEnvelope(kind, payload))
	case formatYAML:
		return report.WriteYAML(cmd.OutOrStdout(), report.NewEnvelope(kind, payload))
	}
	return text()
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeEstimate(w io.Writer, out estimateOutput) error {
	tw := newTabWriter(w)
	r := out.Result
	if out.Preset != "" {
		fmt.Fprintf(tw, "Scenario\t%s\n", out.Preset)
	}
	fmt.Fprintf(tw, "True value\t%g (threshold %g)\n", out.Scenario.TrueValue, out.Scenario.Threshold)
	fmt.Fprintf(tw, "ε\t%.1f (%s)\n", out.Epsilon, r.Mode)
	fmt.Fprintf(tw, "Laplace scale\t%.0f\n", r.NoiseScale)
	fmt.Fprintf(tw, "Noisy value\t%d\n", r.NoisyValue)
	fmt.Fprintf(tw, "Range\t%d — %d\n", r.RangeLow, r.RangeHigh)
	fmt.Fprintf(tw, "Margin\t±%d (±%.1f%%)\n", r.Margin, r.ErrorPercent)
	fmt.Fprintf(tw, "Confidence\t%s\n", r.Confidence)
	fmt.Fprintf(tw, "Outcome\t%s\n", r.Outcome)
	if out.Decision != "" {
		fmt.Fprintf(tw, "Decision\t%s\n", out.Decision)
	}
	fmt.Fprintf(tw, "Flip probability\t%.1f%% (%s risk)\n", out.FlipChance, report.ClassifyRisk(out.FlipChance))
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(out.Histogram) > 0 {
		return writeHistogram(w, out.Histogram)
	}
	return nil
}

func writeHistogram(w io.Writer, bins []simulate.Bin) error {
	peak := 1
	for _, b := range bins {
		if b.Count > peak {
			peak = b.Count
		}
	}
	tw := newTabWriter(w)
	for _, b := range bins {
		mark := "+"
		if b.BelowThreshold {
			mark = "-"
		}
		fmt.Fprintf(tw, "[%.0f, %.0f)\t%d\t%s\n", b.Low, b.High, b.Count, strings.Repeat(mark, b.Count*40/peak))
	}
	return tw.Flush()
}

func writeSweep(w io.Writer, out sweepOutput) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "ε\tFLIP\tAVG ERROR\tCONFIDENCE\tRISK")
	for _, s := range out.Stats {
		fmt.Fprintf(tw, "%g\t%.2f%%\t%.2f%%\t%.2f%%\t%s\n", s.Epsilon, s.FlipProbabilityPercent, s.AvgErrorPercent, s.ConfidencePercent, report.ClassifyRisk(s.FlipProbabilityPercent))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writeReport(w, out.Report)
}

func writeReport(w io.Writer, r *report.AnalysisReport) error {
	s := r.Summary
	_, err := fmt.Fprintf(w, "\nTrue count %g vs threshold %g (%s): %s\n%s: %s\n%s\n",
		s.TrueCount, s.Threshold, s.MarginFromThreshold, s.TrueDecision,
		r.Recommendation.Status, r.Recommendation.Message, r.Recommendation.SuggestedEpsilon)
	return err
}

func writeCurve(w io.Writer, points []report.CurvePoint) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "ε\tMODE\tERROR\tSPREAD\tFLIP\tRISK")
	for _, p := range points {
		fmt.Fprintf(tw, "%g\t%s\t±%.2f%%\t%.2f%%\t%.2f%%\t%s\n", p.Epsilon, p.Mode, p.ErrorPercent, p.StdDevPercent, p.FlipProbabilityPercent, p.RiskLevel)
	}
	return tw.Flush()
}

func writeAnalysis(w io.Writer, out analyzeOutput) error {
	info := table.Describe(out.Format)
	if _, err := fmt.Fprintf(w, "Detected %s, %d row(s) selected, %d row(s) dropped\n", info.Name, out.Selected, out.Dropped); err != nil {
		return err
	}
	for i, rec := range out.Records {
		if _, err := fmt.Fprintf(w, "\n== %s: %d ==\n", rec.Group, rec.Count); err != nil {
			return err
		}
		tw := newTabWriter(w)
		fmt.Fprintln(tw, "ε\tFLIP\tRISK")
		for _, row := range out.Reports[i].RiskAssessment {
			fmt.Fprintf(tw, "%g\t%s\t%s\n", row.Epsilon, row.FlipRisk, row.RiskLevel)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if err := writeReport(w, out.Reports[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(w io.Writer, out summarizeOutput) error {
	if _, err := fmt.Fprintf(w, "Read %d sample row(s)\n", out.Samples); err != nil {
		return err
	}
	for _, r := range out.Reports {
		if len(r.RiskAssessment) > 0 {
			if _, err := fmt.Fprintf(w, "\n== %s ==\n", r.RiskAssessment[0].Group); err != nil {
				return err
			}
		}
		tw := newTabWriter(w)
		fmt.Fprintln(tw, "ε\tFLIP\tRISK")
		for _, row := range r.RiskAssessment {
			fmt.Fprintf(tw, "%g\t%s\t%s\n", row.Epsilon, row.FlipRisk, row.RiskLevel)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if err := writeReport(w, r); err != nil {
			return err
		}
	}
	return nil
}

func writeComparison(w io.Writer, rows []report.ComparisonRow) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "SCENARIO\tTRUE VALUE\tTHRESHOLD\tERROR\tFLIP\tRISK\tOUTCOME")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%g\t%g\t±%.1f%%\t%.1f%%\t%s\t%s\n", r.Title, r.TrueValue, r.Threshold, r.ErrorPercent, r.FlipProbabilityPercent, r.RiskLevel, r.Outcome)
	}
	return tw.Flush()
}

func writePresets(w io.Writer, presets []simulate.Preset) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "KEY\tTITLE\tTRUE VALUE\tTHRESHOLD\tSENSITIVITY\tDISPLAY SCALE")
	for _, p := range presets {
		sc := p.Scenario
		fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%g\t%g\n", p.Key, p.Title, sc.TrueValue, sc.Threshold, sc.Sensitivity, sc.DisplayScale)
	}
	return tw.Flush()
}

func writeFormats(w io.Writer, infos []table.FormatInfo) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "FORMAT\tREQUIRED\tOPTIONAL\tDESCRIPTION")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Name, strings.Join(info.RequiredFields, ","), strings.Join(info.OptionalFields, ","), info.Description)
	}
	return tw.Flush()
}
