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

// dpsim is a command line utility which shows how differentially private
// publication of a count changes a threshold decision.
//
// Usage examples:
//
//	dpsim estimate --preset=school --epsilon=1
//	dpsim sweep --preset=hospital --epsilons=0.2,0.5,1,3 --samples=5000 --format=yaml
//	dpsim analyze --input=students.csv --group-by=school --filter-field=free_lunch_eligible --filter-value=yes --decision-threshold=40
//	dpsim summarize --samples-in=samples.csv
//	dpsim compare --epsilon=0.5 --seed=7
//	dpsim curve --preset=school --from=0.1 --to=5 --step=0.3 --laplace-margin
package main

import (
	"flag"

	log "github.com/golang/glog"
	"github.com/jahidul-arafat/civic-data/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	format  string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:           "dpsim",
		Short:         "Simulate the effect of differential privacy noise on threshold decisions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch a.format {
			case formatText, formatJSON, formatYAML:
			default:
				return errUnknownFormat(a.format)
			}
			cfg, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			log.V(1).Infof("dpsim %s: config %+v", cmd.Name(), *cfg)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "YAML config file.")
	pf.StringVar(&a.format, "format", formatText, "Output format: text, json or yaml.")
	pf.StringSlice("epsilons", nil, "Privacy parameters ε to sweep, comma separated.")
	pf.Float64("sensitivity", 0, "Sensitivity of the raw counts in analyze.")
	pf.Int("samples", 0, "Monte Carlo samples per ε.")
	pf.Int64("seed", 0, "Seed for reproducible Monte Carlo draws. 0 uses the secure random source.")
	pf.String("preset", "", "Built-in scenario: school, hospital or redistrict.")
	pf.Float64("true-value", 0, "True count of the scenario. Overrides the preset.")
	pf.Float64("threshold", 0, "Decision threshold of the scenario. Overrides the preset.")
	pf.Float64("noise-sensitivity", 0, "Sensitivity of the scenario. Overrides the preset.")
	pf.Float64("display-scale", 0, "Display scale of the scenario. Overrides the preset.")
	pf.Float64("margin-multiplier", 0, "Multiplier of the noise scale in the reported margin. 0 keeps the Gaussian 1.96.")
	pf.Bool("laplace-margin", false, "Size the reported margin with the exact 95% Laplace multiplier ln(20).")
	bind(a.v, pf, map[string]string{
		"epsilon_values":         "epsilons",
		"sensitivity":            "sensitivity",
		"samples_per_epsilon":    "samples",
		"seed":                   "seed",
		"scenario.preset":        "preset",
		"scenario.true_value":    "true-value",
		"scenario.threshold":     "threshold",
		"scenario.sensitivity":   "noise-sensitivity",
		"scenario.display_scale": "display-scale",
		"margin_multiplier":      "margin-multiplier",
		"laplace_margin":         "laplace-margin",
	})
	// glog flags such as -v and -logtostderr.
	pf.AddGoFlagSet(flag.CommandLine)

	root.AddCommand(
		newEstimateCmd(a),
		newSweepCmd(a),
		newCurveCmd(a),
		newAnalyzeCmd(a),
		newSummarizeCmd(a),
		newCompareCmd(a),
		newPresetsCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Exitf("dpsim failed, err = %v", err)
	}
}
