package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"spool/internal/config"
	"spool/internal/deps"
	"spool/internal/preflight"
	"spool/internal/services"
)

// doctorReport is the stable shape emitted by spool doctor --json.
type doctorReport struct {
	Binaries []dependencyView `json:"binaries"`
	Encoders []dependencyView `json:"encoders"`
	Checks   []checkView      `json:"checks"`
}

type dependencyView struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Available bool   `json:"available"`
	Optional  bool   `json:"optional"`
	Detail    string `json:"detail,omitempty"`
}

type checkView struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

func (r doctorReport) healthy() bool {
	for _, dep := range r.Binaries {
		if !dep.Available && !dep.Optional {
			return false
		}
	}
	for _, dep := range r.Encoders {
		if !dep.Available && !dep.Optional {
			return false
		}
	}
	for _, check := range r.Checks {
		if !check.Passed {
			return false
		}
	}
	return true
}

func newDoctorCommand(cmdCtx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check binaries, encoders, directories, and the history database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			report := buildDoctorReport(cmd.Context(), cfg)
			if jsonOut {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printDoctorReport(cmd.OutOrStdout(), report)
			}
			if !report.healthy() {
				return services.Wrap(services.ErrConfiguration, "cli", "doctor",
					"environment is not ready to render", nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the report as JSON")

	return cmd
}

func buildDoctorReport(ctx context.Context, cfg *config.Config) doctorReport {
	var report doctorReport
	for _, status := range preflight.CheckSystemDeps(cfg) {
		report.Binaries = append(report.Binaries, newDependencyView(status))
	}
	for _, status := range preflight.CheckEncoders(ctx, cfg) {
		report.Encoders = append(report.Encoders, newDependencyView(status))
	}
	for _, result := range preflight.RunAll(ctx, cfg) {
		report.Checks = append(report.Checks, checkView{
			Name:   result.Name,
			Passed: result.Passed,
			Detail: result.Detail,
		})
	}
	return report
}

func newDependencyView(status deps.Status) dependencyView {
	return dependencyView{
		Name:      status.Name,
		Command:   status.Command,
		Available: status.Available,
		Optional:  status.Optional,
		Detail:    status.Detail,
	}
}

func printDoctorReport(w io.Writer, report doctorReport) {
	colorize := shouldColorize(w)

	binaries := make([]statusLine, 0, len(report.Binaries))
	for _, dep := range report.Binaries {
		binaries = append(binaries, dependencyLine(dep))
	}
	printSection(w, "Binaries", binaries, colorize)

	encoders := make([]statusLine, 0, len(report.Encoders))
	for _, dep := range report.Encoders {
		encoders = append(encoders, dependencyLine(dep))
	}
	printSection(w, "Encoders", encoders, colorize)

	checks := make([]statusLine, 0, len(report.Checks))
	for _, check := range report.Checks {
		kind := statusError
		if check.Passed {
			kind = statusOK
		}
		checks = append(checks, statusLine{label: titleize(check.Name), kind: kind, message: check.Detail})
	}
	printSection(w, "Environment", checks, colorize)
}

func dependencyLine(dep dependencyView) statusLine {
	line := statusLine{label: dep.Name, kind: statusOK, message: dep.Command}
	if !dep.Available {
		line.message = dep.Detail
		line.kind = statusError
		if dep.Optional {
			line.kind = statusWarn
		}
	}
	return line
}
