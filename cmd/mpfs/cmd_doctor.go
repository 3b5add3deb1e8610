package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mpremote-tools/mpfs/internal/config"
	"github.com/mpremote-tools/mpfs/internal/doctor"
	"github.com/mpremote-tools/mpfs/internal/events"
	"github.com/mpremote-tools/mpfs/internal/fsys"
)

func newDoctorCmd(s streams) *cobra.Command {
	var fix, verbose bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the mpfs setup",
		Long: `Run health checks: the project config, the sync source, the device
tool, the state directory, saved preferences, the event log and whether a
device answers. Use --fix to create a missing state directory.`,
		Example: `  mpfs doctor
  mpfs doctor --fix
  mpfs doctor --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), s)
			if err != nil {
				// Setup failed before any component exists; show what broke.
				s.errorf("doctor", "%v", err)
				d := &doctor.Doctor{}
				d.Register(doctor.NewConfigCheck(fsys.OSFS{}, configPath(a)))
				doctor.PrintSummary(s.out, d.Run(&doctor.CheckContext{Ctx: cmd.Context()}, s.out, false))
				return errExit
			}
			defer a.Close()
			if doDoctor(cmd.Context(), a, fix, verbose, s) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "attempt to fix issues automatically")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show extra diagnostic details")
	return cmd
}

// configPath returns the config file in use: --config, or the one found
// from the project root (or cwd without an app). Empty when there is none.
func configPath(a *app) string {
	if configFlag != "" {
		return configFlag
	}
	dir, err := os.Getwd()
	if a != nil {
		dir, err = a.cfg.Root, nil
	}
	if err != nil {
		return ""
	}
	p, err := config.Discover(fsys.OSFS{}, dir)
	if err != nil {
		return ""
	}
	return p
}

func doDoctor(ctx context.Context, a *app, fix, verbose bool, s streams) int {
	fs := fsys.OSFS{}
	cfgPath := configPath(a)

	d := &doctor.Doctor{}
	d.Register(doctor.NewConfigCheck(fs, cfgPath))
	d.Register(doctor.NewSourceDirCheck(fs, a.cfg.SourceDir()))
	d.Register(doctor.NewToolCheck(a.cfg.Device.Tool, exec.LookPath))
	d.Register(doctor.NewStateDirCheck(fs, a.stateDir))
	d.Register(doctor.NewPreferencesCheck(a.prefs))
	d.Register(doctor.NewEventsLogCheck(filepath.Join(a.stateDir, events.FileName)))
	d.Register(doctor.NewDeviceCheck(a.runner))

	cc := &doctor.CheckContext{Ctx: ctx, Root: a.cfg.Root, Verbose: verbose}
	report := d.Run(cc, s.out, fix)
	doctor.PrintSummary(s.out, report)
	if report.Failed > 0 {
		return 1
	}
	return 0
}
