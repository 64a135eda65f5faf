// Package orchestration drives the detection, selection, installation
// and verification pipeline over the fixed component registry, and
// implements the top-level lifecycle commands.
package orchestration

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"evalgo.org/stackpilot/internal/config"
	"evalgo.org/stackpilot/internal/provision"
	"evalgo.org/stackpilot/models"
)

// Profiler produces the host profile that drives variant selection.
type Profiler interface {
	Profile() models.HostProfile
}

// Policy maps a host profile to a component plan.
type Policy func(models.HostProfile) models.Plan

// Verifier probes the installed stack and reports pass/fail.
type Verifier interface {
	Verify(ctx context.Context) models.VerificationReport
}

// Confirmer answers a destructive-action prompt. The default strategy
// declines, so automation must opt in explicitly.
type Confirmer func(prompt string) bool

// DeclineConfirmer is the default confirmation strategy.
func DeclineConfirmer(prompt string) bool { return false }

// Options wires an Orchestrator.
type Options struct {
	Backends []provision.Backend
	Profiler Profiler
	Policy   Policy
	Verifier Verifier
	Confirm  Confirmer
	Paths    config.Paths
	Out      io.Writer
}

// Orchestrator sequences the lifecycle commands over the registry.
// Components are provisioned strictly sequentially in registry order;
// a failure in one component never aborts the remaining ones.
type Orchestrator struct {
	backends []provision.Backend
	profiler Profiler
	policy   Policy
	verifier Verifier
	confirm  Confirmer
	paths    config.Paths
	out      io.Writer
}

// New creates an orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Confirm == nil {
		opts.Confirm = DeclineConfirmer
	}
	return &Orchestrator{
		backends: opts.Backends,
		profiler: opts.Profiler,
		policy:   opts.Policy,
		verifier: opts.Verifier,
		confirm:  opts.Confirm,
		paths:    opts.Paths,
		out:      opts.Out,
	}
}

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	skipMark = color.New(color.FgYellow).Sprint("-")
	failMark = color.New(color.FgRed).Sprint("✗")
)

// Install runs the full pipeline: profile the host, select the plan,
// provision every component in registry order with continue-on-error,
// bring long-running components up, then verify. Daemon starts block
// only for the backend's readiness poll. The returned error is non-nil
// when any component failed or verification did not pass; the summary
// and report are complete either way.
func (o *Orchestrator) Install(ctx context.Context) (models.InstallSummary, models.VerificationReport, error) {
	profile := o.profiler.Profile()
	plan := o.policy(profile)

	summary := models.InstallSummary{
		RunID:     uuid.New().String(),
		Profile:   profile,
		Plan:      plan,
		StartedAt: time.Now(),
	}

	fmt.Fprintf(o.out, "Host profile: %s\n", profile)
	fmt.Fprintf(o.out, "Selected plan: language=%s image=%s voice=%s\n\n",
		plan.LanguageModel, plan.ImageModel, plan.VoiceModel)

	if err := o.prepareDirectories(); err != nil {
		return summary, models.VerificationReport{}, err
	}

	for _, b := range o.backends {
		result := b.Install(ctx, plan)
		summary.Results = append(summary.Results, result)
		o.printResult(result)

		if result.Action == models.ActionFailed {
			continue
		}
		// Verification checks liveness and reachability, so daemons and
		// containers must be up before it runs. Start is idempotent and
		// a no-op for kinds with nothing to run.
		if b.Spec().Kind != models.KindConfig {
			if err := b.Start(ctx); err != nil {
				fmt.Fprintf(o.out, "%s %s: %v\n", failMark, b.Spec().ID, err)
			}
		}
	}
	summary.CompletedAt = time.Now()

	if added, err := EnsurePathEntry(o.paths.ShellProfile, o.paths.BinDir); err != nil {
		fmt.Fprintf(o.out, "%s could not update shell profile: %v\n", failMark, err)
	} else if added {
		fmt.Fprintf(o.out, "%s added %s to PATH in %s\n", okMark, o.paths.BinDir, o.paths.ShellProfile)
	}

	fmt.Fprintln(o.out, "\nVerifying installation...")
	report := o.verifier.Verify(ctx)
	for _, check := range report.Checks {
		o.printCheck(check)
	}

	failed := summary.Failed()
	if failed > 0 || !report.OK() {
		return summary, report, fmt.Errorf("%d component(s) failed, %d check(s) failing", failed, report.Failed())
	}

	fmt.Fprintf(o.out, "\n%s stack installed (%d components)\n", okMark, len(summary.Results))
	return summary, report, nil
}

// Start brings long-running components up in registry order.
func (o *Orchestrator) Start(ctx context.Context) error {
	var issues int
	for _, b := range o.backends {
		spec := b.Spec()
		if spec.Kind == models.KindConfig {
			continue
		}
		if err := b.Start(ctx); err != nil {
			issues++
			fmt.Fprintf(o.out, "%s %s: %v\n", failMark, spec.ID, err)
			continue
		}
		fmt.Fprintf(o.out, "%s %s started\n", okMark, spec.ID)
	}
	if issues > 0 {
		return fmt.Errorf("%d component(s) failed to start", issues)
	}
	return nil
}

// Stop brings long-running components down in reverse registry order,
// so dependents go down before the services they point at.
func (o *Orchestrator) Stop(ctx context.Context) error {
	var issues int
	for i := len(o.backends) - 1; i >= 0; i-- {
		b := o.backends[i]
		spec := b.Spec()
		if spec.Kind == models.KindConfig {
			continue
		}
		if err := b.Stop(ctx); err != nil {
			issues++
			fmt.Fprintf(o.out, "%s %s: %v\n", failMark, spec.ID, err)
			continue
		}
		fmt.Fprintf(o.out, "%s %s stopped\n", okMark, spec.ID)
	}
	if issues > 0 {
		return fmt.Errorf("%d component(s) failed to stop", issues)
	}
	return nil
}

// Clean removes every component and deletes all persisted data. It asks
// for confirmation first; a declined clean is a no-op, not an error.
// The returned bool reports whether cleaning actually ran.
func (o *Orchestrator) Clean(ctx context.Context) (bool, error) {
	if !o.confirm("This removes all installed components, models and data. Continue? [y/N] ") {
		fmt.Fprintln(o.out, "Clean aborted.")
		return false, nil
	}

	var issues int
	for i := len(o.backends) - 1; i >= 0; i-- {
		b := o.backends[i]
		spec := b.Spec()
		if err := b.Stop(ctx); err != nil {
			fmt.Fprintf(o.out, "%s %s stop: %v\n", failMark, spec.ID, err)
		}
		if err := b.Remove(ctx); err != nil {
			issues++
			fmt.Fprintf(o.out, "%s %s: %v\n", failMark, spec.ID, err)
			continue
		}
		fmt.Fprintf(o.out, "%s %s removed\n", okMark, spec.ID)
	}

	for _, dir := range []string{o.paths.ModelsDir, o.paths.DataDir, o.paths.RunDir} {
		if err := os.RemoveAll(dir); err != nil {
			issues++
			fmt.Fprintf(o.out, "%s failed to delete %s: %v\n", failMark, dir, err)
		}
	}

	if issues > 0 {
		return true, fmt.Errorf("clean finished with %d issue(s)", issues)
	}
	fmt.Fprintf(o.out, "%s stack cleaned\n", okMark)
	return true, nil
}

// Reinstall is clean followed by install. A declined clean skips the
// install and succeeds as a no-op.
func (o *Orchestrator) Reinstall(ctx context.Context) error {
	cleaned, err := o.Clean(ctx)
	if err != nil {
		return err
	}
	if !cleaned {
		return nil
	}
	_, _, err = o.Install(ctx)
	return err
}

// Test runs the verification engine including live reachability probes
// and returns an error when any check fails. It never mutates state.
func (o *Orchestrator) Test(ctx context.Context) (models.VerificationReport, error) {
	report := o.verifier.Verify(ctx)
	for _, check := range report.Checks {
		o.printCheck(check)
	}
	if !report.OK() {
		return report, fmt.Errorf("%d of %d check(s) failing", report.Failed(), len(report.Checks))
	}
	return report, nil
}

// prepareDirectories creates the model store layout and the run
// directory before any backend needs them.
func (o *Orchestrator) prepareDirectories() error {
	dirs := []string{o.paths.BinDir, o.paths.RunDir, o.paths.DataDir}
	for _, category := range config.ModelCategories {
		dirs = append(dirs, o.paths.ModelDir(category))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func (o *Orchestrator) printResult(r models.InstallResult) {
	switch r.Action {
	case models.ActionInstalled:
		fmt.Fprintf(o.out, "%s %s: %s\n", okMark, r.Component, r.Detail)
	case models.ActionSkipped:
		fmt.Fprintf(o.out, "%s %s: %s\n", skipMark, r.Component, r.Detail)
	case models.ActionFailed:
		fmt.Fprintf(o.out, "%s %s: %s\n", failMark, r.Component, r.Detail)
	}
}

func (o *Orchestrator) printCheck(c models.VerificationCheck) {
	mark := okMark
	if !c.Passed {
		mark = failMark
	}
	fmt.Fprintf(o.out, "%s %s: %s\n", mark, c.Name, c.Detail)
}
