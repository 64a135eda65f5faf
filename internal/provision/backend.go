// Package provision implements the per-kind provisioning backends that
// install, remove, start and stop individual stack components.
//
// A backend owns one component and exposes a uniform lifecycle contract.
// The installed-state predicate is always the source of truth: Install
// is a no-op returning a skipped result whenever the predicate already
// holds, and re-checks the predicate before reporting success.
package provision

import (
	"context"
	"errors"
	"fmt"

	"evalgo.org/stackpilot/models"
)

// Sentinel errors for the failure classes a backend can report. They end
// up in InstallResult details, never as panics or aborted runs.
var (
	// ErrNoDownload means the source locator has no entry for the
	// detected architecture
	ErrNoDownload = errors.New("no download available for this architecture")

	// ErrRuntimeUnavailable means the container runtime is absent or its
	// daemon is unreachable
	ErrRuntimeUnavailable = errors.New("container runtime unavailable")

	// ErrPostInstallCheck means the acquisition ran but the installed
	// predicate still does not hold
	ErrPostInstallCheck = errors.New("component not installed after provisioning")
)

// Backend is the uniform provisioning contract, one implementation per
// component kind. All methods are safe to call regardless of current
// state; Remove and Stop treat "already absent" as success.
type Backend interface {
	// Spec returns the registry entry this backend provisions
	Spec() models.ComponentSpec

	// IsInstalled reports whether the installed-state predicate holds.
	// It is side-effect-free.
	IsInstalled(ctx context.Context) bool

	// IsRunning reports liveness for long-running kinds; always false
	// for the config kind
	IsRunning(ctx context.Context) bool

	// Install acquires the component unless the installed predicate
	// already holds. Failures are reported in the result, not returned.
	Install(ctx context.Context, plan models.Plan) models.InstallResult

	// Remove deletes the component. Absent resources are not errors.
	Remove(ctx context.Context) error

	// Start brings a long-running component up; no-op for other kinds
	Start(ctx context.Context) error

	// Stop brings a long-running component down; no-op for other kinds
	Stop(ctx context.Context) error
}

func installedResult(spec models.ComponentSpec, detail string) models.InstallResult {
	return models.InstallResult{Component: spec.ID, Action: models.ActionInstalled, Detail: detail}
}

func skippedResult(spec models.ComponentSpec, detail string) models.InstallResult {
	return models.InstallResult{Component: spec.ID, Action: models.ActionSkipped, Detail: detail}
}

func failedResult(spec models.ComponentSpec, err error) models.InstallResult {
	return models.InstallResult{Component: spec.ID, Action: models.ActionFailed, Detail: err.Error()}
}

func failedResultf(spec models.ComponentSpec, format string, args ...interface{}) models.InstallResult {
	return failedResult(spec, fmt.Errorf(format, args...))
}
