// Package verify probes installed components and produces a pass/fail
// report. The engine always completes and returns one entry per
// registered component, even when every probe fails or times out.
package verify

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"evalgo.org/stackpilot/internal/provision"
	"evalgo.org/stackpilot/models"
)

// Engine runs verification checks against every registered backend.
type Engine struct {
	backends     []provision.Backend
	probeTimeout time.Duration

	// dial is injectable for tests; defaults to net.DialTimeout
	dial func(network, address string, timeout time.Duration) (net.Conn, error)
}

// New returns an engine over the given backends.
func New(backends []provision.Backend) *Engine {
	return &Engine{
		backends:     backends,
		probeTimeout: 3 * time.Second,
		dial:         net.DialTimeout,
	}
}

// Verify checks every component: an existence/liveness check per
// component, plus a reachability probe for components that advertise a
// network endpoint. Probes run concurrently since they are read-only
// and independent; the report is assembled only after all have
// settled. A probe failure is recorded, never returned as an error.
func (e *Engine) Verify(ctx context.Context) models.VerificationReport {
	report := models.VerificationReport{RunID: uuid.New().String()}

	type probeSlot struct {
		index int
		check models.VerificationCheck
	}

	presence := make([]models.VerificationCheck, len(e.backends))
	probes := make([]*probeSlot, 0, len(e.backends))

	for i, b := range e.backends {
		spec := b.Spec()
		presence[i] = e.presenceCheck(ctx, b)

		if spec.Port() > 0 {
			probes = append(probes, &probeSlot{index: i})
		}
	}

	// Reachability probes, concurrent with a bounded timeout each
	var g errgroup.Group
	for _, slot := range probes {
		slot := slot
		b := e.backends[slot.index]
		g.Go(func() error {
			slot.check = e.reachabilityCheck(b.Spec())
			return nil
		})
	}
	// Probes never return errors; Wait is a join point
	_ = g.Wait()

	// Assemble in registry order: presence check first, then the
	// component's probe if it has one
	probeByIndex := make(map[int]models.VerificationCheck, len(probes))
	for _, slot := range probes {
		probeByIndex[slot.index] = slot.check
	}

	for i := range e.backends {
		report.Checks = append(report.Checks, presence[i])
		if check, ok := probeByIndex[i]; ok {
			report.Checks = append(report.Checks, check)
		}
	}

	return report
}

// presenceCheck verifies the component's installed predicate, and for
// long-running kinds its liveness.
func (e *Engine) presenceCheck(ctx context.Context, b provision.Backend) models.VerificationCheck {
	spec := b.Spec()
	check := models.VerificationCheck{Name: spec.ID + " installed"}

	if !b.IsInstalled(ctx) {
		check.Detail = string(spec.Kind) + " is not installed"
		return check
	}

	switch spec.Kind {
	case models.KindConfig:
		check.Passed = true
		check.Detail = "file present"
	default:
		if spec.Kind == models.KindBinary && !spec.Daemon {
			check.Passed = true
			check.Detail = "binary present"
			return check
		}
		if b.IsRunning(ctx) {
			check.Passed = true
			check.Detail = "running"
		} else {
			check.Detail = "installed but not running"
		}
	}
	return check
}

// reachabilityCheck dials the component's advertised endpoint with the
// engine's bounded timeout.
func (e *Engine) reachabilityCheck(spec models.ComponentSpec) models.VerificationCheck {
	addr := fmt.Sprintf("127.0.0.1:%d", spec.Port())
	check := models.VerificationCheck{Name: spec.ID + " reachable"}

	conn, err := e.dial("tcp", addr, e.probeTimeout)
	if err != nil {
		check.Detail = fmt.Sprintf("%s unreachable: %v", addr, err)
		return check
	}
	conn.Close()

	check.Passed = true
	check.Detail = addr
	return check
}
