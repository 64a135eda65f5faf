// Package hostinfo inspects the local machine and produces the hardware
// profile that drives variant selection.
package hostinfo

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"evalgo.org/stackpilot/models"
)

// PCI vendor ids as exposed under /sys/bus/pci/devices/*/vendor.
const (
	vendorNVIDIA = "0x10de"
	vendorAMD    = "0x1002"
	vendorIntel  = "0x8086"
)

// Profiler detects host facts. The lookup functions are injectable so
// tests can simulate arbitrary hosts; New wires the real ones.
type Profiler struct {
	goarch   string
	lookPath func(file string) (string, error)
	glob     func(pattern string) ([]string, error)
	readFile func(name string) ([]byte, error)
}

// New returns a profiler backed by the real host.
func New() *Profiler {
	return &Profiler{
		goarch:   runtime.GOARCH,
		lookPath: exec.LookPath,
		glob:     filepath.Glob,
		readFile: os.ReadFile,
	}
}

// Profile inspects the host and returns its profile. It never fails:
// any detection ambiguity resolves to the conservative default of
// amd64 with no accelerator.
func (p *Profiler) Profile() models.HostProfile {
	return models.HostProfile{
		Architecture: p.architecture(),
		Accelerator:  p.accelerator(),
	}
}

func (p *Profiler) architecture() models.Architecture {
	switch p.goarch {
	case "amd64":
		return models.ArchAMD64
	case "arm64":
		return models.ArchARM64
	case "arm":
		return models.ArchARMv7
	case "":
		return models.ArchAMD64
	default:
		return models.ArchOther
	}
}

// accelerator detects the accelerator kind. Detection order: vendor
// tooling on PATH, then PCI display-device vendor scan, then generic
// render-device presence. First match wins.
func (p *Profiler) accelerator() models.Accelerator {
	if _, err := p.lookPath("nvidia-smi"); err == nil {
		return models.AccelNVIDIA
	}
	if _, err := p.lookPath("rocm-smi"); err == nil {
		return models.AccelAMD
	}

	if kind, ok := p.scanPCIDisplayDevices(); ok {
		return kind
	}

	if nodes, err := p.glob("/dev/dri/renderD*"); err == nil && len(nodes) > 0 {
		return models.AccelIntegrated
	}

	return models.AccelNone
}

// scanPCIDisplayDevices walks the PCI bus looking for a display-class
// device (class 0x03xxxx) with a known GPU vendor.
func (p *Profiler) scanPCIDisplayDevices() (models.Accelerator, bool) {
	devices, err := p.glob("/sys/bus/pci/devices/*")
	if err != nil {
		return models.AccelNone, false
	}

	for _, dev := range devices {
		class, err := p.readFile(filepath.Join(dev, "class"))
		if err != nil || !strings.HasPrefix(strings.TrimSpace(string(class)), "0x03") {
			continue
		}

		vendor, err := p.readFile(filepath.Join(dev, "vendor"))
		if err != nil {
			continue
		}

		switch strings.TrimSpace(string(vendor)) {
		case vendorNVIDIA:
			return models.AccelNVIDIA, true
		case vendorAMD:
			return models.AccelAMD, true
		case vendorIntel:
			return models.AccelIntegrated, true
		}
	}

	return models.AccelNone, false
}
