package hostinfo

import (
	"errors"
	"path/filepath"
	"testing"

	"evalgo.org/stackpilot/models"
)

var errNotFound = errors.New("not found")

// fakeHost builds a profiler that simulates a host with the given tools
// on PATH, PCI devices, and render nodes.
func fakeHost(goarch string, tools map[string]bool, pci map[string]map[string]string, renderNodes []string) *Profiler {
	return &Profiler{
		goarch: goarch,
		lookPath: func(file string) (string, error) {
			if tools[file] {
				return "/usr/bin/" + file, nil
			}
			return "", errNotFound
		},
		glob: func(pattern string) ([]string, error) {
			switch pattern {
			case "/sys/bus/pci/devices/*":
				var out []string
				for dev := range pci {
					out = append(out, "/sys/bus/pci/devices/"+dev)
				}
				return out, nil
			case "/dev/dri/renderD*":
				return renderNodes, nil
			}
			return nil, nil
		},
		readFile: func(name string) ([]byte, error) {
			dev := filepath.Base(filepath.Dir(name))
			attrs, ok := pci[dev]
			if !ok {
				return nil, errNotFound
			}
			val, ok := attrs[filepath.Base(name)]
			if !ok {
				return nil, errNotFound
			}
			return []byte(val + "\n"), nil
		},
	}
}

func TestProfileArchitecture(t *testing.T) {
	tests := []struct {
		goarch string
		want   models.Architecture
	}{
		{"amd64", models.ArchAMD64},
		{"arm64", models.ArchARM64},
		{"arm", models.ArchARMv7},
		{"riscv64", models.ArchOther},
		{"", models.ArchAMD64}, // ambiguity resolves to the default
	}

	for _, tt := range tests {
		p := fakeHost(tt.goarch, nil, nil, nil)
		if got := p.Profile().Architecture; got != tt.want {
			t.Errorf("goarch %q: expected %s, got %s", tt.goarch, tt.want, got)
		}
	}
}

func TestAcceleratorVendorTooling(t *testing.T) {
	p := fakeHost("amd64", map[string]bool{"nvidia-smi": true}, nil, nil)
	if got := p.Profile().Accelerator; got != models.AccelNVIDIA {
		t.Errorf("expected nvidia, got %s", got)
	}

	p = fakeHost("amd64", map[string]bool{"rocm-smi": true}, nil, nil)
	if got := p.Profile().Accelerator; got != models.AccelAMD {
		t.Errorf("expected amd, got %s", got)
	}
}

// Vendor tooling wins over a conflicting PCI scan: first match, no
// further checks.
func TestAcceleratorDetectionOrder(t *testing.T) {
	pci := map[string]map[string]string{
		"0000:01:00.0": {"class": "0x030000", "vendor": "0x1002"},
	}
	p := fakeHost("amd64", map[string]bool{"nvidia-smi": true}, pci, nil)
	if got := p.Profile().Accelerator; got != models.AccelNVIDIA {
		t.Errorf("expected nvidia from tooling, got %s", got)
	}
}

func TestAcceleratorPCIScan(t *testing.T) {
	tests := []struct {
		vendor string
		want   models.Accelerator
	}{
		{"0x10de", models.AccelNVIDIA},
		{"0x1002", models.AccelAMD},
		{"0x8086", models.AccelIntegrated},
	}

	for _, tt := range tests {
		pci := map[string]map[string]string{
			"0000:01:00.0": {"class": "0x030000", "vendor": tt.vendor},
		}
		p := fakeHost("amd64", nil, pci, nil)
		if got := p.Profile().Accelerator; got != tt.want {
			t.Errorf("vendor %s: expected %s, got %s", tt.vendor, tt.want, got)
		}
	}
}

// Non-display PCI devices are ignored even with a GPU vendor id.
func TestAcceleratorIgnoresNonDisplayDevices(t *testing.T) {
	pci := map[string]map[string]string{
		"0000:00:1f.0": {"class": "0x0c0500", "vendor": "0x10de"},
	}
	p := fakeHost("amd64", nil, pci, nil)
	if got := p.Profile().Accelerator; got != models.AccelNone {
		t.Errorf("expected none, got %s", got)
	}
}

func TestAcceleratorRenderNodeFallback(t *testing.T) {
	p := fakeHost("amd64", nil, nil, []string{"/dev/dri/renderD128"})
	if got := p.Profile().Accelerator; got != models.AccelIntegrated {
		t.Errorf("expected integrated, got %s", got)
	}
}

func TestAcceleratorNone(t *testing.T) {
	p := fakeHost("amd64", nil, nil, nil)
	if got := p.Profile().Accelerator; got != models.AccelNone {
		t.Errorf("expected none, got %s", got)
	}
}
