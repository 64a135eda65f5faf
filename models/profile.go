package models

// Architecture identifies the CPU architecture of the host machine.
type Architecture string

const (
	ArchAMD64 Architecture = "amd64"
	ArchARM64 Architecture = "arm64"
	ArchARMv7 Architecture = "armv7"
	ArchOther Architecture = "other"
)

// Accelerator identifies the kind of compute accelerator present on the host.
type Accelerator string

const (
	AccelNone       Accelerator = "none"
	AccelNVIDIA     Accelerator = "nvidia"
	AccelAMD        Accelerator = "amd"
	AccelIntegrated Accelerator = "integrated"
)

// HostProfile describes the hardware capabilities of the local machine.
// It is built once per invocation and never mutated afterwards.
type HostProfile struct {
	// Architecture is the detected CPU architecture
	Architecture Architecture `json:"architecture" yaml:"architecture"`

	// Accelerator is the detected compute accelerator kind
	Accelerator Accelerator `json:"accelerator" yaml:"accelerator"`
}

func (p HostProfile) String() string {
	return string(p.Architecture) + "/" + string(p.Accelerator)
}
