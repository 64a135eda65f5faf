package models

// ComponentKind distinguishes the three provisioning strategies.
type ComponentKind string

const (
	// KindBinary is a standalone executable fetched from a release archive
	KindBinary ComponentKind = "binary"

	// KindContainer is a service run as a Docker container
	KindContainer ComponentKind = "container"

	// KindConfig is a generated configuration file
	KindConfig ComponentKind = "config"
)

// PortBinding maps a host port to a container port.
type PortBinding struct {
	HostPort      int    `json:"hostPort" yaml:"host_port"`
	ContainerPort int    `json:"containerPort" yaml:"container_port"`
	Protocol      string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
}

// ComponentSpec is one entry of the static component registry. It describes
// an installable unit fully enough for the matching backend to provision it
// without component-specific branches anywhere else.
//
// The registry is fixed at build time; registry order is install order and
// the reverse of it is stop order.
type ComponentSpec struct {
	// ID is the component identifier (registry key)
	ID string `json:"id" yaml:"id"`

	// Kind selects the provisioning backend
	Kind ComponentKind `json:"kind" yaml:"kind"`

	// ArchiveURLs maps an architecture to the release archive download
	// location (binary kind only). An architecture with no entry has no
	// resolvable download and installs as failed.
	ArchiveURLs map[Architecture]string `json:"-" yaml:"-"`

	// BinaryName is the executable name searched for inside the archive
	// and installed into the binaries directory (binary kind only)
	BinaryName string `json:"binaryName,omitempty" yaml:"binary_name,omitempty"`

	// Daemon marks a binary that runs as a long-lived background service
	Daemon bool `json:"daemon,omitempty" yaml:"daemon,omitempty"`

	// DaemonArgs are the arguments the daemon binary is started with
	DaemonArgs []string `json:"daemonArgs,omitempty" yaml:"daemon_args,omitempty"`

	// Env holds extra environment bindings: daemon process environment for
	// the binary kind, container environment for the container kind.
	// Values are passed through verbatim.
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// Image is the container image reference (container kind only)
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// ContainerName is the fixed name the container runs under
	ContainerName string `json:"containerName,omitempty" yaml:"container_name,omitempty"`

	// Ports are the published ports (container kind), or the single port a
	// daemon binary listens on (first entry, host side)
	Ports []PortBinding `json:"ports,omitempty" yaml:"ports,omitempty"`

	// Binds are host bind mounts in Docker -v syntax (container kind only)
	Binds []string `json:"binds,omitempty" yaml:"binds,omitempty"`

	// ExtraHosts are additional /etc/hosts entries for the container,
	// e.g. the host-gateway alias (container kind only)
	ExtraHosts []string `json:"extraHosts,omitempty" yaml:"extra_hosts,omitempty"`
}

// Port returns the host-side port the component is reachable on, or 0 when
// the component exposes no network endpoint.
func (s ComponentSpec) Port() int {
	if len(s.Ports) == 0 {
		return 0
	}
	return s.Ports[0].HostPort
}
