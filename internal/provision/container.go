package provision

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"evalgo.org/stackpilot/models"
)

// DockerAPI is the subset of the Docker client used by the container
// backend. *client.Client satisfies it; tests substitute a mock.
type DockerAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImageInspectWithRaw(ctx context.Context, imageID string) (types.ImageInspect, []byte, error)
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
}

// ClientFactory creates the Docker client on first use so that a missing
// runtime surfaces as a per-component failure instead of a startup crash.
type ClientFactory func() (DockerAPI, error)

// LocalDockerClient returns a client for the local Docker daemon.
func LocalDockerClient() (DockerAPI, error) {
	client, err := dockerclient.NewClientWithOpts(
		dockerclient.FromEnv,
		dockerclient.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create local Docker client: %w", err)
	}
	return client, nil
}

// ContainerBackend provisions one service as a named Docker container.
type ContainerBackend struct {
	spec    models.ComponentSpec
	factory ClientFactory
	docker  DockerAPI
}

// NewContainerBackend returns a backend for one container component.
func NewContainerBackend(spec models.ComponentSpec, factory ClientFactory) *ContainerBackend {
	return &ContainerBackend{spec: spec, factory: factory}
}

func (c *ContainerBackend) Spec() models.ComponentSpec { return c.spec }

// client lazily creates and caches the Docker client, verifying the
// daemon is reachable. Every failure maps to ErrRuntimeUnavailable.
func (c *ContainerBackend) client(ctx context.Context) (DockerAPI, error) {
	if c.docker != nil {
		return c.docker, nil
	}

	cli, err := c.factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
	}

	c.docker = cli
	return cli, nil
}

// IsInstalled reports whether a container with the target name exists,
// running or not.
func (c *ContainerBackend) IsInstalled(ctx context.Context) bool {
	cli, err := c.client(ctx)
	if err != nil {
		return false
	}
	existing, err := c.findByName(ctx, cli)
	return err == nil && existing != nil
}

// IsRunning reports whether the named container is currently running.
func (c *ContainerBackend) IsRunning(ctx context.Context) bool {
	cli, err := c.client(ctx)
	if err != nil {
		return false
	}
	existing, err := c.findByName(ctx, cli)
	if err != nil || existing == nil {
		return false
	}
	inspect, err := cli.ContainerInspect(ctx, existing.ID)
	if err != nil {
		return false
	}
	return inspect.State != nil && inspect.State.Running
}

// Install pulls the image if not present, removes any pre-existing
// container with the target name, then creates and starts a fresh one.
// At most one container with the name exists afterwards.
func (c *ContainerBackend) Install(ctx context.Context, plan models.Plan) models.InstallResult {
	cli, err := c.client(ctx)
	if err != nil {
		return failedResult(c.spec, err)
	}

	if existing, err := c.findByName(ctx, cli); err == nil && existing != nil {
		return skippedResult(c.spec, "container "+c.spec.ContainerName+" already exists")
	}

	if err := c.pullImage(ctx, cli); err != nil {
		return failedResultf(c.spec, "acquisition failed: %w", err)
	}

	// A same-named container may have appeared since the skip check;
	// re-installation must never leave duplicates
	if err := c.removeExisting(ctx, cli); err != nil {
		return failedResultf(c.spec, "failed to remove stale container: %w", err)
	}

	if err := c.ensureBindSources(); err != nil {
		return failedResult(c.spec, err)
	}

	containerConfig, hostConfig, err := c.dockerConfig()
	if err != nil {
		return failedResult(c.spec, err)
	}

	resp, err := cli.ContainerCreate(ctx, containerConfig, hostConfig, &network.NetworkingConfig{}, nil, c.spec.ContainerName)
	if err != nil {
		return failedResultf(c.spec, "failed to create container: %w", err)
	}

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		// Clean up the created container if start fails
		_ = cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return failedResultf(c.spec, "failed to start container: %w", err)
	}

	if !c.IsInstalled(ctx) {
		return failedResult(c.spec, ErrPostInstallCheck)
	}

	return installedResult(c.spec, "container "+c.spec.ContainerName+" running image "+c.spec.Image)
}

// Remove stops and deletes the named container. An absent container is
// success.
func (c *ContainerBackend) Remove(ctx context.Context) error {
	cli, err := c.client(ctx)
	if err != nil {
		return err
	}
	return c.removeExisting(ctx, cli)
}

// Start starts the existing named container.
func (c *ContainerBackend) Start(ctx context.Context) error {
	cli, err := c.client(ctx)
	if err != nil {
		return err
	}

	existing, err := c.findByName(ctx, cli)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%s is not installed", c.spec.ID)
	}

	if err := cli.ContainerStart(ctx, existing.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container %s: %w", c.spec.ContainerName, err)
	}
	return nil
}

// Stop stops the named container. Already-stopped and absent containers
// are success.
func (c *ContainerBackend) Stop(ctx context.Context) error {
	cli, err := c.client(ctx)
	if err != nil {
		return err
	}

	existing, err := c.findByName(ctx, cli)
	if err != nil || existing == nil {
		return err
	}

	if err := cli.ContainerStop(ctx, existing.ID, container.StopOptions{}); err != nil {
		if dockerclient.IsErrNotFound(err) || strings.Contains(err.Error(), "is already stopped") {
			return nil
		}
		return fmt.Errorf("failed to stop container %s: %w", c.spec.ContainerName, err)
	}
	return nil
}

// findByName returns the container with the exact target name, or nil.
func (c *ContainerBackend) findByName(ctx context.Context, cli DockerAPI) (*container.Summary, error) {
	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", c.spec.ContainerName)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	// The name filter matches substrings; require an exact match
	for i, ctr := range containers {
		for _, name := range ctr.Names {
			if strings.TrimPrefix(name, "/") == c.spec.ContainerName {
				return &containers[i], nil
			}
		}
	}
	return nil, nil
}

// removeExisting stops and removes every container sharing the target
// name so re-installation never leaves duplicates or stale state.
func (c *ContainerBackend) removeExisting(ctx context.Context, cli DockerAPI) error {
	for {
		existing, err := c.findByName(ctx, cli)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}

		if err := cli.ContainerStop(ctx, existing.ID, container.StopOptions{}); err != nil {
			if !dockerclient.IsErrNotFound(err) && !strings.Contains(err.Error(), "is already stopped") {
				return fmt.Errorf("failed to stop container: %w", err)
			}
		}
		if err := cli.ContainerRemove(ctx, existing.ID, container.RemoveOptions{Force: true}); err != nil {
			if !dockerclient.IsErrNotFound(err) {
				return fmt.Errorf("failed to remove container: %w", err)
			}
		}
	}
}

// pullImage pulls the component image unless it is already present.
func (c *ContainerBackend) pullImage(ctx context.Context, cli DockerAPI) error {
	if _, _, err := cli.ImageInspectWithRaw(ctx, c.spec.Image); err == nil {
		return nil
	}

	reader, err := cli.ImagePull(ctx, c.spec.Image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", c.spec.Image, err)
	}
	defer reader.Close()

	// Consume pull output to ensure the pull completes
	_, err = io.Copy(io.Discard, reader)
	return err
}

// ensureBindSources creates the host side of every declared bind mount.
func (c *ContainerBackend) ensureBindSources() error {
	for _, bind := range c.spec.Binds {
		parts := strings.SplitN(bind, ":", 2)
		if err := os.MkdirAll(parts[0], 0o755); err != nil {
			return fmt.Errorf("failed to create bind source %s: %w", parts[0], err)
		}
	}
	return nil
}

// dockerConfig converts the component spec to Docker API configs. The
// declared integration points are passed through unchanged.
func (c *ContainerBackend) dockerConfig() (*container.Config, *container.HostConfig, error) {
	exposedPorts := make(nat.PortSet)
	portBindings := make(nat.PortMap)

	for _, port := range c.spec.Ports {
		protocol := port.Protocol
		if protocol == "" {
			protocol = "tcp"
		}

		natPort, err := nat.NewPort(strings.ToLower(protocol), strconv.Itoa(port.ContainerPort))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid port: %w", err)
		}

		exposedPorts[natPort] = struct{}{}
		portBindings[natPort] = []nat.PortBinding{
			{HostIP: "0.0.0.0", HostPort: strconv.Itoa(port.HostPort)},
		}
	}

	containerConfig := &container.Config{
		Image:        c.spec.Image,
		Env:          envList(c.spec.Env),
		ExposedPorts: exposedPorts,
	}

	hostConfig := &container.HostConfig{
		PortBindings:  portBindings,
		Binds:         c.spec.Binds,
		ExtraHosts:    c.spec.ExtraHosts,
		RestartPolicy: container.RestartPolicy{Name: "unless-stopped"},
	}

	return containerConfig, hostConfig, nil
}

// envList converts the environment map to Docker's k=v slice with a
// stable order.
func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, k+"="+env[k])
	}
	return result
}
