package provision

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"evalgo.org/stackpilot/internal/config"
	"evalgo.org/stackpilot/models"
)

// BinaryBackend provisions a standalone executable fetched from a
// release archive. Daemon-kind binaries are started as detached
// background processes with a pidfile under the run directory.
type BinaryBackend struct {
	spec  models.ComponentSpec
	paths config.Paths
	arch  models.Architecture

	client       *http.Client
	readyTimeout time.Duration
	pollInterval time.Duration
}

// NewBinaryBackend returns a backend for one binary component.
func NewBinaryBackend(spec models.ComponentSpec, paths config.Paths, arch models.Architecture) *BinaryBackend {
	return &BinaryBackend{
		spec:  spec,
		paths: paths,
		arch:  arch,
		// Release archives run into the hundreds of megabytes
		client:       &http.Client{Timeout: 15 * time.Minute},
		readyTimeout: 15 * time.Second,
		pollInterval: 250 * time.Millisecond,
	}
}

func (b *BinaryBackend) Spec() models.ComponentSpec { return b.spec }

func (b *BinaryBackend) binPath() string {
	return filepath.Join(b.paths.BinDir, b.spec.BinaryName)
}

func (b *BinaryBackend) pidFile() string {
	return filepath.Join(b.paths.RunDir, b.spec.ID+".pid")
}

// IsInstalled reports whether the executable is present in the binaries
// directory.
func (b *BinaryBackend) IsInstalled(ctx context.Context) bool {
	info, err := os.Stat(b.binPath())
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

// IsRunning probes the daemon's local endpoint when one is declared,
// falling back to a pidfile liveness check. Non-daemon binaries are
// never "running".
func (b *BinaryBackend) IsRunning(ctx context.Context) bool {
	if !b.spec.Daemon {
		return false
	}
	if port := b.spec.Port(); port > 0 {
		return probeEndpoint(ctx, port, 2*time.Second)
	}
	pid, err := b.readPid()
	if err != nil {
		return false
	}
	return processAlive(pid)
}

// Install downloads and extracts the release archive for the detected
// architecture into a scratch directory, locates the executable inside
// it and places it into the binaries directory. Temporary artifacts are
// removed on both success and failure paths.
func (b *BinaryBackend) Install(ctx context.Context, plan models.Plan) models.InstallResult {
	if b.IsInstalled(ctx) {
		return skippedResult(b.spec, "already installed at "+b.binPath())
	}

	url, ok := b.spec.ArchiveURLs[b.arch]
	if !ok {
		return failedResultf(b.spec, "%w: %s", ErrNoDownload, b.arch)
	}

	if err := b.acquire(ctx, url); err != nil {
		return failedResultf(b.spec, "acquisition failed: %w", err)
	}

	if !b.IsInstalled(ctx) {
		return failedResultf(b.spec, "%w: %s missing from archive", ErrPostInstallCheck, b.spec.BinaryName)
	}

	return installedResult(b.spec, "installed "+b.binPath())
}

// Remove deletes the installed binary and any stale pidfile. An absent
// binary is success.
func (b *BinaryBackend) Remove(ctx context.Context) error {
	if err := os.Remove(b.binPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", b.binPath(), err)
	}
	if err := os.Remove(b.pidFile()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove pidfile: %w", err)
	}
	return nil
}

// Start launches a daemon binary detached from the orchestrator's
// lifetime, then blocks only long enough to observe it become ready.
// Non-daemon binaries are a no-op.
func (b *BinaryBackend) Start(ctx context.Context) error {
	if !b.spec.Daemon {
		return nil
	}
	if b.IsRunning(ctx) {
		return nil
	}
	if !b.IsInstalled(ctx) {
		return fmt.Errorf("%s is not installed", b.spec.ID)
	}

	if err := os.MkdirAll(b.paths.RunDir, 0o755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	logFile, err := os.OpenFile(
		filepath.Join(b.paths.RunDir, b.spec.ID+".log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644,
	)
	if err != nil {
		return fmt.Errorf("failed to open daemon log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(b.binPath(), b.spec.DaemonArgs...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = os.Environ()
	for k, v := range b.spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	// Detach into its own session so it survives the orchestrator
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", b.spec.ID, err)
	}

	pid := cmd.Process.Pid
	if err := os.WriteFile(b.pidFile(), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("failed to write pidfile: %w", err)
	}
	_ = cmd.Process.Release()

	return b.waitReady(ctx)
}

// Stop terminates the daemon identified by the pidfile. An absent
// pidfile or an already-dead process is success.
func (b *BinaryBackend) Stop(ctx context.Context) error {
	if !b.spec.Daemon {
		return nil
	}

	pid, err := b.readPid()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	proc, err := os.FindProcess(pid)
	if err == nil {
		if err := proc.Signal(syscall.SIGTERM); err != nil && !strings.Contains(err.Error(), "process already finished") {
			return fmt.Errorf("failed to stop %s (pid %d): %w", b.spec.ID, pid, err)
		}
	}

	if err := os.Remove(b.pidFile()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (b *BinaryBackend) readPid() (int, error) {
	data, err := os.ReadFile(b.pidFile())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// waitReady polls the daemon's endpoint for a short fixed grace period.
func (b *BinaryBackend) waitReady(ctx context.Context) error {
	port := b.spec.Port()
	if port == 0 {
		return nil
	}

	deadline := time.Now().Add(b.readyTimeout)
	for time.Now().Before(deadline) {
		if probeEndpoint(ctx, port, b.pollInterval) {
			return nil
		}
		time.Sleep(b.pollInterval)
	}
	return fmt.Errorf("%s did not become ready on port %d within %s", b.spec.ID, port, b.readyTimeout)
}

// acquire downloads the archive into a scratch directory, extracts it
// and installs the discovered executable. The scratch directory is
// always removed.
func (b *BinaryBackend) acquire(ctx context.Context, url string) (err error) {
	scratch, err := os.MkdirTemp("", "stackpilot-"+b.spec.ID+"-")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	archivePath := filepath.Join(scratch, filepath.Base(url))
	if err := b.download(ctx, url, archivePath); err != nil {
		return err
	}

	extractDir := filepath.Join(scratch, "extracted")
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return err
	}

	switch {
	case strings.HasSuffix(archivePath, ".tgz"), strings.HasSuffix(archivePath, ".tar.gz"):
		err = extractTarGz(archivePath, extractDir)
	case strings.HasSuffix(archivePath, ".zip"):
		err = extractZip(archivePath, extractDir)
	default:
		// Not an archive: the download is the binary itself
		err = os.Rename(archivePath, filepath.Join(extractDir, b.spec.BinaryName))
	}
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", filepath.Base(archivePath), err)
	}

	found, err := findExecutable(extractDir, b.spec.BinaryName)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(b.paths.BinDir, 0o755); err != nil {
		return fmt.Errorf("failed to create binaries directory: %w", err)
	}
	return copyFile(found, b.binPath(), 0o755)
}

func (b *BinaryBackend) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s returned %s", url, resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("download interrupted: %w", err)
	}
	return nil
}

// findExecutable searches the extraction root recursively for a file
// with the expected name, tolerating nested directory layouts.
func findExecutable(root, name string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("executable %s not found in archive", name)
	}
	return found, nil
}

func extractTarGz(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := sanitizePath(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)&0o777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}

func extractZip(archivePath, dest string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := sanitizePath(dest, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		in, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode()&0o777)
		if err != nil {
			in.Close()
			return err
		}
		_, err = io.Copy(out, in)
		in.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// sanitizePath rejects archive entries that would escape the
// extraction root.
func sanitizePath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.Clean(name))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return target, nil
}

func copyFile(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// probeEndpoint reports whether anything answers HTTP on the local
// port within the timeout. Any response, including an error status,
// counts as alive.
func probeEndpoint(ctx context.Context, port int, timeout time.Duration) bool {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, fmt.Sprintf("http://127.0.0.1:%d/", port), nil)
	if err != nil {
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
