package provision

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"evalgo.org/stackpilot/internal/config"
	"evalgo.org/stackpilot/models"
)

// buildTarGz builds an in-memory tar.gz archive. Entries with a trailing
// slash become directories.
func buildTarGz(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range entries {
		if strings.HasSuffix(name, "/") {
			if err := tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeDir, Mode: 0o755}); err != nil {
				t.Fatalf("write dir header: %v", err)
			}
			continue
		}
		hdr := &tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0o755, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write(content); err != nil {
			t.Fatalf("write content: %v", err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

func testPaths(t *testing.T) config.Paths {
	t.Helper()
	root := t.TempDir()
	return config.Paths{
		BinDir:      filepath.Join(root, "bin"),
		ConfigDir:   filepath.Join(root, "config"),
		ModelsDir:   filepath.Join(root, "models"),
		DataDir:     filepath.Join(root, "data"),
		LauncherDir: filepath.Join(root, "applications"),
		RunDir:      filepath.Join(root, "run"),
	}
}

func binarySpec(urls map[models.Architecture]string) models.ComponentSpec {
	return models.ComponentSpec{
		ID:          "ollama",
		Kind:        models.KindBinary,
		BinaryName:  "ollama",
		ArchiveURLs: urls,
	}
}

func TestBinaryInstallIdempotence(t *testing.T) {
	// Archive with the executable buried in a nested directory
	archive := buildTarGz(t, map[string][]byte{
		"ollama-linux-amd64/":           nil,
		"ollama-linux-amd64/bin/":       nil,
		"ollama-linux-amd64/bin/ollama": []byte("#!/bin/sh\necho ok\n"),
	})

	downloads := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads++
		w.Write(archive)
	}))
	defer server.Close()

	spec := binarySpec(map[models.Architecture]string{
		models.ArchAMD64: server.URL + "/ollama-linux-amd64.tgz",
	})
	b := NewBinaryBackend(spec, testPaths(t), models.ArchAMD64)

	ctx := context.Background()
	first := b.Install(ctx, models.Plan{})
	if first.Action != models.ActionInstalled {
		t.Fatalf("expected installed, got %s (%s)", first.Action, first.Detail)
	}

	info, err := os.Stat(b.binPath())
	if err != nil {
		t.Fatalf("binary not installed: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Error("installed binary is not executable")
	}

	second := b.Install(ctx, models.Plan{})
	if second.Action != models.ActionSkipped {
		t.Errorf("expected skipped on re-install, got %s", second.Action)
	}
	if downloads != 1 {
		t.Errorf("expected exactly one download, got %d", downloads)
	}
}

func TestBinaryInstallZipArchive(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("Release/whisper-server")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	w.Write([]byte("binary"))
	zw.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	spec := models.ComponentSpec{
		ID:         "whisper",
		Kind:       models.KindBinary,
		BinaryName: "whisper-server",
		ArchiveURLs: map[models.Architecture]string{
			models.ArchAMD64: server.URL + "/whisper-bin.zip",
		},
	}
	b := NewBinaryBackend(spec, testPaths(t), models.ArchAMD64)

	result := b.Install(context.Background(), models.Plan{})
	if result.Action != models.ActionInstalled {
		t.Fatalf("expected installed, got %s (%s)", result.Action, result.Detail)
	}
}

func TestBinaryInstallNoArchMapping(t *testing.T) {
	spec := binarySpec(map[models.Architecture]string{
		models.ArchAMD64: "https://example.invalid/ollama.tgz",
	})
	b := NewBinaryBackend(spec, testPaths(t), models.ArchARMv7)

	result := b.Install(context.Background(), models.Plan{})
	if result.Action != models.ActionFailed {
		t.Fatalf("expected failed, got %s", result.Action)
	}
	if !strings.Contains(result.Detail, "no download available") {
		t.Errorf("expected resolution failure detail, got %q", result.Detail)
	}
}

func TestBinaryInstallDownloadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	spec := binarySpec(map[models.Architecture]string{
		models.ArchAMD64: server.URL + "/missing.tgz",
	})
	b := NewBinaryBackend(spec, testPaths(t), models.ArchAMD64)

	result := b.Install(context.Background(), models.Plan{})
	if result.Action != models.ActionFailed {
		t.Fatalf("expected failed, got %s", result.Action)
	}
	if !strings.Contains(result.Detail, "acquisition failed") {
		t.Errorf("expected acquisition failure detail, got %q", result.Detail)
	}
	if b.IsInstalled(context.Background()) {
		t.Error("binary must not be installed after failed acquisition")
	}
}

func TestBinaryInstallMissingExecutableInArchive(t *testing.T) {
	archive := buildTarGz(t, map[string][]byte{
		"README.md": []byte("no binary here"),
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	spec := binarySpec(map[models.Architecture]string{
		models.ArchAMD64: server.URL + "/ollama.tgz",
	})
	b := NewBinaryBackend(spec, testPaths(t), models.ArchAMD64)

	result := b.Install(context.Background(), models.Plan{})
	if result.Action != models.ActionFailed {
		t.Fatalf("expected failed, got %s", result.Action)
	}
}

func TestBinaryRemoveIdempotence(t *testing.T) {
	spec := binarySpec(nil)
	b := NewBinaryBackend(spec, testPaths(t), models.ArchAMD64)

	// Absent binary is not an error
	if err := b.Remove(context.Background()); err != nil {
		t.Errorf("remove of absent binary errored: %v", err)
	}

	os.MkdirAll(b.paths.BinDir, 0o755)
	os.WriteFile(b.binPath(), []byte("bin"), 0o755)

	if err := b.Remove(context.Background()); err != nil {
		t.Errorf("remove errored: %v", err)
	}
	if err := b.Remove(context.Background()); err != nil {
		t.Errorf("second remove errored: %v", err)
	}
	if b.IsInstalled(context.Background()) {
		t.Error("binary still installed after remove")
	}
}

func TestBinaryStartStopNonDaemon(t *testing.T) {
	spec := binarySpec(nil)
	spec.Daemon = false
	b := NewBinaryBackend(spec, testPaths(t), models.ArchAMD64)

	if err := b.Start(context.Background()); err != nil {
		t.Errorf("non-daemon start should be a no-op, got %v", err)
	}
	if err := b.Stop(context.Background()); err != nil {
		t.Errorf("non-daemon stop should be a no-op, got %v", err)
	}
	if b.IsRunning(context.Background()) {
		t.Error("non-daemon binary must never report running")
	}
}

// Daemon lifecycle against a real detached process: start writes a
// pidfile and leaves the process running in its own session, a second
// start is a no-op, stop terminates it and clears the pidfile.
func TestBinaryDaemonStartStop(t *testing.T) {
	spec := binarySpec(nil)
	spec.Daemon = true
	b := NewBinaryBackend(spec, testPaths(t), models.ArchAMD64)

	if err := os.MkdirAll(b.paths.BinDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	script := "#!/bin/sh\ntrap 'exit 0' TERM\nwhile :; do sleep 1; done\n"
	if err := os.WriteFile(b.binPath(), []byte(script), 0o755); err != nil {
		t.Fatalf("write daemon script: %v", err)
	}

	ctx := context.Background()
	if err := b.Start(ctx); err != nil {
		t.Fatalf("start errored: %v", err)
	}

	pid, err := b.readPid()
	if err != nil {
		t.Fatalf("no pidfile after start: %v", err)
	}
	if !processAlive(pid) {
		t.Fatal("daemon process not alive after start")
	}
	if !b.IsRunning(ctx) {
		t.Error("daemon should report running")
	}

	// Starting a running daemon is a no-op
	if err := b.Start(ctx); err != nil {
		t.Errorf("second start errored: %v", err)
	}
	if again, err := b.readPid(); err != nil || again != pid {
		t.Errorf("second start replaced the pidfile: pid %d vs %d", again, pid)
	}

	if err := b.Stop(ctx); err != nil {
		t.Fatalf("stop errored: %v", err)
	}
	if _, err := os.Stat(b.pidFile()); !os.IsNotExist(err) {
		t.Error("pidfile survived stop")
	}
	if b.IsRunning(ctx) {
		t.Error("daemon should not report running after stop")
	}

	// Stop is idempotent
	if err := b.Stop(ctx); err != nil {
		t.Errorf("second stop errored: %v", err)
	}
}

func TestBinaryDaemonStartRequiresInstall(t *testing.T) {
	spec := binarySpec(nil)
	spec.Daemon = true
	b := NewBinaryBackend(spec, testPaths(t), models.ArchAMD64)

	if err := b.Start(context.Background()); err == nil {
		t.Error("expected error starting an uninstalled daemon")
	}
}

func TestBinaryStopWithoutPidfile(t *testing.T) {
	spec := binarySpec(nil)
	spec.Daemon = true
	b := NewBinaryBackend(spec, testPaths(t), models.ArchAMD64)

	if err := b.Stop(context.Background()); err != nil {
		t.Errorf("stop of never-started daemon errored: %v", err)
	}
}

func TestSanitizePathRejectsEscape(t *testing.T) {
	if _, err := sanitizePath("/tmp/extract", "../outside"); err == nil {
		t.Error("expected path escape to be rejected")
	}
	if _, err := sanitizePath("/tmp/extract", "nested/ok"); err != nil {
		t.Errorf("legitimate nested path rejected: %v", err)
	}
}

func TestFindExecutableNested(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c")
	os.MkdirAll(deep, 0o755)
	os.WriteFile(filepath.Join(deep, "piper"), []byte("bin"), 0o755)

	found, err := findExecutable(root, "piper")
	if err != nil {
		t.Fatalf("findExecutable: %v", err)
	}
	if found != filepath.Join(deep, "piper") {
		t.Errorf("unexpected path %s", found)
	}

	if _, err := findExecutable(root, "absent"); err == nil {
		t.Error("expected error for missing executable")
	}
}
