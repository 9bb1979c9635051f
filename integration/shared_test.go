//go:build basic || database || integration

package integration

import (
	"fmt"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/huangsam/climdash/internal/devserver"
)

var (
	// sharedClimdashPath holds the path to a shared climdash binary built once for all tests.
	sharedClimdashPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getClimdashBinary returns the path to the climdash binary, building it once if needed.
func getClimdashBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "climdash-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		climdashPath := filepath.Join(tempDir, "climdash")
		buildCmd := exec.Command("go", "build", "-o", climdashPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		err = buildCmd.Run()
		if err != nil {
			panic(fmt.Sprintf("failed to build climdash: %v", err))
		}

		sharedClimdashPath = climdashPath
	})

	return sharedClimdashPath
}

// startBackend serves the reference backend for the duration of the test.
func startBackend(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(devserver.New().Router())
	t.Cleanup(srv.Close)
	return srv.URL
}

// runClimdash runs the binary in dir with args and returns its stdout.
func runClimdash(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getClimdashBinary(), args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		stderr := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		t.Logf("Command failed: %s\nStdout: %s\nStderr: %s", cmd.String(), string(out), stderr)
	}
	return string(out), err
}
