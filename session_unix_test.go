//go:build !windows

package wikipdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-wikipdf/internal/process"
)

// writeHangingBrowser writes an executable that records its pid and then
// sleeps without ever printing a DevTools URL.
func writeHangingBrowser(t *testing.T) (bin, pidFile string) {
	t.Helper()
	dir := t.TempDir()
	bin = filepath.Join(dir, "chrome")
	pidFile = filepath.Join(dir, "chrome.pid")
	script := fmt.Sprintf("#!/bin/sh\necho $$ > %q\nexec sleep 300\n", pidFile)
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil { // #nosec G306 -- test executable
		t.Fatal(err)
	}
	return bin, pidFile
}

// readPID returns the pid recorded by the fake browser, or 0 when it never
// got as far as running.
func readPID(pidFile string, wait time.Duration) int {
	deadline := time.Now().Add(wait)
	for {
		data, err := os.ReadFile(pidFile) // #nosec G304 -- test temp file
		if err == nil {
			if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid > 0 {
				return pid
			}
		}
		if time.Now().After(deadline) {
			return 0
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// assertExited waits for pid to disappear.
func assertExited(t *testing.T, pid int) {
	t.Helper()
	if pid == 0 {
		return
	}
	deadline := time.Now().Add(5 * time.Second)
	for process.IsRunning(pid) && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if process.IsRunning(pid) {
		process.KillProcessGroup(pid)
		t.Errorf("browser process %d still running", pid)
	}
}

func TestOpenRodSession_LaunchTimeout(t *testing.T) {
	t.Parallel()

	bin, pidFile := writeHangingBrowser(t)
	const launchTimeout = 2 * time.Second

	start := time.Now()
	sess, err := openRodSession(context.Background(), bin, launchTimeout)
	elapsed := time.Since(start)

	if sess != nil {
		t.Error("openRodSession() returned a session for a browser that never answered")
	}
	if !errors.Is(err, ErrEngineLaunch) {
		t.Fatalf("openRodSession() error = %v, want ErrEngineLaunch", err)
	}
	if !strings.Contains(err.Error(), launchTimeout.String()) {
		t.Errorf("error %q does not state the timeout", err)
	}
	if limit := launchTimeout + launchDrainTimeout + 5*time.Second; elapsed > limit {
		t.Errorf("openRodSession() took %v, want under %v", elapsed, limit)
	}

	pid := readPID(pidFile, time.Second)
	if pid == 0 {
		t.Fatal("fake browser never started within the launch timeout")
	}
	assertExited(t, pid)
}

func TestOpenRodSession_CanceledDuringLaunch(t *testing.T) {
	t.Parallel()

	bin, pidFile := writeHangingBrowser(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Cancel once the browser is up, or after 5s regardless.
	go func() {
		readPID(pidFile, 5*time.Second)
		cancel()
	}()

	_, err := openRodSession(ctx, bin, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("openRodSession() error = %v, want context.Canceled", err)
	}

	assertExited(t, readPID(pidFile, time.Second))
}
