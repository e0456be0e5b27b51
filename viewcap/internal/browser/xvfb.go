package browser

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// xvfb is a virtual X display for headful runs on machines without one.
type xvfb struct {
	display string
	logger  *slog.Logger
	cmd     *exec.Cmd
}

func (x *xvfb) start() error {
	if x.cmd != nil {
		return nil
	}
	cmd := exec.Command("Xvfb", x.display, "-screen", "0", "1920x1080x24", "-ac")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start xvfb: %w", err)
	}
	x.cmd = cmd

	// Xvfb needs a moment before clients can connect.
	time.Sleep(500 * time.Millisecond)

	x.logger.Info("browser: xvfb started", "display", x.display, "pid", cmd.Process.Pid)
	return nil
}

// stop is safe on a nil receiver.
func (x *xvfb) stop() {
	if x == nil || x.cmd == nil {
		return
	}
	if x.cmd.Process != nil {
		x.cmd.Process.Kill()
		x.cmd.Wait()
	}
	x.logger.Info("browser: xvfb stopped")
	x.cmd = nil
}

// env returns the process environment with DISPLAY pointed at x, or nil
// when there is no virtual display.
func (x *xvfb) env() map[string]string {
	if x == nil {
		return nil
	}
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	env["DISPLAY"] = x.display
	return env
}
