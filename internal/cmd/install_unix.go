//go:build !windows

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const unitName = "padlink.service"

// unitPath returns where the systemd unit goes. Root installs a system unit,
// everyone else a user unit.
func unitPath() (path string, user bool, err error) {
	if os.Geteuid() == 0 {
		return filepath.Join(string(os.PathSeparator), "etc", "systemd", "system", unitName), false, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", true, err
	}
	return filepath.Join(dir, "systemd", "user", unitName), true, nil
}

func renderUnit(exe, mode string, user bool) string {
	target := "multi-user.target"
	if user {
		target = "default.target"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[Unit]\n")
	fmt.Fprintf(&b, "Description=padlink %s\n", mode)
	fmt.Fprintf(&b, "Wants=network-online.target\n")
	fmt.Fprintf(&b, "After=network-online.target\n\n")
	fmt.Fprintf(&b, "[Service]\n")
	fmt.Fprintf(&b, "ExecStart=%q %s\n", exe, mode)
	fmt.Fprintf(&b, "Restart=on-failure\n")
	fmt.Fprintf(&b, "RestartSec=2\n\n")
	fmt.Fprintf(&b, "[Install]\n")
	fmt.Fprintf(&b, "WantedBy=%s\n", target)
	return b.String()
}

func install(mode string, logger *slog.Logger) error {
	exePath, err := currentExecutable()
	if err != nil {
		return err
	}
	path, user, err := unitPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(renderUnit(exePath, mode, user)), 0o644); err != nil {
		return fmt.Errorf("failed to write unit: %w", err)
	}
	if err := systemctl(user, "daemon-reload"); err != nil {
		return err
	}
	if err := systemctl(user, "enable", "--now", unitName); err != nil {
		return err
	}

	logger.Info("padlink install completed for systemd", "unit", path, "exe", exePath, "mode", mode)
	return nil
}

func uninstall(logger *slog.Logger) error {
	path, user, err := unitPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info("padlink is not installed", "unit", path)
		return nil
	}

	if err := systemctl(user, "disable", "--now", unitName); err != nil {
		logger.Warn("failed to disable unit", "error", err)
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	if err := systemctl(user, "daemon-reload"); err != nil {
		return err
	}

	logger.Info("padlink systemd unit removed", "unit", path)
	return nil
}

func systemctl(user bool, args ...string) error {
	if user {
		args = append([]string{"--user"}, args...)
	}
	output, err := exec.Command("systemctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}
