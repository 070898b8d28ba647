//go:build windows

package cmd

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/windows/registry"
)

const (
	runKeyPath  = `Software\Microsoft\Windows\CurrentVersion\Run`
	runValueKey = "padlink"
)

// autorunEntry is the padlink value under the user's Run key.
type autorunEntry struct {
	Exe  string
	Mode string
}

func (e autorunEntry) String() string {
	return `"` + e.Exe + `" ` + e.Mode
}

// parseAutorunEntry splits a Run value into executable and mode. The
// executable may be quoted.
func parseAutorunEntry(val string) (autorunEntry, bool) {
	val = strings.TrimSpace(val)
	var exe, rest string
	if unq, ok := strings.CutPrefix(val, `"`); ok {
		var found bool
		exe, rest, found = strings.Cut(unq, `"`)
		if !found {
			return autorunEntry{}, false
		}
	} else {
		exe, rest, _ = strings.Cut(val, " ")
	}
	if exe == "" {
		return autorunEntry{}, false
	}
	return autorunEntry{Exe: filepath.Clean(exe), Mode: strings.TrimSpace(rest)}, true
}

func install(mode string, logger *slog.Logger) error {
	exePath, err := currentExecutable()
	if err != nil {
		return err
	}

	previous, hadPrevious, err := readAutorunEntry()
	if err != nil {
		return err
	}

	key, _, err := registry.CreateKey(registry.CURRENT_USER, runKeyPath, registry.ALL_ACCESS)
	if err != nil {
		return err
	}
	defer key.Close()

	entry := autorunEntry{Exe: exePath, Mode: mode}
	if err := key.SetStringValue(runValueKey, entry.String()); err != nil {
		return err
	}

	if hadPrevious {
		logger.Debug("replacing autorun entry", "exe", previous.Exe, "mode", previous.Mode)
		if err := stopInstances(previous.Exe, logger); err != nil {
			return fmt.Errorf("failed to stop previous autorun instance: %w", err)
		}
	}

	if err := exec.Command(exePath, mode).Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", mode, err)
	}

	logger.Info("padlink registered for Windows autorun", "exe", exePath, "mode", mode)
	return nil
}

func uninstall(logger *slog.Logger) error {
	entry, found, err := readAutorunEntry()
	if err != nil {
		return err
	}
	if !found {
		logger.Info("no padlink autorun entry registered")
		return nil
	}

	key, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer key.Close()
	if err := key.DeleteValue(runValueKey); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return err
	}

	if err := stopInstances(entry.Exe, logger); err != nil {
		return fmt.Errorf("failed to stop autorun instance: %w", err)
	}
	logger.Info("padlink autorun entry removed", "mode", entry.Mode)
	return nil
}

func readAutorunEntry() (autorunEntry, bool, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.QUERY_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return autorunEntry{}, false, nil
	}
	if err != nil {
		return autorunEntry{}, false, err
	}
	defer key.Close()

	val, _, err := key.GetStringValue(runValueKey)
	if errors.Is(err, registry.ErrNotExist) {
		return autorunEntry{}, false, nil
	}
	if err != nil {
		return autorunEntry{}, false, err
	}
	entry, ok := parseAutorunEntry(val)
	return entry, ok, nil
}

// stopInstances kills running processes started from exe, except this one.
func stopInstances(exe string, logger *slog.Logger) error {
	script := fmt.Sprintf(
		"$ErrorActionPreference='SilentlyContinue';Get-CimInstance Win32_Process | Where-Object { $_.ExecutablePath -eq '%s' } | Select-Object -ExpandProperty ProcessId",
		strings.ReplaceAll(exe, "'", "''"),
	)
	output, err := exec.Command("powershell", "-NoProfile", "-Command", script).CombinedOutput()
	if err != nil {
		return fmt.Errorf("process query failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	self := os.Getpid()
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		pid, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || pid == self {
			continue
		}
		if out, err := exec.Command("taskkill", "/PID", strconv.Itoa(pid), "/T", "/F").CombinedOutput(); err != nil {
			return fmt.Errorf("taskkill pid %d failed: %w: %s", pid, err, strings.TrimSpace(string(out)))
		}
		logger.Info("stopped padlink instance", "pid", pid)
	}
	return scanner.Err()
}
