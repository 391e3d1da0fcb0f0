package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	serverBinary       = "mediadl-server"
	serverBinaryEnv    = "MEDIADL_SERVER_BIN"
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

var errServerStopping = errors.New("server is shutting down")

// serverState probes /ready. A server that answers but refuses work is draining.
func serverState() (up bool, err error) {
	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get(serverURL + "/ready")
	if err != nil {
		return false, nil
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusServiceUnavailable {
		return true, errServerStopping
	}
	return resp.StatusCode == http.StatusOK, nil
}

// isLocalServer reports whether serverURL points at this machine. Remote servers
// are never auto-started.
func isLocalServer(server string) bool {
	u, err := url.Parse(server)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// findServerBinary looks in $MEDIADL_SERVER_BIN, next to the CLI, then on PATH
func findServerBinary() (string, error) {
	if p := os.Getenv(serverBinaryEnv); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s: %w", serverBinaryEnv, err)
		}
		return p, nil
	}

	if execPath, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(execPath), serverBinary)
		if _, err := os.Stat(sibling); err == nil {
			return sibling, nil
		}
	}

	if p, err := exec.LookPath(serverBinary); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%s binary not found (set %s)", serverBinary, serverBinaryEnv)
}

// launchServer starts the server in server mode, detached from this terminal
func launchServer() error {
	serverPath, err := findServerBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(serverPath, "-server-mode")
	detachProcess(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", serverPath, err)
	}
	go cmd.Wait()
	return nil
}

func waitForServer(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, serverStartTimeout)
	defer cancel()

	ticker := time.NewTicker(serverPollInterval)
	defer ticker.Stop()
	for {
		if up, _ := serverState(); up {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("server did not become ready within %v", serverStartTimeout)
		case <-ticker.C:
		}
	}
}

// ensureServerRunning starts a local server when none answers
func ensureServerRunning(ctx context.Context) error {
	up, err := serverState()
	if err != nil {
		return err
	}
	if up {
		return nil
	}
	if !isLocalServer(serverURL) {
		return fmt.Errorf("no server answering at %s", serverURL)
	}

	fmt.Fprintln(os.Stderr, "Server not running, starting...")
	if err := launchServer(); err != nil {
		return err
	}
	if err := waitForServer(ctx); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Server started")
	return nil
}
