package main

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
)

var errAborted = errors.New("aborted by user")

// confirmRemoteHost refuses to touch a database that does not look local
// unless allow is set and the operator types the host name back.
func confirmRemoteHost(cmdCtx *commandContext, host string, allow bool, action string) error {
	if !isLikelyRemoteHost(host) {
		return nil
	}
	if !allow {
		return fmt.Errorf("database host %q may be remote; re-run with --allow-remote to %s there", host, action)
	}

	prompt := fmt.Sprintf("\nDatabase host %q does not look local. About to %s.\nType the host name to continue: ", host, action)
	if err := writef(cmdCtx.ErrOut, "%s", prompt); err != nil {
		return fmt.Errorf("write confirmation prompt: %w", err)
	}
	line, err := bufio.NewReader(cmdCtx.In).ReadString('\n')
	if err != nil && line == "" {
		return errAborted
	}
	if strings.TrimSpace(line) != host {
		_ = writef(cmdCtx.ErrOut, "host did not match, nothing changed\n")
		return errAborted
	}
	return nil
}

func isLikelyRemoteHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	switch {
	case h == "", h == "localhost", strings.HasSuffix(h, ".local"), strings.HasSuffix(h, ".localhost"):
		return false
	}
	if ip := net.ParseIP(h); ip != nil {
		return !ip.IsLoopback()
	}
	return true
}
