// Package netutil picks the address the runner API listens on.
package netutil

import (
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
)

// Listen binds the preferred address, or with autoFallback the first free
// candidate. Holding the listener avoids losing the port between picking it
// and serving on it.
func Listen(preferred string, candidates []string, autoFallback bool) (net.Listener, error) {
	var tried []string
	if preferred != "" {
		ln, err := net.Listen("tcp", preferred)
		if err == nil {
			return ln, nil
		}
		if !autoFallback {
			return nil, failure.Validation(fmt.Sprintf("preferred bind address in use: %s", preferred))
		}
		slog.Warn("preferred bind address unavailable, trying fallbacks", "addr", preferred, "error", err)
		tried = append(tried, preferred)
	}

	for _, addr := range candidates {
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, nil
		}
		tried = append(tried, addr)
	}
	return nil, failure.Validation("no available API bind addresses (tried " + strings.Join(tried, ", ") + ")")
}

// SelectBindAddr reports the address Listen would bind without keeping it.
func SelectBindAddr(preferred string, candidates []string, autoFallback bool) (string, error) {
	ln, err := Listen(preferred, candidates, autoFallback)
	if err != nil {
		return "", err
	}
	addr := ln.Addr().String()
	if err := ln.Close(); err != nil {
		return "", err
	}
	return addr, nil
}
