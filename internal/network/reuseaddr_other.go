//go:build !unix && !windows

package network

import "syscall"

func reuseAddrControl(_, _ string, _ syscall.RawConn) error { return nil }
