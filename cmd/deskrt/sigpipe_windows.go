//go:build windows

package main

// ignoreSIGPIPE is a no-op on Windows: there is no SIGPIPE equivalent to
// ignore (spec §6.4 is POSIX-only).
func ignoreSIGPIPE() {}
