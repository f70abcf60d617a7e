//go:build unix

// Package rlimit best-effort raises the process's open-file limit to
// accommodate max_concurrent_connections x 2 sockets, per spec.md §5.
//
// Generalizes original_source/src/util.rs::try_raise_nofile_limit (which
// the teacher never carried — Ealireza-SuperProxy has no equivalent) to
// all unix-family targets rather than gating it to macOS only.
package rlimit

import "golang.org/x/sys/unix"

// Status reports the outcome of a raise attempt.
type Status struct {
	Attempted  bool
	Raised     bool
	SoftBefore uint64
	HardBefore uint64
	SoftAfter  uint64
	HardAfter  uint64
	Err        error
}

// Raise attempts to raise RLIMIT_NOFILE's soft limit to at least want.
func Raise(want int64) Status {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
		return Status{Attempted: true, Err: err}
	}

	st := Status{Attempted: true, SoftBefore: lim.Cur, HardBefore: lim.Max}

	newLim := lim
	if int64(newLim.Cur) < want {
		newLim.Cur = uint64(want)
	}
	if newLim.Max < newLim.Cur {
		newLim.Max = newLim.Cur
	}

	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &newLim); err != nil {
		st.Err = err
		return st
	}

	var after unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &after); err == nil {
		st.Raised = true
		st.SoftAfter = after.Cur
		st.HardAfter = after.Max
	}
	return st
}
