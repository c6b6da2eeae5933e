// Package process terminates browser process trees left behind by a
// conversion and reports whether a process is still alive.
package process
