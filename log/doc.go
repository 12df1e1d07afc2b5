// Package log provides the leveled printf-style logging used across the
// pipeline engine and checkpoint stores.
//
// Components take a Logger; the package-level Default logger backs anything
// not configured explicitly. StdLogger writes through the standard library,
// GologLogger adapts kataras/golog for applications already using it, and
// Nop silences a component entirely.
package log
