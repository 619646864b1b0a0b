// Package logx is a thin structured-logging facade over zerolog.
//
// It exists so library code can carry a Logger value without importing
// zerolog directly, and so the zero value is always safe to log against.
package logx
