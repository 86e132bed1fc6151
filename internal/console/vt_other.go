//go:build !windows

package console

// на юниксах терминал понимает ANSI сам
func enableVT() {}
