//go:build windows

package console

import "golang.org/x/sys/windows"

// enableVT включает обработку ANSI-последовательностей в консоли Windows,
// иначе clearSeq печатается как мусор.
func enableVT() {
	h, err := windows.GetStdHandle(windows.STD_OUTPUT_HANDLE)
	if err != nil {
		return
	}
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return
	}
	_ = windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
}
