// Package browser — открытие ссылки в браузере по умолчанию.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Open запускает системный открыватель URL. Вызывающие обычно игнорируют
// ошибку — ссылка всё равно напечатана в консоль.
func Open(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
