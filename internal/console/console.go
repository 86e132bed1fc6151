package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// очистка текущей строки терминала + возврат каретки
const clearSeq = "\x1b[2K\r"

// Console сериализует весь вывод в терминал: обычные лог-строки и
// "прилипшую" статусную строку внизу. Любая горутина может писать
// конкурентно — порядок даёт мьютекс, порча вывода исключена.
type Console struct {
	mu   sync.Mutex
	out  io.Writer
	errw io.Writer
	tty  bool
	line string // текущая статусная строка (под mu)
}

// New — консоль поверх stdout/stderr процесса.
func New() *Console {
	tty := term.IsTerminal(int(os.Stdout.Fd()))
	if tty {
		enableVT()
	}
	return &Console{out: os.Stdout, errw: os.Stderr, tty: tty}
}

// NewWithSinks — консоль поверх произвольных writer'ов (тесты).
func NewWithSinks(out, errw io.Writer, tty bool) *Console {
	return &Console{out: out, errw: errw, tty: tty}
}

// SetStatus сохраняет статусную строку и сразу перерисовывает её.
func (c *Console) SetStatus(format string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.line = fmt.Sprintf(format, args...)
	return c.render()
}

// Println выводит лог-строку в stdout и возвращает статус на место.
func (c *Console) Println(format string, args ...any) error {
	return c.writeLine(c.out, fmt.Sprintf(format, args...))
}

// Errorln — то же, но в stderr.
func (c *Console) Errorln(format string, args ...any) error {
	return c.writeLine(c.errw, fmt.Sprintf(format, args...))
}

// Block выводит многострочный блок (баннер, уведомление) как одну
// неделимую единицу.
func (c *Console) Block(text string) error {
	return c.writeLine(c.out, strings.TrimRight(text, "\n"))
}

// writeLine — общий путь: очистить строку, напечатать текст с переводом
// строки, перерисовать статус. Всё под одним захватом мьютекса, чтобы
// две конкурирующие записи не перемешались.
func (c *Console) writeLine(w io.Writer, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.clearLine(w); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, text); err != nil {
		return fmt.Errorf("failed to update output (write): %w", err)
	}
	return c.render()
}

// clearLine — низкоуровневый примитив: только очистка текущей строки.
func (c *Console) clearLine(w io.Writer) error {
	if !c.tty {
		return nil
	}
	if _, err := io.WriteString(w, clearSeq); err != nil {
		return fmt.Errorf("failed to update output (clear line): %w", err)
	}
	return nil
}

// render перерисовывает статусную строку (вызывать только под mu).
// Каретка остаётся в нулевой колонке, чтобы следующая лог-строка
// затёрла статус и нарисовала его заново ниже.
func (c *Console) render() error {
	if !c.tty || c.line == "" {
		return nil
	}
	if _, err := io.WriteString(c.out, clearSeq+c.line+"\r"); err != nil {
		return fmt.Errorf("failed to update output (status): %w", err)
	}
	return nil
}

// Status возвращает текущую статусную строку.
func (c *Console) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.line
}

// Writer — адаптер io.Writer для сторонних логгеров (zerolog и т.п.):
// каждый Write проходит тем же путём, что и Println, и не ломает статус.
func (c *Console) Writer(stderr bool) io.Writer {
	return sink{c: c, stderr: stderr}
}

type sink struct {
	c      *Console
	stderr bool
}

func (s sink) Write(p []byte) (int, error) {
	w := s.c.out
	if s.stderr {
		w = s.c.errw
	}
	if err := s.c.writeLine(w, strings.TrimRight(string(p), "\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}
