// Package retry — пауза между попытками переподключения.
package retry

import "time"

const (
	// DefaultInitial — стартовая пауза переподключения.
	DefaultInitial = 1 * time.Second
	// DefaultMax — потолок паузы.
	DefaultMax = 30 * time.Second
)

// Backoff выдаёт неубывающую последовательность пауз: initial, ×2, ...
// до max. Reset возвращает к initial — вызывается при любом признаке
// живого соединения (успешный коннект, ping, сообщение), чтобы короткий
// обрыв не наследовал длинную паузу от прошлого простоя.
//
// Чистый генератор: без I/O и блокировок; владелец — один цикл
// супервизора, снаружи не трогать.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	next    time.Duration
}

// New — backoff с дефолтными границами.
func New() *Backoff {
	return NewWith(DefaultInitial, DefaultMax)
}

// NewWith — backoff с заданными границами.
func NewWith(initial, max time.Duration) *Backoff {
	if initial <= 0 {
		initial = DefaultInitial
	}
	if max < initial {
		max = initial
	}
	return &Backoff{initial: initial, max: max, next: initial}
}

// Next возвращает текущую паузу и продвигает состояние к потолку.
// Можно звать сколько угодно — за max не уйдёт.
func (b *Backoff) Next() time.Duration {
	d := b.next
	if b.next < b.max {
		b.next *= 2
		if b.next > b.max {
			b.next = b.max
		}
	}
	return d
}

// Reset сбрасывает паузу к начальной.
func (b *Backoff) Reset() {
	b.next = b.initial
}
