// Package steam — внешняя способность автоматизации Steam. Сам Steam
// для клиента чёрный ящик: с ним говорит отдельный процесс-хелпер,
// а здесь живут интерфейс Controller, IPC-клиент хелпера и фоновый
// опросчик колбэков.
package steam

import (
	"context"
	"sync"
	"time"
)

// Controller — операции, которые нужны обработчику сообщений и
// фоновому опросу. Реализация по умолчанию — Client (процесс-хелпер).
type Controller interface {
	// RunCallbacks раздаёт накопившиеся события Steam подписчикам.
	// Зовётся периодически из Poller.
	RunCallbacks()
	// CreateInvite выпускает ссылку-приглашение Remote Play для гостя.
	CreateInvite(ctx context.Context, guestID string) (string, error)
	// CancelInvite отзывает ранее выпущенное приглашение.
	CancelInvite(ctx context.Context, guestID string) error
	Close() error
}

// DefaultPollInterval — период опроса колбэков Steam.
const DefaultPollInterval = 200 * time.Millisecond

// Poller периодически дёргает RunCallbacks до остановки. Живёт всё
// время процесса и выполняется независимо от цикла соединения.
type Poller struct {
	c        Controller
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewPoller(c Controller, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{c: c, interval: interval}
}

// Start запускает фоновый опрос. Повторный Start — no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		t := time.NewTicker(p.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				p.c.RunCallbacks()
			case <-p.stopCh:
				return
			}
		}
	}()
}

// Stop останавливает опрос и дожидается горутины.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()
	p.wg.Wait()
}
