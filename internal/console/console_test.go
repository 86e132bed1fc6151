package console

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintlnKeepsStatus(t *testing.T) {
	var out, errw bytes.Buffer
	con := NewWithSinks(&out, &errw, true)

	require.NoError(t, con.SetStatus("status-line"))
	require.NoError(t, con.Println("hello"))

	s := out.String()
	// после лог-строки статус нарисован заново
	idx := strings.LastIndex(s, "status-line")
	require.Greater(t, idx, strings.Index(s, "hello"))
	assert.Equal(t, "status-line", con.Status())
}

func TestErrorlnGoesToStderr(t *testing.T) {
	var out, errw bytes.Buffer
	con := NewWithSinks(&out, &errw, true)

	require.NoError(t, con.Errorln("☓ boom"))
	assert.Contains(t, errw.String(), "☓ boom")
	assert.NotContains(t, out.String(), "boom")
}

func TestNoControlSequencesWithoutTTY(t *testing.T) {
	var out, errw bytes.Buffer
	con := NewWithSinks(&out, &errw, false)

	require.NoError(t, con.SetStatus("status"))
	require.NoError(t, con.Println("plain"))

	assert.Equal(t, "plain\n", out.String())
}

// lockedBuffer ловит разорванные записи: Write без внешней сериализации
// через мьютекс консоли провалил бы проверку busy.
type lockedBuffer struct {
	mu   sync.Mutex
	busy bool
	buf  bytes.Buffer
	torn bool
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	if b.busy {
		b.torn = true
	}
	b.busy = true
	b.mu.Unlock()

	n, err := b.buf.Write(p)

	b.mu.Lock()
	b.busy = false
	b.mu.Unlock()
	return n, err
}

func TestConcurrentWritersDoNotInterleave(t *testing.T) {
	sink := &lockedBuffer{}
	con := NewWithSinks(sink, sink, true)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			require.NoError(t, con.Println("log line %03d", i))
		}(i)
		go func(i int) {
			defer wg.Done()
			require.NoError(t, con.SetStatus("status %03d", i))
		}(i)
	}
	wg.Wait()

	assert.False(t, sink.torn, "two writes overlapped")

	// каждая лог-строка попала в вывод целой
	s := sink.buf.String()
	for i := 0; i < n; i++ {
		assert.Contains(t, s, fmt.Sprintf("log line %03d", i))
	}
}

func TestWriterAdapter(t *testing.T) {
	var out, errw bytes.Buffer
	con := NewWithSinks(&out, &errw, false)

	w := con.Writer(true)
	n, err := w.Write([]byte("diag message\n"))
	require.NoError(t, err)
	assert.Equal(t, len("diag message\n"), n)
	assert.Equal(t, "diag message\n", errw.String())
}
