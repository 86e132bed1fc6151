// Package app связывает части клиента: конфигурацию, консоль,
// steam-хелпер с фоновым опросом и цикл соединения с реле.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"example.com/inviter/internal/config"
	"example.com/inviter/internal/console"
	"example.com/inviter/internal/handler"
	"example.com/inviter/internal/relay"
	"example.com/inviter/internal/steam"
)

// Run поднимает всё и крутит супервизор соединения до запроса выхода
// или отмены контекста. Стартовые сбои рисуются в консоль, после чего
// Run возвращается — вызывающий покажет приглашение к выходу.
func Run(ctx context.Context, con *console.Console, version string) error {
	store, err := config.NewStore()
	if err != nil {
		return con.Errorln("☓ %v", err)
	}

	endpoint, custom := store.Endpoint()
	if custom {
		if err := con.Println("✓ Using custom endpoint URL: %s", endpoint); err != nil {
			return err
		}
	}

	clientID, err := store.ClientID()
	if err != nil {
		return con.Errorln("☓ %v", err)
	}

	// Steam — чёрный ящик за процессом-хелпером; без него подключаться
	// к реле бессмысленно
	sc, err := steam.Start(store.HelperPath())
	if err != nil {
		log.Debug().Err(err).Msg("steam helper start failed")
		return con.Errorln("☓ Failed to connect to Steam Client. Please make sure Steam is running.")
	}
	defer sc.Close()

	watchGuests(sc, con)

	// фоновый опрос колбэков Steam — вторая горутина, пишущая в консоль
	poller := steam.NewPoller(sc, steam.DefaultPollInterval)
	poller.Start()
	defer poller.Stop()

	client, err := relay.New(relay.Config{
		Endpoint:  endpoint,
		Version:   version,
		ClientID:  clientID,
		SessionID: uuid.NewString(),
	}, con, handler.New(sc, con))
	if err != nil {
		return con.Errorln("☓ %v", err)
	}

	if err := client.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return con.Errorln("☓ %v", err)
	}
	return nil
}

// watchGuests подписывает консоль на события хелпера: строка в лог на
// вход/выход гостя и счётчик в статусной строке.
func watchGuests(sc *steam.Client, con *console.Console) {
	var mu sync.Mutex
	guests := map[string]struct{}{}

	sc.OnEvent = func(name string, data json.RawMessage) {
		var ev struct {
			Guest string `json:"guest"`
			Name  string `json:"name"`
		}
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Warn().Err(err).Str("event", name).Msg("bad helper event payload")
			return
		}
		label := ev.Name
		if label == "" {
			label = ev.Guest
		}

		mu.Lock()
		switch name {
		case "guestJoined":
			guests[ev.Guest] = struct{}{}
			_ = con.Println("► %s joined the session", label)
		case "guestLeft":
			delete(guests, ev.Guest)
			_ = con.Println("► %s left the session", label)
		default:
			log.Debug().Str("event", name).Msg("unknown helper event")
		}
		n := len(guests)
		mu.Unlock()

		_ = con.SetStatus("● %d guest(s) connected", n)
	}
}
