// Package config — дисковая конфигурация клиента: переопределение
// endpoint'а и постоянный идентификатор клиента. Файлы лежат рядом
// с исполняемым файлом.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEndpoint — встроенный адрес реле.
const DefaultEndpoint = "wss://relay.playinviter.net"

const (
	clientFile = "client.yaml"
	envFile    = ".env"
	envKey     = "ENDPOINT_URL"
	helperKey  = "STEAM_HELPER"
)

// clientConfig — содержимое client.yaml.
type clientConfig struct {
	UUID string `yaml:"uuid"`
}

// Store читает и создаёт конфигурацию в заданном каталоге.
type Store struct {
	dir string
}

// NewStore — каталог исполняемого файла.
func NewStore() (*Store, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	return &Store{dir: filepath.Dir(exe)}, nil
}

// NewStoreAt — произвольный каталог (тесты).
func NewStoreAt(dir string) *Store {
	return &Store{dir: dir}
}

// Endpoint возвращает адрес реле и признак, что он переопределён
// оператором (.env рядом с бинарём или переменная окружения).
func (s *Store) Endpoint() (string, bool) {
	_ = godotenv.Load(filepath.Join(s.dir, envFile))
	if v := os.Getenv(envKey); v != "" {
		return v, true
	}
	return DefaultEndpoint, false
}

// ClientID читает постоянный идентификатор клиента, создавая его при
// первом запуске. Ошибка фатальна для старта.
func (s *Store) ClientID() (string, error) {
	path := filepath.Join(s.dir, clientFile)

	b, err := os.ReadFile(path)
	if err == nil {
		var cfg clientConfig
		if uerr := yaml.Unmarshal(b, &cfg); uerr != nil {
			return "", fmt.Errorf("failed to parse %s: %w", clientFile, uerr)
		}
		if cfg.UUID == "" {
			return "", fmt.Errorf("%s has no uuid", clientFile)
		}
		return cfg.UUID, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read %s: %w", clientFile, err)
	}

	// первый запуск — генерируем и сохраняем
	cfg := clientConfig{UUID: uuid.NewString()}
	out, err := yaml.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", clientFile, err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", clientFile, err)
	}
	return cfg.UUID, nil
}

// HelperPath — путь к внешнему steam-хелперу: переменная окружения
// STEAM_HELPER либо бинарь рядом с клиентом.
func (s *Store) HelperPath() string {
	if v := os.Getenv(helperKey); v != "" {
		return v
	}
	name := "steam-helper"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(s.dir, name)
}
