package secrets

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// KeyringStore backs Store with the operating system keyring.
type KeyringStore struct {
	serviceName string
}

// NewKeyringStore returns a KeyringStore under the given service name,
// defaulting to ServiceName.
func NewKeyringStore(serviceName string) *KeyringStore {
	if serviceName == "" {
		serviceName = ServiceName
	}
	return &KeyringStore{serviceName: serviceName}
}

func (k *KeyringStore) GetPassword(world string) (string, error) {
	password, err := keyring.Get(k.serviceName, world)
	if err == nil {
		return password, nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return "", err
}

func (k *KeyringStore) SetPassword(world, password string) error {
	return keyring.Set(k.serviceName, world, password)
}

func (k *KeyringStore) DeletePassword(world string) error {
	err := keyring.Delete(k.serviceName, world)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
