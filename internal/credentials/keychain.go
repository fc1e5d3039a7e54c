package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	keychainService = "eventpix-credentials"
	keychainAccount = "eventpix"

	// exit status of `security` when the item does not exist
	keychainItemNotFound = 44
)

// commandRunner runs a command and returns its stdout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// KeychainStore keeps the pair in the macOS login keychain as a single
// generic password holding the JSON-encoded credentials.
type KeychainStore struct {
	service string
	account string
	run     commandRunner
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{
		service: keychainService,
		account: keychainAccount,
		run:     execRunner,
	}
}

func (k *KeychainStore) Get(ctx context.Context) (*Credentials, error) {
	output, err := k.run(ctx, "security", "find-generic-password", "-s", k.service, "-w")
	if err != nil {
		if isKeychainNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve password from Keychain: %w", err)
	}

	var c Credentials
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(output))), &c); err != nil {
		return nil, fmt.Errorf("failed to parse JSON from keychain: %w", err)
	}
	return normalize(c), nil
}

func (k *KeychainStore) Set(ctx context.Context, creds Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// -U updates the item in place when it already exists
	if _, err := k.run(ctx, "security", "add-generic-password",
		"-s", k.service, "-a", k.account, "-w", string(data), "-U"); err != nil {
		return fmt.Errorf("failed to update keychain: %w", err)
	}
	return nil
}

func (k *KeychainStore) Clear(ctx context.Context) error {
	if _, err := k.run(ctx, "security", "delete-generic-password", "-s", k.service); err != nil {
		if isKeychainNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete keychain item: %w", err)
	}
	return nil
}

func isKeychainNotFound(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == keychainItemNotFound
}
