package security

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"golang.org/x/crypto/chacha20poly1305"
)

// File names inside the metrics directory.
const (
	keyFileName     = ".key"
	secretsFileName = ".config"
)

// ErrDecryptionFailed indicates a stored value could not be opened with the current key.
var ErrDecryptionFailed = errors.New("decryption failed: key mismatch or tampered data")

// SecretStore keeps provider API keys encrypted at rest. Environment variables
// named <PROVIDER>_API_KEY take priority over stored values.
type SecretStore struct {
	dir    string
	getenv func(string) string

	mu sync.Mutex
}

// NewSecretStore creates a store rooted at dir (usually ~/.ai_metrics).
func NewSecretStore(dir string) *SecretStore {
	return &SecretStore{dir: dir, getenv: os.Getenv}
}

func (s *SecretStore) keyPath() string     { return filepath.Join(s.dir, keyFileName) }
func (s *SecretStore) secretsPath() string { return filepath.Join(s.dir, secretsFileName) }

// ensureKey loads the master key, generating it on first use.
func (s *SecretStore) ensureKey() ([]byte, error) {
	key, err := os.ReadFile(s.keyPath())
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("key file %s has %d bytes, expected %d", s.keyPath(), len(key), chacha20poly1305.KeySize)
		}
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create secrets directory: %w", err)
	}
	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	if err := os.WriteFile(s.keyPath(), key, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return key, nil
}

func (s *SecretStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.secretsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets: %w", err)
	}
	secrets := map[string]string{}
	if err := json.Unmarshal(data, &secrets); err != nil {
		// an unreadable secrets file behaves like an empty one
		contract.LogWarn("Ignoring unreadable secrets file", err)
		return map[string]string{}, nil
	}
	return secrets, nil
}

func (s *SecretStore) save(secrets map[string]string) error {
	data, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.secretsPath(), data, 0o600)
}

// Set encrypts and stores the API key for a provider.
func (s *SecretStore) Set(provider, apiKey string) error {
	provider = normalizeProvider(provider)
	if provider == "" {
		return errors.New("provider name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := s.ensureKey()
	if err != nil {
		return err
	}
	sealed, err := seal(key, []byte(apiKey))
	if err != nil {
		return err
	}
	secrets, err := s.load()
	if err != nil {
		return err
	}
	secrets[provider] = sealed
	return s.save(secrets)
}

// Get returns the API key for a provider from the environment or the store.
func (s *SecretStore) Get(provider string) (string, error) {
	provider = normalizeProvider(provider)
	if v := s.getenv(contract.SecretEnvVar(provider)); v != "" {
		return v, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	secrets, err := s.load()
	if err != nil {
		return "", err
	}
	sealed, ok := secrets[provider]
	if !ok {
		return "", &contract.MissingSecretError{Provider: provider}
	}
	key, err := s.ensureKey()
	if err != nil {
		return "", err
	}
	plain, err := open(key, sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt key for %s: %w", provider, err)
	}
	return string(plain), nil
}

// Delete removes a stored provider key. Missing entries are not an error.
func (s *SecretStore) Delete(provider string) error {
	provider = normalizeProvider(provider)
	s.mu.Lock()
	defer s.mu.Unlock()

	secrets, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := secrets[provider]; !ok {
		return nil
	}
	delete(secrets, provider)
	return s.save(secrets)
}

// Providers lists providers with a stored key, sorted.
func (s *SecretStore) Providers() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	secrets, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(secrets))
	for p := range secrets {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

// seal encrypts plaintext into base64(nonce|ciphertext).
func seal(key, plaintext []byte) (string, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", fmt.Errorf("failed to initialize cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(aead.Seal(nonce, nonce, plaintext, nil)), nil
}

// open reverses seal.
func open(key []byte, encoded string) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	if len(data) < aead.NonceSize() {
		return nil, ErrDecryptionFailed
	}
	plain, err := aead.Open(nil, data[:aead.NonceSize()], data[aead.NonceSize():], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plain, nil
}
