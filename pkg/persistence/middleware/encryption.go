package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/persistence"
	"github.com/aretw0/journey/pkg/ports"
)

// keyInfo separates the session-state key from other keys derived from the same secret.
const keyInfo = "journey session state v1"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// DeriveKey turns a session secret of any length into an AES-256 key with HKDF-SHA256.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// ConfigFromSecrets derives an EncryptionConfig from the active secret and retired ones.
func ConfigFromSecrets(active string, fallbacks ...string) (EncryptionConfig, error) {
	key, err := DeriveKey(active)
	if err != nil {
		return EncryptionConfig{}, err
	}
	cfg := EncryptionConfig{ActiveKey: key}
	for _, s := range fallbacks {
		k, err := DeriveKey(s)
		if err != nil {
			return EncryptionConfig{}, err
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, k)
	}
	return cfg, nil
}

type encryptionMiddleware struct {
	next   ports.StateStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts state using AES-GCM (Envelope Encryption).
// The ciphertext is bound to the session ID, so an envelope copied to another session does not decrypt.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.StateStore) ports.StateStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, sessionID string, state *domain.JourneyState) error {
	plainText, err := persistence.Marshal(state)
	if err != nil {
		return err
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey, []byte(sessionID))
	if err != nil {
		return fmt.Errorf("failed to encrypt state: %w", err)
	}

	// The envelope hides progress and values; only identity and timestamps stay visible.
	envelope := &domain.JourneyState{
		Version:   state.Version,
		SessionID: state.SessionID,
		Values: map[string]any{
			domain.KeyEncrypted: base64.StdEncoding.EncodeToString(ciphertext),
		},
		CreatedAt: state.CreatedAt,
		UpdatedAt: state.UpdatedAt,
	}

	return m.next.Save(ctx, sessionID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) (*domain.JourneyState, error) {
	envelope, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	encryptedStr, ok := envelope.Values[domain.KeyEncrypted].(string)
	if !ok {
		// Fail secure: with encryption configured, plain states are not accepted.
		return nil, errors.New("state is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, []byte(sessionID), m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt state: %w", err)
	}

	return persistence.Unmarshal(plainText)
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext, key, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, aad), nil
}

func decryptWithRotation(ciphertext, aad, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey, aad); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key, aad); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext, key, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], aad)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Unwrap implements ports.Wrapper.
func (m *encryptionMiddleware) Unwrap() ports.StateStore {
	return m.next
}
