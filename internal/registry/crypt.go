package registry

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/wutag/wutag/internal/errors"
)

// Cipher wraps snapshot bytes with encryption at rest. Key management lives
// outside the store; the store only sees sealed or plain bytes.
type Cipher interface {
	Seal(plain []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// EnvKey supplies the hex-encoded 256-bit key, taking precedence over the
// configured key file.
const EnvKey = "WUTAG_KEY"

// aesCipher implements Cipher with AES-256-GCM. Sealed form is
// nonce || ciphertext.
type aesCipher struct {
	aead cipher.AEAD
}

// NewAESCipher builds a Cipher from a 32-byte key.
func NewAESCipher(key []byte) (Cipher, error) {
	if len(key) != 32 {
		return nil, errors.EncryptionError("encryption key must be 32 bytes", nil)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.EncryptionError("failed to initialize cipher", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.EncryptionError("failed to initialize cipher", err)
	}
	return &aesCipher{aead: aead}, nil
}

func (c *aesCipher) Seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.EncryptionError("failed to generate nonce", err)
	}
	return c.aead.Seal(nonce, nonce, plain, nil), nil
}

func (c *aesCipher) Open(sealed []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(sealed) < ns {
		return nil, errors.EncryptionError("sealed registry is truncated", nil)
	}
	plain, err := c.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return nil, errors.EncryptionError("failed to decrypt registry (wrong key?)", err)
	}
	return plain, nil
}

// LoadKey reads the encryption key from WUTAG_KEY or the given key file.
// The key is hex-encoded in either source.
func LoadKey(keyFile string) ([]byte, error) {
	encoded := os.Getenv(EnvKey)
	if encoded == "" {
		if keyFile == "" {
			return nil, errors.EncryptionError("encryption enabled but no key configured", nil)
		}
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, errors.EncryptionError("failed to read key file", err)
		}
		encoded = string(data)
	}

	key, err := hex.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, errors.EncryptionError("encryption key is not valid hex", err)
	}
	return key, nil
}
