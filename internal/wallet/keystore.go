package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/scrypt"
)

// ErrKeyAbsent is returned by Load when a credential has never been saved.
// Callers must treat it as "no wallet configured", never as a zero value.
var ErrKeyAbsent = errors.New("credential not found in keystore")

const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// keystoreFile is the on-disk envelope. Payload is the AES-256-GCM
// ciphertext of a JSON map of credential name -> value.
type keystoreFile struct {
	Version    int    `json:"version"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// Keystore is an encrypted-at-rest key-value store for the relay's
// credentials. It holds opaque string secrets keyed by name; the mnemonic
// itself is never stored, only the derived address and private key.
type Keystore struct {
	path     string
	password []byte

	mu sync.Mutex
}

// NewKeystore opens a keystore at path. The file is created on first Save.
// The password slice is copied; the caller should zero its own copy.
func NewKeystore(path string, password []byte) *Keystore {
	pw := make([]byte, len(password))
	copy(pw, password)
	return &Keystore{path: path, password: pw}
}

// Save persists a credential, overwriting any previous value for the key.
func (k *Keystore) Save(key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	creds, err := k.readAll()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if creds == nil {
		creds = make(map[string]string)
	}
	creds[key] = value

	return k.writeAll(creds)
}

// Load returns the stored value for key, or ErrKeyAbsent if the key was
// never saved (including when the keystore file does not exist yet).
func (k *Keystore) Load(key string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	creds, err := k.readAll()
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrKeyAbsent
	}
	if err != nil {
		return "", err
	}

	v, ok := creds[key]
	if !ok {
		return "", ErrKeyAbsent
	}
	return v, nil
}

func (k *Keystore) readAll() (map[string]string, error) {
	data, err := os.ReadFile(k.path)
	if err != nil {
		return nil, err
	}

	var f keystoreFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse keystore file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(f.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(f.Nonce)
	if err != nil {
		return nil, fmt.Errorf("decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(f.CipherText)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}

	aesGCM, err := k.cipherFor(salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: wrong password or corrupt file: %w", err)
	}
	defer clear(plaintext)

	var creds map[string]string
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return creds, nil
}

func (k *Keystore) writeAll(creds map[string]string) error {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	aesGCM, err := k.cipherFor(salt)
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	defer clear(plaintext)

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	f := keystoreFile{
		Version:    1,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal keystore file: %w", err)
	}

	if err := os.WriteFile(k.path, data, 0o600); err != nil {
		return fmt.Errorf("write keystore file: %w", err)
	}
	return nil
}

func (k *Keystore) cipherFor(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(k.password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("derive file key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return aesGCM, nil
}
