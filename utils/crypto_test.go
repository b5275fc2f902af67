package utils

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingPayload struct {
	WorkerID    uint     `json:"worker_id"`
	TimeSlots   []string `json:"contact_dates"`
	Description string   `json:"description"`
}

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func pkcs7Pad(data []byte) []byte {
	padLen := aes.BlockSize - len(data)%aes.BlockSize
	return append(data, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

// sealEnvelope builds the hybrid payload the way a client does: random AES
// key wrapped with RSA-OAEP, payload AES-CBC encrypted with the IV prefixed
func sealEnvelope(t *testing.T, pub *rsa.PublicKey, plaintext []byte) *EncryptedEnvelope {
	t.Helper()

	aesKey := make([]byte, 32)
	_, err := rand.Read(aesKey)
	require.NoError(t, err)

	iv := make([]byte, aes.BlockSize)
	_, err = rand.Read(iv)
	require.NoError(t, err)

	block, err := aes.NewCipher(aesKey)
	require.NoError(t, err)

	padded := pkcs7Pad(plaintext)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	wrappedKey, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, aesKey, nil)
	require.NoError(t, err)

	return &EncryptedEnvelope{
		Key:  base64.StdEncoding.EncodeToString(wrappedKey),
		Data: base64.StdEncoding.EncodeToString(append(iv, ciphertext...)),
	}
}

func TestDecryptEnvelopeRoundTrip(t *testing.T) {
	key := generateKey(t)

	payload := bookingPayload{
		WorkerID:    42,
		TimeSlots:   []string{"Morning (8 AM – 12 PM)"},
		Description: "Bathroom drain blocked",
	}
	plaintext, err := json.Marshal(payload)
	require.NoError(t, err)

	env := sealEnvelope(t, &key.PublicKey, plaintext)

	var decoded bookingPayload
	require.NoError(t, DecryptEnvelope(key, env, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestDecryptEnvelopeTamperedKey(t *testing.T) {
	key := generateKey(t)
	env := sealEnvelope(t, &key.PublicKey, []byte(`{"worker_id":1}`))

	env.Key = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xFF}, 256))
	var decoded bookingPayload
	assert.Error(t, DecryptEnvelope(key, env, &decoded))
}

func TestDecryptEnvelopeBadEncoding(t *testing.T) {
	key := generateKey(t)

	var decoded bookingPayload
	err := DecryptEnvelope(key, &EncryptedEnvelope{Key: "not base64!!", Data: ""}, &decoded)
	assert.Error(t, err)

	env := sealEnvelope(t, &key.PublicKey, []byte(`{}`))
	env.Data = "also not base64!!"
	assert.Error(t, DecryptEnvelope(key, env, &decoded))
}

func TestDecryptAESNullPaddingFallback(t *testing.T) {
	aesKey := make([]byte, 32)
	_, err := rand.Read(aesKey)
	require.NoError(t, err)

	plaintext := []byte(`{"worker_id":7}`)
	padded := append(plaintext, bytes.Repeat([]byte{0}, aes.BlockSize-len(plaintext)%aes.BlockSize)...)

	iv := make([]byte, aes.BlockSize)
	_, err = rand.Read(iv)
	require.NoError(t, err)

	block, err := aes.NewCipher(aesKey)
	require.NoError(t, err)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	out, err := DecryptAES(aesKey, append(iv, ciphertext...))
	require.NoError(t, err)
	assert.Equal(t, plaintext, out)
}

func TestDecryptAESRejectsShortOrRaggedInput(t *testing.T) {
	key := make([]byte, 32)

	_, err := DecryptAES(key, []byte("short"))
	assert.Error(t, err)

	// IV present but ciphertext not block aligned
	ragged := make([]byte, aes.BlockSize+5)
	_, err = DecryptAES(key, ragged)
	assert.Error(t, err)
}

func TestLoadPrivateKeyFormats(t *testing.T) {
	key := generateKey(t)
	dir := t.TempDir()

	pkcs1Path := filepath.Join(dir, "pkcs1.pem")
	pkcs1 := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	require.NoError(t, os.WriteFile(pkcs1Path, pkcs1, 0o600))

	loaded, err := LoadPrivateKey(pkcs1Path)
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))

	pkcs8Path := filepath.Join(dir, "pkcs8.pem")
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pkcs8 := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	require.NoError(t, os.WriteFile(pkcs8Path, pkcs8, 0o600))

	loaded, err = LoadPrivateKey(pkcs8Path)
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))

	_, err = LoadPrivateKey(filepath.Join(dir, "missing.pem"))
	assert.Error(t, err)

	badPath := filepath.Join(dir, "bad.pem")
	require.NoError(t, os.WriteFile(badPath, []byte("not a key"), 0o600))
	_, err = LoadPrivateKey(badPath)
	assert.Error(t, err)
}
