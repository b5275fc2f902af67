package utils

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// EncryptedEnvelope is the hybrid payload sent by clients: an RSA-encrypted
// AES key plus the AES-encrypted booking fields
type EncryptedEnvelope struct {
	Key  string `json:"key" binding:"required"`
	Data string `json:"data" binding:"required"`
}

// LoadPrivateKey reads an RSA private key from a PEM file (PKCS1 or PKCS8)
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("no PEM block found in private key file")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return key, nil
}

// DecryptRSA unwraps an RSA-OAEP encrypted payload. Clients use OAEP with
// SHA-1, the forge default.
func DecryptRSA(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	return rsa.DecryptOAEP(sha1.New(), nil, priv, ciphertext, nil)
}

// DecryptAES decrypts AES-CBC data where the first 16 bytes are the IV
func DecryptAES(key, data []byte) ([]byte, error) {
	if len(data) < aes.BlockSize {
		return nil, errors.New("ciphertext too short")
	}
	iv := data[:aes.BlockSize]
	ciphertext := data[aes.BlockSize:]

	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.New("ciphertext is not a multiple of the block size")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return unpad(plaintext)
}

// unpad strips PKCS7 padding, falling back to trimming trailing null bytes
// for clients that pad with zeros
func unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty plaintext")
	}
	padLen := int(data[len(data)-1])
	if padLen > 0 && padLen <= aes.BlockSize && padLen <= len(data) {
		valid := true
		for _, b := range data[len(data)-padLen:] {
			if int(b) != padLen {
				valid = false
				break
			}
		}
		if valid {
			return data[:len(data)-padLen], nil
		}
	}
	return bytes.TrimRight(data, "\x00"), nil
}

// DecryptEnvelope unwraps the hybrid envelope and unmarshals the inner JSON
// into out
func DecryptEnvelope(priv *rsa.PrivateKey, env *EncryptedEnvelope, out interface{}) error {
	wrappedKey, err := base64.StdEncoding.DecodeString(env.Key)
	if err != nil {
		return fmt.Errorf("invalid key encoding: %w", err)
	}

	aesKey, err := DecryptRSA(priv, wrappedKey)
	if err != nil {
		return fmt.Errorf("failed to unwrap session key: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return fmt.Errorf("invalid data encoding: %w", err)
	}

	plaintext, err := DecryptAES(aesKey, data)
	if err != nil {
		return fmt.Errorf("failed to decrypt payload: %w", err)
	}

	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("failed to parse decrypted payload: %w", err)
	}
	return nil
}
