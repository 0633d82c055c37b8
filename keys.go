package auth

import (
	"crypto/rsa"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// LoadRSAPrivateKey parses PEM-encoded key material. The value may be the
// PEM itself or a path to a PEM file. Any failure is an infrastructure
// error: callers must surface it as a server-side fault, never as a 401.
func LoadRSAPrivateKey(material []byte) (*rsa.PrivateKey, error) {
	pemBytes, err := resolveKeyMaterial(material)
	if err != nil {
		return nil, err
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, errors.Wrap(err, ErrKeyMaterial.Category, ErrKeyMaterial.Message).
			WithTextCode(ErrKeyMaterial.TextCode).
			WithCode(ErrKeyMaterial.Code)
	}

	return key, nil
}

// LoadRSAPublicKey parses PEM-encoded public key material, inline or by path.
func LoadRSAPublicKey(material []byte) (*rsa.PublicKey, error) {
	pemBytes, err := resolveKeyMaterial(material)
	if err != nil {
		return nil, err
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, errors.Wrap(err, ErrKeyMaterial.Category, ErrKeyMaterial.Message).
			WithTextCode(ErrKeyMaterial.TextCode).
			WithCode(ErrKeyMaterial.Code)
	}

	return key, nil
}

func resolveKeyMaterial(material []byte) ([]byte, error) {
	trimmed := strings.TrimSpace(string(material))
	if trimmed == "" {
		return nil, ErrKeyMaterial
	}

	if strings.HasPrefix(trimmed, "-----BEGIN") {
		return []byte(trimmed), nil
	}

	pemBytes, err := os.ReadFile(trimmed)
	if err != nil {
		return nil, errors.Wrap(err, ErrKeyMaterial.Category, ErrKeyMaterial.Message).
			WithTextCode(ErrKeyMaterial.TextCode).
			WithCode(ErrKeyMaterial.Code)
	}

	return pemBytes, nil
}
