package access

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var ErrUnsealable = errors.New("sealed token is invalid")

// Sealer encrypts backend bearer tokens so they can travel inside gateway sessions.
type Sealer struct {
	key [32]byte
}

// NewSealer derives the sealing key from secret.
func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("empty sealing secret")
	}
	s := new(Sealer)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("portal backend token"))
	if _, err := io.ReadFull(kdf, s.key[:]); err != nil {
		return nil, errors.Wrap(err, "deriving sealing key")
	}
	return s, nil
}

// Seal returns base64url(nonce || box).
func (s *Sealer) Seal(token string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", errors.Wrap(err, "reading nonce")
	}
	box := secretbox.Seal(nonce[:], []byte(token), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrUnsealable
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	token, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrUnsealable
	}
	return string(token), nil
}
