package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var errBadBox = errors.New("session: sealed token is corrupt or was sealed with another key")

// Sealer encrypts access tokens before they are written to disk.
type Sealer struct {
	key [32]byte
}

// NewSealer takes a 64-char hex key. An empty key generates a random one,
// which means persisted sessions do not survive a restart.
func NewSealer(hexKey string) (*Sealer, error) {
	s := &Sealer{}
	if hexKey == "" {
		if _, err := rand.Read(s.key[:]); err != nil {
			return nil, err
		}
		return s, nil
	}
	raw, err := hex.DecodeString(hexKey)
	if err != nil || len(raw) != len(s.key) {
		return nil, fmt.Errorf("session: key must be %d hex-encoded bytes", len(s.key))
	}
	copy(s.key[:], raw)
	return s, nil
}

func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &s.key), nil
}

func (s *Sealer) Open(box []byte) ([]byte, error) {
	if len(box) < nonceSize+secretbox.Overhead {
		return nil, errBadBox
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	out, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, errBadBox
	}
	return out, nil
}

// TokenExpiry reads the exp claim of an access token. The signature is not
// checked: the shop API does that, this only tells when to stop using it.
func TokenExpiry(token string) (time.Time, bool) {
	raw := strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
