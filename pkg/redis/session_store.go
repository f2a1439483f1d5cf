package redis

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// ErrSessionNotFound is returned for unknown or expired sessions
var ErrSessionNotFound = errors.New("session not found")

// SessionData is the login state kept server side for X-Session-ID clients
type SessionData struct {
	AccountID    string `json:"account_id"`
	Role         string `json:"role"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SessionStore keeps sessions in Redis sealed with AES-GCM. The session id is
// bound as additional data, so a payload copied under another id fails to open.
type SessionStore struct {
	aead cipher.AEAD
}

var (
	setSessionValue = Set
	getSessionValue = Get
	delSessionValue = Del

	marshalSessionJSON = json.Marshal
)

// NewSessionStore takes a 32 byte key as 64 hex characters
func NewSessionStore(encryptionKeyHex string) (*SessionStore, error) {
	key, err := hex.DecodeString(encryptionKeyHex)
	if err != nil {
		return nil, errors.New("invalid encryption key hex")
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex chars)")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("session cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("session cipher: %w", err)
	}
	return &SessionStore{aead: aead}, nil
}

// CreateSession seals data and stores it until expiration
func (s *SessionStore) CreateSession(ctx context.Context, sessionID string, data *SessionData, expiration time.Duration) error {
	plaintext, err := marshalSessionJSON(data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	sealed, err := s.seal(sessionID, plaintext)
	if err != nil {
		return err
	}
	return setSessionValue(ctx, sessionKeyPrefix+sessionID, sealed, expiration)
}

// GetSession returns ErrSessionNotFound for unknown or expired ids
func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (*SessionData, error) {
	sealed, err := getSessionValue(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	plaintext, err := s.open(sessionID, sealed)
	if err != nil {
		return nil, err
	}

	var data SessionData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &data, nil
}

// DeleteSession removes a session from Redis
func (s *SessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	return delSessionValue(ctx, sessionKeyPrefix+sessionID)
}

func (s *SessionStore) seal(sessionID string, plaintext []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	return hex.EncodeToString(s.aead.Seal(nonce, nonce, plaintext, []byte(sessionID))), nil
}

func (s *SessionStore) open(sessionID, sealedHex string) ([]byte, error) {
	sealed, err := hex.DecodeString(sealedHex)
	if err != nil {
		return nil, fmt.Errorf("session payload: %w", err)
	}
	size := s.aead.NonceSize()
	if len(sealed) < size {
		return nil, errors.New("session payload too short")
	}
	plaintext, err := s.aead.Open(nil, sealed[:size], sealed[size:], []byte(sessionID))
	if err != nil {
		return nil, fmt.Errorf("session payload: %w", err)
	}
	return plaintext, nil
}
