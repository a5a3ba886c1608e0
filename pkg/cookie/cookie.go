// Package cookie carries one-shot flash messages between a redirect and the
// page it lands on. The payload is sealed with AES-GCM so the browser can
// neither read nor forge it.
package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
)

var (
	ErrBadSecret = errors.New("cookie: secret must be 32+ bytes")
	ErrDecrypt   = errors.New("cookie: decryption failed")
)

const flashName = "__flash"

// Level tells the page how to style a flash.
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
)

// Flash is a message shown once on the next page.
type Flash struct {
	Level   Level  `json:"l"`
	Message string `json:"m"`
}

// Jar seals and opens flash cookies.
type Jar struct {
	aead   cipher.AEAD
	secure bool
}

// Option configures a Jar.
type Option func(*Jar)

func WithSecure(secure bool) Option {
	return func(j *Jar) { j.secure = secure }
}

// New derives the AES key from secret.
func New(secret string, opts ...Option) (*Jar, error) {
	if len(secret) < 32 {
		return nil, ErrBadSecret
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	j := &Jar{aead: aead}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// SetFlash stores f until the next read.
func (j *Jar) SetFlash(w http.ResponseWriter, f Flash) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	nonce := make([]byte, j.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	sealed := j.aead.Seal(nonce, nonce, data, nil)
	http.SetCookie(w, j.cookie(base64.RawURLEncoding.EncodeToString(sealed), 0))
	return nil
}

// PopFlash returns the pending flash and expires the cookie. A missing or
// tampered cookie yields false.
func (j *Jar) PopFlash(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	c, err := r.Cookie(flashName)
	if err != nil || c.Value == "" {
		return Flash{}, false
	}
	http.SetCookie(w, j.cookie("", -1))

	f, err := j.open(c.Value)
	if err != nil {
		return Flash{}, false
	}
	return f, true
}

func (j *Jar) open(raw string) (Flash, error) {
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Flash{}, ErrDecrypt
	}
	n := j.aead.NonceSize()
	if len(data) < n {
		return Flash{}, ErrDecrypt
	}
	plain, err := j.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return Flash{}, ErrDecrypt
	}
	var f Flash
	if err := json.Unmarshal(plain, &f); err != nil {
		return Flash{}, ErrDecrypt
	}
	return f, nil
}

func (j *Jar) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     flashName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   j.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
