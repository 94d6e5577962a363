package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA‑256 hashing for login tokens
    "encoding/hex"  // hex encoding and decoding functions
    "errors"
    "fmt"
    "strconv"
    "time" // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionToken is a signed JWT identifying a guest, returned after a login
// link has been redeemed.  Clients send it as a Bearer token.
type SessionToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// LoginToken is a one-time credential mailed to a guest inside a magic
// link.  Raw goes to the guest; only HashToken(Raw) is persisted.
type LoginToken struct {
    Raw string    // raw token string sent to the guest
    Exp time.Time // UTC expiration time
}

// NewSessionToken builds and signs an HS256 JWT for a guest.  The claims
// carry the guest id as subject plus the email, exp and iat.
func NewSessionToken(secret string, guestID uint64, email string, now time.Time, ttl time.Duration) (SessionToken, error) {
    exp := now.UTC().Add(ttl)
    claims := jwt.MapClaims{
        "sub":   strconv.FormatUint(guestID, 10),
        "email": email,
        "exp":   exp.Unix(),
        "iat":   now.UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken validates raw as of now and returns the guest id in its
// subject.
func ParseSessionToken(secret, raw string, now time.Time) (uint64, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Reject anything that is not HMAC so a token cannot pick its own key.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return []byte(secret), nil
    },
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithTimeFunc(func() time.Time { return now }),
    )
    if err != nil {
        return 0, err
    }
    sub, err := tok.Claims.GetSubject()
    if err != nil {
        return 0, err
    }
    id, err := strconv.ParseUint(sub, 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid subject")
    }
    return id, nil
}

// NewLoginToken returns a cryptographically secure random token (raw) valid
// for ttl from now.
func NewLoginToken(now time.Time, ttl time.Duration) (LoginToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return LoginToken{}, err
    }
    return LoginToken{Raw: raw, Exp: now.UTC().Add(ttl)}, nil
}

// HashToken returns the SHA‑256 hash of a raw token as a hex string.  Storing
// only the hash keeps a leaked database row from being replayed as a login.
func HashToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
