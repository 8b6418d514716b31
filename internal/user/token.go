package user

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// TokenIssuer signs HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Secret() []byte { return t.secret }

func (t *TokenIssuer) Issue(u User) (Session, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"user_id":   u.ID.String(),
		"email":     u.Email,
		"full_name": u.FullName,
		"jti":       jti,
		"iat":       now.Unix(),
		"exp":       exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return Session{}, err
	}
	return Session{AccessToken: signed, TokenType: "bearer", ExpiresAt: exp.UTC(), User: u, TokenID: jti}, nil
}

// Denylist remembers revoked token ids until the token would have expired.
type Denylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewDenylist() *Denylist {
	return &Denylist{revoked: make(map[string]time.Time), now: time.Now}
}

func (d *Denylist) Revoke(jti string, expiresAt time.Time) {
	if jti == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	for id, exp := range d.revoked {
		if now.After(exp) {
			delete(d.revoked, id)
		}
	}
	d.revoked[jti] = expiresAt
}

func (d *Denylist) Revoked(jti string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.revoked[jti]
	return ok && !d.now().After(exp)
}

var errNoToken = errors.New("no session token")

// tokenClaims pulls the fields the handlers need out of the verified token.
type tokenClaims struct {
	UserID    uuid.UUID
	Email     string
	FullName  string
	ID        string
	ExpiresAt time.Time
}

func claimsFrom(tok *jwt.Token) (tokenClaims, error) {
	if tok == nil {
		return tokenClaims{}, errNoToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return tokenClaims{}, errNoToken
	}
	raw, _ := mc["user_id"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return tokenClaims{}, errNoToken
	}
	out := tokenClaims{UserID: id}
	out.Email, _ = mc["email"].(string)
	out.FullName, _ = mc["full_name"].(string)
	out.ID, _ = mc["jti"].(string)
	if exp, ok := mc["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return out, nil
}
