package app

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// ErrInvalidSeatToken is returned for seat tokens that fail verification.
var ErrInvalidSeatToken = errors.New("invalid seat token")

// SeatTokens issues and verifies HS256 tokens binding an identity to a seat.
type SeatTokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewSeatTokens(secret, issuer string, ttl time.Duration) *SeatTokens {
	return &SeatTokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *SeatTokens) Issue(tableID uint64, seat int, identity string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("seat tokens are not configured")
	}
	if identity == "" {
		return "", fmt.Errorf("identity is required")
	}
	if len(s.secret) == 0 {
		return "", fmt.Errorf("seat token secret is empty")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"sub":  identity,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
		"tbl":  strconv.FormatUint(tableID, 10),
		"seat": seat,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks a token for tableID and identity and returns the seat it grants.
func (s *SeatTokens) Verify(tokenString string, tableID uint64, identity string) (int, error) {
	if tokenString == "" {
		return 0, fmt.Errorf("%w: missing", ErrInvalidSeatToken)
	}
	parser := &jwt.Parser{}
	token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSeatToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("%w: bad claims", ErrInvalidSeatToken)
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return 0, fmt.Errorf("%w: issuer", ErrInvalidSeatToken)
	}
	if sub, _ := claims["sub"].(string); sub != identity {
		return 0, fmt.Errorf("%w: issued to another player", ErrInvalidSeatToken)
	}
	if tbl, _ := claims["tbl"].(string); tbl != strconv.FormatUint(tableID, 10) {
		return 0, fmt.Errorf("%w: issued for another table", ErrInvalidSeatToken)
	}
	seat, ok := claims["seat"].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: missing seat", ErrInvalidSeatToken)
	}
	return int(seat), nil
}
