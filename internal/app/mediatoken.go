package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yokyay/classhub/internal/domain"
)

var ErrMediaNotConfigured = errors.New("media router not configured")

const mediaTokenTTL = 6 * time.Hour

// MediaTokenIssuer mints room-scoped access tokens for the external media
// router. The coordinator decides who is allowed in; this only signs the
// grant for a party that already passed admission.
type MediaTokenIssuer struct {
	url       string
	apiKey    string
	apiSecret string
	now       func() time.Time
}

func NewMediaTokenIssuer(url, apiKey, apiSecret string) *MediaTokenIssuer {
	return &MediaTokenIssuer{url: url, apiKey: apiKey, apiSecret: apiSecret, now: time.Now}
}

func (i *MediaTokenIssuer) Configured() bool {
	return i.url != "" && i.apiKey != "" && i.apiSecret != ""
}

// grantClaims mirrors the video-grant claim shape the media router expects.
type grantClaims struct {
	jwt.RegisteredClaims
	Name     string     `json:"name"`
	Metadata string     `json:"metadata"`
	Video    videoGrant `json:"video"`
}

type videoGrant struct {
	Room         string `json:"room"`
	RoomJoin     bool   `json:"roomJoin"`
	CanPublish   bool   `json:"canPublish"`
	CanSubscribe bool   `json:"canSubscribe"`
}

// Issue signs a join grant for the room and returns it with the router url.
// Each token carries a unique participant identity so reconnects do not
// collide at the media layer.
func (i *MediaTokenIssuer) Issue(roomID domain.RoomID, user domain.Identity) (token, url string, err error) {
	if !i.Configured() {
		return "", "", ErrMediaNotConfigured
	}
	now := i.now()
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	identity := fmt.Sprintf("%s-%s-%s", user.Role, user.Name, suffix)

	claims := grantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(mediaTokenTTL)),
		},
		Name:     user.Name,
		Metadata: string(user.Role),
		Video: videoGrant{
			Room:         string(roomID),
			RoomJoin:     true,
			CanPublish:   true,
			CanSubscribe: true,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.apiSecret))
	if err != nil {
		return "", "", fmt.Errorf("sign media token: %w", err)
	}
	return signed, i.url, nil
}
