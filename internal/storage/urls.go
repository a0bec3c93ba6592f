package storage

import (
	"strconv"
	"strings"
	"time"

	"mediavault/config"

	"github.com/golang-jwt/jwt/v4"
)

// urlBuilder renders the URL scheme family shared by every driver. URL
// methods render the exact template the paired *Scheme method exposes, so
// substituting placeholders always round-trips byte-for-byte.
type urlBuilder struct {
	base string
}

func newURLBuilder() *urlBuilder {
	return &urlBuilder{base: strings.TrimRight(config.AppConfig.CdnPublicBaseURL, "/")}
}

// MakeSecure rewrites a generated URL onto the secure serving origin. Used
// when the caller's context is HTTPS and the origins differ per protocol.
func MakeSecure(raw string) string {
	secure := strings.TrimRight(config.AppConfig.CdnSecureBaseURL, "/")
	public := strings.TrimRight(config.AppConfig.CdnPublicBaseURL, "/")
	if secure == "" || public == "" {
		return raw
	}
	if strings.HasPrefix(raw, public) {
		return secure + strings.TrimPrefix(raw, public)
	}
	return raw
}

func (b *urlBuilder) serveScheme() *URLTemplate {
	return NewURLTemplate(Lit(b.base+"/serve/"), Tok("bucket"), Lit("/"), Tok("filename"))
}

func (b *urlBuilder) serveZippedScheme() *URLTemplate {
	return NewURLTemplate(Lit(b.base+"/zip/"), Tok("ids"), Lit("/"), Tok("filename"))
}

func (b *urlBuilder) cropScheme() *URLTemplate {
	return NewURLTemplate(
		Lit(b.base+"/crop/"), Tok("width"), Lit("/"), Tok("height"),
		Lit("/"), Tok("bucket"), Lit("/"), Tok("filename"),
	)
}

func (b *urlBuilder) scaleScheme() *URLTemplate {
	return NewURLTemplate(
		Lit(b.base+"/scale/"), Tok("width"), Lit("/"), Tok("height"),
		Lit("/"), Tok("bucket"), Lit("/"), Tok("filename"),
	)
}

func (b *urlBuilder) placeholderScheme() *URLTemplate {
	return NewURLTemplate(
		Lit(b.base+"/placeholder/"), Tok("width"), Lit("/"), Tok("height"),
		Lit("/"), Tok("border"),
	)
}

func (b *urlBuilder) blankAvatarScheme() *URLTemplate {
	return NewURLTemplate(
		Lit(b.base+"/blank-avatar/"), Tok("width"), Lit("/"), Tok("height"),
		Lit("/"), Tok("sex"),
	)
}

func (b *urlBuilder) expiringScheme() *URLTemplate {
	return NewURLTemplate(Lit(b.base+"/serve-expiring/"), Tok("token"))
}

func (b *urlBuilder) URLServe(bucket, filename string) string {
	return b.serveScheme().Render(map[string]string{
		"bucket":   bucket,
		"filename": filename,
	})
}

func (b *urlBuilder) URLServeScheme() *URLTemplate {
	return b.serveScheme()
}

func (b *urlBuilder) URLServeZipped(ids, filename string) string {
	return b.serveZippedScheme().Render(map[string]string{
		"ids":      ids,
		"filename": filename,
	})
}

func (b *urlBuilder) URLServeZippedScheme() *URLTemplate {
	return b.serveZippedScheme()
}

func (b *urlBuilder) URLCrop(bucket, filename string, width, height int) string {
	return b.cropScheme().Render(map[string]string{
		"width":    strconv.Itoa(width),
		"height":   strconv.Itoa(height),
		"bucket":   bucket,
		"filename": filename,
	})
}

func (b *urlBuilder) URLCropScheme() *URLTemplate {
	return b.cropScheme()
}

func (b *urlBuilder) URLScale(bucket, filename string, width, height int) string {
	return b.scaleScheme().Render(map[string]string{
		"width":    strconv.Itoa(width),
		"height":   strconv.Itoa(height),
		"bucket":   bucket,
		"filename": filename,
	})
}

func (b *urlBuilder) URLScaleScheme() *URLTemplate {
	return b.scaleScheme()
}

func (b *urlBuilder) URLPlaceholder(width, height, border int) string {
	return b.placeholderScheme().Render(map[string]string{
		"width":  strconv.Itoa(width),
		"height": strconv.Itoa(height),
		"border": strconv.Itoa(border),
	})
}

func (b *urlBuilder) URLPlaceholderScheme() *URLTemplate {
	return b.placeholderScheme()
}

func (b *urlBuilder) URLBlankAvatar(width, height int, sex string) string {
	return b.blankAvatarScheme().Render(map[string]string{
		"width":  strconv.Itoa(width),
		"height": strconv.Itoa(height),
		"sex":    sex,
	})
}

func (b *urlBuilder) URLBlankAvatarScheme() *URLTemplate {
	return b.blankAvatarScheme()
}

func (b *urlBuilder) URLExpiring(bucket, filename string, download bool) (string, error) {
	token, err := SignExpiringToken(bucket, filename, download, config.AppConfig.ExpiringURLDuration)
	if err != nil {
		return "", err
	}
	return b.expiringScheme().Render(map[string]string{"token": token}), nil
}

func (b *urlBuilder) URLExpiringScheme() *URLTemplate {
	return b.expiringScheme()
}

// ExpiringClaims is the payload of a signed expiring-URL token.
type ExpiringClaims struct {
	Bucket   string `json:"bucket"`
	Object   string `json:"object"`
	Download bool   `json:"download"`
	jwt.RegisteredClaims
}

// SignExpiringToken creates a signed token granting timed access to one
// object.
func SignExpiringToken(bucket, object string, download bool, ttl time.Duration) (string, error) {
	claims := ExpiringClaims{
		Bucket:   bucket,
		Object:   object,
		Download: download,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ParseExpiringToken validates a token and returns its claims.
func ParseExpiringToken(tokenString string) (*ExpiringClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ExpiringClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*ExpiringClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
