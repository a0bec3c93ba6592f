package service

import (
	"errors"
	"strings"
	"time"

	"mediavault/internal/repo"
	"mediavault/model"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUploadToken mints an upload token scoped to the given buckets (nil
// means any visible bucket) and returns its wire form "tokenID.secret".
// The secret exists only in the return value; the row keeps a bcrypt hash.
func CreateUploadToken(bucketSlugs []string, ttl time.Duration, createdBy string) (string, *model.UploadToken, error) {
	for _, slug := range bucketSlugs {
		if _, err := GetBucketBySlug(slug); err != nil {
			return "", nil, err
		}
	}
	tokenID := uuid.NewString()
	secret := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}
	token := &model.UploadToken{
		TokenID:     tokenID,
		SecretHash:  string(hash),
		BucketSlugs: strings.Join(bucketSlugs, ","),
		ExpiresAt:   time.Now().Add(ttl),
		CreatedBy:   createdBy,
	}
	if err := repo.Db.Create(token).Error; err != nil {
		return "", nil, err
	}
	return tokenID + "." + secret, token, nil
}

// ValidateUploadToken checks a wire-form token and returns its row.
func ValidateUploadToken(raw string) (*model.UploadToken, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, validationErr(KindTokenInvalid)
	}
	var token model.UploadToken
	err := repo.Db.Where("token_id = ?", parts[0]).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, validationErr(KindTokenInvalid)
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(token.ExpiresAt) {
		return nil, validationErr(KindTokenExpired)
	}
	if bcrypt.CompareHashAndPassword([]byte(token.SecretHash), []byte(parts[1])) != nil {
		return nil, validationErr(KindTokenInvalid)
	}
	return &token, nil
}

// TokenAllowsBucket reports whether the token may write to the bucket.
func TokenAllowsBucket(token *model.UploadToken, bucketSlug string) bool {
	if token.BucketSlugs == "" {
		return true
	}
	bucketSlug = strings.ToLower(strings.TrimSpace(bucketSlug))
	for _, slug := range strings.Split(token.BucketSlugs, ",") {
		if strings.ToLower(strings.TrimSpace(slug)) == bucketSlug {
			return true
		}
	}
	return false
}

// RevokeUploadToken deletes a token by its public id.
func RevokeUploadToken(tokenID string) error {
	res := repo.Db.Where("token_id = ?", tokenID).Delete(&model.UploadToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return validationErr(KindTokenInvalid)
	}
	return nil
}
