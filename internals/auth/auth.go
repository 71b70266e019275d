package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/scrimspace/scrim-server/internals/apperr"
	"github.com/scrimspace/scrim-server/pkg/kvstore"
)

type AuthService struct {
	KV     kvstore.KVStore
	DB     *gorm.DB
	Secret []byte
}

func New(kv kvstore.KVStore, db *gorm.DB, secret string) *AuthService {
	return &AuthService{
		KV:     kv,
		DB:     db,
		Secret: []byte(secret),
	}
}

// Login verifies credentials and whitelists a fresh token in the KV store.
// One list per user: multiple devices stay logged in independently.
func (a *AuthService) Login(loginDetails LoginRequestBody) (string, error) {

	var user Users
	err := a.DB.Table("users").
		Select("user_name, password, user_id").
		Where("user_name = ?", loginDetails.UserName).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.Check("invalid credentials")
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginDetails.Password)) != nil {
		return "", apperr.Check("invalid credentials")
	}

	token, err := a.GenerateToken(user.UserID)
	if err != nil {
		return "", err
	}

	err = a.KV.RPush("session_token_"+fmt.Sprintf("%d", user.UserID), token)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (a *AuthService) GenerateToken(userID int) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour * 72).Unix(),
	})

	tokenString, err := token.SignedString(a.Secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (a *AuthService) ValidateToken(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return a.Secret, nil
	})
	if err != nil {
		return 0, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userId := int(claims["user_id"].(float64))
		return userId, nil
	}

	return 0, errors.New("invalid token")
}

func (a *AuthService) RevokeToken(userID int, tokenString string) error {
	tokens, err := a.KV.LRange("session_token_"+fmt.Sprintf("%d", userID), 0, -1)
	if err != nil {
		return err
	}

	for _, t := range tokens {
		if t == tokenString {
			err = a.KV.LRem("session_token_"+fmt.Sprintf("%d", userID), 1, t)
			if err != nil {
				return err
			}
			break
		}
	}

	return nil
}

func (a *AuthService) CheckIfTokenIsWhiteListed(userID int, tokenString string) bool {
	tokens, err := a.KV.LRange("session_token_"+fmt.Sprintf("%d", userID), 0, -1)
	if err != nil {
		return false
	}

	for _, t := range tokens {
		if t == tokenString {
			return true
		}
	}

	return false
}

func (a *AuthService) Logout(userID int, tokenString string) error {
	return a.RevokeToken(userID, tokenString)
}

func (a *AuthService) SignUp(signUpDetails SignUpRequestBody) error {

	if signUpDetails.UserName == "" || signUpDetails.MailID == "" {
		return apperr.Rule("user_name and mail_id are required")
	}
	if len(signUpDetails.Password) < 6 {
		return apperr.Rule("password must be at least 6 characters")
	}

	var count int64
	err := a.DB.Table("users").Where("mail_id = ?", signUpDetails.MailID).Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Rule("user already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(signUpDetails.Password), 10)
	if err != nil {
		return err
	}

	err = a.DB.Table("users").Create(&Users{
		UserName:   signUpDetails.UserName,
		MailID:     signUpDetails.MailID,
		Password:   string(hash),
		ProfilePic: "default.jpg",
	}).Error
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return apperr.Rule("user already exists")
		}
		return err
	}

	return nil
}
