package services

import (
	"context"
	"strings"
	"time"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/validation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	users  store.Collection[models.User]
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    logrus.FieldLogger
}

func NewAuthService(users store.Collection[models.User], secret string, ttl time.Duration, log logrus.FieldLogger) *AuthService {
	return &AuthService{users: users, secret: []byte(secret), ttl: ttl, now: time.Now, log: log}
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), errors.Wrap(err, "hash password")
}

// VerifyPassword compares a plain password with a hashed password
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GenerateJWT signs a token carrying the user's custom ID and role.
func (s *AuthService) GenerateJWT(user models.User) (string, time.Time, error) {
	exp := s.now().Add(s.ttl)
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"exp":     exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return signed, exp, nil
}

// ParseToken validates a bearer token and returns the session it carries.
func (s *AuthService) ParseToken(tokenString string) (models.Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return models.Session{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Session{}, ErrInvalidToken
	}
	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || !models.Role(role).Valid() {
		return models.Session{}, ErrInvalidToken
	}
	return models.Session{UserID: userID, Role: models.Role(role)}, nil
}

// Register creates a student account. Other roles are created by administrators.
func (s *AuthService) Register(ctx context.Context, reg models.Registration) (models.User, error) {
	reg.Email = NormalizeEmail(reg.Email)
	if err := validation.Struct(reg); err != nil {
		return models.User{}, err
	}

	hashedPassword, err := HashPassword(reg.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Base:         models.Base{ID: models.NewID(models.RoleStudent.IDPrefix())},
		Name:         strings.TrimSpace(reg.Name),
		Email:        NormalizeEmail(reg.Email),
		PasswordHash: hashedPassword,
		Role:         models.RoleStudent,
		Status:       models.UserActive,
		Grade:        reg.Grade,
	}
	if err = s.users.Insert(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.User{}, ErrEmailInUse
		}
		return models.User{}, errors.Wrap(err, "register user")
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	return user, nil
}

// Login authenticates a user and returns a JWT with role info
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (LoginResult, error) {
	creds.Email = NormalizeEmail(creds.Email)
	if err := validation.Struct(creds); err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.FindOne(ctx, store.Where(store.Eq("email", NormalizeEmail(creds.Email))))
	if errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, errors.Wrap(err, "find user")
	}

	if !VerifyPassword(creds.Password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return LoginResult{}, ErrInactiveAccount
	}

	token, exp, err := s.GenerateJWT(user)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}
