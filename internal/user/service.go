package user

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginTaken         = errors.New("login already taken")
	ErrEmailTaken         = errors.New("email already taken")
	ErrWrongPassword      = errors.New("wrong current password")
	ErrNotFound           = errors.New("user not found")
)

// Store is what the service needs from the repository.
type Store interface {
	GetUserByLogin(ctx context.Context, login string) *User
	GetUserRoles(ctx context.Context, userID int) []string
	GetUserData(ctx context.Context, login string) *Profile
	Create(ctx context.Context, req *RegisterRequest) error
	SaveData(ctx context.Context, p *Profile) error
	SavePassword(ctx context.Context, hashedPassword, login string) error
	UniqueLogin(ctx context.Context, login string, excludeID int) (bool, error)
	UniqueEmail(ctx context.Context, email string, excludeUserID int) (bool, error)
}

type Service struct {
	store     Store
	jwtSecret string
}

type Claims struct {
	ID    int    `json:"id"`
	Login string `json:"login"`
	jwt.RegisteredClaims
}

func hashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

func NewService(store Store, secret string) *Service {
	return &Service{
		store:     store,
		jwtSecret: secret,
	}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) error {
	free, err := s.store.UniqueLogin(ctx, req.Login, 0)
	if err != nil {
		return err
	}
	if !free {
		return ErrLoginTaken
	}

	free, err = s.store.UniqueEmail(ctx, req.Email, 0)
	if err != nil {
		return err
	}
	if !free {
		return ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	hashedReq := *req
	hashedReq.Password = string(hashed)
	return s.store.Create(ctx, &hashedReq)
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	u := s.store.GetUserByLogin(ctx, req.Login)
	if u == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:    u.ID,
		Login: u.Login,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "go-classified",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	})

	ss, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken: ss,
		ID:          u.ID,
		Login:       u.Login,
	}, nil
}

func (s *Service) ValidateToken(tokenString string) (int, string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, "", ErrInvalidCredentials
	}
	return claims.ID, claims.Login, nil
}

// IsAdmin checks the granted roles. The role read is lenient, so a failed
// lookup just means no admin rights.
func (s *Service) IsAdmin(ctx context.Context, userID int) bool {
	for _, role := range s.store.GetUserRoles(ctx, userID) {
		if role == RoleNameAdmin {
			return true
		}
	}
	return false
}

func (s *Service) Account(ctx context.Context, login string) *Profile {
	return s.store.GetUserData(ctx, login)
}

func (s *Service) UpdateData(ctx context.Context, login string, name, surname, email string) error {
	p := s.store.GetUserData(ctx, login)
	if p == nil {
		return ErrNotFound
	}

	free, err := s.store.UniqueEmail(ctx, email, p.UserID)
	if err != nil {
		return err
	}
	if !free {
		return ErrEmailTaken
	}

	p.Name = name
	p.Surname = surname
	p.Email = email
	return s.store.SaveData(ctx, p)
}

func (s *Service) UpdatePassword(ctx context.Context, login, current, password string) error {
	u := s.store.GetUserByLogin(ctx, login)
	if u == nil {
		return ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(current)); err != nil {
		return ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.SavePassword(ctx, string(hashed), login)
}
