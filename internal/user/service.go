package user

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MemberLinker promotes pending team-membership rows once the invited email
// authenticates. Declared here so user does not import member.
type MemberLinker interface {
	LinkOnAuth(ctx context.Context, userID, email string) error
}

type Service struct {
	repo      *Repository
	linker    MemberLinker
	jwtSecret string
}

type Claims struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

func NewService(repo *Repository, linker MemberLinker, secret string) *Service {
	return &Service{
		repo:      repo,
		linker:    linker,
		jwtSecret: secret,
	}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*Profile, error) {
	if req.Email == "" || req.Password == "" || req.DisplayName == "" {
		return nil, errors.New("email, password and display_name are required")
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		ID:          uuid.NewString(),
		Email:       req.Email,
		Password:    string(hashedPwd),
		DisplayName: req.DisplayName,
	}

	if _, err := s.repo.CreateProfile(ctx, p); err != nil {
		return nil, err
	}

	s.link(ctx, p)
	return p, nil
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	p, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.Password), []byte(req.Password)); err != nil {
		return nil, err
	}

	s.link(ctx, p)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "teamchat",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	})

	ss, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken: ss,
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
	}, nil
}

// link runs the pending-invite promotion. Failure never blocks auth.
func (s *Service) link(ctx context.Context, p *Profile) {
	if s.linker == nil {
		return
	}
	if err := s.linker.LinkOnAuth(ctx, p.ID, p.Email); err != nil {
		log.Printf("[User] link-on-auth for %s failed: %v", p.Email, err)
	}
}

func (s *Service) ValidateToken(tokenString string) (string, string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", "", err
	}
	if !token.Valid {
		return "", "", errors.New("invalid token")
	}

	return claims.ID, claims.DisplayName, nil
}

func (s *Service) GetProfile(ctx context.Context, id string) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}
