package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qr-hunt-backend/internal/database"
	"qr-hunt-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenTTL = 24 * time.Hour

type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
}

func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{db: db, jwtSecret: []byte(jwtSecret)}
}

// AdminClaims identifies the admin behind a request.
type AdminClaims struct {
	AdminID uuid.UUID
	Role    string
}

type CreateAdminInput struct {
	Email       string
	Password    string
	Role        string
	DisplayName string
}

func (s *AuthService) CreateAdmin(ctx context.Context, in CreateAdminInput) (*models.AdminUser, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !emailPattern.MatchString(email) {
		return nil, validationError("invalid email format")
	}
	if len(in.Password) < 8 {
		return nil, validationError("password must have at least 8 characters")
	}
	if !models.ValidRole(in.Role) {
		return nil, validationError("role must be superadmin or staff")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	admin := models.AdminUser{
		Email:        email,
		PasswordHash: string(hash),
		Role:         in.Role,
		DisplayName:  strings.TrimSpace(in.DisplayName),
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, validationError("email already taken")
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return &admin, nil
}

func (s *AuthService) ListAdmins(ctx context.Context) ([]models.AdminUser, error) {
	var admins []models.AdminUser
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.AdminUser, error) {
	var admin models.AdminUser
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error; err != nil {
		return "", nil, ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrUnauthorized
	}

	token, err := s.GenerateToken(admin.ID, admin.Role)
	if err != nil {
		return "", nil, err
	}
	return token, &admin, nil
}

func (s *AuthService) GetAdmin(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := s.db.WithContext(ctx).First(&admin, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "admin")
	}
	return &admin, nil
}

func (s *AuthService) GenerateToken(adminID uuid.UUID, role string) (string, error) {
	claims := jwt.MapClaims{
		"admin_id": adminID.String(),
		"role":     role,
		"exp":      time.Now().Add(tokenTTL).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) ValidateToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	rawID, _ := claims["admin_id"].(string)
	adminID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, errors.New("invalid admin_id in token")
	}
	role, _ := claims["role"].(string)
	if !models.ValidRole(role) {
		return nil, errors.New("invalid role in token")
	}

	return &AdminClaims{AdminID: adminID, Role: role}, nil
}
