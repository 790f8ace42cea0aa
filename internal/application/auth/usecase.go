package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stockwise-forecast/internal/application/dto"
	"github.com/jhoicas/stockwise-forecast/internal/domain"
	"github.com/jhoicas/stockwise-forecast/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// Credentials administrador configurado (AUTH_ADMIN_EMAIL / AUTH_ADMIN_PASSWORD_HASH).
type Credentials struct {
	Email        string
	PasswordHash string // bcrypt
}

// AuthUseCase login del administrador del servicio: verifica bcrypt y emite un JWT con rol admin.
// Los usuarios manager/employee reciben sus tokens del sistema de cuentas principal con el mismo secreto.
type AuthUseCase struct {
	admin  Credentials
	jwtCfg JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(admin Credentials, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{admin: admin, jwtCfg: jwtCfg}
}

// Enabled indica si hay un administrador configurado.
func (uc *AuthUseCase) Enabled() bool {
	return uc.admin.Email != "" && uc.admin.PasswordHash != ""
}

// Login verifica email/password y retorna el token.
func (uc *AuthUseCase) Login(in dto.LoginRequest) (*dto.LoginResponse, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email y password son obligatorios", domain.ErrInvalidInput)
	}
	if !uc.Enabled() || !strings.EqualFold(strings.TrimSpace(in.Email), uc.admin.Email) {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(uc.admin.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, uc.admin.Email, jwt.RoleAdmin, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		Role:      jwt.RoleAdmin,
		ExpiresIn: uc.jwtCfg.ExpMinutes * 60,
	}, nil
}
