package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/authorization"
	"depanku-backend/internal/models"
	"depanku-backend/internal/repository"
	"depanku-backend/pkg/logger"
)

const (
	tokenTTL        = 72 * time.Hour
	verificationTTL = 24 * time.Hour
)

type AuthService struct {
	userRepo  repository.UserRepository
	email     *EmailService
	jwtSecret string
}

func NewAuthService(userRepo repository.UserRepository, email *EmailService, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		email:     email,
		jwtSecret: jwtSecret,
	}
}

func (s *AuthService) Signup(req models.SignupRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.userRepo.GetByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	if existing != nil {
		return nil, apperrors.New(apperrors.AuthEmailExists)
	}

	existing, err = s.userRepo.GetByUsername(req.Username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	if existing != nil {
		return nil, apperrors.New(apperrors.AuthUsernameExists)
	}

	if err := validatePasswordStrength(req.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ServerInternal, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		Username:           req.Username,
		Email:              email,
		Password:           string(hashedPassword),
		Role:               authorization.RoleUser,
		VerificationCode:   generateVerificationCode(),
		VerificationSentAt: &now,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	s.sendVerificationEmail(user)

	return user, nil
}

func (s *AuthService) Signin(req models.SigninRequest) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		return "", nil, apperrors.New(apperrors.AuthInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return "", nil, apperrors.New(apperrors.AuthInvalidCredentials)
	}

	if user.Status == models.UserStatusSuspended {
		return "", nil, apperrors.New(apperrors.PermissionDenied)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, apperrors.Wrap(apperrors.ServerInternal, err)
	}

	return token, user, nil
}

// VerifyEmail consumes the emailed code and marks the account verified.
func (s *AuthService) VerifyEmail(req models.VerifyEmailRequest) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		return nil, apperrors.New(apperrors.AuthVerificationInvalid)
	}

	if user.EmailVerified {
		return user, nil
	}

	code := strings.TrimSpace(req.Code)
	if code == "" || user.VerificationCode == "" || code != user.VerificationCode {
		return nil, apperrors.New(apperrors.AuthVerificationInvalid)
	}
	if user.VerificationSentAt != nil && time.Since(*user.VerificationSentAt) > verificationTTL {
		return nil, apperrors.New(apperrors.AuthVerificationInvalid)
	}

	user.EmailVerified = true
	user.VerificationCode = ""
	user.VerificationSentAt = nil

	if err := s.userRepo.Update(user); err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return user, nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role.String(),
		"exp":      time.Now().Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.NotFoundUser)
		}
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return user, nil
}

func (s *AuthService) GetAllUsers(query string, limit int) ([]models.User, error) {
	users, err := s.userRepo.GetAll(query, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return users, nil
}

func (s *AuthService) DeleteUser(id uint) error {
	if err := s.userRepo.Delete(id); err != nil {
		return apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return nil
}

func (s *AuthService) UpdateUserRole(id uint, role string) error {
	parsed, ok := authorization.ParseUserRole(role)
	if !ok {
		return apperrors.New(apperrors.ValidationInvalidFormat)
	}

	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}

	user.Role = parsed
	if err := s.userRepo.Update(user); err != nil {
		return apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return nil
}

func (s *AuthService) UpdateUserStatus(id uint, status string) error {
	if status != models.UserStatusActive && status != models.UserStatusSuspended {
		return apperrors.New(apperrors.ValidationInvalidStatus)
	}

	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}

	user.Status = status
	if err := s.userRepo.Update(user); err != nil {
		return apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return nil
}

func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return apperrors.New(apperrors.AuthWrongPassword)
	}

	if err := validatePasswordStrength(newPassword); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ServerInternal, err)
	}

	user.Password = string(hashedPassword)
	if err := s.userRepo.Update(user); err != nil {
		return apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return nil
}

func (s *AuthService) sendVerificationEmail(user *models.User) {
	if s.email == nil || !s.email.Enabled() {
		return
	}

	subject := "Verify your Depanku account"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour verification code is: %s\n\nIt expires in 24 hours.\n",
		user.Username, user.VerificationCode,
	)
	if err := s.email.Send(user.Email, subject, body); err != nil {
		logger.Error(err, "Failed to send verification email", map[string]interface{}{
			"user_id": user.ID,
		})
	}
}

func generateVerificationCode() string {
	const digits = 6
	max := big.NewInt(10)

	var builder strings.Builder
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
		}
		builder.WriteString(n.String())
	}
	return builder.String()
}

func validatePasswordStrength(password string) error {
	if len(password) < 12 {
		return apperrors.New(apperrors.AuthWeakPassword)
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower || !hasNumber || !hasSpecial {
		return apperrors.New(apperrors.AuthWeakPassword)
	}

	return nil
}
