package service

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/models"
)

type fakeUserRepo struct {
	items  map[uint]*models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{items: map[uint]*models.User{}, nextID: 1}
}

func (r *fakeUserRepo) Create(user *models.User) error {
	user.ID = r.nextID
	r.nextID++
	clone := *user
	r.items[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	user, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, user := range r.items {
		if user.Email == strings.ToLower(email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByUsername(username string) (*models.User, error) {
	for _, user := range r.items {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(user *models.User) error {
	if _, ok := r.items[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *user
	r.items[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Delete(id uint) error {
	delete(r.items, id)
	return nil
}

func (r *fakeUserRepo) GetAll(query string, limit int) ([]models.User, error) {
	var result []models.User
	for _, user := range r.items {
		result = append(result, *user)
	}
	return result, nil
}

func (r *fakeUserRepo) Count() (int64, error) {
	return int64(len(r.items)), nil
}

func newAuthService(repo *fakeUserRepo) *AuthService {
	return NewAuthService(repo, nil, "test-secret")
}

func validSignup() models.SignupRequest {
	return models.SignupRequest{
		Username: "ayu_putri",
		Email:    "Ayu@Example.com",
		Password: "Str0ng&LongPass!",
	}
}

func TestSignupHashesPasswordAndLowercasesEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)

	user, err := svc.Signup(validSignup())
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	if user.Email != "ayu@example.com" {
		t.Errorf("email = %q, want lowercase", user.Email)
	}
	if user.Password == "Str0ng&LongPass!" {
		t.Error("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("Str0ng&LongPass!")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
	if user.EmailVerified {
		t.Error("new account must start unverified")
	}
	if user.VerificationCode == "" {
		t.Error("expected a verification code")
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)

	if _, err := svc.Signup(validSignup()); err != nil {
		t.Fatalf("first Signup: %v", err)
	}

	dup := validSignup()
	dup.Username = "other_name"
	_, err := svc.Signup(dup)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.AuthEmailExists {
		t.Fatalf("expected email-exists error, got %v", err)
	}
}

func TestSigninWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)

	if _, err := svc.Signup(validSignup()); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	_, _, err := svc.Signin(models.SigninRequest{
		Email:    "ayu@example.com",
		Password: "WrongPassword1!x",
	})

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.AuthInvalidCredentials {
		t.Fatalf("expected invalid-credentials error, got %v", err)
	}
}

func TestSigninIssuesToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)

	if _, err := svc.Signup(validSignup()); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	token, user, err := svc.Signin(models.SigninRequest{
		Email:    "ayu@example.com",
		Password: "Str0ng&LongPass!",
	})
	if err != nil {
		t.Fatalf("Signin: %v", err)
	}
	if token == "" {
		t.Error("expected a signed token")
	}
	if user.Username != "ayu_putri" {
		t.Errorf("user = %+v", user)
	}
}

func TestVerifyEmailConsumesCode(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)

	created, err := svc.Signup(validSignup())
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	_, err = svc.VerifyEmail(models.VerifyEmailRequest{
		Email: created.Email,
		Code:  "000000",
	})
	var appErr *apperrors.AppError
	if created.VerificationCode != "000000" {
		if !errors.As(err, &appErr) || appErr.Code != apperrors.AuthVerificationInvalid {
			t.Fatalf("expected verification error for wrong code, got %v", err)
		}
	}

	verified, err := svc.VerifyEmail(models.VerifyEmailRequest{
		Email: created.Email,
		Code:  created.VerificationCode,
	})
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if !verified.EmailVerified {
		t.Error("expected account verified")
	}
	if verified.VerificationCode != "" {
		t.Error("expected verification code cleared")
	}
}

func TestPasswordStrength(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"Str0ng&LongPass!", true},
		{"short1!A", false},
		{"alllowercase1234!", false},
		{"ALLUPPERCASE1234!", false},
		{"NoDigitsHereEver!", false},
		{"NoSpecials12345A", false},
	}

	for _, tc := range cases {
		err := validatePasswordStrength(tc.password)
		if tc.ok && err != nil {
			t.Errorf("%q rejected: %v", tc.password, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%q accepted", tc.password)
		}
	}
}

func TestChangePasswordRequiresOldPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)

	user, err := svc.Signup(validSignup())
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	err = svc.ChangePassword(user.ID, "WrongOld1!Passwd", "An0ther&LongPass!")
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.AuthWrongPassword {
		t.Fatalf("expected wrong-password error, got %v", err)
	}

	if err := svc.ChangePassword(user.ID, "Str0ng&LongPass!", "An0ther&LongPass!"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, _, err := svc.Signin(models.SigninRequest{
		Email:    "ayu@example.com",
		Password: "An0ther&LongPass!",
	}); err != nil {
		t.Fatalf("Signin with new password: %v", err)
	}
}
