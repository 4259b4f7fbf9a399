package services

import (
	"context"
	"errors"
	"strings"

	"github.com/kendall-kelly/delivery-tracker-api/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// Default cost for bcrypt password hashing
	bcryptCost = 10
	// MinPasswordLength is the shortest password SetPassword accepts
	MinPasswordLength = 8
)

// UserService manages accounts: registration, verification, activation and login
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a user service backed by db
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// RegisterInput is a self-registration request
type RegisterInput struct {
	Phone     string
	FirstName string
	LastName  string
	Role      string
}

// UserPatch is an admin edit. Nil fields are left alone.
type UserPatch struct {
	FirstName  *string
	LastName   *string
	Role       *string
	Status     *string
	IsVerified *bool
}

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPassword compares a bcrypt hash with a plaintext password
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates an inactive, unverified account. A verified account already
// holding the phone number is a conflict; a stale unverified one is replaced.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	phone := normalizePhone(in.Phone)
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)

	if phone == "" {
		return nil, validationError("phone is required")
	}
	if first == "" || last == "" {
		return nil, validationError("firstName and lastName are required")
	}
	role, ok := models.ParseRole(in.Role)
	if !ok {
		return nil, validationError("role must be one of admin, secretary, salesman, driver")
	}

	user := models.User{
		Phone:     phone,
		FirstName: first,
		LastName:  last,
		Role:      role,
		Status:    models.UserInactive,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("phone = ?", phone).First(&existing).Error
		switch {
		case err == nil && existing.IsVerified:
			return conflict("PHONE_EXISTS", "A user with this phone number already exists")
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return storeError("Failed to replace pending registration", err)
			}
			log.WithField("user_id", existing.ID).Info("Replaced stale unverified registration")
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return storeError("Failed to look up phone number", err)
		}

		if err := tx.Create(&user).Error; err != nil {
			return storeError("Failed to create user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyUser lets an admin, re-entering their password, approve a pending user
func (s *UserService) VerifyUser(ctx context.Context, adminID uint, adminPassword string, userID uint) (*models.User, error) {
	db := s.db.WithContext(ctx)

	admin, err := s.find(db, adminID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, authenticationError("Admin account not found")
		}
		return nil, err
	}
	if admin.Role != models.RoleAdmin {
		return nil, authorizationError("Only an admin can verify users")
	}
	if !CheckPassword(admin.PasswordHash, adminPassword) {
		return nil, authenticationError("Incorrect admin password")
	}

	user, err := s.find(db, userID)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, conflict("ALREADY_VERIFIED", "User is already verified")
	}

	user.IsVerified = true
	if err := db.Model(user).Select("is_verified").Updates(user).Error; err != nil {
		return nil, storeError("Failed to verify user", err)
	}
	return user, nil
}

// SetPassword stores the first password of a verified user and activates the account
func (s *UserService) SetPassword(ctx context.Context, phone, password string) (*models.User, error) {
	if len(password) < MinPasswordLength {
		return nil, validationError("password must be at least %d characters", MinPasswordLength)
	}

	db := s.db.WithContext(ctx)
	user, err := s.findByPhone(db, phone)
	if err != nil {
		return nil, err
	}
	if !user.IsVerified {
		return nil, authorizationError("Account has not been verified by an admin")
	}
	if user.IsActive() {
		return nil, conflict("ALREADY_ACTIVE", "Account is already active")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, storeError("Failed to hash password", err)
	}
	user.PasswordHash = hash
	user.Status = models.UserActive
	if err := db.Model(user).Select("password_hash", "status").Updates(user).Error; err != nil {
		return nil, storeError("Failed to set password", err)
	}
	return user, nil
}

// Login checks credentials. Only active accounts may log in.
func (s *UserService) Login(ctx context.Context, phone, password string) (*models.User, error) {
	user, err := s.findByPhone(s.db.WithContext(ctx), phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, authenticationError("Invalid phone number or password")
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, authorizationError("Account is inactive")
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, authenticationError("Invalid phone number or password")
	}
	return user, nil
}

// ListUsers returns every user, optionally restricted to one role
func (s *UserService) ListUsers(ctx context.Context, role string) ([]models.User, error) {
	db := s.db.WithContext(ctx).Order("last_name ASC, first_name ASC")
	if role != "" {
		parsed, ok := models.ParseRole(role)
		if !ok {
			return nil, validationError("unknown role %q", role)
		}
		db = db.Where("role = ?", parsed)
	}

	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		return nil, storeError("Failed to fetch users", err)
	}
	return users, nil
}

// GetUser loads one user
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.find(s.db.WithContext(ctx), id)
}

// UpdateUser applies an admin edit to role, status, verification or names
func (s *UserService) UpdateUser(ctx context.Context, actor Actor, id uint, patch UserPatch) (*models.User, error) {
	db := s.db.WithContext(ctx)
	user, err := s.find(db, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if patch.FirstName != nil {
		if strings.TrimSpace(*patch.FirstName) == "" {
			return nil, validationError("firstName cannot be blank")
		}
		user.FirstName = strings.TrimSpace(*patch.FirstName)
		columns = append(columns, "first_name")
	}
	if patch.LastName != nil {
		if strings.TrimSpace(*patch.LastName) == "" {
			return nil, validationError("lastName cannot be blank")
		}
		user.LastName = strings.TrimSpace(*patch.LastName)
		columns = append(columns, "last_name")
	}
	if patch.Role != nil {
		role, ok := models.ParseRole(*patch.Role)
		if !ok {
			return nil, validationError("unknown role %q", *patch.Role)
		}
		if user.ID == actor.ID && role != models.RoleAdmin {
			return nil, authorizationError("You cannot remove your own admin role")
		}
		user.Role = role
		columns = append(columns, "role")
	}
	if patch.IsVerified != nil {
		user.IsVerified = *patch.IsVerified
		columns = append(columns, "is_verified")
	}
	if patch.Status != nil {
		switch models.UserStatus(*patch.Status) {
		case models.UserActive:
			if !user.IsVerified {
				return nil, validationError("user must be verified before activation")
			}
		case models.UserInactive:
			if user.ID == actor.ID {
				return nil, authorizationError("You cannot deactivate your own account")
			}
		default:
			return nil, validationError("status must be Active or Inactive")
		}
		user.Status = models.UserStatus(*patch.Status)
		columns = append(columns, "status")
	}

	if len(columns) == 0 {
		return user, nil
	}
	if err := db.Model(user).Select(columns).Updates(user).Error; err != nil {
		return nil, storeError("Failed to update user", err)
	}
	return user, nil
}

// DeleteUser removes a user. Admins cannot delete their own account.
func (s *UserService) DeleteUser(ctx context.Context, actor Actor, id uint) error {
	if id == actor.ID {
		return authorizationError("You cannot delete your own account")
	}

	db := s.db.WithContext(ctx)
	user, err := s.find(db, id)
	if err != nil {
		return err
	}
	if err := db.Delete(user).Error; err != nil {
		return storeError("Failed to delete user", err)
	}
	return nil
}

func (s *UserService) find(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("USER_NOT_FOUND", "User not found")
		}
		return nil, storeError("Failed to load user", err)
	}
	return &user, nil
}

func (s *UserService) findByPhone(db *gorm.DB, phone string) (*models.User, error) {
	var user models.User
	if err := db.Where("phone = ?", normalizePhone(phone)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("USER_NOT_FOUND", "User not found")
		}
		return nil, storeError("Failed to load user", err)
	}
	return &user, nil
}

// normalizePhone strips spaces and dashes so "555-0100" and "555 0100" match
func normalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
}
