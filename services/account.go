package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ignation/worldcourse-backend/models"
)

// BcryptCost is lowered in tests.
var BcryptCost = bcrypt.DefaultCost

type RegisterParams struct {
	Email     string          `json:"email" binding:"required,email"`
	Password  string          `json:"password" binding:"required,min=6"`
	FirstName string          `json:"first_name" binding:"required"`
	LastName  string          `json:"last_name"`
	Phone     string          `json:"phone" binding:"omitempty,max=30"`
	Role      models.UserRole `json:"role" binding:"omitempty,oneof=student teacher admin"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *RegisterParams) Normalize() {
	p.Email = NormalizeEmail(p.Email)
}

// Register creates a user. Only admins may create staff accounts; anyone else gets a student.
func Register(ctx context.Context, db *gorm.DB, creator *Actor, p RegisterParams) (*models.User, error) {
	email := NormalizeEmail(p.Email)
	role := models.RoleStudent
	if p.Role != "" && creator != nil && creator.IsAdmin() {
		role = p.Role
	}

	db = db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "checking email")
	}
	if count > 0 {
		return nil, ErrDuplicateEmail
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(p.Password), BcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "hashing password")
	}

	user := &models.User{
		Email:     email,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(p.FirstName),
		LastName:  strings.TrimSpace(p.LastName),
		Phone:     strings.TrimSpace(p.Phone),
		Role:      role,
	}
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, errors.Wrap(err, "creating user")
	}
	return user, nil
}

// Authenticate checks the credentials and stamps the login time.
func Authenticate(ctx context.Context, db *gorm.DB, email, password string) (*models.User, error) {
	db = db.WithContext(ctx)
	var user models.User
	if err := db.Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "loading user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	now := NowFunc()
	user.LastLoginAt = &now
	if err := db.Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, errors.Wrap(err, "stamping login")
	}
	return &user, nil
}

func GetUser(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "loading user")
	}
	return &user, nil
}

type ProfileParams struct {
	FirstName *string `json:"first_name" binding:"omitempty,min=1"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone" binding:"omitempty,max=30"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
}

func UpdateProfile(ctx context.Context, db *gorm.DB, id uuid.UUID, p ProfileParams) (*models.User, error) {
	user, err := GetUser(ctx, db, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if p.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*p.LastName)
	}
	if p.Phone != nil {
		updates["phone"] = strings.TrimSpace(*p.Phone)
	}
	if p.Bio != nil {
		updates["bio"] = *p.Bio
	}
	if p.AvatarURL != nil {
		updates["avatar_url"] = *p.AvatarURL
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "updating profile")
	}
	return GetUser(ctx, db, id)
}

// AdjustPoints adds delta to the user's points, never going below zero.
func AdjustPoints(ctx context.Context, db *gorm.DB, id uuid.UUID, delta int) (*models.User, error) {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return notFound(err, "loading user")
		}
		points := user.Points + delta
		if points < 0 {
			points = 0
		}
		return tx.Model(&user).Update("points", points).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "adjusting points")
	}
	return GetUser(ctx, db, id)
}

// SetActive enables or disables an account.
func SetActive(ctx context.Context, db *gorm.DB, id uuid.UUID, active bool) (*models.User, error) {
	user, err := GetUser(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(user).Update("status", active).Error; err != nil {
		return nil, errors.Wrap(err, "updating status")
	}
	return GetUser(ctx, db, id)
}
