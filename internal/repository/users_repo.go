package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/lib/errs"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsersRepository interface {
	AddUser(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	AddExternalUser(ctx context.Context, name, email, passwordHash, subject string) (*models.User, error)
	VerifyUser(ctx context.Context, email, passwordHash string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	LookupUserID(ctx context.Context, email string) (uuid.UUID, error)
}

type usersRepository struct {
	db *gorm.DB
}

func NewUsersRepository(db *gorm.DB) UsersRepository {
	return &usersRepository{db: db}
}

func (db *usersRepository) AddUser(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	const op = "repository.users.AddUser"

	return db.create(ctx, op, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	})
}

// AddExternalUser stores an account owned by an external identity subject.
func (db *usersRepository) AddExternalUser(ctx context.Context, name, email, passwordHash, subject string) (*models.User, error) {
	const op = "repository.users.AddExternalUser"

	return db.create(ctx, op, &models.User{
		Name:            name,
		Email:           email,
		PasswordHash:    passwordHash,
		ExternalSubject: &subject,
	})
}

func (db *usersRepository) create(ctx context.Context, op string, user *models.User) (*models.User, error) {
	if err := db.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, errs.ErrAlreadyExists
		}
		return nil, storageErr(op, err)
	}

	return user, nil
}

func (db *usersRepository) VerifyUser(ctx context.Context, email, passwordHash string) (bool, error) {
	const op = "repository.users.VerifyUser"

	var count int64
	err := db.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND password_hash = ?", email, passwordHash).
		Count(&count).Error
	if err != nil {
		return false, storageErr(op, err)
	}

	return count > 0, nil
}

func (db *usersRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "repository.users.GetByEmail"

	var user models.User
	if err := db.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, storageErr(op, err)
	}

	return &user, nil
}

func (db *usersRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	const op = "repository.users.GetUserByID"

	var user models.User
	if err := db.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, storageErr(op, err)
	}

	return &user, nil
}

func (db *usersRepository) LookupUserID(ctx context.Context, email string) (uuid.UUID, error) {
	user, err := db.GetByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, err
	}

	return user.ID, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value violates unique constraint")
}
