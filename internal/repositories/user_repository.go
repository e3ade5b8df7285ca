package repositories

import (
	"errors"

	"buzzchat_backend/internal/models"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository is the identity directory. The chat core reads identities
// through it and never writes them; the auth service owns the writes.
type UserRepository interface {
	FindByID(id uint) (*models.User, error)
	// FindByIDs resolves a batch of ids against active users and reports
	// every missing id, not just the first.
	FindByIDs(ids []uint) ([]models.User, []uint, error)
	FindByPhone(phone string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	// SearchByMentionToken resolves an @token to at most one user by phone,
	// email or name substring. Best effort: no match is not an error.
	SearchByMentionToken(token string) (*models.User, error)

	Create(user *models.User) error
	Update(user *models.User) error
	Activate(userID uint) error

	FindAll(limit, offset int) ([]models.User, int64, error)
}

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) FindByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByIDs(ids []uint) ([]models.User, []uint, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}

	var users []models.User
	err := r.db.Where("id IN ? AND is_active = ?", ids, true).Find(&users).Error
	if err != nil {
		return nil, nil, err
	}

	found := make(map[uint]bool, len(users))
	for _, u := range users {
		found[u.ID] = true
	}

	var missing []uint
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return users, missing, nil
}

func (r *UserRepositoryImpl) FindByPhone(phone string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "phone = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) SearchByMentionToken(token string) (*models.User, error) {
	var user models.User
	pattern := "%" + token + "%"
	err := r.db.
		Where("phone LIKE ? OR email LIKE ? OR (first_name || last_name) LIKE ?", pattern, pattern, pattern).
		Where("is_active = ?", true).
		Limit(1).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepositoryImpl) Update(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepositoryImpl) Activate(userID uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("is_active", true).Error
}

func (r *UserRepositoryImpl) FindAll(limit, offset int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	if err := r.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}
