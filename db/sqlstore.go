package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/jane4246/coffee-advisory/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLStorage persists to a single SQLite file through gorm. The driver is
// pure Go, so no cgo toolchain is needed.
type SQLStorage struct {
	db    *gorm.DB
	clock *clock
}

func OpenSQLite(path string) (*SQLStorage, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Diagnosis{},
		&models.FarmingTip{},
		&models.EmergencyContact{},
	); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	s := &SQLStorage{db: gdb, clock: newClock()}
	if err := s.resumeClock(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStorage) resumeClock() error {
	var d models.Diagnosis
	err := s.db.Order("seq DESC").Limit(1).Find(&d).Error
	if err != nil {
		return fmt.Errorf("resume clock: %w", err)
	}
	s.clock.resume(d.CreatedAt, d.Seq)

	var t models.FarmingTip
	if err := s.db.Order("seq DESC").Limit(1).Find(&t).Error; err != nil {
		return fmt.Errorf("resume clock: %w", err)
	}
	s.clock.resume(t.CreatedAt, t.Seq)

	var c models.EmergencyContact
	if err := s.db.Order("seq DESC").Limit(1).Find(&c).Error; err != nil {
		return fmt.Errorf("resume clock: %w", err)
	}
	s.clock.resume(time.Time{}, c.Seq)
	return nil
}

func (s *SQLStorage) first(ctx context.Context, dst any, query string, args ...any) error {
	err := s.db.WithContext(ctx).Where(query, args...).First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *SQLStorage) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.first(ctx, &u, "id = ?", id)
	return u, err
}

func (s *SQLStorage) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := s.first(ctx, &u, "username = ?", username)
	return u, err
}

func (s *SQLStorage) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	u.ID = uuid.NewString()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", u.Username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		return tx.Create(&u).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = ErrDuplicate
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *SQLStorage) CreateDiagnosis(ctx context.Context, d models.Diagnosis) (models.Diagnosis, error) {
	d.ID = uuid.NewString()
	d.CreatedAt, d.Seq = s.clock.next()
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return models.Diagnosis{}, fmt.Errorf("insert diagnosis: %w", err)
	}
	return d, nil
}

func (s *SQLStorage) GetDiagnoses(ctx context.Context, userID string) ([]models.Diagnosis, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("seq DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	out := []models.Diagnosis{}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find diagnoses: %w", err)
	}
	// sqlite compares timestamps as text; re-sort on the decoded values
	sortDiagnosesNewestFirst(out)
	return out, nil
}

func (s *SQLStorage) GetDiagnosis(ctx context.Context, id string) (models.Diagnosis, error) {
	var d models.Diagnosis
	err := s.first(ctx, &d, "id = ?", id)
	return d, err
}

func (s *SQLStorage) GetFarmingTips(ctx context.Context, season string) ([]models.FarmingTip, error) {
	q := s.db.WithContext(ctx).Order("seq ASC")
	if season != "" {
		q = q.Where("season = ?", season)
	}
	out := []models.FarmingTip{}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find tips: %w", err)
	}
	return out, nil
}

func (s *SQLStorage) CreateFarmingTip(ctx context.Context, t models.FarmingTip) (models.FarmingTip, error) {
	t.ID = uuid.NewString()
	t.CreatedAt, t.Seq = s.clock.next()
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return models.FarmingTip{}, fmt.Errorf("insert tip: %w", err)
	}
	return t, nil
}

func (s *SQLStorage) GetEmergencyContacts(ctx context.Context) ([]models.EmergencyContact, error) {
	out := []models.EmergencyContact{}
	err := s.db.WithContext(ctx).Where("is_active = ?", "true").Order("seq ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find contacts: %w", err)
	}
	return out, nil
}

func (s *SQLStorage) CreateEmergencyContact(ctx context.Context, c models.EmergencyContact) (models.EmergencyContact, error) {
	c.ID = uuid.NewString()
	if c.IsActive == "" {
		c.IsActive = "true"
	}
	_, c.Seq = s.clock.next()
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return models.EmergencyContact{}, fmt.Errorf("insert contact: %w", err)
	}
	return c, nil
}

func (s *SQLStorage) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
