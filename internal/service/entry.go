package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nutrilog/backend/internal/logger"
	"github.com/nutrilog/backend/internal/models"
	"github.com/nutrilog/backend/internal/types"
)

// photoURLTTL is how long a presigned photo read URL stays valid.
const photoURLTTL = 15 * time.Minute

// PhotoStore is the blob storage backing meal photos. *config.S3Config
// satisfies it.
type PhotoStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	GeneratePresignedURL(ctx context.Context, objectKey string, expiration time.Duration) (string, error)
}

// EntryService handles food entry CRUD and photo attachment
type EntryService struct {
	db     *gorm.DB
	photos PhotoStore
}

var _ IEntryService = (*EntryService)(nil)

// NewEntryService creates a new EntryService instance. photos may be nil
// when photo storage is not configured; AttachPhoto then fails cleanly and
// entries are served without photo URLs.
func NewEntryService(db *gorm.DB, photos PhotoStore) *EntryService {
	return &EntryService{db: db, photos: photos}
}

func validateEntry(req *types.SaveEntryRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: meal name must not be empty", ErrValidation)
	}
	if !req.MealType.Valid() {
		return fmt.Errorf("%w: unknown meal type %q", ErrValidation, req.MealType)
	}
	if len(req.Products) == 0 {
		return fmt.Errorf("%w: entry needs at least one product", ErrValidation)
	}
	for _, p := range req.Products {
		if p.Name == "" {
			return fmt.Errorf("%w: product name must not be empty", ErrValidation)
		}
		if p.Calories <= 0 {
			return fmt.Errorf("%w: product %q calories must be positive", ErrValidation, p.Name)
		}
		if p.Protein < 0 || p.Carbs < 0 || p.Fat < 0 {
			return fmt.Errorf("%w: product %q macros must not be negative", ErrValidation, p.Name)
		}
	}
	return nil
}

func buildProducts(entryID uuid.UUID, inputs []types.ProductInput) []models.FoodProduct {
	products := make([]models.FoodProduct, 0, len(inputs))
	for _, in := range inputs {
		products = append(products, models.FoodProduct{
			FoodEntryID: entryID,
			Name:        in.Name,
			Calories:    in.Calories,
			Protein:     in.Protein,
			Carbs:       in.Carbs,
			Fat:         in.Fat,
		})
	}
	return products
}

// CreateEntry validates and stores a new food entry. Totals are computed
// from the contained products before the write; nothing is persisted when
// validation fails.
func (s *EntryService) CreateEntry(ctx context.Context, req *types.SaveEntryRequest) (*models.FoodEntry, error) {
	if err := validateEntry(req); err != nil {
		return nil, err
	}

	entry := models.FoodEntry{
		ID:       uuid.New(),
		Name:     req.Name,
		Date:     req.Date,
		MealType: req.MealType,
		Notes:    req.Notes,
	}
	if entry.Date.IsZero() {
		entry.Date = time.Now()
	}
	entry.Products = buildProducts(entry.ID, req.Products)
	entry.RecalculateTotals()

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	return &entry, nil
}

// signPhotoURL fills entry.PhotoURL with a presigned read URL for the stored
// photo key. Entries without a photo, and entries served while photo storage
// is not configured, are left as-is. Signing failures degrade to an entry
// without a URL rather than failing the read.
func (s *EntryService) signPhotoURL(ctx context.Context, entry *models.FoodEntry) {
	if s.photos == nil || !entry.HasPhoto() {
		return
	}
	url, err := s.photos.GeneratePresignedURL(ctx, entry.PhotoKey, photoURLTTL)
	if err != nil {
		logger.L().Warn("failed to presign photo URL",
			zap.String("entry_id", entry.ID.String()),
			zap.Error(err))
		return
	}
	entry.PhotoURL = url
}

// GetEntry retrieves one entry with its products
func (s *EntryService) GetEntry(ctx context.Context, id uuid.UUID) (*models.FoodEntry, error) {
	var entry models.FoodEntry
	err := s.db.WithContext(ctx).Preload("Products").First(&entry, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}
	s.signPhotoURL(ctx, &entry)
	return &entry, nil
}

// ListEntries returns all entries ordered by date descending
func (s *EntryService) ListEntries(ctx context.Context) ([]models.FoodEntry, error) {
	var entries []models.FoodEntry
	err := s.db.WithContext(ctx).Preload("Products").Order("date desc").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	for i := range entries {
		s.signPhotoURL(ctx, &entries[i])
	}
	return entries, nil
}

// ListEntriesByDateRange returns entries with date in [start, end)
func (s *EntryService) ListEntriesByDateRange(ctx context.Context, start, end time.Time) ([]models.FoodEntry, error) {
	var entries []models.FoodEntry
	err := s.db.WithContext(ctx).
		Preload("Products").
		Where("date >= ? AND date < ?", start, end).
		Order("date asc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries by range: %w", err)
	}
	for i := range entries {
		s.signPhotoURL(ctx, &entries[i])
	}
	return entries, nil
}

// UpdateEntry replaces an entry's fields and products and recomputes the
// cached totals so they again equal the sum over products.
func (s *EntryService) UpdateEntry(ctx context.Context, id uuid.UUID, req *types.SaveEntryRequest) (*models.FoodEntry, error) {
	if err := validateEntry(req); err != nil {
		return nil, err
	}

	var entry models.FoodEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entry, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return err
		}

		if err := tx.Where("food_entry_id = ?", id).Delete(&models.FoodProduct{}).Error; err != nil {
			return err
		}

		entry.Name = req.Name
		if !req.Date.IsZero() {
			entry.Date = req.Date
		}
		entry.MealType = req.MealType
		entry.Notes = req.Notes
		entry.Products = buildProducts(entry.ID, req.Products)
		entry.RecalculateTotals()

		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&entry).Error
	})
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}
	s.signPhotoURL(ctx, &entry)
	return &entry, nil
}

// DeleteEntry removes an entry and its products
func (s *EntryService) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Delete(&models.FoodEntry{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrEntryNotFound
		}
		return tx.Unscoped().Where("food_entry_id = ?", id).Delete(&models.FoodProduct{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// AttachPhoto uploads a meal photo to blob storage and stores the object key
// on the entry. The photo blob itself never goes into the database.
func (s *EntryService) AttachPhoto(ctx context.Context, id uuid.UUID, data []byte, contentType string) (*models.FoodEntry, error) {
	if s.photos == nil {
		return nil, fmt.Errorf("photo storage is not configured")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: photo data must not be empty", ErrValidation)
	}

	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("meal-photos/%s.jpg", uuid.New().String())
	if err := s.photos.Upload(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}

	entry.PhotoKey = key
	if err := s.db.WithContext(ctx).Model(&models.FoodEntry{}).Where("id = ?", id).Update("photo_key", key).Error; err != nil {
		return nil, fmt.Errorf("failed to store photo key: %w", err)
	}
	s.signPhotoURL(ctx, entry)
	return entry, nil
}
