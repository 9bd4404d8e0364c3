package store

import (
	"fmt"

	"gorm.io/gorm"
)

// TagRepository provides access to tags.
type TagRepository struct {
	db *gorm.DB
}

func (r *TagRepository) Create(tag *Tag) error {
	if err := r.db.Create(tag).Error; err != nil {
		if t := translate(err); t == ErrDuplicate {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

func (r *TagRepository) ListForUser(userID string) ([]*Tag, error) {
	var tags []*Tag
	if err := r.db.Where("owner_id = ?", userID).Order("name").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// Delete removes the owner's tag and clears it from their notes.
func (r *TagRepository) Delete(id uint, ownerID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&Tag{}, "id = ? AND owner_id = ?", id, ownerID)
		if err := result.Error; err != nil {
			return fmt.Errorf("failed to delete tag: %w", err)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		err := tx.Model(&Note{}).Where("tag_id = ?", id).Update("tag_id", nil).Error
		if err != nil {
			return fmt.Errorf("failed to clear tag from notes: %w", err)
		}
		return nil
	})
}
