package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// NoteRepository provides access to notes. Soft-deleted notes are
// invisible to every method except Restore and PurgeDeleted.
type NoteRepository struct {
	db *gorm.DB
}

func (r *NoteRepository) Create(note *Note) error {
	if err := r.db.Create(note).Error; err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (r *NoteRepository) Get(id uint) (*Note, error) {
	var note Note
	if err := r.db.First(&note, "note_id = ?", id).Error; err != nil {
		if t := translate(err); t == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find note: %w", err)
	}
	return &note, nil
}

// ListForUser returns the user's own notes plus notes shared with them,
// newest first.
func (r *NoteRepository) ListForUser(userID string) ([]*Note, error) {
	shared := r.db.Model(&NoteShare{}).Select("note_id").Where("user_id = ?", userID)

	var notes []*Note
	err := r.db.
		Where("owner_id = ? OR note_id IN (?)", userID, shared).
		Order("updated_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// Update applies the given column values to a note.
func (r *NoteRepository) Update(id uint, fields map[string]interface{}) error {
	result := r.db.Model(&Note{}).Where("note_id = ?", id).Updates(fields)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateContent is the explicit-save write path.
func (r *NoteRepository) UpdateContent(id uint, content string) error {
	return r.Update(id, map[string]interface{}{"content": content})
}

// SoftDelete hides a note; Restore undoes it.
func (r *NoteRepository) SoftDelete(id uint) error {
	result := r.db.Delete(&Note{}, "note_id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NoteRepository) Restore(id uint) error {
	result := r.db.Unscoped().Model(&Note{}).
		Where("note_id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to restore note: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetDeleted fetches a note only if it is currently soft-deleted. Used
// by the restore handler's ownership check.
func (r *NoteRepository) GetDeleted(id uint) (*Note, error) {
	var note Note
	err := r.db.Unscoped().
		First(&note, "note_id = ? AND deleted_at IS NOT NULL", id).Error
	if err != nil {
		if t := translate(err); t == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find note: %w", err)
	}
	return &note, nil
}

// PurgeDeleted hard-deletes notes soft-deleted before the cutoff and
// returns how many rows went away.
func (r *NoteRepository) PurgeDeleted(olderThan time.Time) (int64, error) {
	result := r.db.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", olderThan).
		Delete(&Note{})
	if err := result.Error; err != nil {
		return 0, fmt.Errorf("failed to purge notes: %w", err)
	}
	return result.RowsAffected, nil
}
