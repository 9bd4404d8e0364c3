package store

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShareRepository provides access to note shares.
type ShareRepository struct {
	db *gorm.DB
}

// Upsert creates the share or updates its permission flag if the note is
// already shared with that user.
func (r *ShareRepository) Upsert(share *NoteShare) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "note_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"can_edit"}),
	}).Create(share).Error
	if err != nil {
		return fmt.Errorf("failed to share note: %w", err)
	}
	return nil
}

func (r *ShareRepository) Find(noteID uint, userID string) (*NoteShare, error) {
	var share NoteShare
	err := r.db.First(&share, "note_id = ? AND user_id = ?", noteID, userID).Error
	if err != nil {
		if t := translate(err); t == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find share: %w", err)
	}
	return &share, nil
}

func (r *ShareRepository) ListForNote(noteID uint) ([]*NoteShare, error) {
	var shares []*NoteShare
	if err := r.db.Where("note_id = ?", noteID).Find(&shares).Error; err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	return shares, nil
}

func (r *ShareRepository) Delete(noteID uint, userID string) error {
	result := r.db.Delete(&NoteShare{}, "note_id = ? AND user_id = ?", noteID, userID)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to remove share: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
