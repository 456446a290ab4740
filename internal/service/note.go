package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/inknote/backend/internal/domain"
	"github.com/inknote/backend/internal/repository"
)

const (
	defaultNotesPageLimit = 10
	maxNotesPageLimit     = 100
)

type noteService struct {
	noteRepository repository.Notes
}

func newNoteService(noteRepository repository.Notes) *noteService {
	return &noteService{
		noteRepository: noteRepository,
	}
}

func (s *noteService) Create(ctx context.Context, accountID uuid.UUID, input NoteInput) (*domain.Note, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate note id failed: %w", err)
	}

	note := &domain.Note{
		ID:        id,
		AccountID: accountID,
		Title:     strings.TrimSpace(input.Title),
		Content:   strings.TrimSpace(input.Content),
	}

	if err := s.noteRepository.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("create note failed: %w", err)
	}

	return note, nil
}

func (s *noteService) GetAll(ctx context.Context, accountID uuid.UUID, page int, limit int) (*NotesPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxNotesPageLimit {
		limit = defaultNotesPageLimit
	}

	notes, total, err := s.noteRepository.GetAllByAccount(ctx, accountID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("get notes failed: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &NotesPage{
		Notes:      notes,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func (s *noteService) GetOneByID(ctx context.Context, accountID uuid.UUID, id uuid.UUID) (*domain.Note, error) {
	note, err := s.noteRepository.GetOneByID(ctx, id, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("get note failed: %w", err)
	}

	return note, nil
}

func (s *noteService) Update(ctx context.Context, accountID uuid.UUID, id uuid.UUID, input NoteInput) (*domain.Note, error) {
	note := &domain.Note{
		ID:        id,
		AccountID: accountID,
		Title:     strings.TrimSpace(input.Title),
		Content:   strings.TrimSpace(input.Content),
	}

	if err := s.noteRepository.Update(ctx, note); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("update note failed: %w", err)
	}

	return s.GetOneByID(ctx, accountID, id)
}

func (s *noteService) Delete(ctx context.Context, accountID uuid.UUID, id uuid.UUID) error {
	if err := s.noteRepository.Delete(ctx, id, accountID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("delete note failed: %w", err)
	}

	return nil
}
