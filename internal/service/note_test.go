package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/inknote/backend/internal/domain"
)

type memoryNoteRepo struct {
	mu    sync.Mutex
	notes []*domain.Note
}

func newMemoryNoteRepo() *memoryNoteRepo {
	return &memoryNoteRepo{}
}

func (r *memoryNoteRepo) Create(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *note
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.notes = append(r.notes, &stored)

	return nil
}

func (r *memoryNoteRepo) GetOneByID(_ context.Context, id uuid.UUID, accountID uuid.UUID) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, note := range r.notes {
		if note.ID == id && note.AccountID == accountID && note.DeletedAt == nil {
			copied := *note
			return &copied, nil
		}
	}

	return nil, domain.ErrNotFound
}

func (r *memoryNoteRepo) GetAllByAccount(_ context.Context, accountID uuid.UUID, page int, limit int) ([]domain.Note, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []domain.Note
	for i := len(r.notes) - 1; i >= 0; i-- {
		note := r.notes[i]
		if note.AccountID == accountID && note.DeletedAt == nil {
			matched = append(matched, *note)
		}
	}

	total := int64(len(matched))

	offset := (page - 1) * limit
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[offset:end], total, nil
}

func (r *memoryNoteRepo) Update(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stored := range r.notes {
		if stored.ID == note.ID && stored.AccountID == note.AccountID && stored.DeletedAt == nil {
			stored.Title = note.Title
			stored.Content = note.Content
			stored.UpdatedAt = time.Now()
			return nil
		}
	}

	return domain.ErrNotFound
}

func (r *memoryNoteRepo) Delete(_ context.Context, id uuid.UUID, accountID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stored := range r.notes {
		if stored.ID == id && stored.AccountID == accountID && stored.DeletedAt == nil {
			now := time.Now()
			stored.DeletedAt = &now
			return nil
		}
	}

	return domain.ErrNotFound
}

func newNoteFixture() (*noteService, *memoryNoteRepo) {
	repo := newMemoryNoteRepo()
	return newNoteService(repo), repo
}

func TestNoteCreateTrimsInput(t *testing.T) {
	svc, _ := newNoteFixture()
	accountID := uuid.New()

	note, err := svc.Create(context.Background(), accountID, NoteInput{
		Title:   "  Groceries  ",
		Content: " milk, eggs ",
	})
	require.NoError(t, err)
	require.Equal(t, "Groceries", note.Title)
	require.Equal(t, "milk, eggs", note.Content)
	require.Equal(t, accountID, note.AccountID)
	require.NotEqual(t, uuid.Nil, note.ID)
}

func TestNoteGetAllPagination(t *testing.T) {
	svc, _ := newNoteFixture()
	ctx := context.Background()
	accountID := uuid.New()

	for i := 0; i < 25; i++ {
		_, err := svc.Create(ctx, accountID, NoteInput{
			Title:   fmt.Sprintf("note %d", i),
			Content: "body",
		})
		require.NoError(t, err)
	}

	page, err := svc.GetAll(ctx, accountID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Notes, 10)
	require.Equal(t, int64(25), page.Total)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, "note 24", page.Notes[0].Title)

	page, err = svc.GetAll(ctx, accountID, 3, 10)
	require.NoError(t, err)
	require.Len(t, page.Notes, 5)

	page, err = svc.GetAll(ctx, accountID, 4, 10)
	require.NoError(t, err)
	require.Empty(t, page.Notes)
}

func TestNoteGetAllClampsPageAndLimit(t *testing.T) {
	svc, _ := newNoteFixture()
	ctx := context.Background()
	accountID := uuid.New()

	_, err := svc.Create(ctx, accountID, NoteInput{Title: "one", Content: "body"})
	require.NoError(t, err)

	page, err := svc.GetAll(ctx, accountID, -3, 0)
	require.NoError(t, err)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 10, page.Limit)

	page, err = svc.GetAll(ctx, accountID, 1, 5000)
	require.NoError(t, err)
	require.Equal(t, 10, page.Limit)
}

func TestNoteGetAllScopedToAccount(t *testing.T) {
	svc, _ := newNoteFixture()
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()

	created, err := svc.Create(ctx, owner, NoteInput{Title: "mine", Content: "body"})
	require.NoError(t, err)

	page, err := svc.GetAll(ctx, other, 1, 10)
	require.NoError(t, err)
	require.Empty(t, page.Notes)

	_, err = svc.GetOneByID(ctx, other, created.ID)
	require.ErrorIs(t, err, ErrNoteNotFound)
}

func TestNoteUpdate(t *testing.T) {
	svc, _ := newNoteFixture()
	ctx := context.Background()
	accountID := uuid.New()

	created, err := svc.Create(ctx, accountID, NoteInput{Title: "draft", Content: "v1"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, accountID, created.ID, NoteInput{Title: "final", Content: "v2"})
	require.NoError(t, err)
	require.Equal(t, "final", updated.Title)
	require.Equal(t, "v2", updated.Content)

	_, err = svc.Update(ctx, accountID, uuid.New(), NoteInput{Title: "x", Content: "y"})
	require.ErrorIs(t, err, ErrNoteNotFound)
}

func TestNoteDelete(t *testing.T) {
	svc, _ := newNoteFixture()
	ctx := context.Background()
	accountID := uuid.New()

	created, err := svc.Create(ctx, accountID, NoteInput{Title: "gone", Content: "body"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, accountID, created.ID))

	_, err = svc.GetOneByID(ctx, accountID, created.ID)
	require.ErrorIs(t, err, ErrNoteNotFound)

	require.ErrorIs(t, svc.Delete(ctx, accountID, created.ID), ErrNoteNotFound)
}
