package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inknote/backend/internal/domain"
	"github.com/inknote/backend/internal/service"
	"github.com/inknote/backend/pkg/logger"
)

func (h *Handler) initNotesRoutes(api *gin.RouterGroup) {
	notes := api.Group("/notes", h.accountIdentityMiddleware)
	{
		notes.POST("", h.createNote)
		notes.GET("", h.getNotesList)
		notes.GET("/:id", h.getNoteByID)
		notes.PUT("/:id", h.updateNote)
		notes.DELETE("/:id", h.deleteNote)
	}
}

type noteResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func newNoteResponse(note *domain.Note) noteResponse {
	return noteResponse{
		ID:        note.ID.String(),
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: note.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: note.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

type notesListResponse struct {
	Notes      []noteResponse `json:"notes"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

type noteRequest struct {
	Title   string `json:"title" binding:"required,min=1,max=200"`
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

// @Summary Create note
// @Tags Notes
// @Description Creates a note for the authenticated account
// @ModuleID createNote
// @Accept json
// @Produce json
// @Param input body noteRequest true "note data"
// @Success 201 {object} noteResponse
// @Failure 400 {object} ValidationErrorStruct
// @Failure 401
// @Failure 500
// @Security UserAuth
// @Router /notes [post]
func (h *Handler) createNote(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	accountID, err := h.getAccountID(c)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	note, err := h.services.Notes.Create(c.Request.Context(), accountID, service.NoteInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		logger.Error("create note failed", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, newNoteResponse(note))
}

// @Summary List notes
// @Tags Notes
// @Description Lists the account's notes, newest first
// @ModuleID getNotesList
// @Accept json
// @Produce json
// @Param page query int false "page number, default 1"
// @Param limit query int false "page size, default 10, max 100"
// @Success 200 {object} notesListResponse
// @Failure 401
// @Failure 500
// @Security UserAuth
// @Router /notes [get]
func (h *Handler) getNotesList(c *gin.Context) {
	accountID, err := h.getAccountID(c)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.services.Notes.GetAll(c.Request.Context(), accountID, page, limit)
	if err != nil {
		logger.Error("list notes failed", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	notes := make([]noteResponse, len(result.Notes))
	for i := range result.Notes {
		notes[i] = newNoteResponse(&result.Notes[i])
	}

	c.JSON(http.StatusOK, notesListResponse{
		Notes:      notes,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	})
}

// @Summary Get note
// @Tags Notes
// @Description Returns one note by id
// @ModuleID getNoteByID
// @Accept json
// @Produce json
// @Param id path string true "note id"
// @Success 200 {object} noteResponse
// @Failure 401
// @Failure 404 {object} ErrorStruct
// @Failure 500
// @Security UserAuth
// @Router /notes/{id} [get]
func (h *Handler) getNoteByID(c *gin.Context) {
	accountID, err := h.getAccountID(c)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusNotFound, NoteNotFoundCode)
		return
	}

	note, err := h.services.Notes.GetOneByID(c.Request.Context(), accountID, noteID)
	if err != nil {
		if errors.Is(err, service.ErrNoteNotFound) {
			errorResponse(c, http.StatusNotFound, NoteNotFoundCode)
			return
		}
		logger.Error("get note failed", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, newNoteResponse(note))
}

// @Summary Update note
// @Tags Notes
// @Description Updates a note's title and content
// @ModuleID updateNote
// @Accept json
// @Produce json
// @Param id path string true "note id"
// @Param input body noteRequest true "note data"
// @Success 200 {object} noteResponse
// @Failure 400 {object} ValidationErrorStruct
// @Failure 401
// @Failure 404 {object} ErrorStruct
// @Failure 500
// @Security UserAuth
// @Router /notes/{id} [put]
func (h *Handler) updateNote(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	accountID, err := h.getAccountID(c)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusNotFound, NoteNotFoundCode)
		return
	}

	note, err := h.services.Notes.Update(c.Request.Context(), accountID, noteID, service.NoteInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		if errors.Is(err, service.ErrNoteNotFound) {
			errorResponse(c, http.StatusNotFound, NoteNotFoundCode)
			return
		}
		logger.Error("update note failed", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, newNoteResponse(note))
}

// @Summary Delete note
// @Tags Notes
// @Description Deletes a note
// @ModuleID deleteNote
// @Accept json
// @Produce json
// @Param id path string true "note id"
// @Success 204
// @Failure 401
// @Failure 404 {object} ErrorStruct
// @Failure 500
// @Security UserAuth
// @Router /notes/{id} [delete]
func (h *Handler) deleteNote(c *gin.Context) {
	accountID, err := h.getAccountID(c)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusNotFound, NoteNotFoundCode)
		return
	}

	if err := h.services.Notes.Delete(c.Request.Context(), accountID, noteID); err != nil {
		if errors.Is(err, service.ErrNoteNotFound) {
			errorResponse(c, http.StatusNotFound, NoteNotFoundCode)
			return
		}
		logger.Error("delete note failed", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusNoContent)
}
