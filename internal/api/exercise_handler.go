package api

import (
	"errors"
	"net/http"
	"strconv"

	"alcyxob/team-points/internal/service"

	"github.com/gin-gonic/gin"
)

const maxImageSize = 10 << 20

// ExerciseHandler holds the exercise service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// UploadURLRequest asks for a presigned PUT for an exercise image.
type UploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
	Filename    string `json:"filename" binding:"required"`
}

// CreateExercise godoc
// @Summary Create a new exercise
// @Description Multipart form: title, description, points, optional image file or imageKey.
// @Tags Exercises
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 201 {object} domain.AwardableItem
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 503 {object} gin.H "Image storage unavailable"
// @Router /coach/exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	points, err := strconv.Atoi(c.PostForm("points"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "points must be an integer")
		return
	}
	in := service.NewExercise{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Points:      points,
		ImageKey:    c.PostForm("imageKey"),
	}

	fileHeader, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		abortWithError(c, http.StatusBadRequest, "Invalid image upload: "+err.Error())
		return
	default:
		if fileHeader.Size > maxImageSize {
			abortWithError(c, http.StatusBadRequest, "image is too large")
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Could not read image upload.")
			return
		}
		defer file.Close()
		in.Image = &service.Image{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
			Body:        file,
		}
	}

	exercise, err := h.exerciseService.CreateExercise(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exercise)
}

// ImageUploadURL godoc
// @Summary Get a presigned URL for uploading an exercise image
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UploadURLRequest true "Image details"
// @Success 200 {object} service.UploadTarget
// @Router /coach/exercises/upload-url [post]
func (h *ExerciseHandler) ImageUploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	target, err := h.exerciseService.ImageUploadURL(c.Request.Context(), req.ContentType, req.Filename)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, target)
}

// ListExercises godoc
// @Summary List all exercises
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.AwardableItem
// @Router /exercises [get]
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	exercises, err := h.exerciseService.ListExercises(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercises)
}

// DeleteExercise godoc
// @Summary Delete an exercise
// @Tags Exercises
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Success 204
// @Router /coach/exercises/{id} [delete]
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	if err := h.exerciseService.DeleteExercise(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
