package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"farmvet-auth.backend/internal/domain/entities"
	domainerrors "farmvet-auth.backend/internal/domain/errors"
	"farmvet-auth.backend/internal/interfaces/http/response"
)

// maxUploadBytes caps how much of one uploaded file is read into memory
const maxUploadBytes = 8 << 20

// RegistrationHandler handles account sign up
type RegistrationHandler struct {
	registration RegistrationService
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registration RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registration: registration}
}

// Register creates a farmer or vet account from a multipart form
// POST /api/v1/auth/register/
func (h *RegistrationHandler) Register(c *gin.Context) {
	input := &entities.RegisterInput{
		Username:       c.PostForm("username"),
		Email:          c.PostForm("email"),
		FullName:       c.PostForm("full_name"),
		Address:        c.PostForm("address"),
		Password:       c.PostForm("password"),
		Phone:          c.PostForm("phone"),
		Role:           entities.Role(c.PostForm("role")),
		FarmName:       c.PostForm("farm_name"),
		Specialization: c.PostForm("specialization"),
	}

	var err error
	if input.NIDPhoto, err = formDocument(c, "nid_photo"); err != nil {
		response.Error(c, err)
		return
	}
	if input.CertificatePhoto, err = formDocument(c, "certificate_photo"); err != nil {
		response.Error(c, err)
		return
	}

	account, err := h.registration.Register(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "User registered. Check email for verification.",
		"user":    account.Summary(),
	})
}

// formDocument reads an optional file field; a missing field yields nil
func formDocument(c *gin.Context, field string) (*entities.Document, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, domainerrors.BadRequest("Invalid multipart form.")
	}
	return readDocument(header, field)
}

func readDocument(header *multipart.FileHeader, field string) (*entities.Document, error) {
	if header.Size > maxUploadBytes {
		verr := &domainerrors.ValidationError{}
		verr.Add(field, "File is too large.")
		return nil, verr
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	return &entities.Document{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  content,
	}, nil
}
