package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode"

	"nextfilm/internal/middleware"
	"nextfilm/internal/models"
	"nextfilm/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// allowedImageTypes are the upload MIME types accepted for avatars, posts and reviews.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Pagination holds parsed page/limit query parameters.
type Pagination struct {
	Page  int
	Limit int
}

// parsePagination extracts page and limit query parameters. Out-of-range
// values are clamped by the feed service.
func parsePagination(c *fiber.Ctx) Pagination {
	return Pagination{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", service.DefaultPageSize),
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "userId" -> "Invalid user ID", "commentId" -> "Invalid comment ID").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// currentUserID returns the authenticated caller. Routes behind RequireIdentity
// always have one; the check covers misrouted handlers.
func currentUserID(c *fiber.Ctx) (uint, error) {
	uid, ok := middleware.UserIDFrom(c)
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthenticatedError("Authentication required"))
		return 0, errResponseWritten
	}
	return uid, nil
}

// viewerID is the caller's id on optional-auth routes, 0 when anonymous.
func viewerID(c *fiber.Ctx) uint {
	uid, _ := middleware.UserIDFrom(c)
	return uid
}

// isMultipart reports whether the request body is multipart/form-data.
func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// formString returns a pointer to a form value when the field was sent, nil otherwise.
func formString(c *fiber.Ctx, field string) *string {
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil
		}
		if values := form.Value[field]; len(values) > 0 {
			v := values[0]
			return &v
		}
		return nil
	}
	args := c.Request().PostArgs()
	if !args.Has(field) {
		return nil
	}
	v := string(args.Peek(field))
	return &v
}

// readImage loads the optional upload in field. A request without the field
// yields nil. Oversized or non-image files are answered here with 413 or 400.
func (s *Server) readImage(c *fiber.Ctx, field string) (*service.Image, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid multipart body"))
		return nil, errResponseWritten
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]

	maxBytes := s.config.UploadMaxBytes()
	if fh.Size > maxBytes {
		_ = models.RespondWithError(c, fiber.StatusRequestEntityTooLarge,
			models.NewValidationError(fmt.Sprintf("File too large; the limit is %d MB", maxBytes/(1024*1024))))
		return nil, errResponseWritten
	}

	contentType, _, err := mime.ParseMediaType(fh.Header.Get(fiber.HeaderContentType))
	if err != nil || !allowedImageTypes[strings.ToLower(contentType)] {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid file type"))
		return nil, errResponseWritten
	}

	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if int64(len(data)) > maxBytes {
		_ = models.RespondWithError(c, fiber.StatusRequestEntityTooLarge,
			models.NewValidationError(fmt.Sprintf("File too large; the limit is %d MB", maxBytes/(1024*1024))))
		return nil, errResponseWritten
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &service.Image{Data: data, ContentType: strings.ToLower(contentType)}, nil
}

// respondError writes err unless a helper already did.
func respondError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errResponseWritten) {
		return nil
	}
	return models.RespondWithAppError(c, err)
}
