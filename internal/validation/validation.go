// Package validation checks user-entered forms before they are sent to the
// backend, so obviously bad input fails fast with a readable message.
package validation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// MaxImageBytes is the largest image accepted for upload.
const MaxImageBytes = 5 << 20

var (
	ErrNotImage      = errors.New("please select a valid image file")
	ErrImageTooLarge = errors.New("image size must be less than 5MB")
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Get returns the shared validator with the custom tags registered.
func Get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err := v.RegisterValidation("clock", validateClock); err != nil {
			panic(err)
		}
		instance = v
	})
	return instance
}

func validateClock(fl validator.FieldLevel) bool {
	_, ok := model.ParseClock(fl.Field().String())
	return ok
}

// Error lists every failing field of a form.
type Error struct {
	Fields []FieldError
}

// FieldError is one failing field.
type FieldError struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	messages := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

// Struct validates payload and converts validator failures into *Error.
func Struct(ctx context.Context, payload any) error {
	err := Get().StructCtx(ctx, payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, len(fieldErrs))}
	for i, fe := range fieldErrs {
		out.Fields[i] = FieldError{Field: fe.Field(), Message: describe(fe)}
	}
	return out
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date like %s", field, model.DateLayout)
	case "clock":
		return fmt.Sprintf("%s must be a time like 18:30", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("invalid '%s' with value '%v'", field, fe.Value())
	}
}

// Draft normalizes and validates an event draft in place.
func Draft(ctx context.Context, draft *model.EventDraft) error {
	draft.Normalize()
	return Struct(ctx, draft)
}

// Attendee validates an attendee registration form.
func Attendee(ctx context.Context, info *model.AttendeeInfo) error {
	info.Name = strings.TrimSpace(info.Name)
	info.Email = strings.TrimSpace(info.Email)
	info.Phone = strings.TrimSpace(info.Phone)
	info.SpecialRequests = strings.TrimSpace(info.SpecialRequests)
	return Struct(ctx, info)
}

// Account validates an account registration form.
func Account(ctx context.Context, req *model.AccountRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	return Struct(ctx, req)
}

// Credentials validates a login form.
func Credentials(ctx context.Context, creds *model.Credentials) error {
	creds.Email = strings.TrimSpace(creds.Email)
	return Struct(ctx, creds)
}

// Image checks that content looks like an image and is within
// MaxImageBytes. size is the declared length; the first 512 bytes of
// content are sniffed and name's extension is the fallback.
func Image(name string, size int64, content io.ReaderAt) error {
	if size > MaxImageBytes {
		return ErrImageTooLarge
	}

	head := make([]byte, 512)
	n, err := content.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		return nil
	}
	if strings.HasPrefix(mime.TypeByExtension(strings.ToLower(filepath.Ext(name))), "image/") && n > 0 {
		return nil
	}
	return ErrNotImage
}
