package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/akolanti/vellum/internal/adapter"
	"github.com/akolanti/vellum/internal/config"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// the status is already on the wire
		logRH.Error("Error encoding response", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, traceId string, message string) {
	writeJsonResponse(w, httpCode, adapter.ErrorBody(httpCode, message, traceId))
}

func traceOf(ctx context.Context) string {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.Warn("context error", "traceId", traceOf(ctx), "error", ctx.Err())
		return false
	}
	return true
}

// decodeAndValidate reads a JSON body into dst and runs the struct tags.
// An empty body is allowed when allowEmpty is set and leaves dst zeroed.
func decodeAndValidate(r *http.Request, dst interface{}, allowEmpty bool) error {
	if err := decodeJSON(r, dst, allowEmpty); err != nil {
		return err
	}
	return validateStruct(dst)
}

func decodeJSON(r *http.Request, dst interface{}, allowEmpty bool) error {
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close request body", "error", err)
		}
	}(r.Body)

	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	if err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	return nil
}

func validateStruct(dst interface{}) error {
	if err := validate.Struct(dst); err != nil {
		return describeValidation(err)
	}
	return nil
}

func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			parts = append(parts, fe.Field()+" is required")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, ", "))
}

func getTargetDirectory(dir string) (string, error) {
	if dir == "" {
		root, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(root, "temporary_data")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return dir, nil
}
