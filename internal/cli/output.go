package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
)

// ExitError requests a non-zero exit without printing another message;
// the command has already written its own output.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the requested exit status.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// WriteJSON writes value as indented JSON. A nil slice is written as [].
func WriteJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(normalizeNilSlice(value))
}

func normalizeNilSlice(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return value
}
