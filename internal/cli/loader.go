package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// SourceError is returned when scenario text cannot be read.
type SourceError struct {
	Code    string
	Path    string
	Message string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
}

// readSource reads scenario text from path, or from stdin when path is "-".
func readSource(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", &SourceError{Code: ErrCodeReadFailed, Path: "<stdin>", Message: err.Error()}
		}
		return string(data), nil
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", &SourceError{Code: ErrCodeNotFound, Path: path, Message: "file not found"}
	}
	if err != nil {
		return "", &SourceError{Code: ErrCodeReadFailed, Path: path, Message: err.Error()}
	}
	if info.IsDir() {
		return "", &SourceError{Code: ErrCodeReadFailed, Path: path, Message: "is a directory"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &SourceError{Code: ErrCodeReadFailed, Path: path, Message: err.Error()}
	}
	return string(data), nil
}

// sourceErrorCode extracts the error code from a readSource error.
func sourceErrorCode(err error) string {
	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		return srcErr.Code
	}
	return ErrCodeGeneric
}
