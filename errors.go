// Copyright 2026 The RAGPrepTool Authors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package ragprep

import (
	"errors"
	"fmt"
	"strings"
)

// UnsupportedFormatError is returned when a source file's extension maps to
// no extraction path. The document is rejected before any processing work.
type UnsupportedFormatError struct {
	Filename  string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	parts := []string{"unsupported format"}
	if e.Filename != "" {
		parts = append(parts, fmt.Sprintf("file=%q", e.Filename))
	}
	if e.Extension != "" {
		parts = append(parts, fmt.Sprintf("extension=%q", e.Extension))
	}
	return strings.Join(parts, " ")
}

// CorruptDocumentError is returned when a source file cannot be opened or
// parsed at all. A single failing page does not produce this error.
type CorruptDocumentError struct {
	Filename string
	Err      error
}

func (e *CorruptDocumentError) Error() string {
	return fmt.Sprintf("corrupt document %q: %v", e.Filename, e.Err)
}

func (e *CorruptDocumentError) Unwrap() error { return e.Err }

// ConverterUnavailableError is returned for converter-managed documents when
// the external converter binary was not found at startup. The probe runs once
// per run, not per file.
type ConverterUnavailableError struct {
	Binary string
}

func (e *ConverterUnavailableError) Error() string {
	return fmt.Sprintf("external converter %q not found in PATH", e.Binary)
}

// ConversionFailedError is returned when the external converter subprocess
// exits non-zero for a single document.
type ConversionFailedError struct {
	Filename string
	ExitCode int
	Stderr   string
}

func (e *ConversionFailedError) Error() string {
	msg := fmt.Sprintf("conversion of %q failed with exit code %d", e.Filename, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + firstLine(s)
	}
	return msg
}

// UnsupportedImageFormatError is returned by the image normalizer when raw
// bytes cannot be decoded. Callers drop the image and continue.
type UnsupportedImageFormatError struct {
	Err error
}

func (e *UnsupportedImageFormatError) Error() string {
	return fmt.Sprintf("unsupported image format: %v", e.Err)
}

func (e *UnsupportedImageFormatError) Unwrap() error { return e.Err }

// RemoteFetchError records one failed remote image fetch. It is accumulated
// in the conversion result, never returned to the caller.
type RemoteFetchError struct {
	URL string
	Err error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("remote fetch of %q failed: %v", e.URL, e.Err)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }

// IsUnsupportedFormat reports whether the error is an UnsupportedFormatError.
func IsUnsupportedFormat(err error) bool {
	var target *UnsupportedFormatError
	return errors.As(err, &target)
}

// IsConverterUnavailable reports whether the error is a ConverterUnavailableError.
func IsConverterUnavailable(err error) bool {
	var target *ConverterUnavailableError
	return errors.As(err, &target)
}

// IsCorruptDocument reports whether the error is a CorruptDocumentError.
func IsCorruptDocument(err error) bool {
	var target *CorruptDocumentError
	return errors.As(err, &target)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
