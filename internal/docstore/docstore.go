// Package docstore is the boundary to binary document storage. The
// certification engine only consumes Validate results and opaque refs;
// durable blob storage is owned by the platform.
package docstore

import (
	"context"
	"net/http"
)

// Metadata describes an uploaded binary.
type Metadata struct {
	FileName    string
	ContentType string
}

// ValidationResult reports whether an upload is acceptable.
type ValidationResult struct {
	Valid  bool
	Reason string
}

// Store is the binary document storage port.
type Store interface {
	Store(ctx context.Context, content []byte, meta Metadata) (ref string, err error)
	Retrieve(ctx context.Context, ref string) ([]byte, error)
}

// Validate checks an upload against a mime-type allowlist and a size limit.
// The content type is sniffed from the bytes rather than trusted from the
// client-provided metadata.
func Validate(content []byte, allowedMimeTypes []string, maxBytes int64) ValidationResult {
	if len(content) == 0 {
		return ValidationResult{Reason: "empty file"}
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return ValidationResult{Reason: "file exceeds size limit"}
	}
	detected := http.DetectContentType(content)
	for _, allowed := range allowedMimeTypes {
		if detected == allowed {
			return ValidationResult{Valid: true}
		}
	}
	return ValidationResult{Reason: "unsupported content type: " + detected}
}
