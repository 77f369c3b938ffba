package service

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"health-profiler/internal/domain"
)

// DefaultMaxImageBytes es el techo por defecto para imagenes (5 MiB).
const DefaultMaxImageBytes int64 = 5 * 1024 * 1024

// unknownMediaType es lo que devuelve el sniffer cuando no reconoce los bytes.
const unknownMediaType = "application/octet-stream"

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/heic": true,
	"image/heif": true,
}

// NewTextRequest normaliza una encuesta en texto libre.
func NewTextRequest(text string) (domain.AnalysisRequest, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.AnalysisRequest{}, &InvalidInputError{Reason: "survey text is empty"}
	}
	return domain.NewTextAnalysisRequest(trimmed), nil
}

// NewImageRequest valida tamano y tipo de la imagen. El tipo detectado en los bytes manda sobre el
// declarado; el declarado solo se usa cuando los bytes no se reconocen (application/octet-stream).
func NewImageRequest(data []byte, declaredType string, maxBytes int64) (domain.AnalysisRequest, error) {
	if len(data) == 0 {
		return domain.AnalysisRequest{}, &InvalidInputError{Reason: "no image provided"}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	if int64(len(data)) > maxBytes {
		return domain.AnalysisRequest{}, &InvalidInputError{Reason: "image exceeds the maximum allowed size"}
	}

	mediaType := normalizeMediaType(declaredType)
	sniffed := normalizeMediaType(mimetype.Detect(data).String())
	switch {
	case allowedImageTypes[sniffed]:
		mediaType = sniffed
	case sniffed != unknownMediaType:
		return domain.AnalysisRequest{}, &InvalidInputError{Reason: "unsupported image type"}
	}
	if !allowedImageTypes[mediaType] {
		return domain.AnalysisRequest{}, &InvalidInputError{Reason: "unsupported image type"}
	}

	return domain.NewImageAnalysisRequest(data, mediaType), nil
}

// NewBase64ImageRequest acepta base64 plano o una data URL (data:image/png;base64,...).
func NewBase64ImageRequest(encoded, declaredType string, maxBytes int64) (domain.AnalysisRequest, error) {
	payload := strings.TrimSpace(encoded)
	if strings.HasPrefix(payload, "data:") {
		header, body, ok := strings.Cut(payload, ",")
		if !ok {
			return domain.AnalysisRequest{}, &InvalidInputError{Reason: "malformed data url"}
		}
		if declaredType == "" {
			declaredType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		}
		payload = body
	}
	if payload == "" {
		return domain.AnalysisRequest{}, &InvalidInputError{Reason: "no image provided"}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return domain.AnalysisRequest{}, &InvalidInputError{Reason: "image is not valid base64"}
	}
	return NewImageRequest(data, declaredType, maxBytes)
}

func normalizeMediaType(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "image/jpg" {
		return "image/jpeg"
	}
	return mt
}
