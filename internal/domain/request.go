package domain

type RequestKind string

const (
	RequestKindText  RequestKind = "text"
	RequestKindImage RequestKind = "image"
)

// AnalysisRequest es la union etiquetada texto|imagen. Inmutable: los campos son privados y los
// bytes se copian al construir y al leer.
type AnalysisRequest struct {
	kind      RequestKind
	content   string
	data      []byte
	mediaType string
}

// NewTextAnalysisRequest no valida; la normalizacion vive en service.NewTextRequest.
func NewTextAnalysisRequest(content string) AnalysisRequest {
	return AnalysisRequest{kind: RequestKindText, content: content}
}

func NewImageAnalysisRequest(data []byte, mediaType string) AnalysisRequest {
	buf := make([]byte, len(data))
	copy(buf, data)
	return AnalysisRequest{kind: RequestKindImage, data: buf, mediaType: mediaType}
}

func (r AnalysisRequest) Kind() RequestKind { return r.kind }

func (r AnalysisRequest) IsImage() bool { return r.kind == RequestKindImage }

// Content devuelve el texto; vacio para solicitudes de imagen.
func (r AnalysisRequest) Content() string { return r.content }

// Bytes devuelve una copia de la imagen.
func (r AnalysisRequest) Bytes() []byte {
	if r.data == nil {
		return nil
	}
	buf := make([]byte, len(r.data))
	copy(buf, r.data)
	return buf
}

func (r AnalysisRequest) MediaType() string { return r.mediaType }

// Size devuelve el tamano del payload en bytes.
func (r AnalysisRequest) Size() int {
	if r.kind == RequestKindImage {
		return len(r.data)
	}
	return len(r.content)
}
