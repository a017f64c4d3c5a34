package core

import (
	"path"
	"strings"
)

// Kind is the resolved document category. It is fixed at ingestion time and
// carried by the storage name's extension from then on.
type Kind int

const (
	KindUnknown Kind = iota
	KindPDF
	KindText
)

const (
	MediaTypePDF  = "application/pdf"
	MediaTypeText = "text/plain"
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Extension returns the storage-name suffix for k, including the dot.
func (k Kind) Extension() string {
	switch k {
	case KindPDF:
		return ".pdf"
	case KindText:
		return ".txt"
	default:
		return ""
	}
}

// MediaType returns the canonical media type for k.
func (k Kind) MediaType() string {
	switch k {
	case KindPDF:
		return MediaTypePDF
	case KindText:
		return MediaTypeText
	default:
		return "application/octet-stream"
	}
}

// KindFromStorageName maps a stored name back to its kind by extension.
func KindFromStorageName(name string) Kind {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return KindPDF
	case ".txt":
		return KindText
	default:
		return KindUnknown
	}
}
