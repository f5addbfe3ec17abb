package config

// Specification of requested output type.
// ENUM(docx, pdf)
type OutputFmt int

// Specification of image resizing mode.
// ENUM(none, keepAR, stretch)
type ImageResizeMode int

// Specification of named figure display size.
// ENUM(small, medium, large)
type ImageSize int

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtDocx:
		return ".docx"
	case OutputFmtPdf:
		return ".pdf"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// MimeType returns content type of the produced payload.
func (o OutputFmt) MimeType() string {
	switch o {
	case OutputFmtDocx:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case OutputFmtPdf:
		return "application/pdf"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}
