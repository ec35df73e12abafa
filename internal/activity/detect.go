package activity

import "bytes"

// Format identifies an activity file encoding.
type Format string

const (
	FormatUnknown Format = ""
	FormatTCX     Format = "tcx"
	FormatFIT     Format = "fit"
)

// DetectFormat sniffs the file header. FIT files carry ".FIT" at bytes 8-12;
// TCX files are XML with a TrainingCenterDatabase root.
func DetectFormat(data []byte) Format {
	if len(data) >= 12 && string(data[8:12]) == ".FIT" {
		return FormatFIT
	}

	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.TrimLeft(head, "\xef\xbb\xbf \t\r\n")
	if bytes.Contains(head, []byte("TrainingCenterDatabase")) {
		return FormatTCX
	}
	if bytes.HasPrefix(head, []byte("<?xml")) {
		return FormatTCX
	}
	return FormatUnknown
}

// Parse detects the format and decodes the document.
func Parse(data []byte) (Document, error) {
	switch DetectFormat(data) {
	case FormatFIT:
		return ParseFIT(data)
	case FormatTCX:
		return ParseTCX(data)
	default:
		return Document{}, ErrUnknownFormat
	}
}
