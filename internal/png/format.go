package png

// Format is a container format recognised by its leading magic bytes.
type Format int

const (
	FormatUnknown Format = iota
	FormatPNG
	FormatJPEG
	FormatGIF
	FormatWebP
)

const pngSignature = "\x89PNG\r\n\x1a\n"

// Signatures are checked in this order. RIFF alone does not prove WebP (that
// needs "WEBP" at offset 8) but it is enough to refuse the input early.
var magicBytes = []struct {
	signature string
	format    Format
}{
	{pngSignature, FormatPNG},
	{"\xff\xd8\xff", FormatJPEG},
	{"GIF87a", FormatGIF},
	{"GIF89a", FormatGIF},
	{"RIFF", FormatWebP},
}

// Sniff classifies b by the first registered signature it starts with.
func Sniff(b []byte) Format {
	for _, m := range magicBytes {
		if len(b) >= len(m.signature) && string(b[:len(m.signature)]) == m.signature {
			return m.format
		}
	}
	return FormatUnknown
}

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatGIF:
		return "gif"
	case FormatWebP:
		return "webp"
	default:
		return "unknown"
	}
}
