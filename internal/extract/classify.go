package extract

import (
	"path/filepath"
	"strings"
)

// Kind selects how an entry is processed.
type Kind int

const (
	// KindRaw entries are written verbatim.
	KindRaw Kind = iota
	// KindCompressedArchive entries (.lzs) are decompressed and, when
	// recursive, expanded into their flat entries.
	KindCompressedArchive
	// KindImage entries (.tm2) may carry a compressed image that is
	// unwrapped before writing.
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "Raw"
	case KindCompressedArchive:
		return "CompressedArchive"
	case KindImage:
		return "Image"
	default:
		return "Unknown"
	}
}

// Extensions used to classify and rename entries.
const (
	ExtCompressed = ".lzs"
	ExtImage      = ".tm2"
	ExtPNG        = ".png"
	ExtDecoded    = ".bin"
)

// Classify maps an entry name to the processing it needs, by extension.
func Classify(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtCompressed:
		return KindCompressedArchive
	case ExtImage:
		return KindImage
	default:
		return KindRaw
	}
}
