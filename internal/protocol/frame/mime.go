package frame

const (
	TagPNG  uint8 = 1
	TagJPEG uint8 = 2
	TagWebP uint8 = 3
)

const (
	MediaPNG  = "image/png"
	MediaJPEG = "image/jpeg"
	MediaWebP = "image/webp"

	// DefaultMediaType is reported for any tag outside the table.
	DefaultMediaType = MediaPNG
)

var mediaTypes = map[uint8]string{
	TagPNG:  MediaPNG,
	TagJPEG: MediaJPEG,
	TagWebP: MediaWebP,
}

// MediaTypeFor maps every possible tag to a media type.
func MediaTypeFor(tag uint8) string {
	if mt, ok := mediaTypes[tag]; ok {
		return mt
	}
	return DefaultMediaType
}

// TagFor is the inverse of MediaTypeFor; unknown media types map to TagPNG.
func TagFor(mediaType string) uint8 {
	for tag, mt := range mediaTypes {
		if mt == mediaType {
			return tag
		}
	}
	return TagPNG
}
