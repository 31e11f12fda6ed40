package normalise

import "fmt"

// pcmDefault is the codec used when the input bit depth is unknown or
// unsupported.
const pcmDefault = "pcm_s16le"

// PCMCodec selects the uncompressed PCM codec matching a stream's bit
// depth, for when the pipeline re-encodes to an uncompressed intermediate.
// A bit depth of 0 means unknown and yields the 16-bit default. Unsupported
// depths fall back to the default; warn is non-nil in that case, names the
// offending depth, and is advisory only.
func PCMCodec(bitDepth int) (codec string, warn error) {
	switch {
	case bitDepth == 0:
		return pcmDefault, nil
	case bitDepth <= 8:
		return "pcm_s8", nil
	case bitDepth == 16 || bitDepth == 24 || bitDepth == 32 || bitDepth == 64:
		return fmt.Sprintf("pcm_s%dle", bitDepth), nil
	default:
		return pcmDefault, fmt.Errorf("unsupported bit depth %d, falling back to %s", bitDepth, pcmDefault)
	}
}
