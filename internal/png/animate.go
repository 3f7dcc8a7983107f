package png

import (
	"errors"
	"fmt"
	"io"

	"github.com/kettek/apng"
)

// Animate writes frames as a looping APNG, showing each for frameDelay
// seconds. Every frame must have the dimensions of the first.
func Animate(w io.Writer, frames []*Image, frameDelay float64) error {
	if len(frames) == 0 {
		return errors.New("no frames to animate")
	}

	a := apng.APNG{
		Frames:    make([]apng.Frame, len(frames)),
		LoopCount: 0,
	}

	width, height := frames[0].width, frames[0].height
	for i, img := range frames {
		if img.width != width || img.height != height {
			return fmt.Errorf("frame %d is %dx%d, expected %dx%d", i, img.width, img.height, width, height)
		}
		a.Frames[i] = apng.Frame{
			Image:            img,
			DelayNumerator:   uint16(frameDelay * 1000),
			DelayDenominator: 1000,
		}
	}

	return apng.Encode(w, a)
}
