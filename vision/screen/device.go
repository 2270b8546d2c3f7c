package screen

import (
	"math"
	"path/filepath"
	"strings"
)

// DeviceType is the kind of device a screen most likely belongs to.
type DeviceType string

// Known device types.
const (
	DevicePhone   DeviceType = "phone"
	DeviceTablet  DeviceType = "tablet"
	DeviceLaptop  DeviceType = "laptop"
	DeviceDesktop DeviceType = "desktop"
	DeviceWatch   DeviceType = "watch"
	DeviceUnknown DeviceType = "unknown"
)

// deviceKeywords are checked in order; earlier entries win so "ipad" is not taken for a phone and
// "macbook" not for a desktop.
var deviceKeywords = []struct {
	device   DeviceType
	keywords []string
}{
	{DeviceWatch, []string{"watch"}},
	{DeviceTablet, []string{"ipad", "tablet", "tab"}},
	{DeviceLaptop, []string{"macbook", "laptop", "notebook", "chromebook"}},
	{DeviceDesktop, []string{"imac", "desktop", "monitor", "display"}},
	{DevicePhone, []string{"iphone", "phone", "pixel", "galaxy", "android", "mobile"}},
}

// InferDeviceType guesses the device from the frame file name, falling back to the shape of the
// screen outline.
func InferDeviceType(filenameHint string, cr CornerResult) DeviceType {
	if d := deviceFromName(filenameHint); d != DeviceUnknown {
		return d
	}
	return deviceFromShape(cr)
}

func deviceFromName(fn string) DeviceType {
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(fn), filepath.Ext(fn)))
	if name == "" || name == "." {
		return DeviceUnknown
	}
	tokens := strings.FieldsFunc(name, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, entry := range deviceKeywords {
		for _, kw := range entry.keywords {
			for _, tok := range tokens {
				// short keywords must match a whole token
				if tok == kw || (len(kw) > 3 && strings.Contains(tok, kw)) {
					return entry.device
				}
			}
		}
	}
	return DeviceUnknown
}

func deviceFromShape(cr CornerResult) DeviceType {
	w, h := cr.Corners.Size()
	short, long := math.Min(w, h), math.Max(w, h)
	if short <= 0 {
		return DeviceUnknown
	}
	aspect := long / short
	switch {
	case aspect < 1.15:
		return DeviceWatch
	case cr.Orientation == Portrait && aspect >= 1.7:
		return DevicePhone
	case cr.Orientation == Portrait:
		return DeviceTablet
	case aspect >= 1.7:
		return DeviceDesktop
	case aspect >= 1.45:
		return DeviceLaptop
	default:
		return DeviceTablet
	}
}
