// Package tags holds the catalog of recognized EXIF field identifiers and
// their privacy categories. The table is static and built once at init.
package tags

// ID names one metadata field using its ExifTool tag name.
type ID string

// Category classifies a field's privacy sensitivity.
type Category int

const (
	Location Category = iota
	DeviceIdentifier
	PersonalInfo
	Temporal
	Software
	Metadata
	Other
)

func (c Category) String() string {
	switch c {
	case Location:
		return "Location Data"
	case DeviceIdentifier:
		return "Device Identifier"
	case PersonalInfo:
		return "Personal Information"
	case Temporal:
		return "Timestamp"
	case Software:
		return "Software Information"
	case Metadata:
		return "Metadata"
	default:
		return "Other"
	}
}

// gpsIDs covers the full GPS IFD. All of these are removed at every privacy
// level.
var gpsIDs = []ID{
	"GPSVersionID",
	"GPSLatitudeRef",
	"GPSLatitude",
	"GPSLongitudeRef",
	"GPSLongitude",
	"GPSAltitudeRef",
	"GPSAltitude",
	"GPSTimeStamp",
	"GPSSatellites",
	"GPSStatus",
	"GPSMeasureMode",
	"GPSDOP",
	"GPSSpeedRef",
	"GPSSpeed",
	"GPSTrackRef",
	"GPSTrack",
	"GPSImgDirectionRef",
	"GPSImgDirection",
	"GPSMapDatum",
	"GPSDestLatitudeRef",
	"GPSDestLatitude",
	"GPSDestLongitudeRef",
	"GPSDestLongitude",
	"GPSDestBearingRef",
	"GPSDestBearing",
	"GPSDestDistanceRef",
	"GPSDestDistance",
	"GPSProcessingMethod",
	"GPSAreaInformation",
	"GPSDateStamp",
	"GPSDifferential",
}

var deviceIDs = []ID{
	"SerialNumber",
	"LensSerialNumber",
	"BodySerialNumber",
	"InternalSerialNumber",
	"UniqueCameraModel",
}

var personalIDs = []ID{
	"CameraOwnerName",
	"Artist",
	"Copyright",
	"UserComment",
	"XPTitle",
	"XPComment",
	"XPAuthor",
	"XPKeywords",
	"XPSubject",
}

var temporalIDs = []ID{
	"DateTime",
	"DateTimeOriginal",
	"DateTimeDigitized",
	"SubSecTime",
	"SubSecTimeOriginal",
	"SubSecTimeDigitized",
}

var softwareIDs = []ID{
	"Software",
	"ProcessingSoftware",
	"HostComputer",
}

var metadataIDs = []ID{
	"ImageDescription",
	"DocumentName",
	"PageName",
}

// essentialIDs are the camera settings preserved by the paranoid whitelist.
var essentialIDs = []ID{
	"ExposureTime",
	"FNumber",
	"ISO",
	"ISOSpeedRatings",
	"FocalLength",
	"FocalLengthIn35mmFilm",
	"ExposureProgram",
	"MeteringMode",
	"Flash",
	"ColorSpace",
	"WhiteBalance",
	"ExposureMode",
	"SceneCaptureType",
	"Contrast",
	"Saturation",
	"Sharpness",
	"Make",
	"Model",
	"Orientation",
	"XResolution",
	"YResolution",
	"ResolutionUnit",
	"YCbCrPositioning",
	"ExifVersion",
	"ComponentsConfiguration",
	"CompressedBitsPerPixel",
	"PixelXDimension",
	"PixelYDimension",
}

var groups = []struct {
	category Category
	ids      []ID
}{
	{Location, gpsIDs},
	{DeviceIdentifier, deviceIDs},
	{PersonalInfo, personalIDs},
	{Temporal, temporalIDs},
	{Software, softwareIDs},
	{Metadata, metadataIDs},
	{Other, essentialIDs},
}

var categoryByID map[ID]Category

func init() {
	categoryByID = make(map[ID]Category)
	for _, group := range groups {
		for _, id := range group.ids {
			categoryByID[id] = group.category
		}
	}
}

// CategoryOf returns the privacy category of a field. Identifiers that are
// not in the catalog map to Other.
func CategoryOf(id ID) Category {
	if category, ok := categoryByID[id]; ok {
		return category
	}
	return Other
}

// ByCategory returns the cataloged identifiers of one category in catalog
// order. Other yields the essential camera settings, the only cataloged IDs
// in that bucket.
func ByCategory(category Category) []ID {
	for _, group := range groups {
		if group.category == category {
			return append([]ID(nil), group.ids...)
		}
	}
	return nil
}

// Catalog returns every cataloged identifier in a fixed order.
func Catalog() []ID {
	var all []ID
	for _, group := range groups {
		all = append(all, group.ids...)
	}
	return all
}

// Essential returns the paranoid-whitelist identifiers in catalog order.
func Essential() []ID {
	return append([]ID(nil), essentialIDs...)
}

// IsEssential reports whether id is an essential camera setting.
func IsEssential(id ID) bool {
	for _, essential := range essentialIDs {
		if id == essential {
			return true
		}
	}
	return false
}
