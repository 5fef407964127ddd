package permission

import "sort"

// Key identifies a permission independent of its native identifier.
type Key string

const (
	Camera          Key = "camera"
	FineLocation    Key = "fineLocation"
	CoarseLocation  Key = "coarseLocation"
	ReadStorage     Key = "readStorage"
	WriteStorage    Key = "writeStorage"
	ManageStorage   Key = "manageStorage"
	ReadMediaVideo  Key = "readMediaVideo"
	ReadMediaImages Key = "readMediaImages"
	ReadMediaAudio  Key = "readMediaAudio"
)

// Keys lists every known key in a stable order.
var Keys = []Key{
	Camera, FineLocation, CoarseLocation,
	ReadStorage, WriteStorage, ManageStorage,
	ReadMediaVideo, ReadMediaImages, ReadMediaAudio,
}

var nativeIDs = map[Key]string{
	Camera:          "android.permission.CAMERA",
	FineLocation:    "android.permission.ACCESS_FINE_LOCATION",
	CoarseLocation:  "android.permission.ACCESS_COARSE_LOCATION",
	ReadStorage:     "android.permission.READ_EXTERNAL_STORAGE",
	WriteStorage:    "android.permission.WRITE_EXTERNAL_STORAGE",
	ManageStorage:   "android.permission.MANAGE_EXTERNAL_STORAGE",
	ReadMediaVideo:  "android.permission.READ_MEDIA_VIDEO",
	ReadMediaImages: "android.permission.READ_MEDIA_IMAGES",
	ReadMediaAudio:  "android.permission.READ_MEDIA_AUDIO",
}

var keysByNativeID = func() map[string]Key {
	m := make(map[string]Key, len(nativeIDs))
	for k, id := range nativeIDs {
		m[id] = k
	}
	return m
}()

// NativeID returns the platform identifier for k.
func (k Key) NativeID() (string, bool) {
	id, ok := nativeIDs[k]
	return id, ok
}

// KeyForNativeID is the inverse of Key.NativeID.
func KeyForNativeID(id string) (Key, bool) {
	k, ok := keysByNativeID[id]
	return k, ok
}

var displayNames = map[Key]string{
	Camera:          "Camera",
	FineLocation:    "Precise Location",
	CoarseLocation:  "Approximate Location",
	ReadStorage:     "Read Storage",
	WriteStorage:    "Write Storage",
	ManageStorage:   "All Files Access",
	ReadMediaVideo:  "Access Videos",
	ReadMediaImages: "Access Images",
	ReadMediaAudio:  "Access Audio",
}

var descriptions = map[Key]string{
	Camera:          "Take photos and record videos",
	FineLocation:    "Access your precise location using GPS",
	CoarseLocation:  "Access your approximate location",
	ReadStorage:     "Read files from device storage",
	WriteStorage:    "Write files to device storage",
	ManageStorage:   "Access all files on your device",
	ReadMediaVideo:  "Access video files on your device",
	ReadMediaImages: "Access image files on your device",
	ReadMediaAudio:  "Access audio files on your device",
}

// DisplayName returns a human-readable name, falling back to the key itself.
func (k Key) DisplayName() string {
	if n, ok := displayNames[k]; ok {
		return n
	}
	return string(k)
}

// Description explains what the permission is used for.
func (k Key) Description() string {
	if d, ok := descriptions[k]; ok {
		return d
	}
	return "Required for app functionality"
}

// GrantState is the provider's answer for a single permission.
type GrantState string

const (
	Granted     GrantState = "granted"
	Denied      GrantState = "denied"
	Blocked     GrantState = "blocked"
	Limited     GrantState = "limited"
	Unavailable GrantState = "unavailable"
)

// Status maps each queried key to whether it is granted. Keys that were not
// queried are absent.
type Status map[Key]bool

// Descriptor is the display form of a single permission.
type Descriptor struct {
	Key         Key
	DisplayName string
	Description string
	Granted     bool
	Required    bool
}

// VersionInfo is a snapshot of the platform generation flags for one SDK level.
type VersionInfo struct {
	Version   int
	IsV6Plus  bool
	IsV10Plus bool
	IsV11Plus bool
	IsV12Plus bool
	IsV13Plus bool
	IsV14Plus bool
}

// Classify derives the generation flags for an SDK level.
func Classify(version int) VersionInfo {
	return VersionInfo{
		Version:   version,
		IsV6Plus:  version >= 23,
		IsV10Plus: version >= 29,
		IsV11Plus: version >= 30,
		IsV12Plus: version >= 31,
		IsV13Plus: version >= 33,
		IsV14Plus: version >= 34,
	}
}

// Details builds descriptors for every key present in status, required first,
// then alphabetically by display name.
func Details(status Status, info VersionInfo) []Descriptor {
	details := make([]Descriptor, 0, len(status))
	for k, granted := range status {
		details = append(details, Descriptor{
			Key:         k,
			DisplayName: k.DisplayName(),
			Description: k.Description(),
			Granted:     granted,
			Required:    IsRequired(k, info),
		})
	}
	sort.Slice(details, func(i, j int) bool {
		if details[i].Required != details[j].Required {
			return details[i].Required
		}
		return details[i].DisplayName < details[j].DisplayName
	})
	return details
}
