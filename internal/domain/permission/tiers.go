package permission

// baseKeys are required on every platform generation.
var baseKeys = []Key{Camera, FineLocation, CoarseLocation}

// Tier is a version-banded group of storage keys that are jointly sufficient
// for storage access. AnyOf tiers are satisfied by a single granted key.
type Tier struct {
	Name       string
	MinVersion int
	Keys       []Key
	AnyOf      bool
}

// storageTiers is ordered by descending MinVersion; the first match wins.
var storageTiers = []Tier{
	{Name: "granular-media", MinVersion: 33, Keys: []Key{ReadMediaVideo, ReadMediaImages}},
	{Name: "scoped-broad", MinVersion: 30, Keys: []Key{ManageStorage, ReadStorage}, AnyOf: true},
	{Name: "scoped", MinVersion: 29, Keys: []Key{ReadStorage}},
	{Name: "legacy", MinVersion: 0, Keys: []Key{ReadStorage, WriteStorage}},
}

// StorageTier returns the storage tier active for info.
func StorageTier(info VersionInfo) Tier {
	for _, t := range storageTiers {
		if info.Version >= t.MinVersion {
			return t
		}
	}
	return storageTiers[len(storageTiers)-1]
}

// specialKeys need individual handling: they are granted from system settings
// rather than a runtime dialog.
func specialKeys(info VersionInfo) []Key {
	if info.IsV11Plus {
		return []Key{ManageStorage}
	}
	return nil
}

func isSpecial(k Key, info VersionInfo) bool {
	for _, s := range specialKeys(info) {
		if s == k {
			return true
		}
	}
	return false
}

// RequiredKeys returns the base keys plus the keys of the active storage tier.
// For an AnyOf tier the caller needs only one of the tier keys granted.
func RequiredKeys(info VersionInfo) []Key {
	keys := append([]Key(nil), baseKeys...)
	return append(keys, StorageTier(info).Keys...)
}

// regularKeys are the required keys requested through the runtime dialog.
func regularKeys(info VersionInfo) []Key {
	var keys []Key
	for _, k := range RequiredKeys(info) {
		if !isSpecial(k, info) {
			keys = append(keys, k)
		}
	}
	return keys
}

// IsRequired reports whether k is needed on the platform described by info.
// It never depends on grant state.
func IsRequired(k Key, info VersionInfo) bool {
	for _, r := range RequiredKeys(info) {
		if r == k {
			return true
		}
	}
	return false
}

// IsSatisfied evaluates status against the requirements for info.
func IsSatisfied(status Status, info VersionInfo) bool {
	if !status[Camera] {
		return false
	}
	if !status[FineLocation] && !status[CoarseLocation] {
		return false
	}
	tier := StorageTier(info)
	if tier.AnyOf {
		for _, k := range tier.Keys {
			if status[k] {
				return true
			}
		}
		return false
	}
	for _, k := range tier.Keys {
		if !status[k] {
			return false
		}
	}
	return true
}

// Denied lists the required keys in status that are not granted, in Keys order.
func Denied(status Status, info VersionInfo) []Key {
	var out []Key
	for _, k := range Keys {
		granted, queried := status[k]
		if queried && !granted && IsRequired(k, info) {
			out = append(out, k)
		}
	}
	return out
}

// NeedsSettings reports whether some permissions on this generation can only
// be granted from the system settings screen.
func NeedsSettings(info VersionInfo) bool {
	return info.IsV11Plus
}
