package win

import "strings"

const (
	devicePrefix = `\Device\`

	// network paths are served by the multiple UNC provider
	mupDevice = `\Device\Mup`
)

// IsDevicePath reports whether path is in native device form (\Device\HarddiskVolume3\...)
func IsDevicePath(path string) bool {
	return hasPrefixFold(path, devicePrefix)
}

// TranslateDevicePath turns a native device path into a regular filesystem path, given a map
// of device names to drive letters (see DosDevices). \Device\HarddiskVolume3\Apps\demo.exe becomes
// C:\Apps\demo.exe and \Device\Mup\server\share\demo.exe becomes \\server\share\demo.exe.
// The second return value is false if no device matched.
func TranslateDevicePath(path string, devices map[string]string) (string, bool) {
	if !IsDevicePath(path) {
		return path, true
	}

	if rest, ok := trimDevice(path, mupDevice); ok && rest != "" {
		return `\` + rest, true
	}

	for device, drive := range devices {
		if rest, ok := trimDevice(path, device); ok {
			if rest == "" {
				rest = `\`
			}

			return drive + rest, true
		}
	}

	return path, false
}

// trimDevice strips device off the front of path, but only on a path separator boundary:
// \Device\HarddiskVolume1 must not match \Device\HarddiskVolume10\...
func trimDevice(path string, device string) (string, bool) {
	if !hasPrefixFold(path, device) {
		return "", false
	}

	rest := path[len(device):]
	if rest != "" && rest[0] != '\\' {
		return "", false
	}

	return rest, true
}

func hasPrefixFold(s string, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
