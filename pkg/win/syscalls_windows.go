package win

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procQueryFullProcessImageName = modkernel32.NewProc("QueryFullProcessImageNameW")
)

const (
	PROCESS_NAME_WIN32  = 0x0
	PROCESS_NAME_NATIVE = 0x1
)

// drive letters are 4 UTF-16 units each ("C:\" and a terminator), 26 of them at most
const logicalDriveStringsLength = 26*4 + 1

func retErr(r1, _ uintptr, lastErr error) (err error) {
	if r1 == 0 {
		err = lastErr
	}

	return
}

// QueryFullProcessImageName returns the executable path of the given process, in the form selected by flags
func QueryFullProcessImageName(process windows.Handle, flags uint32) (string, error) {
	buf := make([]uint16, windows.MAX_LONG_PATH)
	size := uint32(len(buf))

	err := retErr(procQueryFullProcessImageName.Call(
		uintptr(process),
		uintptr(flags),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size))))

	if err != nil {
		return "", err
	}

	return windows.UTF16ToString(buf[:size]), nil
}

// DosDevices maps the native device name behind every logical drive to its drive letter,
// e.g. "\Device\HarddiskVolume3" -> "C:"
func DosDevices() (map[string]string, error) {
	drives := make([]uint16, logicalDriveStringsLength)

	n, err := windows.GetLogicalDriveStrings(uint32(len(drives)), &drives[0])
	if err != nil {
		return nil, fmt.Errorf("get logical drive strings: %w", err)
	}

	devices := map[string]string{}
	target := make([]uint16, windows.MAX_PATH)

	// the buffer holds "C:\", "D:\", ... each terminated by a null character
	for _, root := range splitMultiString(drives[:n]) {
		if len(root) < 2 {
			continue
		}

		drive := root[:2]

		drivePtr, err := windows.UTF16PtrFromString(drive)
		if err != nil {
			continue
		}

		if _, err := windows.QueryDosDevice(drivePtr, &target[0], uint32(len(target))); err != nil {
			// unmapped network drives and empty card readers end up here
			continue
		}

		devices[windows.UTF16ToString(target)] = drive
	}

	return devices, nil
}

func splitMultiString(buf []uint16) []string {
	result := []string{}
	start := 0

	for idx, c := range buf {
		if c == 0 {
			if idx > start {
				result = append(result, windows.UTF16ToString(buf[start:idx]))
			}
			start = idx + 1
		}
	}

	return result
}
