package util

import (
	"fmt"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/mitchellh/go-ps"
	"golang.org/x/sys/windows"
)

// several sessions may resolve "current" in a row, don't hit the window APIs for each of them
const foregroundCacheTTL = 350 * time.Millisecond

var foregroundCache struct {
	sync.Mutex

	names []string
	at    time.Time
}

// created once, windows only has room for a limited number of callbacks per process
var collectChildCallback = syscall.NewCallback(collectChild)

type childCollector struct {
	seen  map[uint32]struct{}
	names []string
}

func getCurrentWindowProcessNames() ([]string, error) {
	foregroundCache.Lock()
	defer foregroundCache.Unlock()

	if time.Since(foregroundCache.at) < foregroundCacheTTL {
		return foregroundCache.names, nil
	}

	names, err := foregroundProcessNames()
	if err != nil {
		return nil, err
	}

	foregroundCache.names = names
	foregroundCache.at = time.Now()

	return names, nil
}

// foregroundProcessNames lists the foreground window's owner first, then the owners of its child windows.
// UWP apps render inside ApplicationFrameHost.exe, the program playing audio owns one of the child windows.
func foregroundProcessNames() ([]string, error) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return []string{}, nil
	}

	var ownerPID uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &ownerPID); err != nil {
		return nil, fmt.Errorf("get foreground window process: %w", err)
	}

	// the desktop, or a window that's already gone
	if ownerPID == 0 {
		return []string{}, nil
	}

	owner, err := executableName(ownerPID)
	if err != nil {
		return nil, err
	}

	collector := &childCollector{
		seen:  map[uint32]struct{}{ownerPID: {}},
		names: []string{owner},
	}

	windows.EnumChildWindows(hwnd, collectChildCallback, unsafe.Pointer(collector))

	return collector.names, nil
}

func collectChild(child windows.HWND, collector *childCollector) uintptr {

	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(child, &pid); err != nil {
		return 1
	}

	if _, seen := collector.seen[pid]; !seen {
		collector.seen[pid] = struct{}{}

		if name, err := executableName(pid); err == nil {
			collector.names = append(collector.names, name)
		}
	}

	// keep enumerating
	return 1
}

func executableName(pid uint32) (string, error) {
	process, err := ps.FindProcess(int(pid))
	if err != nil {
		return "", fmt.Errorf("find process %d: %w", pid, err)
	}

	if process == nil {
		return "", fmt.Errorf("process %d no longer exists", pid)
	}

	return process.Executable(), nil
}
