//go:build windows

package pathenv

import (
	"errors"
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/tsukumogami/kpz/internal/config"
)

const (
	environmentKey = `Environment`
	pathValue      = "Path"

	hwndBroadcast   = 0xffff
	wmSettingChange = 0x001A
	smtoAbortIfHung = 0x0002
)

var procSendMessageTimeout = windows.NewLazySystemDLL("user32.dll").NewProc("SendMessageTimeoutW")

// RegistryStore records PATH entries in the per-user environment.
type RegistryStore struct{}

// DefaultStore returns the per-user registry store. The shell_profile
// setting has no effect on Windows.
func DefaultStore(cfg *config.Config) (Store, error) {
	return RegistryStore{}, nil
}

func readUserPath() (registry.Key, string, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, environmentKey, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return 0, "", err
	}
	val, _, err := k.GetStringValue(pathValue)
	if errors.Is(err, registry.ErrNotExist) {
		return k, "", nil
	}
	if err != nil {
		k.Close()
		return 0, "", err
	}
	return k, val, nil
}

func (RegistryStore) Contains(dir string) (bool, error) {
	k, val, err := readUserPath()
	if err != nil {
		return false, err
	}
	defer k.Close()

	for _, entry := range strings.Split(val, ";") {
		if entry != "" && strings.EqualFold(filepath.Clean(entry), filepath.Clean(dir)) {
			return true, nil
		}
	}
	return false, nil
}

func (RegistryStore) Append(dir string) error {
	k, val, err := readUserPath()
	if err != nil {
		return err
	}
	defer k.Close()

	if val != "" && !strings.HasSuffix(val, ";") {
		val += ";"
	}
	if err := k.SetExpandStringValue(pathValue, val+dir); err != nil {
		return err
	}

	broadcastEnvironmentChange()
	return nil
}

// broadcastEnvironmentChange tells running shells and Explorer to reload
// the environment block. Failures are ignored; new logons pick it up anyway.
func broadcastEnvironmentChange() {
	env, err := windows.UTF16PtrFromString(environmentKey)
	if err != nil {
		return
	}
	var result uintptr
	_, _, _ = procSendMessageTimeout.Call(
		hwndBroadcast,
		wmSettingChange,
		0,
		uintptr(unsafe.Pointer(env)),
		smtoAbortIfHung,
		5000,
		uintptr(unsafe.Pointer(&result)),
	)
}

func (RegistryStore) Describe() string {
	return `HKCU\Environment\Path`
}

func (RegistryStore) Hint() string {
	return "Restart your terminal to use installed packages."
}
