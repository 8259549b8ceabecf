//go:build windows

package platform

// Default returns the detector for the running operating system.
func Default() Detector {
	return ExeSuffixDetector{}
}
