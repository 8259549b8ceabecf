// Package platform decides which files in the installation directory are
// installed artifacts. The rule depends on the operating system and is
// selected once per process by Default.
package platform

import (
	"io/fs"
	"strings"
)

// Detector reports whether a directory entry is an installed artifact.
type Detector interface {
	// IsArtifact is called with the entry's file name and its Lstat info.
	IsArtifact(name string, info fs.FileInfo) bool

	// Describe is a short human-readable description of the rule.
	Describe() string
}

// ExecBitDetector matches regular files with any executable permission bit
// set. Used on Unix-like systems.
type ExecBitDetector struct{}

func (ExecBitDetector) IsArtifact(name string, info fs.FileInfo) bool {
	if info == nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}

func (ExecBitDetector) Describe() string {
	return "regular files with an executable permission bit"
}

// ExeSuffixDetector matches regular files whose name ends in ".exe"
// (case-insensitive). Used on Windows, where permission bits carry no
// meaning. The package name is the file name, suffix included.
type ExeSuffixDetector struct{}

func (ExeSuffixDetector) IsArtifact(name string, info fs.FileInfo) bool {
	if info == nil || !info.Mode().IsRegular() {
		return false
	}
	return strings.HasSuffix(strings.ToLower(name), ".exe")
}

func (ExeSuffixDetector) Describe() string {
	return "regular files named *.exe"
}
