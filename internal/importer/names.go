package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxNameBytes = 255

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// DirName builds the directory name of an imported recording: device, participant (when known)
// and recording name joined by underscores, made safe for the filesystem.
func DirName(device, participant, name string) string {
	var raw string
	if participant != "" {
		raw = fmt.Sprintf("%s_%s_%s", device, participant, name)
	} else {
		raw = fmt.Sprintf("%s_%s", device, name)
	}
	return Sanitize(raw)
}

// Sanitize strips characters that are invalid in file names on common platforms.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
		case strings.ContainsRune(`\/:*?"<>|`, r):
		case r == utf8.RuneError:
		default:
			b.WriteRune(r)
		}
	}

	out := strings.TrimRightFunc(b.String(), func(r rune) bool { return r == '.' || unicode.IsSpace(r) })
	out = strings.TrimLeftFunc(out, unicode.IsSpace)

	if base, _, _ := strings.Cut(out, "."); reservedNames[strings.ToUpper(base)] {
		out = "_" + out
	}
	for len(out) > maxNameBytes {
		_, size := utf8.DecodeLastRuneInString(out)
		out = out[:len(out)-size]
	}
	if out == "" {
		out = "recording"
	}
	return out
}

// UniqueDir returns name, or name_1, name_2, ... whichever does not exist yet under parent.
func UniqueDir(parent, name string) string {
	if !exists(filepath.Join(parent, name)) {
		return name
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d", name, n)
		if !exists(filepath.Join(parent, candidate)) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
