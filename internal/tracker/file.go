package tracker

import (
	"errors"
	"strings"

	"github.com/CODERTG2/dropbox-assignment-tracker/internal/filetags"
	"github.com/CODERTG2/dropbox-assignment-tracker/internal/records"
)

type FileCheck struct {
	FileName string
	// LocalPath is the part of the path after the local Dropbox folder, or
	// the original path when it is not inside one.
	LocalPath    string
	InDropboxDir bool
	RemotePath   string
	Found        bool
}

// ProcessFile reports whether a file with the same name as path exists in
// the Dropbox folder. It does not touch the current assignment.
func (c *Controller) ProcessFile(path string) (FileCheck, error) {
	check := FileCheck{FileName: baseName(path)}
	check.LocalPath, check.InDropboxDir = trimDropboxPrefix(path)

	c.appendStatus("Processing file: %s", check.FileName)
	if check.InDropboxDir {
		c.appendStatus("Cleaned path: %s", check.LocalPath)
	} else {
		c.appendStatus("Original path: %s", check.LocalPath)
	}

	remote, err := c.tags.FindFilePath(check.FileName)
	switch {
	case err == nil:
		check.RemotePath = remote
		check.Found = true
		c.appendStatus("Found in Dropbox: %s", remote)
	case isNotFound(err):
		c.appendStatus("File not found in Dropbox folder")
	default:
		c.appendStatus("Error checking Dropbox: %v", err)
		return check, err
	}
	return check, nil
}

// trimDropboxPrefix cuts everything up to and including the first "dropbox"
// path segment, matching case-insensitively.
func trimDropboxPrefix(p string) (string, bool) {
	lower := strings.ToLower(p)
	idx := strings.Index(lower, "dropbox")
	if idx < 0 {
		return p, false
	}
	cleaned := p[idx:]
	lowerCleaned := lower[idx:]
	if strings.HasPrefix(lowerCleaned, "dropbox/") || strings.HasPrefix(lowerCleaned, `dropbox\`) {
		cleaned = cleaned[len("dropbox/"):]
	}
	return cleaned, true
}

// baseName handles both slash styles so Windows paths passed on the command
// line resolve to the same file name everywhere.
func baseName(p string) string {
	p = strings.TrimRight(p, `/\`)
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

func isNotFound(err error) bool {
	return errors.Is(err, records.ErrNotFound) || errors.Is(err, filetags.ErrNotFound)
}
