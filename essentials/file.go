// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package ess

import (
	"io/fs"
	"os"
)

// IsFileExists method returns true if the config, message or location file
// path exists. Symlinks are followed, a dangling link does not exist.
func IsFileExists(name string) bool {
	_, ok := stat(name)
	return ok
}

// IsDir method returns true if the path is a directory, such as a messages
// directory with sub directories per language.
func IsDir(name string) bool {
	fi, ok := stat(name)
	return ok && fi.IsDir()
}

func stat(name string) (fs.FileInfo, bool) {
	fi, err := os.Stat(name)
	if err != nil {
		return nil, false
	}
	return fi, true
}
