package utils

import (
	"os"
	"path/filepath"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// ReadSource loads a shader source file and returns its content together
// with the directory includes should be resolved against.
func ReadSource(relPath string) (src string, baseDir string, err error) {
	fullPath, parentDir, err := GetPathInfo(relPath)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", "", err
	}
	return string(data), parentDir, nil
}
