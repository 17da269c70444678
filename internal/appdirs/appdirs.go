package appdirs

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName = "equaio"

	DataDirEnv    = "EQUAIO_DATA_DIR"
	CatalogDirEnv = "EQUAIO_CATALOG_DIR"
)

func DataDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(DataDirEnv)); override != "" {
		return override, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDirName), nil
}

// CatalogDir is where an override problem catalog is looked for.
func CatalogDir(dataDir string) string {
	if override := strings.TrimSpace(os.Getenv(CatalogDirEnv)); override != "" {
		return override
	}
	return filepath.Join(dataDir, "catalog")
}

func SettingsPath(dataDir string) string {
	return filepath.Join(dataDir, "settings.json")
}
