package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

func EnsureDirectoryExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0755)
	}
	return nil
}

// IsPlainFileName reports whether name can be joined onto a folder without
// leaving it.
func IsPlainFileName(name string) bool {
	if name == "" || name == "." || name == ".." || filepath.IsAbs(name) {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// VideoFolder is where the segments of one rendition live.
func VideoFolder(root, videoID, quality string) string {
	return filepath.Join(root, "downloads", "videos", videoID, "hls", quality)
}

func ChatFile(root, videoID string) string {
	return filepath.Join(root, "downloads", "chats", videoID+".chat")
}

// CleanProgressFiles removes leftover fragment temp files below root and
// returns how many were deleted. Finished fragments are left alone so a
// later download can resume.
func CleanProgressFiles(root string) (int, error) {
	removed := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ProgressSuffix) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return removed, nil
	}
	return removed, err
}

// LoadConfig reads a YAML config file. A missing file yields an empty config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("error reading config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config file: %v", err)
	}
	return cfg, nil
}

func ReadBatchFile(path string) (BatchFile, error) {
	var batch BatchFile
	data, err := os.ReadFile(path)
	if err != nil {
		return batch, fmt.Errorf("error reading batch file: %v", err)
	}
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return batch, fmt.Errorf("error parsing batch file: %v", err)
	}
	return batch, nil
}
