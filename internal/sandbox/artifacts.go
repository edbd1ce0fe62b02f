package sandbox

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	maxArtifacts     = 20
	maxArtifactBytes = 10 * 1024 * 1024
)

var artifactExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
}

// CollectArtifacts walks the workdir and returns image files the
// submitted code produced, ordered by filename for stable positions.
func CollectArtifacts(workdir string) ([]Artifact, error) {
	var paths []string

	err := filepath.Walk(workdir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !artifactExtensions[ext] {
			return nil
		}
		if info.Size() > maxArtifactBytes {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	if len(paths) > maxArtifacts {
		paths = paths[:maxArtifacts]
	}

	artifacts := make([]Artifact, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		artifacts = append(artifacts, Artifact{
			Filename: filepath.Base(path),
			Format:   strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
			Data:     data,
		})
	}

	return artifacts, nil
}
