// Build artifact detection from language-specific configuration files.
// Parses package.json, tsconfig.json and pyproject.toml to find build
// output directories for the languages this indexer supports.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector finds language-specific build output directories.
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a new build artifact detector.
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories scans for build configuration files and extracts
// output directories as exclusion glob patterns (e.g. "**/dist/**").
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var patterns []string
	patterns = append(patterns, bad.detectJavaScriptOutputs()...)
	patterns = append(patterns, bad.detectPythonOutputs()...)
	return patterns
}

// detectJavaScriptOutputs finds JS/TS build outputs from package.json,
// tsconfig.json and vite.config.{js,ts}.
func (bad *BuildArtifactDetector) detectJavaScriptOutputs() []string {
	var patterns []string

	packageJSON := filepath.Join(bad.projectRoot, "package.json")
	if data, err := os.ReadFile(packageJSON); err == nil {
		var pkg map[string]interface{}
		if json.Unmarshal(data, &pkg) == nil {
			if scripts, ok := pkg["scripts"].(map[string]interface{}); ok {
				for _, script := range scripts {
					scriptStr, ok := script.(string)
					if !ok {
						continue
					}
					if !strings.Contains(scriptStr, "--outDir") && !strings.Contains(scriptStr, "-outDir") {
						continue
					}
					parts := strings.Fields(scriptStr)
					for i, part := range parts {
						if (part == "--outDir" || part == "-outDir") && i+1 < len(parts) {
							outDir := strings.Trim(parts[i+1], "\"'")
							patterns = append(patterns, "**/"+outDir+"/**")
						}
					}
				}
			}
			if buildConfig, ok := pkg["build"].(map[string]interface{}); ok {
				if outDir, ok := buildConfig["outDir"].(string); ok {
					patterns = append(patterns, "**/"+outDir+"/**")
				}
			}
		}
	}

	tsconfigJSON := filepath.Join(bad.projectRoot, "tsconfig.json")
	if data, err := os.ReadFile(tsconfigJSON); err == nil {
		var tsconfig map[string]interface{}
		if json.Unmarshal(data, &tsconfig) == nil {
			if compilerOptions, ok := tsconfig["compilerOptions"].(map[string]interface{}); ok {
				if outDir, ok := compilerOptions["outDir"].(string); ok {
					patterns = append(patterns, "**/"+outDir+"/**")
				}
			}
		}
	}

	for _, viteConfig := range []string{"vite.config.js", "vite.config.ts"} {
		data, err := os.ReadFile(filepath.Join(bad.projectRoot, viteConfig))
		if err != nil {
			continue
		}
		content := string(data)
		idx := strings.Index(content, "outDir")
		if idx == -1 {
			continue
		}
		substr := content[idx+len("outDir"):]
		colonIdx := strings.Index(substr, ":")
		if colonIdx == -1 {
			continue
		}
		substr = substr[colonIdx+1:]
		for _, quote := range []string{"'", "\""} {
			if !strings.Contains(substr, quote) {
				continue
			}
			parts := strings.Split(substr, quote)
			if len(parts) >= 2 {
				if dirName := strings.TrimSpace(parts[1]); dirName != "" {
					patterns = append(patterns, "**/"+dirName+"/**")
				}
			}
			break
		}
	}

	return patterns
}

// detectPythonOutputs finds Python build outputs declared in pyproject.toml.
func (bad *BuildArtifactDetector) detectPythonOutputs() []string {
	var patterns []string

	pyprojectTOML := filepath.Join(bad.projectRoot, "pyproject.toml")
	data, err := os.ReadFile(pyprojectTOML)
	if err != nil {
		return patterns
	}

	var pyproject map[string]interface{}
	if toml.Unmarshal(data, &pyproject) != nil {
		return patterns
	}

	tool, ok := pyproject["tool"].(map[string]interface{})
	if !ok {
		return patterns
	}
	poetry, ok := tool["poetry"].(map[string]interface{})
	if !ok {
		return patterns
	}
	build, ok := poetry["build"].(map[string]interface{})
	if !ok {
		return patterns
	}
	if targetDir, ok := build["target-dir"].(string); ok {
		patterns = append(patterns, "**/"+targetDir+"/**")
	}

	return patterns
}
