// QR Studio Core
// Copyright (c) 2026 The QR Studio Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of QR Studio Core.
//
// QR Studio Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// QR Studio Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with QR Studio Core.  If not, see <http://www.gnu.org/licenses/>.

// Command makezip packages a built qrstudio binary for release.
package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/qrstudio/qrstudio-core/pkg/config"
)

const (
	readmeName        = "README.txt"
	exampleConfigName = "config.example.toml"
)

func readme(goos, version string) string {
	var sb strings.Builder
	sb.WriteString("QR Studio " + version + " (" + goos + ")\n\n")
	sb.WriteString("Offline use:\n")
	sb.WriteString("  qrstudio -encode url:text=https://example.com -o site.png\n")
	sb.WriteString("  qrstudio -promptpay 0812345678:100.00\n")
	sb.WriteString("  qrstudio -decode photo.jpg\n\n")
	sb.WriteString("Service:\n")
	sb.WriteString("  qrstudio -daemon\n\n")
	sb.WriteString("Copy " + exampleConfigName + " to the config directory as " + config.CfgFile +
		" to change the defaults.\n")
	return sb.String()
}

func writeSupportFiles(buildDir, goos, version string) (readmePath, examplePath string, err error) {
	readmePath = filepath.Join(buildDir, readmeName)
	if err := os.WriteFile(readmePath, []byte(readme(goos, version)), 0o644); err != nil {
		return "", "", fmt.Errorf("error writing readme: %w", err)
	}

	data, err := toml.Marshal(config.BaseDefaults)
	if err != nil {
		return "", "", fmt.Errorf("error encoding example config: %w", err)
	}
	examplePath = filepath.Join(buildDir, exampleConfigName)
	if err := os.WriteFile(examplePath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("error writing example config: %w", err)
	}
	return readmePath, examplePath, nil
}

func main() {
	if len(os.Args) != 5 {
		_, _ = fmt.Println("Usage: go run ./scripts/tasks/utils/makezip <goos> <build_dir> <app_bin> <zip_name>")
		os.Exit(1)
	}

	goos := os.Args[1]
	buildDir := os.Args[2]
	appBin := os.Args[3]
	zipName := os.Args[4]

	if _, err := os.Stat(buildDir); os.IsNotExist(err) {
		_, _ = fmt.Printf("The specified directory '%s' does not exist\n", buildDir)
		os.Exit(1)
	}

	appPath := filepath.Join(buildDir, appBin)
	if _, err := os.Stat(appPath); os.IsNotExist(err) {
		_, _ = fmt.Printf("The specified binary file '%s' does not exist\n", appPath)
		os.Exit(1)
	}

	readmePath, examplePath, err := writeSupportFiles(buildDir, goos, config.AppVersion)
	if err != nil {
		_, _ = fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	files := []string{appPath, readmePath, examplePath}
	if _, err := os.Stat("LICENSE"); err == nil {
		licensePath := filepath.Join(buildDir, "LICENSE.txt")
		if err := copyFile("LICENSE", licensePath); err != nil {
			_, _ = fmt.Printf("Error copying LICENSE file: %v\n", err)
			os.Exit(1)
		}
		files = append(files, licensePath)
	}

	if err := createZipFile(filepath.Join(buildDir, zipName), files); err != nil {
		_, _ = fmt.Printf("Error creating zip: %v\n", err)
		os.Exit(1)
	}
}

func createZipFile(zipPath string, files []string) error {
	zipFile, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("error creating zip file: %w", err)
	}
	defer func(zipFile *os.File) {
		_ = zipFile.Close()
	}(zipFile)

	zipWriter := zip.NewWriter(zipFile)
	for _, path := range files {
		if err := addFileToZip(zipWriter, path, filepath.Base(path)); err != nil {
			_ = zipWriter.Close()
			return fmt.Errorf("error adding file to zip: %w", err)
		}
	}
	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("error finishing zip: %w", err)
	}
	return nil
}

func addFileToZip(zipWriter *zip.Writer, filePath, arcname string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = arcname
	header.Method = zip.Deflate

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, file)
	return err
}

func copyFile(src, dst string) error {
	input, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, input, 0o644)
}
