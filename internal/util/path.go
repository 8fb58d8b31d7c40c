// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"path"
	"strings"
)

// BaseName turns an uploaded file name into a slug usable as an image
// public ID, or returns fallback when nothing usable remains. Directory
// components are dropped whichever separator the browser sent, so
// "C:\fakepath\Beach Day.JPG" becomes "beach-day".
func BaseName(filename, fallback string) string {
	name := filename[strings.LastIndexAny(filename, `/\`)+1:]
	name = strings.TrimSuffix(name, path.Ext(name))
	if slug := Slugify(name); slug != "" {
		return slug
	}
	return fallback
}
