// Package receipt holds the rules shared by every layer that accepts a
// receipt attachment.
package receipt

import (
	"path"
	"strings"
)

// InvalidExtensionMessage is shown to the user when the selected file is not an image.
const InvalidExtensionMessage = "Veuillez sélectionner un fichier avec une extension .jpg, .jpeg ou .png"

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// BaseName strips any directory part from a browser-reported file path,
// e.g. `C:\fakepath\test.jpg` or `/tmp/test.jpg` both give "test.jpg".
func BaseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Extension returns the lower-cased extension of name, dot included.
func Extension(name string) string {
	return strings.ToLower(path.Ext(BaseName(name)))
}

// Allowed reports whether name ends in .jpg, .jpeg or .png, in any case.
func Allowed(name string) bool {
	_, ok := contentTypes[Extension(name)]
	return ok
}

// ContentType returns the MIME type for an allowed receipt name, or
// application/octet-stream.
func ContentType(name string) string {
	if ct, ok := contentTypes[Extension(name)]; ok {
		return ct
	}
	return "application/octet-stream"
}
