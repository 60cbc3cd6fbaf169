package receipt

import "testing"

func TestAllowed(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"test.jpg", true},
		{"test.JPG", true},
		{"scan.jpeg", true},
		{"scan.JpEg", true},
		{"photo.png", true},
		{`C:\fakepath\test.jpg`, true},
		{"/home/me/receipt.PNG", true},
		{"test.pdf", false},
		{`C:\fakepath\test.pdf`, false},
		{"archive.jpg.zip", false},
		{"noextension", false},
		{"jpg", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allowed(tt.name); got != tt.want {
				t.Errorf("Allowed(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		`C:\fakepath\test.jpg`: "test.jpg",
		"/tmp/a/b.png":         "b.png",
		"plain.jpeg":           "plain.jpeg",
		`dir\`:                 "",
	}
	for in, want := range tests {
		if got := BaseName(in); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContentType(t *testing.T) {
	if got := ContentType("a.JPEG"); got != "image/jpeg" {
		t.Errorf("ContentType(a.JPEG) = %q", got)
	}
	if got := ContentType("a.png"); got != "image/png" {
		t.Errorf("ContentType(a.png) = %q", got)
	}
	if got := ContentType("a.pdf"); got != "application/octet-stream" {
		t.Errorf("ContentType(a.pdf) = %q", got)
	}
}

func TestInvalidExtensionMessage(t *testing.T) {
	const want = "Veuillez sélectionner un fichier avec une extension .jpg, .jpeg ou .png"
	if InvalidExtensionMessage != want {
		t.Errorf("InvalidExtensionMessage = %q, want %q", InvalidExtensionMessage, want)
	}
}
