package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	if !bundle.HasLocale(BaseLocale) {
		t.Fatalf("expected base locale %s", BaseLocale)
	}
	if !bundle.HasLocale("en-US") {
		t.Fatalf("expected locale en-US")
	}
	if got := len(bundle.NamespaceMessages("ru-RU", "notices")); got == 0 {
		t.Fatalf("expected ru-RU notices namespace messages")
	}
}

func TestEmbeddedLocalesShareKeys(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	base := bundle.LocaleMessages(BaseLocale)
	for _, locale := range bundle.Locales() {
		messages := bundle.LocaleMessages(locale)
		for key := range base {
			if _, ok := messages[key]; !ok {
				t.Errorf("locale %s missing key %q", locale, key)
			}
		}
	}
}

func TestLoadFromFSRejectsKeyOutsideNamespace(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/ru-RU/notices.yaml"), `locale: "ru-RU"
namespace: "notices"
messages:
  "login.bad": "nope"
`)

	_, err := LoadFromFS(os.DirFS(tempDir))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadFromFSRejectsMismatchedLocale(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/ru-RU/notices.yaml"), `locale: "en-US"
namespace: "notices"
messages:
  "notices.a": "a"
`)

	_, err := LoadFromFS(os.DirFS(tempDir))
	if err == nil {
		t.Fatal("expected locale mismatch error")
	}
}

func TestLoadFromFSRequiresBaseLocale(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/notices.yaml"), `locale: "en-US"
namespace: "notices"
messages:
  "notices.a": "a"
`)

	_, err := LoadFromFS(os.DirFS(tempDir))
	if err == nil {
		t.Fatal("expected missing base locale error")
	}
}

func TestMatchLocale(t *testing.T) {
	bundle := Default()
	tests := []struct {
		in   string
		want string
	}{
		{in: "en", want: "en-US"},
		{in: "en_GB", want: "en-US"},
		{in: "ru", want: "ru-RU"},
		{in: "", want: BaseLocale},
		{in: "not a locale", want: BaseLocale},
	}
	for _, tt := range tests {
		if got := bundle.MatchLocale(tt.in).String(); got != tt.want {
			t.Errorf("MatchLocale(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTemplatesMetadata(t *testing.T) {
	bundle := Default()

	got, ok := bundle.Format("en-US", "errors.UNEXPECTED_STATUS", map[string]string{"Status": "502"})
	if !ok {
		t.Fatal("expected message")
	}
	if got != "The server responded with an error (502)" {
		t.Fatalf("Format() = %q", got)
	}
	if _, ok := bundle.Format("en-US", "errors.DOES_NOT_EXIST", nil); ok {
		t.Fatal("expected missing key to report false")
	}
	if got := bundle.Text("en-US", "notices.missing"); got != "notices.missing" {
		t.Fatalf("Text() = %q, want key fallback", got)
	}
}

func TestPrinterUsesRegisteredMessages(t *testing.T) {
	bundle := Default()

	if got := bundle.Printer("en").Sprintf("login.status.401"); got != "Not authorized" {
		t.Fatalf("Printer(en).Sprintf = %q, want %q", got, "Not authorized")
	}
	if got := bundle.Printer("ru-RU").Sprintf("login.status.401"); got != "Ошибка авторизации" {
		t.Fatalf("Printer(ru-RU).Sprintf = %q", got)
	}
}

func mustWriteFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLocalizer(t *testing.T) {
	l := NewLocalizer(nil, "en")
	if l.Locale != "en-US" {
		t.Fatalf("Locale = %q, want en-US", l.Locale)
	}
	if got := l.First("notices.partner.approve_failed", "notices.action_failed"); got != "The action could not be completed" {
		t.Fatalf("First() = %q", got)
	}
	if got := l.Format("errors.UNEXPECTED_STATUS", map[string]string{"Status": "500"}); got != "The server responded with an error (500)" {
		t.Fatalf("Format() = %q", got)
	}
	if got := l.Text("notices.nope"); got != "notices.nope" {
		t.Fatalf("Text() = %q", got)
	}
}
