package branding

import "testing"

func TestAppName(t *testing.T) {
	if AppName == "" {
		t.Fatal("expected AppName to be non-empty")
	}
}

func TestPageTitle(t *testing.T) {
	if got := PageTitle("Новости"); got != "Новости · CampusDesk" {
		t.Fatalf("PageTitle = %q", got)
	}
	if got := PageTitle(""); got != AppName {
		t.Fatalf("PageTitle(\"\") = %q, want %q", got, AppName)
	}
}
