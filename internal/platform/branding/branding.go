// Package branding holds product naming shared by rendered pages.
package branding

// AppName is the product name shown in page titles.
const AppName = "CampusDesk"

// PageTitle joins a page heading with the product name.
func PageTitle(heading string) string {
	if heading == "" {
		return AppName
	}
	return heading + " · " + AppName
}
