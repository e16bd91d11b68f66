package service

import "github.com/noah-isme/lob-api/internal/models"

var settingsSections = []struct {
	text    string
	section string
}{
	{"Profile", models.SettingsSectionProfile},
	{"Account", models.SettingsSectionAccount},
	{"Two-factor authentication", models.SettingsSectionTfa},
	{"Sessions", models.SettingsSectionSessions},
}

// NavigationService builds the client navigation manifest.
type NavigationService struct{}

// NewNavigationService constructs the service.
func NewNavigationService() *NavigationService {
	return &NavigationService{}
}

// GetItems returns the public pages and, for signed-in callers, the settings tree.
func (s *NavigationService) GetItems(authenticated bool) []models.NavigationItem {
	items := []models.NavigationItem{
		{Text: "Home", Icon: "Home", URL: models.PageHome},
		{Text: "Terms", Icon: "EntityExtraction", URL: models.PageTerms},
		{Text: "Pricing", Icon: "Money", URL: models.PagePricing},
		{Text: "About", Icon: "Info", URL: models.PageAbout},
	}
	if !authenticated {
		return items
	}
	settings := models.NavigationItem{Text: "Settings", Icon: "Equalizer", URL: models.PageSettings}
	for _, sec := range settingsSections {
		settings.Children = append(settings.Children, models.NavigationItem{
			Text: sec.text,
			URL:  models.PageSettings + "/" + sec.section,
		})
	}
	return append(items, settings)
}
