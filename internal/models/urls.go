package models

// Page routes of the web client. Links in emails and navigation items point at these.
const (
	PageHome          = "/"
	PageNotFound      = "/not-found"
	PageTerms         = "/terms"
	PageSettings      = "/settings"
	PageAbout         = "/about"
	PagePricing       = "/pricing"
	PageAuthorize     = "/authorize"
	PageSignIn        = "/sign-in"
	PageSignUp        = "/sign-up"
	PageConfirm       = "/confirm"
	PageResetPassword = "/reset-password"
	PagePayment       = "/payment"
)

// Settings sections, appended to PageSettings as a path segment.
const (
	SettingsSectionProfile  = "profile"
	SettingsSectionAccount  = "account"
	SettingsSectionTfa      = "tfa"
	SettingsSectionSessions = "sessions"
)

// NavigationItem is one entry of the client navigation manifest.
type NavigationItem struct {
	Text     string           `json:"text"`
	Icon     string           `json:"icon,omitempty"`
	URL      string           `json:"url"`
	Children []NavigationItem `json:"children,omitempty"`
}
