package model

import "time"

// LeadStatus tracks whether a representative has handled a lead.
type LeadStatus string

const (
	StatusPending  LeadStatus = "Pending"
	StatusAttended LeadStatus = "Attended"
)

// Valid reports whether s is one of the two known statuses.
func (s LeadStatus) Valid() bool {
	return s == StatusPending || s == StatusAttended
}

// AttributionParams are the campaign tags carried in the landing URL.
// They are captured once at page load and attached verbatim to the lead.
type AttributionParams struct {
	Source   string `json:"utm_source"`
	Medium   string `json:"utm_medium"`
	Campaign string `json:"utm_campaign"`
	Term     string `json:"utm_term"`
	Content  string `json:"utm_content"`
}

// LeadSubmission is the payload the public form posts to the create endpoint.
type LeadSubmission struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	WhatsApp    string `json:"whatsapp"` // digits only, calling-code prefixed
	CallingCode string `json:"dialCode"`
	PostalCode  string `json:"cep"` // digits only
	Region      string `json:"state"`
	City        string `json:"city"`
	Consent     bool   `json:"lgpdConsent"`
	AttributionParams
	Timestamp string `json:"timestamp,omitempty"` // client-generated, informational
}

// Lead is a captured prospect record.
type Lead struct {
	ID                 int64             `json:"id"`
	Name               string            `json:"name"`
	Email              string            `json:"email"`
	WhatsApp           string            `json:"whatsapp"`
	CallingCode        string            `json:"dial_code"`
	PostalCode         string            `json:"cep"`
	Region             string            `json:"region"`
	City               string            `json:"city"`
	Attribution        AttributionParams `json:"attribution"`
	Consent            bool              `json:"lgpd_consent"`
	IPAddress          string            `json:"ip_address"`
	UserAgent          string            `json:"user_agent"`
	Status             LeadStatus        `json:"status"`
	RepresentativeName string            `json:"representative_name"`
	CreatedAt          time.Time         `json:"created_at"`
}

// Feature is a selling point shown on the landing page.
type Feature struct {
	ID   string `json:"id"`
	Icon string `json:"icon"`
	Text string `json:"text"`
}

// Product is a catalog entry for the landing page product section.
type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// ColorPalette holds the landing page theme colors.
type ColorPalette struct {
	Primary       string `json:"primary"`
	Accent        string `json:"accent"`
	TextPrimary   string `json:"textPrimary"`
	TextSecondary string `json:"textSecondary"`
}

// LandingPageContent is the editable content of the public landing page,
// assembled from the key/value config table on every read.
type LandingPageContent struct {
	LogoURL                   string       `json:"logoUrl"`
	MainTitle                 string       `json:"mainTitle"`
	HighlightedTitle          string       `json:"highlightedTitle"`
	Description               string       `json:"description"`
	Features                  []Feature    `json:"features"`
	BackgroundImageURL        string       `json:"backgroundImageUrl"`
	ColorPalette              ColorPalette `json:"colorPalette"`
	ShowProductSection        bool         `json:"showProductSection"`
	ProductSectionTitle       string       `json:"productSectionTitle"`
	ProductSectionDescription string       `json:"productSectionDescription"`
	Products                  []Product    `json:"products"`
}

// DefaultPalette returns the hardcoded fallback colors used when the
// corresponding config keys are missing.
func DefaultPalette() ColorPalette {
	return ColorPalette{
		Primary:       "#4c0519",
		Accent:        "#facc15",
		TextPrimary:   "#ffffff",
		TextSecondary: "#d1d5db",
	}
}

// DefaultContent returns the content object used when no config keys exist.
func DefaultContent() LandingPageContent {
	return LandingPageContent{
		Features:           []Feature{},
		ColorPalette:       DefaultPalette(),
		ShowProductSection: true,
		Products:           []Product{},
	}
}

// Role is an admin panel access level.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEditor || r == RoleViewer
}

// CanEdit reports whether the role may modify landing page content and leads.
func (r Role) CanEdit() bool {
	return r == RoleAdmin || r == RoleEditor
}

// User is an admin panel account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
