package form

import (
	"net/url"

	"github.com/bomcorte/blackfriday/internal/model"
)

// ParseAttribution extracts the five campaign parameters from the page
// arrival URL. Missing parameters default to the empty string. The
// result is captured once per form session and never re-read.
func ParseAttribution(rawURL string) model.AttributionParams {
	u, err := url.Parse(rawURL)
	if err != nil {
		return model.AttributionParams{}
	}

	q := u.Query()
	return model.AttributionParams{
		Source:   q.Get("utm_source"),
		Medium:   q.Get("utm_medium"),
		Campaign: q.Get("utm_campaign"),
		Term:     q.Get("utm_term"),
		Content:  q.Get("utm_content"),
	}
}
