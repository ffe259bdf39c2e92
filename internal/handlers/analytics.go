package handlers

import "conatel.gouv.ht/web/internal/config"

// Analytics holds client instrumentation configuration surfaced to templates.
type Analytics struct {
	GA4MeasurementID string // e.g. G-XXXXXXXXXX
	Debug            bool
}

// AnalyticsFromConfig disables measurement outside prod so local browsing
// never pollutes the property.
func AnalyticsFromConfig(site config.SiteConfig) Analytics {
	if site.Environment != "prod" {
		return Analytics{Debug: site.AnalyticsID != ""}
	}
	return Analytics{GA4MeasurementID: site.AnalyticsID}
}
