package config

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// DefaultRedisAddr is the default Redis address for sessions and
	// location-lookup caching.
	DefaultRedisAddr = "localhost:6379"

	// DefaultViaCEPURL is the public ViaCEP postal-code lookup endpoint.
	DefaultViaCEPURL = "https://viacep.com.br"

	// DefaultIBGEURL is the public IBGE locality endpoint used for the
	// region and city selectors.
	DefaultIBGEURL = "https://servicodados.ibge.gov.br"

	// DomesticCallingCode selects the Brazilian phone mask.
	DomesticCallingCode = "55"

	// DefaultPageSize is the default number of leads per page.
	DefaultPageSize = 50

	// MinPageSize and MaxPageSize clamp the lead list page size.
	MinPageSize = 10
	MaxPageSize = 100

	// DefaultRateLimit is the default requests per minute per IP address
	// on the public lead-capture endpoint.
	DefaultRateLimit = 100

	// SessionCookieName is the admin session cookie.
	SessionCookieName = "bf_session"
)
