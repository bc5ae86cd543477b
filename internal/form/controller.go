// Package form implements the lead-capture form engine: input masking,
// campaign attribution capture, address resolution, and the submission
// state machine.
package form

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bomcorte/blackfriday/internal/config"
	"github.com/bomcorte/blackfriday/internal/location"
	"github.com/bomcorte/blackfriday/internal/model"
)

// State is the submission controller's current phase.
type State int

const (
	// StateIdle accepts input. An error from the last attempt may be set.
	StateIdle State = iota
	// StateSubmitting means a create call is in flight.
	StateSubmitting
	// StateSuccess shows the thank-you panel; auto-reverts to StateIdle.
	StateSuccess
)

// successDisplayDuration is how long the thank-you panel stays up
// before the form resets.
const successDisplayDuration = 5 * time.Second

var (
	// ErrConsentRequired blocks submission until the consent box is checked.
	ErrConsentRequired = errors.New("consent is required before submitting")
	// ErrMissingFields means name, phone, or email is empty.
	ErrMissingFields = errors.New("name, phone, and email are required")
	// ErrNotIdle means a submission is already in flight or just succeeded.
	ErrNotIdle = errors.New("form is not accepting submissions")
)

// Draft is the mutable form state, owned exclusively by the controller
// for the lifetime of one form session.
type Draft struct {
	Name        string
	WhatsApp    string // masked, without calling code
	Email       string
	PostalCode  string // masked
	RegionCode  string
	CityName    string
	CallingCode string
	Consent     bool
}

func emptyDraft() Draft {
	return Draft{CallingCode: config.DomesticCallingCode}
}

// LocationService is the address-resolution dependency.
type LocationService interface {
	Regions(ctx context.Context) ([]location.RegionOption, error)
	Cities(ctx context.Context, regionCode string) ([]location.CityOption, error)
	ResolvePostalCode(ctx context.Context, postalCode string) (*location.Address, error)
}

// LeadCreator dispatches the finished payload to the lead endpoint.
type LeadCreator interface {
	CreateLead(ctx context.Context, sub model.LeadSubmission) error
}

// Controller orchestrates one lead-capture form session. Lookups run in
// background goroutines; each carries a sequence token and stale
// responses are discarded, so a fast series of region changes cannot
// leave an older city list on screen.
//
// Postal-code resolution and manual region/city selection intentionally
// have no reconciliation: the last write wins.
type Controller struct {
	locations LocationService
	creator   LeadCreator

	afterFunc func(time.Duration, func()) *time.Timer
	now       func() time.Time

	mu          sync.Mutex
	wg          sync.WaitGroup
	state       State
	draft       Draft
	attribution model.AttributionParams
	regions     []location.RegionOption
	cities      []location.CityOption
	resolving   bool
	postalError string
	submitError string
	citySeq     uint64
	resolveSeq  uint64
}

// Option adjusts controller behavior, mainly for tests.
type Option func(*Controller)

// WithAfterFunc replaces the timer used for the success auto-revert.
func WithAfterFunc(f func(time.Duration, func()) *time.Timer) Option {
	return func(c *Controller) { c.afterFunc = f }
}

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a form session. The five attribution parameters
// are captured from pageURL once, here; later URL changes are never
// re-read.
func NewController(locations LocationService, creator LeadCreator, pageURL string, opts ...Option) (*Controller, error) {
	if locations == nil {
		return nil, errors.New("location service is required")
	}
	if creator == nil {
		return nil, errors.New("lead creator is required")
	}

	c := &Controller{
		locations:   locations,
		creator:     creator,
		afterFunc:   time.AfterFunc,
		now:         time.Now,
		draft:       emptyDraft(),
		attribution: ParseAttribution(pageURL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Mount fetches the region list. On failure the selector simply stays
// empty; the page remains usable.
func (c *Controller) Mount(ctx context.Context) {
	regions, err := c.locations.Regions(ctx)
	if err != nil {
		slog.Warn("form: failed to fetch regions", "error", err)
		return
	}

	c.mu.Lock()
	c.regions = regions
	c.mu.Unlock()
}

// SetName sets the lead's name verbatim.
func (c *Controller) SetName(name string) {
	c.mu.Lock()
	c.draft.Name = name
	c.mu.Unlock()
}

// SetEmail sets the lead's email verbatim.
func (c *Controller) SetEmail(email string) {
	c.mu.Lock()
	c.draft.Email = email
	c.mu.Unlock()
}

// SetConsent records the data-use opt-in.
func (c *Controller) SetConsent(consent bool) {
	c.mu.Lock()
	c.draft.Consent = consent
	c.mu.Unlock()
}

// SetCallingCode switches the phone mask mode and clears the current
// phone value so digits masked under one mode cannot leak into another.
func (c *Controller) SetCallingCode(code string) {
	c.mu.Lock()
	c.draft.CallingCode = code
	c.draft.WhatsApp = ""
	c.mu.Unlock()
}

// InputPhone applies the phone mask for the current calling code.
func (c *Controller) InputPhone(raw string) {
	c.mu.Lock()
	c.draft.WhatsApp = FormatPhone(raw, c.draft.CallingCode)
	c.mu.Unlock()
}

// SelectRegion sets the region, clears the selected city and the city
// list immediately, and fetches the new list in the background.
func (c *Controller) SelectRegion(ctx context.Context, code string) {
	c.mu.Lock()
	c.draft.RegionCode = code
	c.draft.CityName = ""
	c.cities = nil
	c.citySeq++
	seq := c.citySeq
	c.mu.Unlock()

	if code == "" {
		return
	}
	c.fetchCities(ctx, code, seq)
}

func (c *Controller) fetchCities(ctx context.Context, code string, seq uint64) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		cities, err := c.locations.Cities(ctx, code)
		if err != nil {
			slog.Warn("form: failed to fetch cities", "region", code, "error", err)
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if seq != c.citySeq {
			return // a newer region selection superseded this fetch
		}
		c.cities = cities
	}()
}

// SelectCity sets the city by display name.
func (c *Controller) SelectCity(name string) {
	c.mu.Lock()
	c.draft.CityName = name
	c.mu.Unlock()
}

// InputPostalCode applies the CEP mask and, once exactly 8 digits are
// present, resolves the address in the background. A match overwrites
// region and city, silently replacing any manual selection. Not-found
// clears both and sets an inline error. A transport failure sets a
// generic error and leaves region and city untouched.
func (c *Controller) InputPostalCode(ctx context.Context, raw string) {
	masked := FormatPostalCode(raw)
	digits := Digits(masked)

	c.mu.Lock()
	c.draft.PostalCode = masked
	c.postalError = ""
	if len(digits) != 8 {
		c.mu.Unlock()
		return
	}
	c.resolving = true
	c.resolveSeq++
	seq := c.resolveSeq
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		addr, err := c.locations.ResolvePostalCode(ctx, digits)

		c.mu.Lock()
		if seq != c.resolveSeq {
			c.mu.Unlock()
			return // superseded by a later postal-code edit
		}
		c.resolving = false

		switch {
		case errors.Is(err, location.ErrPostalCodeNotFound):
			c.postalError = "CEP não encontrado."
			c.draft.RegionCode = ""
			c.draft.CityName = ""
			c.mu.Unlock()
		case err != nil:
			slog.Warn("form: postal code lookup failed", "error", err)
			c.postalError = "Erro ao buscar CEP."
			c.mu.Unlock()
		default:
			c.draft.RegionCode = addr.RegionCode
			c.draft.CityName = addr.CityName
			c.cities = nil
			c.citySeq++
			citySeq := c.citySeq
			c.mu.Unlock()
			c.fetchCities(ctx, addr.RegionCode, citySeq)
		}
	}()
}

// Submit validates the draft and dispatches the create call. Consent
// gating happens first and aborts with no state change. On success the
// controller shows the thank-you panel and resets the draft; on failure
// it returns to idle with the draft intact so the user can retry.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrNotIdle
	}
	if !c.draft.Consent {
		c.mu.Unlock()
		return ErrConsentRequired
	}
	if c.draft.Name == "" || c.draft.WhatsApp == "" || c.draft.Email == "" {
		c.mu.Unlock()
		return ErrMissingFields
	}

	sub := model.LeadSubmission{
		Name:              c.draft.Name,
		Email:             c.draft.Email,
		WhatsApp:          c.draft.CallingCode + Digits(c.draft.WhatsApp),
		CallingCode:       c.draft.CallingCode,
		PostalCode:        Digits(c.draft.PostalCode),
		Region:            c.draft.RegionCode,
		City:              c.draft.CityName,
		Consent:           c.draft.Consent,
		AttributionParams: c.attribution,
		Timestamp:         c.now().UTC().Format(time.RFC3339),
	}
	c.state = StateSubmitting
	c.submitError = ""
	c.mu.Unlock()

	err := c.creator.CreateLead(ctx, sub)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.Error("form: lead submission failed", "error", err)
		c.state = StateIdle
		c.submitError = "Não foi possível enviar. Tente novamente."
		return err
	}

	c.state = StateSuccess
	c.draft = emptyDraft()
	c.cities = nil
	c.postalError = ""
	c.afterFunc(successDisplayDuration, c.revert)
	return nil
}

func (c *Controller) revert() {
	c.mu.Lock()
	if c.state == StateSuccess {
		c.state = StateIdle
	}
	c.mu.Unlock()
}

// Snapshot is a point-in-time view of the form for rendering.
type Snapshot struct {
	State       State
	Draft       Draft
	Attribution model.AttributionParams
	Regions     []location.RegionOption
	Cities      []location.CityOption
	Resolving   bool
	PostalError string
	SubmitError string
}

// Snapshot returns a copy of the current form state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:       c.state,
		Draft:       c.draft,
		Attribution: c.attribution,
		Regions:     append([]location.RegionOption(nil), c.regions...),
		Cities:      append([]location.CityOption(nil), c.cities...),
		Resolving:   c.resolving,
		PostalError: c.postalError,
		SubmitError: c.submitError,
	}
}

// Wait blocks until all in-flight lookups have settled. Used on
// shutdown and in tests.
func (c *Controller) Wait() {
	c.wg.Wait()
}
