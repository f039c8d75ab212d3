package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"technician-route-service/internal/domain"
	"technician-route-service/internal/ports"
	"technician-route-service/internal/platform/obs"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrValidationPending   = errors.New("address validation is still in progress")
	ErrAddressNotValidated = errors.New("address has not been validated")
	ErrUnknownTestPlace    = errors.New("unknown test place")
	ErrFormNotFound        = errors.New("booking form not found")
)

const (
	dateLayout       = "2006-01-02"
	addressCheckWait = 10 * time.Second
	formIdleTTL      = time.Hour
)

// OutsideServiceAreaError rejects a booking whose address lies beyond the
// service radius.
type OutsideServiceAreaError struct {
	DistanceKm float64
	RadiusKm   float64
}

func (e *OutsideServiceAreaError) Error() string {
	return outsideMessage(e.DistanceKm, e.RadiusKm)
}

// BookingFieldError reports a missing or malformed booking field.
type BookingFieldError struct {
	Field  string
	Reason string
}

func (e *BookingFieldError) Error() string {
	return fmt.Sprintf("booking field %s %s", e.Field, e.Reason)
}

type BookingRequest struct {
	Service string
	Date    string // YYYY-MM-DD
	Time    string
	Notes   string
}

// FormState is a consistent copy of an AddressForm.
type FormState struct {
	ID         string
	Address    string
	Validation AddressValidation
	Generation uint64
}

type BookingOptions struct {
	Services    []domain.ServiceOption
	TestPlaces  []domain.TestPlace
	ServiceArea domain.ServiceArea
}

// BookingDesk owns the open booking forms and the dependencies they share.
type BookingDesk struct {
	geocoder       ports.Geocoder
	area           domain.ServiceArea
	defaultAddress string
	debounce       time.Duration
	publisher      ports.EventPublisher
	observer       Observer
	now            func() time.Time

	mu    sync.Mutex
	forms map[string]*AddressForm
}

type DeskOption func(*BookingDesk)

func WithDeskPublisher(p ports.EventPublisher) DeskOption {
	return func(d *BookingDesk) { d.publisher = p }
}

func WithDeskObserver(o Observer) DeskOption {
	return func(d *BookingDesk) {
		if o != nil {
			d.observer = o
		}
	}
}

func WithDeskClock(now func() time.Time) DeskOption {
	return func(d *BookingDesk) { d.now = now }
}

func NewBookingDesk(
	geocoder ports.Geocoder,
	area domain.ServiceArea,
	defaultAddress string,
	debounce time.Duration,
	opts ...DeskOption,
) *BookingDesk {
	d := &BookingDesk{
		geocoder:       geocoder,
		area:           area,
		defaultAddress: defaultAddress,
		debounce:       debounce,
		observer:       nopObserver{},
		now:            time.Now,
		forms:          make(map[string]*AddressForm),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Options lists what a form can offer. Test places are flagged against the
// configured service area.
func (d *BookingDesk) Options() BookingOptions {
	places := domain.TestPlaces()
	for i := range places {
		places[i].WithinRadius = IsWithinServiceArea(places[i].Coordinates, d.area.Center, d.area.RadiusKm).IsValid
	}

	return BookingOptions{
		Services:    domain.ServiceCatalog(),
		TestPlaces:  places,
		ServiceArea: d.area,
	}
}

// OpenForm creates a form prefilled with the default address and checks it.
// A failed check does not prevent the form from opening; it shows up in the
// returned state.
func (d *BookingDesk) OpenForm(ctx context.Context) (*AddressForm, FormState) {
	f := &AddressForm{
		id:        uuid.NewString(),
		desk:      d,
		debouncer: NewDebouncer(d.debounce),
		touched:   d.now(),
	}

	d.mu.Lock()
	d.evictIdleLocked()
	d.forms[f.id] = f
	d.mu.Unlock()

	state, err := f.CheckNow(ctx, d.defaultAddress)
	if err != nil && !errors.Is(err, ErrStaleResult) {
		log.WithError(err).WithField("form", f.id).Warn("default address check failed")
	}
	return f, state
}

func (d *BookingDesk) Form(id string) (*AddressForm, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.forms[id]
	if !ok {
		return nil, ErrFormNotFound
	}
	return f, nil
}

func (d *BookingDesk) evictIdleLocked() {
	cutoff := d.now().Add(-formIdleTTL)
	for id, f := range d.forms {
		if f.lastTouched().Before(cutoff) {
			f.debouncer.Cancel()
			delete(d.forms, id)
		}
	}
}

// AddressForm tracks one booking form's address and its service-area
// validation. Every address change bumps the generation; a check result is
// applied only if no newer change happened while it was running.
type AddressForm struct {
	id        string
	desk      *BookingDesk
	debouncer *Debouncer

	mu         sync.Mutex
	address    string
	generation uint64
	validation AddressValidation
	touched    time.Time
}

func (f *AddressForm) ID() string { return f.id }

func (f *AddressForm) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *AddressForm) stateLocked() FormState {
	return FormState{
		ID:         f.id,
		Address:    f.address,
		Validation: f.validation,
		Generation: f.generation,
	}
}

func (f *AddressForm) lastTouched() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched
}

// begin records a new address and returns the generation that owns the
// check for it, or false when the address is blank.
func (f *AddressForm) begin(address string) (uint64, FormState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.generation++
	f.address = address
	f.touched = f.desk.now()
	f.debouncer.Cancel()

	if strings.TrimSpace(address) == "" {
		f.validation = AddressValidation{Status: AddressUnchecked}
		return f.generation, f.stateLocked(), false
	}

	f.validation = AddressValidation{Status: AddressChecking, Query: strings.TrimSpace(address)}
	return f.generation, f.stateLocked(), true
}

// SetAddress records an edit. The check runs once the debounce period passes
// without another edit.
func (f *AddressForm) SetAddress(address string) FormState {
	gen, state, ok := f.begin(address)
	if !ok {
		return state
	}

	f.debouncer.Trigger(func() {
		ctx, cancel := context.WithTimeout(context.Background(), addressCheckWait)
		defer cancel()

		if _, err := f.check(ctx, gen, address); err != nil && !errors.Is(err, ErrStaleResult) {
			log.WithError(err).WithField("form", f.id).Warn("address check failed")
		}
	})

	return state
}

// CheckNow records the address and checks it immediately.
func (f *AddressForm) CheckNow(ctx context.Context, address string) (FormState, error) {
	gen, state, ok := f.begin(address)
	if !ok {
		return state, nil
	}
	return f.check(ctx, gen, address)
}

// SelectTestPlace fills in a predefined address and checks it immediately.
func (f *AddressForm) SelectTestPlace(ctx context.Context, name string) (FormState, error) {
	for _, p := range domain.TestPlaces() {
		if p.Name == name {
			return f.CheckNow(ctx, p.Address)
		}
	}
	return f.State(), fmt.Errorf("%w: %q", ErrUnknownTestPlace, name)
}

func (f *AddressForm) check(ctx context.Context, gen uint64, address string) (_ FormState, err error) {
	defer obs.Time(ctx, "form.CheckAddress")(&err)

	v, checkErr := CheckAddress(ctx, f.desk.geocoder, f.desk.area, address)

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.generation {
		f.desk.observer.StaleResult("address")
		return f.stateLocked(), ErrStaleResult
	}

	if checkErr != nil {
		f.validation = AddressValidation{
			Status:  AddressError,
			Query:   strings.TrimSpace(address),
			Message: errorMessage(checkErr),
		}
		f.desk.observer.AddressChecked(string(AddressError))
		return f.stateLocked(), checkErr
	}

	f.validation = v
	if v.Address != "" && v.Address != f.address {
		f.address = v.Address
	}
	f.desk.observer.AddressChecked(string(v.Status))

	return f.stateLocked(), nil
}

func errorMessage(err error) string {
	var cfgErr *domain.ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr.Error()
	}
	var pErr *domain.ProviderError
	if errors.As(err, &pErr) {
		return pErr.Error()
	}
	return "Failed to validate address."
}

// Submit validates the request against the form's current state and, when
// accepted, publishes the booking and resets the form to the default
// address.
func (f *AddressForm) Submit(ctx context.Context, req BookingRequest) (_ *domain.Booking, err error) {
	defer func() {
		outcome := "accepted"
		if err != nil {
			outcome = "rejected"
		}
		f.desk.observer.BookingOutcome(outcome)
	}()

	f.mu.Lock()
	address := f.address
	v := f.validation
	f.touched = f.desk.now()
	f.mu.Unlock()

	service, date, clock, err := parseBookingRequest(req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(address) == "" {
		return nil, &BookingFieldError{Field: "address", Reason: "is required"}
	}

	switch v.Status {
	case AddressWithin:
	case AddressChecking:
		return nil, ErrValidationPending
	case AddressOutside:
		return nil, &OutsideServiceAreaError{DistanceKm: v.DistanceKm, RadiusKm: f.desk.area.RadiusKm}
	default:
		return nil, ErrAddressNotValidated
	}

	b := &domain.Booking{
		ID:          uuid.NewString(),
		Service:     service,
		Date:        date,
		Time:        clock,
		Address:     address,
		DistanceKm:  v.DistanceKm,
		Notes:       strings.TrimSpace(req.Notes),
		SubmittedAt: f.desk.now(),
	}
	if v.Coordinates != nil {
		b.Coordinates = *v.Coordinates
	}

	publish(ctx, f.desk.publisher, f.desk.observer, domain.Event{
		Type:       domain.EventBookingSubmitted,
		OccurredAt: b.SubmittedAt,
		Payload: map[string]any{
			"id":         b.ID,
			"service":    b.Service.Value,
			"date":       b.Date.Format(dateLayout),
			"time":       b.Time.String(),
			"address":    b.Address,
			"distanceKm": b.DistanceKm,
			"notes":      b.Notes,
		},
	})

	f.resetToDefault()

	return b, nil
}

// resetToDefault restores the default address and re-checks it in the
// background.
func (f *AddressForm) resetToDefault() {
	address := f.desk.defaultAddress
	gen, _, ok := f.begin(address)
	if !ok {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), addressCheckWait)
		defer cancel()

		if _, err := f.check(ctx, gen, address); err != nil && !errors.Is(err, ErrStaleResult) {
			log.WithError(err).WithField("form", f.id).Warn("default address re-check failed")
		}
	}()
}

func parseBookingRequest(req BookingRequest) (domain.ServiceOption, time.Time, domain.ClockTime, error) {
	var (
		service domain.ServiceOption
		date    time.Time
		clock   domain.ClockTime
	)

	value := strings.TrimSpace(req.Service)
	if value == "" {
		return service, date, clock, &BookingFieldError{Field: "service", Reason: "is required"}
	}
	service, ok := domain.LookupService(value)
	if !ok {
		return service, date, clock, &BookingFieldError{Field: "service", Reason: fmt.Sprintf("%q is not offered", value)}
	}

	if strings.TrimSpace(req.Date) == "" {
		return service, date, clock, &BookingFieldError{Field: "date", Reason: "is required"}
	}
	date, err := time.Parse(dateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return service, date, clock, &BookingFieldError{Field: "date", Reason: "must be formatted as YYYY-MM-DD"}
	}

	if strings.TrimSpace(req.Time) == "" {
		return service, date, clock, &BookingFieldError{Field: "time", Reason: "is required"}
	}
	clock, err = domain.ParseClockTime(req.Time)
	if err != nil {
		return service, date, clock, &BookingFieldError{Field: "time", Reason: "is not a valid time of day"}
	}

	return service, date, clock, nil
}

// Confirmation renders the acknowledgement shown after a booking is accepted,
// e.g. "Your Standard Service booking for March 3rd, 2026 at 10:00 AM has been received."
func Confirmation(b domain.Booking) string {
	return fmt.Sprintf(
		"Your %s booking for %s %s, %d at %s has been received.",
		b.Service.Label, b.Date.Month(), ordinal(b.Date.Day()), b.Date.Year(), b.Time,
	)
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
