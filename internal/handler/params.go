package handler

import (
	"net/http"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/observ-ing/core-sub000/internal/domain"
)

// actorHeader carries the authenticated caller's DID, set by the gateway.
const actorHeader = "X-Actor-DID"

// binding collects the first query parameter binding failure so handlers
// can bind several parameters and check once.
type binding struct {
	r   *http.Request
	err error
}

func bind(r *http.Request) *binding {
	return &binding{r: r}
}

// required binds a mandatory form-style query parameter into dest.
func (b *binding) required(name string, dest any) *binding {
	return b.query(name, true, dest)
}

// optional binds a form-style query parameter into dest, which must be a
// pointer to a pointer so absence stays nil.
func (b *binding) optional(name string, dest any) *binding {
	return b.query(name, false, dest)
}

func (b *binding) query(name string, required bool, dest any) *binding {
	if b.err != nil {
		return b
	}
	b.err = runtime.BindQueryParameter("form", true, required, name, b.r.URL.Query(), dest)
	return b
}

// subjectParams addresses one subject of one occurrence.
type subjectParams struct {
	Occurrence string
	Subject    *int
}

func bindSubject(r *http.Request) (subjectParams, error) {
	var p subjectParams
	err := bind(r).
		required("occurrence", &p.Occurrence).
		optional("subject", &p.Subject).err
	return p, err
}

// index returns the subject index, defaulting to subject 0.
func (p subjectParams) index() int {
	if p.Subject == nil {
		return 0
	}
	return *p.Subject
}

// pointParams is an optional lat/lng pair with a radius.
type pointParams struct {
	Lat     *float64
	Lng     *float64
	RadiusM *float64
}

func (p *pointParams) bind(b *binding) *binding {
	return b.optional("lat", &p.Lat).optional("lng", &p.Lng).optional("radius_m", &p.RadiusM)
}

// point returns the location, or nil when neither coordinate was supplied.
// Supplying exactly one coordinate is a validation error.
func (p pointParams) point() (*domain.GeoPoint, error) {
	if p.Lat == nil && p.Lng == nil {
		return nil, nil
	}
	if p.Lat == nil || p.Lng == nil {
		return nil, errIncompletePoint
	}
	return &domain.GeoPoint{Latitude: *p.Lat, Longitude: *p.Lng}, nil
}

func (p pointParams) radius() float64 {
	if p.RadiusM == nil {
		return 0
	}
	return *p.RadiusM
}

// pageParams are the cursor pagination parameters of a feed.
type pageParams struct {
	Cursor *string
	Limit  *int
}

func (p *pageParams) bind(b *binding) *binding {
	return b.optional("cursor", &p.Cursor).optional("limit", &p.Limit)
}

func (p pageParams) cursor() string {
	if p.Cursor == nil {
		return ""
	}
	return strings.TrimSpace(*p.Cursor)
}

func (p pageParams) limit() int {
	return domain.NewLimit(p.Limit)
}

type paramError string

func (e paramError) Error() string { return string(e) }

const errIncompletePoint = paramError("lat and lng must be supplied together")
