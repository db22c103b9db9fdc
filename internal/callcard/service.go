package callcard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps are the collaborators of a Service. Geo, Events and Audit may be nil.
type Deps struct {
	Store      Store
	Templates  TemplateCatalog
	Categories CategoryResolver
	Properties PropertyCatalog
	History    HistorySource
	Orders     OrderLedger
	Geo        GeoLookup
	Settings   Settings
	Events     Emitter
	Audit      AuditLog
}

// Service assembles card views and reconciles submitted cards.
type Service struct {
	store      Store
	templates  TemplateCatalog
	categories CategoryResolver
	properties PropertyCatalog
	history    HistorySource
	orders     OrderLedger
	geo        GeoLookup
	settings   Settings
	events     Emitter
	audit      AuditLog

	policy Policy
	log    *zap.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator sets the generator of durable ids.
func WithIDGenerator(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

// New creates a Service.
func New(d Deps, opts ...Option) *Service {
	s := &Service{
		store:      d.Store,
		templates:  d.Templates,
		categories: d.Categories,
		properties: d.Properties,
		history:    d.History,
		orders:     d.Orders,
		geo:        d.Geo,
		settings:   d.Settings,
		events:     d.Events,
		audit:      d.Audit,
		policy:     DefaultPolicy(),
		log:        zap.NewNop(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.events == nil {
		s.events = nopEmitter{}
	}
	if s.audit == nil {
		s.audit = nopAudit{}
	}
	return s
}

// Policy returns the status groupings in use.
func (s *Service) Policy() Policy {
	return s.policy
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, Event) {}

// emit stamps and hands events to the sink. Sinks are fire-and-forget.
func (s *Service) emit(ctx context.Context, events ...Event) {
	for _, e := range events {
		if e.Timestamp.IsZero() {
			e.Timestamp = s.now()
		}
		s.events.Emit(ctx, e)
	}
}

// isDurableID reports whether id is a server issued UUID rather than a
// client token.
func isDurableID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

type viewSettings struct {
	lookback   int
	geo        bool
	categories []int
}

// loadSettings reads the view settings. Unset or malformed values turn the
// feature off.
func (s *Service) loadSettings(ctx context.Context, gameTypeID int) viewSettings {
	var vs viewSettings
	if s.settings == nil {
		return vs
	}
	raw := func(key string) string {
		v, err := s.settings.Setting(ctx, gameTypeID, key)
		if err != nil {
			s.log.Warn("setting lookup failed", zap.String("key", key), zap.Error(err))
			return ""
		}
		return strings.TrimSpace(v)
	}

	if v := raw(SettingPreviousVisits); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.log.Warn("malformed setting", zap.String("key", SettingPreviousVisits), zap.String("value", v))
		} else {
			vs.lookback = n
		}
	}
	if v := raw(SettingIncludeGeo); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.log.Warn("malformed setting", zap.String("key", SettingIncludeGeo), zap.String("value", v))
		} else {
			vs.geo = b
		}
	}
	if v := raw(SettingCategories); v != "" {
		codes, err := parseIntList(v)
		if err != nil {
			s.log.Warn("malformed setting", zap.String("key", SettingCategories), zap.String("value", v))
		} else {
			vs.categories = codes
		}
	}
	return vs
}

func parseIntList(v string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// resolveTemplate loads templateID when given, otherwise the single template
// assigned to the caller.
func (s *Service) resolveTemplate(ctx context.Context, scope Scope, templateID string) (*Template, error) {
	if templateID != "" {
		t, err := s.templates.Template(ctx, templateID)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", templateID, err)
		}
		return t, nil
	}

	assigned, err := s.templates.Assigned(ctx, TemplateQuery{
		UserID:      scope.UserID,
		UserGroupID: scope.UserGroupID,
		GameTypeID:  scope.GameTypeID,
	})
	if err != nil {
		return nil, fmt.Errorf("assigned templates: %w", err)
	}
	if len(assigned) != 1 {
		s.emit(ctx, newEvent(EventNoDistinctTemplate, scope, "", 0, 0))
		return nil, fmt.Errorf("%w: %d templates assigned to user %s in group %s", ErrConfiguration, len(assigned), scope.UserID, scope.UserGroupID)
	}
	return &assigned[0], nil
}

// categoriesFor resolves product categories when a filter is configured.
// Failures disable categories for the call.
func (s *Service) categoriesFor(ctx context.Context, gameTypeID int, filter []int) map[string]int {
	if len(filter) == 0 || s.categories == nil {
		return nil
	}
	cats, err := s.categories.CategoriesFor(ctx, gameTypeID, filter)
	if err != nil {
		s.log.Warn("category lookup failed", zap.Int("gameTypeId", gameTypeID), zap.Error(err))
		return nil
	}
	return cats
}

// FirstCategory returns the first of a product's category codes, in catalog
// order, that the filter allows.
func FirstCategory(codes []int, filter []int) (int, bool) {
	for _, c := range codes {
		for _, f := range filter {
			if c == f {
				return c, true
			}
		}
	}
	return 0, false
}
