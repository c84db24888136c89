package scraper

import (
	"fmt"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/use-agent/propsearch/config"
	"github.com/use-agent/propsearch/models"
)

// FieldKind says which form helper fills a binding.
type FieldKind int

const (
	FieldDropdown FieldKind = iota
	FieldText
)

// ExtractKind says what a site's result container holds.
type ExtractKind int

const (
	ExtractTableKind ExtractKind = iota
	ExtractTextKind
)

// FieldBinding maps one request field onto one form control.
type FieldBinding struct {
	Param    string
	Selector string
	Kind     FieldKind

	// Settle is paused after this binding, whether or not a value was
	// supplied, so dependent dropdowns can repopulate.
	Settle bool
}

// Site describes one external search form.
type Site struct {
	Name      string
	URL       string
	Anchor    string
	Fields    []FieldBinding
	Submit    string
	Result    string
	NoRecords string // optional
	Extract   ExtractKind
}

// Site names.
const (
	SiteUrbanByName    = "urban-by-name"
	SiteUrbanByAddress = "urban-by-address"
	SiteRural          = "rural"
)

const (
	defaultUrbanByNameURL    = "https://esearch.delhigovt.nic.in/SearchByName1.aspx"
	defaultUrbanByAddressURL = "https://esearch.delhigovt.nic.in/SearchByAdd.aspx"
	defaultRuralURL          = "https://gsdl.org.in/revenue/#"
)

// Sites is the set of configured adapters.
type Sites struct {
	UrbanByName    *Site
	UrbanByAddress *Site
	Rural          *Site
}

// NewSites builds the three adapters, applying URL overrides from cfg, and
// validates every selector.
func NewSites(cfg config.SitesConfig) (*Sites, error) {
	s := &Sites{
		UrbanByName: &Site{
			Name:   SiteUrbanByName,
			URL:    orDefault(cfg.UrbanByNameURL, defaultUrbanByNameURL),
			Anchor: "#ddlSRO",
			Fields: []FieldBinding{
				{Param: models.FieldSRO, Selector: "#ddlSRO", Kind: FieldDropdown},
				{Param: models.FieldPartyName, Selector: "#txtpartyname", Kind: FieldText},
				{Param: models.FieldRegYear, Selector: "#ddlYear", Kind: FieldDropdown},
			},
			Submit:    "#btnSearch",
			Result:    "#grdSearchResult",
			NoRecords: "#lblNoRecords",
			Extract:   ExtractTableKind,
		},
		UrbanByAddress: &Site{
			Name:   SiteUrbanByAddress,
			URL:    orDefault(cfg.UrbanByAddressURL, defaultUrbanByAddressURL),
			Anchor: "#ddlSRO",
			Fields: []FieldBinding{
				{Param: models.FieldSRO, Selector: "#ddlSRO", Kind: FieldDropdown},
				{Param: models.FieldAddress, Selector: "#txtaddress", Kind: FieldText},
				{Param: models.FieldRegYear, Selector: "#ddlYear", Kind: FieldDropdown},
			},
			Submit:    "#btnSearch",
			Result:    "#grdSearchResult",
			NoRecords: "#lblNoRecords",
			Extract:   ExtractTableKind,
		},
		Rural: &Site{
			Name:   SiteRural,
			URL:    orDefault(cfg.RuralURL, defaultRuralURL),
			Anchor: "#district",
			Fields: []FieldBinding{
				{Param: models.FieldDistrict, Selector: "#district", Kind: FieldDropdown, Settle: true},
				{Param: models.FieldDivision, Selector: "#division", Kind: FieldDropdown, Settle: true},
				{Param: models.FieldVillage, Selector: "#village", Kind: FieldDropdown},
				{Param: models.FieldRectangle, Selector: "#rectangle", Kind: FieldText},
				{Param: models.FieldKhasra, Selector: "#khasra", Kind: FieldText},
			},
			Submit:  "#searchButton",
			Result:  "#resultsContainer",
			Extract: ExtractTextKind,
		},
	}

	for _, site := range s.All() {
		if err := site.Validate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// All returns the adapters in a stable order.
func (s *Sites) All() []*Site {
	return []*Site{s.UrbanByName, s.UrbanByAddress, s.Rural}
}

// Validate checks that the site is complete and its selectors parse.
func (s *Site) Validate() error {
	if s.Name == "" || s.URL == "" {
		return fmt.Errorf("site %q: name and url are required", s.Name)
	}
	selectors := []string{s.Anchor, s.Submit, s.Result}
	if s.NoRecords != "" {
		selectors = append(selectors, s.NoRecords)
	}
	for _, f := range s.Fields {
		if f.Param == "" {
			return fmt.Errorf("site %q: field binding without param", s.Name)
		}
		selectors = append(selectors, f.Selector)
	}
	for _, sel := range selectors {
		if _, err := cascadia.Parse(sel); err != nil {
			return fmt.Errorf("site %q: invalid selector %q: %w", s.Name, sel, err)
		}
	}
	return nil
}

// Timing holds the waits a search flow observes.
type Timing struct {
	ReadyTimeout    time.Duration
	SubmitSettle    time.Duration
	ResultTimeout   time.Duration
	DependentSettle time.Duration
	CaptureSettle   time.Duration
	SearchTimeout   time.Duration
}

// TimingFromConfig copies the configured waits.
func TimingFromConfig(cfg config.TimingConfig) Timing {
	return Timing{
		ReadyTimeout:    cfg.ReadyTimeout,
		SubmitSettle:    cfg.SubmitSettle,
		ResultTimeout:   cfg.ResultTimeout,
		DependentSettle: cfg.DependentSettle,
		CaptureSettle:   cfg.CaptureSettle,
		SearchTimeout:   cfg.SearchTimeout,
	}
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
