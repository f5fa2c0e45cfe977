// Package catalog holds the fixed lookup tables of the dashboard: which page
// belongs to which request type, the product sold for each request type,
// revenue per conversion and the value lists offered by the filters.
//
// A Catalog is immutable after construction. Accessors hand out copies so
// callers cannot mutate shared state.
package catalog

// Request type names.
const (
	ScheduledDemo       = "Scheduled Demo"
	PromotionalEvent    = "Promotional Event"
	VirtualAssistant    = "Virtual Assistant"
	PrototypingSolution = "Prototyping Solution"
	Other               = "Other"
)

// NoJob is the job classification of events on pages that are not tied to a
// request type.
const NoJob = "None"

// RequestPage pairs a request type with the page that represents it.
type RequestPage struct {
	RequestType string
	Page        string
}

// Tables is the raw configuration a Catalog is built from.
type Tables struct {
	// RequestPages is ordered; the order drives filter options and products.
	RequestPages []RequestPage
	// FillerPages are visited pages that map to the Other request type.
	FillerPages []string
	// Products maps a request type (including Other) to a product name.
	Products map[string]string
	// Revenue per conversion request type. Types not listed earn nothing.
	Revenue map[string]float64
	// ProfitMargin is applied to revenue, e.g. 0.3 for 30%.
	ProfitMargin float64
	Countries    []string
	JobTypes     []string
	StatusCodes  []int
}

// DefaultTables returns the tables of the Al-Solutions sales dashboard.
func DefaultTables() Tables {
	return Tables{
		RequestPages: []RequestPage{
			{RequestType: ScheduledDemo, Page: "/scheduledemo.php"},
			{RequestType: PromotionalEvent, Page: "/event.php"},
			{RequestType: VirtualAssistant, Page: "/virtualassistant.php"},
			{RequestType: PrototypingSolution, Page: "/prototype.php"},
		},
		FillerPages: []string{"/index.html", "/contact.php"},
		Products: map[string]string{
			ScheduledDemo:       "Demo Product",
			PromotionalEvent:    "Event Product",
			VirtualAssistant:    "VA Product",
			PrototypingSolution: "Prototype Product",
			Other:               "General Product",
		},
		Revenue: map[string]float64{
			ScheduledDemo:       500,
			VirtualAssistant:    300,
			PrototypingSolution: 1000,
		},
		ProfitMargin: 0.3,
		Countries:    []string{"US", "UK", "FR", "DE", "JP", "CN", "BR", "IN", "AU", "CA"},
		JobTypes:     []string{"Software Assistance", "AI Integration", "Custom Development", "Consulting"},
		StatusCodes:  []int{200, 304, 404},
	}
}

// Catalog answers lookups over a fixed set of Tables.
type Catalog struct {
	requestTypes []string
	pages        []string
	fillerPages  []string
	typeByPage   map[string]string
	products     map[string]string
	revenue      map[string]float64
	margin       float64
	countries    []string
	jobTypes     []string
	statusCodes  []int
}

// New builds a Catalog from t. The tables are copied.
func New(t Tables) *Catalog {
	c := &Catalog{
		typeByPage:  make(map[string]string, len(t.RequestPages)),
		products:    make(map[string]string, len(t.Products)),
		revenue:     make(map[string]float64, len(t.Revenue)),
		margin:      t.ProfitMargin,
		fillerPages: append([]string(nil), t.FillerPages...),
		countries:   append([]string(nil), t.Countries...),
		jobTypes:    append([]string(nil), t.JobTypes...),
		statusCodes: append([]int(nil), t.StatusCodes...),
	}
	for _, rp := range t.RequestPages {
		c.requestTypes = append(c.requestTypes, rp.RequestType)
		c.pages = append(c.pages, rp.Page)
		c.typeByPage[rp.Page] = rp.RequestType
	}
	for k, v := range t.Products {
		c.products[k] = v
	}
	for k, v := range t.Revenue {
		c.revenue[k] = v
	}
	return c
}

// Default returns a Catalog over DefaultTables.
func Default() *Catalog {
	return New(DefaultTables())
}

// RequestType maps a page to its request type, Other when unknown.
func (c *Catalog) RequestType(page string) string {
	if rt, ok := c.typeByPage[page]; ok {
		return rt
	}
	return Other
}

// IsRequestPage reports whether page represents a request type.
func (c *Catalog) IsRequestPage(page string) bool {
	_, ok := c.typeByPage[page]
	return ok
}

// Product returns the product sold for a request type, or "" if none.
func (c *Catalog) Product(requestType string) string {
	return c.products[requestType]
}

// Revenue returns the revenue earned by one request of the given type.
func (c *Catalog) Revenue(requestType string) float64 {
	return c.revenue[requestType]
}

// Profit applies the profit margin to revenue.
func (c *Catalog) Profit(revenue float64) float64 {
	return revenue * c.margin
}

// IsConversion reports whether requestType generates revenue.
func (c *Catalog) IsConversion(requestType string) bool {
	_, ok := c.revenue[requestType]
	return ok
}

// ConversionTypes lists revenue-generating request types in catalog order.
func (c *Catalog) ConversionTypes() []string {
	var out []string
	for _, rt := range c.requestTypes {
		if c.IsConversion(rt) {
			out = append(out, rt)
		}
	}
	return out
}

// RequestTypes lists every request type followed by Other.
func (c *Catalog) RequestTypes() []string {
	return append(append([]string(nil), c.requestTypes...), Other)
}

// Products lists product names in request type order, Other's product last.
func (c *Catalog) Products() []string {
	out := make([]string, 0, len(c.requestTypes)+1)
	seen := make(map[string]bool)
	for _, rt := range c.RequestTypes() {
		p, ok := c.products[rt]
		if !ok || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Pages lists the request pages followed by the filler pages.
func (c *Catalog) Pages() []string {
	return append(append([]string(nil), c.pages...), c.fillerPages...)
}

// Countries lists the countries that traffic originates from.
func (c *Catalog) Countries() []string {
	return append([]string(nil), c.countries...)
}

// JobTypes lists the job classifications, without NoJob.
func (c *Catalog) JobTypes() []string {
	return append([]string(nil), c.jobTypes...)
}

// JobTypesWithNone lists the job classifications followed by NoJob.
func (c *Catalog) JobTypesWithNone() []string {
	return append(c.JobTypes(), NoJob)
}

// StatusCodes lists the response codes the synthesizer picks from.
func (c *Catalog) StatusCodes() []int {
	return append([]int(nil), c.statusCodes...)
}
