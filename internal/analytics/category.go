// Package analytics categorizes raw bank transactions and computes
// spending summaries, period comparisons, insights and budget status.
//
// Everything in this package is pure: no I/O, no clock. Callers pass the
// reference time explicitly.
package analytics

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ryanuber/go-glob"
	"github.com/shopspring/decimal"
)

// Normalized category labels.
const (
	FoodAndDining  = "Food & Dining"
	Shopping       = "Shopping"
	Transportation = "Transportation"
	Entertainment  = "Entertainment"
	Healthcare     = "Healthcare"
	Services       = "Services"
	Utilities      = "Utilities"
	Travel         = "Travel"
	Fees           = "Fees"
	Income         = "Income"
	Transfer       = "Transfer"
	Cash           = "Cash"
	Interest       = "Interest"
	Payment        = "Payment"
	Other          = "Other"
)

// Transaction is a raw transaction as delivered by the aggregation API.
//
// A positive Amount is money leaving the account. Zero and negative amounts
// are income or transfers and never count as spending.
type Transaction struct {
	ID           string
	AccountID    string
	Date         time.Time
	Amount       decimal.Decimal
	MerchantName string
	Name         string
	Categories   []string // Category hierarchy, broadest first
}

// IsSpend reports whether the transaction counts as spending.
func (t Transaction) IsSpend() bool {
	return t.Amount.IsPositive()
}

type merchantRule struct {
	fragment string
	category string
}

type keywordRule struct {
	pattern  *regexp.Regexp
	category string
}

// merchants is scanned in order, the first fragment contained in the
// merchant name wins. "uber" precedes "ubereats", so "Uber Eats" resolves
// to Transportation.
var merchants = []merchantRule{
	{"uber", Transportation},
	{"lyft", Transportation},
	{"grab", Transportation},
	{"bolt", Transportation},
	{"ola", Transportation},
	{"citymapper", Transportation},
	{"lime", Transportation},
	{"bird", Transportation},
	{"zipcar", Transportation},
	{"hertz", Transportation},
	{"enterprise", Transportation},
	{"shell", Transportation},
	{"bp", Transportation},
	{"exxon", Transportation},
	{"chevron", Transportation},
	{"mobil", Transportation},
	{"esso", Transportation},
	{"texaco", Transportation},
	{"metro", Transportation},
	{"mta", Transportation},
	{"tfl", Transportation},

	{"mcdonalds", FoodAndDining},
	{"starbucks", FoodAndDining},
	{"dominos", FoodAndDining},
	{"pizza hut", FoodAndDining},
	{"kfc", FoodAndDining},
	{"subway", FoodAndDining},
	{"chipotle", FoodAndDining},
	{"panera", FoodAndDining},
	{"dunkin", FoodAndDining},
	{"taco bell", FoodAndDining},
	{"wendys", FoodAndDining},
	{"burger king", FoodAndDining},
	{"deliveroo", FoodAndDining},
	{"just eat", FoodAndDining},
	{"grubhub", FoodAndDining},
	{"doordash", FoodAndDining},
	{"ubereats", FoodAndDining},
	{"postmates", FoodAndDining},
	{"seamless", FoodAndDining},
	{"instacart", FoodAndDining},
	{"whole foods", FoodAndDining},
	{"trader joes", FoodAndDining},
	{"safeway", FoodAndDining},
	{"kroger", FoodAndDining},
	{"publix", FoodAndDining},

	{"walmart", Shopping},
	{"target", Shopping},
	{"costco", Shopping},
	{"sams club", Shopping},

	{"netflix", Entertainment},
	{"spotify", Entertainment},
	{"apple music", Entertainment},
	{"amazon prime", Entertainment},
	{"disney", Entertainment},
	{"hulu", Entertainment},
	{"hbo", Entertainment},
	{"youtube", Entertainment},
	{"twitch", Entertainment},
	{"steam", Entertainment},
	{"playstation", Entertainment},
	{"xbox", Entertainment},
	{"nintendo", Entertainment},
	{"cinema", Entertainment},
	{"theater", Entertainment},
	{"gym", Entertainment},
	{"fitness", Entertainment},

	{"amazon", Shopping},
	{"ebay", Shopping},
	{"etsy", Shopping},
	{"best buy", Shopping},
	{"apple store", Shopping},
	{"microsoft store", Shopping},
	{"nike", Shopping},
	{"adidas", Shopping},
	{"zara", Shopping},
	{"h&m", Shopping},
	{"uniqlo", Shopping},
	{"macys", Shopping},
	{"nordstrom", Shopping},
	{"sephora", Shopping},
	{"ulta", Shopping},

	{"verizon", Utilities},
	{"att", Utilities},
	{"t-mobile", Utilities},
	{"sprint", Utilities},
	{"comcast", Utilities},
	{"spectrum", Utilities},
	{"cox", Utilities},
	{"directv", Utilities},
	{"dish", Utilities},
}

// hierarchy maps aggregation API category names to normalized labels.
var hierarchy = func() map[string]string {
	groups := []struct {
		category string
		names    []string
	}{
		{FoodAndDining, []string{"Food and Drink", "Restaurants", "Fast Food", "Coffee Shop", "Bar", "Food Delivery", "Groceries", "Supermarkets and Groceries"}},
		{Shopping, []string{"Shops", "Department Stores", "Clothing and Accessories", "Electronics", "Home and Garden", "Sporting Goods", "Books and Music", "Online Shopping"}},
		{Entertainment, []string{"Recreation", "Movies and DVDs", "Music and Audio", "Sporting Events", "Amusement", "Arts and Crafts", "Games", "Gyms and Fitness Centers"}},
		{Transportation, []string{"Transportation", "Gas Stations", "Taxi", "Public Transportation", "Parking", "Car Service", "Automotive", "Ride Share"}},
		{Healthcare, []string{"Healthcare", "Doctors", "Dentists", "Eye Care", "Pharmacy", "Medical Services", "Mental Health"}},
		{Services, []string{"Service", "Insurance", "Professional Services", "Personal Care", "Repair and Maintenance", "Laundry and Dry Cleaning"}},
		{Utilities, []string{"Bills", "Internet", "Mobile Phone", "Television", "Utilities", "Electric", "Gas", "Water", "Cable"}},
		{Fees, []string{"Bank Fees", "ATM", "Late Fee", "Overdraft", "Foreign Transaction", "Wire Transfer"}},
		{Travel, []string{"Travel", "Hotels", "Airlines", "Car Rental", "Travel Agencies"}},
		{Cash, []string{"Cash Advance"}},
		{Interest, []string{"Interest"}},
		{Payment, []string{"Payment"}},
		{Income, []string{"Deposit"}},
		{Transfer, []string{"Transfer"}},
	}

	m := make(map[string]string)
	for _, g := range groups {
		for _, name := range g.names {
			m[name] = g.category
		}
	}
	return m
}()

var keywords = []keywordRule{
	{regexp.MustCompile(`\b(taxi|cab|ride|transport|metro|bus|train|parking|toll|gas|fuel|petrol)\b`), Transportation},
	{regexp.MustCompile(`\b(restaurant|cafe|coffee|pizza|food|lunch|dinner|breakfast|grocery|market)\b`), FoodAndDining},
	{regexp.MustCompile(`\b(store|shop|retail|mall|purchase|buy|order)\b`), Shopping},
	{regexp.MustCompile(`\b(movie|cinema|game|sport|gym|fitness|entertainment|music|streaming)\b`), Entertainment},
	{regexp.MustCompile(`\b(doctor|hospital|pharmacy|medical|health|dental|clinic)\b`), Healthcare},
	{regexp.MustCompile(`\b(electric|water|gas|internet|phone|cable|utility|bill)\b`), Utilities},
	{regexp.MustCompile(`\b(fee|charge|atm|bank|interest|penalty|overdraft)\b`), Fees},
}

var colors = map[string]string{
	FoodAndDining:  "#FF6B6B",
	Shopping:       "#4ECDC4",
	Transportation: "#45B7D1",
	Entertainment:  "#96CEB4",
	Healthcare:     "#FECA57",
	Services:       "#54A0FF",
	Utilities:      "#FF9FF3",
	Travel:         "#A55EEA",
	Fees:           "#FD79A8",
	Income:         "#00B894",
	Transfer:       "#FDCB6E",
	Other:          "#6C5CE7",
}

// Color returns the display colour for a category. Categories outside the
// palette get the colour of Other.
func Color(category string) string {
	if c, ok := colors[category]; ok {
		return c
	}
	return colors[Other]
}

// Rule is an owner-defined categorization override. Match is a glob pattern
// tested against the merchant name and then the transaction name, ignoring case.
type Rule struct {
	Priority uint
	Match    string
	Category string
}

// Resolver maps transactions to normalized categories.
//
// The zero value applies only the built-in tables.
type Resolver struct {
	rules []Rule
}

// NewResolver returns a Resolver that tries the given rules, lowest priority
// first, before falling back to the built-in tables.
func NewResolver(rules ...Rule) Resolver {
	sorted := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.Match) == "" || strings.TrimSpace(r.Category) == "" {
			continue
		}
		sorted = append(sorted, Rule{
			Priority: r.Priority,
			Match:    strings.ToLower(r.Match),
			Category: r.Category,
		})
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	return Resolver{rules: sorted}
}

// Resolve categorizes a transaction with the built-in tables.
func Resolve(t Transaction) string {
	return Resolver{}.Resolve(t)
}

// Resolve returns the normalized category for t. It always returns a
// non-empty label.
func (r Resolver) Resolve(t Transaction) string {
	merchant := strings.ToLower(strings.TrimSpace(t.MerchantName))
	name := strings.ToLower(strings.TrimSpace(t.Name))

	for _, rule := range r.rules {
		if (merchant != "" && glob.Glob(rule.Match, merchant)) || (name != "" && glob.Glob(rule.Match, name)) {
			return rule.Category
		}
	}

	if c, ok := matchMerchant(merchant); ok {
		return c
	}

	if c, ok := matchMerchant(name); ok {
		return c
	}

	if len(t.Categories) > 0 {
		// Most specific level first
		for i := len(t.Categories) - 1; i >= 0; i-- {
			if c, ok := hierarchy[t.Categories[i]]; ok {
				return c
			}
		}

		if broadest := strings.TrimSpace(t.Categories[0]); broadest != "" {
			return broadest
		}
	}

	text := merchant + " " + name
	for _, k := range keywords {
		if k.pattern.MatchString(text) {
			return k.category
		}
	}

	return Other
}

func matchMerchant(s string) (string, bool) {
	if s == "" {
		return "", false
	}

	for _, m := range merchants {
		if strings.Contains(s, m.fragment) {
			return m.category, true
		}
	}
	return "", false
}
