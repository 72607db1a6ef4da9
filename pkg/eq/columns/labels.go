package columns

// Labels maps canonical fields to human-readable headers and term
// descriptions. Values are read-only once constructed.
type Labels struct {
	headers      map[string]string
	descriptions map[string]string
}

// NewLabels builds a label set; missing headers fall back to the field key.
func NewLabels(headers, descriptions map[string]string) Labels {
	l := Labels{headers: map[string]string{}, descriptions: map[string]string{}}
	for k, v := range headers {
		l.headers[k] = v
	}
	for k, v := range descriptions {
		l.descriptions[k] = v
	}
	return l
}

// Header returns the display header for col.
func (l Labels) Header(col string) string {
	if h, ok := l.headers[col]; ok {
		return h
	}
	return col
}

// ExportHeader is Header with a percent unit marker on percent fields.
func (l Labels) ExportHeader(col string) string {
	if IsPercent(col) {
		return l.Header(col) + " (%)"
	}
	return l.Header(col)
}

// Description returns the term explanation for col, if any.
func (l Labels) Description(col string) (string, bool) {
	d, ok := l.descriptions[col]
	return d, ok
}

// LabelsFor returns the built-in label set for lang ("en" or "ja").
// Unknown languages get English.
func LabelsFor(lang string) Labels {
	if lang == "ja" {
		return NewLabels(headersJA, descriptionsJA)
	}
	return NewLabels(headersEN, descriptionsEN)
}

var headersEN = map[string]string{
	Ticker:         "Ticker",
	CompanyName:    "Company",
	ForwardPE:      "Forward P/E",
	PriceToBook:    "P/B",
	DividendYield:  "Dividend Yield",
	CurrentPrice:   "Price",
	Beta:           "Beta",
	EarningsGrowth: "Earnings Growth",
}

var descriptionsEN = map[string]string{
	ForwardPE:      "Price divided by expected earnings per share. Lower values suggest a cheaper stock.",
	PriceToBook:    "Price divided by book value per share. 1x is often treated as a floor; lower suggests cheaper.",
	DividendYield:  "Annual dividend as a share of the price. Higher means more dividend per unit invested.",
	Beta:           "Sensitivity to the overall market. Below 1 moves less than the market.",
	EarningsGrowth: "Pace at which the company's earnings are growing. Higher means faster growth.",
}

var headersJA = map[string]string{
	Ticker:         "銘柄コード",
	CompanyName:    "企業名",
	ForwardPE:      "予想PER",
	PriceToBook:    "PBR",
	DividendYield:  "配当利回り",
	CurrentPrice:   "現在株価",
	Beta:           "ベータ値",
	EarningsGrowth: "収益成長率",
}

var descriptionsJA = map[string]string{
	ForwardPE:      "株価が1株当たり予想純利益の何倍かを示す指標。低いほど割安と判断される。",
	PriceToBook:    "株価が1株当たり純資産の何倍かを示す指標。1倍が底値の目安とされ、低いほど割安と判断される。",
	DividendYield:  "株価に対する年間配当金の割合。高いほど投資額に対して多くの配当を受け取れる。",
	Beta:           "市場全体の動きに対する連動性。1より小さいと市場平均より値動きが穏やか。",
	EarningsGrowth: "企業の利益が成長するペース。高いほど成長性が高い。",
}
