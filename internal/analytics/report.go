package analytics

import (
	"fmt"
	"math"
	"slices"
	"time"

	"macrocli/internal/timeseries"
)

// TargetColumns are summarized when present, in this order.
var TargetColumns = []string{
	"Gas_Price", "Diesel_Price", "Oil_Price",
	"CPI_Total_YoY", "CPI_Food_YoY", "CPI_Energy_YoY", "CPI_Shelter_YoY",
	"Unemp_Total", "Unemp_Men", "Unemp_Women",
	"News_Total_Counting", "News_Count_Recession", "News_Count_Layoff",
	"News_Count_Crisis", "News_Count_High_Price", "News_Count_Unemployment",
}

const (
	// TradeoffThreshold is the correlation below which unemployment and
	// inflation are considered to trade off.
	TradeoffThreshold = -0.3
	// ShiftThreshold is the change in correlation across the break that
	// counts as a regime shift.
	ShiftThreshold = 0.3
	// MinRegressionPairs is the number of pairs the sensitivity fit must exceed.
	MinRegressionPairs = 10
)

var (
	breakMonth   = timeseries.Month(2020, time.January)
	covidPeak    = timeseries.Month(2020, time.April)
	supplyLags   = lags(1, 3)
	chainLags    = lags(0, 6)
	causalChains = []ChainSpec{
		{Name: "Energy -> Inflation", Leader: "Gas_Price", Follower: "CPI_Total_YoY"},
		{Name: "Inflation -> Labor", Leader: "CPI_Total_YoY", Follower: "Unemp_Total"},
		{Name: "Labor -> News", Leader: "Unemp_Total", Follower: "News_Total_Counting"},
	}
)

// ChainSpec names one leader/follower link of the causal chain.
type ChainSpec struct {
	Name     string `json:"name"`
	Leader   string `json:"leader"`
	Follower string `json:"follower"`
}

// Report is the complete analysis of a dataset. Sections whose columns are
// missing are nil and explained in Notes.
type Report struct {
	Rows       int       `json:"rows"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	Statistics []Summary `json:"statistics"`

	SupplyChain      *SupplyChain      `json:"supply_chain,omitempty"`
	LaborTradeoff    *LaborTradeoff    `json:"labor_tradeoff,omitempty"`
	GenderGap        *GenderGap        `json:"gender_gap,omitempty"`
	StructuralChange *StructuralChange `json:"structural_change,omitempty"`
	Sensitivity      *Sensitivity      `json:"sensitivity,omitempty"`
	CausalChain      []ChainLink       `json:"causal_chain"`

	Notes []string `json:"notes,omitempty"`
}

// SupplyChain relates diesel prices to food inflation.
type SupplyChain struct {
	Correlation Float       `json:"correlation"`
	Lags        []LagResult `json:"lags"`
}

// LaborTradeoff relates unemployment to headline inflation.
type LaborTradeoff struct {
	Correlation Float `json:"correlation"`
	Tradeoff    bool  `json:"tradeoff"`
}

// GenderGap describes women's minus men's unemployment rate.
type GenderGap struct {
	Mean     Float  `json:"mean"`
	Max      Float  `json:"max"`
	MaxMonth string `json:"max_month"`
	Peak     *Float `json:"covid_peak,omitempty"`
}

// StructuralChange compares the gasoline/inflation correlation across the 2020 break.
type StructuralChange struct {
	Before  Float `json:"before"`
	After   Float `json:"after"`
	Shifted bool  `json:"shifted"`
}

// Sensitivity is the least squares response of inflation to oil prices.
type Sensitivity struct {
	Regression
}

// ChainLink is the lag profile of one causal link.
type ChainLink struct {
	ChainSpec
	Lags      []LagResult `json:"lags"`
	Strongest *LagResult  `json:"strongest,omitempty"`
}

// Analyze runs every analysis over t.
func Analyze(t *timeseries.Table) *Report {
	r := &Report{Rows: t.Len(), CausalChain: []ChainLink{}}
	if months := t.Months(); len(months) > 0 {
		r.From = months[0].Format(timeseries.MonthLayout)
		r.To = months[len(months)-1].Format(timeseries.MonthLayout)
	}

	for _, c := range TargetColumns {
		if values, ok := t.Column(c); ok {
			r.Statistics = append(r.Statistics, Describe(c, values))
		}
	}
	if len(r.Statistics) == 0 {
		r.note("no target columns found")
	}

	r.SupplyChain = supplyChain(t, r)
	r.LaborTradeoff = laborTradeoff(t, r)
	r.GenderGap = genderGap(t, r)
	r.StructuralChange = structuralChange(t, r)
	r.Sensitivity = sensitivity(t, r)
	for _, spec := range causalChains {
		if link, ok := chainLink(t, spec); ok {
			r.CausalChain = append(r.CausalChain, link)
		} else {
			r.note("skipping %s: columns missing", spec.Name)
		}
	}
	return r
}

func (r *Report) note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// columns returns the named columns, or false when any is missing.
func columns(t *timeseries.Table, names ...string) ([][]float64, bool) {
	out := make([][]float64, len(names))
	for i, n := range names {
		values, ok := t.Column(n)
		if !ok {
			return nil, false
		}
		out[i] = values
	}
	return out, true
}

func supplyChain(t *timeseries.Table, r *Report) *SupplyChain {
	cols, ok := columns(t, "Diesel_Price", "CPI_Food_YoY")
	if !ok {
		r.note("supply chain: Diesel_Price or CPI_Food_YoY missing")
		return nil
	}
	return &SupplyChain{
		Correlation: Float(Pearson(cols[0], cols[1])),
		Lags:        LagProfile(cols[0], cols[1], supplyLags),
	}
}

func laborTradeoff(t *timeseries.Table, r *Report) *LaborTradeoff {
	cols, ok := columns(t, "Unemp_Total", "CPI_Total_YoY")
	if !ok {
		r.note("labor tradeoff: Unemp_Total or CPI_Total_YoY missing")
		return nil
	}
	corr := Pearson(cols[0], cols[1])
	return &LaborTradeoff{Correlation: Float(corr), Tradeoff: corr < TradeoffThreshold}
}

func genderGap(t *timeseries.Table, r *Report) *GenderGap {
	cols, ok := columns(t, "Unemp_Women", "Unemp_Men")
	if !ok {
		r.note("gender gap: Unemp_Women or Unemp_Men missing")
		return nil
	}

	months := t.Months()
	gap := make([]float64, len(months))
	maxIdx := -1
	for i := range gap {
		gap[i] = cols[0][i] - cols[1][i]
		if isFinite(gap[i]) && (maxIdx < 0 || gap[i] > gap[maxIdx]) {
			maxIdx = i
		}
	}
	if maxIdx < 0 {
		r.note("gender gap: no overlapping observations")
		return nil
	}

	g := &GenderGap{
		Mean:     Float(Mean(gap)),
		Max:      Float(gap[maxIdx]),
		MaxMonth: months[maxIdx].Format(timeseries.MonthLayout),
	}
	if i := slices.IndexFunc(months, func(m time.Time) bool { return m.Equal(covidPeak) }); i >= 0 {
		peak := Float(gap[i])
		g.Peak = &peak
	}
	return g
}

func structuralChange(t *timeseries.Table, r *Report) *StructuralChange {
	cols, ok := columns(t, "Gas_Price", "CPI_Total_YoY")
	if !ok {
		r.note("structural change: Gas_Price or CPI_Total_YoY missing")
		return nil
	}

	var preX, preY, postX, postY []float64
	for i, m := range t.Months() {
		if m.Before(breakMonth) {
			preX, preY = append(preX, cols[0][i]), append(preY, cols[1][i])
		} else {
			postX, postY = append(postX, cols[0][i]), append(postY, cols[1][i])
		}
	}
	if len(preX) == 0 || len(postX) == 0 {
		r.note("structural change: dataset does not span %s", breakMonth.Format(timeseries.MonthLayout))
		return nil
	}

	before, after := Pearson(preX, preY), Pearson(postX, postY)
	return &StructuralChange{
		Before:  Float(before),
		After:   Float(after),
		Shifted: math.Abs(after-before) > ShiftThreshold,
	}
}

func sensitivity(t *timeseries.Table, r *Report) *Sensitivity {
	cols, ok := columns(t, "Oil_Price", "CPI_Total_YoY")
	if !ok {
		r.note("sensitivity: Oil_Price or CPI_Total_YoY missing")
		return nil
	}
	fit, err := OLS(cols[0], cols[1], MinRegressionPairs)
	if err != nil {
		r.note("sensitivity: %v", err)
		return nil
	}
	return &Sensitivity{Regression: fit}
}

func chainLink(t *timeseries.Table, spec ChainSpec) (ChainLink, bool) {
	cols, ok := columns(t, spec.Leader, spec.Follower)
	if !ok {
		return ChainLink{}, false
	}
	link := ChainLink{ChainSpec: spec, Lags: LagProfile(cols[0], cols[1], chainLags)}
	if best, ok := Strongest(link.Lags); ok {
		link.Strongest = &best
	}
	return link, true
}
