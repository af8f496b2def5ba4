package core

import "time"

type (
	// ReportSummary freezes the totals and derived metrics of one month.
	// DebtRatio is a percentage rounded to two decimals.
	ReportSummary struct {
		TotalIncome      Money   `json:"totalIncome"`
		TotalAssets      Money   `json:"totalAssets"`
		TotalLiabilities Money   `json:"totalLiabilities"`
		NetWorth         Money   `json:"netWorth"`
		Liquidity        Money   `json:"liquidity"`
		DebtRatio        float64 `json:"debtRatio"`
	}

	// ReportAnalysis holds the categorical labels computed at generation
	// time from fixed thresholds.
	ReportAnalysis struct {
		Patrimony    string `json:"patrimonialSituation"`
		Liquidity    string `json:"liquidityLevel"`
		Indebtedness string `json:"indebtednessLevel"`
	}

	ReportLine struct {
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Date        time.Time `json:"date"`
	}

	ReportDetails struct {
		Income      []ReportLine `json:"income"`
		Assets      []ReportLine `json:"assets"`
		Liabilities []ReportLine `json:"liabilities"`
	}

	// ReportSnapshot is keyed by period and overwritten on regeneration,
	// never auto-updated.
	ReportSnapshot struct {
		ID          string         `json:"id"`
		Period      string         `json:"period"`
		GeneratedAt time.Time      `json:"generatedAt"`
		Summary     ReportSummary  `json:"summary"`
		Details     ReportDetails  `json:"details"`
		Analysis    ReportAnalysis `json:"analysis"`
	}

	ComparisonSide struct {
		Period      string        `json:"period"`
		GeneratedAt time.Time     `json:"generatedAt"`
		Summary     ReportSummary `json:"summary"`
	}

	ComparisonMetrics struct {
		Income      float64 `json:"income"`
		Assets      float64 `json:"assets"`
		Liabilities float64 `json:"liabilities"`
		NetWorth    float64 `json:"netWorth"`
		Liquidity   float64 `json:"liquidity"`
	}

	ComparisonDeltas struct {
		Income      Money `json:"income"`
		Assets      Money `json:"assets"`
		Liabilities Money `json:"liabilities"`
		NetWorth    Money `json:"netWorth"`
		Liquidity   Money `json:"liquidity"`
	}

	// Comparison holds absolute and percentage deltas between two
	// snapshots. A percentage is 0 when its baseline metric is exactly 0.
	Comparison struct {
		Base     ComparisonSide    `json:"base"`
		Current  ComparisonSide    `json:"current"`
		Deltas   ComparisonDeltas  `json:"deltas"`
		Percents ComparisonMetrics `json:"percents"`
	}

	// Trends carries parallel series over the n most recently generated
	// snapshots, newest first, plus arithmetic means.
	Trends struct {
		Periods     []string          `json:"periods"`
		Income      []Money           `json:"income"`
		Assets      []Money           `json:"assets"`
		Liabilities []Money           `json:"liabilities"`
		NetWorth    []Money           `json:"netWorth"`
		Liquidity   []Money           `json:"liquidity"`
		Averages    ComparisonMetrics `json:"averages"`
	}
)

// Analysis labels. Thresholds follow the report aggregator contract:
// debt ratio below 30 is low, below 60 moderate, otherwise high.
const (
	PatrimonyPositive = "Positive"
	PatrimonyNegative = "Negative"
	LiquidityGood     = "Good"
	LiquidityTight    = "Tight"
	DebtLow           = "Low"
	DebtModerate      = "Moderate"
	DebtHigh          = "High"
)
