package analytics

// PerDonorAverage is amount divided by donors, or 0 when there are no donors.
func PerDonorAverage(amount float64, donors int) float64 {
	if donors <= 0 {
		return 0
	}
	return amount / float64(donors)
}

// AnnualPerCapita back-estimates a donor's yearly income from the disclosed
// amount: the per-donor average divided by the disclosure ratio.
// Zero donors or a non-positive ratio yield 0.
func AnnualPerCapita(amount float64, donors int, ratio float64) float64 {
	if donors <= 0 || ratio <= 0 {
		return 0
	}
	return PerDonorAverage(amount, donors) / ratio
}

// MonthlyPerCapita is AnnualPerCapita spread over twelve months.
func MonthlyPerCapita(amount float64, donors int, ratio float64) float64 {
	return AnnualPerCapita(amount, donors, ratio) / monthsPerYear
}

// FractionalChange is (cur-prev)/prev. A zero prior year counts as +100%
// growth when the current year is positive and as no change otherwise.
func FractionalChange(prev, cur float64) float64 {
	if prev > 0 {
		return (cur - prev) / prev
	}
	if cur > 0 {
		return 1
	}
	return 0
}
