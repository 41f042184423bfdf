package analytics

import "github.com/stwalsh4118/donations/api/internal/models"

var testYears = []models.Year{2023, 2024, 2025}

func rec(name string, amount float64, donors int) models.RawRecord {
	return models.RawRecord{Name: name, Amount: amount, DonorCount: donors}
}

func recAt(name, address string, amount float64, donors int) models.RawRecord {
	return models.RawRecord{Name: name, Address: address, Amount: amount, DonorCount: donors}
}

func recTax(name, taxID string, amount float64, donors int) models.RawRecord {
	return models.RawRecord{Name: name, TaxID: taxID, Amount: amount, DonorCount: donors}
}

// exampleDatasets is the two-company scenario: A gives 100, 200, 300 with one
// donor each year; B gives only 50 in the last year.
func exampleDatasets() map[models.Year][]models.RawRecord {
	return map[models.Year][]models.RawRecord{
		2023: {rec("A", 100, 1), rec("B", 0, 0)},
		2024: {rec("A", 200, 1), rec("B", 0, 0)},
		2025: {rec("A", 300, 1), rec("B", 50, 1)},
	}
}

func mustAggregate(datasets map[models.Year][]models.RawRecord) *EntityTable {
	t, err := Aggregate(datasets, testYears, KeyByName)
	if err != nil {
		panic(err)
	}
	return t
}
