package core

import (
	"fmt"
	"math/rand"
)

// Fallback generation defaults. The fixed seed makes the fallback dataset
// reproducible across runs and across machines.
const (
	SampleSeed  int64 = 42
	SampleSize        = 5000
	SampleValueMin    = 100_000.0
	SampleValueMax    = 50_000_000.0
	SampleYearMin     = 2018
	SampleYearMax     = 2023
)

// SampleCountries is the fixed partner vocabulary for synthetic data.
var SampleCountries = []string{
	"USA", "China", "Germany", "UAE", "Japan",
	"UK", "Singapore", "Netherlands", "France", "Italy",
}

// SampleSectors is the fixed commodity-sector vocabulary for synthetic data.
var SampleSectors = []string{
	"Electronics", "Textiles", "Pharmaceuticals", "Machinery",
	"Chemicals", "Food Products", "Automobiles", "Jewelry",
}

// GenerateSample produces n synthetic trade records from a seeded PRNG.
// The same seed always yields the same sequence. Country, sector, year and
// trade type are sampled uniformly from their vocabularies; ValueUSD is
// uniform in [SampleValueMin, SampleValueMax); HSCode and Commodity are
// derived display strings.
func GenerateSample(seed int64, n int) []TradeRecord {
	rng := rand.New(rand.NewSource(seed))
	records := make([]TradeRecord, 0, n)
	for i := 0; i < n; i++ {
		sector := SampleSectors[rng.Intn(len(SampleSectors))]
		records = append(records, TradeRecord{
			Country:   SampleCountries[rng.Intn(len(SampleCountries))],
			HSSection: sector,
			HSCode:    fmt.Sprintf("%04d", 1000+rng.Intn(9000)),
			Commodity: fmt.Sprintf("Sample %s Product", sector),
			Year:      SampleYearMin + rng.Intn(SampleYearMax-SampleYearMin+1),
			TradeType: sampleTradeType(rng),
			ValueUSD:  SampleValueMin + rng.Float64()*(SampleValueMax-SampleValueMin),
		})
	}
	return records
}

// DefaultSample is the fallback dataset used when no real source is
// reachable.
func DefaultSample() []TradeRecord {
	return GenerateSample(SampleSeed, SampleSize)
}

func sampleTradeType(rng *rand.Rand) TradeType {
	if rng.Intn(2) == 0 {
		return Import
	}
	return Export
}
