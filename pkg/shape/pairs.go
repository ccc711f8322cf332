package shape

// Pair is one measured value and the test it belongs to. TestName is empty
// when the value has no positional counterpart.
type Pair struct {
	TestName string `json:"testName"`
	Value    string `json:"value"`
}

// Pairing is the result of aligning lab result values with order tests.
// Aligned is false when the two lists had different lengths, in which case
// positions beyond the shorter list carry no test name.
type Pairing struct {
	Pairs   []Pair `json:"pairs"`
	Aligned bool   `json:"aligned"`
}

// NormalizePairs normalizes both sides and pairs them positionally.
func NormalizePairs(values, tests any) Pairing {
	return PairLists(NormalizeToArray(values), NormalizeToArray(tests))
}

// PairLists pairs two canonical lists. The result always has one entry per
// value.
func PairLists(values, tests []string) Pairing {
	pairs := make([]Pair, len(values))
	for i, v := range values {
		pairs[i].Value = v
		if i < len(tests) {
			pairs[i].TestName = tests[i]
		}
	}
	aligned := len(values) == len(tests)
	if len(tests) == 0 && len(values) > 0 {
		aligned = false
	}
	return Pairing{Pairs: pairs, Aligned: aligned}
}
