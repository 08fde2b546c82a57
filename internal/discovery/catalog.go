// Package discovery iterates candidate camera models, acquires images for
// the ones not yet stored, and persists them subject to a daily quota.
package discovery

// Candidate identifies one camera model to consider during a pass.
type Candidate struct {
	Brand    string
	Model    string
	Category string
}

// seedCatalog is the built-in candidate source. Brands are listed in fixed
// order so passes are deterministic and the quota cut-off point is stable
// between runs: the next pass resumes exactly where the previous one
// stopped, because already-saved candidates are skipped by the exists check.
var seedCatalog = []struct {
	brand  string
	models []Candidate
}{
	{"Canon", []Candidate{
		{"Canon", "EOS R5", "mirrorless"},
		{"Canon", "EOS R6 Mark II", "mirrorless"},
		{"Canon", "EOS R8", "mirrorless"},
		{"Canon", "EOS R50", "mirrorless"},
		{"Canon", "EOS 5D Mark IV", "dslr"},
		{"Canon", "EOS 90D", "dslr"},
		{"Canon", "EOS C70", "cinema"},
		{"Canon", "AE-1", "film"},
	}},
	{"Nikon", []Candidate{
		{"Nikon", "Z8", "mirrorless"},
		{"Nikon", "Z9", "mirrorless"},
		{"Nikon", "Z6 III", "mirrorless"},
		{"Nikon", "Zf", "mirrorless"},
		{"Nikon", "D850", "dslr"},
		{"Nikon", "D780", "dslr"},
		{"Nikon", "FM2", "film"},
	}},
	{"Sony", []Candidate{
		{"Sony", "A1", "mirrorless"},
		{"Sony", "A7 IV", "mirrorless"},
		{"Sony", "A7R V", "mirrorless"},
		{"Sony", "A6700", "mirrorless"},
		{"Sony", "FX3", "cinema"},
		{"Sony", "FX30", "cinema"},
		{"Sony", "RX100 VII", "compact"},
	}},
	{"Fujifilm", []Candidate{
		{"Fujifilm", "X-T5", "mirrorless"},
		{"Fujifilm", "X-H2S", "mirrorless"},
		{"Fujifilm", "X100VI", "compact"},
		{"Fujifilm", "GFX 100 II", "medium-format"},
		{"Fujifilm", "GFX 50S II", "medium-format"},
	}},
	{"Panasonic", []Candidate{
		{"Panasonic", "Lumix S5 II", "mirrorless"},
		{"Panasonic", "Lumix GH7", "mirrorless"},
		{"Panasonic", "Lumix G9 II", "mirrorless"},
	}},
	{"Olympus", []Candidate{
		{"Olympus", "OM-1 Mark II", "mirrorless"},
		{"Olympus", "OM-5", "mirrorless"},
	}},
	{"Leica", []Candidate{
		{"Leica", "M11", "mirrorless"},
		{"Leica", "Q3", "compact"},
		{"Leica", "SL3", "mirrorless"},
	}},
	{"Pentax", []Candidate{
		{"Pentax", "K-3 Mark III", "dslr"},
		{"Pentax", "K-1 Mark II", "dslr"},
		{"Pentax", "17", "film"},
	}},
	{"Hasselblad", []Candidate{
		{"Hasselblad", "X2D 100C", "medium-format"},
		{"Hasselblad", "907X & CFV 100C", "medium-format"},
	}},
	{"Sigma", []Candidate{
		{"Sigma", "fp L", "mirrorless"},
		{"Sigma", "fp", "mirrorless"},
	}},
	{"Ricoh", []Candidate{
		{"Ricoh", "GR III", "compact"},
		{"Ricoh", "GR IIIx", "compact"},
	}},
	{"Blackmagic", []Candidate{
		{"Blackmagic", "Pocket Cinema Camera 6K Pro", "cinema"},
		{"Blackmagic", "Cinema Camera 6K", "cinema"},
	}},
}

// SeedCandidates returns the full candidate list in catalog order.
func SeedCandidates() []Candidate {
	var out []Candidate
	for _, brand := range seedCatalog {
		out = append(out, brand.models...)
	}
	return out
}
