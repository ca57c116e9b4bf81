package schema

import "fmt"

// Canonical column names. The header row of every output table uses these
// verbatim, in the order returned by CanonicalColumns.
const (
	ColDate        = "Date"
	ColPlatform    = "Platform"
	ColStage       = "Stage"
	ColInstalls    = "Installs"
	ColActiveUsers = "Active_Users"
	ColNotes       = "Notes"
	ColRank1       = "Rank_1"
	ColRank2to3    = "Rank_2_3"
	ColRank4to10   = "Rank_4_10"
	ColRank11to30  = "Rank_11_30"
	ColRank31to100 = "Rank_31_100"
	ColRank100Plus = "Rank_100_Plus"
)

// canonicalColumns fixes the output schema per data type. Stage is not
// listed; it is appended after classification.
var canonicalColumns = map[DataType][]string{
	Keywords: {ColDate, ColRank1, ColRank2to3, ColRank4to10, ColRank11to30, ColRank31to100, ColRank100Plus, ColPlatform},
	Installs: {ColDate, ColInstalls, ColPlatform},
	Users:    {ColDate, ColActiveUsers, ColPlatform, ColNotes},
}

// numericColumns lists the columns that carry counts and therefore go
// through the numeric cleaner and the missing-cell policy.
var numericColumns = map[DataType][]string{
	Keywords: {ColRank1, ColRank2to3, ColRank4to10, ColRank11to30, ColRank31to100, ColRank100Plus},
	Installs: {ColInstalls},
	Users:    {ColActiveUsers},
}

// Both stores export keyword rankings with identical column names.
var keywordsMapping = map[string]string{
	"DateTime":    ColDate,
	"Rank 1":      ColRank1,
	"Rank 2 - 3":  ColRank2to3,
	"Rank 4 - 10": ColRank4to10,
	"Rank 11-30":  ColRank11to30,
	"Rank 31-100": ColRank31to100,
	"Rank 100+":   ColRank100Plus,
}

var installsMapping = map[Platform]map[string]string{
	Apple: {
		"Date":           ColDate,
		"Installs Apple": ColInstalls,
	},
	Google: {
		"Date":                 ColDate,
		"Installs Google Play": ColInstalls,
	},
}

// The two stores structure the active-users export very differently.
// Apple puts the date under "Nom" and prefixes the data with two metadata
// rows; Google uses the full Play Console metric name with a no-break
// space before the colon.
var usersMapping = map[Platform]map[string]string{
	Apple: {
		"Nom":                          ColDate,
		"Courses U : Magasin en ligne": ColActiveUsers,
	},
	Google: {
		"Date": ColDate,
		"Utilisateurs actifs par mois (UAM) (Utilisateurs uniques, Par intervalle, Quotidiennes) : Tous les pays/régions": ColActiveUsers,
		"Notes": ColNotes,
	},
}

// optionalSources lists mapping sources that may legitimately be absent
// from an export. Their canonical column defaults to empty.
var optionalSources = map[DataType]map[Platform]map[string]bool{
	Users: {Google: {"Notes": true}},
}

// MappingError signals schema drift: a raw export no longer carries a
// column the mapping expects. It aborts the affected data type only.
type MappingError struct {
	DataType DataType
	Platform Platform
	Column   string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s/%s: source column %q not found in export header", e.DataType, e.Platform, e.Column)
}

// CanonicalColumns returns the fixed output schema for a data type,
// excluding Stage. Unknown data types are a configuration error.
func CanonicalColumns(dataType DataType) ([]string, error) {
	cols, ok := canonicalColumns[dataType]
	if !ok {
		return nil, fmt.Errorf("unknown data type %q", dataType)
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out, nil
}

// NumericColumns returns the canonical columns of a data type that hold
// counts.
func NumericColumns(dataType DataType) []string {
	cols := numericColumns[dataType]
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// MappingFor returns the source-to-canonical rename table for one
// (data type, platform) pair. Unknown pairs fail fast: they mean the
// pipeline is misconfigured, not that an export drifted.
func MappingFor(dataType DataType, platform Platform) (map[string]string, error) {
	if platform != Apple && platform != Google {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}
	var m map[string]string
	switch dataType {
	case Keywords:
		m = keywordsMapping
	case Installs:
		m = installsMapping[platform]
	case Users:
		m = usersMapping[platform]
	default:
		return nil, fmt.Errorf("unknown data type %q", dataType)
	}
	out := make(map[string]string, len(m))
	for src, dst := range m {
		out[src] = dst
	}
	return out, nil
}

// ValidateHeader checks a raw export header against the mapping for the
// pair. A source column counts as present when the header carries either
// the source name or the already-canonical name; anything else is a
// MappingError naming the offending column.
func ValidateHeader(dataType DataType, platform Platform, header []string) error {
	mapping, err := MappingFor(dataType, platform)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	optional := optionalSources[dataType][platform]
	for src, dst := range mapping {
		if present[src] || present[dst] || optional[src] {
			continue
		}
		return &MappingError{DataType: dataType, Platform: platform, Column: src}
	}
	return nil
}
