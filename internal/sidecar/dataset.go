package sidecar

// Description is the dataset_description.json payload written at the output
// root.
type Description struct {
	Name        string
	BIDSVersion string
	DatasetType string
	Authors     []string
}

// DefaultDescription returns the fixed record written when no overrides are
// configured.
func DefaultDescription() Description {
	return Description{
		Name:        "BIDS dataset",
		BIDSVersion: "1.9.0",
		DatasetType: "raw",
	}
}

// WriteDescription persists a dataset description in the same canonical byte
// form as every other sidecar. Authors is omitted when empty.
func WriteDescription(path string, d Description) error {
	rec := Record{
		"Name":        d.Name,
		"BIDSVersion": d.BIDSVersion,
		"DatasetType": d.DatasetType,
	}
	if len(d.Authors) > 0 {
		rec["Authors"] = d.Authors
	}
	return Save(path, rec)
}
