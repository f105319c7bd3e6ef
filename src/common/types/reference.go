package types

// TOCReference is the operator list served by the Darwin reference API.
type TOCReference struct {
	Version string     `json:"version"`
	TOCList []TOCEntry `json:"TOCList"`
}

type TOCEntry struct {
	TOC   string `json:"toc"`
	Value string `json:"Value"`
}

// Operator is a train operating company, keyed by its ATOC code.
type Operator struct {
	Code string
	Name string
}
