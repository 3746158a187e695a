package models

// FrontierEntry is one discovered page waiting to be visited
type FrontierEntry struct {
	URL   string `json:"url"`
	Depth int    `json:"depth"`
}
