package models

// Profile is the owner document shared with sibling tools.
type Profile struct {
	Org      string `json:"org"`
	User     string `json:"user"`
	Language string `json:"language"`
	Logo     string `json:"logo"`
}
