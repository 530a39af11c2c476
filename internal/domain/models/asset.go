package models

// Asset is an instrument tracked by the system.
type Asset struct {
	ID       string
	Symbol   string
	Name     string
	Type     string // "stock", "crypto", "etf", ...
	IsActive bool
}
