package interfaces

// IAddressState keeps the page address in step with the active symbol.
type IAddressState interface {
	// InitialSymbol is the symbol to open on startup.
	InitialSymbol() string

	// Write records symbol as active and returns the new page url and title.
	Write(symbol string) (url, title string)
}
