package interfaces

import "context"

// IFeedPublisher sends outbound messages to the market feed.
type IFeedPublisher interface {
	// ChangeSymbol asks the feed to stream symbol. It fails when the feed is not connected.
	ChangeSymbol(ctx context.Context, symbol, requestID string) error
}
