package ports

import "context"

// GraphQLClient is the host-side GraphQL transport.
// The response body is returned verbatim.
type GraphQLClient interface {
	Do(ctx context.Context, endpoint, query string) ([]byte, error)
}
