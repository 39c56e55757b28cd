package security

import "context"

type clientInfoKey struct{}

// ClientInfo carries request attribution into detection side effects so
// logged events name the real origin rather than the service itself.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// WithClientInfo attaches request attribution to the context.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFromContext returns the attached attribution, if any.
func ClientInfoFromContext(ctx context.Context) (ClientInfo, bool) {
	info, ok := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info, ok
}
