package snsctx

import "context"

type ctxIndex int

const ctxIndexVerbose ctxIndex = iota

// IsVerbose reports whether raw bus traffic should be logged.
func IsVerbose(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	val, ok := ctx.Value(ctxIndexVerbose).(bool)
	if !ok {
		return false
	}
	return val
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}
