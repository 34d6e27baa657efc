package globals

import "go.uber.org/zap"

type ContextKey string

const UserIDKey ContextKey = "userId"

// Logger is replaced in main once the configured logger is built.
var Logger = zap.NewNop()
