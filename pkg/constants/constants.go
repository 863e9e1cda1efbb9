package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	TxKey          ContextKey = "tx"
	PoolKey        ContextKey = "pool"
	TenantIDKey    ContextKey = "tenantID"
	ActorKey       ContextKey = "actor"
	LoggerKey      ContextKey = "logger"
	RequestIDKey   ContextKey = "requestID"
	AfterCommitKey ContextKey = "afterCommit"
)

var Validate = validator.New(validator.WithRequiredStructEnabled())
