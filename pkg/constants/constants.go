package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	AppKey     ContextKey = "app"
	TxKey      ContextKey = "tx"
	PoolKey    ContextKey = "pool"
	LoggerKey  ContextKey = "logger"
	ParamsKey  ContextKey = "params"
)

const (
	DateLayout = "2006-01-02"
)

var Validate = validator.New(validator.WithRequiredStructEnabled())
