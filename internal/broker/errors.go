package broker

import "errors"

var (
	ErrNotFound    = errors.New("symbol not known to broker")
	ErrRateLimited = errors.New("rate limited by broker API")
	ErrAuthFailed  = errors.New("broker authentication failed")
	ErrNoData      = errors.New("broker returned no usable data")
)
