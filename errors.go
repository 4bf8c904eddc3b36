package main

import "errors"

// Error taxonomy. Handlers map these onto HTTP statuses and the reporter
// uses them to decide whether the watermark may advance.
var (
	ErrValidation  = errors.New("invalid order payload")
	ErrPersistence = errors.New("order store failure")
	ErrTransport   = errors.New("mail transport failure")
)
