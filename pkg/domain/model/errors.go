package model

import "github.com/m-mizutani/goerr/v2"

var (
	ErrInvalidMemory = goerr.New("invalid memory")
)
