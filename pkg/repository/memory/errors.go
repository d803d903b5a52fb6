package memory

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
)

var (
	ErrNotFound = goerr.Wrap(interfaces.ErrNotFound, "memory repository")
)
