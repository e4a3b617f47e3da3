package inspector

import (
	"github.com/cargo-inspection/internal/http/handlers/shared"
	"github.com/cargo-inspection/internal/http/response"
	"github.com/cargo-inspection/internal/service"
)

var outboundErrorRules = []shared.MappedError{
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.outbound_not_found"},
}

var directoryErrorRules = []shared.MappedError{
	{Target: service.ErrProfileNotFound, Code: response.CodeNotFound, Key: "error.profile_not_found"},
}
