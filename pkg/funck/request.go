package funck

import "github.com/boson-project/funck/pkg/funck/abi"

// Request and Response are re-exported at package level so callers of
// Manager need not import the abi package directly; they are identical to
// their abi counterparts, which is also what artifacts compile against.
type (
	Request  = abi.Request
	Response = abi.Response
	KV       = abi.KV
)
