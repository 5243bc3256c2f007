// Command echo_v2 is a test fixture artifact: declares the same name as the
// echo fixture ("echo") but from a distinct library identity, and responds
// with the request body reversed. Used to exercise the replacement edge
// case in loader_test.go.
package main

import "github.com/boson-project/funck/pkg/funck/abi"

type echoerV2 struct{}

func (echoerV2) Name() string { return "echo" }

func (echoerV2) Call(req abi.Request) (abi.Response, error) {
	body := make([]byte, len(req.Body))
	for i, b := range req.Body {
		body[len(body)-1-i] = b
	}
	return abi.Response{Body: body}, nil
}

func FunckCreate() abi.Funcktion { return echoerV2{} }

func main() {}
