// Command greet is a test fixture artifact: a Funcktion declaring the name
// "greet" whose Call always responds with body "hi", ignoring the request.
package main

import "github.com/boson-project/funck/pkg/funck/abi"

type greeter struct{}

func (greeter) Name() string { return "greet" }

func (greeter) Call(abi.Request) (abi.Response, error) {
	return abi.Response{Body: []byte("hi")}, nil
}

// FunckCreate is the well-known constructor symbol the Loader resolves.
func FunckCreate() abi.Funcktion { return greeter{} }

func main() {}
