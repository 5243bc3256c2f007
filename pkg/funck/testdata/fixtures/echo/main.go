// Command echo is a test fixture artifact: a Funcktion declaring the name
// "echo" whose Call returns the request body unchanged.
package main

import "github.com/boson-project/funck/pkg/funck/abi"

type echoer struct{}

func (echoer) Name() string { return "echo" }

func (echoer) Call(req abi.Request) (abi.Response, error) {
	return abi.Response{Body: req.Body}, nil
}

func FunckCreate() abi.Funcktion { return echoer{} }

func main() {}
