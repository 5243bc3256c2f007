// Command panicker is a test fixture artifact: a Funcktion whose Call
// always panics, used to exercise the Loader's panic-to-CallError
// boundary.
package main

import "github.com/boson-project/funck/pkg/funck/abi"

type panicker struct{}

func (panicker) Name() string { return "panicker" }

func (panicker) Call(abi.Request) (abi.Response, error) {
	panic("boom")
}

func FunckCreate() abi.Funcktion { return panicker{} }

func main() {}
