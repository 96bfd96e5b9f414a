package engine

import (
	"github.com/sankooc/shark-go/dissector"
	"github.com/sankooc/shark-go/dissector/application"
	"github.com/sankooc/shark-go/dissector/link"
	"github.com/sankooc/shark-go/dissector/network"
	"github.com/sankooc/shark-go/dissector/transport"
)

// defaultRegistry wires every dissector package's Register function into
// one shared registry (component D). It lives here, rather than in
// package dissector itself, because the link/network/transport/application
// packages each import dissector — wiring them together from inside that
// package would be an import cycle.
func defaultRegistry() *dissector.Registry {
	reg := dissector.NewRegistry()
	link.Register(reg)
	network.Register(reg)
	transport.Register(reg)
	application.Register(reg)
	return reg
}
