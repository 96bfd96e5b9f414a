// Package printer provides a leveled console writer used by the
// demonstration CLI and, optionally, by engine callers that want ingest
// progress echoed somewhere. The engine itself never writes to stdout or
// stderr and does not use this package.
package printer

import (
	"fmt"
	"io"
	"os"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/viper"
)

var (
	Stderr = NewP(os.Stderr)
	Stdout = NewP(os.Stdout)
	Color  = aurora.NewAurora(true)
)

func Infof(fmtString string, args ...interface{})    { Stderr.Infof(fmtString, args...) }
func Warningf(fmtString string, args ...interface{}) { Stderr.Warningf(fmtString, args...) }
func Errorf(fmtString string, args ...interface{})   { Stderr.Errorf(fmtString, args...) }
func Debugf(fmtString string, args ...interface{})   { Stderr.Debugf(fmtString, args...) }

func V(level int) P { return Stderr.V(level) }

// P is the logging surface used by the CLI and the config package.
type P interface {
	Infof(f string, args ...interface{})
	Warningf(f string, args ...interface{})
	Errorf(f string, args ...interface{})
	Debugf(f string, args ...interface{})
	V(level int) P
}

type impl struct {
	out io.Writer
}

func NewP(out io.Writer) P {
	return impl{out: out}
}

func (p impl) Infof(fmtString string, args ...interface{}) {
	fmt.Fprint(p.out, Color.Blue("[INFO] ").String())
	fmt.Fprintf(p.out, fmtString, args...)
}

func (p impl) Warningf(fmtString string, args ...interface{}) {
	fmt.Fprint(p.out, Color.Yellow("[WARNING] ").String())
	fmt.Fprintf(p.out, fmtString, args...)
}

func (p impl) Errorf(fmtString string, args ...interface{}) {
	fmt.Fprint(p.out, Color.Red("[ERROR] ").String())
	fmt.Fprintf(p.out, fmtString, args...)
}

func (p impl) Debugf(fmtString string, args ...interface{}) {
	if viper.GetBool("debug") {
		fmt.Fprint(p.out, Color.Magenta("[DEBUG] ").String())
		fmt.Fprintf(p.out, fmtString, args...)
	}
}

func (p impl) V(level int) P {
	if l := viper.GetInt("verbose-level"); l > 0 && level >= l {
		return p
	}
	return noop{}
}

// Noop returns a P that discards everything.
func Noop() P { return noop{} }

type noop struct{}

func (noop) Infof(string, ...interface{})    {}
func (noop) Warningf(string, ...interface{}) {}
func (noop) Errorf(string, ...interface{})   {}
func (noop) Debugf(string, ...interface{})   {}
func (noop) V(int) P                         { return noop{} }
