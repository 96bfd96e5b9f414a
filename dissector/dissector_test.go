package dissector

import (
	"errors"
	"testing"

	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/reader"
)

func TestDispatchChainsTokens(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", func(r *reader.Reader, ctx *Context) (*model.Field, Token, error) {
		start := r.Pos()
		r.Skip(1)
		return Child(r, start, "layer a"), "b", nil
	})
	reg.Register("b", func(r *reader.Reader, ctx *Context) (*model.Field, Token, error) {
		start := r.Pos()
		r.Skip(1)
		return Child(r, start, "layer b"), TokenNone, nil
	})

	r := reader.New([]byte{1, 2})
	ctx := &Context{}
	roots := reg.Dispatch("a", r, ctx)

	if len(roots) != 2 {
		t.Fatalf("expected 2 root fields, got %d", len(roots))
	}
	if roots[0].Summary != "layer a" || roots[1].Summary != "layer b" {
		t.Fatalf("unexpected field summaries: %+v %+v", roots[0], roots[1])
	}
	if ctx.Status != model.StatusInfo {
		t.Fatalf("expected info status, got %v", ctx.Status)
	}
}

func TestDispatchUnknownTokenWarns(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", func(r *reader.Reader, ctx *Context) (*model.Field, Token, error) {
		start := r.Pos()
		return Child(r, start, "layer a"), "nowhere", nil
	})

	r := reader.New([]byte{1})
	ctx := &Context{}
	roots := reg.Dispatch("a", r, ctx)

	if len(roots) != 2 {
		t.Fatalf("expected layer a plus the synthetic warning field, got %d", len(roots))
	}
	if roots[1].Tag != "unknown" {
		t.Fatalf("expected unknown tag on the trailing field, got %q", roots[1].Tag)
	}
	if ctx.Status != model.StatusWarn {
		t.Fatalf("expected warn status after an unrecognised token, got %v", ctx.Status)
	}
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", func(r *reader.Reader, ctx *Context) (*model.Field, Token, error) {
		panic("boom")
	})

	r := reader.New([]byte{1})
	ctx := &Context{}

	roots := reg.Dispatch("a", r, ctx)

	if len(roots) != 0 {
		t.Fatalf("expected no fields survive a panicking dissector, got %d", len(roots))
	}
	if ctx.Status != model.StatusError {
		t.Fatalf("expected error status after a panic, got %v", ctx.Status)
	}
}

func TestDispatchStopsOnError(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", func(r *reader.Reader, ctx *Context) (*model.Field, Token, error) {
		return nil, "b", errors.New("bad layer")
	})
	reg.Register("b", func(r *reader.Reader, ctx *Context) (*model.Field, Token, error) {
		t.Fatal("layer b must not run after layer a errors")
		return nil, TokenNone, nil
	})

	r := reader.New([]byte{1})
	ctx := &Context{}
	reg.Dispatch("a", r, ctx)

	if ctx.Status != model.StatusError {
		t.Fatalf("expected error status, got %v", ctx.Status)
	}
}

func TestContextWarnDoesNotDowngradeError(t *testing.T) {
	ctx := &Context{}
	ctx.Fail()
	ctx.Warn()
	if ctx.Status != model.StatusError {
		t.Fatalf("Warn must not downgrade an existing error status, got %v", ctx.Status)
	}
}
