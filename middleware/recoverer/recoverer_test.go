package recoverer

import (
	"errors"
	"testing"

	"github.com/uniyakcom/pulse/core"
)

// TestRecoverPanic panic 转为 PanicError 返回
func TestRecoverPanic(t *testing.T) {
	h := New()(func(core.Args) error { panic("kaboom") })

	err := h(core.Args{})
	var pe *core.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PanicError", err)
	}
	if pe.Value != "kaboom" {
		t.Errorf("recovered value = %v", pe.Value)
	}
}

// TestPassthrough 正常返回不受影响
func TestPassthrough(t *testing.T) {
	sentinel := errors.New("plain")
	h := New()(func(core.Args) error { return sentinel })
	if err := h(core.Args{}); !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want sentinel", err)
	}

	h = New()(func(core.Args) error { return nil })
	if err := h(core.Args{}); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}
