package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sweetpotato0/ai-lawdesk/message"
)

func TestMiddlewareChain(t *testing.T) {
	t.Run("empty chain executes final handler", func(t *testing.T) {
		chain := NewChain()
		executed := false

		err := chain.Execute(&Context{}, func(ctx *Context) error {
			executed = true
			return nil
		})

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if !executed {
			t.Error("final handler was not executed")
		}
	})

	t.Run("middleware chain executes in order", func(t *testing.T) {
		var order []string
		chain := NewChain(&recorder{name: "m1", order: &order}).Add(&recorder{name: "m2", order: &order})

		err := chain.Execute(&Context{}, func(c *Context) error {
			order = append(order, "final")
			return nil
		})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if diff := cmp.Diff([]string{"m1", "m2", "final"}, order); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
		if chain.Len() != 2 {
			t.Errorf("Len = %d", chain.Len())
		}
	})

	t.Run("error stops chain execution", func(t *testing.T) {
		var order []string
		boom := errors.New("boom")
		chain := NewChain(&recorder{name: "m1", err: boom, order: &order}, &recorder{name: "m2", order: &order})

		finalCalled := false
		err := chain.Execute(&Context{}, func(c *Context) error {
			finalCalled = true
			return nil
		})

		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want boom", err)
		}
		if finalCalled || len(order) != 1 {
			t.Errorf("chain continued after error: %v final=%v", order, finalCalled)
		}
	})
}

func TestContext(t *testing.T) {
	base := context.WithValue(context.Background(), ctxKey{}, "v")
	hist := []*message.Message{
		message.NewMessage(message.RoleUser, "first"),
	}
	ctx := NewContext(base, "s1", "first", hist)

	if ctx.Context() != base {
		t.Error("underlying context not preserved")
	}
	if ctx.Metadata == nil || len(ctx.Metadata) != 0 {
		t.Errorf("metadata = %v", ctx.Metadata)
	}
	if !ctx.FirstTurn() {
		t.Error("single user turn should be the first turn")
	}

	ctx.History = append(ctx.History,
		message.NewMessage(message.RoleAssistant, "reply"),
		message.NewMessage(message.RoleUser, "second"))
	if ctx.FirstTurn() {
		t.Error("second user turn reported as first")
	}

	if (&Context{}).Context() == nil {
		t.Error("zero context should fall back to background")
	}
}

type ctxKey struct{}

type recorder struct {
	name  string
	order *[]string
	err   error
}

func (m *recorder) Name() string {
	return m.name
}

func (m *recorder) Execute(ctx *Context, next Handler) error {
	*m.order = append(*m.order, m.name)
	if m.err != nil {
		return m.err
	}
	return next(ctx)
}
