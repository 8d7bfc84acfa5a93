package coalesce

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type baseClient struct {
	Ping func(context.Context) (string, error)
}

func (baseClient) Version(context.Context) (string, error) { return "v1", nil }

type userClient struct {
	baseClient

	Lookup  func(ctx context.Context, id int) (string, error)
	Timeout int
	Label   string

	calls atomic.Int32
}

func (c *userClient) GetUser(_ context.Context, id int) (string, error) {
	c.calls.Add(1)

	return fmt.Sprintf("user-%d", id), nil
}

func (c *userClient) Search(_ context.Context, q string, limit int) ([]string, error) {
	return []string{fmt.Sprintf("%s:%d", q, limit)}, nil
}

func (c *userClient) Fail(context.Context) (any, error) { return nil, context.Canceled }

// Shapes that are not calls.
func (c *userClient) Close() error                               { return nil }
func (c *userClient) NoContext(id int) (string, error)           { return "", nil }
func (c *userClient) OneResult(context.Context) error            { return nil }
func (c *userClient) Many(context.Context, ...int) (int, error)  { return 0, nil }
func (c *userClient) unexported(context.Context) (string, error) { return "", nil } //nolint:unused

type emptyClient struct{}

func opNames(ops map[string]*Operation) []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func TestOperationsOf_Members(t *testing.T) {
	client := &userClient{
		baseClient: baseClient{Ping: func(context.Context) (string, error) { return "pong", nil }},
		Lookup:     func(_ context.Context, id int) (string, error) { return fmt.Sprint("lookup-", id), nil },
		Timeout:    5,
	}

	ops := OperationsOf(client)
	require.Equal(t, []string{"Fail", "GetUser", "Lookup", "Ping", "Search", "Version"}, opNames(ops))

	t.Run("methods", func(t *testing.T) {
		require.Equal(t, "userClient.GetUser", ops["GetUser"].Name())

		v, err := ops["GetUser"].Call(context.Background(), 7)
		require.NoError(t, err)
		require.Equal(t, "user-7", v)

		v, err = ops["Search"].Call(context.Background(), "go", 3)
		require.NoError(t, err)
		require.Equal(t, []string{"go:3"}, v)

		_, err = ops["Fail"].Call(context.Background())
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("function fields", func(t *testing.T) {
		v, err := ops["Lookup"].Call(context.Background(), 9)
		require.NoError(t, err)
		require.Equal(t, "lookup-9", v)
	})

	t.Run("non-function fields are skipped", func(t *testing.T) {
		require.NotContains(t, ops, "Timeout")
		require.NotContains(t, ops, "Label")
	})

	t.Run("embedded methods and function fields", func(t *testing.T) {
		v, err := ops["Version"].Call(context.Background())
		require.NoError(t, err)
		require.Equal(t, "v1", v)

		v, err = ops["Ping"].Call(context.Background())
		require.NoError(t, err)
		require.Equal(t, "pong", v)
	})

	t.Run("other shapes are skipped", func(t *testing.T) {
		for _, name := range []string{"Close", "NoContext", "OneResult", "Many", "unexported"} {
			require.NotContains(t, ops, name)
		}
	})
}

func TestOperationsOf_NilFunctionFieldSkipped(t *testing.T) {
	ops := OperationsOf(&userClient{})
	require.NotContains(t, ops, "Lookup")
	require.NotContains(t, ops, "Ping")
	require.Contains(t, ops, "GetUser")
}

func TestOperationsOf_ValueReceiver(t *testing.T) {
	// Pointer-receiver methods are not in the value's method set.
	ops := OperationsOf(userClient{})
	require.Equal(t, []string{"Version"}, opNames(ops))
}

func TestOperationsOf_Empty(t *testing.T) {
	require.Empty(t, OperationsOf(emptyClient{}))
	require.Empty(t, OperationsOf(&emptyClient{}))

	ops := OperationsOf(nil)
	require.NotNil(t, ops)
	require.Empty(t, ops)
}

func TestOperationsOf_ArgumentMismatch(t *testing.T) {
	ops := OperationsOf(&userClient{})

	tests := []struct {
		name string
		op   string
		args []any
	}{
		{name: "wrong type", op: "GetUser", args: []any{"7"}},
		{name: "missing argument", op: "GetUser"},
		{name: "extra argument", op: "Fail", args: []any{1}},
		{name: "second argument wrong type", op: "Search", args: []any{"go", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ops[tt.op].Call(context.Background(), tt.args...)
			require.ErrorIs(t, err, ErrArgumentMismatch)
		})
	}

	t.Run("nil argument is the zero value", func(t *testing.T) {
		v, err := ops["GetUser"].Call(context.Background(), nil)
		require.NoError(t, err)
		require.Equal(t, "user-0", v)
	})
}

func TestOperationsOf_SharedThroughManager(t *testing.T) {
	mgr, _ := newTestManager(t)
	client := &userClient{}
	ops := OperationsOf(client)

	sub1, err := mgr.Subscribe(ops["GetUser"], []any{1}, Options{})
	require.NoError(t, err)
	sub2, err := mgr.Subscribe(ops["GetUser"], []any{1}, Options{})
	require.NoError(t, err)

	waitSettled(t, sub1)
	waitSettled(t, sub2)

	require.Equal(t, sub1.Signature(), sub2.Signature())
	require.Equal(t, "user-1", sub1.Response())
	require.Equal(t, "user-1", sub2.Response())
	require.Equal(t, int32(1), client.calls.Load())
}
