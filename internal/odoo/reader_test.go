package odoo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	rows  []Record
	err   error
	calls int
	ids   []int64
}

func (s *stubReader) Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error) {
	s.calls++
	s.ids = ids
	return s.rows, s.err
}

func TestParseID(t *testing.T) {
	cases := []struct {
		in   interface{}
		want int64
		err  error
	}{
		{float64(42), 42, nil},
		{"42", 42, nil},
		{" 17 ", 17, nil},
		{nil, 0, ErrMissingID},
		{"  ", 0, ErrMissingID},
		{"abc", 0, ErrInvalidID},
		{4.5, 0, ErrInvalidID},
		{true, 0, ErrInvalidID},
		{[]interface{}{1}, 0, ErrInvalidID},
	}
	for _, tc := range cases {
		got, err := ParseID(tc.in)
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, "input %v", tc.in)
			continue
		}
		require.NoError(t, err, "input %v", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestReadOne(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		r := &stubReader{rows: []Record{{"name": "A"}, {"name": "B"}}}
		rec, err := ReadOne(ctx, r, "res.partner", "5", []string{"name"})
		require.NoError(t, err)
		assert.Equal(t, "A", rec.String("name"))
		assert.Equal(t, []int64{5}, r.ids)
	})

	t.Run("invalid ids never reach the reader", func(t *testing.T) {
		for _, id := range []interface{}{nil, "", "x"} {
			r := &stubReader{}
			_, err := ReadOne(ctx, r, "res.partner", id, nil)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Zero(t, r.calls)
		}
	})

	t.Run("read failure", func(t *testing.T) {
		_, err := ReadOne(ctx, &stubReader{err: errors.New("boom")}, "res.partner", 5, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty result", func(t *testing.T) {
		_, err := ReadOne(ctx, &stubReader{}, "res.partner", 5, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRecordAccessors_FalseValues(t *testing.T) {
	rec := Record{
		"carrier_tracking_ref": false,
		"phone":                false,
		"weight":               float64(2.5),
		"carrier_id":           false,
		"move_ids":             []interface{}{float64(1), float64(2)},
		"x_flag":               true,
	}
	assert.Equal(t, "", rec.String("carrier_tracking_ref"))
	assert.Equal(t, 2.5, rec.Float("weight"))
	assert.Equal(t, 0.0, rec.Float("shipping_weight"))
	_, _, ok := rec.Many2One("carrier_id")
	assert.False(t, ok)
	assert.Equal(t, []int64{1, 2}, rec.IDs("move_ids"))
	assert.Nil(t, rec.IDs("move_line_ids"))
	assert.True(t, rec.Bool("x_flag"))
	assert.False(t, rec.Bool("phone"))
}
