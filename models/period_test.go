package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Period
		wantErr bool
	}{
		{input: "2024-05", want: Period{Year: 2024, Month: time.May}},
		{input: "1999-12", want: Period{Year: 1999, Month: time.December}},
		{input: "2024-13", wantErr: true},
		{input: "2024-5", wantErr: true},
		{input: "202405", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePeriod(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestPeriod_Boundaries(t *testing.T) {
	t.Parallel()

	p := MustParsePeriod("2024-02")

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, JST), p.Start())
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, JST), p.End())
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, JST), p.LastDay())
	assert.Equal(t, 20240229, CivilDate(p.LastDay()))

	// 2024-01-31 15:00 UTC is already February 1st in JST
	assert.Equal(t, p, PeriodOf(time.Date(2024, 1, 31, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, p.Prev(), PeriodOf(time.Date(2024, 1, 31, 14, 59, 59, 0, time.UTC)))
}

func TestPeriod_NextPrevAcrossYear(t *testing.T) {
	t.Parallel()

	dec := MustParsePeriod("2023-12")
	assert.Equal(t, "2024-01", dec.Next().String())
	assert.Equal(t, "2023-12", dec.Next().Prev().String())
	assert.True(t, dec.Before(dec.Next()))
	assert.False(t, dec.Next().Before(dec))
	assert.False(t, dec.Before(dec))
}

func TestPeriod_JSON(t *testing.T) {
	t.Parallel()

	var payload struct {
		Period Period `json:"period"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"period":"2024-07"}`), &payload))
	assert.Equal(t, MustParsePeriod("2024-07"), payload.Period)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"period":"2024-07"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"period":"July"}`), &payload))
}
