// File: /models/types_test.go
package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-06-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-06-01", d.String())

	_, err = ParseDate("06/01/2026")
	assert.Error(t, err)

	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestDate_AddDays(t *testing.T) {
	d := NewDate(2026, time.June, 30)

	assert.Equal(t, "2026-07-02", d.AddDays(2).String())
	assert.Equal(t, "2026-06-28", d.AddDays(-2).String())
	assert.Equal(t, "2026-06-30", d.AddDays(0).String())

	// Leap day arithmetic.
	assert.Equal(t, "2028-02-29", NewDate(2028, time.February, 28).AddDays(1).String())
}

func TestDate_DaysUntil(t *testing.T) {
	a := NewDate(2026, time.June, 1)
	b := NewDate(2026, time.June, 8)

	assert.Equal(t, 7, a.DaysUntil(b))
	assert.Equal(t, -7, b.DaysUntil(a))
	assert.Equal(t, 0, a.DaysUntil(a))
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(2026, time.June, 1)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-06-01"`, string(out))

	var parsed Date
	require.NoError(t, json.Unmarshal([]byte(`"2026-06-01"`), &parsed))
	assert.True(t, parsed.Equal(d))

	var zero Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &zero))
	assert.True(t, zero.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"not-a-date"`), &parsed))
}

func TestDate_Scan(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan("2026-06-01"))
	assert.Equal(t, "2026-06-01", d.String())

	require.NoError(t, d.Scan([]byte("2026-07-15")))
	assert.Equal(t, "2026-07-15", d.String())

	require.NoError(t, d.Scan(time.Date(2026, time.August, 3, 14, 30, 0, 0, time.Local)))
	assert.Equal(t, "2026-08-03", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}

func TestDate_Value(t *testing.T) {
	v, err := NewDate(2026, time.June, 1).Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-06-01", v)
}
