package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "1/2/1980", want: "1980-01-02", wantOK: true},
		{in: "12/31/1999", want: "1999-12-31", wantOK: true},
		{in: "02/30/2020", want: "2020-02-30", wantOK: true},
		{in: "13/01/2000", wantOK: false},
		{in: "0/10/2000", wantOK: false},
		{in: "1/32/2000", wantOK: false},
		{in: "1/0/2000", wantOK: false},
		{in: "1980-01-02", wantOK: false},
		{in: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeDate(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDateOfBirthValue(t *testing.T) {
	str := func(s string) *string { return &s }

	t.Run("nil is null", func(t *testing.T) {
		assert.False(t, DateOfBirthValue(nil).Valid)
	})

	t.Run("valid date", func(t *testing.T) {
		got := DateOfBirthValue(str("7/4/1976"))
		assert.True(t, got.Valid)
		assert.Equal(t, time.Date(1976, time.July, 4, 0, 0, 0, 0, time.UTC), got.Time)
	})

	t.Run("leap day", func(t *testing.T) {
		assert.True(t, DateOfBirthValue(str("2/29/2020")).Valid)
		assert.False(t, DateOfBirthValue(str("2/29/2021")).Valid)
	})

	t.Run("impossible day is null", func(t *testing.T) {
		assert.False(t, DateOfBirthValue(str("02/30/2020")).Valid)
	})

	t.Run("month out of range is null", func(t *testing.T) {
		assert.False(t, DateOfBirthValue(str("13/01/2000")).Valid)
	})
}
